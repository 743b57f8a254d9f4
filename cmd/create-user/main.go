package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/exproctor/internal/config"
	"github.com/stemsi/exproctor/internal/database"
	"github.com/stemsi/exproctor/internal/logger"
	"github.com/stemsi/exproctor/internal/model"
	"github.com/stemsi/exproctor/internal/repository"
	"github.com/stemsi/exproctor/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	authService := service.NewAuthService(cfg, repository.NewUserRepository(pool))

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	prompt := func(label string) string {
		fmt.Print(label)
		v, _ := reader.ReadString('\n')
		return strings.TrimSpace(v)
	}

	role := model.Role(strings.ToLower(prompt("Enter Role (student/teacher, default teacher): ")))
	if role == "" {
		role = model.RoleTeacher
	}
	if role != model.RoleStudent && role != model.RoleTeacher {
		fmt.Println("Error: Role must be student or teacher")
		return
	}

	collegeID := prompt("Enter College ID: ")
	if collegeID == "" {
		fmt.Println("Error: College ID is required")
		return
	}

	name := prompt("Enter Name: ")
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	var subject string
	if role == model.RoleTeacher {
		subject = prompt("Enter Subject: ")
		if subject == "" {
			fmt.Println("Error: Subject is required for teachers")
			return
		}
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	res, err := authService.Register(ctx, model.RegisterRequest{
		CollegeID: collegeID,
		Name:      name,
		Password:  password,
		Role:      role,
		Subject:   subject,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			fmt.Printf("Error: college ID %q is already registered\n", collegeID)
			return
		}
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %s\n", res.User.Role, res.User.Name, res.User.CollegeID, res.User.ID)
}
