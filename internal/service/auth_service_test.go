package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stemsi/exproctor/internal/config"
	"github.com/stemsi/exproctor/internal/model"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth() *AuthService {
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: bcrypt.MinCost}
	return NewAuthService(cfg, newFakeUsers())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuth()
	ctx := context.Background()

	reg, err := svc.Register(ctx, model.RegisterRequest{
		CollegeID: "T-001", Name: "Ms. Rivera", Password: "secret1", Role: model.RoleTeacher, Subject: "math",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.PasswordHash == "secret1" {
		t.Error("password stored in clear text")
	}

	claims, err := svc.ValidateToken(reg.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != reg.User.ID || claims.Role != model.RoleTeacher || claims.Subject != "math" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.Login(ctx, model.LoginRequest{CollegeID: "T-001", Password: "secret1"}); err != nil {
		t.Errorf("Login: %v", err)
	}

	tests := []struct {
		name string
		req  model.LoginRequest
	}{
		{"wrong password", model.LoginRequest{CollegeID: "T-001", Password: "nope"}},
		{"unknown user", model.LoginRequest{CollegeID: "T-404", Password: "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tt.req); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc := newTestAuth()
	ctx := context.Background()
	req := model.RegisterRequest{CollegeID: "S-001", Name: "Ana", Password: "secret1", Role: model.RoleStudent, Subject: "ignored"}

	reg, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.Subject != "" {
		t.Errorf("student subject = %q, want empty", reg.User.Subject)
	}
	if _, err := svc.Register(ctx, req); !errors.Is(err, ErrUserExists) {
		t.Errorf("err = %v, want ErrUserExists", err)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := newTestAuth()
	u := &model.User{CollegeID: "S-1", Name: "Ana", Role: model.RoleStudent}

	token, err := svc.GenerateToken(u)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := newTestAuth()
	other.cfg = &config.Config{JWTSecret: "another-secret", JWTExpiry: time.Hour}
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with another secret was accepted")
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expired token was accepted")
	}

	if _, err := svc.ValidateToken("not-a-jwt"); err == nil {
		t.Error("garbage token was accepted")
	}
}
