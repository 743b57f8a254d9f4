package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the caller role carried in the auth token.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// User is a student or teacher account.
type User struct {
	ID           uuid.UUID `json:"id"`
	CollegeID    string    `json:"college_id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Subject      string    `json:"subject,omitempty"` // Teacher only
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	CollegeID string `json:"college_id" binding:"required,min=3,max=64"`
	Name      string `json:"name" binding:"required,min=1,max=255"`
	Password  string `json:"password" binding:"required,min=6,max=72"`
	Role      Role   `json:"role" binding:"required,oneof=student teacher"`
	Subject   string `json:"subject" binding:"required_if=Role teacher,max=100"`
}

// LoginRequest is the payload for authenticating with a college ID.
type LoginRequest struct {
	CollegeID string `json:"college_id" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// LoginResponse is returned on successful login or registration.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
