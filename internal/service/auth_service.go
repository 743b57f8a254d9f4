package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exproctor/internal/config"
	"github.com/stemsi/exproctor/internal/model"
	"github.com/stemsi/exproctor/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID  `json:"user_id"`
	CollegeID string     `json:"college_id"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	Subject   string     `json:"subject,omitempty"` // Teacher only
}

// AuthService handles registration, login and JWT issuance.
type AuthService struct {
	cfg   *config.Config
	users UserStore
	now   func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, users UserStore) *AuthService {
	return &AuthService{cfg: cfg, users: users, now: time.Now}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates an account and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.LoginResponse, error) {
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		CollegeID:    req.CollegeID,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if req.Role == model.RoleTeacher {
		u.Subject = req.Subject
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateCollegeID) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.GenerateToken(u)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{User: u, Token: token}, nil
}

// Login verifies credentials and issues a token. Unknown college IDs and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	u, err := s.users.GetByCollegeID(ctx, req.CollegeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(u)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{User: u, Token: token}, nil
}

// GenerateToken creates a signed JWT for the user.
func (s *AuthService) GenerateToken(u *model.User) (string, error) {
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID:    u.ID,
		CollegeID: u.CollegeID,
		Name:      u.Name,
		Role:      u.Role,
		Subject:   u.Subject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Role != model.RoleStudent && claims.Role != model.RoleTeacher {
		return nil, errors.New("invalid token role")
	}

	return claims, nil
}
