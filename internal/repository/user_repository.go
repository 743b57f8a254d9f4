package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exproctor/internal/model"
)

var ErrDuplicateCollegeID = errors.New("user with this college ID already exists")

// UserRepository handles student and teacher account access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, college_id, name, password_hash, role, subject, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.CollegeID, &u.Name, &u.PasswordHash, &u.Role, &u.Subject, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByCollegeID retrieves a user by their unique college ID.
func (r *UserRepository) GetByCollegeID(ctx context.Context, collegeID string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, college_id, name, password_hash, role, subject, created_at
		 FROM users WHERE college_id = $1`, collegeID,
	).Scan(&u.ID, &u.CollegeID, &u.Name, &u.PasswordHash, &u.Role, &u.Subject, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (college_id, name, password_hash, role, subject)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		u.CollegeID, u.Name, u.PasswordHash, u.Role, u.Subject,
	).Scan(&u.ID, &u.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCollegeID
		}
		return err
	}
	return nil
}
