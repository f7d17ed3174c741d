package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
}

// defines methods for user db operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create returns ErrDuplicate when the email is taken.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, user.ID.String(), user.Email, user.CreatedAt.UnixNano())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, created_at FROM users WHERE email = $1`
	user := &User{}
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Email, &createdAt)
	if err != nil {
		return nil, notFound(err)
	}
	user.CreatedAt = time.Unix(0, createdAt).UTC()
	return user, nil
}
