package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresSessionStore persists each user's current refresh token on the users row.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save replaces the stored refresh token for a user.
func (s *PostgresSessionStore) Save(ctx context.Context, userID, refreshToken string) error {
	return s.set(ctx, userID, &refreshToken)
}

// Find loads the refresh token currently stored for a user.
func (s *PostgresSessionStore) Find(ctx context.Context, userID string) (string, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var token *string
	if err := conn.QueryRow(ctx, `
        SELECT refresh_token
        FROM users
        WHERE id = $1
    `, userID).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", auth.ErrSessionNotFound
		}
		return "", fmt.Errorf("select refresh token: %w", err)
	}

	if token == nil {
		return "", auth.ErrSessionNotFound
	}
	return *token, nil
}

// Rotate replaces the stored refresh token with next only while it still
// equals current.
func (s *PostgresSessionStore) Rotate(ctx context.Context, userID, current, next string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $3
        WHERE id = $1 AND refresh_token = $2
    `, userID, current, next)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrRefreshTokenReused
	}
	return nil
}

// Delete clears the stored refresh token for a user.
func (s *PostgresSessionStore) Delete(ctx context.Context, userID string) error {
	return s.set(ctx, userID, nil)
}

func (s *PostgresSessionStore) set(ctx context.Context, userID string, token *string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $2
        WHERE id = $1
    `, userID, token)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}

	return nil
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

type sessionUsers struct {
	users userFinder
}

// SessionUsers adapts a user repository to auth.UserLoader, reporting missing
// users as auth.ErrUserNotFound.
func SessionUsers(users userFinder) auth.UserLoader {
	return sessionUsers{users: users}
}

func (s sessionUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, fmt.Errorf("%w: %v", auth.ErrUserNotFound, err)
	}
	return user, err
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
