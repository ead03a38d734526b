package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdateDetails(ctx context.Context, id, fullname, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id string, asset models.Asset) (models.Asset, error)
	UpdateCoverImage(ctx context.Context, id string, asset models.Asset) (models.Asset, error)
}
