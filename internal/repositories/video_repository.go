package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id string, published bool) (models.Video, error)
	RegisterView(ctx context.Context, videoID, userID string) (bool, error)
}
