package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/models"
)

// Store persists uploaded media and removes it again by public id.
type Store interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader, size int64) (models.Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// New selects the Store implementation named by cfg.Driver.
func New(ctx context.Context, cfg config.ObjectStoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "s3":
		return NewS3Storage(ctx, cfg)
	case "minio":
		return NewMinioStorage(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("storage: empty key")
	}
	return key, nil
}

func publicURL(baseURL, key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(baseURL, "/"), key)
}
