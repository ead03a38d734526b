package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/models"
)

// MinioStorage implements Store on a MinIO server.
type MinioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStorage connects to the MinIO endpoint and creates the bucket when missing.
func NewMinioStorage(ctx context.Context, cfg config.ObjectStoreConfig) (*MinioStorage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("minio storage: bucket is required")
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	if endpoint == "" {
		return nil, fmt.Errorf("minio storage: endpoint is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio storage: %w", err)
	}

	s := &MinioStorage{client: client, bucket: cfg.Bucket, baseURL: cfg.PublicBaseURL}
	if s.baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		s.baseURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	if err := s.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MinioStorage) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio storage: check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("minio storage: make bucket: %w", err)
	}
	return nil
}

// Upload stores the content under key. A negative size streams with an unknown length.
func (s *MinioStorage) Upload(ctx context.Context, key, contentType string, r io.Reader, size int64) (models.Asset, error) {
	key, err := cleanKey(key)
	if err != nil {
		return models.Asset{}, err
	}
	if size <= 0 {
		size = -1
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return models.Asset{}, fmt.Errorf("minio storage upload %s: %w", key, err)
	}
	return models.Asset{PublicID: key, URL: publicURL(s.baseURL, key)}, nil
}

// Delete removes the object identified by publicID.
func (s *MinioStorage) Delete(ctx context.Context, publicID string) error {
	key, err := cleanKey(publicID)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio storage delete %s: %w", key, err)
	}
	return nil
}

var _ Store = (*MinioStorage)(nil)
