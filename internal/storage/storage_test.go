package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/backend/internal/config"
)

func TestCleanKey(t *testing.T) {
	key, err := cleanKey("  /avatars/abc.png ")
	require.NoError(t, err)
	assert.Equal(t, "avatars/abc.png", key)

	_, err = cleanKey("///")
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/videos/a.mp4", publicURL("https://cdn.example.com/", "videos/a.mp4"))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.ObjectStoreConfig{Driver: "gcs", Bucket: "b"})
	assert.ErrorContains(t, err, "unknown driver")
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{Driver: "s3"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewMinioStorage(context.Background(), config.ObjectStoreConfig{Driver: "minio"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewMinioStorage(context.Background(), config.ObjectStoreConfig{Driver: "minio", Bucket: "b"})
	assert.ErrorContains(t, err, "endpoint is required")
}
