package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/storage"
)

var (
	// ErrNoFile indicates Store was called without a file.
	ErrNoFile = errors.New("upload: no file provided")
	// ErrEmptyFile indicates the uploaded part has no content.
	ErrEmptyFile = errors.New("upload: file is empty")
)

// Kind groups uploads under a key prefix.
type Kind string

const (
	KindAvatar     Kind = "avatars"
	KindCoverImage Kind = "covers"
	KindVideo      Kind = "videos"
	KindThumbnail  Kind = "thumbnails"
)

// Prober measures media duration in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Upload is a stored file and, for videos, its measured duration.
type Upload struct {
	models.Asset
	Duration float64
}

// Uploader spools multipart parts to local disk and pushes them to the object store.
type Uploader struct {
	store  storage.Store
	prober Prober
	dir    string
}

// NewUploader constructs an Uploader. dir holds temporary files while an upload is in flight.
func NewUploader(store storage.Store, prober Prober, dir string) *Uploader {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Uploader{store: store, prober: prober, dir: dir}
}

// Store uploads file under kind. Video uploads are probed for their duration.
// The temporary file is removed whether or not the upload succeeds.
func (u *Uploader) Store(ctx context.Context, kind Kind, file *multipart.FileHeader) (Upload, error) {
	if file == nil {
		return Upload{}, ErrNoFile
	}
	ctx, span := logging.StartSpan(ctx, "media.Store", slog.String("kind", string(kind)))
	defer span.End()

	src, err := file.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(u.dir, "vidtube-*"+filepath.Ext(file.Filename))
	if err != nil {
		return Upload{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(ctx).Warn("remove temp upload", slog.String("path", tmp.Name()), slog.Any("error", err))
		}
	}()

	size, err := io.Copy(tmp, src)
	if err != nil {
		return Upload{}, fmt.Errorf("spool upload: %w", err)
	}
	if size == 0 {
		return Upload{}, ErrEmptyFile
	}

	var duration float64
	if kind == KindVideo && u.prober != nil {
		duration, err = u.prober.Duration(ctx, tmp.Name())
		if err != nil {
			return Upload{}, err
		}
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return Upload{}, fmt.Errorf("rewind upload: %w", err)
	}

	key := objectKey(kind, file.Filename)
	asset, err := u.store.Upload(ctx, key, file.Header.Get("Content-Type"), tmp, size)
	if err != nil {
		return Upload{}, err
	}

	return Upload{Asset: asset, Duration: duration}, nil
}

// Delete removes a previously stored asset. Empty ids are ignored.
func (u *Uploader) Delete(ctx context.Context, publicID string) error {
	if strings.TrimSpace(publicID) == "" {
		return nil
	}
	return u.store.Delete(ctx, publicID)
}

func objectKey(kind Kind, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", kind, uuid.NewString(), ext)
}
