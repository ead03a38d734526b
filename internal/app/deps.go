package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/readmodels"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// limiterTTL is how long an idle client keeps its token bucket.
const limiterTTL = 10 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, error) {
	store, err := storage.New(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
	}

	users := repositories.NewPostgresUserRepository(pool)
	signer := auth.NewSigner(cfg.Tokens.AccessSecret, cfg.Tokens.RefreshSecret, cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL)

	var limiter middleware.RateLimiter
	if cfg.AuthRateLimit > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateBurst, limiterTTL)
	}

	return handlers.Dependencies{
		Logger:         logger,
		DB:             pool,
		Users:          users,
		Sessions:       auth.NewManager(signer, repositories.NewPostgresSessionStore(pool), repositories.SessionUsers(users)),
		Media:          media.NewUploader(store, media.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout), cfg.UploadDir),
		Videos:         repositories.NewPostgresVideoRepository(pool),
		Comments:       repositories.NewPostgresCommentRepository(pool),
		Tweets:         repositories.NewPostgresTweetRepository(pool),
		Playlists:      repositories.NewPostgresPlaylistRepository(pool),
		Likes:          repositories.NewPostgresLikeRepository(pool),
		Subscriptions:  repositories.NewPostgresSubscriptionRepository(pool),
		Reader:         readmodels.NewReader(pool),
		Metrics:        middleware.NewMetrics(),
		AuthLimiter:    limiter,
		CORSOrigins:    cfg.CORSOrigins,
		Cookies:        handlers.CookieOptions{Secure: cfg.Cookie.Secure},
		MaxUploadBytes: cfg.MaxUploadBytes,
		Started:        time.Now(),
	}, nil
}
