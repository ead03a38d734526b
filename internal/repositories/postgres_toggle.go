package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// maxToggleAttempts bounds how often toggle retries when concurrent callers keep
// changing the row between its delete and insert.
const maxToggleAttempts = 16

// toggle flips the existence of the row identified by a unique pair. Every
// successful call performs exactly one transition: it reports false after
// deleting the row and true after inserting it. When a concurrent caller wins
// the insert, the loop goes back to deleting the row that caller created.
func toggle(ctx context.Context, pool db.Pool, op, deleteSQL string, deleteArgs []any, insertSQL string, insertArgs []any) (bool, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		var tag pgconn.CommandTag
		if tag, err = conn.Exec(ctx, deleteSQL, deleteArgs...); err != nil {
			return false, translate(op, err)
		}
		if tag.RowsAffected() > 0 {
			return false, nil
		}

		if tag, err = conn.Exec(ctx, insertSQL, insertArgs...); err != nil {
			return false, translate(op, err)
		}
		if tag.RowsAffected() > 0 {
			return true, nil
		}
	}
	return false, fmt.Errorf("%s: row kept changing after %d attempts", op, maxToggleAttempts)
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

var likeColumns = map[models.LikeKind]string{
	models.LikeVideo:   "video_id",
	models.LikeComment: "comment_id",
	models.LikeTweet:   "tweet_id",
}

// Toggle likes the target for userID, or removes the like if it exists.
// It reports true when the like was added.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, target models.LikeTarget, userID string) (bool, error) {
	column, ok := likeColumns[target.Kind]
	if !ok {
		return false, fmt.Errorf("toggle like: unknown target kind %q", target.Kind)
	}

	deleteSQL := `DELETE FROM likes WHERE ` + column + ` = $1 AND liked_by = $2`
	insertSQL := `
        INSERT INTO likes (id, ` + column + `, liked_by, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT DO NOTHING
    `
	return toggle(ctx, r.pool, "toggle "+string(target.Kind)+" like",
		deleteSQL, []any{target.ID, userID},
		insertSQL, []any{uuid.NewString(), target.ID, userID, time.Now().UTC()})
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle subscribes subscriberID to channelID, or unsubscribes if already subscribed.
// It reports true when the subscription was added.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	return toggle(ctx, r.pool, "toggle subscription",
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		[]any{subscriberID, channelID},
		`
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT DO NOTHING
    `,
		[]any{uuid.NewString(), subscriberID, channelID, time.Now().UTC()})
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
