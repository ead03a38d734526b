package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.Content, &c.VideoID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create stores a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, content, video_id, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.Content, comment.VideoID, comment.OwnerID, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return translate("insert comment", err)
	}
	return nil
}

// FindByID fetches a comment by identifier.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        SELECT id, content, video_id, owner_id, created_at, updated_at
        FROM comments
        WHERE id = $1
    `, id))
	if err != nil {
		return models.Comment{}, translate("select comment", err)
	}
	return comment, nil
}

// UpdateContent replaces the text of a comment.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        UPDATE comments
        SET content = $2, updated_at = $3
        WHERE id = $1
        RETURNING id, content, video_id, owner_id, created_at, updated_at
    `, id, content, time.Now().UTC()))
	if err != nil {
		return models.Comment{}, translate("update comment", err)
	}
	return comment, nil
}

// Delete removes a comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "comments", id)
}

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

func scanTweet(row pgx.Row) (models.Tweet, error) {
	var t models.Tweet
	err := row.Scan(&t.ID, &t.Content, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Create stores a new tweet.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tweets (id, content, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, tweet.Content, tweet.OwnerID, tweet.CreatedAt, tweet.UpdatedAt)
	if err != nil {
		return translate("insert tweet", err)
	}
	return nil
}

// FindByID fetches a tweet by identifier.
func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tweet, err := scanTweet(conn.QueryRow(ctx, `
        SELECT id, content, owner_id, created_at, updated_at
        FROM tweets
        WHERE id = $1
    `, id))
	if err != nil {
		return models.Tweet{}, translate("select tweet", err)
	}
	return tweet, nil
}

// UpdateContent replaces the text of a tweet.
func (r *PostgresTweetRepository) UpdateContent(ctx context.Context, id, content string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tweet, err := scanTweet(conn.QueryRow(ctx, `
        UPDATE tweets
        SET content = $2, updated_at = $3
        WHERE id = $1
        RETURNING id, content, owner_id, created_at, updated_at
    `, id, content, time.Now().UTC()))
	if err != nil {
		return models.Tweet{}, translate("update tweet", err)
	}
	return tweet, nil
}

// Delete removes a tweet.
func (r *PostgresTweetRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "tweets", id)
}

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create stores a new, empty playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, name, description, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.Name, playlist.Description, playlist.OwnerID, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		return translate("insert playlist", err)
	}
	return nil
}

// FindByID fetches a playlist together with its video references in insertion order.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var p models.Playlist
	err = conn.QueryRow(ctx, `
        SELECT id, name, description, owner_id, created_at, updated_at
        FROM playlists
        WHERE id = $1
    `, id).Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Playlist{}, translate("select playlist", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT video_id
        FROM playlist_videos
        WHERE playlist_id = $1
        ORDER BY added_at, video_id
    `, id)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()

	p.Videos = []string{}
	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return models.Playlist{}, fmt.Errorf("scan playlist video: %w", err)
		}
		p.Videos = append(p.Videos, videoID)
	}
	if err := rows.Err(); err != nil {
		return models.Playlist{}, fmt.Errorf("iterate playlist videos: %w", err)
	}

	return p, nil
}

// Update changes a playlist's name and description.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, id, name, description string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}

	tag, err := conn.Exec(ctx, `
        UPDATE playlists
        SET name = $2, description = $3, updated_at = $4
        WHERE id = $1
    `, id, name, description, time.Now().UTC())
	conn.Release()
	if err != nil {
		return models.Playlist{}, translate("update playlist", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Playlist{}, ErrNotFound
	}

	return r.FindByID(ctx, id)
}

// Delete removes a playlist and its membership rows.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "playlists", id)
}

// AddVideo adds a video to a playlist. Adding a video twice is a no-op.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, added_at)
        VALUES ($1, $2, $3)
        ON CONFLICT DO NOTHING
    `, playlistID, videoID, time.Now().UTC())
	if err != nil {
		return translate("add playlist video", err)
	}
	return nil
}

// RemoveVideo drops a video from a playlist. Removing an absent video is a no-op.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM playlist_videos
        WHERE playlist_id = $1 AND video_id = $2
    `, playlistID, videoID); err != nil {
		return translate("remove playlist video", err)
	}
	return nil
}

// deleteByID removes a row from one of a fixed set of tables.
func deleteByID(ctx context.Context, pool db.Pool, table, id string) error {
	switch table {
	case "comments", "tweets", "playlists":
	default:
		return fmt.Errorf("delete from %s: unsupported table", table)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return translate("delete from "+table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
var _ TweetRepository = (*PostgresTweetRepository)(nil)
var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
