package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const userColumns = `id, username, email, fullname, avatar_id, avatar_url, cover_image_id, cover_image_url,
        password_hash, COALESCE(refresh_token, ''), created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Fullname, &user.AvatarID, &user.Avatar,
		&user.CoverImageID, &user.CoverImage, &user.Password, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record. Duplicate usernames or emails return ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, fullname, avatar_id, avatar_url, cover_image_id, cover_image_url,
            password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, user.Username, user.Email, user.Fullname, user.AvatarID, user.Avatar, user.CoverImageID,
		user.CoverImage, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translate("insert user", err)
	}

	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "select user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByUsername fetches a user by their exact username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, "select user by username", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// FindByUsernameOrEmail fetches the user matching either credential.
func (r *PostgresUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	return r.findOne(ctx, "select user by login", `
        SELECT `+userColumns+`
        FROM users
        WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
        ORDER BY created_at
        LIMIT 1
    `, username, email)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, op, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, args...))
	if err != nil {
		return models.User{}, translate(op, err)
	}
	return user, nil
}

// UpdateDetails changes the display name and email of a user.
func (r *PostgresUserRepository) UpdateDetails(ctx context.Context, id, fullname, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users
        SET fullname = $2, email = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, fullname, email, time.Now().UTC()))
	if err != nil {
		return models.User{}, translate("update user details", err)
	}
	return user, nil
}

// UpdatePassword stores a new password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET password_hash = $2, updated_at = $3
        WHERE id = $1
    `, id, passwordHash, time.Now().UTC())
	if err != nil {
		return translate("update password", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateAvatar points the user at a new avatar and returns the one it replaced.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id string, asset models.Asset) (models.Asset, error) {
	return r.swapAsset(ctx, id, asset, "avatar_id", "avatar_url")
}

// UpdateCoverImage points the user at a new cover image and returns the one it replaced.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id string, asset models.Asset) (models.Asset, error) {
	return r.swapAsset(ctx, id, asset, "cover_image_id", "cover_image_url")
}

func (r *PostgresUserRepository) swapAsset(ctx context.Context, id string, asset models.Asset, idColumn, urlColumn string) (models.Asset, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Asset{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var previous models.Asset
	err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`SELECT %s, %s FROM users WHERE id = $1 FOR UPDATE`, idColumn, urlColumn), id)
		if err := row.Scan(&previous.PublicID, &previous.URL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE users SET %s = $2, %s = $3, updated_at = $4 WHERE id = $1`, idColumn, urlColumn),
			id, asset.PublicID, asset.URL, time.Now().UTC())
		return err
	})
	if err != nil {
		return models.Asset{}, translate("update "+urlColumn, err)
	}

	return previous, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, title, description, video_file_id, video_file_url, thumbnail_id, thumbnail_url,
        duration, views, is_published, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoFileID, &v.VideoFile, &v.ThumbnailID,
		&v.Thumbnail, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_file_id, video_file_url, thumbnail_id, thumbnail_url,
            duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoFileID, video.VideoFile, video.ThumbnailID,
		video.Thumbnail, video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return translate("insert video", err)
	}

	return nil
}

// FindByID fetches a video by identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		return models.Video{}, translate("select video", err)
	}
	return video, nil
}

// Update writes the editable fields of a video.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail_id = $4, thumbnail_url = $5, updated_at = $6
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.ThumbnailID, video.Thumbnail, video.UpdatedAt)
	if err != nil {
		return translate("update video", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a video. Watch history entries go with it.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return translate("delete video", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetPublished sets the publish flag and returns the updated video.
func (r *PostgresVideoRepository) SetPublished(ctx context.Context, id string, published bool) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `
        UPDATE videos
        SET is_published = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+videoColumns, id, published, time.Now().UTC()))
	if err != nil {
		return models.Video{}, translate("update video publish status", err)
	}
	return video, nil
}

// RegisterView adds the video to the viewer's watch history. The view counter
// only moves the first time a viewer watches a video; the result reports whether it did.
func (r *PostgresVideoRepository) RegisterView(ctx context.Context, videoID, userID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var counted bool
	err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            INSERT INTO watch_history (user_id, video_id, watched_at)
            VALUES ($1, $2, $3)
            ON CONFLICT DO NOTHING
        `, userID, videoID, time.Now().UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, videoID); err != nil {
			return err
		}
		counted = true
		return nil
	})
	if err != nil {
		return false, translate("register view", err)
	}
	return counted, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
