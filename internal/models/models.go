package models

import "time"

// User represents an account within the VidTube platform.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Fullname     string    `json:"fullname"`
	Avatar       string    `json:"avatar"`
	AvatarID     string    `json:"-"`
	CoverImage   string    `json:"coverImage"`
	CoverImageID string    `json:"-"`
	Password     string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Video is an uploaded video owned by a channel.
type Video struct {
	ID          string    `json:"_id"`
	OwnerID     string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `json:"videoFile"`
	VideoFileID string    `json:"-"`
	Thumbnail   string    `json:"thumbnail"`
	ThumbnailID string    `json:"-"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Comment is a remark left on a video.
type Comment struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	VideoID   string    `json:"video"`
	OwnerID   string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tweet is a short text post published on a channel.
type Tweet struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	OwnerID   string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Playlist groups videos curated by a user.
type Playlist struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner"`
	Videos      []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subscription links a subscriber to a channel.
type Subscription struct {
	ID           string    `json:"_id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LikeKind names the entity a like points at.
type LikeKind string

const (
	LikeVideo   LikeKind = "video"
	LikeComment LikeKind = "comment"
	LikeTweet   LikeKind = "tweet"
)

// LikeTarget identifies the single entity a like refers to.
type LikeTarget struct {
	Kind LikeKind
	ID   string
}

// Asset is a stored object as returned by the object store.
type Asset struct {
	PublicID string
	URL      string
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"-"`
}
