package handlers

import (
	"context"
	"mime/multipart"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/readmodels"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdateDetails(ctx context.Context, id, fullname, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id string, asset models.Asset) (models.Asset, error)
	UpdateCoverImage(ctx context.Context, id string, asset models.Asset) (models.Asset, error)
}

// SessionManager issues, rotates, verifies and revokes token pairs.
type SessionManager interface {
	Issue(ctx context.Context, user models.User) (models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Authenticate(accessToken string) (auth.AccessClaims, error)
	Revoke(ctx context.Context, userID string) error
}

// MediaStore uploads multipart files to object storage and deletes them again.
type MediaStore interface {
	Store(ctx context.Context, kind media.Kind, file *multipart.FileHeader) (media.Upload, error)
	Delete(ctx context.Context, publicID string) error
}

// VideoStore captures persistence for videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id string, published bool) (models.Video, error)
	RegisterView(ctx context.Context, videoID, userID string) (bool, error)
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// PlaylistStore captures persistence for playlists and their membership.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Update(ctx context.Context, id, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// LikeStore toggles likes.
type LikeStore interface {
	Toggle(ctx context.Context, target models.LikeTarget, userID string) (bool, error)
}

// SubscriptionStore toggles subscriptions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// ReadModels serves the joined views behind listing and detail endpoints.
type ReadModels interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	ChannelStats(ctx context.Context, userID string) (models.ChannelStats, error)
	ChannelVideos(ctx context.Context, userID string) ([]models.VideoView, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoView, error)
	VideoDetail(ctx context.Context, videoID string) (models.VideoView, error)
	Videos(ctx context.Context, filter readmodels.VideoFilter, page pipeline.Page) (pipeline.PageResult, error)
	VideoComments(ctx context.Context, videoID string, page pipeline.Page) (pipeline.PageResult, error)
	UserTweets(ctx context.Context, userID string, page pipeline.Page) (pipeline.PageResult, error)
	LikedVideos(ctx context.Context, userID string) ([]models.LikedVideo, error)
	UserPlaylists(ctx context.Context, userID string) ([]models.PlaylistView, error)
	PlaylistDetail(ctx context.Context, playlistID string) (models.PlaylistView, error)
	ChannelSubscribers(ctx context.Context, channelID string) ([]models.UserSummary, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.UserSummary, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
