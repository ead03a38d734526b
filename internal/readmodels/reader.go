// Package readmodels assembles the denormalized views served by the API from
// document pipelines over the relational store.
package readmodels

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
)

// ErrNotFound indicates the root entity of a single-document view does not exist.
var ErrNotFound = errors.New("read model not found")

// Labels for paginated listings.
var (
	VideoLabels   = pipeline.Labels{Docs: "videos", Total: "totalVideos"}
	CommentLabels = pipeline.Labels{Docs: "comments", Total: "totalComments"}
	TweetLabels   = pipeline.Labels{Docs: "Tweets", Total: "TweetCount"}
)

// Reader runs the read-model pipelines.
type Reader struct {
	exec *pipeline.Executor
}

// NewReader constructs a Reader over pool.
func NewReader(pool db.Pool) *Reader {
	return &Reader{exec: pipeline.NewExecutor(pool, Schema())}
}

// ChannelProfile returns the public profile of username as seen by viewerID.
func (r *Reader) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	var out models.ChannelProfile
	if err := r.one(ctx, "channel profile", channelProfilePipeline(username, viewerID), &out); err != nil {
		return models.ChannelProfile{}, err
	}
	return out, nil
}

// ChannelStats returns dashboard totals for userID.
func (r *Reader) ChannelStats(ctx context.Context, userID string) (models.ChannelStats, error) {
	var out models.ChannelStats
	if err := r.one(ctx, "channel stats", channelStatsPipeline(userID), &out); err != nil {
		return models.ChannelStats{}, err
	}
	return out, nil
}

// ChannelVideos lists every video owned by userID, published or not.
func (r *Reader) ChannelVideos(ctx context.Context, userID string) ([]models.VideoView, error) {
	out := []models.VideoView{}
	if err := r.all(ctx, "channel videos", channelVideosPipeline(userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WatchHistory lists the videos userID has watched, oldest first.
func (r *Reader) WatchHistory(ctx context.Context, userID string) ([]models.VideoView, error) {
	out := []models.VideoView{}
	if err := r.all(ctx, "watch history", watchHistoryPipeline(userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VideoDetail returns a video with its owner's profile.
func (r *Reader) VideoDetail(ctx context.Context, videoID string) (models.VideoView, error) {
	var out models.VideoView
	if err := r.one(ctx, "video detail", videoDetailPipeline(videoID), &out); err != nil {
		return models.VideoView{}, err
	}
	return out, nil
}

// Videos pages through published videos matching filter.
func (r *Reader) Videos(ctx context.Context, filter VideoFilter, page pipeline.Page) (pipeline.PageResult, error) {
	return r.paginate(ctx, "videos", videoListPipeline(filter), page, VideoLabels)
}

// VideoComments pages through the comments on a video, oldest first.
func (r *Reader) VideoComments(ctx context.Context, videoID string, page pipeline.Page) (pipeline.PageResult, error) {
	return r.paginate(ctx, "video comments", videoCommentsPipeline(videoID), page, CommentLabels)
}

// UserTweets pages through the tweets of userID, newest first.
func (r *Reader) UserTweets(ctx context.Context, userID string, page pipeline.Page) (pipeline.PageResult, error) {
	return r.paginate(ctx, "user tweets", userTweetsPipeline(userID), page, TweetLabels)
}

// LikedVideos lists the videos userID has liked, most recent like first.
func (r *Reader) LikedVideos(ctx context.Context, userID string) ([]models.LikedVideo, error) {
	out := []models.LikedVideo{}
	if err := r.all(ctx, "liked videos", likedVideosPipeline(userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserPlaylists lists the playlists owned by userID with their videos resolved.
func (r *Reader) UserPlaylists(ctx context.Context, userID string) ([]models.PlaylistView, error) {
	out := []models.PlaylistView{}
	if err := r.all(ctx, "user playlists", userPlaylistsPipeline(userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PlaylistDetail returns a playlist with its videos and owner resolved.
func (r *Reader) PlaylistDetail(ctx context.Context, playlistID string) (models.PlaylistView, error) {
	var out models.PlaylistView
	if err := r.one(ctx, "playlist detail", playlistDetailPipeline(playlistID), &out); err != nil {
		return models.PlaylistView{}, err
	}
	return out, nil
}

// ChannelSubscribers lists the users subscribed to channelID.
func (r *Reader) ChannelSubscribers(ctx context.Context, channelID string) ([]models.UserSummary, error) {
	out := []models.UserSummary{}
	if err := r.all(ctx, "channel subscribers", channelSubscribersPipeline(channelID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubscribedChannels lists the channels subscriberID is subscribed to.
func (r *Reader) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.UserSummary, error) {
	out := []models.UserSummary{}
	if err := r.all(ctx, "subscribed channels", subscribedChannelsPipeline(subscriberID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reader) one(ctx context.Context, view string, pl pipeline.Pipeline, dest any) error {
	if err := r.exec.One(ctx, pl, dest); err != nil {
		if errors.Is(err, pipeline.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("%s: %w", view, err)
	}
	return nil
}

func (r *Reader) all(ctx context.Context, view string, pl pipeline.Pipeline, dest any) error {
	if err := r.exec.All(ctx, pl, dest); err != nil {
		return fmt.Errorf("%s: %w", view, err)
	}
	return nil
}

func (r *Reader) paginate(ctx context.Context, view string, pl pipeline.Pipeline, page pipeline.Page, labels pipeline.Labels) (pipeline.PageResult, error) {
	result, err := r.exec.Paginate(ctx, pl, page, labels)
	if err != nil {
		return pipeline.PageResult{}, fmt.Errorf("%s: %w", view, err)
	}
	return result, nil
}
