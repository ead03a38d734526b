package handlers

import (
	"context"
	"net/http"

	"github.com/vidtube/backend/internal/api"
	"github.com/vidtube/backend/internal/models"
)

// LikeHandler toggles likes and lists liked videos.
type LikeHandler struct {
	Likes    LikeStore
	Videos   VideoStore
	Comments CommentStore
	Tweets   TweetStore
	Reader   ReadModels
}

type likeResult struct {
	IsLiked bool `json:"isLiked"`
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, models.LikeVideo, "videoId", func(ctx context.Context, id string) error {
		_, err := h.Videos.FindByID(ctx, id)
		return err
	})
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, models.LikeComment, "commentId", func(ctx context.Context, id string) error {
		_, err := h.Comments.FindByID(ctx, id)
		return err
	})
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, models.LikeTweet, "tweetId", func(ctx context.Context, id string) error {
		_, err := h.Tweets.FindByID(ctx, id)
		return err
	})
}

var likeLabels = map[models.LikeKind]string{
	models.LikeVideo:   "Video",
	models.LikeComment: "Comment",
	models.LikeTweet:   "Tweet",
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.LikeKind, param string, exists func(context.Context, string) error) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	label := likeLabels[kind]
	id, err := pathID(r, param, string(kind)+" id")
	if err != nil {
		return err
	}

	if err := exists(ctx, id); err != nil {
		return lookupError(err, label+" not found")
	}

	liked, err := h.Likes.Toggle(ctx, models.LikeTarget{Kind: kind, ID: id}, user.ID)
	if err != nil {
		return storeError("Something went wrong while toggling like", err)
	}

	message := label + " like removed"
	if liked {
		message = label + " liked"
	}
	api.Respond(ctx, w, http.StatusOK, likeResult{IsLiked: liked}, message)
	return nil
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	videos, err := h.Reader.LikedVideos(ctx, user.ID)
	if err != nil {
		return api.Internal("Something went wrong while fetching liked videos", err)
	}

	api.Respond(ctx, w, http.StatusOK, videos, "Liked videos fetched successfully")
	return nil
}
