package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/api"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
)

// TweetHandler implements short text posts.
type TweetHandler struct {
	Tweets  TweetStore
	Users   UserLookup
	Reader  ReadModels
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return api.BadRequest("Tweet content is required")
	}

	now := clock(h.NowFunc)
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		Content:   content,
		OwnerID:   user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Tweets.Create(ctx, tweet); err != nil {
		return storeError("Something went wrong while creating tweet", err)
	}

	api.Respond(ctx, w, http.StatusCreated, tweet, "Tweet added successfully")
	return nil
}

// ListByUser handles GET /api/v1/tweets/user/{userId}, newest first.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	userID, err := pathID(r, "userId", "user id")
	if err != nil {
		return err
	}

	if _, err := h.Users.FindByID(ctx, userID); err != nil {
		return lookupError(err, "User not found")
	}

	result, err := h.Reader.UserTweets(ctx, userID, pipeline.ParsePage(r.URL.Query(), tweetPageSize))
	if err != nil {
		return api.Internal("Something went wrong while fetching tweets", err)
	}

	api.Respond(ctx, w, http.StatusOK, result, "Tweets fetched successfully")
	return nil
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	tweetID, err := pathID(r, "tweetId", "tweet id")
	if err != nil {
		return err
	}

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		return lookupError(err, "Tweet not found")
	}
	if err := requireOwner(tweet.OwnerID, user.ID, "update this tweet"); err != nil {
		return err
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return api.BadRequest("Tweet content is required")
	}

	updated, err := h.Tweets.UpdateContent(ctx, tweetID, content)
	if err != nil {
		return storeError("Something went wrong while updating tweet", err)
	}

	api.Respond(ctx, w, http.StatusOK, updated, "Tweet updated successfully")
	return nil
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	tweetID, err := pathID(r, "tweetId", "tweet id")
	if err != nil {
		return err
	}

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		return lookupError(err, "Tweet not found")
	}
	if err := requireOwner(tweet.OwnerID, user.ID, "delete this tweet"); err != nil {
		return err
	}

	if err := h.Tweets.Delete(ctx, tweetID); err != nil {
		return storeError("Something went wrong while deleting tweet", err)
	}

	api.Respond(ctx, w, http.StatusOK, struct{}{}, "Tweet deleted successfully")
	return nil
}
