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

// CommentHandler implements comments on videos.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Reader   ReadModels
	NowFunc  func() time.Time
}

type contentRequest struct {
	Content string `json:"content"`
}

// List handles GET /api/v1/comments/{videoId}, oldest first.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId", "video id")
	if err != nil {
		return err
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		return lookupError(err, "Video not found")
	}

	result, err := h.Reader.VideoComments(ctx, videoID, pipeline.ParsePage(r.URL.Query(), commentPageSize))
	if err != nil {
		return api.Internal("Something went wrong while fetching comments", err)
	}

	message := "Comments fetched successfully"
	if result.TotalDocs == 0 {
		message = "No comments found"
	}
	api.Respond(ctx, w, http.StatusOK, result, message)
	return nil
}

// Add handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	videoID, err := pathID(r, "videoId", "video id")
	if err != nil {
		return err
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		return lookupError(err, "Video not found")
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return api.BadRequest("Content is required")
	}

	now := clock(h.NowFunc)
	comment := models.Comment{
		ID:        uuid.NewString(),
		Content:   content,
		VideoID:   videoID,
		OwnerID:   user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Comments.Create(ctx, comment); err != nil {
		return storeError("Something went wrong while adding comment", err)
	}

	api.Respond(ctx, w, http.StatusCreated, comment, "Comment added successfully")
	return nil
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	commentID, err := pathID(r, "commentId", "comment id")
	if err != nil {
		return err
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		return lookupError(err, "Comment not found")
	}
	if err := requireOwner(comment.OwnerID, user.ID, "update this comment"); err != nil {
		return err
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return api.BadRequest("Content is required")
	}

	updated, err := h.Comments.UpdateContent(ctx, commentID, content)
	if err != nil {
		return storeError("Something went wrong while updating comment", err)
	}

	api.Respond(ctx, w, http.StatusOK, updated, "Comment updated successfully")
	return nil
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	commentID, err := pathID(r, "commentId", "comment id")
	if err != nil {
		return err
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		return lookupError(err, "Comment not found")
	}
	if err := requireOwner(comment.OwnerID, user.ID, "delete this comment"); err != nil {
		return err
	}

	if err := h.Comments.Delete(ctx, commentID); err != nil {
		return storeError("Something went wrong while deleting comment", err)
	}

	api.Respond(ctx, w, http.StatusOK, struct{}{}, "Comment deleted successfully")
	return nil
}
