package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/api"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/readmodels"
)

// VideoHandler implements publishing, browsing and editing of videos.
type VideoHandler struct {
	Videos         VideoStore
	Media          MediaStore
	Reader         ReadModels
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

type videoDetailsRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// List handles GET /api/v1/videos. Only published videos are listed.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	query := r.URL.Query()

	filter := readmodels.VideoFilter{
		Query:    strings.TrimSpace(query.Get("query")),
		SortBy:   strings.TrimSpace(query.Get("sortBy")),
		SortDesc: strings.EqualFold(strings.TrimSpace(query.Get("sortType")), "desc"),
	}
	if raw := strings.TrimSpace(query.Get("userId")); raw != "" {
		ownerID, err := parseID(raw, "user id")
		if err != nil {
			return err
		}
		filter.OwnerID = ownerID
	}

	result, err := h.Reader.Videos(ctx, filter, pipeline.ParsePage(query, videoPageSize))
	if err != nil {
		return api.Internal("Something went wrong while fetching videos", err)
	}

	message := "Videos fetched successfully"
	if result.TotalDocs == 0 {
		message = "No video found"
	}
	api.Respond(ctx, w, http.StatusOK, result, message)
	return nil
}

// Publish handles POST /api/v1/videos. The body is a multipart form with title,
// description, videoFile and thumbnail.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		return err
	}

	title := formValue(r, "title")
	description := formValue(r, "description")
	if title == "" || description == "" {
		return api.BadRequest("All fields are required")
	}

	videoFile := formFile(r, "videoFile")
	thumbnailFile := formFile(r, "thumbnail")
	if videoFile == nil || thumbnailFile == nil {
		return api.BadRequest("Video file and thumbnail are required")
	}

	video, err := h.Media.Store(ctx, media.KindVideo, videoFile)
	if err != nil {
		return uploadError(err, "Error while uploading video file")
	}
	thumbnail, err := h.Media.Store(ctx, media.KindThumbnail, thumbnailFile)
	if err != nil {
		discardAssets(r, h.Media, video.PublicID)
		return uploadError(err, "Error while uploading thumbnail")
	}

	now := clock(h.NowFunc)
	record := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Title:       title,
		Description: description,
		VideoFile:   video.URL,
		VideoFileID: video.PublicID,
		Thumbnail:   thumbnail.URL,
		ThumbnailID: thumbnail.PublicID,
		Duration:    video.Duration,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Videos.Create(ctx, record); err != nil {
		discardAssets(r, h.Media, video.PublicID, thumbnail.PublicID)
		return api.Internal("Something went wrong while publishing video", err)
	}

	logging.FromContext(ctx).Info("video published", "videoId", record.ID, "duration", record.Duration)
	api.Respond(ctx, w, http.StatusCreated, record, "Video published successfully")
	return nil
}

// Get handles GET /api/v1/videos/{videoId}. Watching a video records it in the
// caller's history and counts one view per viewer.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	videoID, err := pathID(r, "videoId", "video id")
	if err != nil {
		return err
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		return lookupError(err, "Video not found")
	}
	if !video.IsPublished && video.OwnerID != user.ID {
		return api.NotFound("Video not found")
	}

	if _, err := h.Videos.RegisterView(ctx, videoID, user.ID); err != nil {
		return api.Internal("Something went wrong while recording the view", err)
	}

	detail, err := h.Reader.VideoDetail(ctx, videoID)
	if err != nil {
		return lookupError(err, "Video not found")
	}

	api.Respond(ctx, w, http.StatusOK, detail, "Video details fetched successfully")
	return nil
}

// Update handles PATCH /api/v1/videos/{videoId}. It accepts JSON or a multipart form;
// a thumbnail file in the form replaces the current one.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	videoID, err := pathID(r, "videoId", "video id")
	if err != nil {
		return err
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		return lookupError(err, "Video not found")
	}
	if err := requireOwner(video.OwnerID, user.ID, "update this video"); err != nil {
		return err
	}

	var req videoDetailsRequest
	var thumbnailFile *multipart.FileHeader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
			return err
		}
		req.Title = formValue(r, "title")
		req.Description = formValue(r, "description")
		thumbnailFile = formFile(r, "thumbnail")
	} else if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	if req.Title == "" && req.Description == "" && thumbnailFile == nil {
		return api.BadRequest("Title, description or thumbnail is required")
	}

	updated := video
	if req.Title != "" {
		updated.Title = req.Title
	}
	if req.Description != "" {
		updated.Description = req.Description
	}
	if thumbnailFile != nil {
		thumbnail, err := h.Media.Store(ctx, media.KindThumbnail, thumbnailFile)
		if err != nil {
			return uploadError(err, "Error while uploading thumbnail")
		}
		updated.Thumbnail = thumbnail.URL
		updated.ThumbnailID = thumbnail.PublicID
	}
	updated.UpdatedAt = clock(h.NowFunc)

	if err := h.Videos.Update(ctx, updated); err != nil {
		if thumbnailFile != nil {
			discardAssets(r, h.Media, updated.ThumbnailID)
		}
		return storeError("Something went wrong while updating video", err)
	}

	if thumbnailFile != nil {
		if err := h.Media.Delete(ctx, video.ThumbnailID); err != nil {
			return api.Internal("Error while deleting old thumbnail", err)
		}
	}

	api.Respond(ctx, w, http.StatusOK, updated, "Video details updated successfully")
	return nil
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	videoID, err := pathID(r, "videoId", "video id")
	if err != nil {
		return err
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		return lookupError(err, "Video not found")
	}
	if err := requireOwner(video.OwnerID, user.ID, "delete this video"); err != nil {
		return err
	}

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		return storeError("Something went wrong while deleting video", err)
	}
	discardAssets(r, h.Media, video.VideoFileID, video.ThumbnailID)

	api.Respond(ctx, w, http.StatusOK, struct{}{}, "Video deleted successfully")
	return nil
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	videoID, err := pathID(r, "videoId", "video id")
	if err != nil {
		return err
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		return lookupError(err, "Video not found")
	}
	if err := requireOwner(video.OwnerID, user.ID, "change this video"); err != nil {
		return err
	}

	updated, err := h.Videos.SetPublished(ctx, videoID, !video.IsPublished)
	if err != nil {
		return storeError("Something went wrong while updating publish status", err)
	}

	message := "Video unpublished"
	if updated.IsPublished {
		message = "Video published"
	}
	api.Respond(ctx, w, http.StatusOK, updated, message)
	return nil
}
