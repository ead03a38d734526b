package handlers

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/api"
	"github.com/vidtube/backend/internal/models"
)

// PlaylistHandler implements playlist management.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Users     UserLookup
	Reader    ReadModels
	NowFunc   func() time.Time
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/v1/playlist.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		return api.BadRequest("Playlist name and description are required")
	}

	now := clock(h.NowFunc)
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     user.ID,
		Videos:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Playlists.Create(ctx, playlist); err != nil {
		return storeError("Something went wrong while creating playlist", err)
	}

	api.Respond(ctx, w, http.StatusCreated, playlist, "Playlist created successfully")
	return nil
}

// ListByUser handles GET /api/v1/playlist/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	userID, err := pathID(r, "userId", "user id")
	if err != nil {
		return err
	}

	if _, err := h.Users.FindByID(ctx, userID); err != nil {
		return lookupError(err, "User not found")
	}

	playlists, err := h.Reader.UserPlaylists(ctx, userID)
	if err != nil {
		return api.Internal("Something went wrong while fetching playlists", err)
	}

	api.Respond(ctx, w, http.StatusOK, playlists, "User playlists fetched successfully")
	return nil
}

// Get handles GET /api/v1/playlist/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	playlistID, err := pathID(r, "playlistId", "playlist id")
	if err != nil {
		return err
	}

	playlist, err := h.Reader.PlaylistDetail(ctx, playlistID)
	if err != nil {
		return lookupError(err, "Playlist not found")
	}

	api.Respond(ctx, w, http.StatusOK, playlist, "Playlist fetched successfully")
	return nil
}

// Update handles PATCH /api/v1/playlist/{playlistId}. Omitted fields keep their value.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	playlistID, err := pathID(r, "playlistId", "playlist id")
	if err != nil {
		return err
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return lookupError(err, "Playlist not found")
	}
	if err := requireOwner(playlist.OwnerID, user.ID, "update this playlist"); err != nil {
		return err
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" && req.Description == "" {
		return api.BadRequest("Playlist name or description is required")
	}
	if req.Name == "" {
		req.Name = playlist.Name
	}
	if req.Description == "" {
		req.Description = playlist.Description
	}

	updated, err := h.Playlists.Update(ctx, playlistID, req.Name, req.Description)
	if err != nil {
		return storeError("Something went wrong while updating playlist", err)
	}

	api.Respond(ctx, w, http.StatusOK, updated, "Playlist updated successfully")
	return nil
}

// Delete handles DELETE /api/v1/playlist/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	playlistID, err := pathID(r, "playlistId", "playlist id")
	if err != nil {
		return err
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return lookupError(err, "Playlist not found")
	}
	if err := requireOwner(playlist.OwnerID, user.ID, "delete this playlist"); err != nil {
		return err
	}

	if err := h.Playlists.Delete(ctx, playlistID); err != nil {
		return storeError("Something went wrong while deleting playlist", err)
	}

	api.Respond(ctx, w, http.StatusOK, struct{}{}, "Playlist deleted successfully")
	return nil
}

// AddVideo handles PATCH /api/v1/playlist/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) error {
	return h.editMembership(w, r, true)
}

// RemoveVideo handles PATCH /api/v1/playlist/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) error {
	return h.editMembership(w, r, false)
}

func (h PlaylistHandler) editMembership(w http.ResponseWriter, r *http.Request, add bool) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	videoID, err := pathID(r, "videoId", "video id")
	if err != nil {
		return err
	}
	playlistID, err := pathID(r, "playlistId", "playlist id")
	if err != nil {
		return err
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return lookupError(err, "Playlist not found")
	}
	if add {
		if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
			return lookupError(err, "Video not found")
		}
	}
	if err := requireOwner(playlist.OwnerID, user.ID, "edit this playlist"); err != nil {
		return err
	}

	present := slices.Contains(playlist.Videos, videoID)
	message := "Video added to playlist successfully"
	if add {
		if present {
			return api.BadRequest("Video already in playlist")
		}
		err = h.Playlists.AddVideo(ctx, playlistID, videoID)
	} else {
		if !present {
			return api.BadRequest("Video not in playlist")
		}
		err = h.Playlists.RemoveVideo(ctx, playlistID, videoID)
		message = "Video removed from playlist successfully"
	}
	if err != nil {
		return storeError("Something went wrong while editing playlist", err)
	}

	updated, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return lookupError(err, "Playlist not found")
	}

	api.Respond(ctx, w, http.StatusOK, updated, message)
	return nil
}
