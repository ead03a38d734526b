package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/api"
)

// DashboardHandler serves the authenticated channel's dashboard.
type DashboardHandler struct {
	Reader ReadModels
}

// Stats handles GET /api/v1/dashboard/stats.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	stats, err := h.Reader.ChannelStats(ctx, user.ID)
	if err != nil {
		return lookupError(err, "Channel not found")
	}

	api.Respond(ctx, w, http.StatusOK, stats, "Channel stats fetched successfully")
	return nil
}

// Videos handles GET /api/v1/dashboard/videos.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	videos, err := h.Reader.ChannelVideos(ctx, user.ID)
	if err != nil {
		return api.Internal("Something went wrong while fetching channel videos", err)
	}

	api.Respond(ctx, w, http.StatusOK, videos, "Channel videos fetched successfully")
	return nil
}
