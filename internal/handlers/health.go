package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/api"
	"github.com/vidtube/backend/internal/logging"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	DB      Pinger
	Started time.Time
	NowFunc func() time.Time
}

type healthReport struct {
	DBStatus  string  `json:"dbStatus"`
	Uptime    float64 `json:"uptime"`
	Message   string  `json:"message"`
	Timestamp int64   `json:"timestamp"`
	Error     string  `json:"error,omitempty"`
}

// Handle implements GET /api/v1/healthcheck.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now
	if h.NowFunc != nil {
		now = h.NowFunc
	}

	report := healthReport{
		DBStatus:  "db Connected",
		Uptime:    now().Sub(h.Started).Seconds(),
		Message:   "OK",
		Timestamp: now().UnixMilli(),
	}

	var pingErr error
	if h.DB == nil {
		pingErr = errDatabaseUnavailable
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		pingErr = h.DB.Ping(pingCtx)
		cancel()
	}

	if pingErr != nil {
		logging.FromContext(ctx).Error("health check database ping failed", "error", pingErr)
		report.DBStatus = "db Disconnected"
		report.Error = "Database is disconnected"
		api.Respond(ctx, w, http.StatusInternalServerError, report, "Health Check Failed")
		return
	}

	api.Respond(ctx, w, http.StatusOK, report, "Health Check Successful")
}
