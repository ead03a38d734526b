package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vidtube/backend/internal/logging"
)

// Response is the envelope wrapped around every successful payload.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the envelope returned for every failure.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// NewResponse builds a success envelope. Success mirrors the status class.
func NewResponse(status int, data any, message string) Response {
	if message == "" {
		message = "Success"
	}
	return Response{StatusCode: status, Data: data, Message: message, Success: status < http.StatusBadRequest}
}

// WriteJSON encodes payload with the given status.
func WriteJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

// Respond writes a success envelope.
func Respond(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	WriteJSON(ctx, w, status, NewResponse(status, data, message))
}

// WriteError translates err into the error envelope. Server errors are logged at
// error level with their cause, client errors at warn level.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	apiErr := AsError(err)

	details := apiErr.Errors
	if details == nil {
		details = []string{}
	}

	logger := logging.FromContext(ctx)
	switch {
	case apiErr.Status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", apiErr.Status, "error", apiErr.Error())
	case apiErr.Status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", apiErr.Status, "message", apiErr.Message)
	}

	WriteJSON(ctx, w, apiErr.Status, ErrorResponse{
		StatusCode: apiErr.Status,
		Data:       nil,
		Message:    apiErr.Message,
		Success:    false,
		Errors:     details,
	})
}
