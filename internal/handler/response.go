package handler

// RESPONSE HELPERS:
// Every response from this API carries the same envelope:
//
//	{"success": true,  "message": "...", ...payload}
//	{"success": false, "message": "why it failed"}
//
// One shape for the frontend to parse, whatever the status code. writeError
// is the single place domain errors become HTTP statuses — the service
// layer never knows a status code exists.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hiroshandev/media-gallery-api/internal/apperror"
)

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body — once Encode writes,
// the headers are on the wire.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status and sends
// the failure envelope.
//
// STATUS MAPPING:
//   - validation, duplicate account, bad OTP → 400 (user-correctable)
//   - missing/invalid/expired token          → 401
//   - role or verification gate              → 403
//   - missing resource                       → 404
//   - mail delivery failure                  → 500, with the message kept —
//     the client is told registration didn't stick
//   - anything else → generic 500; raw internals never reach the client
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation),
			errors.Is(err, apperror.ErrConflict),
			errors.Is(err, apperror.ErrInvalidOTP):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrDeliveryFailed):
			status = http.StatusInternalServerError
		}

		writeJSON(w, status, ErrorResponse{Success: false, Message: appErr.Message})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Message: "An internal error occurred",
	})
}
