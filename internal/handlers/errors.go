package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"mealtrust/internal/service"
)

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgInvalidReviewID    = "Invalid review ID"
	ErrMsgInvalidKitchenID   = "Invalid kitchen ID"
	ErrMsgUnauthorized       = "Unauthorized"
)

// handleServiceError maps the service error taxonomy onto HTTP status
// codes. Concurrent modifications and invalid transitions both surface
// as conflicts; everything unrecognized is a server error.
func handleServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	var forbiddenErr *service.ForbiddenError
	var notFoundErr *service.NotFoundError
	var transitionErr *service.InvalidTransitionError

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &forbiddenErr):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &notFoundErr):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &transitionErr):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrConcurrentModification):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("Unhandled service error", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
