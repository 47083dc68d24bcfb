package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"forum-go/internal/services"

	"github.com/gorilla/mux"
)

// ErrorResponse is the generic shape of API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSONResponse is a helper for sending JSON responses.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already out; nothing useful left to do.
			return
		}
	}
}

// writeJSONError is a helper for sending JSON error responses.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message})
}

// writeServiceError maps a service error onto its HTTP status and writes it.
func writeServiceError(w http.ResponseWriter, err error) {
	writeJSONError(w, err.Error(), statusForServiceError(err))
}

// statusForServiceError maps the service error taxonomy onto HTTP status
// codes. Unknown errors are internal.
func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrNotAMember),
		errors.Is(err, services.ErrDiscussionNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrResourceNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrInvalidPassword),
		errors.Is(err, services.ErrCannotRemoveLastAdmin):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrAlreadyMember):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// pathID extracts a numeric path variable from the request.
func pathID(r *http.Request, name string) (uint, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, errors.New("missing path parameter: " + name)
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.New("invalid " + name + " format")
	}
	return uint(id), nil
}

// paginationParams reads limit/offset query parameters, with bounds.
func paginationParams(r *http.Request, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
