package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"forum-go/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForServiceError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrGroupNotFound, http.StatusNotFound},
		{services.ErrNotAMember, http.StatusNotFound},
		{services.ErrDiscussionNotFound, http.StatusNotFound},
		{services.ErrCommentNotFound, http.StatusNotFound},
		{services.ErrResourceNotFound, http.StatusNotFound},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrInvalidPassword, http.StatusForbidden},
		{services.ErrCannotRemoveLastAdmin, http.StatusForbidden},
		{services.ErrInvalidRequest, http.StatusBadRequest},
		{services.ErrInvalidRole, http.StatusBadRequest},
		{services.ErrAlreadyMember, http.StatusBadRequest},
		{services.ErrUserAlreadyExists, http.StatusConflict},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.New("database on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, statusForServiceError(tc.err), "error: %v", tc.err)
	}

	// Wrapped errors map the same as their sentinels.
	wrapped := fmt.Errorf("%w: name must not be empty", services.ErrInvalidRequest)
	assert.Equal(t, http.StatusBadRequest, statusForServiceError(wrapped))
}

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSONError(rec, "nope", http.StatusForbidden)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "nope", body.Error)
}

func TestPaginationParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?limit=10&offset=30", nil)
	limit, offset := paginationParams(r, 50, 100)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 30, offset)

	r = httptest.NewRequest(http.MethodGet, "/x", nil)
	limit, offset = paginationParams(r, 50, 100)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)

	r = httptest.NewRequest(http.MethodGet, "/x?limit=9999&offset=-4", nil)
	limit, offset = paginationParams(r, 50, 100)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 0, offset)
}
