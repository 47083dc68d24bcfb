package apiserver

import (
	"encoding/json"
	"net/http"

	"forum-go/internal/middleware"
	"forum-go/internal/services"
)

// DiscussionHandler bundles the discussion and comment HTTP handlers.
type DiscussionHandler struct {
	discussionService services.DiscussionService
}

// NewDiscussionHandler creates a new DiscussionHandler instance.
func NewDiscussionHandler(discussionService services.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{discussionService: discussionService}
}

// DiscussionRequest is the request body for creating or updating a discussion.
type DiscussionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// CommentRequest is the request body for creating or updating a comment.
type CommentRequest struct {
	Content string `json:"content"`
}

// CreateDiscussionHandler opens a new discussion in a group.
func (h *DiscussionHandler) CreateDiscussionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req DiscussionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	discussion, err := h.discussionService.CreateDiscussion(r.Context(), userID, groupID, req.Title, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, discussion)
}

// ListDiscussionsHandler lists a group's discussions, newest first.
func (h *DiscussionHandler) ListDiscussionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, offset := paginationParams(r, 50, 100)

	discussions, err := h.discussionService.ListDiscussions(r.Context(), userID, groupID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, discussions)
}

// GetDiscussionHandler returns a single discussion within a group.
func (h *DiscussionHandler) GetDiscussionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	discussionID, err := pathID(r, "discussionID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	discussion, err := h.discussionService.GetDiscussion(r.Context(), userID, groupID, discussionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, discussion)
}

// UpdateDiscussionHandler edits a discussion. Author or group admin only.
func (h *DiscussionHandler) UpdateDiscussionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	discussionID, err := pathID(r, "discussionID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req DiscussionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	discussion, err := h.discussionService.UpdateDiscussion(r.Context(), userID, groupID, discussionID, req.Title, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, discussion)
}

// DeleteDiscussionHandler soft-deletes a discussion. Author or group admin only.
func (h *DiscussionHandler) DeleteDiscussionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	discussionID, err := pathID(r, "discussionID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.discussionService.DeleteDiscussion(r.Context(), userID, groupID, discussionID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "discussion deleted"})
}

// CreateCommentHandler adds a comment to a discussion.
func (h *DiscussionHandler) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	discussionID, err := pathID(r, "discussionID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	comment, err := h.discussionService.CreateComment(r.Context(), userID, discussionID, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, comment)
}

// ListCommentsHandler lists a discussion's comments, oldest first.
func (h *DiscussionHandler) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	discussionID, err := pathID(r, "discussionID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, offset := paginationParams(r, 100, 500)

	comments, err := h.discussionService.ListComments(r.Context(), userID, discussionID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, comments)
}

// UpdateCommentHandler edits a comment. Author or group admin only.
func (h *DiscussionHandler) UpdateCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	commentID, err := pathID(r, "commentID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	comment, err := h.discussionService.UpdateComment(r.Context(), userID, commentID, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, comment)
}

// DeleteCommentHandler soft-deletes a comment. Author or group admin only.
func (h *DiscussionHandler) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	commentID, err := pathID(r, "commentID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.discussionService.DeleteComment(r.Context(), userID, commentID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}
