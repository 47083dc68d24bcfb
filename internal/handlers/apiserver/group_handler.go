package apiserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"forum-go/internal/middleware"
	"forum-go/internal/models"
	"forum-go/internal/services"
)

// GroupHandler bundles the group lifecycle and membership HTTP handlers.
type GroupHandler struct {
	groupService services.GroupService
}

// NewGroupHandler creates a new GroupHandler instance.
func NewGroupHandler(groupService services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroupRequest is the request body for creating a group.
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
	Password    string `json:"password,omitempty"`
}

// CreateGroupHandler handles requests to create a new group. The creator
// becomes the group's first admin.
func (h *GroupHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	group, err := h.groupService.CreateGroup(r.Context(), userID, req.Name, req.Description, req.Private, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, group)
}

// GetGroupHandler returns a single group by ID.
func (h *GroupHandler) GetGroupHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	group, err := h.groupService.GetGroup(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, group)
}

// GetMyGroupsHandler lists the groups the caller belongs to.
func (h *GroupHandler) GetMyGroupsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	limit, offset := paginationParams(r, 50, 100)

	groups, err := h.groupService.GetUserGroups(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, groups)
}

// SearchGroupsHandler searches joinable groups by name.
func (h *GroupHandler) SearchGroupsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeJSONError(w, "search query cannot be empty", http.StatusBadRequest)
		return
	}

	results, err := h.groupService.SearchGroups(r.Context(), userID, query)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, results)
}

// GetGroupMembersHandler lists a group's members. Members only.
func (h *GroupHandler) GetGroupMembersHandler(w http.ResponseWriter, r *http.Request) {
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
	limit, offset := paginationParams(r, 100, 500)

	members, err := h.groupService.GetGroupMembers(r.Context(), userID, groupID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, members)
}

// JoinGroupRequest is the request body for joining a group. The password is
// only consulted for private groups.
type JoinGroupRequest struct {
	Password string `json:"password,omitempty"`
}

// JoinGroupHandler handles requests to join a group.
func (h *GroupHandler) JoinGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	var req JoinGroupRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	defer r.Body.Close()

	member, err := h.groupService.JoinGroup(r.Context(), userID, groupID, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, member)
}

// LeaveGroupResponse reports what leaving actually did: a plain departure,
// or a disband when the last member walked out.
type LeaveGroupResponse struct {
	Outcome services.LeaveOutcome `json:"outcome"`
}

// LeaveGroupHandler handles requests to leave a group.
func (h *GroupHandler) LeaveGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	outcome, err := h.groupService.LeaveGroup(r.Context(), userID, groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, LeaveGroupResponse{Outcome: outcome})
}

// RemoveMemberHandler handles an admin expelling another member.
func (h *GroupHandler) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
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
	targetID, err := pathID(r, "userID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.groupService.RemoveMember(r.Context(), userID, groupID, targetID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "member removed"})
}

// ChangeRoleRequest is the request body for changing a member's role.
type ChangeRoleRequest struct {
	Role models.GroupMemberRole `json:"role"`
}

// ChangeRoleHandler handles an admin changing another member's role.
func (h *GroupHandler) ChangeRoleHandler(w http.ResponseWriter, r *http.Request) {
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
	targetID, err := pathID(r, "userID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	member, err := h.groupService.ChangeRole(r.Context(), userID, groupID, targetID, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, member)
}

// DeleteGroupHandler handles an admin deleting the whole group.
func (h *GroupHandler) DeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := h.groupService.DeleteGroup(r.Context(), userID, groupID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "group deleted"})
}
