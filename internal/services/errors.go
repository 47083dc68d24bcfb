package services

import "errors"

// Typed failures returned by the services. The HTTP layer maps these onto
// status codes; everything else is treated as an internal error.
var (
	// Not found: the entity is absent (or hidden by group scoping).
	ErrGroupNotFound      = errors.New("group not found")
	ErrNotAMember         = errors.New("user is not a member of this group")
	ErrDiscussionNotFound = errors.New("discussion not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrResourceNotFound   = errors.New("resource not found")

	// Forbidden: authenticated but not allowed.
	ErrForbidden             = errors.New("operation not permitted")
	ErrInvalidPassword       = errors.New("invalid group password")
	ErrCannotRemoveLastAdmin = errors.New("cannot remove the group's last admin")

	// Invalid request: malformed or self-defeating input.
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidRole    = errors.New("invalid member role")
	ErrAlreadyMember  = errors.New("user is already a member of this group")

	// Account errors.
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
