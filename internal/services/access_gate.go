package services

import (
	"context"
	"errors"
	"fmt"

	"forum-go/internal/auth"
	"forum-go/internal/models"
	"forum-go/internal/storage"

	"gorm.io/gorm"
)

// AccessGate bundles the stateless authorization predicates shared by the
// group, discussion, and resource services.
type AccessGate struct {
	groups      storage.GroupRepository
	discussions storage.DiscussionRepository
}

// NewAccessGate creates a new AccessGate.
func NewAccessGate(groups storage.GroupRepository, discussions storage.DiscussionRepository) *AccessGate {
	return &AccessGate{groups: groups, discussions: discussions}
}

// IsMember reports whether the user has a membership row in the group.
func (g *AccessGate) IsMember(ctx context.Context, userID, groupID uint) (bool, error) {
	_, err := g.groups.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking membership of user %d in group %d: %w", userID, groupID, err)
	}
	return true, nil
}

// RoleOf returns the user's role in the group. ok is false when the user is
// not a member at all.
func (g *AccessGate) RoleOf(ctx context.Context, userID, groupID uint) (role models.GroupMemberRole, ok bool, err error) {
	member, err := g.groups.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("looking up role of user %d in group %d: %w", userID, groupID, err)
	}
	return member.Role, true, nil
}

// CanMutateDiscussion reports whether the user may edit or delete the
// discussion: its author always can, as can any admin of its group.
func (g *AccessGate) CanMutateDiscussion(ctx context.Context, userID uint, discussion *models.Discussion) (bool, error) {
	if discussion.AuthorID == userID {
		return true, nil
	}
	role, ok, err := g.RoleOf(ctx, userID, discussion.GroupID)
	if err != nil {
		return false, err
	}
	return ok && role == models.AdminRole, nil
}

// CanMutateComment applies the same author-or-admin rule to a comment, with
// the group derived from the comment's parent discussion.
func (g *AccessGate) CanMutateComment(ctx context.Context, userID uint, comment *models.Comment) (bool, error) {
	if comment.AuthorID == userID {
		return true, nil
	}
	discussion, err := g.discussions.GetByID(ctx, comment.DiscussionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Parent already tombstoned; only the author may still act.
			return false, nil
		}
		return false, fmt.Errorf("resolving parent discussion %d: %w", comment.DiscussionID, err)
	}
	role, ok, err := g.RoleOf(ctx, userID, discussion.GroupID)
	if err != nil {
		return false, err
	}
	return ok && role == models.AdminRole, nil
}

// PasswordMatches verifies a supplied password against a private group's
// stored hash. Public groups accept anything.
func PasswordMatches(group *models.Group, supplied string) bool {
	if !group.Private {
		return true
	}
	return auth.CheckPasswordHash(supplied, group.PasswordHash)
}
