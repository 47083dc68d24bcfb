package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"forum-go/internal/models"
	"forum-go/internal/storage"

	"gorm.io/gorm"
)

// DiscussionService covers threaded discussions and their comments. Creating
// anything requires current membership in the group; editing and deleting
// require being the author or a group admin. Deletes are soft: the row is
// tombstoned and disappears from reads, but survives until the group does.
type DiscussionService interface {
	CreateDiscussion(ctx context.Context, authorID, groupID uint, title, content string) (*models.Discussion, error)
	GetDiscussion(ctx context.Context, userID, groupID, discussionID uint) (*models.Discussion, error)
	ListDiscussions(ctx context.Context, userID, groupID uint, limit, offset int) ([]*models.Discussion, error)
	UpdateDiscussion(ctx context.Context, userID, groupID, discussionID uint, title, content string) (*models.Discussion, error)
	DeleteDiscussion(ctx context.Context, userID, groupID, discussionID uint) error

	CreateComment(ctx context.Context, authorID, discussionID uint, content string) (*models.Comment, error)
	ListComments(ctx context.Context, userID, discussionID uint, limit, offset int) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, userID, commentID uint, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID uint) error
}

// discussionService is the DiscussionService implementation.
type discussionService struct {
	discussions storage.DiscussionRepository
	gate        *AccessGate
}

// NewDiscussionService creates a new DiscussionService instance.
func NewDiscussionService(discussions storage.DiscussionRepository, gate *AccessGate) DiscussionService {
	return &discussionService{discussions: discussions, gate: gate}
}

// requireMembership returns ErrForbidden unless the user belongs to the
// group.
func (s *discussionService) requireMembership(ctx context.Context, userID, groupID uint) error {
	isMember, err := s.gate.IsMember(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrForbidden
	}
	return nil
}

// CreateDiscussion opens a new discussion in the group.
func (s *discussionService) CreateDiscussion(ctx context.Context, authorID, groupID uint, title, content string) (*models.Discussion, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: discussion title must not be empty", ErrInvalidRequest)
	}
	if err := s.requireMembership(ctx, authorID, groupID); err != nil {
		return nil, err
	}

	discussion := &models.Discussion{
		Title:    title,
		Content:  content,
		GroupID:  groupID,
		AuthorID: authorID,
	}
	if err := s.discussions.Create(ctx, discussion); err != nil {
		return nil, fmt.Errorf("creating discussion in group %d: %w", groupID, err)
	}
	return discussion, nil
}

// GetDiscussion fetches a live discussion within the given group. A
// discussion that exists under another group is reported as not found, so a
// caller can't probe for discussions outside their group context.
func (s *discussionService) GetDiscussion(ctx context.Context, userID, groupID, discussionID uint) (*models.Discussion, error) {
	if err := s.requireMembership(ctx, userID, groupID); err != nil {
		return nil, err
	}

	discussion, err := s.discussions.GetByIDInGroup(ctx, discussionID, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscussionNotFound
		}
		return nil, fmt.Errorf("fetching discussion %d: %w", discussionID, err)
	}
	return discussion, nil
}

// ListDiscussions lists the group's live discussions, newest first.
func (s *discussionService) ListDiscussions(ctx context.Context, userID, groupID uint, limit, offset int) ([]*models.Discussion, error) {
	if err := s.requireMembership(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.discussions.ListByGroup(ctx, groupID, limit, offset)
}

// UpdateDiscussion edits a discussion's title and content.
func (s *discussionService) UpdateDiscussion(ctx context.Context, userID, groupID, discussionID uint, title, content string) (*models.Discussion, error) {
	discussion, err := s.GetDiscussion(ctx, userID, groupID, discussionID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.gate.CanMutateDiscussion(ctx, userID, discussion)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: discussion title must not be empty", ErrInvalidRequest)
	}
	discussion.Title = title
	discussion.Content = content
	if err := s.discussions.Update(ctx, discussion); err != nil {
		return nil, fmt.Errorf("updating discussion %d: %w", discussionID, err)
	}
	return discussion, nil
}

// DeleteDiscussion tombstones a discussion.
func (s *discussionService) DeleteDiscussion(ctx context.Context, userID, groupID, discussionID uint) error {
	discussion, err := s.GetDiscussion(ctx, userID, groupID, discussionID)
	if err != nil {
		return err
	}

	allowed, err := s.gate.CanMutateDiscussion(ctx, userID, discussion)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.discussions.SoftDelete(ctx, discussionID); err != nil {
		return fmt.Errorf("deleting discussion %d: %w", discussionID, err)
	}
	return nil
}

// CreateComment adds a comment under a live discussion. Membership is
// checked against the parent discussion's group.
func (s *discussionService) CreateComment(ctx context.Context, authorID, discussionID uint, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment content must not be empty", ErrInvalidRequest)
	}

	discussion, err := s.discussions.GetByID(ctx, discussionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscussionNotFound
		}
		return nil, fmt.Errorf("fetching discussion %d: %w", discussionID, err)
	}
	if err := s.requireMembership(ctx, authorID, discussion.GroupID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:      content,
		DiscussionID: discussionID,
		AuthorID:     authorID,
	}
	if err := s.discussions.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("creating comment on discussion %d: %w", discussionID, err)
	}
	return comment, nil
}

// ListComments lists a discussion's live comments, oldest first.
func (s *discussionService) ListComments(ctx context.Context, userID, discussionID uint, limit, offset int) ([]*models.Comment, error) {
	discussion, err := s.discussions.GetByID(ctx, discussionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscussionNotFound
		}
		return nil, fmt.Errorf("fetching discussion %d: %w", discussionID, err)
	}
	if err := s.requireMembership(ctx, userID, discussion.GroupID); err != nil {
		return nil, err
	}
	return s.discussions.ListComments(ctx, discussionID, limit, offset)
}

// UpdateComment edits a comment's content.
func (s *discussionService) UpdateComment(ctx context.Context, userID, commentID uint, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment content must not be empty", ErrInvalidRequest)
	}

	comment, err := s.discussions.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("fetching comment %d: %w", commentID, err)
	}

	allowed, err := s.gate.CanMutateComment(ctx, userID, comment)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	comment.Content = content
	if err := s.discussions.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("updating comment %d: %w", commentID, err)
	}
	return comment, nil
}

// DeleteComment tombstones a comment.
func (s *discussionService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.discussions.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("fetching comment %d: %w", commentID, err)
	}

	allowed, err := s.gate.CanMutateComment(ctx, userID, comment)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.discussions.SoftDeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("deleting comment %d: %w", commentID, err)
	}
	return nil
}
