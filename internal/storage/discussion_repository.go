package storage

import (
	"context"

	"gorm.io/gorm"

	"forum-go/internal/models"
)

// DiscussionRepository defines the data operations for discussions and their
// comments. The normal read paths go through gorm's default scope, which
// excludes soft-deleted rows; the HardDelete methods are cascade-only and
// operate Unscoped so tombstoned rows are purged too.
type DiscussionRepository interface {
	Create(ctx context.Context, discussion *models.Discussion) error
	// GetByIDInGroup fetches a live discussion scoped to a group. A
	// discussion that exists under a different group is reported the same
	// way as a missing one.
	GetByIDInGroup(ctx context.Context, discussionID, groupID uint) (*models.Discussion, error)
	GetByID(ctx context.Context, discussionID uint) (*models.Discussion, error)
	ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]*models.Discussion, error)
	Update(ctx context.Context, discussion *models.Discussion) error
	SoftDelete(ctx context.Context, discussionID uint) error
	// AllIDsByGroup returns every discussion ID in the group including
	// soft-deleted ones, for the cascade.
	AllIDsByGroup(ctx context.Context, groupID uint) ([]uint, error)
	HardDeleteByGroup(ctx context.Context, groupID uint) error

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, commentID uint) (*models.Comment, error)
	ListComments(ctx context.Context, discussionID uint, limit, offset int) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	SoftDeleteComment(ctx context.Context, commentID uint) error
	HardDeleteCommentsByDiscussion(ctx context.Context, discussionID uint) error
}

// gormDiscussionRepository implements DiscussionRepository with GORM.
type gormDiscussionRepository struct {
	db *gorm.DB
}

// NewGormDiscussionRepository creates a GORM-backed DiscussionRepository.
func NewGormDiscussionRepository(db *gorm.DB) DiscussionRepository {
	return &gormDiscussionRepository{db: db}
}

func (r *gormDiscussionRepository) Create(ctx context.Context, discussion *models.Discussion) error {
	return r.db.WithContext(ctx).Create(discussion).Error
}

func (r *gormDiscussionRepository) GetByIDInGroup(ctx context.Context, discussionID, groupID uint) (*models.Discussion, error) {
	var discussion models.Discussion
	err := r.db.WithContext(ctx).
		Where("id = ? AND group_id = ?", discussionID, groupID).
		First(&discussion).Error
	if err != nil {
		return nil, err
	}
	return &discussion, nil
}

func (r *gormDiscussionRepository) GetByID(ctx context.Context, discussionID uint) (*models.Discussion, error) {
	var discussion models.Discussion
	err := r.db.WithContext(ctx).First(&discussion, discussionID).Error
	if err != nil {
		return nil, err
	}
	return &discussion, nil
}

func (r *gormDiscussionRepository) ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]*models.Discussion, error) {
	var discussions []*models.Discussion
	dbQuery := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Preload("Author").
		Order("created_at DESC")
	if limit > 0 {
		dbQuery = dbQuery.Limit(limit)
	}
	if offset > 0 {
		dbQuery = dbQuery.Offset(offset)
	}
	err := dbQuery.Find(&discussions).Error
	return discussions, err
}

func (r *gormDiscussionRepository) Update(ctx context.Context, discussion *models.Discussion) error {
	return r.db.WithContext(ctx).Save(discussion).Error
}

func (r *gormDiscussionRepository) SoftDelete(ctx context.Context, discussionID uint) error {
	return r.db.WithContext(ctx).Delete(&models.Discussion{}, discussionID).Error
}

func (r *gormDiscussionRepository) AllIDsByGroup(ctx context.Context, groupID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Unscoped().
		Model(&models.Discussion{}).
		Where("group_id = ?", groupID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *gormDiscussionRepository) HardDeleteByGroup(ctx context.Context, groupID uint) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("group_id = ?", groupID).
		Delete(&models.Discussion{}).Error
}

func (r *gormDiscussionRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *gormDiscussionRepository) GetCommentByID(ctx context.Context, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).First(&comment, commentID).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *gormDiscussionRepository) ListComments(ctx context.Context, discussionID uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	dbQuery := r.db.WithContext(ctx).
		Where("discussion_id = ?", discussionID).
		Preload("Author").
		Order("created_at ASC")
	if limit > 0 {
		dbQuery = dbQuery.Limit(limit)
	}
	if offset > 0 {
		dbQuery = dbQuery.Offset(offset)
	}
	err := dbQuery.Find(&comments).Error
	return comments, err
}

func (r *gormDiscussionRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *gormDiscussionRepository) SoftDeleteComment(ctx context.Context, commentID uint) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, commentID).Error
}

func (r *gormDiscussionRepository) HardDeleteCommentsByDiscussion(ctx context.Context, discussionID uint) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("discussion_id = ?", discussionID).
		Delete(&models.Comment{}).Error
}
