package storage

import (
	"context"

	"gorm.io/gorm"

	"forum-go/internal/models"
)

// ResourceRepository defines the data operations for uploaded resources.
type ResourceRepository interface {
	Create(ctx context.Context, resource *models.Resource) error
	GetByID(ctx context.Context, resourceID uint) (*models.Resource, error)
	ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]*models.Resource, error)
	Delete(ctx context.Context, resourceID uint) error
	// StoragePathsByGroup lists the storage paths of every resource in the
	// group, so stored files can be cleaned up after the rows are gone.
	StoragePathsByGroup(ctx context.Context, groupID uint) ([]string, error)
	HardDeleteByGroup(ctx context.Context, groupID uint) error
}

// gormResourceRepository implements ResourceRepository with GORM.
type gormResourceRepository struct {
	db *gorm.DB
}

// NewGormResourceRepository creates a GORM-backed ResourceRepository.
func NewGormResourceRepository(db *gorm.DB) ResourceRepository {
	return &gormResourceRepository{db: db}
}

func (r *gormResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *gormResourceRepository) GetByID(ctx context.Context, resourceID uint) (*models.Resource, error) {
	var resource models.Resource
	err := r.db.WithContext(ctx).First(&resource, resourceID).Error
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *gormResourceRepository) ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]*models.Resource, error) {
	var resources []*models.Resource
	dbQuery := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Preload("UploadedBy").
		Order("created_at DESC")
	if limit > 0 {
		dbQuery = dbQuery.Limit(limit)
	}
	if offset > 0 {
		dbQuery = dbQuery.Offset(offset)
	}
	err := dbQuery.Find(&resources).Error
	return resources, err
}

func (r *gormResourceRepository) Delete(ctx context.Context, resourceID uint) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.Resource{}, resourceID).Error
}

func (r *gormResourceRepository) StoragePathsByGroup(ctx context.Context, groupID uint) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Resource{}).
		Where("group_id = ? AND storage_path <> ''", groupID).
		Pluck("storage_path", &paths).Error
	return paths, err
}

func (r *gormResourceRepository) HardDeleteByGroup(ctx context.Context, groupID uint) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("group_id = ?", groupID).
		Delete(&models.Resource{}).Error
}
