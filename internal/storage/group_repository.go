package storage

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"forum-go/internal/models"
)

// GroupRepository defines the data operations for groups and their
// memberships. Lookups return gorm.ErrRecordNotFound when the row is absent;
// the service layer translates that into its own error taxonomy.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroupByID(ctx context.Context, id uint) (*models.Group, error)
	// GetGroupByIDLocked fetches the group under a FOR UPDATE row lock, so a
	// mutation transaction serializes with a concurrent delete or disband
	// instead of working on a group that is about to vanish.
	GetGroupByIDLocked(ctx context.Context, id uint) (*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	// HardDeleteGroup removes the group row physically. Only the cascade
	// calls this.
	HardDeleteGroup(ctx context.Context, id uint) error
	// SearchGroups finds groups whose name contains the query
	// (case-insensitive), excluding groups the given user is a member of.
	// Results are annotated with their member count.
	SearchGroups(ctx context.Context, query string, excludeUserID uint, limit int) ([]*models.GroupWithMemberCount, error)
	GetUserGroups(ctx context.Context, userID uint, limit, offset int) ([]*models.Group, error)

	AddMember(ctx context.Context, member *models.GroupMember) error
	GetMember(ctx context.Context, groupID, userID uint) (*models.GroupMember, error)
	UpdateMember(ctx context.Context, member *models.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID uint) error
	ListMembers(ctx context.Context, groupID uint, limit, offset int) ([]*models.GroupMember, error)
	// LockMembers takes row locks on all membership rows of the group for
	// the duration of the surrounding transaction, so admin counts stay
	// stable while leave/remove/role changes decide what to do.
	LockMembers(ctx context.Context, groupID uint) error
	CountMembers(ctx context.Context, groupID uint) (int64, error)
	CountMembersByRole(ctx context.Context, groupID uint, role models.GroupMemberRole) (int64, error)
	// OldestMemberWithRole returns the member with the given role that
	// joined earliest, for deterministic admin succession.
	OldestMemberWithRole(ctx context.Context, groupID uint, role models.GroupMemberRole) (*models.GroupMember, error)
	DeleteAllMembers(ctx context.Context, groupID uint) error

	DeleteInvitationsByGroup(ctx context.Context, groupID uint) error
	DeleteJoinRequestsByGroup(ctx context.Context, groupID uint) error
}

// gormGroupRepository implements GroupRepository with GORM.
type gormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a GORM-backed GroupRepository. Pass a
// transaction handle to scope the repository to that transaction.
func NewGormGroupRepository(db *gorm.DB) GroupRepository {
	return &gormGroupRepository{db: db}
}

func (r *gormGroupRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *gormGroupRepository) GetGroupByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).First(&group, id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *gormGroupRepository) GetGroupByIDLocked(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	err := r.lockForUpdate(r.db.WithContext(ctx)).First(&group, id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *gormGroupRepository) UpdateGroup(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Save(group).Error
}

func (r *gormGroupRepository) HardDeleteGroup(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.Group{}, id).Error
}

func (r *gormGroupRepository) SearchGroups(ctx context.Context, query string, excludeUserID uint, limit int) ([]*models.GroupWithMemberCount, error) {
	memberOf := r.db.Model(&models.GroupMember{}).
		Select("group_id").
		Where("user_id = ?", excludeUserID)

	var results []*models.GroupWithMemberCount
	err := r.db.WithContext(ctx).Model(&models.Group{}).
		Select("groups.*, (SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = groups.id) AS member_count").
		Where("LOWER(groups.name) LIKE ?", "%"+strings.ToLower(query)+"%").
		Where("groups.id NOT IN (?)", memberOf).
		Order("groups.name ASC").
		Limit(limit).
		Find(&results).Error
	return results, err
}

func (r *gormGroupRepository) GetUserGroups(ctx context.Context, userID uint, limit, offset int) ([]*models.Group, error) {
	var groups []*models.Group
	dbQuery := r.db.WithContext(ctx).
		Joins("JOIN group_members gm ON gm.group_id = groups.id").
		Where("gm.user_id = ?", userID).
		Order("groups.name ASC")
	if limit > 0 {
		dbQuery = dbQuery.Limit(limit)
	}
	if offset > 0 {
		dbQuery = dbQuery.Offset(offset)
	}
	err := dbQuery.Find(&groups).Error
	return groups, err
}

func (r *gormGroupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	// No ON CONFLICT here: double joins must surface as
	// gorm.ErrDuplicatedKey so the service can report AlreadyMember.
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *gormGroupRepository) GetMember(ctx context.Context, groupID, userID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *gormGroupRepository) UpdateMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *gormGroupRepository) RemoveMember(ctx context.Context, groupID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}

func (r *gormGroupRepository) ListMembers(ctx context.Context, groupID uint, limit, offset int) ([]*models.GroupMember, error) {
	var members []*models.GroupMember
	dbQuery := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Preload("User").
		Order("joined_at ASC")
	if limit > 0 {
		dbQuery = dbQuery.Limit(limit)
	}
	if offset > 0 {
		dbQuery = dbQuery.Offset(offset)
	}
	err := dbQuery.Find(&members).Error
	return members, err
}

func (r *gormGroupRepository) LockMembers(ctx context.Context, groupID uint) error {
	var ids []uint
	return r.lockForUpdate(r.db.WithContext(ctx)).
		Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("id", &ids).Error
}

// lockForUpdate applies SELECT ... FOR UPDATE. SQLite (used in tests) has no
// row locks; its writes are serialized by the database lock instead.
func (r *gormGroupRepository) lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *gormGroupRepository) CountMembers(ctx context.Context, groupID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *gormGroupRepository) CountMembersByRole(ctx context.Context, groupID uint, role models.GroupMemberRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND role = ?", groupID, role).
		Count(&count).Error
	return count, err
}

func (r *gormGroupRepository) OldestMemberWithRole(ctx context.Context, groupID uint, role models.GroupMemberRole) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND role = ?", groupID, role).
		Order("joined_at ASC").
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *gormGroupRepository) DeleteAllMembers(ctx context.Context, groupID uint) error {
	return r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Delete(&models.GroupMember{}).Error
}

func (r *gormGroupRepository) DeleteInvitationsByGroup(ctx context.Context, groupID uint) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("group_id = ?", groupID).
		Delete(&models.Invitation{}).Error
}

func (r *gormGroupRepository) DeleteJoinRequestsByGroup(ctx context.Context, groupID uint) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("group_id = ?", groupID).
		Delete(&models.JoinRequest{}).Error
}
