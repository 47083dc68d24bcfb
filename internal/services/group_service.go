package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"forum-go/internal/auth"
	"forum-go/internal/config"
	"forum-go/internal/forumtypes"
	"forum-go/internal/kafka"
	"forum-go/internal/models"
	"forum-go/internal/storage"

	"gorm.io/gorm"
)

// searchResultLimit caps how many groups a search returns.
const searchResultLimit = 20

// GroupService covers the group lifecycle (create, delete with cascade) and
// the membership operations (join, leave, remove, role changes) that must
// keep every non-empty group owned by at least one admin.
type GroupService interface {
	CreateGroup(ctx context.Context, founderID uint, name, description string, private bool, password string) (*models.Group, error)
	GetGroup(ctx context.Context, groupID uint) (*models.Group, error)
	GetUserGroups(ctx context.Context, userID uint, limit, offset int) ([]*models.Group, error)
	// SearchGroups returns groups the caller is not a member of whose name
	// contains the query, annotated with member counts.
	SearchGroups(ctx context.Context, callerID uint, query string) ([]*models.GroupWithMemberCount, error)
	// GetGroupMembers lists the group's members. Members only.
	GetGroupMembers(ctx context.Context, callerID, groupID uint, limit, offset int) ([]*models.GroupMember, error)
	// DeleteGroup removes the group and everything beneath it. Admin only.
	DeleteGroup(ctx context.Context, actorID, groupID uint) error

	JoinGroup(ctx context.Context, userID, groupID uint, password string) (*models.GroupMember, error)
	LeaveGroup(ctx context.Context, userID, groupID uint) (LeaveOutcome, error)
	RemoveMember(ctx context.Context, actorID, groupID, targetUserID uint) error
	ChangeRole(ctx context.Context, actorID, groupID, targetUserID uint, role models.GroupMemberRole) (*models.GroupMember, error)
}

// groupService is the GroupService implementation. It holds the raw *gorm.DB
// because every mutation runs inside its own transaction with repositories
// rebuilt over the transaction handle.
type groupService struct {
	db     *gorm.DB
	groups storage.GroupRepository
	files  forumtypes.StorageService
	events *eventPublisher
}

// NewGroupService creates a new GroupService instance. producer may be nil,
// in which case no events are published; files may be nil, in which case
// stored uploads are left behind when a group is deleted.
func NewGroupService(db *gorm.DB, groups storage.GroupRepository, files forumtypes.StorageService, producer kafka.MessageProducer, kafkaCfg config.KafkaConfig) GroupService {
	return &groupService{
		db:     db,
		groups: groups,
		files:  files,
		events: &eventPublisher{producer: producer, cfg: kafkaCfg},
	}
}

// CreateGroup creates a group together with its founding admin membership.
// The two writes happen in one transaction: a group must never exist without
// an admin.
func (s *groupService) CreateGroup(ctx context.Context, founderID uint, name, description string, private bool, password string) (*models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: group name must not be empty", ErrInvalidRequest)
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		Private:     private,
	}
	if private {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hashing group password: %w", err)
		}
		group.PasswordHash = hash
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txGroups := storage.NewGormGroupRepository(tx)

		if err := txGroups.CreateGroup(ctx, group); err != nil {
			return fmt.Errorf("creating group: %w", err)
		}

		founder := &models.GroupMember{
			GroupID:  group.ID,
			UserID:   founderID,
			Role:     models.AdminRole,
			JoinedAt: time.Now(),
		}
		if err := txGroups.AddMember(ctx, founder); err != nil {
			return fmt.Errorf("adding founder %d to group %d: %w", founderID, group.ID, err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.events.publish(ctx, models.GroupCreatedEvent, group.ID, founderID, nil)
	return group, nil
}

// GetGroup retrieves a group by ID.
func (s *groupService) GetGroup(ctx context.Context, groupID uint) (*models.Group, error) {
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("fetching group %d: %w", groupID, err)
	}
	return group, nil
}

// GetUserGroups lists the groups the user belongs to.
func (s *groupService) GetUserGroups(ctx context.Context, userID uint, limit, offset int) ([]*models.Group, error) {
	return s.groups.GetUserGroups(ctx, userID, limit, offset)
}

// SearchGroups finds joinable groups by case-insensitive substring match on
// the name. Groups the caller already belongs to are excluded.
func (s *groupService) SearchGroups(ctx context.Context, callerID uint, query string) ([]*models.GroupWithMemberCount, error) {
	return s.groups.SearchGroups(ctx, query, callerID, searchResultLimit)
}

// GetGroupMembers lists the group's members, oldest first. The caller must
// be a member.
func (s *groupService) GetGroupMembers(ctx context.Context, callerID, groupID uint, limit, offset int) ([]*models.GroupMember, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if _, err := s.groups.GetMember(ctx, groupID, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAMember
		}
		return nil, fmt.Errorf("checking membership in group %d: %w", groupID, err)
	}
	return s.groups.ListMembers(ctx, groupID, limit, offset)
}

// DeleteGroup deletes the group and all of its dependents in one
// transaction. Only an admin of the group may do this.
func (s *groupService) DeleteGroup(ctx context.Context, actorID, groupID uint) error {
	var orphanedFiles []string
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txGroups := storage.NewGormGroupRepository(tx)

		if _, err := txGroups.GetGroupByIDLocked(ctx, groupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return fmt.Errorf("fetching group %d: %w", groupID, err)
		}

		actor, err := txGroups.GetMember(ctx, groupID, actorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrForbidden
			}
			return fmt.Errorf("fetching membership of actor %d: %w", actorID, err)
		}
		if actor.Role != models.AdminRole {
			return ErrForbidden
		}

		paths, err := cascadeDeleteGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		orphanedFiles = paths
		return nil
	})
	if txErr != nil {
		return txErr
	}

	s.removeStoredFiles(ctx, orphanedFiles)
	s.events.publish(ctx, models.GroupDeletedEvent, groupID, actorID, nil)
	return nil
}

// removeStoredFiles deletes uploaded files whose database rows are already
// gone. Runs after the transaction commits; failures only leak disk space,
// so they are logged and swallowed.
func (s *groupService) removeStoredFiles(ctx context.Context, paths []string) {
	if s.files == nil {
		return
	}
	for _, path := range paths {
		if err := s.files.DeleteFile(ctx, path); err != nil {
			log.Printf("WARN: deleting stored file %s: %v", path, err)
		}
	}
}

// cascadeDeleteGroup removes a group and every entity that references it, in
// foreign-key dependency order. It must run inside a transaction and assumes
// authorization has already been settled by the caller: the admin delete
// path checks the actor's role first, while the last-member leave path has
// nothing left to authorize. The returned paths point at stored upload files
// that the caller should delete once the transaction has committed.
func cascadeDeleteGroup(ctx context.Context, tx *gorm.DB, groupID uint) ([]string, error) {
	groups := storage.NewGormGroupRepository(tx)
	discussions := storage.NewGormDiscussionRepository(tx)
	resources := storage.NewGormResourceRepository(tx)

	if err := groups.DeleteAllMembers(ctx, groupID); err != nil {
		return nil, fmt.Errorf("deleting members of group %d: %w", groupID, err)
	}
	storagePaths, err := resources.StoragePathsByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing resource files of group %d: %w", groupID, err)
	}
	if err := resources.HardDeleteByGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("deleting resources of group %d: %w", groupID, err)
	}

	// Comments hang off discussions, so they go first, discussion by
	// discussion. Soft-deleted rows are purged along with the live ones.
	discussionIDs, err := discussions.AllIDsByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing discussions of group %d: %w", groupID, err)
	}
	for _, discussionID := range discussionIDs {
		if err := discussions.HardDeleteCommentsByDiscussion(ctx, discussionID); err != nil {
			return nil, fmt.Errorf("deleting comments of discussion %d: %w", discussionID, err)
		}
	}
	if err := discussions.HardDeleteByGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("deleting discussions of group %d: %w", groupID, err)
	}

	if err := groups.DeleteInvitationsByGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("deleting invitations of group %d: %w", groupID, err)
	}
	if err := groups.DeleteJoinRequestsByGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("deleting join requests of group %d: %w", groupID, err)
	}

	if err := groups.HardDeleteGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("deleting group %d: %w", groupID, err)
	}
	return storagePaths, nil
}
