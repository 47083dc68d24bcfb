package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forum-go/internal/models"
	"forum-go/internal/storage"

	"gorm.io/gorm"
)

// LeaveOutcome tells the caller what actually happened when a user left:
// either the membership row was removed, or the user was the very last
// member and the group was disbanded entirely.
type LeaveOutcome string

const (
	LeftGroup      LeaveOutcome = "left"
	GroupDisbanded LeaveOutcome = "disbanded"
)

// JoinGroup adds the user to the group as a plain member. Private groups
// require the group password. Joining twice fails with ErrAlreadyMember; a
// concurrent duplicate join is caught by the unique (group, user) index.
func (s *groupService) JoinGroup(ctx context.Context, userID, groupID uint, password string) (*models.GroupMember, error) {
	var member *models.GroupMember

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txGroups := storage.NewGormGroupRepository(tx)

		group, err := txGroups.GetGroupByIDLocked(ctx, groupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return fmt.Errorf("fetching group %d: %w", groupID, err)
		}

		if !PasswordMatches(group, password) {
			return ErrInvalidPassword
		}

		if _, err := txGroups.GetMember(ctx, groupID, userID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("checking existing membership: %w", err)
		}

		member = &models.GroupMember{
			GroupID:  groupID,
			UserID:   userID,
			Role:     models.MemberRole,
			JoinedAt: time.Now(),
		}
		if err := txGroups.AddMember(ctx, member); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("adding user %d to group %d: %w", userID, groupID, err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.events.publish(ctx, models.MemberJoinedEvent, groupID, userID, nil)
	return member, nil
}

// LeaveGroup removes the user's own membership. When the sole admin leaves,
// the oldest remaining member is promoted in their place so the group never
// goes without an admin; when nobody else is left, the whole group is
// disbanded through the same cascade an admin delete uses.
func (s *groupService) LeaveGroup(ctx context.Context, userID, groupID uint) (LeaveOutcome, error) {
	outcome := LeftGroup
	var orphanedFiles []string

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txGroups := storage.NewGormGroupRepository(tx)

		// Locking the group row serializes this with a concurrent delete or
		// disband: whoever loses the race sees the group already gone.
		if _, err := txGroups.GetGroupByIDLocked(ctx, groupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return fmt.Errorf("fetching group %d: %w", groupID, err)
		}

		// Hold the group's membership rows for the rest of the
		// transaction: two concurrent "sole admin leaves" calls must not
		// both observe themselves as the last admin.
		if err := txGroups.LockMembers(ctx, groupID); err != nil {
			return fmt.Errorf("locking members of group %d: %w", groupID, err)
		}

		member, err := txGroups.GetMember(ctx, groupID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAMember
			}
			return fmt.Errorf("fetching membership of user %d: %w", userID, err)
		}

		if member.Role == models.AdminRole {
			adminCount, err := txGroups.CountMembersByRole(ctx, groupID, models.AdminRole)
			if err != nil {
				return fmt.Errorf("counting admins of group %d: %w", groupID, err)
			}

			if adminCount <= 1 {
				successor, err := txGroups.OldestMemberWithRole(ctx, groupID, models.MemberRole)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						// Last member of any role: nobody is left to own
						// the group, so it is disbanded instead.
						outcome = GroupDisbanded
						paths, err := cascadeDeleteGroup(ctx, tx, groupID)
						if err != nil {
							return err
						}
						orphanedFiles = paths
						return nil
					}
					return fmt.Errorf("finding successor in group %d: %w", groupID, err)
				}

				successor.Role = models.AdminRole
				if err := txGroups.UpdateMember(ctx, successor); err != nil {
					return fmt.Errorf("promoting successor %d in group %d: %w", successor.UserID, groupID, err)
				}
			}
		}

		if err := txGroups.RemoveMember(ctx, groupID, userID); err != nil {
			return fmt.Errorf("removing user %d from group %d: %w", userID, groupID, err)
		}
		return nil
	})
	if txErr != nil {
		return "", txErr
	}

	if outcome == GroupDisbanded {
		s.removeStoredFiles(ctx, orphanedFiles)
		s.events.publish(ctx, models.GroupDisbandedEvent, groupID, userID, nil)
	} else {
		s.events.publish(ctx, models.MemberLeftEvent, groupID, userID, nil)
	}
	return outcome, nil
}

// RemoveMember expels another user from the group. Admin only. Unlike
// LeaveGroup there is no succession here: expelling the last admin is
// rejected outright, and self-removal must go through LeaveGroup.
func (s *groupService) RemoveMember(ctx context.Context, actorID, groupID, targetUserID uint) error {
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txGroups := storage.NewGormGroupRepository(tx)

		if _, err := txGroups.GetGroupByIDLocked(ctx, groupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return fmt.Errorf("fetching group %d: %w", groupID, err)
		}

		if err := txGroups.LockMembers(ctx, groupID); err != nil {
			return fmt.Errorf("locking members of group %d: %w", groupID, err)
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

		if targetUserID == actorID {
			return fmt.Errorf("%w: use leave to remove yourself", ErrInvalidRequest)
		}

		target, err := txGroups.GetMember(ctx, groupID, targetUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAMember
			}
			return fmt.Errorf("fetching membership of target %d: %w", targetUserID, err)
		}

		if target.Role == models.AdminRole {
			adminCount, err := txGroups.CountMembersByRole(ctx, groupID, models.AdminRole)
			if err != nil {
				return fmt.Errorf("counting admins of group %d: %w", groupID, err)
			}
			if adminCount <= 1 {
				return ErrCannotRemoveLastAdmin
			}
		}

		if err := txGroups.RemoveMember(ctx, groupID, targetUserID); err != nil {
			return fmt.Errorf("removing user %d from group %d: %w", targetUserID, groupID, err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	s.events.publish(ctx, models.MemberRemovedEvent, groupID, actorID, &targetUserID)
	return nil
}

// ChangeRole sets the target member's role. Admin only. Demoting the sole
// admin is rejected: every mutation path keeps the group owned.
func (s *groupService) ChangeRole(ctx context.Context, actorID, groupID, targetUserID uint, role models.GroupMemberRole) (*models.GroupMember, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	var target *models.GroupMember

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txGroups := storage.NewGormGroupRepository(tx)

		if _, err := txGroups.GetGroupByIDLocked(ctx, groupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return fmt.Errorf("fetching group %d: %w", groupID, err)
		}

		if err := txGroups.LockMembers(ctx, groupID); err != nil {
			return fmt.Errorf("locking members of group %d: %w", groupID, err)
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

		target, err = txGroups.GetMember(ctx, groupID, targetUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAMember
			}
			return fmt.Errorf("fetching membership of target %d: %w", targetUserID, err)
		}

		if target.Role == role {
			return nil
		}

		if target.Role == models.AdminRole && role == models.MemberRole {
			adminCount, err := txGroups.CountMembersByRole(ctx, groupID, models.AdminRole)
			if err != nil {
				return fmt.Errorf("counting admins of group %d: %w", groupID, err)
			}
			if adminCount <= 1 {
				return ErrCannotRemoveLastAdmin
			}
		}

		target.Role = role
		if err := txGroups.UpdateMember(ctx, target); err != nil {
			return fmt.Errorf("updating role of user %d in group %d: %w", targetUserID, groupID, err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.events.publish(ctx, models.RoleChangedEvent, groupID, actorID, &targetUserID)
	return target, nil
}
