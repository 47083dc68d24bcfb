package services_test

import (
	"context"
	"testing"

	"forum-go/internal/models"
	"forum-go/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroupFounderBecomesAdmin(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	founder := createTestUser(t, db, "alice")

	group, err := svc.CreateGroup(ctx, founder, "Gophers", "a go group", false, "")
	require.NoError(t, err)
	require.NotZero(t, group.ID)

	members, err := svc.GetGroupMembers(ctx, founder, group.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, founder, members[0].UserID)
	assert.Equal(t, models.AdminRole, members[0].Role)

	// The founder already holds a membership row; joining again must fail.
	_, err = svc.JoinGroup(ctx, founder, group.ID, "")
	assert.ErrorIs(t, err, services.ErrAlreadyMember)
}

func TestCreateGroupRejectsBlankName(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)

	founder := createTestUser(t, db, "alice")
	_, err := svc.CreateGroup(context.Background(), founder, "   ", "", false, "")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestJoinPrivateGroupChecksPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	founder := createTestUser(t, db, "alice")
	joiner := createTestUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, founder, "Secret Club", "", true, "hunter2")
	require.NoError(t, err)

	_, err = svc.JoinGroup(ctx, joiner, group.ID, "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidPassword)

	member, err := svc.JoinGroup(ctx, joiner, group.ID, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, models.MemberRole, member.Role)
}

func TestJoinPublicGroupIgnoresPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	founder := createTestUser(t, db, "alice")
	joiner := createTestUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, founder, "Open Club", "", false, "")
	require.NoError(t, err)

	_, err = svc.JoinGroup(ctx, joiner, group.ID, "anything at all")
	require.NoError(t, err)

	_, err = svc.JoinGroup(ctx, joiner, group.ID, "")
	assert.ErrorIs(t, err, services.ErrAlreadyMember)
}

func TestJoinMissingGroup(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)

	joiner := createTestUser(t, db, "bob")
	_, err := svc.JoinGroup(context.Background(), joiner, 9999, "")
	assert.ErrorIs(t, err, services.ErrGroupNotFound)
}

func TestLeaveGroupPromotesOldestMember(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	founder := createTestUser(t, db, "alice")
	second := createTestUser(t, db, "bob")
	third := createTestUser(t, db, "carol")

	group, err := svc.CreateGroup(ctx, founder, "Gophers", "", false, "")
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, second, group.ID, "")
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, third, group.ID, "")
	require.NoError(t, err)

	outcome, err := svc.LeaveGroup(ctx, founder, group.ID)
	require.NoError(t, err)
	assert.Equal(t, services.LeftGroup, outcome)

	// The longest-standing remaining member inherits the admin seat.
	assert.Equal(t, models.AdminRole, memberRole(t, db, group.ID, second))
	assert.Equal(t, models.MemberRole, memberRole(t, db, group.ID, third))
}

func TestLeaveGroupAdminStaysWhenAnotherAdminRemains(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	founder := createTestUser(t, db, "alice")
	second := createTestUser(t, db, "bob")
	third := createTestUser(t, db, "carol")

	group, err := svc.CreateGroup(ctx, founder, "Gophers", "", false, "")
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, second, group.ID, "")
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, third, group.ID, "")
	require.NoError(t, err)
	_, err = svc.ChangeRole(ctx, founder, group.ID, second, models.AdminRole)
	require.NoError(t, err)

	outcome, err := svc.LeaveGroup(ctx, founder, group.ID)
	require.NoError(t, err)
	assert.Equal(t, services.LeftGroup, outcome)

	// No promotion needed: bob already held admin, carol stays a member.
	assert.Equal(t, models.AdminRole, memberRole(t, db, group.ID, second))
	assert.Equal(t, models.MemberRole, memberRole(t, db, group.ID, third))
}

func TestLeaveGroupLastMemberDisbands(t *testing.T) {
	db := setupTestDB(t)
	files := &recordingFileStore{}
	groupSvc := newTestGroupServiceWithFiles(db, files)
	discSvc := newTestDiscussionService(db)
	ctx := context.Background()

	founder := createTestUser(t, db, "alice")

	group, err := groupSvc.CreateGroup(ctx, founder, "Lonely Club", "", false, "")
	require.NoError(t, err)

	discussion, err := discSvc.CreateDiscussion(ctx, founder, group.ID, "first post", "hello")
	require.NoError(t, err)
	_, err = discSvc.CreateComment(ctx, founder, discussion.ID, "a comment")
	require.NoError(t, err)
	seedGroupDependents(t, db, group.ID, founder)

	outcome, err := groupSvc.LeaveGroup(ctx, founder, group.ID)
	require.NoError(t, err)
	assert.Equal(t, services.GroupDisbanded, outcome)

	_, err = groupSvc.GetGroup(ctx, group.ID)
	assert.ErrorIs(t, err, services.ErrGroupNotFound)

	// The disband removed every dependent row outright, tombstones included,
	// and dropped the stored resource file with them.
	assert.Zero(t, countRows(t, db, &models.GroupMember{}, "group_id = ?", group.ID))
	assert.Zero(t, countRows(t, db, &models.Discussion{}, "group_id = ?", group.ID))
	assert.Zero(t, countRows(t, db, &models.Comment{}, "discussion_id = ?", discussion.ID))
	assert.Zero(t, countRows(t, db, &models.Resource{}, "group_id = ?", group.ID))
	assert.Zero(t, countRows(t, db, &models.Invitation{}, "group_id = ?", group.ID))
	assert.Zero(t, countRows(t, db, &models.JoinRequest{}, "group_id = ?", group.ID))
	assert.Zero(t, countRows(t, db, &models.Group{}, "id = ?", group.ID))
	assert.Equal(t, []string{"uploads/notes.pdf"}, files.deleted)
}

func TestLeaveDisbandedGroupReportsGroupNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	founder := createTestUser(t, db, "alice")

	group, err := svc.CreateGroup(ctx, founder, "Gone Club", "", false, "")
	require.NoError(t, err)

	outcome, err := svc.LeaveGroup(ctx, founder, group.ID)
	require.NoError(t, err)
	require.Equal(t, services.GroupDisbanded, outcome)

	// Leaving again must report the group as gone, not a missing membership.
	_, err = svc.LeaveGroup(ctx, founder, group.ID)
	assert.ErrorIs(t, err, services.ErrGroupNotFound)
}

func TestLeaveGroupNotAMember(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	founder := createTestUser(t, db, "alice")
	outsider := createTestUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, founder, "Gophers", "", false, "")
	require.NoError(t, err)

	_, err = svc.LeaveGroup(ctx, outsider, group.ID)
	assert.ErrorIs(t, err, services.ErrNotAMember)
}

func TestRemoveMember(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	admin := createTestUser(t, db, "alice")
	member := createTestUser(t, db, "bob")
	other := createTestUser(t, db, "carol")

	group, err := svc.CreateGroup(ctx, admin, "Gophers", "", false, "")
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, member, group.ID, "")
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, other, group.ID, "")
	require.NoError(t, err)

	t.Run("requires admin", func(t *testing.T) {
		err := svc.RemoveMember(ctx, member, group.ID, other)
		assert.ErrorIs(t, err, services.ErrForbidden)
	})

	t.Run("rejects self removal", func(t *testing.T) {
		err := svc.RemoveMember(ctx, admin, group.ID, admin)
		assert.ErrorIs(t, err, services.ErrInvalidRequest)
	})

	t.Run("target must be a member", func(t *testing.T) {
		stranger := createTestUser(t, db, "dave")
		err := svc.RemoveMember(ctx, admin, group.ID, stranger)
		assert.ErrorIs(t, err, services.ErrNotAMember)
	})

	t.Run("admin removes member", func(t *testing.T) {
		require.NoError(t, svc.RemoveMember(ctx, admin, group.ID, member))
		assert.Zero(t, countRows(t, db, &models.GroupMember{}, "group_id = ? AND user_id = ?", group.ID, member))
	})

	t.Run("removed member can rejoin", func(t *testing.T) {
		_, err := svc.JoinGroup(ctx, member, group.ID, "")
		require.NoError(t, err)
	})
}

func TestChangeRole(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	admin := createTestUser(t, db, "alice")
	member := createTestUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, admin, "Gophers", "", false, "")
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, member, group.ID, "")
	require.NoError(t, err)

	t.Run("requires admin", func(t *testing.T) {
		_, err := svc.ChangeRole(ctx, member, group.ID, admin, models.MemberRole)
		assert.ErrorIs(t, err, services.ErrForbidden)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := svc.ChangeRole(ctx, admin, group.ID, member, "owner")
		assert.ErrorIs(t, err, services.ErrInvalidRole)
	})

	t.Run("demoting the only admin is blocked", func(t *testing.T) {
		_, err := svc.ChangeRole(ctx, admin, group.ID, admin, models.MemberRole)
		assert.ErrorIs(t, err, services.ErrCannotRemoveLastAdmin)
	})

	t.Run("applies the requested role", func(t *testing.T) {
		updated, err := svc.ChangeRole(ctx, admin, group.ID, member, models.AdminRole)
		require.NoError(t, err)
		assert.Equal(t, models.AdminRole, updated.Role)
		assert.Equal(t, models.AdminRole, memberRole(t, db, group.ID, member))
	})

	t.Run("demotion works once another admin exists", func(t *testing.T) {
		updated, err := svc.ChangeRole(ctx, member, group.ID, admin, models.MemberRole)
		require.NoError(t, err)
		assert.Equal(t, models.MemberRole, updated.Role)
	})

	t.Run("target must be a member", func(t *testing.T) {
		stranger := createTestUser(t, db, "dave")
		_, err := svc.ChangeRole(ctx, member, group.ID, stranger, models.AdminRole)
		assert.ErrorIs(t, err, services.ErrNotAMember)
	})
}

func TestDeleteGroupCascades(t *testing.T) {
	db := setupTestDB(t)
	files := &recordingFileStore{}
	groupSvc := newTestGroupServiceWithFiles(db, files)
	discSvc := newTestDiscussionService(db)
	ctx := context.Background()

	admin := createTestUser(t, db, "alice")
	member := createTestUser(t, db, "bob")

	group, err := groupSvc.CreateGroup(ctx, admin, "Doomed", "", false, "")
	require.NoError(t, err)
	_, err = groupSvc.JoinGroup(ctx, member, group.ID, "")
	require.NoError(t, err)

	discussion, err := discSvc.CreateDiscussion(ctx, member, group.ID, "topic", "body")
	require.NoError(t, err)
	_, err = discSvc.CreateComment(ctx, admin, discussion.ID, "reply")
	require.NoError(t, err)
	seedGroupDependents(t, db, group.ID, member)

	err = groupSvc.DeleteGroup(ctx, member, group.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.Empty(t, files.deleted)

	require.NoError(t, groupSvc.DeleteGroup(ctx, admin, group.ID))

	_, err = groupSvc.GetGroup(ctx, group.ID)
	assert.ErrorIs(t, err, services.ErrGroupNotFound)
	assert.Zero(t, countRows(t, db, &models.GroupMember{}, "group_id = ?", group.ID))
	assert.Zero(t, countRows(t, db, &models.Discussion{}, "group_id = ?", group.ID))
	assert.Zero(t, countRows(t, db, &models.Comment{}, "discussion_id = ?", discussion.ID))
	assert.Zero(t, countRows(t, db, &models.Resource{}, "group_id = ?", group.ID))
	assert.Zero(t, countRows(t, db, &models.Invitation{}, "group_id = ?", group.ID))
	assert.Zero(t, countRows(t, db, &models.JoinRequest{}, "group_id = ?", group.ID))
	assert.Equal(t, []string{"uploads/notes.pdf"}, files.deleted)
}

func TestDeleteMissingGroup(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)

	admin := createTestUser(t, db, "alice")
	err := svc.DeleteGroup(context.Background(), admin, 4242)
	assert.ErrorIs(t, err, services.ErrGroupNotFound)
}

func TestSearchGroupsExcludesOwnGroups(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	caller := createTestUser(t, db, "alice")
	other := createTestUser(t, db, "bob")

	mine, err := svc.CreateGroup(ctx, caller, "Go Club", "", false, "")
	require.NoError(t, err)

	theirs, err := svc.CreateGroup(ctx, other, "GO LOVERS", "", false, "")
	require.NoError(t, err)
	unrelated, err := svc.CreateGroup(ctx, other, "Rustaceans", "", false, "")
	require.NoError(t, err)

	results, err := svc.SearchGroups(ctx, caller, "go")
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Case-insensitive match, own group filtered out, count annotated.
	assert.Equal(t, theirs.ID, results[0].ID)
	assert.Equal(t, int64(1), results[0].MemberCount)

	for _, r := range results {
		assert.NotEqual(t, mine.ID, r.ID)
		assert.NotEqual(t, unrelated.ID, r.ID)
	}
}

func TestGetGroupMembersRequiresMembership(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	founder := createTestUser(t, db, "alice")
	outsider := createTestUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, founder, "Gophers", "", false, "")
	require.NoError(t, err)

	_, err = svc.GetGroupMembers(ctx, outsider, group.ID, 10, 0)
	assert.ErrorIs(t, err, services.ErrNotAMember)
}

func TestGetUserGroups(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestGroupService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice")
	other := createTestUser(t, db, "bob")

	g1, err := svc.CreateGroup(ctx, user, "First", "", false, "")
	require.NoError(t, err)
	_, err = svc.CreateGroup(ctx, other, "Second", "", false, "")
	require.NoError(t, err)

	groups, err := svc.GetUserGroups(ctx, user, 10, 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, g1.ID, groups[0].ID)
}
