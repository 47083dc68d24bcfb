package services_test

import (
	"context"
	"testing"

	"forum-go/internal/models"
	"forum-go/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDiscussionRequiresMembership(t *testing.T) {
	db := setupTestDB(t)
	groupSvc := newTestGroupService(db)
	discSvc := newTestDiscussionService(db)
	ctx := context.Background()

	founder := createTestUser(t, db, "alice")
	outsider := createTestUser(t, db, "bob")

	group, err := groupSvc.CreateGroup(ctx, founder, "Gophers", "", false, "")
	require.NoError(t, err)

	_, err = discSvc.CreateDiscussion(ctx, outsider, group.ID, "hi", "there")
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = discSvc.CreateDiscussion(ctx, founder, group.ID, "  ", "body")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	discussion, err := discSvc.CreateDiscussion(ctx, founder, group.ID, "hi", "there")
	require.NoError(t, err)
	assert.Equal(t, founder, discussion.AuthorID)
}

func TestGetDiscussionScopedToGroup(t *testing.T) {
	db := setupTestDB(t)
	groupSvc := newTestGroupService(db)
	discSvc := newTestDiscussionService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice")

	groupA, err := groupSvc.CreateGroup(ctx, user, "Group A", "", false, "")
	require.NoError(t, err)
	groupB, err := groupSvc.CreateGroup(ctx, user, "Group B", "", false, "")
	require.NoError(t, err)

	discussion, err := discSvc.CreateDiscussion(ctx, user, groupA.ID, "topic", "body")
	require.NoError(t, err)

	// The same ID looked up under the wrong group reads as absent, not as
	// someone else's discussion.
	_, err = discSvc.GetDiscussion(ctx, user, groupB.ID, discussion.ID)
	assert.ErrorIs(t, err, services.ErrDiscussionNotFound)

	found, err := discSvc.GetDiscussion(ctx, user, groupA.ID, discussion.ID)
	require.NoError(t, err)
	assert.Equal(t, discussion.ID, found.ID)
}

func TestUpdateDiscussionAuthorOrAdminOnly(t *testing.T) {
	db := setupTestDB(t)
	groupSvc := newTestGroupService(db)
	discSvc := newTestDiscussionService(db)
	ctx := context.Background()

	admin := createTestUser(t, db, "alice")
	author := createTestUser(t, db, "bob")
	bystander := createTestUser(t, db, "carol")

	group, err := groupSvc.CreateGroup(ctx, admin, "Gophers", "", false, "")
	require.NoError(t, err)
	_, err = groupSvc.JoinGroup(ctx, author, group.ID, "")
	require.NoError(t, err)
	_, err = groupSvc.JoinGroup(ctx, bystander, group.ID, "")
	require.NoError(t, err)

	discussion, err := discSvc.CreateDiscussion(ctx, author, group.ID, "topic", "body")
	require.NoError(t, err)

	_, err = discSvc.UpdateDiscussion(ctx, bystander, group.ID, discussion.ID, "hijacked", "x")
	assert.ErrorIs(t, err, services.ErrForbidden)

	updated, err := discSvc.UpdateDiscussion(ctx, author, group.ID, discussion.ID, "edited", "new body")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Title)

	updated, err = discSvc.UpdateDiscussion(ctx, admin, group.ID, discussion.ID, "moderated", "cleaned")
	require.NoError(t, err)
	assert.Equal(t, "moderated", updated.Title)
}

func TestDeleteDiscussionIsSoft(t *testing.T) {
	db := setupTestDB(t)
	groupSvc := newTestGroupService(db)
	discSvc := newTestDiscussionService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice")

	group, err := groupSvc.CreateGroup(ctx, user, "Gophers", "", false, "")
	require.NoError(t, err)
	discussion, err := discSvc.CreateDiscussion(ctx, user, group.ID, "topic", "body")
	require.NoError(t, err)

	require.NoError(t, discSvc.DeleteDiscussion(ctx, user, group.ID, discussion.ID))

	list, err := discSvc.ListDiscussions(ctx, user, group.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = discSvc.GetDiscussion(ctx, user, group.ID, discussion.ID)
	assert.ErrorIs(t, err, services.ErrDiscussionNotFound)

	// Soft delete: the tombstoned row survives until the group is removed.
	assert.Equal(t, int64(1), countRows(t, db, &models.Discussion{}, "id = ?", discussion.ID))
}

func TestCommentsFollowParentDiscussion(t *testing.T) {
	db := setupTestDB(t)
	groupSvc := newTestGroupService(db)
	discSvc := newTestDiscussionService(db)
	ctx := context.Background()

	admin := createTestUser(t, db, "alice")
	member := createTestUser(t, db, "bob")
	outsider := createTestUser(t, db, "carol")

	group, err := groupSvc.CreateGroup(ctx, admin, "Gophers", "", false, "")
	require.NoError(t, err)
	_, err = groupSvc.JoinGroup(ctx, member, group.ID, "")
	require.NoError(t, err)

	discussion, err := discSvc.CreateDiscussion(ctx, admin, group.ID, "topic", "body")
	require.NoError(t, err)

	_, err = discSvc.CreateComment(ctx, outsider, discussion.ID, "not my group")
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = discSvc.CreateComment(ctx, member, discussion.ID, "")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	comment, err := discSvc.CreateComment(ctx, member, discussion.ID, "hello")
	require.NoError(t, err)

	comments, err := discSvc.ListComments(ctx, member, discussion.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, comment.ID, comments[0].ID)

	_, err = discSvc.CreateComment(ctx, member, 9999, "orphan")
	assert.ErrorIs(t, err, services.ErrDiscussionNotFound)
}

func TestCommentModeration(t *testing.T) {
	db := setupTestDB(t)
	groupSvc := newTestGroupService(db)
	discSvc := newTestDiscussionService(db)
	ctx := context.Background()

	admin := createTestUser(t, db, "alice")
	author := createTestUser(t, db, "bob")
	bystander := createTestUser(t, db, "carol")

	group, err := groupSvc.CreateGroup(ctx, admin, "Gophers", "", false, "")
	require.NoError(t, err)
	_, err = groupSvc.JoinGroup(ctx, author, group.ID, "")
	require.NoError(t, err)
	_, err = groupSvc.JoinGroup(ctx, bystander, group.ID, "")
	require.NoError(t, err)

	discussion, err := discSvc.CreateDiscussion(ctx, admin, group.ID, "topic", "body")
	require.NoError(t, err)
	comment, err := discSvc.CreateComment(ctx, author, discussion.ID, "hello")
	require.NoError(t, err)

	_, err = discSvc.UpdateComment(ctx, bystander, comment.ID, "vandalized")
	assert.ErrorIs(t, err, services.ErrForbidden)

	updated, err := discSvc.UpdateComment(ctx, author, comment.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	// A group admin may moderate comments too.
	require.NoError(t, discSvc.DeleteComment(ctx, admin, comment.ID))

	_, err = discSvc.UpdateComment(ctx, author, comment.ID, "resurrect")
	assert.ErrorIs(t, err, services.ErrCommentNotFound)
}

func TestCommentUnderTombstonedDiscussion(t *testing.T) {
	db := setupTestDB(t)
	groupSvc := newTestGroupService(db)
	discSvc := newTestDiscussionService(db)
	ctx := context.Background()

	admin := createTestUser(t, db, "alice")
	author := createTestUser(t, db, "bob")

	group, err := groupSvc.CreateGroup(ctx, admin, "Gophers", "", false, "")
	require.NoError(t, err)
	_, err = groupSvc.JoinGroup(ctx, author, group.ID, "")
	require.NoError(t, err)

	discussion, err := discSvc.CreateDiscussion(ctx, admin, group.ID, "topic", "body")
	require.NoError(t, err)
	comment, err := discSvc.CreateComment(ctx, author, discussion.ID, "hello")
	require.NoError(t, err)

	require.NoError(t, discSvc.DeleteDiscussion(ctx, admin, group.ID, discussion.ID))

	// New comments can't attach to a tombstoned parent.
	_, err = discSvc.CreateComment(ctx, author, discussion.ID, "too late")
	assert.ErrorIs(t, err, services.ErrDiscussionNotFound)

	// The author can still clean up their own comment.
	require.NoError(t, discSvc.DeleteComment(ctx, author, comment.ID))
}
