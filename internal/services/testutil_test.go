package services_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"forum-go/internal/config"
	"forum-go/internal/forumtypes"
	"forum-go/internal/models"
	"forum-go/internal/services"
	"forum-go/internal/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database private to the test and
// migrates the schema into it.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrateTables(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// newTestGroupService wires a GroupService over the test database with no
// Kafka producer or file storage attached.
func newTestGroupService(db *gorm.DB) services.GroupService {
	return services.NewGroupService(db, storage.NewGormGroupRepository(db), nil, nil, config.KafkaConfig{})
}

// newTestGroupServiceWithFiles is newTestGroupService with a file storage
// backend, for tests that watch uploaded files get cleaned up.
func newTestGroupServiceWithFiles(db *gorm.DB, files forumtypes.StorageService) services.GroupService {
	return services.NewGroupService(db, storage.NewGormGroupRepository(db), files, nil, config.KafkaConfig{})
}

// newTestDiscussionService wires a DiscussionService over the test database.
func newTestDiscussionService(db *gorm.DB) services.DiscussionService {
	groups := storage.NewGormGroupRepository(db)
	discussions := storage.NewGormDiscussionRepository(db)
	gate := services.NewAccessGate(groups, discussions)
	return services.NewDiscussionService(discussions, gate)
}

// createTestUser inserts a user row and returns its ID.
func createTestUser(t *testing.T, db *gorm.DB, username string) uint {
	t.Helper()
	user := &models.User{
		Username:     username,
		Nickname:     username,
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user.ID
}

// recordingFileStore is a StorageService that only remembers which paths
// were deleted.
type recordingFileStore struct {
	deleted []string
}

func (s *recordingFileStore) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*forumtypes.FileInfo, error) {
	return &forumtypes.FileInfo{
		URL:      "/uploads/" + fileName,
		Path:     "uploads/" + fileName,
		Size:     fileSize,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

func (s *recordingFileStore) DeleteFile(ctx context.Context, pathOrIdentifier string) error {
	s.deleted = append(s.deleted, pathOrIdentifier)
	return nil
}

// seedGroupDependents inserts one row of every entity type that hangs off a
// group besides discussions and comments: a resource (with a stored file
// path), an invitation and a join request.
func seedGroupDependents(t *testing.T, db *gorm.DB, groupID, userID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.Resource{
		GroupID:      groupID,
		UploadedByID: userID,
		Title:        "notes",
		URL:          "/uploads/notes.pdf",
		StoragePath:  "uploads/notes.pdf",
		Size:         42,
	}).Error)
	require.NoError(t, db.Create(&models.Invitation{
		GroupID:   groupID,
		UserID:    userID,
		InviterID: userID,
	}).Error)
	require.NoError(t, db.Create(&models.JoinRequest{
		GroupID: groupID,
		UserID:  userID,
	}).Error)
}

// memberRole looks up a user's current role in a group.
func memberRole(t *testing.T, db *gorm.DB, groupID, userID uint) models.GroupMemberRole {
	t.Helper()
	repo := storage.NewGormGroupRepository(db)
	member, err := repo.GetMember(context.Background(), groupID, userID)
	require.NoError(t, err)
	return member.Role
}

// countRows counts all rows of a model, including soft-deleted ones.
func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	tx := db.Unscoped().Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	require.NoError(t, tx.Count(&n).Error)
	return n
}
