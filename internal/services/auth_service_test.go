package services_test

import (
	"context"
	"testing"
	"time"

	"forum-go/internal/config"
	"forum-go/internal/services"
	"forum-go/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestAuthService(db *gorm.DB) services.AuthService {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecretKey: "test-secret",
			JWTExpiry:    time.Hour,
		},
	}
	return services.NewAuthService(storage.NewGormUserRepository(db), nil, cfg)
}

func TestRegisterWithoutEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	// Multiple accounts may omit the email address; a unique index on the
	// column must not treat two absent emails as equal.
	first, err := svc.Register(ctx, "alice", "Alice", "", "secret1")
	require.NoError(t, err)
	assert.Nil(t, first.Email)

	second, err := svc.Register(ctx, "bob", "Bob", "", "secret2")
	require.NoError(t, err)
	assert.Nil(t, second.Email)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol", "Carol", "", "secret")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "carol", "Other Carol", "carol@example.com", "secret")
	assert.ErrorIs(t, err, services.ErrUserAlreadyExists)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dave", "Dave", "dave@example.com", "secret")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "dave2", "Dave Two", "dave@example.com", "secret")
	assert.ErrorIs(t, err, services.ErrUserAlreadyExists)
}

func TestRegisterRequiresUsernameAndPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "Nick", "", "secret")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	_, err = svc.Register(ctx, "erin", "Erin", "", "")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, "frank", "Frank", "frank@example.com", "secret")
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "frank", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "frank", user.Username)

	token, user, err = svc.Login(ctx, "frank@example.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "frank", user.Username)

	_, _, err = svc.Login(ctx, "frank", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}
