package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forum-go/internal/auth"
	"forum-go/internal/config"
	"forum-go/internal/models"
	"forum-go/internal/storage"

	"gorm.io/gorm"
)

// AuthService defines the user authentication service interface.
type AuthService interface {
	Register(ctx context.Context, username, nickname, email, password string) (*models.User, error)
	Login(ctx context.Context, usernameOrEmail, password string) (token string, user *models.User, err error)
	Logout(ctx context.Context, jti string, tokenExpiry time.Time) error
}

// authService is the AuthService implementation.
type authService struct {
	userRepo  storage.UserRepository
	blacklist auth.TokenBlacklist
	cfg       config.Config
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(userRepo storage.UserRepository, blacklist auth.TokenBlacklist, cfg config.Config) AuthService {
	return &authService{
		userRepo:  userRepo,
		blacklist: blacklist,
		cfg:       cfg,
	}
}

// Register creates a new account after checking username and email uniqueness.
func (s *authService) Register(ctx context.Context, username, nickname, email, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidRequest)
	}

	_, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking username: %w", err)
	}

	if email != "" {
		_, err = s.userRepo.GetByEmail(ctx, email)
		if err == nil {
			return nil, ErrUserAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("checking email: %w", err)
		}
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	newUser := &models.User{
		Username:     username,
		Nickname:     nickname,
		PasswordHash: hashedPassword,
	}
	if email != "" {
		newUser.Email = &email
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return newUser, nil
}

// Login verifies credentials and issues a JWT. The identifier may be a
// username or an email address.
func (s *authService) Login(ctx context.Context, usernameOrEmail, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, usernameOrEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.userRepo.GetByEmail(ctx, usernameOrEmail)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrUserNotFound
		} else if err != nil {
			return "", nil, fmt.Errorf("looking up user by email: %w", err)
		}
	} else if err != nil {
		return "", nil, fmt.Errorf("looking up user by username: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.cfg.Auth)
	if err != nil {
		return "", nil, fmt.Errorf("generating token: %w", err)
	}

	return token, user, nil
}

// Logout revokes the token by blacklisting its jti until it would have
// expired anyway.
func (s *authService) Logout(ctx context.Context, jti string, tokenExpiry time.Time) error {
	if jti == "" {
		return fmt.Errorf("%w: token has no jti", ErrInvalidRequest)
	}
	if s.blacklist == nil {
		return nil
	}
	if err := s.blacklist.Add(ctx, jti, tokenExpiry); err != nil {
		return fmt.Errorf("blacklisting token: %w", err)
	}
	return nil
}
