package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"forum-go/internal/forumtypes"
	"forum-go/internal/models"
	"forum-go/internal/storage"

	"gorm.io/gorm"
)

// ResourceService covers files shared in a group: the bytes go through the
// storage service, the metadata row goes to the database. Uploading and
// listing require membership; deleting follows the same author-or-admin rule
// as discussions, with the uploader in the author's seat.
type ResourceService interface {
	UploadResource(ctx context.Context, uploaderID, groupID uint, discussionID *uint, title string, reader io.Reader, size int64, fileName, mimeType string) (*models.Resource, error)
	ListResources(ctx context.Context, userID, groupID uint, limit, offset int) ([]*models.Resource, error)
	DeleteResource(ctx context.Context, userID, resourceID uint) error
}

// resourceService is the ResourceService implementation.
type resourceService struct {
	resources   storage.ResourceRepository
	discussions storage.DiscussionRepository
	gate        *AccessGate
	files       forumtypes.StorageService
}

// NewResourceService creates a new ResourceService instance.
func NewResourceService(resources storage.ResourceRepository, discussions storage.DiscussionRepository, gate *AccessGate, files forumtypes.StorageService) ResourceService {
	return &resourceService{
		resources:   resources,
		discussions: discussions,
		gate:        gate,
		files:       files,
	}
}

// UploadResource stores the file and records its metadata against the group.
func (s *resourceService) UploadResource(ctx context.Context, uploaderID, groupID uint, discussionID *uint, title string, reader io.Reader, size int64, fileName, mimeType string) (*models.Resource, error) {
	isMember, err := s.gate.IsMember(ctx, uploaderID, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrForbidden
	}

	if discussionID != nil {
		// The attachment target must be a live discussion of this group.
		if _, err := s.discussions.GetByIDInGroup(ctx, *discussionID, groupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDiscussionNotFound
			}
			return nil, fmt.Errorf("fetching discussion %d: %w", *discussionID, err)
		}
	}

	if title == "" {
		title = fileName
	}

	info, err := s.files.UploadFile(ctx, reader, size, fileName, mimeType)
	if err != nil {
		return nil, fmt.Errorf("storing resource file: %w", err)
	}

	resource := &models.Resource{
		GroupID:      groupID,
		DiscussionID: discussionID,
		UploadedByID: uploaderID,
		Title:        title,
		URL:          info.URL,
		StoragePath:  info.Path,
		Size:         info.Size,
		MimeType:     info.MimeType,
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		// The metadata row is the source of truth; without it the stored
		// file is unreachable, so clean it up.
		if cleanupErr := s.files.DeleteFile(ctx, info.Path); cleanupErr != nil {
			log.Printf("Error cleaning up stored file %s after failed resource create: %v", info.Path, cleanupErr)
		}
		return nil, fmt.Errorf("recording resource in group %d: %w", groupID, err)
	}

	return resource, nil
}

// ListResources lists the group's resources, newest first.
func (s *resourceService) ListResources(ctx context.Context, userID, groupID uint, limit, offset int) ([]*models.Resource, error) {
	isMember, err := s.gate.IsMember(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrForbidden
	}
	return s.resources.ListByGroup(ctx, groupID, limit, offset)
}

// DeleteResource removes a resource's metadata row and, when the file's
// storage path is known, the stored bytes.
func (s *resourceService) DeleteResource(ctx context.Context, userID, resourceID uint) error {
	resource, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("fetching resource %d: %w", resourceID, err)
	}

	allowed := resource.UploadedByID == userID
	if !allowed {
		role, ok, err := s.gate.RoleOf(ctx, userID, resource.GroupID)
		if err != nil {
			return err
		}
		allowed = ok && role == models.AdminRole
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.resources.Delete(ctx, resourceID); err != nil {
		return fmt.Errorf("deleting resource %d: %w", resourceID, err)
	}

	if resource.StoragePath != "" {
		if err := s.files.DeleteFile(ctx, resource.StoragePath); err != nil {
			log.Printf("Error deleting stored file for resource %d: %v", resourceID, err)
		}
	}
	return nil
}
