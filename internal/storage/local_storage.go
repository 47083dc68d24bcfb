package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"forum-go/internal/config"
	"forum-go/internal/forumtypes"

	"github.com/google/uuid"
)

// LocalStorageService implements forumtypes.StorageService on the local
// filesystem. Files are stored flat under basePath with uuid names.
type LocalStorageService struct {
	basePath string
	baseURL  string
}

// NewLocalStorageService creates a LocalStorageService rooted at the
// configured path. baseURL is the URL prefix under which the files are
// served.
func NewLocalStorageService(cfg config.StorageConfig, baseURL string) (forumtypes.StorageService, error) {
	if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating local storage directory %q: %w", cfg.LocalPath, err)
	}
	return &LocalStorageService{
		basePath: cfg.LocalPath,
		baseURL:  baseURL,
	}, nil
}

// UploadFile saves the file to the local filesystem under a unique name,
// keeping the original extension (or inferring one from the MIME type).
func (s *LocalStorageService) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*forumtypes.FileInfo, error) {
	ext := filepath.Ext(fileName)
	if ext == "" {
		extensions, _ := mime.ExtensionsByType(mimeType)
		if len(extensions) > 0 {
			ext = extensions[0]
		}
	}
	uniqueFileName := uuid.New().String() + ext
	dstPath := filepath.Join(s.basePath, uniqueFileName)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("creating destination file %q: %w", dstPath, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("writing file: %w", err)
	}
	if written != fileSize {
		os.Remove(dstPath)
		return nil, fmt.Errorf("file size mismatch: expected %d, wrote %d", fileSize, written)
	}

	fileURL := strings.TrimSuffix(s.baseURL, "/") + "/" + url.PathEscape(uniqueFileName)

	return &forumtypes.FileInfo{
		URL:      fileURL,
		Path:     dstPath,
		Size:     fileSize,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

// DeleteFile removes a stored file by the path UploadFile returned.
func (s *LocalStorageService) DeleteFile(ctx context.Context, pathOrIdentifier string) error {
	if err := os.Remove(pathOrIdentifier); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stored file %q: %w", pathOrIdentifier, err)
	}
	return nil
}
