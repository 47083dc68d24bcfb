package forumtypes

import (
	"context"
	"io"
)

// StorageService is where resource bytes are kept. The interface lives in
// forumtypes to break an import cycle between storage and services.
type StorageService interface {
	// UploadFile stores the reader's contents and returns the resulting
	// FileInfo, including the access URL. fileName is the original name,
	// used for the stored file's extension.
	UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)

	// DeleteFile removes a previously stored file by the Path returned from
	// UploadFile.
	DeleteFile(ctx context.Context, pathOrIdentifier string) error
}
