package gcsuploader

import (
	"context"
	"io"
)

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// FetchFromGCS downloads object bytes from the given gs:// URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)

	// UploadReader streams r to the given gs:// URI.
	UploadReader(ctx context.Context, gcsURI string, r io.Reader, contentType string) error

	// UploadFile uploads a local file to a bucket under the given object name.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error
}

// GCSStorageService is the concrete implementation of StorageService
// that interacts with Google Cloud Storage.
type GCSStorageService struct{}

var _ StorageService = (*GCSStorageService)(nil)

// NewGCSStorageService creates a new instance of GCSStorageService.
func NewGCSStorageService() *GCSStorageService {
	return &GCSStorageService{}
}

// FetchFromGCS delegates to the package-level FetchFromGCS function.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return FetchFromGCS(ctx, gcsURI)
}

// UploadReader delegates to the package-level UploadReader function.
func (s *GCSStorageService) UploadReader(ctx context.Context, gcsURI string, r io.Reader, contentType string) error {
	return UploadReader(ctx, gcsURI, r, contentType)
}

// UploadFile delegates to the package-level UploadFile function.
func (s *GCSStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	return UploadFile(ctx, bucketName, objectName, filePath)
}
