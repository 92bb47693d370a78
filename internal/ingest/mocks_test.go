package ingest

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockFetcher is a mock implementation of Fetcher for testing.
type MockFetcher struct {
	FetchFunc func(ctx context.Context, location string) ([]byte, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, location)
	m.mu.Unlock()
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, location)
	}
	return nil, fmt.Errorf("unexpected fetch of %s", location)
}

// filesFetcher serves fixed contents by location.
func filesFetcher(files map[string]string) *MockFetcher {
	return &MockFetcher{
		FetchFunc: func(ctx context.Context, location string) ([]byte, error) {
			body, ok := files[location]
			if !ok {
				return nil, fmt.Errorf("no such file: %s", location)
			}
			return []byte(body), nil
		},
	}
}

// MockStorageService is a mock implementation of gcsuploader.StorageService.
type MockStorageService struct {
	FetchFromGCSFunc func(ctx context.Context, gcsURI string) ([]byte, error)
	UploadReaderFunc func(ctx context.Context, gcsURI string, r io.Reader, contentType string) error
	UploadFileFunc   func(ctx context.Context, bucketName, objectName, filePath string) error
}

func (m *MockStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	if m.FetchFromGCSFunc != nil {
		return m.FetchFromGCSFunc(ctx, gcsURI)
	}
	return nil, nil
}

func (m *MockStorageService) UploadReader(ctx context.Context, gcsURI string, r io.Reader, contentType string) error {
	if m.UploadReaderFunc != nil {
		return m.UploadReaderFunc(ctx, gcsURI, r, contentType)
	}
	return nil
}

func (m *MockStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	if m.UploadFileFunc != nil {
		return m.UploadFileFunc(ctx, bucketName, objectName, filePath)
	}
	return nil
}
