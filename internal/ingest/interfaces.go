package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/dvloznov/cashledger/internal/gcsuploader"
)

// Fetcher reads the raw bytes of a source location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// LocationFetcher reads gs:// URIs through a StorageService and everything
// else from the local filesystem.
type LocationFetcher struct {
	storage  gcsuploader.StorageService
	readFile func(name string) ([]byte, error)
}

var _ Fetcher = (*LocationFetcher)(nil)

// NewLocationFetcher creates a fetcher. storage may be nil when only local
// paths are used.
func NewLocationFetcher(storage gcsuploader.StorageService) *LocationFetcher {
	return &LocationFetcher{storage: storage, readFile: os.ReadFile}
}

// Fetch implements Fetcher.
func (f *LocationFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if gcsuploader.IsGCSURI(location) {
		if f.storage == nil {
			return nil, fmt.Errorf("Fetch: no storage service configured for %s", location)
		}
		return f.storage.FetchFromGCS(ctx, location)
	}

	data, err := f.readFile(location)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading %s: %w", location, err)
	}
	return data, nil
}
