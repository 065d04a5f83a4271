// Package storage provides temporary and persistent file storage capabilities.
// It defines the Storage interface (port) for hexagonal architecture and
// implementations for local disk and S3 artifact publishing.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for temporary scratch files and final
// artifact publishing. Implementations must handle temporary files during
// composition and persist the produced MP4 for retrieval.
type Storage interface {
	// SaveTemp saves data to a temporary file and returns the file path.
	// The name parameter is used as a hint for the filename.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// LoadTemp reads a temporary file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// Put persists the artifact under the given key and returns its
	// retrieval reference.
	Put(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
}
