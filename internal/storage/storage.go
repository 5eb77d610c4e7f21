// Package storage provides temporary and durable object storage used for
// archiving finished renders. It defines the Storage interface (port) and
// implementations for local disk and S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for staging and durable object storage.
// Finished renders are streamed through a temporary file before upload.
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

	// Upload stores data durably under the given key and returns its URL.
	// Returns ErrArchiveNotConfigured when no durable backend is set up.
	Upload(ctx context.Context, key string, data io.Reader) (url string, err error)
}
