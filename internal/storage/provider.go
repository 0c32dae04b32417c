// Package storage reads notes out of a vault directory and writes the
// rendered snapshot back into it.
package storage

import (
	"context"

	"github.com/starford/vaultmetrics/internal/models"
)

// Provider is the interface for vault file operations.
type Provider interface {
	// Root returns the absolute vault directory.
	Root() string
	// List returns metadata for every .md file under dir (relative to vault root),
	// sorted by path. Hidden directories are skipped.
	List(dir string) ([]models.NoteMetadata, error)
	// Walk calls fn with the metadata and contents of every .md file under
	// dir in path order, stopping at the first error or when ctx is done.
	Walk(ctx context.Context, dir string, fn func(meta models.NoteMetadata, data []byte) error) error
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
}
