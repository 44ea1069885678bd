// Package storage defines the workspace file-system abstraction.
package storage

import "github.com/starford/notecal/internal/models"

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

// Provider is the interface for workspace file operations.
type Provider interface {
	// Root returns the absolute path of the workspace root.
	Root() string
	// List returns metadata for every matching note under dir (relative to root).
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Exists reports whether a file exists at path (relative to root).
	Exists(path string) (bool, error)
	// Matches reports whether the file at the absolute path abs is a note
	// that List would return.
	Matches(abs string) bool
}
