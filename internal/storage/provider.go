// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/dailycanvas/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root and use forward slashes.
type Provider interface {
	// List returns metadata for every file under dir whose name ends in ext.
	List(dir, ext string) ([]models.ResourceMetadata, error)
	// Exists reports whether a regular file exists at path.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path. A missing file
	// yields an error matching os.ErrNotExist.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, replacing any existing file.
	Write(path string, content []byte) error
	// Create writes content to path only if nothing exists there yet.
	Create(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
