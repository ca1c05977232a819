package index

import "github.com/starford/dailycanvas/internal/models"

// CanvasIndex defines the interface for canvas indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type CanvasIndex interface {
	UpsertCanvas(c CanvasRow, items []ItemRow) error
	DeleteCanvas(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Items(path string) ([]ItemRow, error)
	Rotations(limit int) ([]models.Rotation, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies CanvasIndex at compile time.
var _ CanvasIndex = (*DB)(nil)
