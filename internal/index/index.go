package index

import (
	"time"

	"github.com/starford/notecal/internal/models"
)

// Mirror persists published snapshots and restores the last one at startup.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Mirror interface {
	Replace(snap *Snapshot) error
	Load() (*models.DateIndex, time.Time, error)
	Close() error
}

// Verify *DB satisfies Mirror at compile time.
var _ Mirror = (*DB)(nil)
