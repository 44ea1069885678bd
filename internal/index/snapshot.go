package index

import (
	"sync/atomic"
	"time"

	"github.com/starford/notecal/internal/models"
)

// Snapshot is one published generation of the date index.
type Snapshot struct {
	Generation uint64            `json:"generation"`
	Index      *models.DateIndex `json:"-"`
	ScannedAt  time.Time         `json:"scanned_at"`
	Stats      ScanStats         `json:"stats"`
	// Warm is set for snapshots restored from the mirror rather than scanned.
	Warm bool `json:"warm,omitempty"`
}

var emptySnapshot = &Snapshot{Index: models.NewDateIndex()}

// Cell holds the current Snapshot. The writer reserves a generation with
// Begin before scanning; Publish only installs snapshots newer than the
// current one, so a slow scan can never overwrite a later result.
type Cell struct {
	cur atomic.Pointer[Snapshot]
	gen atomic.Uint64
}

// NewCell returns a Cell holding the empty generation-0 snapshot.
func NewCell() *Cell {
	return &Cell{}
}

// Begin reserves the next generation number.
func (c *Cell) Begin() uint64 {
	return c.gen.Add(1)
}

// Publish installs s if its generation is newer than the current snapshot's.
func (c *Cell) Publish(s *Snapshot) bool {
	for {
		old := c.cur.Load()
		if old != nil && old.Generation >= s.Generation {
			return false
		}
		if c.cur.CompareAndSwap(old, s) {
			return true
		}
	}
}

// Load returns the current snapshot. It never returns nil.
func (c *Cell) Load() *Snapshot {
	if s := c.cur.Load(); s != nil {
		return s
	}
	return emptySnapshot
}
