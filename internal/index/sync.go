package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// PublishHook is called after a snapshot becomes current.
type PublishHook func(snap *Snapshot)

// Rescanner runs full scans and publishes their results into a Cell.
// Rescans may run concurrently; a scan that finishes after a newer one has
// been published is discarded.
type Rescanner struct {
	indexer *Indexer
	cell    *Cell
	mirror  Mirror
	hooks   []PublishHook
	logger  *slog.Logger

	mirrorMu sync.Mutex
}

// RescannerOption configures a Rescanner.
type RescannerOption func(*Rescanner)

// WithMirror persists every published snapshot to m.
func WithMirror(m Mirror) RescannerOption {
	return func(r *Rescanner) { r.mirror = m }
}

// WithPublishHook registers fn to run after each publish.
func WithPublishHook(fn PublishHook) RescannerOption {
	return func(r *Rescanner) {
		if fn != nil {
			r.hooks = append(r.hooks, fn)
		}
	}
}

// WithRescanLogger sets the logger.
func WithRescanLogger(l *slog.Logger) RescannerOption {
	return func(r *Rescanner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRescanner creates a Rescanner publishing into cell.
func NewRescanner(ix *Indexer, cell *Cell, opts ...RescannerOption) *Rescanner {
	r := &Rescanner{indexer: ix, cell: cell, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cell returns the cell this Rescanner publishes into.
func (r *Rescanner) Cell() *Cell {
	return r.cell
}

// Rescan scans the workspace and publishes the result. It returns the
// snapshot that is current afterwards, which is the new one unless a newer
// scan already won.
func (r *Rescanner) Rescan(ctx context.Context) (*Snapshot, error) {
	gen := r.cell.Begin()
	idx, stats, err := r.indexer.Scan(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Generation: gen,
		Index:      idx,
		ScannedAt:  time.Now().UTC(),
		Stats:      stats,
	}
	if !r.cell.Publish(snap) {
		r.logger.Debug("sync: discarded stale scan", slog.Uint64("generation", gen))
		return r.cell.Load(), nil
	}

	r.logger.Info("sync: index published",
		slog.Uint64("generation", gen),
		slog.Int("dates", idx.Len()),
		slog.Int("entries", idx.Total()),
		slog.Int("files", stats.Files),
		slog.Int("no_frontmatter", stats.NoFrontmatter),
		slog.Int("no_date", stats.NoDate),
		slog.Int("malformed", stats.Malformed),
		slog.Int("read_failures", stats.ReadFailures),
		slog.Duration("duration", stats.Duration),
	)

	r.persist(snap)
	for _, hook := range r.hooks {
		hook(snap)
	}
	return snap, nil
}

// persist writes snap to the mirror unless a newer snapshot has replaced it.
func (r *Rescanner) persist(snap *Snapshot) {
	if r.mirror == nil {
		return
	}
	r.mirrorMu.Lock()
	defer r.mirrorMu.Unlock()
	if r.cell.Load().Generation != snap.Generation {
		return
	}
	if err := r.mirror.Replace(snap); err != nil {
		r.logger.Warn("sync: mirror write failed", slog.String("error", err.Error()))
	}
}

// Warm publishes the mirrored index, if any, so queries have data before
// the first scan completes. It must run before the first Rescan.
func (r *Rescanner) Warm() (*Snapshot, error) {
	if r.mirror == nil {
		return r.cell.Load(), nil
	}
	idx, scannedAt, err := r.mirror.Load()
	if err != nil {
		return nil, fmt.Errorf("index: warm: %w", err)
	}
	if idx.Total() == 0 {
		return r.cell.Load(), nil
	}
	snap := &Snapshot{
		Generation: r.cell.Begin(),
		Index:      idx,
		ScannedAt:  scannedAt,
		Warm:       true,
	}
	if r.cell.Publish(snap) {
		r.logger.Info("sync: warmed from mirror",
			slog.Int("dates", idx.Len()),
			slog.Int("entries", idx.Total()),
			slog.Time("scanned_at", scannedAt),
		)
		for _, hook := range r.hooks {
			hook(snap)
		}
	}
	return r.cell.Load(), nil
}
