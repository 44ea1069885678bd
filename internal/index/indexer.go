package index

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/notecal/internal/models"
	"github.com/starford/notecal/internal/parser"
	"github.com/starford/notecal/internal/storage"
)

// DefaultDateFields are the frontmatter fields probed for a date, in order.
var DefaultDateFields = []string{"date", "timestamp", "publishdate"}

const defaultWorkers = 8

// ScanStats counts what happened to each file during one scan.
type ScanStats struct {
	Files         int           `json:"files"`
	Indexed       int           `json:"indexed"`
	NoFrontmatter int           `json:"no_frontmatter"`
	NoDate        int           `json:"no_date"`
	Malformed     int           `json:"malformed"`
	ReadFailures  int           `json:"read_failures"`
	Duration      time.Duration `json:"duration_ns"`
}

// Indexer builds a DateIndex from every note in a workspace.
type Indexer struct {
	store   storage.Provider
	fields  []string
	workers int
	logger  *slog.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithDateFields sets the frontmatter fields probed for a date, in priority order.
func WithDateFields(fields []string) IndexerOption {
	return func(ix *Indexer) {
		if len(fields) > 0 {
			ix.fields = append([]string(nil), fields...)
		}
	}
}

// WithWorkers bounds the number of files processed concurrently.
func WithWorkers(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithLogger sets the logger used for per-file diagnostics.
func WithLogger(l *slog.Logger) IndexerOption {
	return func(ix *Indexer) {
		if l != nil {
			ix.logger = l
		}
	}
}

// NewIndexer creates an Indexer reading notes from store.
func NewIndexer(store storage.Provider, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		store:   store,
		fields:  DefaultDateFields,
		workers: defaultWorkers,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

type fileResult struct {
	entry  models.NoteEntry
	status parser.Status
	failed bool
}

// Scan enumerates the workspace and indexes every note. Per-file problems
// are logged and counted, never returned; the only error is a failure to
// enumerate the workspace or a cancelled context.
func (ix *Indexer) Scan(ctx context.Context) (*models.DateIndex, ScanStats, error) {
	start := time.Now()

	files, err := ix.store.List("")
	if err != nil {
		return nil, ScanStats{}, fmt.Errorf("index: scan: %w", err)
	}

	results := make([]fileResult, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = ix.indexFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, ScanStats{}, fmt.Errorf("index: scan: %w", err)
	}

	// Assemble in enumeration order so bucket order does not depend on
	// worker scheduling.
	idx := models.NewDateIndex()
	stats := ScanStats{Files: len(files)}
	for _, r := range results {
		switch {
		case r.failed:
			stats.ReadFailures++
		case r.status == parser.StatusOK:
			idx.Add(r.entry)
			stats.Indexed++
		case r.status == parser.StatusNoFrontmatter:
			stats.NoFrontmatter++
		case r.status == parser.StatusMalformed:
			stats.Malformed++
		default:
			stats.NoDate++
		}
	}
	stats.Duration = time.Since(start)
	return idx, stats, nil
}

func (ix *Indexer) indexFile(f models.FileMetadata) fileResult {
	data, err := ix.store.Read(f.Path)
	if err != nil {
		ix.logger.Warn("scan: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		return fileResult{failed: true}
	}

	res := parser.ResolveDocument(string(data), ix.fields)
	switch res.Status {
	case parser.StatusOK:
	case parser.StatusMalformed:
		ix.logger.Debug("scan: malformed frontmatter", slog.String("path", f.Path), slog.String("error", res.Err.Error()))
		return fileResult{status: res.Status}
	default:
		return fileResult{status: res.Status}
	}

	abs := f.AbsPath
	if abs == "" {
		abs = filepath.Join(ix.store.Root(), f.Path)
	}
	title := res.Title
	if title == "" {
		title = filepath.Base(abs)
	}
	return fileResult{
		entry: models.NoteEntry{
			FilePath: abs,
			Title:    title,
			Date:     res.Date,
		},
		status: parser.StatusOK,
	}
}
