// Package noteservice answers date queries against the current snapshot and
// owns the user-facing state around it: the selected filter date, the
// highlighted date of the active document, and note creation.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"github.com/starford/notecal/internal/apperr"
	"github.com/starford/notecal/internal/index"
	"github.com/starford/notecal/internal/models"
	"github.com/starford/notecal/internal/parser"
	"github.com/starford/notecal/internal/storage"
)

// Defaults for note creation.
const (
	DefaultFilenamePattern = "YYYY-MM-DD-untitled.md"
)

// Rescanner rebuilds and publishes the index.
type Rescanner interface {
	Rescan(ctx context.Context) (*index.Snapshot, error)
}

// SelectionHook is called after the selection or highlight changes.
// kind is "selection" or "highlight"; date is empty when cleared.
type SelectionHook func(kind, date string)

// Status describes the current snapshot.
type Status struct {
	Generation uint64          `json:"generation"`
	ScannedAt  time.Time       `json:"scanned_at"`
	Warm       bool            `json:"warm"`
	Dates      int             `json:"dates"`
	Entries    int             `json:"entries"`
	Stats      index.ScanStats `json:"stats"`
}

// DateList is a set of date counts taken from one snapshot.
type DateList struct {
	Generation uint64             `json:"generation"`
	Dates      []models.DateCount `json:"dates"`
}

// Service coordinates the snapshot cell, storage and rescans.
type Service struct {
	store   storage.Provider
	cell    *index.Cell
	rescan  Rescanner
	fields  []string
	dir     string
	pattern string
	now     func() time.Time
	md      goldmark.Markdown
	logger  *slog.Logger
	hooks   []SelectionHook

	mu  sync.Mutex
	sel Selection
}

// Option configures a Service.
type Option func(*Service)

// WithDateFields sets the fields the highlight resolver probes.
func WithDateFields(fields []string) Option {
	return func(s *Service) {
		if len(fields) > 0 {
			s.fields = fields
		}
	}
}

// WithNotesDirectory sets where new notes are created, relative to the root.
func WithNotesDirectory(dir string) Option {
	return func(s *Service) { s.dir = dir }
}

// WithFilenamePattern sets the new-note filename pattern. The first YYYY,
// MM and DD are replaced with the date parts.
func WithFilenamePattern(p string) Option {
	return func(s *Service) {
		if p != "" {
			s.pattern = p
		}
	}
}

// WithClock overrides the time source used for "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSelectionHook registers fn to run after selection changes.
func WithSelectionHook(fn SelectionHook) Option {
	return func(s *Service) {
		if fn != nil {
			s.hooks = append(s.hooks, fn)
		}
	}
}

// New creates a note service. rescan may be nil, in which case note
// creation does not refresh the index.
func New(store storage.Provider, cell *index.Cell, rescan Rescanner, opts ...Option) *Service {
	s := &Service{
		store:   store,
		cell:    cell,
		rescan:  rescan,
		fields:  index.DefaultDateFields,
		pattern: DefaultFilenamePattern,
		now:     time.Now,
		md:      newMarkdown(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dates returns per-date counts for month ("YYYY-MM"), or for every date
// when month is empty.
func (s *Service) Dates(month string) (DateList, error) {
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return DateList{}, fmt.Errorf("noteservice: month %q: %w", month, apperr.ErrInvalidDate)
		}
	}
	snap := s.cell.Load()
	return DateList{
		Generation: snap.Generation,
		Dates:      snap.Index.DateCounts(month),
	}, nil
}

// NotesForDate returns the notes filed under date, sorted by title.
func (s *Service) NotesForDate(date string) ([]models.NoteEntry, error) {
	if _, err := parser.ParseDateKey(date); err != nil {
		return nil, fmt.Errorf("noteservice: date %q: %w", date, apperr.ErrInvalidDate)
	}
	return s.cell.Load().Index.EntriesByTitle(date), nil
}

// DateFields returns the fields the resolver probes, in priority order.
func (s *Service) DateFields() []string {
	return s.fields
}

// Snapshot returns the current snapshot.
func (s *Service) Snapshot() *index.Snapshot {
	return s.cell.Load()
}

// Status describes the current snapshot.
func (s *Service) Status() Status {
	return statusOf(s.cell.Load())
}

// Rescan rebuilds the index now and returns the resulting status.
func (s *Service) Rescan(ctx context.Context) (Status, error) {
	if s.rescan == nil {
		return s.Status(), nil
	}
	snap, err := s.rescan.Rescan(ctx)
	if err != nil {
		return Status{}, err
	}
	return statusOf(snap), nil
}

func statusOf(snap *index.Snapshot) Status {
	return Status{
		Generation: snap.Generation,
		ScannedAt:  snap.ScannedAt,
		Warm:       snap.Warm,
		Dates:      snap.Index.Len(),
		Entries:    snap.Index.Total(),
		Stats:      snap.Stats,
	}
}
