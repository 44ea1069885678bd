package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/notecal/internal/apperr"
	"github.com/starford/notecal/internal/parser"
)

// maxCollisions bounds the -N suffix search for a free file name.
const maxCollisions = 10000

// CreatedNote describes a note written by CreateNoteForDate.
type CreatedNote struct {
	Path    string `json:"path"`     // absolute
	RelPath string `json:"rel_path"` // relative to the workspace root
	Date    string `json:"date"`
}

// TargetDate picks the date a new note is created for: date when given,
// then the selected filter date, then the highlight, then today in UTC.
func (s *Service) TargetDate(date string) (string, error) {
	if date != "" {
		if _, err := parser.ParseDateKey(date); err != nil {
			return "", fmt.Errorf("noteservice: date %q: %w", date, apperr.ErrInvalidDate)
		}
		return date, nil
	}
	sel := s.Selection()
	switch {
	case sel.Date != "":
		return sel.Date, nil
	case sel.Highlight != "":
		return sel.Highlight, nil
	default:
		return parser.FormatDate(s.now()), nil
	}
}

// CreateNoteForDate writes a new dated note and rescans the workspace.
func (s *Service) CreateNoteForDate(ctx context.Context, date string) (*CreatedNote, error) {
	target, err := s.TargetDate(date)
	if err != nil {
		return nil, err
	}

	name := FileName(s.pattern, target)
	rel, err := s.freePath(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(rel, []byte(NoteTemplate(target))); err != nil {
		return nil, fmt.Errorf("noteservice: create note: %w", err)
	}
	s.logger.Info("noteservice: note created", slog.String("path", rel), slog.String("date", target))

	if s.rescan != nil {
		if _, err := s.rescan.Rescan(ctx); err != nil {
			s.logger.Warn("noteservice: rescan after create failed", slog.String("error", err.Error()))
		}
	}
	return &CreatedNote{
		Path:    filepath.Join(s.store.Root(), rel),
		RelPath: rel,
		Date:    target,
	}, nil
}

// freePath returns rel, or rel with a -N suffix before the extension when
// rel is taken.
func (s *Service) freePath(rel string) (string, error) {
	ext := filepath.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	candidate := rel
	for i := 1; i <= maxCollisions; i++ {
		ok, err := s.store.Exists(candidate)
		if err != nil {
			return "", fmt.Errorf("noteservice: create note: %w", err)
		}
		if !ok {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
	return "", fmt.Errorf("noteservice: create note: %s: %w", rel, apperr.ErrAlreadyExists)
}

// FileName expands pattern for date ("YYYY-MM-DD"), replacing the first
// occurrence of YYYY, MM and DD.
func FileName(pattern, date string) string {
	year, month, day := date[0:4], date[5:7], date[8:10]
	name := strings.Replace(pattern, "YYYY", year, 1)
	name = strings.Replace(name, "MM", month, 1)
	return strings.Replace(name, "DD", day, 1)
}

// NoteTemplate returns the initial content of a note dated date.
func NoteTemplate(date string) string {
	return "---\ndate: " + date + "\ntitle: Untitled\n---\n\n# New Note for " + date + "\n\n"
}
