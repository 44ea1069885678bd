package noteservice

import (
	"fmt"

	"github.com/starford/notecal/internal/apperr"
	"github.com/starford/notecal/internal/parser"
)

// Selection is the filter date chosen in the calendar and the date
// resolved from the active document. Either may be empty.
type Selection struct {
	Date      string `json:"date"`
	Highlight string `json:"highlight"`
}

// Selection returns the current selection.
func (s *Service) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// SelectDate sets the filter date.
func (s *Service) SelectDate(date string) (Selection, error) {
	if _, err := parser.ParseDateKey(date); err != nil {
		return Selection{}, fmt.Errorf("noteservice: date %q: %w", date, apperr.ErrInvalidDate)
	}
	s.mu.Lock()
	s.sel.Date = date
	sel := s.sel
	s.mu.Unlock()
	s.notify("selection", date)
	return sel, nil
}

// ClearSelection removes the filter date.
func (s *Service) ClearSelection() Selection {
	s.mu.Lock()
	s.sel.Date = ""
	sel := s.sel
	s.mu.Unlock()
	s.notify("selection", "")
	return sel
}

// Highlight resolves the date of the active document's text and stores it
// as the highlight. An undated document clears the highlight.
func (s *Service) Highlight(text string) (string, bool) {
	res := parser.ResolveDocument(text, s.fields)
	date := ""
	if res.OK() {
		date = res.Date
	}
	s.mu.Lock()
	changed := s.sel.Highlight != date
	s.sel.Highlight = date
	s.mu.Unlock()
	if changed {
		s.notify("highlight", date)
	}
	return date, date != ""
}

func (s *Service) notify(kind, date string) {
	for _, hook := range s.hooks {
		hook(kind, date)
	}
}
