package noteservice

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmparser "github.com/yuin/goldmark/parser"

	"github.com/starford/notecal/internal/apperr"
	"github.com/starford/notecal/internal/parser"
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			gmparser.WithAutoHeadingID(),
		),
	)
}

// ReadNote returns the raw text of the note at path. path may be absolute
// (as stored in NoteEntry.FilePath) or relative to the workspace root. Only
// files the workspace lists as notes can be read; anything else is not found.
func (s *Service) ReadNote(path string) (string, error) {
	rel, err := s.relPath(path)
	if err != nil {
		return "", err
	}
	if !s.store.Matches(filepath.Join(s.store.Root(), rel)) {
		return "", fmt.Errorf("noteservice: %s is not a note: %w", path, apperr.ErrNotFound)
	}
	data, err := s.store.Read(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotFound)
		}
		return "", err
	}
	return string(data), nil
}

// Preview renders the note body, without frontmatter, to HTML.
func (s *Service) Preview(path string) (string, error) {
	text, err := s.ReadNote(path)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(parser.StripFrontmatter(text)), &buf); err != nil {
		return "", fmt.Errorf("noteservice: render %s: %w", path, err)
	}
	return buf.String(), nil
}

func (s *Service) relPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("noteservice: empty path: %w", apperr.ErrNotFound)
	}
	if !filepath.IsAbs(path) {
		return path, nil
	}
	rel, err := filepath.Rel(s.store.Root(), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("noteservice: %s is outside the workspace: %w", path, apperr.ErrNotFound)
	}
	return rel, nil
}
