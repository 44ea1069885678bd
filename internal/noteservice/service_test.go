package noteservice

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notecal/internal/apperr"
	"github.com/starford/notecal/internal/index"
	"github.com/starford/notecal/internal/storage"
)

type env struct {
	root string
	svc  *Service
	cell *index.Cell
}

func newEnv(t *testing.T, files map[string]string, opts ...Option) *env {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	fs, err := storage.NewFS(dir)
	require.NoError(t, err)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cell := index.NewCell()
	r := index.NewRescanner(index.NewIndexer(fs, index.WithLogger(logger)), cell, index.WithRescanLogger(logger))
	_, err = r.Rescan(context.Background())
	require.NoError(t, err)

	opts = append([]Option{WithLogger(logger)}, opts...)
	return &env{root: fs.Root(), svc: New(fs, cell, r, opts...), cell: cell}
}

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 23, 30, 0, 0, time.UTC) }
}

func TestDates(t *testing.T) {
	e := newEnv(t, map[string]string{
		"a.md": "---\ndate: 2024-05-01\n---\n",
		"b.md": "---\ndate: 2024-05-01\n---\n",
		"c.md": "---\ndate: 2024-06-02\n---\n",
	})

	list, err := e.svc.Dates("2024-05")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), list.Generation)
	require.Len(t, list.Dates, 1)
	assert.Equal(t, 2, list.Dates[0].Count)

	all, err := e.svc.Dates("")
	require.NoError(t, err)
	assert.Len(t, all.Dates, 2)

	_, err = e.svc.Dates("May 2024")
	assert.ErrorIs(t, err, apperr.ErrInvalidDate)
}

func TestNotesForDate_SortedByTitle(t *testing.T) {
	e := newEnv(t, map[string]string{
		"1.md": "---\ndate: 2024-05-01\ntitle: zebra\n---\n",
		"2.md": "---\ndate: 2024-05-01\ntitle: Apple\n---\n",
	})

	notes, err := e.svc.NotesForDate("2024-05-01")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Apple", notes[0].Title)
	assert.Equal(t, "zebra", notes[1].Title)

	empty, err := e.svc.NotesForDate("2024-05-02")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = e.svc.NotesForDate("2024-5-1")
	assert.ErrorIs(t, err, apperr.ErrInvalidDate)
}

func TestSelection(t *testing.T) {
	var events []string
	e := newEnv(t, nil, WithSelectionHook(func(kind, date string) {
		events = append(events, kind+"="+date)
	}))

	sel, err := e.svc.SelectDate("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", sel.Date)

	_, err = e.svc.SelectDate("yesterday")
	assert.ErrorIs(t, err, apperr.ErrInvalidDate)

	date, ok := e.svc.Highlight("---\ndate: 2023-01-02\n---\n")
	assert.True(t, ok)
	assert.Equal(t, "2023-01-02", date)
	assert.Equal(t, Selection{Date: "2024-05-01", Highlight: "2023-01-02"}, e.svc.Selection())

	// Same highlight again does not notify.
	e.svc.Highlight("---\ndate: 2023-01-02\n---\nedited body")

	_, ok = e.svc.Highlight("# undated")
	assert.False(t, ok)

	assert.Equal(t, Selection{Highlight: ""}, e.svc.ClearSelection())
	assert.Equal(t, []string{
		"selection=2024-05-01",
		"highlight=2023-01-02",
		"highlight=",
		"selection=",
	}, events)
}

func TestTargetDatePriority(t *testing.T) {
	e := newEnv(t, nil, WithClock(fixedClock(2025, 3, 9)))

	got, err := e.svc.TargetDate("")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09", got, "today in UTC")

	e.svc.Highlight("---\ndate: 2024-02-02\n---\n")
	got, _ = e.svc.TargetDate("")
	assert.Equal(t, "2024-02-02", got, "highlight beats today")

	_, _ = e.svc.SelectDate("2024-01-01")
	got, _ = e.svc.TargetDate("")
	assert.Equal(t, "2024-01-01", got, "filter beats highlight")

	got, _ = e.svc.TargetDate("2020-12-31")
	assert.Equal(t, "2020-12-31", got, "explicit beats everything")

	_, err = e.svc.TargetDate("31/12/2020")
	assert.ErrorIs(t, err, apperr.ErrInvalidDate)
}

func TestCreateNoteForDate(t *testing.T) {
	e := newEnv(t, nil, WithNotesDirectory("journal"))

	note, err := e.svc.CreateNoteForDate(context.Background(), "2024-05-15")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("journal", "2024-05-15-untitled.md"), note.RelPath)
	assert.Equal(t, filepath.Join(e.root, "journal", "2024-05-15-untitled.md"), note.Path)

	data, err := os.ReadFile(note.Path)
	require.NoError(t, err)
	assert.Equal(t, "---\ndate: 2024-05-15\ntitle: Untitled\n---\n\n# New Note for 2024-05-15\n\n", string(data))

	// The rescan after creation makes the note visible.
	notes, err := e.svc.NotesForDate("2024-05-15")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Untitled", notes[0].Title)
}

func TestCreateNoteForDate_Collisions(t *testing.T) {
	e := newEnv(t, map[string]string{"2024-05-15-untitled.md": "taken"})

	first, err := e.svc.CreateNoteForDate(context.Background(), "2024-05-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-15-untitled-1.md", first.RelPath)

	second, err := e.svc.CreateNoteForDate(context.Background(), "2024-05-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-15-untitled-2.md", second.RelPath)
}

func TestCreateNoteForDate_CustomPattern(t *testing.T) {
	e := newEnv(t, nil, WithFilenamePattern("DD.MM.YYYY notes.markdown"), WithClock(fixedClock(2024, 12, 1)))

	note, err := e.svc.CreateNoteForDate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "01.12.2024 notes.markdown", note.RelPath)
	assert.Equal(t, "2024-12-01", note.Date)
}

func TestFileName_FirstOccurrenceOnly(t *testing.T) {
	assert.Equal(t, "2024-05-07-MM.md", FileName("YYYY-MM-DD-MM.md", "2024-05-07"))
}

func TestPreview(t *testing.T) {
	e := newEnv(t, map[string]string{
		"n.md": "---\ndate: 2024-05-01\ntitle: T\n---\n# Heading\n\n- [x] done\n",
	})

	html, err := e.svc.Preview(filepath.Join(e.root, "n.md"))
	require.NoError(t, err)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "Heading")
	assert.Contains(t, html, `type="checkbox"`)
	assert.NotContains(t, html, "date: 2024-05-01")

	rel, err := e.svc.Preview("n.md")
	require.NoError(t, err)
	assert.Equal(t, html, rel)
}

func TestPreview_Errors(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.svc.Preview("missing.md")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	outside := filepath.Join(filepath.Dir(e.root), "elsewhere.md")
	_, err = e.svc.Preview(outside)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReadNote_OnlyNotes(t *testing.T) {
	e := newEnv(t, map[string]string{
		"a.md":                 "---\ndate: 2024-05-01\n---\n# A\n",
		"config/config.yaml":   "auth:\n  mode: token\n  token: s3cret\n",
		".env":                 "NOTECAL_TOKEN=s3cret\n",
		"node_modules/pkg.md":  "# dep\n",
		"notes/draft.markdown": "# Draft\n",
	})

	for _, p := range []string{"config/config.yaml", ".env", "node_modules/pkg.md", filepath.Join(e.root, "config", "config.yaml")} {
		_, err := e.svc.ReadNote(p)
		assert.ErrorIs(t, err, apperr.ErrNotFound, p)
		_, err = e.svc.Preview(p)
		assert.ErrorIs(t, err, apperr.ErrNotFound, p)
	}

	text, err := e.svc.ReadNote("notes/draft.markdown")
	require.NoError(t, err)
	assert.Equal(t, "# Draft\n", text)
}

func TestHighlight_RejectsOutOfRangeYear(t *testing.T) {
	e := newEnv(t, nil)
	_, ok := e.svc.Highlight("---\ndate: 8640000000000000\n---\n")
	assert.False(t, ok)
	assert.Empty(t, e.svc.Selection().Highlight)

	target, err := e.svc.TargetDate("")
	require.NoError(t, err)
	assert.Len(t, target, len("2006-01-02"))
}

func TestStatusAndRescan(t *testing.T) {
	e := newEnv(t, map[string]string{"a.md": "---\ndate: 2024-05-01\n---\n"})
	st := e.svc.Status()
	assert.Equal(t, uint64(1), st.Generation)
	assert.Equal(t, 1, st.Entries)

	require.NoError(t, os.WriteFile(filepath.Join(e.root, "b.md"), []byte("---\ndate: 2024-05-02\n---\n"), 0o644))
	st, err := e.svc.Rescan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), st.Generation)
	assert.Equal(t, 2, st.Dates)
	assert.False(t, strings.Contains(st.ScannedAt.String(), "0001-01-01"))
}
