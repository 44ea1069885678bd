// Package testutil provides shared test helpers for setting up workspaces and indexes.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/notecal/internal/index"
	"github.com/starford/notecal/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestWorkspace creates a temporary workspace holding files (slash-separated
// relative path → content) and returns its root with a storage.FS over it.
func TestWorkspace(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// WriteFiles writes files under root, creating directories as needed.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// TestIndex scans store once and returns the cell and rescanner holding the result.
func TestIndex(t *testing.T, store storage.Provider, opts ...index.RescannerOption) (*index.Cell, *index.Rescanner) {
	t.Helper()
	cell := index.NewCell()
	opts = append([]index.RescannerOption{index.WithRescanLogger(Logger())}, opts...)
	r := index.NewRescanner(index.NewIndexer(store, index.WithLogger(Logger())), cell, opts...)
	if _, err := r.Rescan(context.Background()); err != nil {
		t.Fatal(err)
	}
	return cell, r
}
