package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notecal/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "notecal-test-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSnapshot(gen uint64) *Snapshot {
	idx := models.NewDateIndex()
	idx.Add(models.NoteEntry{FilePath: "/ws/b.md", Title: "Beta", Date: "2024-05-01"})
	idx.Add(models.NoteEntry{FilePath: "/ws/a.md", Title: "Alpha", Date: "2024-05-01"})
	idx.Add(models.NoteEntry{FilePath: "/ws/c.md", Title: "Gamma", Date: "2024-06-10"})
	return &Snapshot{
		Generation: gen,
		Index:      idx,
		ScannedAt:  time.Date(2024, 6, 11, 8, 0, 0, 0, time.UTC),
		Stats:      ScanStats{Files: 3, Indexed: 3},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM entries`).Scan(&count), "entries table")
	require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM snapshot`).Scan(&count), "snapshot table")
}

func TestLoad_EmptyMirror(t *testing.T) {
	db := testDB(t)
	idx, at, err := db.Load()
	require.NoError(t, err)
	assert.Zero(t, idx.Total())
	assert.True(t, at.IsZero())
}

func TestReplaceAndLoad(t *testing.T) {
	db := testDB(t)
	snap := sampleSnapshot(4)
	require.NoError(t, db.Replace(snap))

	idx, at, err := db.Load()
	require.NoError(t, err)
	assert.True(t, at.Equal(snap.ScannedAt), "scanned_at = %v", at)

	got := idx.Entries("2024-05-01")
	require.Len(t, got, 2)
	assert.Equal(t, "Beta", got[0].Title, "bucket order preserved")
	assert.Equal(t, "Alpha", got[1].Title)
	assert.Equal(t, 1, idx.Count("2024-06-10"))
}

func TestReplaceDropsPreviousContents(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Replace(sampleSnapshot(1)))

	idx := models.NewDateIndex()
	idx.Add(models.NoteEntry{FilePath: "/ws/z.md", Title: "Zed", Date: "2025-01-01"})
	require.NoError(t, db.Replace(&Snapshot{Generation: 2, Index: idx, ScannedAt: time.Now()}))

	loaded, _, err := db.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01"}, loaded.Dates())
	assert.Equal(t, 1, loaded.Total())
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing-dir", "x.db"))
	assert.Error(t, err)
}
