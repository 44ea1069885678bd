package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/notecal/internal/models"
)

// Replace swaps the mirrored contents for snap inside one transaction.
func (db *DB) Replace(snap *Snapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("index: clear entries: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO entries (path, date, title, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare entry insert: %w", err)
	}
	defer stmt.Close()

	pos := 0
	for _, date := range snap.Index.Dates() {
		for _, e := range snap.Index.Entries(date) {
			if _, err := stmt.Exec(e.FilePath, e.Date, e.Title, pos); err != nil {
				return fmt.Errorf("index: insert entry: %w", err)
			}
			pos++
		}
	}

	_, err = tx.Exec(`
		INSERT INTO snapshot (id, generation, files, scanned_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			generation = excluded.generation,
			files      = excluded.files,
			scanned_at = excluded.scanned_at
	`, snap.Generation, snap.Stats.Files, snap.ScannedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert snapshot: %w", err)
	}

	return tx.Commit()
}

// Load rebuilds the mirrored index. An empty mirror yields an empty index
// and a zero time.
func (db *DB) Load() (*models.DateIndex, time.Time, error) {
	rows, err := db.conn.Query(`SELECT path, date, title FROM entries ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("index: load entries: %w", err)
	}
	defer rows.Close()

	idx := models.NewDateIndex()
	for rows.Next() {
		var e models.NoteEntry
		if err := rows.Scan(&e.FilePath, &e.Date, &e.Title); err != nil {
			return nil, time.Time{}, fmt.Errorf("index: scan entry: %w", err)
		}
		idx.Add(e)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("index: load entries: %w", err)
	}

	var scannedAt time.Time
	err = db.conn.QueryRow(`SELECT scanned_at FROM snapshot WHERE id = 1`).Scan(&scannedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, fmt.Errorf("index: load snapshot: %w", err)
	}
	return idx, scannedAt, nil
}
