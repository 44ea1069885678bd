// Package models defines the domain types for notecal.
package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// NoteEntry is one file's record in the date index.
type NoteEntry struct {
	FilePath string `json:"file_path"`
	Title    string `json:"title"`
	Date     string `json:"date"` // YYYY-MM-DD
}

// FileMetadata is a lightweight representation returned by storage listings.
type FileMetadata struct {
	Path      string    `json:"path"` // relative to the workspace root, OS separators
	AbsPath   string    `json:"abs_path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateCount is the number of notes filed under one date.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DateIndex maps normalized dates to the entries filed under them, in
// insertion order. An index must not be modified once it has been shared.
type DateIndex struct {
	buckets map[string][]NoteEntry
	total   int
}

// NewDateIndex returns an empty index.
func NewDateIndex() *DateIndex {
	return &DateIndex{buckets: make(map[string][]NoteEntry)}
}

// Add appends e to the bucket for e.Date, creating the bucket if needed.
func (d *DateIndex) Add(e NoteEntry) {
	if e.Date == "" {
		return
	}
	d.buckets[e.Date] = append(d.buckets[e.Date], e)
	d.total++
}

// Len returns the number of distinct dates.
func (d *DateIndex) Len() int {
	if d == nil {
		return 0
	}
	return len(d.buckets)
}

// Total returns the number of entries across all dates.
func (d *DateIndex) Total() int {
	if d == nil {
		return 0
	}
	return d.total
}

// Has reports whether any note is filed under date.
func (d *DateIndex) Has(date string) bool {
	return d.Count(date) > 0
}

// Count returns the number of notes filed under date.
func (d *DateIndex) Count(date string) int {
	if d == nil {
		return 0
	}
	return len(d.buckets[date])
}

// Dates returns every date key in ascending order.
func (d *DateIndex) Dates() []string {
	if d == nil {
		return []string{}
	}
	out := make([]string, 0, len(d.buckets))
	for k := range d.buckets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DateCounts returns per-date counts for keys starting with prefix
// (e.g. "2023-05" for one month, "" for everything), ascending.
func (d *DateIndex) DateCounts(prefix string) []DateCount {
	out := []DateCount{}
	for _, k := range d.Dates() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		out = append(out, DateCount{Date: k, Count: len(d.buckets[k])})
	}
	return out
}

// DatesInMonth returns per-date counts for the given calendar month.
func (d *DateIndex) DatesInMonth(year int, month time.Month) []DateCount {
	return d.DateCounts(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"))
}

// Entries returns a copy of the bucket for date in insertion order.
func (d *DateIndex) Entries(date string) []NoteEntry {
	if d == nil {
		return []NoteEntry{}
	}
	src := d.buckets[date]
	out := make([]NoteEntry, len(src))
	copy(out, src)
	return out
}

// EntriesByTitle returns a copy of the bucket for date sorted by title,
// case-insensitively, with the file path as tie breaker.
func (d *DateIndex) EntriesByTitle(date string) []NoteEntry {
	out := d.Entries(date)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Title), strings.ToLower(out[j].Title)
		if a != b {
			return a < b
		}
		return out[i].FilePath < out[j].FilePath
	})
	return out
}

// MarshalJSON encodes the index as an object of date → entries.
func (d *DateIndex) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.buckets)
}
