// Package checksum fingerprints note contents so unchanged writes can be ignored.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumFile reads the file at path and returns its digest.
func SumFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Sum(data), nil
}

// Tracker remembers the last digest observed for each path.
type Tracker struct {
	mu   sync.Mutex
	sums map[string]string
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{sums: make(map[string]string)}
}

// Changed records sum for path and reports whether it differs from the
// previously recorded digest. A path seen for the first time is changed.
func (t *Tracker) Changed(path, sum string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.sums[path]
	t.sums[path] = sum
	return !ok || prev != sum
}

// Forget drops the digest recorded for path.
func (t *Tracker) Forget(path string) {
	t.mu.Lock()
	delete(t.sums, path)
	t.mu.Unlock()
}
