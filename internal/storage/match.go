package storage

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// DefaultExtensions are the file extensions treated as notes.
	DefaultExtensions = []string{".md", ".markdown"}
	// DefaultExclude skips the conventional dependency directory.
	DefaultExclude = []string{"**/node_modules/**"}
)

// Matcher decides which workspace paths are notes. Paths are relative to the
// workspace root and slash separated.
type Matcher struct {
	include string
	exclude []string
	// dirs are exclusion patterns with their trailing /** removed, used to
	// prune whole directories during a walk.
	dirs []string
}

// IncludePattern builds the glob matching every file with one of exts,
// e.g. **/*{.md,.markdown}.
func IncludePattern(exts []string) string {
	return "**/*{" + strings.Join(exts, ",") + "}"
}

// NewMatcher compiles the include pattern for exts and validates exclude.
func NewMatcher(exts, exclude []string) (*Matcher, error) {
	if len(exts) == 0 {
		return nil, fmt.Errorf("storage: at least one extension is required")
	}
	m := &Matcher{include: IncludePattern(exts)}
	if !doublestar.ValidatePattern(m.include) {
		return nil, fmt.Errorf("storage: invalid extension pattern %q", m.include)
	}
	for _, pat := range exclude {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("storage: invalid exclude pattern %q", pat)
		}
		m.exclude = append(m.exclude, pat)
		if dir, ok := strings.CutSuffix(pat, "/**"); ok && dir != "" {
			m.dirs = append(m.dirs, dir)
		}
	}
	return m, nil
}

// MustMatcher is NewMatcher for patterns known to be valid.
func MustMatcher(exts, exclude []string) *Matcher {
	m, err := NewMatcher(exts, exclude)
	if err != nil {
		panic(err)
	}
	return m
}

// Match reports whether the file at rel is a note.
func (m *Matcher) Match(rel string) bool {
	if ok, _ := doublestar.Match(m.include, rel); !ok {
		return false
	}
	return !m.excluded(rel)
}

// SkipDir reports whether the directory at rel lies in an excluded subtree.
func (m *Matcher) SkipDir(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	for _, pat := range m.dirs {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

func (m *Matcher) excluded(rel string) bool {
	for _, pat := range m.exclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
