package parser

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// maxEpochMillis is the largest magnitude a millisecond timestamp may have.
const maxEpochMillis = 8.64e15

// KeyLayout is the layout of a normalized date key.
const KeyLayout = "2006-01-02"

// layouts are tried in order for string values. Layouts without a zone
// parse as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-1-2",
	"2006-01",
	"2006",
	"2006/1/2",
	"1/2/2006",
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// ParseDate normalizes a frontmatter value into a YYYY-MM-DD key using UTC
// calendar fields. It reports false for anything that is not a valid date,
// including dates whose year does not fit in four digits.
func ParseDate(v Value) (string, bool) {
	if !v.Truthy() {
		return "", false
	}
	var (
		t  time.Time
		ok bool
	)
	switch v.Kind {
	case KindTime:
		t, ok = v.Time, true
	case KindNumber:
		t, ok = fromEpochMillis(v.Num)
	case KindString:
		t, ok = parseString(v.Str)
	}
	if !ok {
		return "", false
	}
	if y := t.UTC().Year(); y < 0 || y > 9999 {
		return "", false
	}
	return FormatDate(t), true
}

// FormatDate renders t as YYYY-MM-DD using its UTC fields.
func FormatDate(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%04d-%02d-%02d", u.Year(), int(u.Month()), u.Day())
}

// ParseDateKey strictly parses a YYYY-MM-DD key.
func ParseDateKey(s string) (time.Time, error) {
	if len(s) != len(KeyLayout) {
		return time.Time{}, fmt.Errorf("parser: date %q is not YYYY-MM-DD", s)
	}
	t, err := time.Parse(KeyLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parser: date %q: %w", s, err)
	}
	return t, nil
}

func fromEpochMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(math.Trunc(ms))).UTC(), true
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
