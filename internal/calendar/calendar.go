// Package calendar renders a month of the date index as a terminal grid.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/notecal/internal/models"
	"github.com/starford/notecal/internal/parser"
)

const cellWidth = 4

var weekdays = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// Marks are the dates styled specially in the grid. Any may be empty.
type Marks struct {
	Selected  string
	Highlight string
	Today     string
}

// Styles controls how each kind of cell is drawn.
type Styles struct {
	Title     lipgloss.Style
	Header    lipgloss.Style
	Day       lipgloss.Style
	NoteDay   lipgloss.Style
	Selected  lipgloss.Style
	Highlight lipgloss.Style
	Today     lipgloss.Style
	Footer    lipgloss.Style
}

// DefaultStyles returns the built-in palette.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")),
		Header:    lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")),
		Day:       lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5")),
		NoteDay:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9ece6a")),
		Selected:  lipgloss.NewStyle().Bold(true).Reverse(true),
		Highlight: lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("#e0af68")),
		Today:     lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff")),
		Footer:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#565f89")),
	}
}

// RenderMonth draws month with the default styles.
func RenderMonth(year int, month time.Month, idx *models.DateIndex, marks Marks) string {
	return DefaultStyles().RenderMonth(year, month, idx, marks)
}

// RenderMonth draws a Monday-first grid of month. Each cell is four columns
// wide: a leading "[" marks the selected date and ">" the highlighted one,
// and a trailing "•" marks a date with notes, so the grid stays readable
// without colour.
func (st Styles) RenderMonth(year int, month time.Month, idx *models.DateIndex, marks Marks) string {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysIn := first.AddDate(0, 1, -1).Day()
	width := cellWidth * len(weekdays)

	var b strings.Builder
	title := first.Format("January 2006")
	b.WriteString(st.Title.Render(center(title, width)))
	b.WriteByte('\n')

	for _, wd := range weekdays {
		b.WriteString(st.Header.Render(" " + wd + " "))
	}
	b.WriteByte('\n')

	offset := (int(first.Weekday()) + 6) % 7
	b.WriteString(strings.Repeat(" ", offset*cellWidth))
	col := offset
	for day := 1; day <= daysIn; day++ {
		date := parser.FormatDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
		b.WriteString(st.cell(day, date, idx, marks))
		col++
		if col == len(weekdays) && day != daysIn {
			b.WriteByte('\n')
			col = 0
		}
	}
	b.WriteByte('\n')

	counts := idx.DatesInMonth(year, month)
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	b.WriteString(st.Footer.Render(fmt.Sprintf("%d %s on %d %s",
		total, plural(total, "note", "notes"), len(counts), plural(len(counts), "day", "days"))))
	return b.String()
}

func (st Styles) cell(day int, date string, idx *models.DateIndex, marks Marks) string {
	lead, trail := " ", " "
	style := st.Day
	if idx.Has(date) {
		trail = "•"
		style = st.NoteDay
	}
	switch date {
	case marks.Selected:
		lead = "["
		style = st.Selected
	case marks.Highlight:
		lead = ">"
		style = st.Highlight
	case marks.Today:
		style = st.Today
	}
	return style.Render(fmt.Sprintf("%s%2d%s", lead, day, trail))
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
