package api

import (
	"github.com/starford/notecal/internal/models"
	"github.com/starford/notecal/internal/noteservice"
)

// DatesResponse lists per-date note counts.
type DatesResponse struct {
	Generation uint64             `json:"generation" example:"3" validate:"required"`
	Dates      []models.DateCount `json:"dates" validate:"required"`
}

// NotesForDateResponse lists the notes filed under one date.
type NotesForDateResponse struct {
	Date  string             `json:"date" example:"2024-05-15" validate:"required"`
	Notes []models.NoteEntry `json:"notes" validate:"required"`
}

// SelectDateRequest is the request body for PUT /selection.
type SelectDateRequest struct {
	Date string `json:"date" example:"2024-05-15" validate:"required"`
}

// HighlightRequest carries the active document's text.
type HighlightRequest struct {
	Content string `json:"content" example:"---\ndate: 2024-05-15\n---\n"`
}

// HighlightResponse is the date resolved from a document, or null.
type HighlightResponse struct {
	Date *string `json:"date" example:"2024-05-15"`
}

// CreateNoteRequest is the request body for creating a dated note.
// An omitted date falls back to the selection, the highlight, then today.
type CreateNoteRequest struct {
	Date string `json:"date,omitempty" example:"2024-05-15"`
}

// Selection is the current filter and highlight (aliased from the domain layer).
type Selection = noteservice.Selection

// CreatedNote describes a newly created note (aliased from the domain layer).
type CreatedNote = noteservice.CreatedNote

// Status describes the current snapshot (aliased from the domain layer).
type Status = noteservice.Status
