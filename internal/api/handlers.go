package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notecal/internal/noteservice"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListDates handles GET /api/dates.
//
//	@Summary		List dates that have notes, with counts
//	@Tags			dates
//	@Produce		json
//	@Param			month	query		string	false	"Restrict to one month (YYYY-MM)"
//	@Success		200		{object}	DatesResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/dates [get]
func (h *Handler) ListDates(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Dates(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, "list dates", err)
		return
	}
	writeJSON(w, http.StatusOK, DatesResponse{Generation: list.Generation, Dates: list.Dates})
}

// NotesForDate handles GET /api/dates/{date}/notes.
//
//	@Summary		List the notes filed under a date, sorted by title
//	@Tags			dates
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	NotesForDateResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/dates/{date}/notes [get]
func (h *Handler) NotesForDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	notes, err := h.svc.NotesForDate(date)
	if err != nil {
		writeError(w, "notes for date", err)
		return
	}
	writeJSON(w, http.StatusOK, NotesForDateResponse{Date: date, Notes: notes})
}

// GetSelection handles GET /api/selection.
//
//	@Summary		Get the selected filter date and highlighted date
//	@Tags			selection
//	@Produce		json
//	@Success		200	{object}	Selection
//	@Security		BearerAuth
//	@Router			/selection [get]
func (h *Handler) GetSelection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Selection())
}

// SelectDate handles PUT /api/selection.
//
//	@Summary		Select a filter date
//	@Tags			selection
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SelectDateRequest	true	"Date to select"
//	@Success		200		{object}	Selection
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/selection [put]
func (h *Handler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req SelectDateRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if req.Date == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("date is required"))
		return
	}
	sel, err := h.svc.SelectDate(req.Date)
	if err != nil {
		writeError(w, "select date", err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// ClearSelection handles DELETE /api/selection.
//
//	@Summary		Clear the filter date
//	@Tags			selection
//	@Produce		json
//	@Success		200	{object}	Selection
//	@Security		BearerAuth
//	@Router			/selection [delete]
func (h *Handler) ClearSelection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ClearSelection())
}

// Highlight handles POST /api/highlight.
//
//	@Summary		Resolve the active document's date and highlight it
//	@Tags			selection
//	@Accept			json
//	@Produce		json
//	@Param			body	body		HighlightRequest	true	"Document text"
//	@Success		200		{object}	HighlightResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/highlight [post]
func (h *Handler) Highlight(w http.ResponseWriter, r *http.Request) {
	var req HighlightRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	var resp HighlightResponse
	if date, ok := h.svc.Highlight(req.Content); ok {
		resp.Date = &date
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note for a date
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	false	"Target date"
//	@Success		201		{object}	CreatedNote
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	note, err := h.svc.CreateNoteForDate(r.Context(), req.Date)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// Preview handles GET /api/preview.
//
//	@Summary		Render a note body to HTML
//	@Tags			notes
//	@Produce		html
//	@Param			path	query		string	true	"Absolute or workspace-relative note path"
//	@Success		200		{string}	string	"HTML fragment"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview [get]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	html, err := h.svc.Preview(path)
	if err != nil {
		writeError(w, "preview", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, html)
}

// Rescan handles POST /api/rescan.
//
//	@Summary		Rebuild the index now
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	Status
//	@Security		BearerAuth
//	@Router			/rescan [post]
func (h *Handler) Rescan(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Rescan(r.Context())
	if err != nil {
		writeError(w, "rescan", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Status handles GET /api/status.
//
//	@Summary		Describe the current index snapshot
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	Status
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// decodeBody decodes a JSON request body into v. When optional is true an
// empty body is accepted. It writes a 400 and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
	return false
}
