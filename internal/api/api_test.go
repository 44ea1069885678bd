package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/notecal/internal/noteservice"
	"github.com/starford/notecal/internal/testutil"
)

var fixtures = map[string]string{
	"a.md":       "---\ndate: 2024-05-01\ntitle: zeta\n---\n# A\n",
	"b.md":       "---\ndate: 2024-05-01\ntitle: Alpha\n---\n# B\n",
	"c.md":       "---\ntimestamp: 2024-06-10T09:00:00Z\n---\nbody\n",
	"undated.md": "# no frontmatter\n",
}

// testEnv sets up a temp workspace, index, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler, string) {
	t.Helper()
	root, store := testutil.TestWorkspace(t, fixtures)
	cell, r := testutil.TestIndex(t, store)
	svc := noteservice.New(store, cell, r, noteservice.WithLogger(testutil.Logger()))
	router := NewRouter(svc, authToken != "", authToken, nil)
	return svc, router, root
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestListDates(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/dates", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp DatesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Dates) != 2 {
		t.Fatalf("dates = %+v, want 2", resp.Dates)
	}
	if resp.Dates[0].Date != "2024-05-01" || resp.Dates[0].Count != 2 {
		t.Errorf("first date = %+v", resp.Dates[0])
	}
	if resp.Generation != 1 {
		t.Errorf("generation = %d, want 1", resp.Generation)
	}

	w = do(t, router, http.MethodGet, "/dates?month=2024-06", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Dates) != 1 || resp.Dates[0].Date != "2024-06-10" {
		t.Errorf("june dates = %+v", resp.Dates)
	}
}

func TestListDates_BadMonth(t *testing.T) {
	_, router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/dates?month=june", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestNotesForDate(t *testing.T) {
	_, router, root := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/dates/2024-05-01/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp NotesForDateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Notes) != 2 {
		t.Fatalf("notes = %+v", resp.Notes)
	}
	if resp.Notes[0].Title != "Alpha" || resp.Notes[1].Title != "zeta" {
		t.Errorf("notes not sorted by title: %+v", resp.Notes)
	}
	if resp.Notes[0].FilePath != filepath.Join(root, "b.md") {
		t.Errorf("file path = %q", resp.Notes[0].FilePath)
	}

	w = do(t, router, http.MethodGet, "/dates/2024-06-10/notes", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Notes) != 1 || resp.Notes[0].Title != "c.md" {
		t.Errorf("title fallback missing: %+v", resp.Notes)
	}
}

func TestNotesForDate_InvalidDate(t *testing.T) {
	_, router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/dates/2024-5-1/notes", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSelectionLifecycle(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodPut, "/selection", SelectDateRequest{Date: "2024-05-01"})
	if w.Code != http.StatusOK {
		t.Fatalf("select = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/selection", nil)
	var sel Selection
	_ = json.Unmarshal(w.Body.Bytes(), &sel)
	if sel.Date != "2024-05-01" {
		t.Errorf("selection = %+v", sel)
	}

	w = do(t, router, http.MethodDelete, "/selection", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &sel)
	if w.Code != http.StatusOK || sel.Date != "" {
		t.Errorf("clear = %d %+v", w.Code, sel)
	}
}

func TestSelectDate_Invalid(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodPut, "/selection", SelectDateRequest{Date: "tomorrow"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid date = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPut, "/selection", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing date = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPut, "/selection", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", rec.Code)
	}
}

func TestHighlight(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/highlight", HighlightRequest{Content: "---\ndate: 2023-05-15\n---\n"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"date":"2023-05-15"}` {
		t.Errorf("body = %s", got)
	}

	w = do(t, router, http.MethodPost, "/highlight", HighlightRequest{Content: "plain text"})
	if got := strings.TrimSpace(w.Body.String()); got != `{"date":null}` {
		t.Errorf("undated body = %s", got)
	}
}

func TestCreateNote(t *testing.T) {
	_, router, root := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Date: "2024-07-04"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	var created CreatedNote
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.Path != filepath.Join(root, "2024-07-04-untitled.md") || created.Date != "2024-07-04" {
		t.Errorf("created = %+v", created)
	}
	if _, err := os.Stat(created.Path); err != nil {
		t.Errorf("note not written: %v", err)
	}

	// The new note is indexed by the rescan.
	w = do(t, router, http.MethodGet, "/dates/2024-07-04/notes", nil)
	var resp NotesForDateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Notes) != 1 || resp.Notes[0].Title != "Untitled" {
		t.Errorf("created note not indexed: %+v", resp.Notes)
	}
}

func TestCreateNote_UsesSelection(t *testing.T) {
	_, router, _ := testEnv(t, "")
	do(t, router, http.MethodPut, "/selection", SelectDateRequest{Date: "2022-02-22"})

	// Empty body: the selected date is used.
	w := do(t, router, http.MethodPost, "/notes", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	var created CreatedNote
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.Date != "2022-02-22" {
		t.Errorf("date = %q, want selection", created.Date)
	}
}

func TestCreateNote_InvalidDate(t *testing.T) {
	_, router, _ := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Date: "2024/07/04"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPreview(t *testing.T) {
	_, router, root := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/preview?path="+filepath.Join(root, "a.md"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if body := w.Body.String(); !strings.Contains(body, ">A</h1>") || strings.Contains(body, "title: zeta") {
		t.Errorf("preview body = %q", body)
	}

	w = do(t, router, http.MethodGet, "/preview?path=missing.md", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodGet, "/preview", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("no path = %d, want 400", w.Code)
	}
}

func TestPreview_RejectsNonNotes(t *testing.T) {
	_, router, root := testEnv(t, "")
	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte("auth:\n  token: s3cret\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{"config.yaml", filepath.Join(root, "config.yaml")} {
		w := do(t, router, http.MethodGet, "/preview?path="+p, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", p, w.Code)
		}
		if strings.Contains(w.Body.String(), "s3cret") {
			t.Errorf("%s: body leaks file contents: %s", p, w.Body.String())
		}
	}
}

func TestRescanAndStatus(t *testing.T) {
	_, router, root := testEnv(t, "")

	testutil.WriteFiles(t, root, map[string]string{"d.md": "---\ndate: 2025-01-01\n---\n"})

	w := do(t, router, http.MethodPost, "/rescan", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rescan = %d", w.Code)
	}
	var st Status
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.Generation != 2 || st.Dates != 3 || st.Stats.NoFrontmatter != 1 {
		t.Errorf("status after rescan = %+v", st)
	}

	w = do(t, router, http.MethodGet, "/status", nil)
	var again Status
	_ = json.Unmarshal(w.Body.Bytes(), &again)
	if again.Generation != st.Generation {
		t.Errorf("status generation = %d, want %d", again.Generation, st.Generation)
	}
}

func TestAuth_TokenMode(t *testing.T) {
	_, router, _ := testEnv(t, "s3cret")

	w := do(t, router, http.MethodGet, "/dates", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/dates", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/dates", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", rec.Code)
	}
}

func TestAuth_DisabledMode(t *testing.T) {
	_, router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/status", nil)
	if w.Code != http.StatusOK {
		t.Errorf("disabled mode = %d, want 200", w.Code)
	}
}
