package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"notable/internal/store"
	"notable/internal/types"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	notes, err := store.Open(filepath.Join(t.TempDir(), "notes.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = notes.Close() })

	api := &API{Version: "test", Service: NewNoteService(notes)}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestNotesEndpointsCRUD(t *testing.T) {
	server := newTestServer(t)

	createResp := doJSON(t, http.MethodPost, server.URL+"/notes", types.NoteDraft{
		Title:   "Grocery list",
		Content: "milk\neggs",
	})
	if createResp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", createResp.StatusCode)
	}
	var created types.Note
	decodeJSON(t, createResp, &created)
	if created.ID == "" || created.Title != "Grocery list" {
		t.Fatalf("unexpected created note: %+v", created)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected created_at set")
	}

	listResp := doJSON(t, http.MethodGet, server.URL+"/notes", nil)
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", listResp.StatusCode)
	}
	var notes []*types.Note
	decodeJSON(t, listResp, &notes)
	if len(notes) != 1 || notes[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", notes)
	}

	getResp := doJSON(t, http.MethodGet, server.URL+"/notes/"+created.ID, nil)
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", getResp.StatusCode)
	}
	var fetched types.Note
	decodeJSON(t, getResp, &fetched)
	if fetched.Content != "milk\neggs" {
		t.Fatalf("unexpected note content: %q", fetched.Content)
	}

	updateResp := doJSON(t, http.MethodPut, server.URL+"/notes/"+created.ID, types.NoteDraft{
		Title:   "Groceries",
		Content: "milk",
	})
	if updateResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", updateResp.StatusCode)
	}
	var updated types.Note
	decodeJSON(t, updateResp, &updated)
	if updated.Title != "Groceries" {
		t.Fatalf("unexpected updated note: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at changed on update: %+v", updated)
	}

	deleteResp := doJSON(t, http.MethodDelete, server.URL+"/notes/"+created.ID, nil)
	if deleteResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", deleteResp.StatusCode)
	}
	var ack map[string]any
	decodeJSON(t, deleteResp, &ack)
	if ack["ok"] != true {
		t.Fatalf("unexpected delete ack: %+v", ack)
	}

	emptyResp := doJSON(t, http.MethodGet, server.URL+"/notes", nil)
	var remaining []*types.Note
	decodeJSON(t, emptyResp, &remaining)
	if len(remaining) != 0 {
		t.Fatalf("expected empty list after delete, got %+v", remaining)
	}
}

func TestCreateNoteRejectsInvalidDraft(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/notes", types.NoteDraft{Title: "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var payload map[string]string
	decodeJSON(t, resp, &payload)
	if payload["error"] != "title is required" {
		t.Fatalf("unexpected error: %+v", payload)
	}
}

func TestCreateNoteSanitizesServerSide(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/notes", types.NoteDraft{
		Title:   "  line one\nline two  ",
		Content: "keep\nnewlines\r",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created types.Note
	decodeJSON(t, resp, &created)
	if created.Title != "line one line two" {
		t.Fatalf("unexpected title: %q", created.Title)
	}
	if created.Content != "keep\nnewlines" {
		t.Fatalf("unexpected content: %q", created.Content)
	}
}

func TestNoteByIDNotFound(t *testing.T) {
	server := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		resp := doJSON(t, method, server.URL+"/notes/note_missing", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", method, resp.StatusCode)
		}
		var payload map[string]string
		decodeJSON(t, resp, &payload)
		if payload["error"] != "note not found" {
			t.Fatalf("%s: unexpected error: %+v", method, payload)
		}
	}

	resp := doJSON(t, http.MethodPut, server.URL+"/notes/note_missing", types.NoteDraft{Title: "x"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("PUT: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestNotesRejectsUnknownMethods(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodPatch, server.URL+"/notes", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/notes/some_id", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateNoteRejectsMalformedJSON(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/notes", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var payload map[string]string
	decodeJSON(t, resp, &payload)
	if payload["error"] != "invalid json body" {
		t.Fatalf("unexpected error: %+v", payload)
	}
}

func TestHealthReportsVersion(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload map[string]string
	decodeJSON(t, resp, &payload)
	if payload["status"] != "ok" || payload["version"] != "test" {
		t.Fatalf("unexpected health payload: %+v", payload)
	}
}
