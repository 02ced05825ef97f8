package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"timegrid/internal/gateway"
	"timegrid/internal/storage"
	"timegrid/internal/timesheet"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	kv, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("open memory kv: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	m := timesheet.New(kv)
	t.Cleanup(m.Close)
	m.Load()

	gw, err := gateway.New(t.TempDir(), gateway.NewHandlerUpstream(StaticHandler()))
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return NewServer(m, gw)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestSnapshotSeeded(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/snapshot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var snap timesheet.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Projects) != 4 {
		t.Fatalf("expected 4 seeded projects, got %d", len(snap.Projects))
	}
}

func TestAddAndDeleteEntry(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/entries",
		`{"date":"2026-08-03","projectId":1,"hours":7.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var e timesheet.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	if e.ID == "" || e.Hours != 7.5 {
		t.Fatalf("unexpected entry: %+v", e)
	}

	rec = doJSON(t, s.Handler(), http.MethodDelete, "/api/entries/"+e.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", rec.Code)
	}

	rec = doJSON(t, s.Handler(), http.MethodDelete, "/api/entries/"+e.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete should 404, got %d", rec.Code)
	}
}

func TestAddEntryValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []string{
		`{"date":"not-a-date","projectId":1,"hours":1}`,
		`{"date":"2026-08-03","projectId":1,"hours":0}`,
		`{"date":"2026-08-03","projectId":1,"hours":-2}`,
		`not json`,
	}
	for _, body := range cases {
		rec := doJSON(t, s.Handler(), http.MethodPost, "/api/entries", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q should 400, got %d", body, rec.Code)
		}
	}
}

func TestAddProject(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/projects",
		`{"name":"Client X","color":"#9B59B6"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/projects", "")
	var projects []timesheet.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &projects); err != nil {
		t.Fatal(err)
	}
	if len(projects) != 5 {
		t.Fatalf("expected 5 projects, got %d", len(projects))
	}
}

func TestAddProjectRequiresName(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/projects", `{"color":"#fff"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUnknownAPIPathIs404NotHTML(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<html") {
		t.Fatal("API 404 should not serve the UI document")
	}
}

func TestStaticServedThroughGateway(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/style.css", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := rec.Header().Get("X-Timegrid-Source"); got != "network" {
		t.Fatalf("first hit should come from the upstream, got %q", got)
	}

	// The .css asset is now cached; the second hit must be a cache hit.
	rec = doJSON(t, s.Handler(), http.MethodGet, "/style.css", "")
	if got := rec.Header().Get("X-Timegrid-Source"); got != "cache" {
		t.Fatalf("second hit should come from cache, got %q", got)
	}
}

func TestEmbeddedStaticHasManifestAssets(t *testing.T) {
	h := StaticHandler()
	for _, path := range []string{"/", "/offline.html", "/manifest.json", "/favicon.ico", "/app.js", "/style.css"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("embedded asset %s returned %d", path, rec.Code)
		}
	}
}
