// Package web is the serve-mode HTTP surface: a JSON API over the
// persistence manager, with all other paths answered by the cache gateway.
package web

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"timegrid/internal/gateway"
	applog "timegrid/internal/log"
	"timegrid/internal/timesheet"
)

//go:embed static
var embeddedStatic embed.FS

// Server routes API calls to the manager and asset requests to the gateway.
type Server struct {
	manager *timesheet.Manager
	gw      *gateway.Gateway
	mux     *http.ServeMux
}

func NewServer(m *timesheet.Manager, gw *gateway.Gateway) *Server {
	s := &Server{manager: m, gw: gw, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("GET /api/projects", s.handleListProjects)
	s.mux.HandleFunc("POST /api/projects", s.handleAddProject)
	s.mux.HandleFunc("POST /api/entries", s.handleAddEntry)
	s.mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)

	// Everything else is an asset request and goes through the gateway.
	s.mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		s.gw.ServeHTTP(w, r)
	}))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Snapshot())
}

func (s *Server) handleListProjects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Projects())
}

type addProjectRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleAddProject(w http.ResponseWriter, r *http.Request) {
	var req addProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Color == "" {
		req.Color = "#6C63FF"
	}

	p := s.manager.AddProject(req.Name, req.Color)
	writeJSON(w, http.StatusCreated, p)
}

type addEntryRequest struct {
	Date      string  `json:"date"`
	ProjectID int64   `json:"projectId"`
	Hours     float64 `json:"hours"`
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := time.Parse(timesheet.DateLayout, req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if req.Hours <= 0 {
		writeError(w, http.StatusBadRequest, "hours must be positive")
		return
	}

	e := s.manager.AddEntry(req.Date, req.ProjectID, req.Hours)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.manager.DeleteEntry(id) {
		writeError(w, http.StatusNotFound, "no such entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StaticHandler serves the embedded UI assets. It is the default gateway
// upstream when no external asset origin is configured.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		applog.Error("embedded static filesystem unavailable", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}
	return http.FileServer(http.FS(sub))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Error("write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
