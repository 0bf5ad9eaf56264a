// Package web serves the task HTTP API and a read-only HTML overview.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/metalagman/tasks/internal/task"
	"github.com/metalagman/tasks/internal/transfer"
)

// Observer is told about every unfiltered task list the API fetches.
type Observer interface {
	Observe(ctx context.Context, all []task.Task) bool
}

// Server provides the API handlers and state.
type Server struct {
	tracker  task.Tracker
	observer Observer
	index    *template.Template
}

//go:embed templates/*.html
var templatesFS embed.FS

// NewServer creates a new web server. observer may be nil.
func NewServer(tracker task.Tracker, observer Observer) (*Server, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"join": joinComma,
	}).ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Server{tracker: tracker, observer: observer, index: tmpl}, nil
}

// Routes returns the router for the API and UI.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/tasks", s.handleList)
	mux.HandleFunc("POST /api/tasks", s.handleCreate)
	mux.HandleFunc("DELETE /api/tasks", s.handleArchiveAll)
	mux.HandleFunc("GET /api/tasks/search", s.handleSearch)
	mux.HandleFunc("GET /api/tasks/ready", s.handleReady)
	mux.HandleFunc("GET /api/tasks/next", s.handleNext)
	mux.HandleFunc("GET /api/tasks/export", s.handleExport)
	mux.HandleFunc("POST /api/tasks/import", s.handleImport)
	mux.HandleFunc("GET /api/tasks/{uid}", s.handleGet)
	mux.HandleFunc("PUT /api/tasks/{uid}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/tasks/{uid}", s.handleArchive)
	mux.HandleFunc("POST /api/tasks/{uid}/restore", s.handleRestore)
	mux.HandleFunc("PATCH /api/tasks/{uid}/complete", s.handleComplete)
	mux.HandleFunc("PUT /api/tasks/{uid}/dependencies", s.handleSetDependencies)
	mux.HandleFunc("GET /api/tasks/{uid}/dependents", s.handleDependents)

	mux.HandleFunc("GET /api/tags", s.handleAggregate(s.tracker.UniqueTags))
	mux.HandleFunc("GET /api/projects", s.handleAggregate(s.tracker.UniqueProjects))
	mux.HandleFunc("GET /api/assignees", s.handleAggregate(s.tracker.UniqueAssignees))

	return withRequestID(withAccessLog(withRecover(mux)))
}

type indexView struct {
	Tasks []transfer.Record
	Ready map[string]bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	items, err := s.tracker.FetchAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := indexView{Tasks: transfer.FromTasks(items), Ready: make(map[string]bool)}
	for _, t := range task.Ready(items) {
		view.Ready[t.UID] = true
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(w, view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
