package web

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/metalagman/tasks/internal/task"
	"github.com/metalagman/tasks/internal/transfer"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 10 << 20

// updateRequest is a partial update. Absent fields keep their stored value and
// an empty dueDate clears the due date.
type updateRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Priority    *string   `json:"priority"`
	DueDate     *string   `json:"dueDate"`
	Tags        *[]string `json:"tags"`
	Project     *string   `json:"project"`
	Assignee    *string   `json:"assignee"`
	DependsOn   *[]string `json:"dependsOn"`
	Status      *string   `json:"status"`
}

type dependenciesRequest struct {
	DependsOn []string `json:"dependsOn"`
}

type nextResponse struct {
	Task   transfer.Record `json:"task"`
	Reason string          `json:"reason"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %v", task.ErrValidation, err)
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := task.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	all, err := s.tracker.FetchAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.observer != nil {
		s.observer.Observe(r.Context(), all)
	}
	writeJSON(w, http.StatusOK, transfer.FromTasks(task.Apply(all, q)))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in transfer.Input
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	nt, err := in.NewTask()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.tracker.Insert(r.Context(), nt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Str("uid", created.UID).Msg("task created")
	writeJSON(w, http.StatusCreated, transfer.FromTask(created))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.find(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transfer.FromTask(t))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	current, err := s.find(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	merged, err := req.apply(current)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.tracker.Update(r.Context(), merged)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transfer.FromTask(updated))
}

func (req updateRequest) apply(t task.Task) (task.Task, error) {
	var err error
	if req.Title != nil {
		if t.Title, err = task.ValidateTitle(*req.Title); err != nil {
			return t, err
		}
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		if t.Priority, err = task.ParsePriority(*req.Priority); err != nil {
			return t, err
		}
	}
	if req.DueDate != nil {
		if t.DueDate, err = task.ParseDate(*req.DueDate); err != nil {
			return t, err
		}
	}
	if req.Tags != nil {
		t.Tags = task.NormalizeTags(*req.Tags)
	}
	if req.Project != nil {
		t.Project = *req.Project
	}
	if req.Assignee != nil {
		t.Assignee = *req.Assignee
	}
	if req.DependsOn != nil {
		t.DependsOn = task.NormalizeDependsOn(*req.DependsOn)
	}
	if req.Status != nil {
		if t.Status, err = task.ParseStatus(*req.Status); err != nil {
			return t, err
		}
	}
	return t, nil
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Archive(r.Context(), r.PathValue("uid")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if err := s.tracker.Restore(r.Context(), uid); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondTask(w, r, uid)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if err := s.tracker.CompleteStatus(r.Context(), uid); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondTask(w, r, uid)
}

func (s *Server) handleSetDependencies(w http.ResponseWriter, r *http.Request) {
	var req dependenciesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.tracker.SetDependencies(r.Context(), r.PathValue("uid"), task.NormalizeDependsOn(req.DependsOn))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transfer.FromTask(updated))
}

func (s *Server) handleDependents(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if _, err := s.find(r.Context(), uid); err != nil {
		writeError(w, r, err)
		return
	}
	deps, err := s.tracker.Dependents(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transfer.FromTasks(deps))
}

func (s *Server) handleArchiveAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.tracker.ArchiveAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"archived": n})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	kind, err := task.ParseSearchKind(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	found, err := s.tracker.Search(r.Context(), r.URL.Query().Get("q"), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transfer.FromTasks(found))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	all, err := s.tracker.FetchAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transfer.FromTasks(task.Ready(all)))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	all, err := s.tracker.FetchAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	next, reason, err := task.SelectNextReady(task.Ready(all))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nextResponse{Task: transfer.FromTask(next), Reason: reason})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := transfer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	all, err := s.tracker.FetchAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tasks.%s", f))
	if err := transfer.Export(w, f, all); err != nil {
		log.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("export failed")
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	f, err := importFormat(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	inputs, err := transfer.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := transfer.Import(r.Context(), s.tracker, inputs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// importFormat prefers the format query parameter and falls back to the
// request content type.
func importFormat(r *http.Request) (transfer.Format, error) {
	if v := r.URL.Query().Get("format"); v != "" {
		return transfer.ParseFormat(v)
	}
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return transfer.FormatJSON, nil
	}
	for _, f := range []transfer.Format{transfer.FormatCSV, transfer.FormatYAML, transfer.FormatTOML} {
		if want, _, _ := mime.ParseMediaType(f.ContentType()); want == mt {
			return f, nil
		}
	}
	return transfer.FormatJSON, nil
}

func (s *Server) handleAggregate(fetch func(context.Context) ([]string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, err := fetch(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if values == nil {
			values = []string{}
		}
		writeJSON(w, http.StatusOK, values)
	}
}

func (s *Server) find(ctx context.Context, uid string) (task.Task, error) {
	t, ok, err := s.tracker.FindByUID(ctx, uid)
	if err != nil {
		return task.Task{}, err
	}
	if !ok {
		return task.Task{}, fmt.Errorf("task %s: %w", uid, task.ErrNotFound)
	}
	return t, nil
}

func (s *Server) respondTask(w http.ResponseWriter, r *http.Request, uid string) {
	t, err := s.find(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transfer.FromTask(t))
}
