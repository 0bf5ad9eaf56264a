package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/metalagman/tasks/internal/task"
	"github.com/rs/zerolog/log"
)

type errorBody struct {
	Error   string   `json:"error"`
	Path    []string `json:"path,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

// statusOf maps an error kind to an HTTP status.
func statusOf(err error) int {
	switch task.KindOf(err) {
	case task.KindNotFound:
		return http.StatusNotFound
	case task.KindValidation:
		return http.StatusBadRequest
	case task.KindDependencyConflict:
		return http.StatusConflict
	case task.KindMissingDependency:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorBody{Error: err.Error()}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", requestIDFrom(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		body.Error = "internal error"
	}
	var depErr *task.DependencyError
	if errors.As(err, &depErr) {
		body.Path = depErr.Path
		body.Missing = depErr.Missing
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func joinComma(values []string) string {
	return strings.Join(values, ", ")
}
