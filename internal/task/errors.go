package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no non-archived task has the requested uid.
	ErrNotFound = errors.New("task not found")
	// ErrValidation marks caller input that failed validation.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidQuery marks a search query the full-text engine rejected.
	ErrInvalidQuery = fmt.Errorf("%w: search query", ErrValidation)
	// ErrDependencyConflict marks a self reference or cycle in depends_on.
	ErrDependencyConflict = errors.New("dependency conflict")
	// ErrMissingDependency marks a depends_on uid with no stored task.
	ErrMissingDependency = errors.New("missing dependency")
)

// Kind classifies an error for translation into exit codes or HTTP statuses.
type Kind int

// Error kinds.
const (
	KindNone Kind = iota
	KindNotFound
	KindValidation
	KindDependencyConflict
	KindMissingDependency
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindDependencyConflict:
		return "dependency_conflict"
	case KindMissingDependency:
		return "missing_dependency"
	default:
		return "storage"
	}
}

// KindOf returns the kind of err. Errors that match no sentinel are storage faults.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDependencyConflict):
		return KindDependencyConflict
	case errors.Is(err, ErrMissingDependency):
		return KindMissingDependency
	default:
		return KindStorage
	}
}

// DependencyError describes a rejected depends_on edge set.
type DependencyError struct {
	UID     string
	Kind    error    // ErrDependencyConflict or ErrMissingDependency
	Path    []string // cycle path starting and ending at UID
	Missing []string
}

func (e *DependencyError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("task %s: %v: %s", e.UID, e.Kind, strings.Join(e.Missing, ", "))
	case len(e.Path) > 0:
		return fmt.Sprintf("task %s: %v: cycle %s", e.UID, e.Kind, strings.Join(e.Path, " -> "))
	default:
		return fmt.Sprintf("task %s: %v: depends on itself", e.UID, e.Kind)
	}
}

func (e *DependencyError) Unwrap() error {
	return e.Kind
}

func notFound(uid string) error {
	return fmt.Errorf("task %s: %w", uid, ErrNotFound)
}
