package task

import (
	"context"
	"time"
)

// Priority levels.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Status values. Todo and InProgress are the active states.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"

	statusLegacyPending = "pending"
)

// Task describes a task record.
type Task struct {
	ID          int64
	UID         string
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time // date only, UTC midnight
	Tags        []string
	Project     string
	Assignee    string
	DependsOn   []string
	Status      string
	Archived    bool
	ArchivedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Active reports whether the task is todo or in progress.
func (t Task) Active() bool {
	return IsActiveStatus(t.Status)
}

// NewTask holds the caller-supplied fields for Insert.
// An empty Status defaults to todo.
type NewTask struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	Tags        []string
	Project     string
	Assignee    string
	DependsOn   []string
	Status      string
	// Archived stores the task already archived, as imports of archived rows do.
	Archived bool
}

// Tracker is the task persistence and query surface consumed by the API and CLI.
type Tracker interface {
	Insert(ctx context.Context, in NewTask) (Task, error)
	FindByUID(ctx context.Context, uid string) (Task, bool, error)
	FindByUIDIncludingArchived(ctx context.Context, uid string) (Task, bool, error)
	Update(ctx context.Context, t Task) (Task, error)
	Archive(ctx context.Context, uid string) error
	Restore(ctx context.Context, uid string) error
	CompleteStatus(ctx context.Context, uid string) error
	ArchiveAll(ctx context.Context) (int64, error)
	SetDependencies(ctx context.Context, uid string, deps []string) (Task, error)
	Dependents(ctx context.Context, uid string) ([]Task, error)
	FetchAll(ctx context.Context) ([]Task, error)
	Query(ctx context.Context, q Query) ([]Task, error)
	Search(ctx context.Context, query string, kind SearchKind) ([]Task, error)
	UniqueTags(ctx context.Context) ([]string, error)
	UniqueProjects(ctx context.Context) ([]string, error)
	UniqueAssignees(ctx context.Context) ([]string, error)
}

var _ Tracker = (*Store)(nil)
