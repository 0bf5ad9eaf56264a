// Package transfer converts tasks to and from their external representations.
package transfer

import (
	"time"

	"github.com/metalagman/tasks/internal/task"
)

// Record is the external representation of a task shared by the HTTP API,
// the CLI and exports.
type Record struct {
	ID          int64      `json:"id"          yaml:"id"          toml:"id"`
	UID         string     `json:"uid"         yaml:"uid"         toml:"uid"`
	Title       string     `json:"title"       yaml:"title"       toml:"title"`
	Description string     `json:"description" yaml:"description" toml:"description"`
	Priority    string     `json:"priority"    yaml:"priority"    toml:"priority"`
	DueDate     *string    `json:"dueDate"     yaml:"dueDate"     toml:"dueDate,omitempty"`
	Tags        []string   `json:"tags"        yaml:"tags"        toml:"tags"`
	Project     string     `json:"project"     yaml:"project"     toml:"project"`
	Assignee    string     `json:"assignee"    yaml:"assignee"    toml:"assignee"`
	DependsOn   []string   `json:"dependsOn"   yaml:"dependsOn"   toml:"dependsOn"`
	Status      string     `json:"status"      yaml:"status"      toml:"status"`
	Archived    bool       `json:"archived"    yaml:"archived"    toml:"archived"`
	ArchivedAt  *time.Time `json:"archivedAt"  yaml:"archivedAt"  toml:"archivedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"   yaml:"createdAt"   toml:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"   yaml:"updatedAt"   toml:"updatedAt"`
}

// FromTask converts a stored task.
func FromTask(t task.Task) Record {
	r := Record{
		ID:          t.ID,
		UID:         t.UID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Tags:        nonNil(t.Tags),
		Project:     t.Project,
		Assignee:    t.Assignee,
		DependsOn:   nonNil(t.DependsOn),
		Status:      t.Status,
		Archived:    t.Archived,
		ArchivedAt:  t.ArchivedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(task.DateLayout)
		r.DueDate = &d
	}
	return r
}

// FromTasks converts a list of stored tasks.
func FromTasks(tasks []task.Task) []Record {
	out := make([]Record, len(tasks))
	for i, t := range tasks {
		out[i] = FromTask(t)
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// Input is a task as supplied by a caller for creation. String fields are
// validated when the input is converted into a task.
type Input struct {
	Title       string   `json:"title"       yaml:"title"       toml:"title"`
	Description string   `json:"description" yaml:"description" toml:"description"`
	Priority    string   `json:"priority"    yaml:"priority"    toml:"priority"`
	DueDate     string   `json:"dueDate"     yaml:"dueDate"     toml:"dueDate"`
	Tags        []string `json:"tags"        yaml:"tags"        toml:"tags"`
	Project     string   `json:"project"     yaml:"project"     toml:"project"`
	Assignee    string   `json:"assignee"    yaml:"assignee"    toml:"assignee"`
	DependsOn   []string `json:"dependsOn"   yaml:"dependsOn"   toml:"dependsOn"`
	Status      string   `json:"status"      yaml:"status"      toml:"status"`
	Archived    bool     `json:"archived"    yaml:"archived"    toml:"archived"`
}

// NewTask validates the input and converts it into store input.
func (in Input) NewTask() (task.NewTask, error) {
	title, err := task.ValidateTitle(in.Title)
	if err != nil {
		return task.NewTask{}, err
	}
	priority, err := task.ParsePriority(in.Priority)
	if err != nil {
		return task.NewTask{}, err
	}
	status, err := task.ParseStatus(in.Status)
	if err != nil {
		return task.NewTask{}, err
	}
	due, err := task.ParseDate(in.DueDate)
	if err != nil {
		return task.NewTask{}, err
	}
	return task.NewTask{
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		DueDate:     due,
		Tags:        task.NormalizeTags(in.Tags),
		Project:     in.Project,
		Assignee:    in.Assignee,
		DependsOn:   task.NormalizeDependsOn(in.DependsOn),
		Status:      status,
		Archived:    in.Archived,
	}, nil
}
