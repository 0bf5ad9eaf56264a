package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/metalagman/tasks/internal/task"
)

// CSVHeader is the exact export header.
var CSVHeader = []string{"Title", "Description", "Priority", "DueDate", "Tags", "Status", "Archived"}

// WriteCSV writes tasks with CSVHeader. Tags are comma-joined inside one field.
func WriteCSV(w io.Writer, tasks []task.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(task.DateLayout)
		}
		archived := "0"
		if t.Archived {
			archived = "1"
		}
		row := []string{t.Title, t.Description, t.Priority, due, strings.Join(t.Tags, ","), t.Status, archived}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV reads inputs from CSV. Header names are matched case-insensitively
// and a Title column is required. Unknown columns are ignored.
func ReadCSV(r io.Reader) ([]Input, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: csv is empty", task.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", task.ErrValidation, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	if _, ok := cols["title"]; !ok {
		return nil, fmt.Errorf("%w: csv header has no Title column", task.ErrValidation)
	}

	var out []Input
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", task.ErrValidation, line, err)
		}
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		archived := strings.ToLower(get("archived"))
		out = append(out, Input{
			Title:       get("title"),
			Description: get("description"),
			Priority:    get("priority"),
			DueDate:     firstNonEmpty(get("duedate"), get("due_date")),
			Tags:        task.SplitList(get("tags")),
			Project:     get("project"),
			Assignee:    get("assignee"),
			DependsOn:   task.SplitList(firstNonEmpty(get("dependson"), get("depends_on"))),
			Status:      get("status"),
			Archived:    archived == "1" || archived == "true",
		})
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
