package task

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Sort keys accepted by Query.SortBy.
const (
	SortTitle     = "title"
	SortPriority  = "priority"
	SortDueDate   = "due_date"
	SortCreatedAt = "created_at"
	SortUpdatedAt = "updated_at"
)

// Query filters, sorts and pages a task list. Zero values disable each part.
type Query struct {
	Status    string
	Priority  string
	Project   string
	Assignee  string
	Tags      string // comma separated, any match
	DueBefore *time.Time
	DueAfter  *time.Time
	SortBy    string
	SortOrder string
	Limit     *int
	Offset    *int
}

// Apply filters, sorts and pages tasks according to q. The input is not
// modified.
func Apply(tasks []Task, q Query) []Task {
	out := make([]Task, 0, len(tasks))
	wantTags := SplitList(q.Tags)
	for _, t := range tasks {
		if !matches(t, q, wantTags) {
			continue
		}
		out = append(out, t)
	}

	if less := sortFunc(q.SortBy); less != nil {
		desc := strings.EqualFold(strings.TrimSpace(q.SortOrder), "desc")
		slices.SortStableFunc(out, func(a, b Task) int {
			c := less(a, b)
			if desc {
				return -c
			}
			return c
		})
	}

	if q.Offset != nil {
		offset := max(*q.Offset, 0)
		if offset >= len(out) {
			return []Task{}
		}
		out = out[offset:]
	}
	if q.Limit != nil {
		if *q.Limit <= 0 {
			return []Task{}
		}
		if *q.Limit < len(out) {
			out = out[:*q.Limit]
		}
	}
	return out
}

func matches(t Task, q Query, wantTags []string) bool {
	if q.Status != "" && !strings.EqualFold(t.Status, q.Status) {
		return false
	}
	if q.Priority != "" && !strings.EqualFold(t.Priority, q.Priority) {
		return false
	}
	if q.Project != "" && !strings.EqualFold(t.Project, q.Project) {
		return false
	}
	if q.Assignee != "" && !strings.EqualFold(t.Assignee, q.Assignee) {
		return false
	}
	if len(wantTags) > 0 && !hasAnyTag(t.Tags, wantTags) {
		return false
	}
	if q.DueBefore != nil && (t.DueDate == nil || t.DueDate.After(truncateDate(*q.DueBefore))) {
		return false
	}
	if q.DueAfter != nil && (t.DueDate == nil || t.DueDate.Before(truncateDate(*q.DueAfter))) {
		return false
	}
	return true
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// sortFunc returns the ascending comparison for key, or nil when the key is
// unknown and fetch order should be kept.
func sortFunc(key string) func(a, b Task) int {
	switch normalizeSortKey(key) {
	case SortTitle:
		return func(a, b Task) int { return strings.Compare(a.Title, b.Title) }
	case SortPriority:
		return func(a, b Task) int { return priorityRank(a.Priority) - priorityRank(b.Priority) }
	case SortDueDate:
		return compareDue
	case SortCreatedAt:
		return func(a, b Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortUpdatedAt:
		return func(a, b Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	default:
		return nil
	}
}

func normalizeSortKey(key string) string {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "title":
		return SortTitle
	case "priority":
		return SortPriority
	case "due_date", "duedate":
		return SortDueDate
	case "created_at", "createdat":
		return SortCreatedAt
	case "updated_at", "updatedat":
		return SortUpdatedAt
	default:
		return ""
	}
}

// compareDue orders missing due dates before any date.
func compareDue(a, b Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return -1
	case b.DueDate == nil:
		return 1
	default:
		return a.DueDate.Compare(*b.DueDate)
	}
}

// unknownPriorityRank places unrecognized priorities after every known one
// in ascending order.
const unknownPriorityRank = 3

// priorityRank orders priorities by severity.
func priorityRank(p string) int {
	switch strings.ToLower(p) {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	default:
		return unknownPriorityRank
	}
}

// ParseQuery builds a Query from request parameters. Both camelCase and
// snake_case parameter names are accepted.
func ParseQuery(values url.Values) (Query, error) {
	get := func(names ...string) string {
		for _, n := range names {
			if v := strings.TrimSpace(values.Get(n)); v != "" {
				return v
			}
		}
		return ""
	}

	q := Query{
		Status:    get("status"),
		Priority:  get("priority"),
		Project:   get("project"),
		Assignee:  get("assignee"),
		Tags:      get("tags", "tag"),
		SortBy:    get("sortBy", "sort_by", "sort"),
		SortOrder: get("sortOrder", "sort_order", "order"),
	}

	var err error
	if q.DueBefore, err = parseQueryDate("dueBefore", get("dueBefore", "due_before")); err != nil {
		return Query{}, err
	}
	if q.DueAfter, err = parseQueryDate("dueAfter", get("dueAfter", "due_after")); err != nil {
		return Query{}, err
	}
	if q.Limit, err = parseQueryInt("limit", get("limit")); err != nil {
		return Query{}, err
	}
	if q.Offset, err = parseQueryInt("offset", get("offset")); err != nil {
		return Query{}, err
	}
	return q, nil
}

func parseQueryDate(name, value string) (*time.Time, error) {
	d, err := ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func parseQueryInt(name, value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not an integer", ErrValidation, name, value)
	}
	return &n, nil
}
