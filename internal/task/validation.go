package task

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage layout of due dates.
const DateLayout = "2006-01-02"

// ValidateTitle rejects empty or whitespace-only titles.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	return trimmed, nil
}

// ParsePriority normalizes a priority. Empty input yields medium.
func ParsePriority(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return v, nil
	default:
		return "", fmt.Errorf("%w: priority %q (want low|medium|high)", ErrValidation, value)
	}
}

// ParseStatus normalizes a status. Empty input and the legacy pending status
// yield todo.
func ParseStatus(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", statusLegacyPending:
		return StatusTodo, nil
	case StatusTodo, StatusInProgress, StatusDone:
		return v, nil
	default:
		return "", fmt.Errorf("%w: status %q (want todo|in_progress|done)", ErrValidation, value)
	}
}

// ParseDate parses a YYYY-MM-DD date. Empty input yields nil.
func ParseDate(value string) (*time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, v)
	if err != nil {
		if ts, tsErr := time.Parse(time.RFC3339, v); tsErr == nil {
			day := truncateDate(ts)
			return &day, nil
		}
		return nil, fmt.Errorf("%w: date %q (want YYYY-MM-DD)", ErrValidation, value)
	}
	return &d, nil
}

// IsActiveStatus reports whether status counts as active.
func IsActiveStatus(status string) bool {
	s := strings.ToLower(status)
	return s == StatusTodo || s == StatusInProgress
}

// NormalizeTags trims tags, splits any that contain commas and drops empties.
// Order is kept; duplicates are not removed.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		for _, part := range strings.Split(tag, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// NormalizeDependsOn trims uids, drops empties and removes duplicates keeping first occurrence.
func NormalizeDependsOn(deps []string) []string {
	out := make([]string, 0, len(deps))
	seen := make(map[string]struct{}, len(deps))
	for _, dep := range NormalizeTags(deps) {
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		out = append(out, dep)
	}
	return out
}

// SplitList splits a comma-separated string the way tags are persisted.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	return NormalizeTags([]string{value})
}

func truncateDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
