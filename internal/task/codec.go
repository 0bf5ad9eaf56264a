package task

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// legacyTimeLayout is how earlier stores wrote timestamps.
const legacyTimeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func formatDate(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.UTC().Format(DateLayout)
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, legacyTimeLayout, DateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", value)
}

func parseDatePtr(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseTime(value)
	if err != nil {
		return nil, err
	}
	d := truncateDate(t)
	return &d, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func joinList(values []string) any {
	if len(values) == 0 {
		return nil
	}
	return strings.Join(values, ",")
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
