package task

import (
	"context"
	"fmt"
	"strings"
)

// SearchKind selects the search strategy.
type SearchKind string

// Search kinds.
const (
	SearchFTS      SearchKind = "fts"
	SearchSemantic SearchKind = "semantic"
	SearchHybrid   SearchKind = "hybrid"
)

// ParseSearchKind normalizes a search kind. Empty input yields fts.
func ParseSearchKind(value string) (SearchKind, error) {
	switch k := SearchKind(strings.ToLower(strings.TrimSpace(value))); k {
	case "":
		return SearchFTS, nil
	case SearchFTS, SearchSemantic, SearchHybrid:
		return k, nil
	default:
		return "", fmt.Errorf("%w: search type %q (want fts|semantic|hybrid)", ErrValidation, value)
	}
}

// SearchFullText matches query against title, description and tags of
// non-archived tasks, best match first.
func (s *Store) SearchFullText(ctx context.Context, query string) ([]Task, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidQuery)
	}
	tasks, err := listTasks(ctx, s.db, `SELECT `+taskColumns("t.")+` FROM tasks_search
		JOIN tasks t ON t.id = tasks_search.rowid
		WHERE tasks_search MATCH ? AND t.archived=0
		ORDER BY tasks_search.rank, t.id`, query)
	if err != nil {
		if isQuerySyntaxError(err) {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidQuery, query, err)
		}
		return nil, err
	}
	return tasks, nil
}

// searchSemantic has no embedding backend and always returns no results.
func (s *Store) searchSemantic(_ context.Context, _ string) ([]Task, error) {
	return []Task{}, nil
}

// Search runs query with the strategy named by kind. Hybrid results keep the
// full-text order and append semantic matches not already present.
func (s *Store) Search(ctx context.Context, query string, kind SearchKind) ([]Task, error) {
	switch kind {
	case "", SearchFTS:
		return s.SearchFullText(ctx, query)
	case SearchSemantic:
		if strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("%w: empty", ErrInvalidQuery)
		}
		return s.searchSemantic(ctx, query)
	case SearchHybrid:
		fts, err := s.SearchFullText(ctx, query)
		if err != nil {
			return nil, err
		}
		semantic, err := s.searchSemantic(ctx, query)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{}, len(fts))
		for _, t := range fts {
			seen[t.UID] = struct{}{}
		}
		for _, t := range semantic {
			if _, ok := seen[t.UID]; !ok {
				fts = append(fts, t)
			}
		}
		return fts, nil
	default:
		return nil, fmt.Errorf("%w: search type %q", ErrValidation, kind)
	}
}

func isQuerySyntaxError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "fts5") ||
		strings.Contains(msg, "syntax error") ||
		strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "unterminated string")
}
