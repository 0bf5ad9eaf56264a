package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
)

// Node is a stored task as seen by the dependency validator.
type Node struct {
	UID       string
	DependsOn []string
	Archived  bool
}

// GraphReader loads dependency nodes by uid.
type GraphReader interface {
	Node(ctx context.Context, uid string) (Node, bool, error)
}

// Validator rejects depends_on edge sets that reference the task itself,
// reference tasks that do not exist, or close a cycle.
type Validator struct {
	graph GraphReader
}

// NewValidator creates a validator over graph.
func NewValidator(graph GraphReader) *Validator {
	return &Validator{graph: graph}
}

// Validate checks proposed as the new depends_on set of uid. Checks run in
// order: self reference, missing targets, cycles.
func (v *Validator) Validate(ctx context.Context, uid string, proposed []string) error {
	return v.ValidateChange(ctx, uid, nil, proposed)
}

// ValidateChange checks proposed as a replacement for the current depends_on
// set of uid. Targets already in current are exempt from the missing check,
// so an edge to a task archived later can be kept or dropped.
func (v *Validator) ValidateChange(ctx context.Context, uid string, current, proposed []string) error {
	if slices.Contains(proposed, uid) {
		return &DependencyError{UID: uid, Kind: ErrDependencyConflict}
	}

	var missing []string
	for _, dep := range proposed {
		if slices.Contains(current, dep) {
			continue
		}
		node, ok, err := v.graph.Node(ctx, dep)
		if err != nil {
			return err
		}
		if !ok || node.Archived {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{UID: uid, Kind: ErrMissingDependency, Missing: missing}
	}

	visited := map[string]bool{uid: true}
	for _, dep := range proposed {
		path, err := v.reaches(ctx, dep, uid, visited, []string{uid})
		if err != nil {
			return err
		}
		if path != nil {
			return &DependencyError{UID: uid, Kind: ErrDependencyConflict, Path: path}
		}
	}
	return nil
}

// reaches walks depends_on edges from current depth first and returns the
// path if target is reached. Nodes already explored are skipped.
func (v *Validator) reaches(ctx context.Context, current, target string, visited map[string]bool, path []string) ([]string, error) {
	path = append(path, current)
	if current == target {
		return path, nil
	}
	if visited[current] {
		return nil, nil
	}
	visited[current] = true
	node, ok, err := v.graph.Node(ctx, current)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	for _, next := range node.DependsOn {
		found, err := v.reaches(ctx, next, target, visited, slices.Clone(path))
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}

// graph reads dependency nodes through a database handle or transaction.
type graph struct {
	q querier
}

func (g graph) Node(ctx context.Context, uid string) (Node, bool, error) {
	var (
		deps     sql.NullString
		archived sql.NullInt64
	)
	row := g.q.QueryRowContext(ctx, `SELECT depends_on, archived FROM tasks WHERE uid=?`, uid)
	if err := row.Scan(&deps, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Node{}, false, nil
		}
		return Node{}, false, fmt.Errorf("read dependencies of %s: %w", uid, err)
	}
	return Node{
		UID:       uid,
		DependsOn: SplitList(deps.String),
		Archived:  archived.Valid && archived.Int64 != 0,
	}, true, nil
}
