package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Store manages task persistence and the full-text shadow index.
type Store struct {
	db     *sql.DB
	now    func() time.Time
	newUID UIDGenerator
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithUIDGenerator replaces the uid generator used by Insert.
func WithUIDGenerator(gen UIDGenerator) StoreOption {
	return func(s *Store) {
		s.newUID = gen
	}
}

// NewStore creates a task store over an opened database.
func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:     db,
		now:    time.Now,
		newUID: RandomUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validator returns a dependency validator reading the committed graph.
func (s *Store) Validator() *Validator {
	return NewValidator(graph{q: s.db})
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// Insert creates a task, assigning id, uid and timestamps. The row, its
// archival state and its search entry are written in one transaction.
func (s *Store) Insert(ctx context.Context, in NewTask) (Task, error) {
	t := Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Tags:        NormalizeTags(in.Tags),
		Project:     in.Project,
		Assignee:    in.Assignee,
		DependsOn:   NormalizeDependsOn(in.DependsOn),
		Status:      in.Status,
		Archived:    in.Archived,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.DueDate != nil {
		d := truncateDate(*t.DueDate)
		t.DueDate = &d
	}
	now := s.timestamp()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Archived {
		t.ArchivedAt = &now
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Task{}, fmt.Errorf("begin insert task: %w", err)
	}
	uid, err := s.allocateUID(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return Task{}, err
	}
	t.UID = uid
	if len(t.DependsOn) > 0 {
		if err := NewValidator(graph{q: tx}).Validate(ctx, uid, t.DependsOn); err != nil {
			_ = tx.Rollback()
			return Task{}, err
		}
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO tasks(uid, title, description, priority, due_date, tags, project, assignee, depends_on, status, created_at, updated_at, archived, archived_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UID, t.Title, nullableString(t.Description), t.Priority, formatDate(t.DueDate), joinList(t.Tags),
		nullableString(t.Project), nullableString(t.Assignee), joinList(t.DependsOn), t.Status,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), boolInt(t.Archived), formatTimePtr(t.ArchivedAt))
	if err != nil {
		_ = tx.Rollback()
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return Task{}, fmt.Errorf("read task id: %w", err)
	}
	t.ID = id
	if err := indexTask(ctx, tx, t); err != nil {
		_ = tx.Rollback()
		return Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return Task{}, fmt.Errorf("commit insert task: %w", err)
	}
	log.Debug().Str("uid", t.UID).Int64("id", t.ID).Msg("task inserted")
	return t, nil
}

func (s *Store) allocateUID(ctx context.Context, tx *sql.Tx) (string, error) {
	for attempt := 0; attempt < maxUIDAttempts; attempt++ {
		uid, err := s.newUID()
		if err != nil {
			return "", err
		}
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE uid=?`, uid).Scan(&n); err != nil {
			return "", fmt.Errorf("check uid: %w", err)
		}
		if n == 0 {
			return uid, nil
		}
		log.Debug().Str("uid", uid).Int("attempt", attempt+1).Msg("uid collision")
	}
	return "", fmt.Errorf("allocate uid: %d attempts collided", maxUIDAttempts)
}

// FindByUID returns a non-archived task. ok is false when no such task exists.
func (s *Store) FindByUID(ctx context.Context, uid string) (Task, bool, error) {
	return getTask(ctx, s.db, "uid=? AND archived=0", uid)
}

// FindByUIDIncludingArchived returns a task whether or not it is archived.
func (s *Store) FindByUIDIncludingArchived(ctx context.Context, uid string) (Task, bool, error) {
	return getTask(ctx, s.db, "uid=?", uid)
}

// Update overwrites every mutable field of the task with t.ID and refreshes
// updated_at. uid and created_at are kept from the stored row.
func (s *Store) Update(ctx context.Context, t Task) (Task, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Task{}, fmt.Errorf("begin update task: %w", err)
	}
	current, ok, err := getTask(ctx, tx, "id=?", t.ID)
	if err != nil {
		_ = tx.Rollback()
		return Task{}, err
	}
	if !ok {
		_ = tx.Rollback()
		return Task{}, fmt.Errorf("task id %d: %w", t.ID, ErrNotFound)
	}
	t.UID = current.UID
	t.CreatedAt = current.CreatedAt
	t.Tags = NormalizeTags(t.Tags)
	t.DependsOn = NormalizeDependsOn(t.DependsOn)
	if t.DueDate != nil {
		d := truncateDate(*t.DueDate)
		t.DueDate = &d
	}
	if !slices.Equal(current.DependsOn, t.DependsOn) && len(t.DependsOn) > 0 {
		if err := NewValidator(graph{q: tx}).ValidateChange(ctx, t.UID, current.DependsOn, t.DependsOn); err != nil {
			_ = tx.Rollback()
			return Task{}, err
		}
	}
	now := s.timestamp()
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.UpdatedAt = now
	switch {
	case !t.Archived:
		t.ArchivedAt = nil
	case t.ArchivedAt == nil:
		t.ArchivedAt = &now
	}

	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET title=?, description=?, priority=?, due_date=?, tags=?, project=?, assignee=?, depends_on=?, status=?, updated_at=?, archived=?, archived_at=?
		WHERE id=?`,
		t.Title, nullableString(t.Description), t.Priority, formatDate(t.DueDate), joinList(t.Tags),
		nullableString(t.Project), nullableString(t.Assignee), joinList(t.DependsOn), t.Status,
		formatTime(t.UpdatedAt), boolInt(t.Archived), formatTimePtr(t.ArchivedAt), t.ID); err != nil {
		_ = tx.Rollback()
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	if err := indexTask(ctx, tx, t); err != nil {
		_ = tx.Rollback()
		return Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return Task{}, fmt.Errorf("commit update task: %w", err)
	}
	return t, nil
}

// notBeforeCreated is a SET expression taking the timestamp twice. It keeps
// the written value at or after the row's created_at when the clock steps back.
const notBeforeCreated = `CASE WHEN julianday(?) < julianday(created_at) THEN created_at ELSE ? END`

// Archive soft-deletes a task. Archiving an archived task is a no-op.
func (s *Store) Archive(ctx context.Context, uid string) error {
	now := formatTime(s.timestamp())
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET archived=1, archived_at=`+notBeforeCreated+`, updated_at=`+notBeforeCreated+`
		WHERE uid=? AND archived=0`, now, now, now, now, uid)
	if err != nil {
		return fmt.Errorf("archive task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}
	_, ok, err := s.FindByUIDIncludingArchived(ctx, uid)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(uid)
	}
	return nil
}

// Restore clears the archival state of a task. Restoring a live task is a no-op.
func (s *Store) Restore(ctx context.Context, uid string) error {
	now := formatTime(s.timestamp())
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET archived=0, archived_at=NULL, updated_at=`+notBeforeCreated+`
		WHERE uid=? AND archived=1`, now, now, uid)
	if err != nil {
		return fmt.Errorf("restore task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}
	_, ok, err := s.FindByUIDIncludingArchived(ctx, uid)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(uid)
	}
	return nil
}

// CompleteStatus marks a task done. The search index is not touched.
func (s *Store) CompleteStatus(ctx context.Context, uid string) error {
	now := formatTime(s.timestamp())
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status=?, updated_at=`+notBeforeCreated+`
		WHERE uid=? AND archived=0`, StatusDone, now, now, uid)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return notFound(uid)
	}
	return nil
}

// ArchiveAll archives every non-archived task and returns how many changed.
func (s *Store) ArchiveAll(ctx context.Context) (int64, error) {
	now := formatTime(s.timestamp())
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET archived=1, archived_at=`+notBeforeCreated+`, updated_at=`+notBeforeCreated+`
		WHERE archived=0`, now, now, now, now)
	if err != nil {
		return 0, fmt.Errorf("archive all tasks: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	log.Info().Int64("count", rows).Msg("tasks archived")
	return rows, nil
}

// SetDependencies replaces depends_on for a task after validating the new edge set.
func (s *Store) SetDependencies(ctx context.Context, uid string, deps []string) (Task, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Task{}, fmt.Errorf("begin set dependencies: %w", err)
	}
	t, ok, err := getTask(ctx, tx, "uid=? AND archived=0", uid)
	if err != nil {
		_ = tx.Rollback()
		return Task{}, err
	}
	if !ok {
		_ = tx.Rollback()
		return Task{}, notFound(uid)
	}
	deps = NormalizeDependsOn(deps)
	if err := NewValidator(graph{q: tx}).ValidateChange(ctx, uid, t.DependsOn, deps); err != nil {
		_ = tx.Rollback()
		return Task{}, err
	}
	now := s.timestamp()
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET depends_on=?, updated_at=? WHERE id=?`, joinList(deps), formatTime(now), t.ID); err != nil {
		_ = tx.Rollback()
		return Task{}, fmt.Errorf("update dependencies: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Task{}, fmt.Errorf("commit set dependencies: %w", err)
	}
	t.DependsOn = deps
	t.UpdatedAt = now
	return t, nil
}

// Dependents returns the non-archived tasks whose depends_on includes uid.
func (s *Store) Dependents(ctx context.Context, uid string) ([]Task, error) {
	all, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Task, 0)
	for _, t := range all {
		if slices.Contains(t.DependsOn, uid) {
			out = append(out, t)
		}
	}
	return out, nil
}

// FetchAll returns every non-archived task in insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]Task, error) {
	return listTasks(ctx, s.db, `SELECT `+taskColumns("")+` FROM tasks WHERE archived=0 ORDER BY id`)
}

// Query fetches all tasks and applies q in memory.
func (s *Store) Query(ctx context.Context, q Query) ([]Task, error) {
	all, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(all, q), nil
}

// UniqueTags returns the distinct tags of non-archived tasks, sorted.
func (s *Store) UniqueTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM tasks WHERE tags IS NOT NULL AND tags != '' AND archived=0`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()
	seen := make(map[string]struct{})
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan tags: %w", err)
		}
		for _, tag := range SplitList(raw) {
			seen[tag] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return sortedKeys(seen), nil
}

// UniqueProjects returns the distinct non-empty projects of non-archived tasks, sorted.
func (s *Store) UniqueProjects(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "project")
}

// UniqueAssignees returns the distinct non-empty assignees of non-archived tasks, sorted.
func (s *Store) UniqueAssignees(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "assignee")
}

func (s *Store) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT `+column+` FROM tasks WHERE `+column+` IS NOT NULL AND `+column+` != '' AND archived=0`)
	if err != nil {
		return nil, fmt.Errorf("query %ss: %w", column, err)
	}
	defer rows.Close()
	seen := make(map[string]struct{})
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		seen[v] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %ss: %w", column, err)
	}
	return sortedKeys(seen), nil
}

// indexTask replaces the search entry of t.
func indexTask(ctx context.Context, tx *sql.Tx, t Task) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks_search WHERE rowid=?`, t.ID); err != nil {
		return fmt.Errorf("delete search entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO tasks_search(rowid, title, description, tags) VALUES(?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, joinList(t.Tags)); err != nil {
		return fmt.Errorf("insert search entry: %w", err)
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var columns = []string{
	"id", "uid", "title", "description", "priority", "due_date", "tags", "project", "assignee",
	"depends_on", "status", "created_at", "updated_at", "archived", "archived_at",
}

func taskColumns(prefix string) string {
	if prefix == "" {
		return strings.Join(columns, ", ")
	}
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = prefix + c
	}
	return strings.Join(out, ", ")
}

func getTask(ctx context.Context, q querier, where string, args ...any) (Task, bool, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns("")+` FROM tasks WHERE `+where, args...)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, false, nil
		}
		return Task{}, false, fmt.Errorf("read task: %w", err)
	}
	return t, true, nil
}

func listTasks(ctx context.Context, q querier, query string, args ...any) ([]Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()
	out := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (Task, error) {
	var (
		t                                   Task
		description, dueDate, tags, project sql.NullString
		assignee, dependsOn, archivedAt     sql.NullString
		createdAt, updatedAt                string
		archived                            sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.UID, &t.Title, &description, &t.Priority, &dueDate, &tags, &project, &assignee,
		&dependsOn, &t.Status, &createdAt, &updatedAt, &archived, &archivedAt); err != nil {
		return Task{}, err
	}
	t.Description = description.String
	t.Project = project.String
	t.Assignee = assignee.String
	t.Tags = SplitList(tags.String)
	t.DependsOn = SplitList(dependsOn.String)
	t.Archived = archived.Valid && archived.Int64 != 0

	var err error
	if t.DueDate, err = parseDatePtr(dueDate.String); err != nil {
		return Task{}, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return Task{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Task{}, err
	}
	if archivedAt.Valid && archivedAt.String != "" {
		at, err := parseTime(archivedAt.String)
		if err != nil {
			return Task{}, err
		}
		t.ArchivedAt = &at
	}
	return t, nil
}
