package task_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/metalagman/tasks/internal/db"
	"github.com/metalagman/tasks/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T, opts ...task.StoreOption) *task.Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	opts = append([]task.StoreOption{task.WithClock(newStepClock().Now)}, opts...)
	return task.NewStore(database, opts...)
}

func mustInsert(t *testing.T, s *task.Store, in task.NewTask) task.Task {
	t.Helper()
	created, err := s.Insert(context.Background(), in)
	require.NoError(t, err)
	return created
}

func date(y int, m time.Month, d int) *time.Time {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}

func TestStoreInsertRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	dep := mustInsert(t, s, task.NewTask{Title: "Prerequisite"})

	in := task.NewTask{
		Title:       "Write report",
		Description: "Quarterly **numbers**",
		Priority:    task.PriorityHigh,
		DueDate:     date(2025, 4, 15),
		Tags:        []string{"work", "finance"},
		Project:     "ops",
		Assignee:    "sam",
		DependsOn:   []string{dep.UID},
		Status:      task.StatusInProgress,
	}
	created, err := s.Insert(ctx, in)
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Len(t, created.UID, task.UIDLength)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.False(t, created.Archived)
	assert.Nil(t, created.ArchivedAt)

	got, ok, err := s.FindByUID(ctx, created.UID)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.Description, got.Description)
	assert.Equal(t, in.Priority, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.True(t, in.DueDate.Equal(*got.DueDate))
	assert.Equal(t, in.Tags, got.Tags)
	assert.Equal(t, in.Project, got.Project)
	assert.Equal(t, in.Assignee, got.Assignee)
	assert.Equal(t, in.DependsOn, got.DependsOn)
	assert.Equal(t, in.Status, got.Status)
	assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestStoreInsertDefaults(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	created := mustInsert(t, s, task.NewTask{Title: "Clean house", Tags: []string{" a , b ", "", "c"}})

	assert.Equal(t, task.PriorityMedium, created.Priority)
	assert.Equal(t, task.StatusTodo, created.Status)
	assert.Equal(t, []string{"a", "b", "c"}, created.Tags)
	assert.Empty(t, created.DependsOn)
	assert.Nil(t, created.DueDate)
}

func TestStoreInsertRetriesUIDCollision(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	candidates := []string{"aaaaaa", "aaaaaa", "aaaaaa", "bbbbbb"}
	var mu sync.Mutex
	gen := func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		uid := candidates[0]
		if len(candidates) > 1 {
			candidates = candidates[1:]
		}
		return uid, nil
	}
	s := newTestStore(t, task.WithUIDGenerator(gen))

	first, err := s.Insert(ctx, task.NewTask{Title: "first"})
	require.NoError(t, err)
	second, err := s.Insert(ctx, task.NewTask{Title: "second"})
	require.NoError(t, err)

	assert.Equal(t, "aaaaaa", first.UID)
	assert.Equal(t, "bbbbbb", second.UID)

	// Only "bbbbbb" is left and it is taken.
	_, err = s.Insert(ctx, task.NewTask{Title: "third"})
	require.Error(t, err)
	assert.Equal(t, task.KindStorage, task.KindOf(err))
}

func TestStoreInsertArchived(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	created, err := s.Insert(ctx, task.NewTask{Title: "Shipped long ago", Archived: true})
	require.NoError(t, err)
	assert.True(t, created.Archived)
	require.NotNil(t, created.ArchivedAt)
	assert.Equal(t, created.CreatedAt, *created.ArchivedAt)

	_, ok, err := s.FindByUID(ctx, created.UID)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, ok, err := s.FindByUIDIncludingArchived(ctx, created.UID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, stored.Archived)
	require.NotNil(t, stored.ArchivedAt)
	assert.True(t, created.ArchivedAt.Equal(*stored.ArchivedAt))

	found, err := s.SearchFullText(ctx, "shipped")
	require.NoError(t, err)
	assert.Empty(t, found)

	require.NoError(t, s.Restore(ctx, created.UID))
	found, err = s.SearchFullText(ctx, "shipped")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestStoreUIDIsUniqueAcrossArchived(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	candidates := []string{"aaaaaa", "aaaaaa", "cccccc"}
	gen := func() (string, error) {
		uid := candidates[0]
		candidates = candidates[1:]
		return uid, nil
	}
	s := newTestStore(t, task.WithUIDGenerator(gen))

	first := mustInsert(t, s, task.NewTask{Title: "first"})
	require.NoError(t, s.Archive(ctx, first.UID))
	second := mustInsert(t, s, task.NewTask{Title: "second"})
	assert.Equal(t, "cccccc", second.UID)
}

func TestStoreArchiveIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	created := mustInsert(t, s, task.NewTask{Title: "Archive me"})

	require.NoError(t, s.Archive(ctx, created.UID))
	first, ok, err := s.FindByUIDIncludingArchived(ctx, created.UID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, first.Archived)
	require.NotNil(t, first.ArchivedAt)

	require.NoError(t, s.Archive(ctx, created.UID))
	second, ok, err := s.FindByUIDIncludingArchived(ctx, created.UID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, first.ArchivedAt.Equal(*second.ArchivedAt))
	assert.True(t, first.UpdatedAt.Equal(second.UpdatedAt))
}

func TestStoreArchiveUnknownUID(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	err := s.Archive(context.Background(), "zzzzzz")
	require.ErrorIs(t, err, task.ErrNotFound)
	assert.Equal(t, task.KindNotFound, task.KindOf(err))
}

func TestStoreArchivedExclusion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	kept := mustInsert(t, s, task.NewTask{Title: "Keep groceries", Tags: []string{"home"}, Project: "life"})
	gone := mustInsert(t, s, task.NewTask{Title: "Drop groceries", Tags: []string{"errand"}, Project: "side", Assignee: "kim"})

	require.NoError(t, s.Archive(ctx, gone.UID))

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.UID, all[0].UID)

	_, ok, err := s.FindByUID(ctx, gone.UID)
	require.NoError(t, err)
	assert.False(t, ok)

	tags, err := s.UniqueTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, tags)

	projects, err := s.UniqueProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"life"}, projects)

	assignees, err := s.UniqueAssignees(ctx)
	require.NoError(t, err)
	assert.Empty(t, assignees)

	found, err := s.SearchFullText(ctx, "groceries")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, kept.UID, found[0].UID)

	archived, ok, err := s.FindByUIDIncludingArchived(ctx, gone.UID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, archived.Archived)
}

func TestStoreRestore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	created := mustInsert(t, s, task.NewTask{Title: "Undo me"})

	require.NoError(t, s.Archive(ctx, created.UID))
	require.NoError(t, s.Restore(ctx, created.UID))
	require.NoError(t, s.Restore(ctx, created.UID))

	got, ok, err := s.FindByUID(ctx, created.UID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, got.Archived)
	assert.Nil(t, got.ArchivedAt)

	require.ErrorIs(t, s.Restore(ctx, "zzzzzz"), task.ErrNotFound)
}

func TestStoreArchiveAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	early := mustInsert(t, s, task.NewTask{Title: "archived early"})
	for _, title := range []string{"one", "two", "three"} {
		mustInsert(t, s, task.NewTask{Title: title})
	}
	require.NoError(t, s.Archive(ctx, early.UID))
	before, _, err := s.FindByUIDIncludingArchived(ctx, early.UID)
	require.NoError(t, err)

	n, err := s.ArchiveAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	after, _, err := s.FindByUIDIncludingArchived(ctx, early.UID)
	require.NoError(t, err)
	assert.True(t, before.ArchivedAt.Equal(*after.ArchivedAt))

	n, err = s.ArchiveAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreCompleteStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	created := mustInsert(t, s, task.NewTask{Title: "Finish"})

	require.NoError(t, s.CompleteStatus(ctx, created.UID))
	got, _, err := s.FindByUID(ctx, created.UID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, got.Status)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	require.ErrorIs(t, s.CompleteStatus(ctx, "zzzzzz"), task.ErrNotFound)

	require.NoError(t, s.Archive(ctx, created.UID))
	require.ErrorIs(t, s.CompleteStatus(ctx, created.UID), task.ErrNotFound)
}

func TestStoreKeepsUpdatedAtAfterCreatedWhenClockStepsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	var calls int
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return created
		}
		return created.Add(-time.Hour)
	}
	s := newTestStore(t, task.WithClock(clock))
	tk := mustInsert(t, s, task.NewTask{Title: "skewed"})

	check := func(step string) {
		t.Helper()
		got, ok, err := s.FindByUIDIncludingArchived(ctx, tk.UID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt), step)
		if got.ArchivedAt != nil {
			assert.False(t, got.ArchivedAt.Before(got.CreatedAt), step)
		}
	}

	require.NoError(t, s.CompleteStatus(ctx, tk.UID))
	check("complete")
	require.NoError(t, s.Archive(ctx, tk.UID))
	check("archive")
	require.NoError(t, s.Restore(ctx, tk.UID))
	check("restore")
	n, err := s.ArchiveAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	check("archive all")
}

func TestStoreUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	created := mustInsert(t, s, task.NewTask{Title: "Paint fence", Tags: []string{"garden"}})

	changed := created
	changed.UID = "ignored"
	changed.Title = "Paint shed"
	changed.Description = "white"
	changed.Tags = []string{"outdoor"}
	changed.Priority = task.PriorityLow
	changed.DueDate = date(2025, 6, 1)
	changed.CreatedAt = time.Time{}

	updated, err := s.Update(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, created.UID, updated.UID)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	got, ok, err := s.FindByUID(ctx, created.UID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Paint shed", got.Title)
	assert.Equal(t, "white", got.Description)
	assert.Equal(t, []string{"outdoor"}, got.Tags)
	assert.Equal(t, task.PriorityLow, got.Priority)

	t.Run("search index follows update", func(t *testing.T) {
		old, err := s.SearchFullText(ctx, "fence")
		require.NoError(t, err)
		assert.Empty(t, old)

		found, err := s.SearchFullText(ctx, "shed")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, created.UID, found[0].UID)

		byTag, err := s.SearchFullText(ctx, "outdoor")
		require.NoError(t, err)
		assert.Len(t, byTag, 1)
	})

	t.Run("archived pair is normalized", func(t *testing.T) {
		archived := got
		archived.Archived = true
		archived.ArchivedAt = nil
		res, err := s.Update(ctx, archived)
		require.NoError(t, err)
		require.NotNil(t, res.ArchivedAt)

		res.Archived = false
		res, err = s.Update(ctx, res)
		require.NoError(t, err)
		assert.Nil(t, res.ArchivedAt)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.Update(ctx, task.Task{ID: 9999, Title: "nope"})
		require.ErrorIs(t, err, task.ErrNotFound)
	})
}

func TestStoreUpdateValidatesChangedDependencies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	a := mustInsert(t, s, task.NewTask{Title: "A"})
	b := mustInsert(t, s, task.NewTask{Title: "B", DependsOn: []string{a.UID}})

	a.DependsOn = []string{b.UID}
	_, err := s.Update(ctx, a)
	require.ErrorIs(t, err, task.ErrDependencyConflict)

	var depErr *task.DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, []string{a.UID, b.UID, a.UID}, depErr.Path)

	stored, _, err := s.FindByUID(ctx, a.UID)
	require.NoError(t, err)
	assert.Empty(t, stored.DependsOn)
}

func TestStoreSetDependencies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	a := mustInsert(t, s, task.NewTask{Title: "A"})
	b := mustInsert(t, s, task.NewTask{Title: "B"})
	c := mustInsert(t, s, task.NewTask{Title: "C"})

	_, err := s.SetDependencies(ctx, a.UID, []string{a.UID})
	require.ErrorIs(t, err, task.ErrDependencyConflict)
	assert.Equal(t, task.KindDependencyConflict, task.KindOf(err))

	_, err = s.SetDependencies(ctx, a.UID, []string{"zzzzzz", b.UID})
	require.ErrorIs(t, err, task.ErrMissingDependency)
	assert.Equal(t, task.KindMissingDependency, task.KindOf(err))

	updated, err := s.SetDependencies(ctx, a.UID, []string{b.UID, c.UID, b.UID})
	require.NoError(t, err)
	assert.Equal(t, []string{b.UID, c.UID}, updated.DependsOn)

	// Diamond: b and c both lead to d.
	d := mustInsert(t, s, task.NewTask{Title: "D"})
	_, err = s.SetDependencies(ctx, b.UID, []string{d.UID})
	require.NoError(t, err)
	_, err = s.SetDependencies(ctx, c.UID, []string{d.UID})
	require.NoError(t, err)

	_, err = s.SetDependencies(ctx, d.UID, []string{a.UID})
	require.ErrorIs(t, err, task.ErrDependencyConflict)

	err = s.Validator().Validate(ctx, d.UID, []string{a.UID})
	var depErr *task.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{d.UID, a.UID, b.UID, d.UID}, depErr.Path)
	require.NoError(t, s.Validator().Validate(ctx, a.UID, []string{d.UID}))

	dependents, err := s.Dependents(ctx, d.UID)
	require.NoError(t, err)
	require.Len(t, dependents, 2)
	assert.Equal(t, b.UID, dependents[0].UID)
	assert.Equal(t, c.UID, dependents[1].UID)

	_, err = s.SetDependencies(ctx, "zzzzzz", nil)
	require.ErrorIs(t, err, task.ErrNotFound)

	cleared, err := s.SetDependencies(ctx, a.UID, nil)
	require.NoError(t, err)
	assert.Empty(t, cleared.DependsOn)
}

func TestStoreInsertRejectsArchivedDependency(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	dep := mustInsert(t, s, task.NewTask{Title: "old"})
	require.NoError(t, s.Archive(ctx, dep.UID))

	_, err := s.Insert(ctx, task.NewTask{Title: "new", DependsOn: []string{dep.UID}})
	require.ErrorIs(t, err, task.ErrMissingDependency)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStoreEditsDependenciesAfterTargetArchived(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	a := mustInsert(t, s, task.NewTask{Title: "A"})
	b := mustInsert(t, s, task.NewTask{Title: "B"})
	c := mustInsert(t, s, task.NewTask{Title: "C", DependsOn: []string{a.UID, b.UID}})
	require.NoError(t, s.Archive(ctx, a.UID))

	shrunk, err := s.SetDependencies(ctx, c.UID, []string{a.UID})
	require.NoError(t, err)
	assert.Equal(t, []string{a.UID}, shrunk.DependsOn)

	_, err = s.SetDependencies(ctx, c.UID, []string{a.UID, b.UID})
	require.NoError(t, err)
	edited, ok, err := s.FindByUID(ctx, c.UID)
	require.NoError(t, err)
	require.True(t, ok)
	edited.DependsOn = []string{b.UID}
	edited.Title = "C2"
	updated, err := s.Update(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, []string{b.UID}, updated.DependsOn)

	// The archived target is gone from the set now, so adding it back is a new edge.
	_, err = s.SetDependencies(ctx, c.UID, []string{a.UID, b.UID})
	require.ErrorIs(t, err, task.ErrMissingDependency)
	edited.DependsOn = []string{b.UID, a.UID}
	_, err = s.Update(ctx, edited)
	require.ErrorIs(t, err, task.ErrMissingDependency)
}

func TestStoreQuery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	mustInsert(t, s, task.NewTask{Title: "b", Priority: task.PriorityHigh, Project: "x"})
	mustInsert(t, s, task.NewTask{Title: "a", Priority: task.PriorityLow, Project: "x"})
	mustInsert(t, s, task.NewTask{Title: "c", Priority: task.PriorityMedium, Project: "y"})

	got, err := s.Query(ctx, task.Query{Project: "X", SortBy: "title"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Title)
	assert.Equal(t, "b", got[1].Title)
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	groceries, err := s.Insert(ctx, task.NewTask{Title: "Buy groceries", Priority: task.PriorityMedium})
	require.NoError(t, err)
	assert.Equal(t, task.StatusTodo, groceries.Status)
	assert.False(t, groceries.Archived)
	assert.Len(t, groceries.UID, 6)

	house, err := s.Insert(ctx, task.NewTask{Title: "Clean house"})
	require.NoError(t, err)

	found, err := s.SearchFullText(ctx, "groceries")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Buy groceries", found[0].Title)

	require.NoError(t, s.Archive(ctx, house.UID))
	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Buy groceries", all[0].Title)
}

func TestOpenBackfillsLegacyStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			priority TEXT NOT NULL,
			due_date TEXT,
			tags TEXT,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE VIRTUAL TABLE tasks_fts USING fts5(title, description, tags, content='tasks', content_rowid='id')`,
		`CREATE TRIGGER tasks_fts_insert AFTER INSERT ON tasks BEGIN
			INSERT INTO tasks_fts(rowid, title, description, tags) VALUES (new.id, new.title, new.description, new.tags);
		END`,
		`INSERT INTO tasks(uid, title, description, priority, due_date, tags, status, created_at, updated_at)
			VALUES('k3m9pq', 'Legacy chore', 'from the old days', 'low', '', 'old,chore', 'todo', '2024-01-02 03:04:05', '2024-01-02 03:04:05')`,
		`INSERT INTO tasks(uid, title, description, priority, due_date, tags, status, created_at, updated_at)
			VALUES('p7w2xz', 'Waiting item', NULL, 'medium', '', '', 'pending', '2024-01-03 03:04:05', '2024-01-03 03:04:05')`,
	} {
		_, err := legacy.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	require.NoError(t, legacy.Close())

	database, err := db.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	s := task.NewStore(database)

	got, ok, err := s.FindByUID(ctx, "k3m9pq")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Legacy chore", got.Title)
	assert.Equal(t, []string{"old", "chore"}, got.Tags)
	assert.Nil(t, got.DueDate)
	assert.False(t, got.Archived)
	assert.True(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Equal(got.CreatedAt))

	waiting, ok, err := s.FindByUID(ctx, "p7w2xz")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, task.StatusTodo, waiting.Status)
	assert.True(t, waiting.Active())

	found, err := s.SearchFullText(ctx, "legacy")
	require.NoError(t, err)
	require.Len(t, found, 1)

	// Writes go through the new search table once the old triggers are gone.
	created := mustInsert(t, s, task.NewTask{Title: "Fresh chore"})
	found, err = s.SearchFullText(ctx, "chore")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Contains(t, []string{found[0].UID, found[1].UID}, created.UID)

	// Reopening is a no-op.
	require.NoError(t, database.Close())
	reopened, err := db.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	all, err := task.NewStore(reopened).FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
