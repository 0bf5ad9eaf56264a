package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// legacyColumns lists columns that stores created before the current
// schema may lack. They are added in place before migrations run so that
// indexes over them can be created.
var legacyColumns = []struct {
	name string
	ddl  string
}{
	{name: "description", ddl: "ALTER TABLE tasks ADD COLUMN description TEXT"},
	{name: "due_date", ddl: "ALTER TABLE tasks ADD COLUMN due_date TEXT"},
	{name: "tags", ddl: "ALTER TABLE tasks ADD COLUMN tags TEXT"},
	{name: "project", ddl: "ALTER TABLE tasks ADD COLUMN project TEXT"},
	{name: "assignee", ddl: "ALTER TABLE tasks ADD COLUMN assignee TEXT"},
	{name: "depends_on", ddl: "ALTER TABLE tasks ADD COLUMN depends_on TEXT"},
	{name: "archived", ddl: "ALTER TABLE tasks ADD COLUMN archived INTEGER NOT NULL DEFAULT 0"},
	{name: "archived_at", ddl: "ALTER TABLE tasks ADD COLUMN archived_at TEXT"},
}

func backfillColumns(ctx context.Context, db *sql.DB) error {
	exists, err := tableExists(ctx, db, "tasks")
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin backfill: %w", err)
	}
	for _, col := range legacyColumns {
		present, err := columnExists(ctx, tx, "tasks", col.name)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if present {
			continue
		}
		if _, err := tx.ExecContext(ctx, col.ddl); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("add column tasks.%s: %w", col.name, err)
		}
		log.Info().Str("column", col.name).Msg("sqlite: added missing column")
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit backfill: %w", err)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func tableExists(ctx context.Context, q queryRower, name string) (bool, error) {
	var n int
	row := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("read table %s: %w", name, err)
	}
	return n > 0, nil
}

func columnExists(ctx context.Context, q queryRower, table, column string) (bool, error) {
	var n int
	row := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name=?`, table, column)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("read column %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}
