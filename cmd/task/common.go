package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/metalagman/tasks/internal/config"
	"github.com/metalagman/tasks/internal/db"
	"github.com/metalagman/tasks/internal/notify"
	"github.com/metalagman/tasks/internal/task"
	"github.com/rs/zerolog/log"
)

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, func(), error) {
	storeDB, err := db.OpenContext(ctx, cfg.Database.Path)
	if err != nil {
		return nil, func() {}, err
	}
	log.Debug().Str("path", cfg.Database.Path).Msg("database opened")
	return storeDB, func() { _ = storeDB.Close() }, nil
}

func (a *app) openStore(ctx context.Context) (*task.Store, func(), error) {
	storeDB, closeFn, err := openDB(ctx, a.cfg)
	if err != nil {
		return nil, closeFn, err
	}
	return task.NewStore(storeDB), closeFn, nil
}

// newTrigger builds the notification trigger. Without Telegram credentials the
// trigger has no sender and never sends.
func newTrigger(cfg config.Config) *notify.Trigger {
	var sender notify.Sender
	if cfg.Notification.Telegram.Configured() {
		client := &http.Client{Timeout: cfg.Notification.Timeout}
		sender = notify.NewTelegram(cfg.Notification.Telegram, client)
	}
	return notify.NewTrigger(cfg.Notification, sender)
}

func findTask(ctx context.Context, tracker task.Tracker, uid string) (task.Task, error) {
	t, ok, err := tracker.FindByUID(ctx, uid)
	if err != nil {
		return task.Task{}, err
	}
	if !ok {
		return task.Task{}, fmt.Errorf("task %s: %w", uid, task.ErrNotFound)
	}
	return t, nil
}
