// Package notify sends a message when the backlog has no active tasks.
package notify

import (
	"context"
	"sync"

	"github.com/metalagman/tasks/internal/config"
	"github.com/metalagman/tasks/internal/task"
	"github.com/rs/zerolog/log"
)

// Sender delivers a notification message.
type Sender interface {
	Send(ctx context.Context, message string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, message string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, message string) error {
	return f(ctx, message)
}

// Trigger observes unfiltered task lists and notifies when none is active.
type Trigger struct {
	mu     sync.RWMutex
	cfg    config.Notification
	sender Sender
}

// NewTrigger creates a trigger. A nil sender disables sending.
func NewTrigger(cfg config.Notification, sender Sender) *Trigger {
	return &Trigger{cfg: cfg, sender: sender}
}

// Reconfigure swaps the notification settings, for example after the config
// file changed on disk.
func (t *Trigger) Reconfigure(cfg config.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = cfg
}

// Observe inspects the full set of non-archived tasks. It must be given the
// unfiltered list, never a query result. Send failures are logged and
// swallowed. Observe reports whether a message was sent.
//
// The send runs on the caller's goroutine, so a slow endpoint delays the list
// response by up to the configured timeout.
func (t *Trigger) Observe(ctx context.Context, all []task.Task) bool {
	t.mu.RLock()
	cfg := t.cfg
	t.mu.RUnlock()

	if !cfg.Enabled || t.sender == nil {
		return false
	}
	active := 0
	for _, tk := range all {
		if tk.Active() {
			active++
		}
	}
	if active > 0 {
		log.Debug().Int("active", active).Msg("notification not sent")
		return false
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	log.Info().Msg("no active tasks, sending notification")
	if err := t.sender.Send(ctx, cfg.Message()); err != nil {
		log.Error().Err(err).Msg("send notification")
		return false
	}
	return true
}
