package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/metalagman/tasks/internal/config"
	"github.com/metalagman/tasks/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (s *recordingSender) Send(_ context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return s.err
}

func TestTriggerObserve(t *testing.T) {
	t.Parallel()

	done := []task.Task{{UID: "a", Status: task.StatusDone}}
	active := []task.Task{{UID: "a", Status: task.StatusDone}, {UID: "b", Status: task.StatusInProgress}}

	tests := []struct {
		name    string
		cfg     config.Notification
		tasks   []task.Task
		want    []string
		wantHit bool
	}{
		{name: "disabled", cfg: config.Notification{}, tasks: nil, want: nil},
		{name: "active tasks present", cfg: config.Notification{Enabled: true}, tasks: active, want: nil},
		{name: "only done tasks", cfg: config.Notification{Enabled: true}, tasks: done, want: []string{config.DefaultNotificationMessage}, wantHit: true},
		{name: "empty store", cfg: config.Notification{Enabled: true, DefaultMessage: "inbox zero"}, tasks: nil, want: []string{"inbox zero"}, wantHit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sender := &recordingSender{}
			hit := NewTrigger(tt.cfg, sender).Observe(context.Background(), tt.tasks)
			assert.Equal(t, tt.wantHit, hit)
			assert.Equal(t, tt.want, sender.messages)
		})
	}
}

func TestTriggerSwallowsSendErrors(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{err: errors.New("network down")}
	trigger := NewTrigger(config.Notification{Enabled: true}, sender)
	assert.False(t, trigger.Observe(context.Background(), nil))
	assert.Len(t, sender.messages, 1)
}

func TestTriggerBoundsSlowSend(t *testing.T) {
	t.Parallel()

	sender := SenderFunc(func(ctx context.Context, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	})
	trigger := NewTrigger(config.Notification{Enabled: true, Timeout: 50 * time.Millisecond}, sender)

	start := time.Now()
	assert.False(t, trigger.Observe(context.Background(), nil))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTriggerReconfigure(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	trigger := NewTrigger(config.Notification{}, sender)
	assert.False(t, trigger.Observe(context.Background(), nil))

	trigger.Reconfigure(config.Notification{Enabled: true, DefaultMessage: "now on"})
	assert.True(t, trigger.Observe(context.Background(), nil))
	assert.Equal(t, []string{"now on"}, sender.messages)
}

func TestTriggerAppliesTimeout(t *testing.T) {
	t.Parallel()

	var deadline time.Time
	sender := SenderFunc(func(ctx context.Context, _ string) error {
		deadline, _ = ctx.Deadline()
		return nil
	})
	trigger := NewTrigger(config.Notification{Enabled: true, Timeout: time.Minute}, sender)
	require.True(t, trigger.Observe(context.Background(), nil))
	assert.False(t, deadline.IsZero())
}

func TestTelegramSend(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotBody sendMessageRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	tg := NewTelegram(config.Telegram{BotToken: "123:abc", ChatID: "-100", APIURL: srv.URL + "/"}, srv.Client())
	require.NoError(t, tg.Send(context.Background(), "hello"))
	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, sendMessageRequest{ChatID: "-100", Text: "hello"}, gotBody)
}

func TestTelegramSendErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	tg := NewTelegram(config.Telegram{BotToken: "t", ChatID: "c", APIURL: srv.URL}, srv.Client())
	err := tg.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "chat not found")

	missing := NewTelegram(config.Telegram{APIURL: srv.URL}, nil)
	require.Error(t, missing.Send(context.Background(), "hello"))
}
