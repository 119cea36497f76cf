package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNotifier is a test double for the Notifier interface.
type mockNotifier struct {
	name     string
	sendErr  error
	closeErr error
	sent     []Event
	mu       sync.Mutex
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Send(ctx context.Context, event Event) error {
	m.mu.Lock()
	m.sent = append(m.sent, event)
	m.mu.Unlock()
	return m.sendErr
}

func (m *mockNotifier) Close() error { return m.closeErr }

func (m *mockNotifier) sentEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event{}, m.sent...)
}

func testEvent(eventType EventType) Event {
	return Event{
		Type:       eventType,
		Repo:       "/srv/app",
		Operation:  "push",
		Invocation: "git push origin main",
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestManager_Register(t *testing.T) {
	m := NewManager()
	assert.Equal(t, 0, m.Count())

	m.Register(&mockNotifier{name: "a"})
	m.Register(&mockNotifier{name: "b"})
	assert.Equal(t, 2, m.Count())
}

func TestManager_Notify(t *testing.T) {
	t.Run("sends to all notifiers", func(t *testing.T) {
		m := NewManager()
		mock1 := &mockNotifier{name: "mock1"}
		mock2 := &mockNotifier{name: "mock2"}
		m.Register(mock1)
		m.Register(mock2)

		event := testEvent(EventSyncSucceeded)
		require.NoError(t, m.Notify(context.Background(), event))

		require.Len(t, mock1.sentEvents(), 1)
		require.Len(t, mock2.sentEvents(), 1)
		assert.Equal(t, event, mock1.sentEvents()[0])
	})

	t.Run("sets timestamp if zero", func(t *testing.T) {
		m := NewManager()
		mock := &mockNotifier{name: "mock"}
		m.Register(mock)

		before := time.Now()
		require.NoError(t, m.Notify(context.Background(), Event{Type: EventSyncSucceeded, Repo: "/srv/app"}))

		sent := mock.sentEvents()[0]
		assert.False(t, sent.Timestamp.Before(before))
	})

	t.Run("joins errors from failed notifiers", func(t *testing.T) {
		m := NewManager()
		errSend := errors.New("send failed")
		m.Register(&mockNotifier{name: "mock1", sendErr: errSend})
		m.Register(&mockNotifier{name: "mock2"})
		m.Register(&mockNotifier{name: "mock3", sendErr: errors.New("another failure")})

		err := m.Notify(context.Background(), testEvent(EventSyncFailed))
		require.Error(t, err)
		assert.ErrorIs(t, err, errSend)
		assert.Contains(t, err.Error(), "mock1")
		assert.Contains(t, err.Error(), "mock3")
		assert.NotContains(t, err.Error(), "mock2")
	})

	t.Run("no notifiers", func(t *testing.T) {
		assert.NoError(t, NewManager().Notify(context.Background(), testEvent(EventSyncSucceeded)))
	})
}

func TestManager_Close(t *testing.T) {
	t.Run("closes all notifiers", func(t *testing.T) {
		m := NewManager()
		m.Register(&mockNotifier{name: "a"})
		m.Register(&mockNotifier{name: "b"})
		assert.NoError(t, m.Close())
	})

	t.Run("reports close errors", func(t *testing.T) {
		m := NewManager()
		m.Register(&mockNotifier{name: "broken", closeErr: errors.New("close failed")})
		err := m.Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
	})
}

func TestFormatMessage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		msg := FormatMessage(testEvent(EventSyncSucceeded))
		assert.Equal(t, "✅ git push origin main succeeded in /srv/app", msg)
	})

	t.Run("failure includes message", func(t *testing.T) {
		event := testEvent(EventSyncFailed)
		event.Message = "exit status 1"
		assert.Equal(t, "❌ git push origin main failed in /srv/app: exit status 1", FormatMessage(event))
	})

	t.Run("unknown type", func(t *testing.T) {
		event := Event{Type: "custom", Repo: "/srv/app", Message: "hello"}
		assert.Equal(t, "[custom] /srv/app: hello", FormatMessage(event))
	})
}

func TestGetEventTitle(t *testing.T) {
	assert.Equal(t, "✅ Sync Succeeded", GetEventTitle(testEvent(EventSyncSucceeded)))
	assert.Equal(t, "❌ Sync Failed", GetEventTitle(testEvent(EventSyncFailed)))
	assert.Equal(t, "custom", GetEventTitle(Event{Type: "custom"}))
}

func TestEventFields(t *testing.T) {
	event := testEvent(EventSyncSucceeded)
	event.Details = map[string]string{"head": "abc1234", "branch": "main"}

	fields := eventFields(event)
	assert.Equal(t, []eventField{
		{Name: "Repository", Value: "/srv/app"},
		{Name: "Operation", Value: "push"},
		{Name: "Command", Value: "git push origin main"},
		{Name: "branch", Value: "main"},
		{Name: "head", Value: "abc1234"},
	}, fields)

	minimal := eventFields(Event{Repo: "/srv/x"})
	assert.Equal(t, []eventField{{Name: "Repository", Value: "/srv/x"}}, minimal)
}
