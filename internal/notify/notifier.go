// Package notify delivers sync outcome notifications to chat and webhook backends.
package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"
)

// Event describes the outcome of one sync.
type Event struct {
	Type       EventType
	Repo       string
	Operation  string
	Invocation string
	Message    string
	Timestamp  time.Time
	Details    map[string]string
}

// EventType represents the type of notification event.
type EventType string

const (
	EventSyncSucceeded EventType = "sync_succeeded"
	EventSyncFailed    EventType = "sync_failed"
)

// Notifier is the interface for notification backends.
type Notifier interface {
	// Name returns the name of the notifier.
	Name() string

	// Send sends a notification event.
	Send(ctx context.Context, event Event) error

	// Close cleans up any resources.
	Close() error
}

// Manager fans events out to every registered backend.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		notifiers: make([]Notifier, 0),
	}
}

// Register adds a notifier to the manager.
func (m *Manager) Register(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Notify sends event to all registered notifiers concurrently and joins their errors.
func (m *Manager) Notify(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, n := range m.notifiers {
		wg.Add(1)
		go func(notifier Notifier) {
			defer wg.Done()
			if err := notifier.Send(ctx, event); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
				mu.Unlock()
			}
		}(n)
	}
	wg.Wait()

	return stderrors.Join(errs...)
}

// Close closes all registered notifiers.
func (m *Manager) Close() error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return stderrors.Join(errs...)
}

// Count returns the number of registered notifiers.
func (m *Manager) Count() int {
	return len(m.notifiers)
}

// FormatMessage creates a human-readable message from an event.
func FormatMessage(event Event) string {
	switch event.Type {
	case EventSyncSucceeded:
		return fmt.Sprintf("✅ %s succeeded in %s", event.Invocation, event.Repo)
	case EventSyncFailed:
		return fmt.Sprintf("❌ %s failed in %s: %s", event.Invocation, event.Repo, event.Message)
	default:
		return fmt.Sprintf("[%s] %s: %s", event.Type, event.Repo, event.Message)
	}
}

// GetEventTitle returns a human-readable title for an event type.
func GetEventTitle(event Event) string {
	switch event.Type {
	case EventSyncSucceeded:
		return "✅ Sync Succeeded"
	case EventSyncFailed:
		return "❌ Sync Failed"
	default:
		return string(event.Type)
	}
}

// eventField is a backend-neutral name/value pair shown alongside a message.
type eventField struct {
	Name  string
	Value string
}

// eventFields lists the repository, operation and invocation followed by
// any extra details, in a stable order.
func eventFields(event Event) []eventField {
	fields := []eventField{{Name: "Repository", Value: event.Repo}}

	if event.Operation != "" {
		fields = append(fields, eventField{Name: "Operation", Value: event.Operation})
	}
	if event.Invocation != "" {
		fields = append(fields, eventField{Name: "Command", Value: event.Invocation})
	}

	for _, k := range sortedKeys(event.Details) {
		fields = append(fields, eventField{Name: k, Value: event.Details[k]})
	}
	return fields
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// retryableSend executes an HTTP request with retry logic for transient failures.
func retryableSend(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			}

			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("failed to rewind request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		// Don't retry client errors (4xx), only server errors (5xx)
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
