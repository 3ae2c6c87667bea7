package deliver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// Notification is one entry in a user's in-app inbox.
type Notification struct {
	// UserID is the inbox owner.
	UserID string
	// Content is the message body.
	Content string
	// CreatedAt is when the notification was written.
	CreatedAt time.Time
}

// NotificationSink receives in-app notifications. The SaaS backend plugs
// its own implementation in; InboxSink is the in-memory default.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

// NotificationAdapter delivers content to the in-app notification inbox.
type NotificationAdapter struct {
	sink NotificationSink
}

// NewNotificationAdapter creates a notification adapter backed by sink.
// A nil sink falls back to an in-memory inbox.
func NewNotificationAdapter(sink NotificationSink) *NotificationAdapter {
	if sink == nil {
		sink = NewInboxSink()
	}
	return &NotificationAdapter{sink: sink}
}

// Channel implements Adapter.
func (a *NotificationAdapter) Channel() models.DeliveryChannel {
	return models.ChannelNotification
}

// Send implements Adapter. The destination is the target user ID.
func (a *NotificationAdapter) Send(ctx context.Context, destination, content string) (string, error) {
	n := Notification{UserID: destination, Content: content, CreatedAt: time.Now().UTC()}
	if err := a.sink.Notify(ctx, n); err != nil {
		return "", fmt.Errorf("notify %s: %w", destination, err)
	}
	return fmt.Sprintf("notification queued for %s", destination), nil
}

// InboxSink is an in-memory NotificationSink, used as the default and in tests.
type InboxSink struct {
	mu      sync.Mutex
	entries []Notification
}

// NewInboxSink creates an empty in-memory inbox.
func NewInboxSink() *InboxSink {
	return &InboxSink{}
}

// Notify implements NotificationSink.
func (s *InboxSink) Notify(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, n)
	return nil
}

// Entries returns a copy of all notifications received so far.
func (s *InboxSink) Entries() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.entries))
	copy(out, s.entries)
	return out
}
