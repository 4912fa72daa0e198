package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Channels carrying row changes of the admin dashboard tables
const (
	ChannelActivityLogs        = "admin_activity_logs"
	ChannelSystemNotifications = "system_notifications"
)

// Operations reported by the change trigger
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

var (
	// ErrFeedClosed is reported when a subscription stops delivering without being closed
	ErrFeedClosed = errors.New("change feed closed")

	// ErrDisconnected is reported when the feed connection drops
	ErrDisconnected = errors.New("change feed disconnected")
)

// Event is one row change. RecipientID is empty for rows addressed to everyone.
type Event struct {
	Table       string `json:"table"`
	Op          string `json:"op"`
	RecordID    string `json:"record_id"`
	RecipientID string `json:"recipient_id,omitempty"`
}

// ParseEvent decodes a change payload
func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode change event: %w", err)
	}
	if ev.Table == "" {
		return Event{}, fmt.Errorf("change event without table")
	}
	return ev, nil
}

// Handler receives events of one subscription in delivery order
type Handler func(Event)

// ErrorHandler receives subscription failures after Subscribe succeeded
type ErrorHandler func(error)

// Subscription is a live channel subscription
type Subscription interface {
	Close() error
}

// Publisher announces a row change
type Publisher interface {
	Publish(ctx context.Context, channel string, ev Event) error
}

// ChangeFeed delivers row changes per channel
type ChangeFeed interface {
	Publisher
	Subscribe(ctx context.Context, channel string, handler Handler, onError ErrorHandler) (Subscription, error)
}
