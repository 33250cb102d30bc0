package pubsub

import (
	"context"
	"encoding/json"
)

// Topics
const (
	TopicViewStatus = "view_status"
	viewTopicPrefix = "session:"
)

// Event types
const (
	EventOpened    = "opened"
	EventSelection = "selection"
	EventReloaded  = "reloaded"
	EventClosed    = "closed"
)

// ViewTopic is the topic carrying one view session's events.
func ViewTopic(sessionID string) string {
	return viewTopicPrefix + sessionID
}

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // e.g. "view_status", "session:<id>"
	Type    string          `json:"type"`    // opened, selection, reloaded, closed
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// ViewStatus is published on view_status whenever a session opens,
// reloads or closes.
type ViewStatus struct {
	SessionID  string `json:"session_id"`
	Collection string `json:"collection"`
	OID        string `json:"oid"`
	Module     string `json:"module"`
	State      string `json:"state"` // same vocabulary as event types
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
}
