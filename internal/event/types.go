package event

import (
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Reconciliation lifecycle events
	ReconcileStarted   EventType = "reconcile.started"
	ReconcileCompleted EventType = "reconcile.completed"
	ReconcileFailed    EventType = "reconcile.failed"

	// File lifecycle events
	FileUploaded EventType = "file.uploaded"
	FileDeleted  EventType = "file.deleted"

	// Share lifecycle events
	ShareCreated EventType = "share.created"
	ShareRevoked EventType = "share.revoked"
)

// Event is the unified envelope pushed to subscribers.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// New builds an event stamped with the current time.
func New(t EventType, data any) Event {
	return Event{Type: t, Timestamp: time.Now(), Data: data}
}
