// Package events defines the events pushed to live-reload clients.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents the type of event. Values double as the LiveReload
// protocol "command" field.
type EventType string

const (
	// Server -> browser commands
	EventTypeReload EventType = "reload"
	EventTypeAlert  EventType = "alert"

	// Handshake and client info
	EventTypeHello EventType = "hello"
	EventTypeInfo  EventType = "info"
)

// ProtocolOfficial7 is the LiveReload protocol version spoken by the server.
const ProtocolOfficial7 = "http://livereload.com/protocols/official-7"

// Event is the base interface for all events.
type Event interface {
	// Type returns the event type.
	Type() EventType

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// ToJSON serializes the event to its wire form.
	ToJSON() ([]byte, error)
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"command"`
	EventTime time.Time `json:"-"`
}

// Type returns the event type.
func (e *BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e *BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// ToJSON serializes the event to JSON.
func (e *BaseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func newBase(eventType EventType) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		EventTime: time.Now().UTC(),
	}
}
