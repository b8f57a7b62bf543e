package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened (started, completed, stopped)
type EventType string

const (
	EventTypeStarted   EventType = "started"
	EventTypeCompleted EventType = "completed"
	EventTypeStopped   EventType = "stopped"
)

// EntityType represents what the event is about
type EntityType string

const (
	EntityTypeRun   EntityType = "run"
	EntityTypeBatch EntityType = "batch"
	EntityTypeLoop  EntityType = "loop"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "batch.completed"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "batch"
	Payload   interface{} `json:"payload"`   // Event data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RunStarted creates a run.started event
func RunStarted(payload interface{}) Event {
	return NewEvent(EventTypeStarted, EntityTypeRun, payload)
}

// RunCompleted creates a run.completed event
func RunCompleted(payload interface{}) Event {
	return NewEvent(EventTypeCompleted, EntityTypeRun, payload)
}

// BatchCompleted creates a batch.completed event
func BatchCompleted(payload interface{}) Event {
	return NewEvent(EventTypeCompleted, EntityTypeBatch, payload)
}

// LoopStarted creates a loop.started event
func LoopStarted(payload interface{}) Event {
	return NewEvent(EventTypeStarted, EntityTypeLoop, payload)
}

// LoopStopped creates a loop.stopped event
func LoopStopped(payload interface{}) Event {
	return NewEvent(EventTypeStopped, EntityTypeLoop, payload)
}
