package core

import (
	"fmt"
	"time"
)

// EventType represents the type of change in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// ScopeNotes is the watch scope covering every note of a store.
const ScopeNotes = "notes/**"

// Event represents a change to a single note.
// Delivery is at-least-once: consumers must tolerate duplicates.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, id string) Event {
	return Event{Type: t, ID: id, Timestamp: time.Now().Unix()}
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
