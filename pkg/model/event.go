package model

import "time"

// EventKind classifies scheduler events surfaced to observers.
type EventKind string

const (
	EventScheduled   EventKind = "scheduled"
	EventFinished    EventKind = "finished"
	EventInterrupted EventKind = "interrupted"
	EventRejected    EventKind = "rejected"
	EventFault       EventKind = "fault"
	EventFallback    EventKind = "fallback"
	EventConfigFault EventKind = "config_fault"
)

// EventKinds lists every event kind.
var EventKinds = []EventKind{
	EventScheduled, EventFinished, EventInterrupted, EventRejected,
	EventFault, EventFallback, EventConfigFault,
}

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	for _, known := range EventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the event kind name.
func (k EventKind) String() string {
	return string(k)
}

// Event is one observable scheduler occurrence.
type Event struct {
	Tick      uint64        `json:"tick"`
	Clock     time.Duration `json:"clock"`
	Kind      EventKind     `json:"kind"`
	Action    string        `json:"action"`
	Handle    uint64        `json:"handle,omitempty"`
	Resources []ResourceID  `json:"resources,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Time      time.Time     `json:"time"`
}
