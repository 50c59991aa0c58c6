package app

import (
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// EventType names what happened in a session.
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventSessionEnded   EventType = "session_ended"
	EventDispatch       EventType = "dispatch"
)

// Dispatch sources.
const (
	SourceGesture  = "gesture"
	SourcePresence = "presence"
)

// Event is published for session lifecycle changes and every executor call.
type Event struct {
	Type      EventType    `json:"type"`
	SessionID string       `json:"session_id"`
	Mode      gesture.Mode `json:"mode"`
	Action    string       `json:"action,omitempty"`
	Source    string       `json:"source,omitempty"`
	Success   bool         `json:"success"`
	Error     string       `json:"error,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	Time      time.Time    `json:"time"`
}

// Publisher receives session events. Implementations must not block.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }
