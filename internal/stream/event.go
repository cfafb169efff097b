package stream

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DataPrefix marks a frame that carries an event payload.
const DataPrefix = "data: "

// EventType identifies the kind of workflow lifecycle event.
type EventType string

const (
	EventStart    EventType = "start"
	EventThinking EventType = "thinking"
	EventMessage  EventType = "message"
	EventError    EventType = "error"
	EventComplete EventType = "complete"
)

// Valid reports whether t is one of the known event kinds.
func (t EventType) Valid() bool {
	switch t {
	case EventStart, EventThinking, EventMessage, EventError, EventComplete:
		return true
	}
	return false
}

// Event is one decoded workflow lifecycle occurrence. Which fields are set
// depends on Type:
//
//	start:    Message
//	thinking: Agent, Role
//	message:  Agent, Role, Message
//	error:    Agent, Error
//	complete: (none)
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Agent   string    `json:"agent,omitempty"`
	Role    string    `json:"role,omitempty"`
	Error   string    `json:"error,omitempty"`

	// Implicit is set on a complete event synthesized by the client when the
	// stream closed cleanly without one. It never appears on the wire.
	Implicit bool `json:"-"`
}

// String returns a compact description for logs.
func (e Event) String() string {
	switch e.Type {
	case EventThinking:
		return fmt.Sprintf("thinking(%s)", e.Agent)
	case EventMessage:
		return fmt.Sprintf("message(%s, %d bytes)", e.Agent, len(e.Message))
	case EventError:
		return fmt.Sprintf("error(%s: %s)", e.Agent, e.Error)
	default:
		return string(e.Type)
	}
}

// Parse decodes a frame. Frames without the data prefix (blank keep-alive
// lines, comments, event names) are skipped: ok is false and err is nil.
// A data frame that fails to decode returns an error wrapping ErrMalformedEvent.
func Parse(frame string) (ev Event, ok bool, err error) {
	payload, found := strings.CutPrefix(frame, DataPrefix)
	if !found {
		return Event{}, false, nil
	}

	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, false, fmt.Errorf("%w: decoding payload: %v", ErrMalformedEvent, err)
	}
	if !ev.Type.Valid() {
		return Event{}, false, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, ev.Type)
	}
	return ev, true, nil
}
