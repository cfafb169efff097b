// Package session drives one streaming workflow from request to completion.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/zhubert/agenttalk/internal/client"
	"github.com/zhubert/agenttalk/internal/dispatch"
)

const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 8
)

// State is the lifecycle position of a session.
type State int

const (
	StateNew State = iota
	StateStreaming
	StateComplete
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateStreaming:
		return "streaming"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no more events will arrive.
func (s State) Terminal() bool {
	return s >= StateComplete
}

// Session is one workflow submission and the stream it consumes. Activity
// is owned by whoever dispatches the session's events.
type Session struct {
	ID       string
	Workflow client.Workflow
	Request  string
	Activity *dispatch.ActivitySet

	mu        sync.Mutex
	state     State
	createdAt time.Time
	updatedAt time.Time
	frames    int
	events    int
	malformed int
	err       error

	// ctx is the run context; it ends with errSessionFinished after a
	// normal end of stream.
	ctx context.Context
}

// NewSession creates a session for req with a generated ID.
func NewSession(req client.Request) (*Session, error) {
	id, err := gonanoid.Generate(idAlphabet, idLength)
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	now := time.Now()
	return &Session{
		ID:        id,
		Workflow:  req.Workflow,
		Request:   req.Text,
		Activity:  dispatch.NewActivitySet(),
		state:     StateNew,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that ended the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stopped reports whether the session was cancelled or replaced. Events
// still buffered for a stopped session must not be dispatched.
func (s *Session) Stopped() bool {
	if s.ctx == nil || s.ctx.Err() == nil {
		return false
	}
	return !errors.Is(context.Cause(s.ctx), errSessionFinished)
}

func (s *Session) setState(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = state
	s.err = err
	s.updatedAt = time.Now()
}

func (s *Session) count(frames, events, malformed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames += frames
	s.events += events
	s.malformed += malformed
	s.updatedAt = time.Now()
}

// Summary is a snapshot of a session for display.
type Summary struct {
	ID        string
	Workflow  client.Workflow
	Request   string
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
	Frames    int
	Events    int
	Malformed int
}

// Summary returns a snapshot of the session's metadata and counters.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		ID:        s.ID,
		Workflow:  s.Workflow,
		Request:   s.Request,
		State:     s.state,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
		Frames:    s.frames,
		Events:    s.events,
		Malformed: s.malformed,
	}
}

// Duration returns the time from creation to the last update.
func (s Summary) Duration() time.Duration {
	return s.UpdatedAt.Sub(s.CreatedAt)
}

func (s Summary) String() string {
	return fmt.Sprintf("%s %s %s: %d events, %d malformed, %s",
		s.ID, s.Workflow, s.State, s.Events, s.Malformed, s.Duration().Round(time.Millisecond))
}
