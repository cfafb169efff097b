package app

import (
	"github.com/zhubert/agenttalk/internal/client"
	"github.com/zhubert/agenttalk/internal/session"
)

// StreamChunkMsg wraps a chunk from a session's stream.
type StreamChunkMsg struct {
	Session *session.Session
	Chunk   session.Chunk
}

// StreamClosedMsg reports that a session's chunk channel closed.
type StreamClosedMsg struct {
	Session *session.Session
}

// StatusMsg carries the result of a status fetch.
type StatusMsg struct {
	Status *client.Status
	Err    error
}

// ResetMsg carries the result of a server reset.
type ResetMsg struct {
	Err error
}
