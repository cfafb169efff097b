package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/zhubert/agenttalk/internal/client"
	"github.com/zhubert/agenttalk/internal/dispatch"
	"github.com/zhubert/agenttalk/internal/stream"
)

const readBufferSize = 32 * 1024

// ErrSessionReplaced is the cancellation cause of a session superseded by a
// newer one.
var ErrSessionReplaced = errors.New("session replaced by a newer request")

// errSessionFinished releases a session's context after its stream ended.
var errSessionFinished = errors.New("session finished")

// TransportError reports that the stream could not be opened or broke while
// reading. The session ends after it.
type TransportError struct {
	Op  string // "open" or "read"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Streamer opens a workflow stream. *client.Client implements it.
type Streamer interface {
	OpenStream(ctx context.Context, req client.Request) (io.ReadCloser, error)
}

// ChunkType identifies the kind of chunk.
type ChunkType int

const (
	// ChunkEvent carries a parsed event to dispatch.
	ChunkEvent ChunkType = iota
	// ChunkDiagnostic reports a skipped malformed event or a discarded
	// truncated frame. The session continues.
	ChunkDiagnostic
	// ChunkError carries a TransportError. The session is over.
	ChunkError
	// ChunkDone signals the stream ended.
	ChunkDone
)

// Chunk is one item of a session's output, delivered in arrival order.
type Chunk struct {
	Type  ChunkType
	Event stream.Event
	Err   error
}

type run struct {
	session *Session
	cancel  context.CancelCauseFunc
	done    chan struct{}
}

// Controller runs at most one session at a time. Starting a session cancels
// the previous one and waits for it to wind down before opening the new
// stream.
type Controller struct {
	streamer Streamer
	logger   *slog.Logger

	mu     sync.Mutex
	active *run
}

// NewController creates a controller. A nil logger discards output.
func NewController(streamer Streamer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{streamer: streamer, logger: logger}
}

// Active returns the running session, or nil.
func (c *Controller) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	return c.active.session
}

// Cancel stops the running session, if any. It reports whether there was one.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	r := c.active
	c.mu.Unlock()
	if r == nil {
		return false
	}
	r.cancel(context.Canceled)
	return true
}

// Start opens a stream for req in the background and returns the session and
// its chunk channel. The channel is closed when the session ends; a cancelled
// session may close it without a ChunkError or ChunkDone.
func (c *Controller) Start(ctx context.Context, req client.Request) (*Session, <-chan Chunk, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	sess, err := NewSession(req)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	sess.ctx = ctx
	r := &run{session: sess, cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	prev := c.active
	c.active = r
	c.mu.Unlock()

	out := make(chan Chunk, 16)
	go func() {
		defer close(r.done)
		defer close(out)
		defer c.release(r)
		defer cancel(errSessionFinished)

		if prev != nil {
			c.logger.Info("replacing session", "old", prev.session.ID, "new", sess.ID)
			prev.cancel(ErrSessionReplaced)
			<-prev.done
		}
		c.stream(ctx, sess, req, out)
	}()

	return sess, out, nil
}

func (c *Controller) release(r *run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == r {
		c.active = nil
	}
}

// Run starts a session and dispatches every event on the calling goroutine
// until the stream ends. Once ctx or a newer session stops it, remaining
// chunks are drained without dispatch. It returns the session's
// TransportError, or the cancellation cause.
func (c *Controller) Run(ctx context.Context, req client.Request, d *dispatch.Dispatcher) (*Session, error) {
	sess, chunks, err := c.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	for chunk := range chunks {
		if sess.Stopped() {
			continue
		}
		switch chunk.Type {
		case ChunkEvent:
			d.Dispatch(chunk.Event, sess.Activity)
		case ChunkError:
			return sess, chunk.Err
		}
	}
	if sess.State() == StateCancelled {
		return sess, sess.Err()
	}
	return sess, nil
}

func (c *Controller) stream(ctx context.Context, sess *Session, req client.Request, out chan<- Chunk) {
	logger := c.logger.With("session", sess.ID, "workflow", string(sess.Workflow))

	emit := func(chunk Chunk) bool {
		select {
		case out <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}
	cancelled := func() {
		cause := context.Cause(ctx)
		sess.setState(StateCancelled, cause)
		logger.Info("session cancelled", "cause", cause)
	}
	fail := func(op string, err error) {
		terr := &TransportError{Op: op, Err: err}
		sess.setState(StateFailed, terr)
		logger.Error("transport failure", "op", op, "error", err)
		emit(Chunk{Type: ChunkError, Err: terr})
	}

	if ctx.Err() != nil {
		cancelled()
		return
	}
	sess.setState(StateStreaming, nil)
	logger.Info("session started")

	body, err := c.streamer.OpenStream(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			cancelled()
			return
		}
		fail("open", err)
		return
	}
	defer body.Close()

	dec := stream.NewDecoder()
	buf := make([]byte, readBufferSize)
	sawComplete := false

	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			frames := dec.Feed(buf[:n])
			events, malformed := 0, 0
			for _, frame := range frames {
				ev, ok, perr := stream.Parse(frame)
				if perr != nil {
					malformed++
					logger.Warn("skipping malformed event", "error", perr, "frame", frame)
					if !emit(Chunk{Type: ChunkDiagnostic, Err: perr}) {
						break
					}
					continue
				}
				if !ok {
					continue
				}
				events++
				if ev.Type == stream.EventComplete {
					sawComplete = true
				}
				if !emit(Chunk{Type: ChunkEvent, Event: ev}) {
					break
				}
			}
			sess.count(len(frames), events, malformed)
		}

		if ctx.Err() != nil {
			cancelled()
			return
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			fail("read", rerr)
			return
		}
	}

	if err := dec.Finish(); err != nil {
		logger.Warn("discarding truncated frame at end of stream", "error", err)
		if !emit(Chunk{Type: ChunkDiagnostic, Err: err}) {
			cancelled()
			return
		}
	}

	if !sawComplete {
		logger.Warn("stream ended without complete event")
		if !emit(Chunk{Type: ChunkEvent, Event: stream.Event{Type: stream.EventComplete, Implicit: true}}) {
			cancelled()
			return
		}
	}

	sess.setState(StateComplete, nil)
	summary := sess.Summary()
	logger.Info("session complete", "events", summary.Events, "malformed", summary.Malformed, "frames", summary.Frames)
	emit(Chunk{Type: ChunkDone})
}
