// Package dispatch routes workflow events to transcript and status effects.
package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/zhubert/agenttalk/internal/stream"
)

// SystemAgent is the synthetic sender used by the backend for summaries.
const SystemAgent = "System"

// Status texts shown by the dispatcher.
const (
	StatusStarting = "Workflow starting..."
	StatusError    = "Error occurred"
	StatusDone     = "All done! Agents are idle."
)

// Dispatcher applies events to its sinks. It keeps no session state of its
// own; the caller passes the session's ActivitySet with every event.
type Dispatcher struct {
	transcript TranscriptSink
	status     StatusSink
	logger     *slog.Logger
}

// New creates a Dispatcher. A nil logger discards output.
func New(transcript TranscriptSink, status StatusSink, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		transcript: transcript,
		status:     status,
		logger:     logger,
	}
}

// Dispatch applies one event. Effects happen synchronously in the order
// listed for each event type.
func (d *Dispatcher) Dispatch(ev stream.Event, state *ActivitySet) {
	d.logger.Debug("dispatch", "event", ev.String(), "active", state.Len())

	switch ev.Type {
	case stream.EventStart:
		text := ev.Message
		if text == "" {
			text = StatusStarting
		}
		d.status.SetStatus(text)
		d.status.SetFlowActive(true)

	case stream.EventThinking:
		if state.Contains(ev.Agent) {
			// Still waiting on the earlier placeholder; keep a single entry.
			d.transcript.RemovePlaceholder(ev.Agent)
		}
		d.transcript.AddPlaceholder(ev.Agent, ev.Role)
		state.Add(ev.Agent)
		d.status.SetNodeActive(ev.Agent, true)
		d.status.SetStatus(fmt.Sprintf("%s is thinking...", ev.Agent))

	case stream.EventMessage:
		d.transcript.RemovePlaceholder(ev.Agent)
		state.Remove(ev.Agent)
		d.status.SetNodeActive(ev.Agent, false)
		d.transcript.AddMessage(ev.Agent, ev.Role, ev.Message)
		if ev.Agent != SystemAgent {
			d.status.SetStatus(fmt.Sprintf("%s completed their response", ev.Agent))
		}

	case stream.EventError:
		d.transcript.AddError(ev.Agent, ev.Error)
		d.clearActive(state)
		d.status.SetStatus(StatusError)

	case stream.EventComplete:
		d.clearActive(state)
		d.status.SetFlowActive(false)
		d.status.SetStatus(StatusDone)

	default:
		d.logger.Warn("dispatch: unknown event type", "type", string(ev.Type))
	}
}

// Abort ends a session that will deliver no more events, after a transport
// failure or cancellation: pending placeholders go, the flow stops and the
// status shows reason.
func (d *Dispatcher) Abort(state *ActivitySet, reason string) {
	d.logger.Debug("abort", "reason", reason, "active", state.Len())
	d.clearActive(state)
	d.status.SetFlowActive(false)
	d.status.SetStatus(reason)
}

// clearActive drops every pending placeholder along with the activity set.
func (d *Dispatcher) clearActive(state *ActivitySet) {
	for _, agent := range state.Agents() {
		d.transcript.RemovePlaceholder(agent)
	}
	state.Clear()
	d.status.ClearNodes()
}
