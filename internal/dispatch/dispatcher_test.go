package dispatch

import (
	"reflect"
	"testing"

	"github.com/zhubert/agenttalk/internal/stream"
)

// recorder is a sink that logs every call in order.
type recorder struct {
	calls        []string
	placeholders map[string]int
	status       string
	flow         bool
	nodes        *NodeRegistry
}

func newRecorder(agents ...string) *recorder {
	var descs []Node
	for _, a := range agents {
		descs = append(descs, Node{Agent: a})
	}
	return &recorder{
		placeholders: make(map[string]int),
		nodes:        NewNodeRegistry(descs...),
	}
}

func (r *recorder) AddPlaceholder(agent, role string) {
	r.placeholders[agent]++
	r.calls = append(r.calls, "placeholder:"+agent)
}

func (r *recorder) RemovePlaceholder(agent string) bool {
	if r.placeholders[agent] == 0 {
		return false
	}
	r.placeholders[agent]--
	r.calls = append(r.calls, "unplaceholder:"+agent)
	return true
}

func (r *recorder) AddMessage(agent, role, body string) {
	r.calls = append(r.calls, "message:"+agent+":"+body)
}

func (r *recorder) AddError(agent, description string) {
	r.calls = append(r.calls, "error:"+agent+":"+description)
}

func (r *recorder) SetStatus(text string) {
	r.status = text
	r.calls = append(r.calls, "status:"+text)
}

func (r *recorder) SetFlowActive(active bool) {
	r.flow = active
	if active {
		r.calls = append(r.calls, "flow:on")
	} else {
		r.calls = append(r.calls, "flow:off")
	}
}

func (r *recorder) SetNodeActive(agent string, active bool) {
	r.nodes.SetActive(agent, active)
	if active {
		r.calls = append(r.calls, "node-on:"+agent)
	} else {
		r.calls = append(r.calls, "node-off:"+agent)
	}
}

func (r *recorder) ClearNodes() {
	r.nodes.DeactivateAll()
	r.calls = append(r.calls, "nodes-off")
}

func TestDispatcher_EffectOrder(t *testing.T) {
	t.Parallel()

	rec := newRecorder("groq")
	d := New(rec, rec, nil)
	state := NewActivitySet()

	events := []stream.Event{
		{Type: stream.EventStart, Message: "Starting workflow..."},
		{Type: stream.EventThinking, Agent: "groq", Role: "coder"},
		{Type: stream.EventMessage, Agent: "groq", Role: "coder", Message: "done"},
		{Type: stream.EventMessage, Agent: "System", Role: "Orchestrator", Message: "summary"},
		{Type: stream.EventComplete},
	}
	for _, ev := range events {
		d.Dispatch(ev, state)
	}

	want := []string{
		"status:Starting workflow...",
		"flow:on",
		"placeholder:groq",
		"node-on:groq",
		"status:groq is thinking...",
		"unplaceholder:groq",
		"node-off:groq",
		"message:groq:done",
		"status:groq completed their response",
		"node-off:System",
		"message:System:summary",
		"nodes-off",
		"flow:off",
		"status:" + StatusDone,
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls =\n%q\nwant\n%q", rec.calls, want)
	}
}

func TestDispatcher_StartWithoutMessage(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	New(rec, rec, nil).Dispatch(stream.Event{Type: stream.EventStart}, NewActivitySet())

	if rec.status != StatusStarting {
		t.Errorf("status = %q, want %q", rec.status, StatusStarting)
	}
	if !rec.flow {
		t.Error("expected flow indicator active")
	}
}

func TestDispatcher_ThinkingTwiceKeepsOneEntry(t *testing.T) {
	t.Parallel()

	rec := newRecorder("groq")
	d := New(rec, rec, nil)
	state := NewActivitySet()

	thinking := stream.Event{Type: stream.EventThinking, Agent: "groq", Role: "coder"}
	d.Dispatch(thinking, state)
	d.Dispatch(thinking, state)

	if state.Len() != 1 {
		t.Errorf("state.Len() = %d, want 1", state.Len())
	}
	if rec.placeholders["groq"] != 1 {
		t.Errorf("placeholders = %d, want 1", rec.placeholders["groq"])
	}

	d.Dispatch(stream.Event{Type: stream.EventMessage, Agent: "groq", Message: "ok"}, state)
	if state.Len() != 0 {
		t.Errorf("state.Len() after message = %d, want 0", state.Len())
	}
	if rec.placeholders["groq"] != 0 {
		t.Errorf("placeholders after message = %d, want 0", rec.placeholders["groq"])
	}
}

func TestDispatcher_TerminalEventsClearState(t *testing.T) {
	t.Parallel()

	terminals := []stream.Event{
		{Type: stream.EventError, Agent: "gemini", Error: "quota exceeded"},
		{Type: stream.EventComplete},
	}

	for _, term := range terminals {
		t.Run(string(term.Type), func(t *testing.T) {
			t.Parallel()

			rec := newRecorder("chatgpt", "gemini", "groq")
			d := New(rec, rec, nil)
			state := NewActivitySet()

			for _, a := range []string{"chatgpt", "gemini", "groq"} {
				d.Dispatch(stream.Event{Type: stream.EventThinking, Agent: a}, state)
			}
			if state.Len() != 3 {
				t.Fatalf("state.Len() = %d, want 3", state.Len())
			}

			d.Dispatch(term, state)

			if state.Len() != 0 {
				t.Errorf("state.Len() = %d, want 0", state.Len())
			}
			if active := rec.nodes.ActiveAgents(); len(active) != 0 {
				t.Errorf("active nodes = %v, want none", active)
			}
			for agent, n := range rec.placeholders {
				if n != 0 {
					t.Errorf("placeholder for %s still present", agent)
				}
			}
		})
	}
}

func TestDispatcher_ErrorEntry(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	New(rec, rec, nil).Dispatch(stream.Event{Type: stream.EventError, Agent: "gemini", Error: "boom"}, NewActivitySet())

	if rec.calls[0] != "error:gemini:boom" {
		t.Errorf("first call = %q, want error entry", rec.calls[0])
	}
	if rec.status != StatusError {
		t.Errorf("status = %q, want %q", rec.status, StatusError)
	}
}

func TestDispatcher_ScenarioActivityTransitions(t *testing.T) {
	t.Parallel()

	rec := newRecorder("groq")
	d := New(rec, rec, nil)
	state := NewActivitySet()

	var seen [][]string
	seen = append(seen, state.Agents())
	d.Dispatch(stream.Event{Type: stream.EventThinking, Agent: "groq", Role: "coder"}, state)
	seen = append(seen, state.Agents())
	d.Dispatch(stream.Event{Type: stream.EventMessage, Agent: "groq", Role: "coder", Message: "done"}, state)
	seen = append(seen, state.Agents())

	want := [][]string{{}, {"groq"}, {}}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("activity transitions = %v, want %v", seen, want)
	}
}

func TestDispatcher_Abort(t *testing.T) {
	t.Parallel()

	rec := newRecorder("chatgpt")
	d := New(rec, rec, nil)
	state := NewActivitySet()

	d.Dispatch(stream.Event{Type: stream.EventStart}, state)
	d.Dispatch(stream.Event{Type: stream.EventThinking, Agent: "chatgpt"}, state)
	rec.calls = nil

	d.Abort(state, "Cancelled")

	want := []string{"unplaceholder:chatgpt", "nodes-off", "flow:off", "status:Cancelled"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
	if state.Len() != 0 {
		t.Errorf("state.Len() = %d, want 0", state.Len())
	}
}
