// Package transcript holds the ordered conversation entries of the current
// workflow and implements the dispatcher's transcript sink.
package transcript

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhubert/agenttalk/internal/format"
)

var (
	ErrNoEntry        = errors.New("no such entry")
	ErrNotCollapsible = errors.New("entry is not collapsible")
	ErrNoCodeBlock    = errors.New("no such code block")
)

// Kind identifies what an entry shows.
type Kind int

const (
	KindPlaceholder Kind = iota // agent is thinking
	KindMessage
	KindError
	KindNotice // client-side notes, e.g. "conversation cleared"
)

func (k Kind) String() string {
	switch k {
	case KindPlaceholder:
		return "placeholder"
	case KindMessage:
		return "message"
	case KindError:
		return "error"
	case KindNotice:
		return "notice"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entry is one rendered item of the transcript.
type Entry struct {
	ID        string
	Kind      Kind
	Agent     string
	Role      string
	Body      string
	Formatted format.Formatted
	// Collapsible messages start collapsed; Collapsed is the current state.
	Collapsible bool
	Collapsed   bool
	CreatedAt   time.Time
}

// Op is the kind of change reported to listeners.
type Op int

const (
	OpAdded Op = iota
	OpRemoved
	OpUpdated
	OpReset
)

// Change describes one mutation. Entry is zero for OpReset.
type Change struct {
	Op    Op
	Entry Entry
}

// Transcript is an ordered, append-only list of entries; placeholders are
// the only entries ever removed. It is mutated from a single dispatch path
// and is not safe for concurrent use.
type Transcript struct {
	entries   []*Entry
	formatter format.Formatter
	listeners []func(Change)
	now       func() time.Time
}

// New creates an empty transcript using the default formatter.
func New() *Transcript {
	return NewWithFormatter(format.Default)
}

// NewWithFormatter creates an empty transcript that formats message bodies
// with f.
func NewWithFormatter(f format.Formatter) *Transcript {
	return &Transcript{formatter: f, now: time.Now}
}

// OnChange registers fn to be called after every mutation.
func (t *Transcript) OnChange(fn func(Change)) {
	t.listeners = append(t.listeners, fn)
}

func (t *Transcript) notify(op Op, e *Entry) {
	c := Change{Op: op}
	if e != nil {
		c.Entry = *e
	}
	for _, fn := range t.listeners {
		fn(c)
	}
}

func (t *Transcript) add(e *Entry) {
	e.ID = uuid.NewString()
	e.CreatedAt = t.now()
	t.entries = append(t.entries, e)
	t.notify(OpAdded, e)
}

// AddPlaceholder appends a thinking entry for agent.
func (t *Transcript) AddPlaceholder(agent, role string) {
	t.add(&Entry{Kind: KindPlaceholder, Agent: agent, Role: role})
}

// RemovePlaceholder removes the most recent placeholder for agent.
func (t *Transcript) RemovePlaceholder(agent string) bool {
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if e.Kind == KindPlaceholder && e.Agent == agent {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			t.notify(OpRemoved, e)
			return true
		}
	}
	return false
}

// AddMessage appends a formatted message entry.
func (t *Transcript) AddMessage(agent, role, body string) {
	collapse := format.ShouldCollapse(body)
	t.add(&Entry{
		Kind:        KindMessage,
		Agent:       agent,
		Role:        role,
		Body:        body,
		Formatted:   t.formatter.Format(body),
		Collapsible: collapse,
		Collapsed:   collapse,
	})
}

// AddError appends an error entry.
func (t *Transcript) AddError(agent, description string) {
	body := description
	if agent != "" {
		body = fmt.Sprintf("Error from %s: %s", agent, description)
	}
	t.add(&Entry{Kind: KindError, Agent: agent, Body: body})
}

// AddNotice appends a client-side note.
func (t *Transcript) AddNotice(text string) {
	t.add(&Entry{Kind: KindNotice, Body: text})
}

// Reset removes every entry.
func (t *Transcript) Reset() {
	t.entries = nil
	t.notify(OpReset, nil)
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries in order.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = *e
	}
	return out
}

// Get returns the entry with id.
func (t *Transcript) Get(id string) (Entry, bool) {
	e := t.find(id)
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Collapsibles returns the IDs of collapsible message entries in order.
func (t *Transcript) Collapsibles() []string {
	var ids []string
	for _, e := range t.entries {
		if e.Collapsible {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func (t *Transcript) find(id string) *Entry {
	for _, e := range t.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Message returns the n-th message entry, counting from 1. Placeholders,
// errors and notices are not counted.
func (t *Transcript) Message(n int) (Entry, bool) {
	for _, e := range t.entries {
		if e.Kind != KindMessage {
			continue
		}
		if n--; n == 0 {
			return *e, true
		}
	}
	return Entry{}, false
}

// SetCollapsed sets the collapsed state of a message.
func (t *Transcript) SetCollapsed(id string, collapsed bool) error {
	e := t.find(id)
	if e == nil {
		return fmt.Errorf("collapse %s: %w", id, ErrNoEntry)
	}
	if !e.Collapsible {
		return fmt.Errorf("collapse %s: %w", id, ErrNotCollapsible)
	}
	if e.Collapsed != collapsed {
		e.Collapsed = collapsed
		t.notify(OpUpdated, e)
	}
	return nil
}

// Toggle flips the collapsed state of a message. Code block states are left
// alone. It returns the new state.
func (t *Transcript) Toggle(id string) (bool, error) {
	e := t.find(id)
	if e == nil {
		return false, fmt.Errorf("toggle %s: %w", id, ErrNoEntry)
	}
	if !e.Collapsible {
		return false, fmt.Errorf("toggle %s: %w", id, ErrNotCollapsible)
	}
	e.Collapsed = !e.Collapsed
	t.notify(OpUpdated, e)
	return e.Collapsed, nil
}

// ToggleCode flips the n-th (zero based) code block of a message. It returns
// the new state.
func (t *Transcript) ToggleCode(id string, n int) (bool, error) {
	e := t.find(id)
	if e == nil {
		return false, fmt.Errorf("toggle code %s: %w", id, ErrNoEntry)
	}
	blocks := e.Formatted.CodeBlocks()
	if n < 0 || n >= len(blocks) {
		return false, fmt.Errorf("toggle code %s[%d]: %w", id, n, ErrNoCodeBlock)
	}

	// Segments are shared with earlier copies handed out by Entries.
	segs := make([]format.Segment, len(e.Formatted.Segments))
	copy(segs, e.Formatted.Segments)
	seg := &segs[blocks[n]]
	if !seg.Collapsible {
		return false, fmt.Errorf("toggle code %s[%d]: %w", id, n, ErrNotCollapsible)
	}
	seg.Collapsed = !seg.Collapsed
	e.Formatted.Segments = segs

	t.notify(OpUpdated, e)
	return seg.Collapsed, nil
}
