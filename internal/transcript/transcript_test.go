package transcript

import (
	"errors"
	"strings"
	"testing"

	"github.com/zhubert/agenttalk/internal/dispatch"
)

var _ dispatch.TranscriptSink = (*Transcript)(nil)

func TestTranscript_PlaceholderLifecycle(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.AddPlaceholder("groq", "QA Engineer")
	tr.AddPlaceholder("gemini", "Developer")

	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}

	if !tr.RemovePlaceholder("groq") {
		t.Error("RemovePlaceholder(groq) = false, want true")
	}
	if tr.RemovePlaceholder("groq") {
		t.Error("second RemovePlaceholder(groq) = true, want false")
	}

	tr.AddMessage("groq", "QA Engineer", "looks good")
	entries := tr.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", len(entries))
	}
	if entries[0].Kind != KindPlaceholder || entries[0].Agent != "gemini" {
		t.Errorf("entries[0] = %+v, want gemini placeholder", entries[0])
	}
	if entries[1].Kind != KindMessage || entries[1].Body != "looks good" {
		t.Errorf("entries[1] = %+v, want groq message", entries[1])
	}
	if entries[1].ID == "" || entries[1].CreatedAt.IsZero() {
		t.Error("expected ID and CreatedAt to be set")
	}
}

func TestTranscript_LongMessageToggle(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.AddMessage("chatgpt", "Product Manager", strings.Repeat("a", 850))

	ids := tr.Collapsibles()
	if len(ids) != 1 {
		t.Fatalf("Collapsibles() = %v, want one entry", ids)
	}
	e, _ := tr.Get(ids[0])
	if !e.Collapsed {
		t.Fatal("expected message to start collapsed")
	}

	for i, want := range []bool{false, true} {
		got, err := tr.Toggle(ids[0])
		if err != nil {
			t.Fatalf("Toggle() #%d error: %v", i+1, err)
		}
		if got != want {
			t.Errorf("Toggle() #%d = %v, want %v", i+1, got, want)
		}
	}
}

func TestTranscript_ShortMessageNotCollapsible(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.AddMessage("groq", "QA", "short")
	e := tr.Entries()[0]

	if e.Collapsible || e.Collapsed {
		t.Errorf("short message Collapsible = %v, Collapsed = %v", e.Collapsible, e.Collapsed)
	}
	if _, err := tr.Toggle(e.ID); !errors.Is(err, ErrNotCollapsible) {
		t.Errorf("Toggle() error = %v, want ErrNotCollapsible", err)
	}
	if _, err := tr.Toggle("missing"); !errors.Is(err, ErrNoEntry) {
		t.Errorf("Toggle(missing) error = %v, want ErrNoEntry", err)
	}
}

func TestTranscript_ToggleCodeIndependentOfMessage(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("intro line\n", 12) + "```go\n" + strings.Repeat("x++\n", 12) + "```"
	tr := New()
	tr.AddMessage("gemini", "Developer", body)
	e := tr.Entries()[0]

	if !e.Collapsed {
		t.Fatal("expected message collapsed")
	}
	before := e.Formatted.Segments[e.Formatted.CodeBlocks()[0]].Collapsed
	if !before {
		t.Fatal("expected code block collapsed")
	}

	if _, err := tr.Toggle(e.ID); err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	after, _ := tr.Get(e.ID)
	if !after.Formatted.Segments[after.Formatted.CodeBlocks()[0]].Collapsed {
		t.Error("message toggle changed code block state")
	}

	expanded, err := tr.ToggleCode(e.ID, 0)
	if err != nil {
		t.Fatalf("ToggleCode() error: %v", err)
	}
	if expanded {
		t.Error("ToggleCode() = true, want false (expanded)")
	}
	got, _ := tr.Get(e.ID)
	if got.Collapsed {
		t.Error("code toggle changed message state")
	}

	// Earlier copies are not affected by later toggles.
	if !e.Formatted.Segments[e.Formatted.CodeBlocks()[0]].Collapsed {
		t.Error("copy returned by Entries() was mutated")
	}

	if _, err := tr.ToggleCode(e.ID, 5); !errors.Is(err, ErrNoCodeBlock) {
		t.Errorf("ToggleCode(5) error = %v, want ErrNoCodeBlock", err)
	}
}

func TestTranscript_ErrorAndReset(t *testing.T) {
	t.Parallel()

	tr := New()
	var ops []Op
	tr.OnChange(func(c Change) { ops = append(ops, c.Op) })

	tr.AddError("gemini", "quota exceeded")
	if got := tr.Entries()[0].Body; got != "Error from gemini: quota exceeded" {
		t.Errorf("error body = %q", got)
	}

	tr.Reset()
	if tr.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", tr.Len())
	}
	if len(ops) != 2 || ops[0] != OpAdded || ops[1] != OpReset {
		t.Errorf("ops = %v, want [added reset]", ops)
	}
}

func TestTranscript_MessageAndSetCollapsed(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.AddMessage("User", "User", "hi")
	tr.AddPlaceholder("chatgpt", "Architect")
	tr.AddError("groq", "boom")
	tr.AddMessage("gemini", "Developer", strings.Repeat("x", 900))

	var changes []Op
	tr.OnChange(func(c Change) { changes = append(changes, c.Op) })

	e, ok := tr.Message(2)
	if !ok || e.Agent != "gemini" {
		t.Fatalf("Message(2) = %+v, %v", e, ok)
	}
	if _, ok := tr.Message(3); ok {
		t.Error("expected no third message")
	}
	if _, ok := tr.Message(0); ok {
		t.Error("expected no message 0")
	}

	if err := tr.SetCollapsed(e.ID, false); err != nil {
		t.Fatalf("SetCollapsed() error: %v", err)
	}
	if err := tr.SetCollapsed(e.ID, false); err != nil {
		t.Fatalf("SetCollapsed() error: %v", err)
	}
	if got, _ := tr.Get(e.ID); got.Collapsed {
		t.Error("expected message to be expanded")
	}
	if len(changes) != 1 {
		t.Errorf("expected one change notification, got %d", len(changes))
	}

	first, _ := tr.Message(1)
	if err := tr.SetCollapsed(first.ID, true); !errors.Is(err, ErrNotCollapsible) {
		t.Errorf("expected ErrNotCollapsible, got %v", err)
	}
	if err := tr.SetCollapsed("missing", true); !errors.Is(err, ErrNoEntry) {
		t.Errorf("expected ErrNoEntry, got %v", err)
	}
}
