package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/zhubert/agenttalk/internal/transcript"
)

func TestChat_Content(t *testing.T) {
	t.Parallel()

	c := NewChat("dark", nil)
	c.SetSize(80, 20)
	c.SetWelcome("welcome text")
	if got := c.Content(); got != "welcome text" {
		t.Errorf("empty Content() = %q, want welcome", got)
	}

	tr := transcript.New()
	tr.AddMessage("User", "User", "build a todo app")
	tr.AddPlaceholder("gemini", "Developer")
	c.SetEntries(tr.Entries())

	got := ansi.Strip(c.Content())
	for _, want := range []string{"👤 User", "#1", "build a todo app", "✨ gemini", "Developer is thinking..."} {
		if !strings.Contains(got, want) {
			t.Errorf("Content() missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "welcome text") {
		t.Error("welcome shown alongside entries")
	}
}

func TestChat_Input(t *testing.T) {
	t.Parallel()

	c := NewChat("light", nil)
	c.input.SetValue("hello")
	if got := c.InputValue(); got != "hello" {
		t.Errorf("InputValue() = %q", got)
	}
	c.ResetInput()
	if got := c.InputValue(); got != "" {
		t.Errorf("InputValue() after reset = %q", got)
	}
}
