package ui

import (
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zhubert/agenttalk/internal/transcript"
)

const inputHeight = 3

// Chat is the transcript viewport with the request input below it.
type Chat struct {
	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int
	focused  bool
	theme    string

	renderer *Renderer
	welcome  string
	entries  []transcript.Entry
}

// NewChat creates a chat component rendering entries with agents' emoji.
func NewChat(theme string, agents *AgentTable) *Chat {
	ti := textarea.New()
	ti.Placeholder = "Describe what the agents should build..."
	ti.CharLimit = 0
	ti.ShowLineNumbers = false
	ti.SetHeight(inputHeight - 1)
	ti.Focus()

	return &Chat{
		viewport: viewport.New(),
		input:    ti,
		focused:  true,
		theme:    theme,
		renderer: NewRenderer(NewMarkdown(theme, 76), agents),
	}
}

// SetSize updates the chat component dimensions.
func (c *Chat) SetSize(width, height int) {
	if width != c.width {
		c.renderer.Markdown = NewMarkdown(c.theme, max(width-4, 20))
	}
	c.width = width
	c.height = height

	vpHeight := height - inputHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	c.viewport.SetWidth(width)
	c.viewport.SetHeight(vpHeight)
	c.input.SetWidth(width - 2)

	c.updateContent()
}

// Focus gives focus to the text input.
func (c *Chat) Focus() tea.Cmd {
	c.focused = true
	return c.input.Focus()
}

// Blur removes focus from the text input.
func (c *Chat) Blur() {
	c.focused = false
	c.input.Blur()
}

// InputValue returns the current text input value.
func (c *Chat) InputValue() string {
	return c.input.Value()
}

// ResetInput clears the text input.
func (c *Chat) ResetInput() {
	c.input.Reset()
}

// SetWelcome sets the text shown while the transcript is empty.
func (c *Chat) SetWelcome(text string) {
	c.welcome = text
	c.updateContent()
}

// SetEntries replaces the displayed transcript.
func (c *Chat) SetEntries(entries []transcript.Entry) {
	c.entries = entries
	c.updateContent()
}

// Update handles messages for the chat component.
func (c *Chat) Update(msg tea.Msg) (*Chat, tea.Cmd) {
	var cmds []tea.Cmd

	if c.focused {
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	return c, tea.Batch(cmds...)
}

// View renders the chat component.
func (c *Chat) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, c.viewport.View(), c.input.View())
}

// Content returns the rendered transcript text.
func (c *Chat) Content() string {
	if len(c.entries) == 0 {
		return c.welcome
	}
	nums := MessageNumbers(c.entries)
	parts := make([]string, 0, len(c.entries))
	for i, e := range c.entries {
		parts = append(parts, c.renderer.RenderEntry(e, nums[i]))
	}
	return strings.Join(parts, "\n\n")
}

// updateContent follows the stream only while the view is scrolled to the
// bottom, so reading earlier messages is not interrupted.
func (c *Chat) updateContent() {
	follow := c.viewport.AtBottom()
	c.viewport.SetContent(c.Content())
	if follow {
		c.viewport.GotoBottom()
	}
}
