package ui

import (
	"fmt"
	"strings"

	"github.com/zhubert/agenttalk/internal/format"
	"github.com/zhubert/agenttalk/internal/transcript"
)

// Preview sizes for collapsed content.
const (
	messagePreviewLines = 4
	messagePreviewChars = 300
	codePreviewLines    = 5
	codePreviewChars    = 240
)

// Renderer turns transcript entries into styled terminal text.
type Renderer struct {
	Markdown *Markdown
	Agents   *AgentTable
}

// NewRenderer creates a renderer. A nil agent table uses the built-in emoji.
func NewRenderer(md *Markdown, agents *AgentTable) *Renderer {
	if agents == nil {
		agents = NewAgentTable(nil)
	}
	return &Renderer{Markdown: md, Agents: agents}
}

// RenderEntry renders one entry. num is the entry's message number used in
// expand hints; zero leaves hints out.
func (r *Renderer) RenderEntry(e transcript.Entry, num int) string {
	switch e.Kind {
	case transcript.KindPlaceholder:
		return r.Agents.Label(e.Agent, e.Role) + DimStyle.Render(" is thinking...")
	case transcript.KindError:
		return ErrorStyle.Bold(true).Render("✗ ") + ErrorStyle.Render(e.Body)
	case transcript.KindNotice:
		return DimStyle.Render("· " + e.Body)
	}

	var b strings.Builder
	b.WriteString(r.Agents.Label(e.Agent, e.Role))
	if num > 0 {
		b.WriteString(DimStyle.Render(fmt.Sprintf("  #%d", num)))
	}
	b.WriteString("\n")

	if e.Collapsed {
		b.WriteString(r.renderPreview(e.Body, num))
		return b.String()
	}
	b.WriteString(r.renderSegments(e.Formatted, num))
	if e.Collapsible && num > 0 {
		b.WriteString("\n" + DimStyle.Render(fmt.Sprintf("/collapse %d to fold", num)))
	}
	return b.String()
}

func (r *Renderer) renderPreview(body string, num int) string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	shown := lines
	if len(shown) > messagePreviewLines {
		shown = shown[:messagePreviewLines]
	}
	preview := truncate(strings.Join(shown, "\n"), messagePreviewChars)

	hint := "… show more"
	if hidden := len(lines) - len(shown); hidden > 0 {
		hint = fmt.Sprintf("… %d more lines", hidden)
	}
	if num > 0 {
		hint += fmt.Sprintf(" · /expand %d", num)
	}
	return preview + "\n" + DimStyle.Render(hint)
}

func (r *Renderer) renderSegments(f format.Formatted, num int) string {
	var parts []string
	block := 0
	for _, s := range f.Segments {
		if s.Kind == format.SegmentText {
			if strings.TrimSpace(s.Text) == "" {
				continue
			}
			parts = append(parts, r.Markdown.Render(s.Text))
			continue
		}
		block++
		parts = append(parts, renderCode(s, num, block))
	}
	return strings.Join(parts, "\n")
}

// renderCode renders a code segment; collapsed blocks show their first lines
// and a hint naming the /code command that expands them.
func renderCode(s format.Segment, num, block int) string {
	lines := strings.Split(strings.Trim(s.Text, "\n"), "\n")

	var b strings.Builder
	if s.Lang != "" {
		b.WriteString(CodeLabel.Render(" "+s.Lang+" ") + "\n")
	}
	if s.Collapsed {
		shown := lines
		if len(shown) > codePreviewLines {
			shown = shown[:codePreviewLines]
		}
		b.WriteString(CodeStyle.Render(truncate(strings.Join(shown, "\n"), codePreviewChars)))
		hint := "… show more"
		if hidden := len(lines) - len(shown); hidden > 0 {
			hint = fmt.Sprintf("… %d more lines", hidden)
		}
		if num > 0 {
			hint += fmt.Sprintf(" · /code %d %d", num, block)
		}
		b.WriteString("\n" + DimStyle.Render(hint))
		return b.String()
	}
	b.WriteString(CodeStyle.Render(strings.Join(lines, "\n")))
	if s.Collapsible && !s.Collapsed && num > 0 {
		b.WriteString("\n" + DimStyle.Render(fmt.Sprintf("/code %d %d to fold", num, block)))
	}
	return b.String()
}

// RenderHistory renders one stored conversation message.
func (r *Renderer) RenderHistory(agent, role, message, timestamp string) string {
	head := r.Agents.Label(agent, role)
	if timestamp != "" {
		head += DimStyle.Render("  " + timestamp)
	}
	return head + "\n" + r.Markdown.Render(message)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// MessageNumbers returns the 1-based message number of each entry; entries
// that are not messages get zero.
func MessageNumbers(entries []transcript.Entry) []int {
	nums := make([]int, len(entries))
	n := 0
	for i, e := range entries {
		if e.Kind == transcript.KindMessage {
			n++
			nums[i] = n
		}
	}
	return nums
}
