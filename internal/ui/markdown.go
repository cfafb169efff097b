package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders message prose for the terminal with glamour.
type Markdown struct {
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer for the theme. A width of zero leaves
// wrapping to the terminal. When glamour cannot be set up, text is passed
// through unchanged.
func NewMarkdown(theme string, width int) *Markdown {
	style := "tokyo-night"
	switch theme {
	case "light":
		style = "light"
	case "plain":
		style = "notty"
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &Markdown{}
	}
	return &Markdown{renderer: r}
}

// Render converts markdown to styled terminal output.
func (m *Markdown) Render(content string) string {
	if m == nil || m.renderer == nil || strings.TrimSpace(content) == "" {
		return content
	}
	rendered, err := m.renderer.Render(fenceIndentedBlocks(content))
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// fenceIndentedBlocks turns 4-space indented blocks into ```text fences so
// chroma does not guess a language for them.
func fenceIndentedBlocks(content string) string {
	lines := strings.Split(content, "\n")
	var out []string
	var block []string

	flush := func() {
		if len(block) == 0 {
			return
		}
		out = append(out, "```text")
		for _, l := range block {
			out = append(out, strings.TrimPrefix(l, "    "))
		}
		out = append(out, "```")
		block = nil
	}

	for i, line := range lines {
		indented := strings.HasPrefix(line, "    ")
		blank := strings.TrimSpace(line) == ""
		switch {
		case indented:
			block = append(block, line)
		case blank && len(block) > 0 && nextIndented(lines[i+1:]):
			block = append(block, line)
		default:
			flush()
			out = append(out, line)
		}
	}
	flush()
	return strings.Join(out, "\n")
}

func nextIndented(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		return strings.HasPrefix(l, "    ")
	}
	return false
}
