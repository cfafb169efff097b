package ui

import (
	"charm.land/lipgloss/v2"
)

// Header renders the top bar: title, server address and the agent nodes.
type Header struct {
	baseURL string
	status  *Status
}

// NewHeader creates a header for the server at baseURL.
func NewHeader(baseURL string, status *Status) *Header {
	return &Header{baseURL: baseURL, status: status}
}

// View renders the header as a string.
func (h *Header) View() string {
	ctx := GetViewContext()
	title := HeaderStyle.Render("agenttalk") + DimStyle.Render(" "+h.baseURL)

	nodes := h.status.NodeLine()
	if nodes == "" {
		nodes = DimStyle.Render("no agents")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		pad(title, ctx.TerminalWidth),
		pad(nodes, ctx.TerminalWidth),
	)
}

func pad(line string, width int) string {
	if padding := width - lipgloss.Width(line); padding > 0 {
		line += lipgloss.NewStyle().Width(padding).Render("")
	}
	return line
}
