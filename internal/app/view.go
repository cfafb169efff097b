package app

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zhubert/agenttalk/internal/ui"
)

// Below this the header, transcript and footer no longer fit.
const (
	minWidth  = 40
	minHeight = ui.HeaderHeight + ui.FooterHeight + 3
)

// View implements tea.Model.
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true

	switch {
	case m.quitting:
		v.SetContent("Goodbye.\n")
	case m.width > 0 && (m.width < minWidth || m.height < minHeight):
		v.SetContent(ui.DimStyle.Render(fmt.Sprintf("Window too small (%dx%d); agenttalk needs at least %dx%d.",
			m.width, m.height, minWidth, minHeight)))
	default:
		v.SetContent(lipgloss.JoinVertical(lipgloss.Left, m.header.View(), m.chat.View(), m.footer.View()))
	}
	return v
}
