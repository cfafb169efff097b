package ui

import (
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

const flashDuration = 3 * time.Second

// FlashTickMsg signals the flash message should be cleared.
type FlashTickMsg struct{}

// FlashTick returns a command that clears the flash after a delay.
func FlashTick() tea.Cmd {
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return FlashTickMsg{}
	})
}

// Footer renders the bottom bar: the status line, then the workflow mode and
// key bindings or a flash message.
type Footer struct {
	status     *Status
	flash      string
	discussion bool
	rounds     int
}

// NewFooter creates a footer showing status.
func NewFooter(status *Status, rounds int) *Footer {
	return &Footer{status: status, rounds: rounds}
}

// SetFlash sets a temporary flash message.
func (f *Footer) SetFlash(msg string) {
	f.flash = msg
}

// ClearFlash removes the flash message.
func (f *Footer) ClearFlash() {
	f.flash = ""
}

// SetMode selects the workflow shown in the mode indicator.
func (f *Footer) SetMode(discussion bool, rounds int) {
	f.discussion = discussion
	f.rounds = rounds
}

// Mode returns the workflow label.
func (f *Footer) Mode() string {
	if f.discussion {
		return fmt.Sprintf("discussion ×%d", f.rounds)
	}
	return "sequential"
}

// View renders the footer as a string.
func (f *Footer) View() string {
	ctx := GetViewContext()

	var keys string
	if f.flash != "" {
		keys = f.flash
	} else {
		keys = ActiveStyle.Render(f.Mode()) + FooterStyle.Render("  ") +
			DimStyle.Render("enter") + FooterStyle.Render(" send  ") +
			DimStyle.Render("ctrl+d") + FooterStyle.Render(" mode  ") +
			DimStyle.Render("ctrl+e") + FooterStyle.Render(" expand  ") +
			DimStyle.Render("esc") + FooterStyle.Render(" cancel  ") +
			DimStyle.Render("ctrl+c") + FooterStyle.Render(" quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		pad(f.status.Line(), ctx.TerminalWidth),
		pad(keys, ctx.TerminalWidth),
	)
}
