package ui

import (
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
)

const spinnerInterval = 120 * time.Millisecond

// SpinnerTickMsg advances the flow indicator animation.
type SpinnerTickMsg time.Time

// SpinnerTick returns a command that ticks the spinner animation.
func SpinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return SpinnerTickMsg(t)
	})
}

// SpinnerState tracks the animation frame.
type SpinnerState struct {
	Idx     int
	Started time.Time
}

// NewSpinnerState creates a new spinner starting now.
func NewSpinnerState() *SpinnerState {
	return &SpinnerState{Started: time.Now()}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Advance moves the spinner to the next frame.
func (s *SpinnerState) Advance() {
	s.Idx++
}

// Frame returns the current spinner character.
func (s *SpinnerState) Frame() string {
	return spinnerFrames[s.Idx%len(spinnerFrames)]
}

// Elapsed returns the time since the spinner started.
func (s *SpinnerState) Elapsed() time.Duration {
	return time.Since(s.Started)
}

// RenderSpinner renders the spinner with a label and elapsed time.
func (s *SpinnerState) RenderSpinner(label string) string {
	elapsed := s.Elapsed().Truncate(time.Second)
	frame := ActiveStyle.Render(s.Frame())
	return frame + DimStyle.Render(fmt.Sprintf(" %s %s", label, elapsed))
}
