package app

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/zhubert/agenttalk/internal/ui"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		ctx := ui.GetViewContext()
		ctx.UpdateTerminalSize(msg.Width, msg.Height)
		m.chat.SetSize(msg.Width, ctx.ContentHeight)

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			m.controller.Cancel()
			m.quitting = true
			return m, tea.Quit

		case "esc":
			if m.controller.Cancel() {
				m.footer.SetFlash(ui.DimStyle.Render("Cancelling..."))
				return m, ui.FlashTick()
			}
			return m, nil

		case "ctrl+d":
			m.discussion = !m.discussion
			m.footer.SetMode(m.discussion, m.rounds)
			return m, nil

		case "ctrl+e":
			m.toggleLast()
			return m, nil

		case "enter":
			input := strings.TrimSpace(m.chat.InputValue())
			if input == "" {
				return m, nil
			}
			m.chat.ResetInput()
			if strings.HasPrefix(input, "/") {
				return m, m.handleSlashCommand(input)
			}
			return m, m.submit(input)
		}

	case StreamChunkMsg:
		if msg.Session != m.active {
			// Stale session: stop listening to it.
			return m, nil
		}
		m.handleChunk(msg.Session, msg.Chunk)
		return m, listenForChunks(msg.Session, m.streamCh)

	case StreamClosedMsg:
		if msg.Session == m.active {
			m.finish(msg.Session)
		}
		return m, nil

	case ui.SpinnerTickMsg:
		if m.status.Advance() || m.active != nil {
			return m, ui.SpinnerTick()
		}
		return m, nil

	case StatusMsg:
		if msg.Err != nil {
			m.logger.Warn("fetching status failed", "error", msg.Err)
			m.footer.SetFlash(ui.ErrorStyle.Render(fmt.Sprintf("Status unavailable: %v", msg.Err)))
			return m, ui.FlashTick()
		}
		m.status.SetNodes(ui.NodesFromStatus(msg.Status))
		return m, nil

	case ResetMsg:
		if msg.Err != nil {
			m.footer.SetFlash(ui.ErrorStyle.Render(fmt.Sprintf("Reset failed: %v", msg.Err)))
		} else {
			m.transcript.Reset()
			m.status.SetStatus("Conversation reset")
			m.footer.SetFlash(ui.SuccessStyle.Render("Conversation reset"))
		}
		return m, ui.FlashTick()

	case ui.FlashTickMsg:
		m.footer.ClearFlash()
		return m, nil
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}
