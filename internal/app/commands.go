package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/zhubert/agenttalk/internal/client"
	"github.com/zhubert/agenttalk/internal/dispatch"
	"github.com/zhubert/agenttalk/internal/session"
	"github.com/zhubert/agenttalk/internal/ui"
)

const statusTimeout = 10 * time.Second

// submit starts a workflow for the input text, replacing any running one.
func (m *Model) submit(text string) tea.Cmd {
	req := client.Sequential(text)
	if m.discussion {
		req = client.Discussion(text, m.rounds)
	}

	sess, ch, err := m.controller.Start(context.Background(), req)
	if err != nil {
		m.footer.SetFlash(ui.ErrorStyle.Render(err.Error()))
		return ui.FlashTick()
	}
	if m.active != nil {
		m.dispatcher.Abort(m.active.Activity, "Replaced by a new request")
	}

	m.transcript.Reset()
	m.active = sess
	m.streamCh = ch
	m.logger.Info("workflow submitted", "session", sess.ID, "workflow", string(req.Workflow))

	return tea.Batch(listenForChunks(sess, ch), ui.SpinnerTick())
}

// handleChunk applies one chunk of the active session.
func (m *Model) handleChunk(sess *session.Session, chunk session.Chunk) {
	switch chunk.Type {
	case session.ChunkEvent:
		m.dispatcher.Dispatch(chunk.Event, sess.Activity)
	case session.ChunkDiagnostic:
		m.logger.Debug("stream diagnostic", "session", sess.ID, "error", chunk.Err)
	case session.ChunkError:
		m.transcript.AddError("", fmt.Sprintf("Failed to run workflow: %v", chunk.Err))
		m.dispatcher.Abort(sess.Activity, dispatch.StatusError)
	}
}

// finish handles the end of the active session's channel.
func (m *Model) finish(sess *session.Session) {
	if sess.State() == session.StateCancelled && !errors.Is(sess.Err(), session.ErrSessionReplaced) {
		m.dispatcher.Abort(sess.Activity, "Cancelled")
		m.transcript.AddNotice("Workflow cancelled")
	}
	m.active = nil
	m.streamCh = nil
}

func (m *Model) fetchStatus() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
		defer cancel()
		st, err := backend.Status(ctx)
		return StatusMsg{Status: st, Err: err}
	}
}

func (m *Model) resetServer() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
		defer cancel()
		return ResetMsg{Err: backend.Reset(ctx)}
	}
}

// toggleLast flips the most recent collapsible message.
func (m *Model) toggleLast() {
	ids := m.transcript.Collapsibles()
	if len(ids) == 0 {
		return
	}
	if _, err := m.transcript.Toggle(ids[len(ids)-1]); err != nil {
		m.logger.Warn("toggle failed", "error", err)
	}
}

// handleSlashCommand processes slash commands and returns an appropriate tea.Cmd.
func (m *Model) handleSlashCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/discuss", "/d":
		topic := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
		prev := m.discussion
		m.discussion = true
		c := m.submit(topic)
		m.discussion = prev
		return c
	case "/rounds", "/r":
		return m.setRounds(args)
	case "/status", "/s":
		return m.fetchStatus()
	case "/reset":
		m.controller.Cancel()
		return m.resetServer()
	case "/clear":
		m.transcript.Reset()
		return nil
	case "/expand", "/collapse", "/code":
		if err := m.toggleByNumber(cmd, args); err != nil {
			m.footer.SetFlash(ui.ErrorStyle.Render(err.Error()))
			return ui.FlashTick()
		}
		return nil
	case "/help", "/h", "/?":
		m.transcript.AddNotice(helpText)
		return nil
	default:
		m.footer.SetFlash(ui.ErrorStyle.Render(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)))
		return ui.FlashTick()
	}
}

const helpText = `Available commands:
  /discuss <topic>    - Start a discussion (ctrl+d toggles discussion mode)
  /rounds <n>         - Set the number of discussion rounds
  /status             - Refresh the agent list
  /reset              - Reset the server conversation
  /clear              - Clear the transcript
  /expand <n>         - Expand message n
  /collapse <n>       - Collapse message n
  /code <n> <k>       - Toggle code block k of message n
  /help               - Show this help message`

func (m *Model) setRounds(args []string) tea.Cmd {
	if len(args) == 0 {
		m.footer.SetFlash(fmt.Sprintf("Discussion rounds: %d", m.rounds))
		return ui.FlashTick()
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		m.footer.SetFlash(ui.ErrorStyle.Render("Usage: /rounds <positive number>"))
		return ui.FlashTick()
	}
	m.rounds = n
	m.footer.SetMode(m.discussion, n)
	m.footer.SetFlash(ui.SuccessStyle.Render(fmt.Sprintf("Discussion rounds set to %d", n)))
	return ui.FlashTick()
}

// toggleByNumber implements /expand, /collapse and /code against message
// numbers as shown in the transcript.
func (m *Model) toggleByNumber(cmd string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s <message number>", cmd)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid message number %q", args[0])
	}
	e, ok := m.transcript.Message(n)
	if !ok {
		return fmt.Errorf("no message %d", n)
	}

	switch cmd {
	case "/expand":
		return m.transcript.SetCollapsed(e.ID, false)
	case "/collapse":
		return m.transcript.SetCollapsed(e.ID, true)
	}

	if len(args) < 2 {
		return errors.New("usage: /code <message number> <block number>")
	}
	k, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid block number %q", args[1])
	}
	_, err = m.transcript.ToggleCode(e.ID, k-1)
	return err
}
