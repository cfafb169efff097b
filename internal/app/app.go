// Package app is the full-screen terminal UI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	tea "charm.land/bubbletea/v2"

	"github.com/zhubert/agenttalk/internal/client"
	"github.com/zhubert/agenttalk/internal/dispatch"
	"github.com/zhubert/agenttalk/internal/session"
	"github.com/zhubert/agenttalk/internal/transcript"
	"github.com/zhubert/agenttalk/internal/ui"
)

// Backend is what the TUI needs from the server connection.
type Backend interface {
	session.Streamer
	Status(ctx context.Context) (*client.Status, error)
	Reset(ctx context.Context) error
}

// Options configures the TUI.
type Options struct {
	BaseURL string
	Theme   string
	Rounds  int
	Agents  *ui.AgentTable
	Logger  *slog.Logger
}

// Model is the top-level bubbletea model for the agenttalk TUI.
type Model struct {
	backend    Backend
	controller *session.Controller
	logger     *slog.Logger

	transcript *transcript.Transcript
	status     *ui.Status
	dispatcher *dispatch.Dispatcher

	header *ui.Header
	footer *ui.Footer
	chat   *ui.Chat

	width  int
	height int

	discussion bool
	rounds     int

	// active is the session whose chunks are being read; chunks of any
	// other session are stale and dropped.
	active   *session.Session
	streamCh <-chan session.Chunk

	quitting bool
}

// New creates the root app model.
func New(backend Backend, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Rounds <= 0 {
		opts.Rounds = client.DefaultRounds
	}

	tr := transcript.New()
	status := ui.NewStatus(opts.Agents)
	chat := ui.NewChat(opts.Theme, opts.Agents)
	chat.SetWelcome(ui.DimStyle.Render("Type a project request and press enter. ctrl+d switches to a discussion."))

	m := &Model{
		backend:    backend,
		controller: session.NewController(backend, opts.Logger),
		logger:     opts.Logger,
		transcript: tr,
		status:     status,
		dispatcher: dispatch.New(tr, status, opts.Logger),
		header:     ui.NewHeader(opts.BaseURL, status),
		footer:     ui.NewFooter(status, opts.Rounds),
		chat:       chat,
		rounds:     opts.Rounds,
	}
	tr.OnChange(func(transcript.Change) {
		m.chat.SetEntries(m.transcript.Entries())
	})
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.chat.Focus(), m.fetchStatus())
}

// Run starts the TUI and blocks until it exits.
func Run(ctx context.Context, backend Backend, opts Options) error {
	m := New(backend, opts)
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	m.controller.Cancel()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
