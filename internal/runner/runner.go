// Package runner is the line-oriented REPL surface.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/zhubert/agenttalk/internal/client"
	"github.com/zhubert/agenttalk/internal/dispatch"
	"github.com/zhubert/agenttalk/internal/logging"
	"github.com/zhubert/agenttalk/internal/session"
	"github.com/zhubert/agenttalk/internal/transcript"
	"github.com/zhubert/agenttalk/internal/ui"
	"github.com/zhubert/agenttalk/internal/version"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorDim    = "\033[2m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
)

// markdownWidth is the wrap width for rendered messages.
const markdownWidth = 100

// Backend is the server API used by the REPL.
type Backend interface {
	session.Streamer
	Status(ctx context.Context) (*client.Status, error)
	Reset(ctx context.Context) error
	Conversation(ctx context.Context) ([]client.HistoryMessage, error)
	CallAgent(ctx context.Context, agent, prompt string) (*client.AgentReply, error)
}

// Options configures a Runner.
type Options struct {
	BaseURL string
	Theme   string
	Rounds  int
	Agents  *ui.AgentTable
	Logger  *slog.Logger
	Out     io.Writer
}

// Runner handles the stdin/stdout interaction loop.
type Runner struct {
	backend    Backend
	controller *session.Controller
	logger     *slog.Logger
	out        io.Writer
	baseURL    string
	rounds     int

	transcript *transcript.Transcript
	status     *statusPrinter
	dispatcher *dispatch.Dispatcher
	renderer   *ui.Renderer

	last *session.Session
	rl   *readline.Instance
}

// New creates a new Runner.
func New(backend Backend, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Rounds <= 0 {
		opts.Rounds = client.DefaultRounds
	}

	r := &Runner{
		backend:    backend,
		controller: session.NewController(backend, opts.Logger),
		logger:     opts.Logger,
		out:        opts.Out,
		baseURL:    opts.BaseURL,
		rounds:     opts.Rounds,
		transcript: transcript.New(),
		status:     &statusPrinter{Status: ui.NewStatus(opts.Agents), out: opts.Out},
		renderer:   ui.NewRenderer(ui.NewMarkdown(opts.Theme, markdownWidth), opts.Agents),
	}
	r.dispatcher = dispatch.New(r.transcript, r.status, opts.Logger)
	r.transcript.OnChange(r.printChange)
	return r
}

// Run starts the main interaction loop.
func (r *Runner) Run() error {
	r.printWelcome()

	// Handle ctrl+c gracefully.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	historyFile := ""
	if dir, err := logging.Dir(); err == nil {
		historyFile = filepath.Join(dir, "history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          colorBold + "> " + colorReset,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue // Ctrl+C clears line, continue prompting
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "Goodbye.")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		lower := strings.ToLower(input)
		if lower == "exit" || lower == "quit" {
			fmt.Fprintln(r.out, "Goodbye.")
			return nil
		}

		if strings.HasPrefix(input, "/") {
			r.handleSlashCommand(input, sigCh)
			continue
		}

		if err := r.processRequest(client.Sequential(input), sigCh); err != nil {
			fmt.Fprintf(os.Stderr, "%sError: %v%s\n", colorRed, err, colorReset)
		}
	}
}

// RunOnce streams a single workflow to the terminal, then returns. ctrl+c
// cancels it.
func (r *Runner) RunOnce(req client.Request) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	r.loadNodes(context.Background())
	return r.processRequest(req, sigCh)
}

// processRequest streams one workflow, dispatching every event until the
// stream ends, fails or a signal arrives.
func (r *Runner) processRequest(req client.Request, sigCh <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.transcript.Reset()
	sess, ch, err := r.controller.Start(ctx, req)
	if err != nil {
		return err
	}
	r.last = sess

	for {
		select {
		case <-sigCh:
			cancel()
			r.dispatcher.Abort(sess.Activity, "Cancelled")
			fmt.Fprintln(r.out, colorYellow+"\n[Cancelled]"+colorReset)
			return nil

		case chunk, ok := <-ch:
			if !ok {
				if sess.State() == session.StateCancelled {
					r.dispatcher.Abort(sess.Activity, "Cancelled")
				}
				return nil
			}

			switch chunk.Type {
			case session.ChunkEvent:
				r.dispatcher.Dispatch(chunk.Event, sess.Activity)
			case session.ChunkDiagnostic:
				r.logger.Debug("stream diagnostic", "session", sess.ID, "error", chunk.Err)
			case session.ChunkError:
				r.dispatcher.Abort(sess.Activity, dispatch.StatusError)
				return fmt.Errorf("failed to run workflow: %w", chunk.Err)
			case session.ChunkDone:
				r.logger.Info("workflow finished", "summary", sess.Summary().String())
			}
		}
	}
}

// loadNodes fills the node registry from the status endpoint. Failures are
// logged; the workflow still runs without nodes.
func (r *Runner) loadNodes(ctx context.Context) *client.Status {
	st, err := r.backend.Status(ctx)
	if err != nil {
		r.logger.Warn("fetching status failed", "error", err)
		return nil
	}
	r.status.SetNodes(ui.NodesFromStatus(st))
	return st
}

func (r *Runner) printWelcome() {
	fmt.Fprintf(r.out, "%s🤖 agenttalk%s %sv%s  %s%s\n", colorBold, colorReset, colorDim, version.Version, r.baseURL, colorReset)

	st := r.loadNodes(context.Background())
	if st == nil {
		fmt.Fprintf(r.out, "%sServer unreachable at %s; requests will fail until it is up.%s\n\n", colorYellow, r.baseURL, colorReset)
		return
	}
	r.printAgents(st)
	fmt.Fprintf(r.out, "%sType a project request, /discuss <topic>, or /help.%s\n\n", colorDim, colorReset)
}

func (r *Runner) printAgents(st *client.Status) {
	if len(st.AvailableAgents) == 0 {
		fmt.Fprintf(r.out, "%s⚠  No agents available. Configure API keys on the server.%s\n", colorYellow, colorReset)
		return
	}
	fmt.Fprintln(r.out, "\nAvailable agents:")
	for _, a := range st.AvailableAgents {
		fmt.Fprintf(r.out, "  %s✓%s %s %-10s %s- %s", colorGreen, colorReset,
			r.renderer.Agents.Emoji(a.Name), strings.ToUpper(a.Name), colorDim, a.Role)
		if a.Model != "" {
			fmt.Fprintf(r.out, " (%s)", a.Model)
		}
		fmt.Fprintln(r.out, colorReset)
	}
	fmt.Fprintln(r.out)
}
