package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zhubert/agenttalk/internal/client"
)

const apiTimeout = 30 * time.Second

const helpText = `Commands:
  <request>              Run the sequential workflow
  /discuss <topic>       Run a discussion between the agents
  /rounds <n>            Set the number of discussion rounds
  /status                Show available agents and conversation length
  /reset                 Clear the server-side conversation
  /history               Show the stored conversation
  /ask <agent> <prompt>  Ask a single agent directly
  /expand <n>            Show message n in full
  /collapse <n>          Fold message n
  /code <n> <k>          Toggle code block k of message n
  /last                  Summarize the last workflow
  /clear                 Clear the screen
  /help                  Show this help
  exit, quit             Leave`

// handleSlashCommand processes slash commands.
func (r *Runner) handleSlashCommand(input string, sigCh <-chan os.Signal) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/discuss", "/d":
		topic := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
		if topic == "" {
			r.printError(errors.New("usage: /discuss <topic>"))
			return
		}
		if err := r.processRequest(client.Discussion(topic, r.rounds), sigCh); err != nil {
			r.printError(err)
		}

	case "/rounds", "/r":
		r.setRounds(args)

	case "/status", "/s":
		r.showStatus()

	case "/reset":
		r.reset()

	case "/history":
		r.showHistory()

	case "/ask", "/a":
		if err := r.ask(args); err != nil {
			r.printError(err)
		}

	case "/expand", "/collapse", "/code":
		if err := r.toggleByNumber(cmd, args); err != nil {
			r.printError(err)
		}

	case "/last":
		if r.last == nil {
			fmt.Fprintln(r.out, colorDim+"No workflow has run yet."+colorReset)
			return
		}
		fmt.Fprintln(r.out, r.last.Summary().String())

	case "/clear":
		r.transcript.Reset()
		if r.rl != nil {
			r.rl.Clean()
		}
		fmt.Fprint(r.out, "\033[H\033[2J")

	case "/help", "/h", "/?":
		fmt.Fprintln(r.out, helpText)

	default:
		fmt.Fprintf(r.out, "%sUnknown command: %s. Type /help for available commands.%s\n", colorYellow, cmd, colorReset)
	}
}

func (r *Runner) setRounds(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "Discussion rounds: %d\n", r.rounds)
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		r.printError(errors.New("usage: /rounds <positive number>"))
		return
	}
	r.rounds = n
	fmt.Fprintf(r.out, "%sDiscussion rounds set to %d%s\n", colorGreen, n, colorReset)
}

func (r *Runner) showStatus() {
	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()

	st := r.loadNodes(ctx)
	if st == nil {
		r.printError(fmt.Errorf("server unreachable at %s", r.baseURL))
		return
	}
	r.printAgents(st)
	fmt.Fprintf(r.out, "Conversation length: %d messages\n", st.ConversationLength)
	if st.ProjectPhase != "" {
		fmt.Fprintf(r.out, "Project phase: %s\n", st.ProjectPhase)
	}
}

func (r *Runner) reset() {
	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()

	if err := r.backend.Reset(ctx); err != nil {
		r.printError(fmt.Errorf("failed to reset conversation: %w", err))
		return
	}
	r.transcript.Reset()
	fmt.Fprintln(r.out, colorGreen+"Conversation reset successfully"+colorReset)
}

func (r *Runner) showHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()

	msgs, err := r.backend.Conversation(ctx)
	if err != nil {
		r.printError(fmt.Errorf("failed to load conversation: %w", err))
		return
	}
	if len(msgs) == 0 {
		fmt.Fprintln(r.out, colorDim+"No conversation history yet."+colorReset)
		return
	}
	for _, m := range msgs {
		fmt.Fprintln(r.out, r.RenderHistory(m))
		fmt.Fprintln(r.out)
	}
}

// ask calls one agent directly. The reply is added to the transcript so it
// can be expanded like any workflow message.
func (r *Runner) ask(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: /ask <agent> <prompt>")
	}
	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()

	agent := args[0]
	r.status.SetNodeActive(agent, true)
	r.status.SetStatus(fmt.Sprintf("%s is thinking...", agent))

	reply, err := r.backend.CallAgent(ctx, agent, strings.Join(args[1:], " "))
	r.status.SetNodeActive(agent, false)
	if err != nil {
		r.status.SetStatus(fmt.Sprintf("%s did not answer", agent))
		return fmt.Errorf("asking %s: %w", agent, err)
	}
	r.status.SetStatus(fmt.Sprintf("%s completed their response", reply.Agent))
	r.transcript.AddMessage(reply.Agent, reply.Role, reply.Response)
	return nil
}

// toggleByNumber handles /expand, /collapse and /code. Message numbers count
// from 1 as shown in the rendered labels.
func (r *Runner) toggleByNumber(cmd string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s <message number>", cmd)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid message number %q", args[0])
	}
	entry, ok := r.transcript.Message(n)
	if !ok {
		return fmt.Errorf("no message %d", n)
	}

	switch cmd {
	case "/expand":
		return r.transcript.SetCollapsed(entry.ID, false)
	case "/collapse":
		return r.transcript.SetCollapsed(entry.ID, true)
	}

	if len(args) < 2 {
		return errors.New("usage: /code <message number> <block number>")
	}
	k, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid block number %q", args[1])
	}
	_, err = r.transcript.ToggleCode(entry.ID, k-1)
	return err
}

// RenderHistory renders one stored conversation message.
func (r *Runner) RenderHistory(m client.HistoryMessage) string {
	return r.renderer.RenderHistory(m.Agent, m.Role, m.Message, m.Timestamp)
}

// RenderReply renders a direct agent answer in full.
func (r *Runner) RenderReply(reply *client.AgentReply) string {
	return r.renderer.RenderHistory(reply.Agent, reply.Role, reply.Response, "")
}

func (r *Runner) printError(err error) {
	fmt.Fprintf(r.out, "%sError: %v%s\n", colorRed, err, colorReset)
}
