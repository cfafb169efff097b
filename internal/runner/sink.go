package runner

import (
	"fmt"
	"io"

	"github.com/zhubert/agenttalk/internal/transcript"
	"github.com/zhubert/agenttalk/internal/ui"
)

// statusPrinter is the status sink for line-oriented output. It keeps the
// indicator state and prints the status text, followed by the agent nodes,
// whenever that line changes.
type statusPrinter struct {
	*ui.Status
	out  io.Writer
	last string
}

func (s *statusPrinter) SetStatus(text string) {
	s.Status.SetStatus(text)

	line := "  " + text
	if nodes := s.NodeLine(); nodes != "" {
		line += "   " + nodes
	}
	if line == s.last {
		return
	}
	s.last = line
	fmt.Fprintf(s.out, "%s%s%s\n", colorDim, line, colorReset)
}

// printChange writes a transcript change. Removed placeholders are not
// erased; the message that replaces them follows on the next line.
func (r *Runner) printChange(c transcript.Change) {
	switch c.Op {
	case transcript.OpAdded, transcript.OpUpdated:
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, r.renderer.RenderEntry(c.Entry, r.messageNumber(c.Entry.ID)))
	}
}

// messageNumber returns the 1-based message number of the entry with id, or
// zero when it is not a message.
func (r *Runner) messageNumber(id string) int {
	entries := r.transcript.Entries()
	nums := ui.MessageNumbers(entries)
	for i, e := range entries {
		if e.ID == id {
			return nums[i]
		}
	}
	return 0
}
