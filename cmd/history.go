package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var flagHistoryFull bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the stored conversation",
	Long:  `Show the conversation the server has stored since the last reset or workflow start.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVarP(&flagHistoryFull, "full", "f", false, "print full messages instead of a table")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	msgs, err := e.client.Conversation(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading conversation: %w", err)
	}

	if len(msgs) == 0 {
		fmt.Println("No conversation history.")
		return nil
	}

	if flagHistoryFull {
		r := e.runner()
		for _, m := range msgs {
			fmt.Println(r.RenderHistory(m))
			fmt.Println()
		}
		return nil
	}

	fmt.Printf("%-10s  %-20s  %-12s  %s\n", "AGENT", "ROLE", "WHEN", "MESSAGE")
	fmt.Println("─────────────────────────────────────────────────────────────────────")

	for _, m := range msgs {
		fmt.Printf("%-10s  %-20s  %-12s  %s\n",
			m.Agent,
			m.Role,
			formatTimestamp(m.Timestamp, time.Now()),
			firstLine(m.Message, 40),
		)
	}

	fmt.Println()
	fmt.Println("Show full messages with: agenttalk history --full")

	return nil
}

// timestampLayout matches the server's ISO 8601 local times, with or without
// fractional seconds.
const timestampLayout = "2006-01-02T15:04:05.999999999"

// formatTimestamp renders a server timestamp relative to now. Unparseable
// values are shown as sent.
func formatTimestamp(ts string, now time.Time) string {
	t, err := time.ParseInLocation(timestampLayout, ts, now.Location())
	if err != nil {
		return ts
	}
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// firstLine returns the first line of s, cut to n runes.
func firstLine(s string, n int) string {
	for i, c := range s {
		if c == '\n' {
			s = s[:i] + " ..."
			break
		}
	}
	if r := []rune(s); len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
