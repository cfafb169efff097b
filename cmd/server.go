package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show available agents and conversation state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agent names known to the server",
	Args:  cobra.NoArgs,
	RunE:  runAgents,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the server-side conversation",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var askCmd = &cobra.Command{
	Use:   "ask <agent> <prompt>",
	Short: "Ask a single agent directly",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(statusCmd, agentsCmd, resetCmd, askCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	st, err := e.client.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching status: %w", err)
	}

	fmt.Printf("Server:        %s\n", e.cfg.BaseURL)
	fmt.Printf("Conversation:  %d messages\n", st.ConversationLength)
	if st.ProjectPhase != "" {
		fmt.Printf("Phase:         %s\n", st.ProjectPhase)
	}
	fmt.Println()

	if len(st.AvailableAgents) == 0 {
		fmt.Println("No agents available. Configure API keys on the server.")
		return nil
	}
	fmt.Printf("%-4s %-10s  %-20s  %s\n", "", "AGENT", "ROLE", "MODEL")
	fmt.Println("─────────────────────────────────────────────────────")
	for _, a := range st.AvailableAgents {
		fmt.Printf("%-4s %-10s  %-20s  %s\n", e.agents.Emoji(a.Name), a.Name, a.Role, a.Model)
	}
	return nil
}

func runAgents(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	names, err := e.client.Agents(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing agents: %w", err)
	}
	for _, n := range names {
		fmt.Printf("%s %s\n", e.agents.Emoji(n), n)
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.client.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("resetting conversation: %w", err)
	}
	fmt.Println("Conversation reset successfully")
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	reply, err := e.client.CallAgent(cmd.Context(), args[0], strings.Join(args[1:], " "))
	if err != nil {
		return fmt.Errorf("asking %s: %w", args[0], err)
	}

	fmt.Println(e.runner().RenderReply(reply))
	return nil
}
