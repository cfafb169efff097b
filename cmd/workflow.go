package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhubert/agenttalk/internal/client"
)

var flagRounds int

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Run the sequential workflow for a project request",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflow(client.Sequential(strings.Join(args, " ")))
	},
}

var discussCmd = &cobra.Command{
	Use:   "discuss <topic>",
	Short: "Have the agents discuss a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflow(client.Discussion(strings.Join(args, " "), flagRounds))
	},
}

func init() {
	discussCmd.Flags().IntVarP(&flagRounds, "rounds", "r", 0, "discussion rounds (default from config)")

	rootCmd.AddCommand(runCmd, discussCmd)
}

func runWorkflow(req client.Request) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	if req.Workflow == client.WorkflowDiscussion && req.Rounds <= 0 {
		req.Rounds = e.cfg.Rounds
	}
	return e.runner().RunOnce(req)
}
