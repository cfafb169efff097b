package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zhubert/agenttalk/internal/app"
	"github.com/zhubert/agenttalk/internal/client"
	"github.com/zhubert/agenttalk/internal/config"
	"github.com/zhubert/agenttalk/internal/logging"
	"github.com/zhubert/agenttalk/internal/runner"
	"github.com/zhubert/agenttalk/internal/ui"
	"github.com/zhubert/agenttalk/internal/version"
)

var (
	flagBaseURL string
	flagConfig  string
	flagTheme   string
	flagTUI     bool
)

var rootCmd = &cobra.Command{
	Use:          "agenttalk",
	Short:        "Watch AI agents collaborate from the terminal",
	Long:         `agenttalk streams multi-agent workflows from an agent collaboration server and renders the conversation as it happens.`,
	Version:      version.String(),
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagBaseURL, "base-url", "", "server base URL (default from config, http://localhost:5000)")
	pf.StringVar(&flagConfig, "config", "", "config file to use instead of ~/.agenttalk/config.yaml and .agenttalk/config.yaml")
	pf.StringVar(&flagTheme, "theme", "", "color theme: dark or light")

	rootCmd.Flags().BoolVar(&flagTUI, "tui", false, "start the full-screen interface instead of the line prompt")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env holds what every command needs once configuration is resolved.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *client.Client
	agents  *ui.AgentTable
	cleanup func() error
}

func setup() (*env, error) {
	cfg, err := config.Loader{File: flagConfig}.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagTheme != "" {
		cfg.Theme = flagTheme
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir, err := logging.Dir()
	if err != nil {
		return nil, err
	}
	logger, cleanup, err := logging.Setup(dir, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	ui.ApplyTheme(cfg.Theme)
	logger.Info("starting agenttalk", "version", version.String(), "base_url", cfg.BaseURL)

	return &env{
		cfg:     cfg,
		logger:  logger,
		client:  client.New(cfg.BaseURL, cfg.RequestTimeout, logger),
		agents:  ui.NewAgentTable(cfg.Agents),
		cleanup: cleanup,
	}, nil
}

func (e *env) close() {
	if err := e.cleanup(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
	}
}

func (e *env) runner() *runner.Runner {
	return runner.New(e.client, runner.Options{
		BaseURL: e.cfg.BaseURL,
		Theme:   e.cfg.Theme,
		Rounds:  e.cfg.Rounds,
		Agents:  e.agents,
		Logger:  e.logger,
	})
}

func runRoot(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	if !flagTUI {
		return e.runner().Run()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, e.client, app.Options{
		BaseURL: e.cfg.BaseURL,
		Theme:   e.cfg.Theme,
		Rounds:  e.cfg.Rounds,
		Agents:  e.agents,
		Logger:  e.logger,
	})
}
