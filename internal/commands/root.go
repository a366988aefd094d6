// Package commands implements the udo command line.
package commands

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"udo-backend/internal/app"
	"udo-backend/internal/config"
	"udo-backend/internal/logging"
)

type cli struct {
	configPath string
	userID     string
	version    string

	cfg    *config.Config
	logger *zap.Logger
	open   func(ctx context.Context) (*app.App, error)
}

// NewRootCmd builds the udo command tree.
func NewRootCmd(version string) *cobra.Command {
	return newCLI(version).root()
}

func newCLI(version string) *cli {
	return &cli{version: version}
}

func (c *cli) root() *cobra.Command {
	root := &cobra.Command{
		Use:   "udo",
		Short: "An AI-assisted task list",
		Long: `udo keeps a task list, scores it with an AI model and writes
step-by-step plans for the tasks you pick. Runs against a local SQLite file
unless STORAGE says otherwise.`,
		Version:           c.version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("UDO_CONFIG"), "path to a YAML config file")
	root.PersistentFlags().StringVarP(&c.userID, "user", "u", "local", "owner of the tasks")

	root.AddCommand(
		c.addCmd(),
		c.listCmd(),
		c.doneCmd(),
		c.cycleCmd(),
		c.rmCmd(),
		c.prioritizeCmd(),
		c.planCmd(),
		c.dailyCmd(),
		c.askCmd(),
		c.statsCmd(),
		c.tokenCmd(),
		c.serveCmd(),
		c.mcpCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.cfg == nil {
		cfg, err := config.LoadLocal(c.configPath)
		if err != nil {
			return err
		}
		c.cfg = cfg
	}

	if c.logger == nil {
		level := ""
		if c.cfg.LogLevel == "debug" {
			level = "debug"
		}
		logger, err := logging.Console(level)
		if err != nil {
			return err
		}
		c.logger = logger
	}

	if err := c.cfg.Validate(); err != nil {
		if !errors.Is(err, config.ErrMissingCredential) {
			return err
		}
		c.logger.Warn("AI_API_KEY is not set, AI commands will fail")
	}

	if c.open == nil {
		c.open = func(ctx context.Context) (*app.App, error) {
			return app.Open(ctx, c.cfg, c.logger)
		}
	}
	return nil
}

type runFunc func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error

// withApp opens storage for the duration of one command.
func (c *cli) withApp(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := c.open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a, cmd, args)
	}
}
