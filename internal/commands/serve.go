package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"udo-backend/internal/api"
	"udo-backend/internal/app"
	"udo-backend/internal/auth"
	"udo-backend/internal/mcpserver"
	"udo-backend/internal/telemetry"
)

var errNoSecret = errors.New("JWT_SECRET is not configured")

func (c *cli) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.JWTSecret == "" {
				return errNoSecret
			}
			if addr == "" {
				addr = c.cfg.HTTPAddr
			}

			shutdown, err := telemetry.Init(cmd.Context(), telemetry.Options{
				Enabled: c.cfg.OTelEnabled,
				Stdout:  c.cfg.OTelStdout,
				Service: "udo",
				Version: c.version,
			})
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(flushCtx); err != nil {
					c.logger.Warn("telemetry flush failed", zap.Error(err))
				}
			}()

			return c.withApp(func(ctx context.Context, a *app.App, _ *cobra.Command, _ []string) error {
				handler := api.NewRouter(api.Deps{
					Orchestrator: a.Orchestrator,
					Gateway:      a.Gateway,
					Events:       a.Events,
					Secret:       []byte(c.cfg.JWTSecret),
					Logger:       c.logger,
				})
				return api.Serve(ctx, addr, handler, c.logger)
			})(cmd, nil)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default HTTP_ADDR)")
	return cmd
}

func (c *cli) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the task list as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *app.App, _ *cobra.Command, _ []string) error {
			return mcpserver.New(a.Orchestrator, c.userID, c.logger).Run(ctx, c.version)
		}),
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.JWTSecret == "" {
				return errNoSecret
			}
			token, err := auth.GenerateToken([]byte(c.cfg.JWTSecret), c.userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	return cmd
}
