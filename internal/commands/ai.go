package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"udo-backend/internal/analytics"
	"udo-backend/internal/app"
	"udo-backend/internal/orchestrator"
	"udo-backend/internal/render"
)

func (c *cli) prioritizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prioritize",
		Short: "Score pending tasks with the AI, highest first",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			ranked, err := a.Orchestrator.Reprioritize(ctx, c.userID)
			if err != nil {
				return err
			}
			if len(ranked) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), render.MutedStyle.Render("Nothing pending."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.TaskList(ranked))
			return nil
		}),
	}
}

func (c *cli) planCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "plan <task-id>",
		Short: "Generate a step-by-step plan for a task",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			t, err := a.Store.Resolve(ctx, c.userID, args[0])
			if err != nil {
				return err
			}

			if cached {
				if t.ExecutionPlan == "" {
					return fmt.Errorf("no plan stored for %s yet", render.ShortID(t.ID))
				}
			} else {
				t, err = a.Orchestrator.GenerateExecutionPlan(ctx, c.userID, t.ID)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, render.TitleStyle.Render(t.Title))
			fmt.Fprintln(out, render.Plan(t.ExecutionPlan))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "show the stored plan without calling the AI")
	return cmd
}

func (c *cli) dailyCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show today's plan, generating it when missing",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			plan, err := a.Store.DailyPlan(ctx, c.userID)
			if err != nil {
				return err
			}

			if plan == "" || refresh {
				plan, err = a.Orchestrator.GenerateDailyPlan(ctx, c.userID)
				if errors.Is(err, orchestrator.ErrNoPendingTasks) {
					fmt.Fprintln(cmd.OutOrStdout(), render.MutedStyle.Render("Nothing pending, enjoy your day."))
					return nil
				}
				if err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.Plan(plan))
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "regenerate even when a plan is stored")
	return cmd
}

func (c *cli) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ask <task-id> <question>",
		Short:   "Ask the tutor about a task",
		Example: `  udo ask 3f2a9c1e "where do I start?"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			t, err := a.Store.Resolve(ctx, c.userID, args[0])
			if err != nil {
				return err
			}
			msg, err := a.Orchestrator.AskTutor(ctx, c.userID, t.ID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.Content)
			return nil
		}),
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completion stats for the last week",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			all, err := a.Store.List(ctx, c.userID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Summary(analytics.Summarize(all, time.Now())))
			return nil
		}),
	}
}
