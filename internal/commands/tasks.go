package commands

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"udo-backend/internal/app"
	"udo-backend/internal/render"
	"udo-backend/internal/tasks"
)

func (c *cli) addCmd() *cobra.Command {
	var (
		desc     string
		url      string
		sanitize bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Example: `  udo add "write the quarterly report"
  udo add -s gym`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			t, err := a.Orchestrator.CreateTask(ctx, c.userID, tasks.Draft{
				Title:       strings.Join(args, " "),
				Description: desc,
				URL:         url,
			}, sanitize)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Added", render.TaskLine(t))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&desc, "desc", "d", "", "longer description")
	cmd.Flags().StringVar(&url, "url", "", "link attached to the task")
	cmd.Flags().BoolVarP(&sanitize, "sanitize", "s", false, "let the AI rewrite short titles into a goal")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var pending, byPriority bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks, newest first or by stored priority",
		Args:    cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			var (
				all []tasks.Task
				err error
			)
			if pending {
				all, err = a.Store.Pending(ctx, c.userID)
			} else {
				all, err = a.Store.List(ctx, c.userID)
			}
			if err != nil {
				return err
			}
			if byPriority {
				slices.SortStableFunc(all, func(a, b tasks.Task) int { return cmp.Compare(b.Priority, a.Priority) })
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.TaskList(all))
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&pending, "pending", "p", false, "hide finished tasks")
	cmd.Flags().BoolVar(&byPriority, "by-priority", false, "sort by the scores saved by prioritize")
	return cmd
}

func (c *cli) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			t, err := a.Store.Resolve(ctx, c.userID, args[0])
			if err != nil {
				return err
			}
			done := tasks.StatusDone
			t, err = a.Store.Update(ctx, c.userID, t.ID, tasks.Patch{Status: &done})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Marked %s as done: %s\n", render.ShortID(t.ID), t.Title)
			return nil
		}),
	}
}

func (c *cli) cycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <task-id>",
		Short: "Move a task to its next status (todo, in progress, done)",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			t, err := a.Store.Resolve(ctx, c.userID, args[0])
			if err != nil {
				return err
			}
			t, err = a.Store.CycleStatus(ctx, c.userID, t.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.TaskLine(t))
			return nil
		}),
	}
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <task-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			t, err := a.Store.Resolve(ctx, c.userID, args[0])
			if err != nil {
				return err
			}
			if err := a.Store.Delete(ctx, c.userID, t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗑  Deleted %s: %s\n", render.ShortID(t.ID), t.Title)
			return nil
		}),
	}
}
