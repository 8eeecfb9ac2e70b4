package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"carnet/internal/tasks"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "Manage the todo list",
	}
	cmd.AddCommand(
		newTaskAddCmd(a),
		newTaskListCmd(a),
		newTaskDoneCmd(a),
		newTaskRemoveCmd(a),
		newTaskClearCmd(a),
	)
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add [text...]",
		Short: "Append a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				created, ok, err := a.tasks.Add(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Empty task ignored")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s\n", created.ID, created.Value)
				return nil
			})
		},
	}
}

func newTaskListCmd(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks, open ones first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter == "" {
				filter = a.cfg.DefaultFilter
			}
			return a.withStores(cmd, func(ctx context.Context) error {
				all := a.tasks.Load(ctx)
				out := cmd.OutOrStdout()
				for _, t := range tasks.Filter(all, filter) {
					check := "[ ]"
					if t.Completed {
						check = "[x]"
					}
					fmt.Fprintf(out, "%s %s %s\n", t.ID, check, t.Value)
				}
				active, done := tasks.Counts(all)
				fmt.Fprintf(out, "%d open, %d done\n", active, done)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "all, active or done (default from config)")
	return cmd
}

func newTaskDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Toggle whether a task is done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.withStores(cmd, func(ctx context.Context) error {
				list, err := a.tasks.ToggleComplete(ctx, id)
				if err != nil {
					return err
				}
				for _, t := range list {
					if t.ID == id {
						state := "open"
						if t.Completed {
							state = "done"
						}
						fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", t.Value, state)
						return nil
					}
				}
				return fmt.Errorf("no task with id %s", id)
			})
		},
	}
}

func newTaskRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.withStores(cmd, func(ctx context.Context) error {
				before := len(a.tasks.Load(ctx))
				list, err := a.tasks.Delete(ctx, id)
				if err != nil {
					return err
				}
				if len(list) == before {
					return fmt.Errorf("no task with id %s", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
				return nil
			})
		},
	}
}

func newTaskClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete all tasks without --yes")
			}
			return a.withStores(cmd, func(ctx context.Context) error {
				if err := a.tasks.ClearAll(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All tasks cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deleting everything")
	return cmd
}
