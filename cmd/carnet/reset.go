package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove every stored collection",
		Long: `Reset clears the whole store, tasks and notes alike, which recovers from a
store that can no longer be written. Attachment files stay in the media
directory; run "carnet note sweep" afterwards to delete them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			return a.withStores(cmd, func(ctx context.Context) error {
				keys, err := a.kv.Keys(ctx)
				if err != nil {
					a.log.Warn("could not list keys before reset", "err", err)
				}
				if err := a.kv.Clear(ctx); err != nil {
					return fmt.Errorf("reset store: %w", err)
				}
				a.log.Info("store reset", "keys", keys)
				fmt.Fprintf(cmd.OutOrStdout(), "Store cleared (%d collections)\n", len(keys))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm wiping the store")
	return cmd
}
