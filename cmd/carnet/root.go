package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"carnet/internal/config"
	"carnet/internal/logging"
	"carnet/internal/ui"
)

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "carnet",
		Short: "A notebook of tasks and notes with attachments",
		Long: `Carnet keeps a todo list and a notebook of dated notes with photos and voice memos.
Run it without arguments for the terminal UI, or use the subcommands for scripting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				path = config.ResolveConfigPath()
			}
			cfg, err := config.LoadOrCreate(path)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
			if a.verbose {
				a.log.SetLevel(log.DebugLevel)
			}
			a.log.Debug("config loaded", "path", path)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// The terminal belongs to the renderer, so logs go to a file.
			f, err := logging.OpenFile(a.cfg.LogPath())
			if err != nil {
				return err
			}
			a.closers = append(a.closers, f)
			a.log = logging.New(f, a.cfg.LogLevel)
			if a.verbose {
				a.log.SetLevel(log.DebugLevel)
			}

			return a.withStores(cmd, func(ctx context.Context) error {
				return ui.Run(ctx, a.tasks, a.notes, a.cfg)
			})
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to config.toml (default $CARNET_CONFIG or the user config dir)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newTaskCmd(a),
		newNoteCmd(a),
		newExportCmd(a),
		newResetCmd(a),
	)
	return root
}
