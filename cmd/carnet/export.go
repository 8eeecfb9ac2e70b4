package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"carnet/internal/notes"
	"carnet/internal/tasks"
)

type exportDoc struct {
	ExportedAt time.Time    `yaml:"exported_at"`
	Backend    string       `yaml:"backend"`
	MediaDir   string       `yaml:"media_dir"`
	Tasks      []tasks.Task `yaml:"tasks"`
	Notes      []notes.Note `yaml:"notes"`
}

func writeExport(w io.Writer, doc exportDoc) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return enc.Close()
}

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump tasks and notes as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				doc := exportDoc{
					ExportedAt: time.Now().UTC().Truncate(time.Second),
					Backend:    a.cfg.Backend,
					MediaDir:   a.media.Root(),
					Tasks:      a.tasks.Load(ctx),
					Notes:      a.notes.LoadAndSort(ctx),
				}
				if output == "" || output == "-" {
					return writeExport(cmd.OutOrStdout(), doc)
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := writeExport(f, doc); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				a.log.Info("export written", "path", output, "tasks", len(doc.Tasks), "notes", len(doc.Notes))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
