package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"carnet/internal/notes"
)

func newNoteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes", "n"},
		Short:   "Manage the notebook",
	}
	cmd.AddCommand(
		newNoteWriteCmd(a, false),
		newNoteWriteCmd(a, true),
		newNoteShowCmd(a),
		newNoteListCmd(a),
		newNoteSearchCmd(a),
		newNoteRemoveCmd(a),
		newNoteClearCmd(a),
		newNoteAttachCmd(a),
		newNoteSweepCmd(a),
	)
	return cmd
}

// attachFlags are the attachment options shared by add, edit and attach.
type attachFlags struct {
	images     []string
	audio      []string
	dropImages []int
	dropAudio  []int
}

func (f *attachFlags) register(cmd *cobra.Command, drops bool) {
	cmd.Flags().StringArrayVar(&f.images, "image", nil, "Image file to import and attach (repeatable)")
	cmd.Flags().StringArrayVar(&f.audio, "audio", nil, "Voice memo to attach, as path or path@seconds (repeatable)")
	if drops {
		cmd.Flags().IntSliceVar(&f.dropImages, "drop-image", nil, "Detach the image at this position, as listed by show")
		cmd.Flags().IntSliceVar(&f.dropAudio, "drop-audio", nil, "Detach the memo at this position, as listed by show")
	}
}

// detach drops the listed positions from d. Positions are 1-based, as show
// prints them.
func (f *attachFlags) detach(d *notes.Draft) error {
	for _, i := range descending(f.dropImages) {
		if _, ok := d.RemoveImage(i - 1); !ok {
			return fmt.Errorf("no image at position %d", i)
		}
	}
	for _, i := range descending(f.dropAudio) {
		if _, ok := d.RemoveAudio(i - 1); !ok {
			return fmt.Errorf("no memo at position %d", i)
		}
	}
	return nil
}

// importInto copies the given files into the media dir and adds them to d.
// The returned refs are the copies made, so a caller that ends up not saving
// can discard them.
func (f *attachFlags) importInto(s *notes.Store, d *notes.Draft) ([]string, error) {
	var imported []string
	for _, src := range f.images {
		ref, err := s.ImportImage(src)
		if err != nil {
			return imported, fmt.Errorf("import image: %w", err)
		}
		imported = append(imported, ref)
		d.AddImage(ref)
	}
	for _, arg := range f.audio {
		src, seconds, err := parseAudio(arg)
		if err != nil {
			return imported, err
		}
		ref, err := s.ImportAudio(src)
		if err != nil {
			return imported, fmt.Errorf("import audio: %w", err)
		}
		imported = append(imported, ref)
		d.AddAudio(ref, seconds)
	}
	return imported, nil
}

func (f *attachFlags) empty() bool {
	return len(f.images)+len(f.audio)+len(f.dropImages)+len(f.dropAudio) == 0
}

func parseAudio(arg string) (string, int, error) {
	i := strings.LastIndex(arg, "@")
	if i < 0 {
		return arg, 0, nil
	}
	seconds, err := strconv.Atoi(arg[i+1:])
	if err != nil || seconds < 0 {
		return "", 0, fmt.Errorf("bad memo duration in %q", arg)
	}
	return arg[:i], seconds, nil
}

func descending(positions []int) []int {
	out := slices.Clone(positions)
	slices.Sort(out)
	slices.Reverse(out)
	return slices.Compact(out)
}

func newNoteWriteCmd(a *app, edit bool) *cobra.Command {
	var title, content string
	var files attachFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Write a new note",
		Args:  cobra.NoArgs,
	}
	if edit {
		cmd.Use = "edit [id]"
		cmd.Short = "Change a note's text or attachments"
		cmd.Args = cobra.ExactArgs(1)
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.withStores(cmd, func(ctx context.Context) error {
			var d notes.Draft
			id := ""
			if edit {
				id = args[0]
				n, ok := a.notes.Get(ctx, id)
				if !ok {
					return fmt.Errorf("no note with id %s", id)
				}
				d = notes.DraftOf(n)
			}
			if cmd.Flags().Changed("title") {
				d.Title = title
			}
			if cmd.Flags().Changed("content") {
				d.Content = content
			}
			if err := files.detach(&d); err != nil {
				return err
			}
			if d.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "Empty note discarded")
				return nil
			}
			return saveWithImports(ctx, a, cmd.OutOrStdout(), &files, d, id)
		})
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Note title")
	cmd.Flags().StringVarP(&content, "content", "m", "", "Note body")
	files.register(cmd, edit)
	return cmd
}

// saveWithImports imports the requested files into d and saves it. Copies
// made for a save that does not happen are deleted again.
func saveWithImports(ctx context.Context, a *app, out io.Writer, files *attachFlags, d notes.Draft, id string) error {
	imported, err := files.importInto(a.notes, &d)
	if err != nil {
		a.notes.Discard(ctx, imported)
		return err
	}
	n, saved, err := a.notes.Save(ctx, d, id)
	if err != nil || !saved {
		a.notes.Discard(ctx, imported)
	}
	if err != nil {
		return err
	}
	if !saved {
		fmt.Fprintln(out, "Empty note discarded")
		return nil
	}
	fmt.Fprintf(out, "Saved %s: %s\n", n.ID, notes.Preview(n))
	return nil
}

func newNoteAttachCmd(a *app) *cobra.Command {
	var files attachFlags
	cmd := &cobra.Command{
		Use:   "attach [id]",
		Short: "Attach or detach images and voice memos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if files.empty() {
				return errors.New("nothing to attach: use --image, --audio, --drop-image or --drop-audio")
			}
			id := args[0]
			return a.withStores(cmd, func(ctx context.Context) error {
				n, ok := a.notes.Get(ctx, id)
				if !ok {
					return fmt.Errorf("no note with id %s", id)
				}
				d := notes.DraftOf(n)
				if err := files.detach(&d); err != nil {
					return err
				}
				return saveWithImports(ctx, a, cmd.OutOrStdout(), &files, d, id)
			})
		},
	}
	files.register(cmd, true)
	return cmd
}

func newNoteShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print a note with its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				n, ok := a.notes.Get(ctx, args[0])
				if !ok {
					return fmt.Errorf("no note with id %s", args[0])
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\n%s\n", notes.Preview(n), n.Date)
				if n.Content != "" {
					fmt.Fprintf(out, "\n%s\n", n.Content)
				}
				for i, ref := range n.Images {
					fmt.Fprintf(out, "image %d  %s\n", i+1, ref)
				}
				for i, memo := range n.AudioPaths {
					fmt.Fprintf(out, "memo  %d  %s  %s\n", i+1, memo.URI, notes.FormatDuration(memo.Duration))
				}
				return nil
			})
		},
	}
}

func printNotes(out io.Writer, list []notes.Note) {
	for _, n := range list {
		fmt.Fprintf(out, "%s  %-24s  %s\n", n.ID, notes.Preview(n), n.Date)
		extra := ""
		if k := len(n.Images) + len(n.AudioPaths); k > 0 {
			extra = fmt.Sprintf("  (+%d)", k)
		}
		fmt.Fprintf(out, "    %s%s\n", notes.Excerpt(n), extra)
	}
}

func newNoteListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List notes, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				printNotes(cmd.OutOrStdout(), a.notes.LoadAndSort(ctx))
				return nil
			})
		},
	}
}

func newNoteSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query...]",
		Short: "Find notes whose title or text contains the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				found := a.notes.Search(ctx, strings.Join(args, " "))
				if len(found) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No match")
					return nil
				}
				printNotes(cmd.OutOrStdout(), found)
				return nil
			})
		},
	}
}

func newNoteRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"delete"},
		Short:   "Delete a note and its attachment files",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				ok, err := a.notes.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no note with id %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %s\n", args[0])
				return nil
			})
		},
	}
}

func newNoteClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every note and attachment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete all notes without --yes")
			}
			return a.withStores(cmd, func(ctx context.Context) error {
				if err := a.notes.ClearAll(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All notes and attachments removed")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deleting everything")
	return cmd
}

func newNoteSweepCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete media files no note refers to",
		Long: `Sweep removes files in the media directory that no stored note references,
such as imports from a note that was never saved. Do not run it while the
terminal UI has a note open for editing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				out := cmd.OutOrStdout()
				if dryRun {
					orphans, err := a.notes.Orphans(ctx)
					if err != nil {
						return err
					}
					for _, p := range orphans {
						fmt.Fprintln(out, p)
					}
					fmt.Fprintf(out, "%d orphaned files\n", len(orphans))
					return nil
				}
				removed, err := a.notes.Sweep(ctx)
				if err != nil {
					return err
				}
				for _, p := range removed {
					fmt.Fprintf(out, "removed %s\n", filepath.Base(p))
				}
				fmt.Fprintf(out, "%d orphaned files removed\n", len(removed))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only list what would be removed")
	return cmd
}
