package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/internal/syncengine"
)

// newRootCmd builds the CLI. The returned func releases what the command
// opened and must be called once it has finished.
func newRootCmd() (*cobra.Command, func() error) {
	var (
		configPath string
		offline    bool
		a          *app
	)

	root := &cobra.Command{
		Use:           "notes",
		Short:         "Offline-first notes synced with the notes API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			a, err = newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if !offline {
				a.prober.Probe(cmd.Context())
			}

			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file, environment is used when empty")
	root.PersistentFlags().BoolVar(&offline, "offline", false, "do not contact the API server")

	engine := func() *syncengine.Engine { return a.engine }

	root.AddCommand(
		newCreateCmd(engine),
		newListCmd(engine),
		newShowCmd(engine),
		newApplyCmd("edit <id> <content>", "Replace the content of a note", cobra.MinimumNArgs(2), engine,
			func(args []string) syncengine.Command {
				return syncengine.SetContent{Content: strings.Join(args[1:], " ")}
			}),
		newApplyCmd("rename <id> <title>", "Rename a note", cobra.MinimumNArgs(2), engine,
			func(args []string) syncengine.Command {
				return syncengine.Rename{Title: strings.Join(args[1:], " ")}
			}),
		newApplyCmd("pin <id>", "Toggle the pinned flag", cobra.ExactArgs(1), engine,
			func([]string) syncengine.Command { return syncengine.TogglePin{} }),
		newApplyCmd("favorite <id>", "Toggle the favorite flag", cobra.ExactArgs(1), engine,
			func([]string) syncengine.Command { return syncengine.ToggleFavorite{} }),
		newApplyCmd("tag <id> <tag>", "Add a tag", cobra.ExactArgs(2), engine,
			func(args []string) syncengine.Command { return syncengine.AddTag{Tag: args[1]} }),
		newApplyCmd("untag <id> <tag>", "Remove a tag", cobra.ExactArgs(2), engine,
			func(args []string) syncengine.Command { return syncengine.RemoveTag{Tag: args[1]} }),
		newDeleteCmd(engine),
		newRestoreCmd(engine),
		newSyncCmd(func() *app { return a }),
		newStatusCmd(engine),
		newWatchCmd(func() *app { return a }),
	)

	cleanup := func() error {
		if a == nil {
			return nil
		}
		return a.Close()
	}

	return root, cleanup
}

func newCreateCmd(engine func() *syncengine.Engine) *cobra.Command {
	var (
		title   string
		content string
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			note, err := engine().CreateNote(ctx)
			if err != nil {
				return err
			}

			if title != "" || content != "" || len(tags) > 0 {
				if title != "" {
					note.Title = title
				}
				note.Content = content
				for _, tag := range tags {
					note = note.WithTag(tag)
				}

				if note, err = engine().OnNoteChanged(ctx, note); err != nil {
					return err
				}
			}

			return printNote(cmd.OutOrStdout(), note)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "note title, a dated one is generated when empty")
	cmd.Flags().StringVarP(&content, "content", "m", "", "note content")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags to add")

	return cmd
}

func newListCmd(engine func() *syncengine.Engine) *cobra.Command {
	var (
		asJSON bool
		tag    string
		search string
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List notes, pinned first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			notes, err := engine().ListNotes(cmd.Context(), search)
			if err != nil {
				return err
			}

			if tag != "" {
				filtered := notes[:0]
				for _, n := range notes {
					if n.HasTag(tag) {
						filtered = append(filtered, n)
					}
				}
				notes = filtered
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), notes)
			}

			return printTable(cmd.OutOrStdout(), notes)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().StringVar(&tag, "tag", "", "only notes with this tag")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only notes whose title contains this text, any case")

	return cmd
}

func newShowCmd(engine func() *syncengine.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a note as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			note, err := engine().GetNote(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), note)
		},
	}
}

func newApplyCmd(
	use, short string,
	args cobra.PositionalArgs,
	engine func() *syncengine.Engine,
	build func(args []string) syncengine.Command,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			note, err := engine().Apply(cmd.Context(), args[0], build(args))
			if err != nil {
				return err
			}

			return printNote(cmd.OutOrStdout(), note)
		},
	}
}

func newDeleteCmd(engine func() *syncengine.Engine) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a note, it can be restored for a while",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := engine().Apply(cmd.Context(), args[0], syncengine.Delete{}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newRestoreCmd(engine func() *syncengine.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a deleted note from the API server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			note, err := engine().RestoreNote(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printNote(cmd.OutOrStdout(), note)
		},
	}
}

func newSyncCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull remote notes, push local edits and pending deletes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			if !a.conn.Online() {
				return entity.ErrOffline
			}

			report, err := a.engine.OnConnectivityRestored(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if report.PullFailed {
				fmt.Fprintln(w, "pull failed, local copy kept as is")
			}
			fmt.Fprintf(w, "pulled: %d new, %d updated, %d kept\n",
				report.Merge.Imported, report.Merge.Overwritten, report.Merge.KeptLocal)
			fmt.Fprintf(w, "pushed: %d, failed: %d, rejected: %d\n",
				report.Push.Pushed, len(report.Push.Failed), len(report.Push.Rejected))
			fmt.Fprintf(w, "deletes: %d sent, %d pending\n", report.Flush.Flushed, len(report.Flush.Pending))

			return nil
		},
	}
}

func newStatusCmd(engine func() *syncengine.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and how many notes wait for sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			notes, err := engine().ListNotes(cmd.Context(), "")
			if err != nil {
				return err
			}

			unsynced := 0
			for _, n := range notes {
				if !n.Synced {
					unsynced++
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s, %d notes, %d unsynced\n", engine().Status(), len(notes), unsynced)
			return nil
		},
	}
}

func newWatchCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep syncing in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			eg, ctx := errgroup.WithContext(cmd.Context())

			statuses := a.engine.SubscribeStatus(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), a.engine.Status())

			eg.Go(func() error { return a.prober.Run(ctx) })
			eg.Go(func() error { return a.engine.Run(ctx) })
			eg.Go(func() error {
				for s := range statuses {
					fmt.Fprintln(cmd.OutOrStdout(), s)
				}
				return nil
			})

			if err := eg.Wait(); err != nil && ctx.Err() == nil {
				return err
			}

			return nil
		},
	}
}

func printNote(w io.Writer, n entity.Note) error {
	return printTable(w, []entity.Note{n})
}

func printTable(w io.Writer, notes []entity.Note) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tFLAGS\tTAGS\tSYNCED\tUPDATED")

	for _, n := range notes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			n.ID,
			n.Title,
			flags(n),
			strings.Join(n.Tags, ","),
			n.Synced,
			n.UpdatedAt.Local().Format(time.DateTime),
		)
	}

	return tw.Flush()
}

func flags(n entity.Note) string {
	var b strings.Builder
	if n.Pinned {
		b.WriteString("P")
	}
	if n.Favorite {
		b.WriteString("F")
	}
	if b.Len() == 0 {
		return "-"
	}

	return b.String()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
