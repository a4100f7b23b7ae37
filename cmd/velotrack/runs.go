package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/velotrack/internal/velo/export"
	"github.com/banshee-data/velotrack/internal/velo/storage/sqlite"
)

func newRunsCmd(opts *options) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List, show and delete stored reconstruction runs",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunStore(opts, func(s *sqlite.RunStore) error {
				runs, err := s.ListRuns(limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RUN ID\tEVENT\tCREATED\tHITS\tTRACKS\tSTRONG\tWEAK\tELAPSED")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%v\n",
						r.RunID, r.EventName, r.CreatedAt.Format("2006-01-02 15:04:05"),
						r.HitCount, r.TrackCount, r.StrongCount, r.WeakCount, r.Elapsed)
				}
				return tw.Flush()
			})
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0 for all)")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the header and tracks of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunStore(opts, func(s *sqlite.RunStore) error {
				r, err := s.GetRun(args[0])
				if err != nil {
					return err
				}
				tracks, err := s.GetRunTracks(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s (%s)\n", r.RunID, r.EventName)
				fmt.Fprintf(out, "  sensors=%d hits=%d tracks=%d strong=%d weak=%d weak_rejected=%d\n",
					r.SensorCount, r.HitCount, r.TrackCount, r.StrongCount, r.WeakCount, r.WeakRejected)
				fmt.Fprintf(out, "  assigned=%.1f%% elapsed=%v\n", 100*r.Summary.AssignedFrac, r.Elapsed)
				fmt.Fprintf(out, "  config=%s\n", r.ConfigJSON)
				return export.WriteText(out, tracks)
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run with its tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunStore(opts, func(s *sqlite.RunStore) error {
				if err := s.DeleteRun(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", args[0])
				return nil
			})
		},
	}

	runsCmd.AddCommand(listCmd, showCmd, deleteCmd)
	return runsCmd
}

func newMigrateCmd(opts *options) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the run database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Open already migrates to the latest version.
			db, err := sqlite.Open(opts.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return printVersion(cmd, db)
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sqlite.Open(opts.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.MigrateDown(); err != nil {
				return err
			}
			return printVersion(cmd, db)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sqlite.Open(opts.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return printVersion(cmd, db)
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)
	return migrateCmd
}

func printVersion(cmd *cobra.Command, db *sqlite.DB) error {
	v, dirty, err := db.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", v, dirty)
	return nil
}

func withRunStore(opts *options, fn func(*sqlite.RunStore) error) error {
	db, err := sqlite.Open(opts.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(sqlite.NewRunStore(db))
}
