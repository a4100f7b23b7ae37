package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/velotrack/internal/monitoring"
	"github.com/banshee-data/velotrack/internal/security"
	"github.com/banshee-data/velotrack/internal/velo/event"
	"github.com/banshee-data/velotrack/internal/velo/export"
	"github.com/banshee-data/velotrack/internal/velo/monitor"
	"github.com/banshee-data/velotrack/internal/velo/pipeline"
	"github.com/banshee-data/velotrack/internal/velo/storage/sqlite"
)

type reconstructFlags struct {
	format  string
	plotDir string
	htmlDir string
	verify  bool
	store   bool
}

func newReconstructCmd(opts *options) *cobra.Command {
	f := &reconstructFlags{}
	cmd := &cobra.Command{
		Use:   "reconstruct [event.json...]",
		Short: "Reconstruct tracks from one or more event files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconstruct(cmd, opts, f, args)
		},
	}
	cmd.Flags().StringVar(&f.format, "format", "text", "output format: text or json")
	cmd.Flags().StringVar(&f.plotDir, "plot-dir", "", "write xz/yz PNG projections into this directory")
	cmd.Flags().StringVar(&f.htmlDir, "html", "", "write interactive HTML charts into this directory")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "check exclusivity and track-length guarantees on every result")
	cmd.Flags().BoolVar(&f.store, "store", false, "record each run in the database given by --db")
	return cmd
}

func runReconstruct(cmd *cobra.Command, opts *options, f *reconstructFlags, paths []string) error {
	if f.format != "text" && f.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", f.format)
	}
	cfg, err := opts.searchConfig()
	if err != nil {
		return err
	}

	var runs *sqlite.RunStore
	if f.store {
		db, err := sqlite.Open(opts.dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		runs = sqlite.NewRunStore(db)
	}

	out := cmd.OutOrStdout()
	for _, path := range paths {
		rec, err := event.LoadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		res, err := pipeline.Reconstruct(rec, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if f.verify {
			if err := pipeline.CheckInvariants(res); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}

		if f.format == "json" {
			err = export.WriteJSON(out, res)
		} else {
			err = export.WriteText(out, res.Tracks)
		}
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		name := eventName(path)
		if f.plotDir != "" {
			if _, err := monitor.NewTrackPlotter(f.plotDir).Plot(res, name); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		if f.htmlDir != "" {
			if err := writeCharts(f.htmlDir, name, res); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		if runs != nil {
			runID, err := runs.InsertRun(res, name)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			monitoring.Logf("stored run %s for %s", runID, name)
		}
	}
	return nil
}

func writeCharts(dir, name string, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	for _, proj := range []monitor.Projection{monitor.ProjectionXZ, monitor.ProjectionYZ} {
		path, err := security.ArtifactPath(dir, name, string(proj)+".html")
		if err != nil {
			return err
		}
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s (%s)", name, proj)
		if err := monitor.RenderTrackChart(file, res, proj, title); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
	}
	return nil
}

// eventName is the file name of path without its extension.
func eventName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
