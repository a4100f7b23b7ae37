// Command velotrack reconstructs straight tracks from detector events and
// keeps a history of runs in a SQLite database.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/velotrack/internal/config"
	"github.com/banshee-data/velotrack/internal/monitoring"
	"github.com/banshee-data/velotrack/internal/velo/l4forward"
	"github.com/banshee-data/velotrack/internal/velo/pipeline"
)

const defaultDBFile = "velotrack.db"

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	dbPath     string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "velotrack",
		Short:         "Straight-line track reconstruction for VELO events",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts.logLevel, cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "tuning config file (.json, .yaml or .yml); built-in defaults when empty")
	pf.StringVar(&opts.dbPath, "db", defaultDBFile, "path to the run database")
	pf.StringVar(&opts.logLevel, "log-level", "ops", "log streams to enable: none, ops, diag or trace")

	root.AddCommand(
		newReconstructCmd(opts),
		newRunsCmd(opts),
		newMigrateCmd(opts),
		newInspectCmd(opts),
		newVersionCmd(),
	)
	return root
}

// setupLogging enables the streams up to and including level.
func setupLogging(level string, w io.Writer) error {
	var ops, diag, trace io.Writer
	switch level {
	case "none":
		monitoring.SetLogger(nil)
	case "trace":
		trace = w
		fallthrough
	case "diag":
		diag = w
		fallthrough
	case "ops":
		ops = w
	default:
		return fmt.Errorf("unknown log level %q (want none, ops, diag or trace)", level)
	}
	pipeline.SetLogWriters(ops, diag, trace)
	return nil
}

// searchConfig resolves the search parameters from --config.
func (o *options) searchConfig() (l4forward.Config, error) {
	if o.configPath == "" {
		return l4forward.DefaultConfig(), nil
	}
	tc, err := config.LoadTuningConfig(o.configPath)
	if err != nil {
		return l4forward.Config{}, err
	}
	return l4forward.ConfigFromTuning(tc), nil
}
