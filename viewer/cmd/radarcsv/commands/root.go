package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Krimson/radar-scope/viewer/internal/chart"
	"github.com/Krimson/radar-scope/viewer/internal/config"
	"github.com/Krimson/radar-scope/viewer/internal/valueparse"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed)
)

type options struct {
	locale  string
	jsonOut bool
}

// NewRootCmd builds the radarcsv command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "radarcsv",
		Short: "Inspect radar CSV and XLSX recordings",
		Long: `radarcsv loads radar recordings the same way the viewer does and prints
the detected series, their area summary, peaks and axis ticks.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.locale, "locale", "l", config.Load().Locale, "Locale for number parsing (e.g. de-DE)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print JSON instead of text")

	root.AddCommand(
		newLoadCmd(opts),
		newSummaryCmd(opts),
		newPeaksCmd(opts),
		newTicksCmd(opts),
	)
	return root
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSession loads every path into a fresh chart session and prints the failures.
func loadSession(cmd *cobra.Command, opts *options, paths []string) (*chart.Session, chart.LoadReport, error) {
	cs := chart.NewSession(valueparse.NewFromString(opts.locale))
	report := cs.Load(paths...)

	if !opts.jsonOut {
		for _, f := range report.Failures {
			errColor.Fprintf(cmd.ErrOrStderr(), "✗ %s\n", f.Error())
		}
	}
	if report.SeriesAdded == 0 {
		return cs, report, fmt.Errorf("no series loaded from %d file(s)", len(paths))
	}
	return cs, report, nil
}
