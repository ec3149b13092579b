package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Krimson/radar-scope/viewer/internal/aggregate"
)

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <files...>",
		Short: "Print the area under |Y| of every series",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, _, err := loadSession(cmd, opts, args)
			if err != nil {
				return err
			}

			slices, err := cs.Summary()
			if err != nil && !errors.Is(err, aggregate.ErrEmptyAggregation) {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOut {
				return json.NewEncoder(w).Encode(slices)
			}
			if len(slices) == 0 {
				warnColor.Fprintln(w, "No series has a positive area")
				return nil
			}

			var total float64
			for _, s := range slices {
				total += s.Value
			}
			headerColor.Fprintf(w, "%-40s %14s %7s\n", "Series", "Area", "Share")
			for _, s := range slices {
				fmt.Fprintf(w, "%-40s %14.6g %6.1f%%\n", s.Name, s.Value, 100*s.Value/total)
			}
			return nil
		},
	}
}
