package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Krimson/radar-scope/viewer/internal/peaks"
	"github.com/Krimson/radar-scope/viewer/internal/series"
)

type seriesPeaks struct {
	Name  string         `json:"name"`
	Peaks []series.Point `json:"peaks"`
}

func newPeaksCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "peaks <files...>",
		Short: "List the local maxima of every series",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, _, err := loadSession(cmd, opts, args)
			if err != nil {
				return err
			}

			var out []seriesPeaks
			for _, s := range cs.Series() {
				sorted := peaks.SortedView(s.Points)
				sp := seriesPeaks{Name: s.Name, Peaks: []series.Point{}}
				for _, i := range peaks.Detect(sorted) {
					if limit > 0 && len(sp.Peaks) >= limit {
						break
					}
					sp.Peaks = append(sp.Peaks, sorted[i])
				}
				out = append(out, sp)
			}

			w := cmd.OutOrStdout()
			if opts.jsonOut {
				return json.NewEncoder(w).Encode(out)
			}
			for _, sp := range out {
				headerColor.Fprintf(w, "%s (%d peaks)\n", sp.Name, len(sp.Peaks))
				for _, p := range sp.Peaks {
					fmt.Fprintf(w, "  x=%-14g y=%g\n", p.X, p.Y)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n peaks per series (0 = all)")
	return cmd
}
