package commands

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/Krimson/radar-scope/viewer/internal/chart"
	"github.com/Krimson/radar-scope/viewer/internal/plot"
)

type seriesLine struct {
	Name   string  `json:"name"`
	Points int     `json:"points"`
	MinX   float64 `json:"min_x"`
	MaxX   float64 `json:"max_x"`
	MinY   float64 `json:"min_y"`
	MaxY   float64 `json:"max_y"`
}

type loadOutput struct {
	Locale           string           `json:"locale"`
	DecimalSeparator string           `json:"decimal_separator"`
	XTitle           string           `json:"x_title"`
	YTitle           string           `json:"y_title"`
	Bounds           plot.Bounds      `json:"bounds"`
	Series           []seriesLine     `json:"series"`
	Report           chart.LoadReport `json:"report"`
}

func newLoadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "load <files...>",
		Short: "Load files and list the detected series",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, report, err := loadSession(cmd, opts, args)
			if err != nil {
				return err
			}

			xTitle, yTitle := cs.Titles()
			out := loadOutput{
				Locale:           cs.Parser().Tag().String(),
				DecimalSeparator: string(cs.Parser().DecimalSeparator()),
				XTitle:           xTitle,
				YTitle:           yTitle,
				Bounds:           cs.Bounds(),
				Report:           report,
			}
			for _, s := range cs.Series() {
				line := seriesLine{
					Name: s.Name, Points: s.Len(),
					MinX: math.Inf(1), MaxX: math.Inf(-1), MinY: math.Inf(1), MaxY: math.Inf(-1),
				}
				for _, p := range s.Points {
					line.MinX, line.MaxX = math.Min(line.MinX, p.X), math.Max(line.MaxX, p.X)
					line.MinY, line.MaxY = math.Min(line.MinY, p.Y), math.Max(line.MaxY, p.Y)
				}
				out.Series = append(out.Series, line)
			}

			w := cmd.OutOrStdout()
			if opts.jsonOut {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Fprintf(w, "Locale: %s (decimal %q)\n", out.Locale, out.DecimalSeparator)
			headerColor.Fprintf(w, "X: %s    Y: %s\n", out.XTitle, out.YTitle)
			for _, l := range out.Series {
				okColor.Fprintf(w, "✓ %s", l.Name)
				fmt.Fprintf(w, "  points=%d  x=[%g, %g]  y=[%g, %g]\n", l.Points, l.MinX, l.MaxX, l.MinY, l.MaxY)
			}
			fmt.Fprintf(w, "%d series from %d file(s), %d failed\n",
				report.SeriesAdded, len(args)-len(report.Failures), len(report.Failures))
			return nil
		},
	}
}
