package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Krimson/radar-scope/viewer/internal/plot"
)

func newTicksCmd(opts *options) *cobra.Command {
	var maxTicks int

	cmd := &cobra.Command{
		Use:   "ticks <min> <max>",
		Short: "Print the nice axis ticks for a range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid min %q: %w", args[0], err)
			}
			hi, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid max %q: %w", args[1], err)
			}

			step := plot.NiceStep(hi-lo, maxTicks)
			ticks := plot.NiceTicks(lo, hi, maxTicks)
			labels := make([]string, len(ticks))
			for i, v := range ticks {
				labels[i] = plot.FormatTick(v, step)
			}

			w := cmd.OutOrStdout()
			if opts.jsonOut {
				return json.NewEncoder(w).Encode(map[string]interface{}{
					"step":   step,
					"ticks":  ticks,
					"labels": labels,
				})
			}
			headerColor.Fprintf(w, "step %s\n", plot.FormatTick(step, step))
			for _, l := range labels {
				fmt.Fprintln(w, l)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxTicks, "max-ticks", "m", plot.DefaultMaxTicks, "Maximum number of ticks")
	return cmd
}
