package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Krimson/radar-scope/viewer/internal/emulator"
)

type flags struct {
	output       string
	duration     time.Duration
	rate         time.Duration
	columns      string
	headerStyle  string
	timeUnit     string
	delimiter    string
	decimalComma bool
	seed         int64
	noise        float64
	live         bool
	jitter       time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	def := emulator.DefaultConfig()
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "emulator",
		Short: "Generate synthetic radar recordings",
		Long: `emulator writes radar recordings in the CSV and XLSX layouts the viewer
ingests. With --live it appends one row per sample interval, so a file can be
watched while it grows.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config()
			if err != nil {
				return err
			}
			if f.live {
				return runLive(cfg, f)
			}

			n, err := emulator.WriteFile(f.output, cfg)
			if err != nil {
				return err
			}
			color.Green("✓ %s: %d rows", f.output, n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "radar.csv", "Output file (.csv or .xlsx)")
	cmd.Flags().DurationVarP(&f.duration, "duration", "d", def.Duration, "Recording length")
	cmd.Flags().DurationVarP(&f.rate, "rate", "r", def.SampleRate, "Sample interval")
	cmd.Flags().StringVarP(&f.columns, "columns", "c", "voltage,adc", "Signal columns: voltage, adc, speed, range, snr")
	cmd.Flags().StringVar(&f.headerStyle, "header", string(def.HeaderStyle), "Header style: bracket, suffix or none")
	cmd.Flags().StringVar(&f.timeUnit, "unit", string(def.TimeUnit), "Time column: s, ms, us or timestamp")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", string(def.Delimiter), `Field delimiter: ",", ";" or "tab"`)
	cmd.Flags().BoolVar(&f.decimalComma, "decimal-comma", false, "Write numbers with a decimal comma")
	cmd.Flags().Int64Var(&f.seed, "seed", def.Seed, "Random seed")
	cmd.Flags().Float64Var(&f.noise, "noise", def.Noise, "Noise amplitude")
	cmd.Flags().BoolVar(&f.live, "live", false, "Append rows in real time")
	cmd.Flags().DurationVar(&f.jitter, "jitter", 0, "Tick jitter in live mode")
	return cmd
}

func (f *flags) config() (emulator.Config, error) {
	cfg := emulator.DefaultConfig()
	cfg.Duration = f.duration
	cfg.SampleRate = f.rate
	cfg.HeaderStyle = emulator.HeaderStyle(f.headerStyle)
	cfg.TimeUnit = emulator.TimeUnit(f.timeUnit)
	cfg.DecimalComma = f.decimalComma
	cfg.Seed = f.seed
	cfg.Noise = f.noise
	cfg.Start = time.Now().Truncate(time.Second)

	kinds, err := emulator.ParseKinds(f.columns)
	if err != nil {
		return cfg, err
	}
	cfg.Columns = kinds

	switch f.delimiter {
	case "tab", `\t`:
		cfg.Delimiter = '\t'
	default:
		r := []rune(f.delimiter)
		if len(r) != 1 {
			return cfg, fmt.Errorf("%w: delimiter %q", emulator.ErrInvalidConfig, f.delimiter)
		}
		cfg.Delimiter = r[0]
	}
	return cfg, cfg.Validate()
}

func runLive(cfg emulator.Config, f *flags) error {
	e, err := emulator.New(cfg)
	if err != nil {
		return err
	}
	sink, err := emulator.OpenSink(f.output, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[INFO] Shutting down emulator...")
		cancel()
	}()

	log.Printf("[INFO] Streaming %d rows to %s every %v", cfg.Samples(), f.output, cfg.SampleRate)
	n, err := e.Stream(ctx, sink, emulator.NewTicker(cfg.SampleRate, f.jitter))
	if cerr := sink.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	color.Green("✓ %s: %d rows", f.output, n)
	return nil
}
