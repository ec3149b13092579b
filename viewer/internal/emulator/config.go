package emulator

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidConfig = errors.New("invalid emulator configuration")

// HeaderStyle selects how column names are written.
type HeaderStyle string

const (
	// HeaderBracket writes "Time [ms]", "Radar Voltage [V]".
	HeaderBracket HeaderStyle = "bracket"
	// HeaderSuffix writes "time_ms", "radar_voltage".
	HeaderSuffix HeaderStyle = "suffix"
	// HeaderNone writes data rows only.
	HeaderNone HeaderStyle = "none"
)

// TimeUnit of the time column.
type TimeUnit string

const (
	UnitSeconds      TimeUnit = "s"
	UnitMilliseconds TimeUnit = "ms"
	UnitMicroseconds TimeUnit = "us"
	// UnitTimestamp writes wall-clock timestamps instead of elapsed time.
	UnitTimestamp TimeUnit = "timestamp"
)

// Config describes one synthetic recording.
type Config struct {
	Duration     time.Duration
	SampleRate   time.Duration
	Columns      []Kind
	HeaderStyle  HeaderStyle
	TimeUnit     TimeUnit
	Delimiter    rune
	DecimalComma bool
	Start        time.Time
	Seed         int64
	Noise        float64
}

// DefaultConfig is ten seconds of radar voltage and ADC sampled every 10 ms.
func DefaultConfig() Config {
	return Config{
		Duration:    10 * time.Second,
		SampleRate:  10 * time.Millisecond,
		Columns:     []Kind{KindVoltage, KindADC},
		HeaderStyle: HeaderSuffix,
		TimeUnit:    UnitMilliseconds,
		Delimiter:   ',',
		Start:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:        1,
		Noise:       0.02,
	}
}

// Samples returns the number of rows the config produces.
func (c Config) Samples() int {
	if c.SampleRate <= 0 {
		return 0
	}
	return int(c.Duration/c.SampleRate) + 1
}

// Validate checks the config before generation.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	case c.Duration < 0:
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidConfig)
	case len(c.Columns) == 0:
		return fmt.Errorf("%w: at least one column is required", ErrInvalidConfig)
	case c.DecimalComma && c.Delimiter == ',':
		return fmt.Errorf("%w: decimal comma needs a ';' or tab delimiter", ErrInvalidConfig)
	case c.Noise < 0:
		return fmt.Errorf("%w: noise must not be negative", ErrInvalidConfig)
	}

	switch c.HeaderStyle {
	case HeaderBracket, HeaderSuffix, HeaderNone:
	default:
		return fmt.Errorf("%w: unknown header style %q", ErrInvalidConfig, c.HeaderStyle)
	}
	switch c.TimeUnit {
	case UnitSeconds, UnitMilliseconds, UnitMicroseconds, UnitTimestamp:
	default:
		return fmt.Errorf("%w: unknown time unit %q", ErrInvalidConfig, c.TimeUnit)
	}
	switch c.Delimiter {
	case ',', ';', '\t':
	default:
		return fmt.Errorf("%w: unsupported delimiter %q", ErrInvalidConfig, c.Delimiter)
	}

	for _, k := range c.Columns {
		if _, ok := columnNames[k]; !ok {
			return fmt.Errorf("%w: unknown column %q", ErrInvalidConfig, k)
		}
	}
	return nil
}
