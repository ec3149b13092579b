package plot

import (
	"math"
	"strconv"
)

// DefaultMaxTicks is the tick budget per axis when none is configured.
const DefaultMaxTicks = 8

// MaxTicksLimit caps any requested tick budget.
const MaxTicksLimit = 50

// ClampTicks limits a tick budget to [2, MaxTicksLimit].
func ClampTicks(maxTicks int) int {
	switch {
	case maxTicks < 2:
		return 2
	case maxTicks > MaxTicksLimit:
		return MaxTicksLimit
	}
	return maxTicks
}

// NiceStep rounds span/(maxTicks-1) up to 1, 2 or 5 times a power of ten.
func NiceStep(span float64, maxTicks int) float64 {
	maxTicks = ClampTicks(maxTicks)
	raw := math.Abs(span) / float64(maxTicks-1)
	if raw == 0 || math.IsInf(raw, 0) || math.IsNaN(raw) {
		return 1
	}

	magnitude := math.Pow(10, math.Floor(math.Log10(raw)))
	if magnitude == 0 || math.IsInf(magnitude, 0) {
		return raw
	}

	var step float64
	switch normalized := raw / magnitude; {
	case normalized <= 1:
		step = magnitude
	case normalized <= 2:
		step = 2 * magnitude
	case normalized <= 5:
		step = 5 * magnitude
	default:
		step = 10 * magnitude
	}
	if math.IsInf(step, 0) {
		return raw
	}
	return step
}

// NiceTicks returns multiples of NiceStep covering [floor(min/step)*step, ceil(max/step)*step].
// When the multiples cannot be counted reliably it returns just min and max.
func NiceTicks(min, max float64, maxTicks int) []float64 {
	if !(min < max) {
		return []float64{min}
	}
	maxTicks = ClampTicks(maxTicks)
	step := NiceStep(span(min, max), maxTicks)
	first := math.Floor(min / step)
	last := math.Ceil(max / step)

	count := last - first + 1
	if math.IsNaN(count) || math.IsInf(count, 0) || count < 1 || count > float64(2*maxTicks+2) {
		return []float64{min, max}
	}

	n := int(count)
	ticks := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := (first + float64(i)) * step
		if math.IsInf(v, 0) {
			continue
		}
		if math.Abs(v) < step*1e-9 {
			v = 0
		}
		ticks = append(ticks, v)
	}
	return ticks
}

// FormatTick labels a tick: 6 significant digits when the step is at least 1,
// otherwise ceil(-log10(step))+1 decimals clamped to [0, 8].
func FormatTick(v, step float64) string {
	if v == 0 {
		v = 0 // drop negative zero
	}
	step = math.Abs(step)
	if step >= 1 || step == 0 {
		return strconv.FormatFloat(v, 'g', 6, 64)
	}
	decimals := int(math.Ceil(-math.Log10(step)-1e-9)) + 1
	if decimals < 0 {
		decimals = 0
	}
	if decimals > 8 {
		decimals = 8
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
