package emulator

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Kind is a synthetic signal column.
type Kind string

const (
	KindVoltage Kind = "voltage"
	KindADC     Kind = "adc"
	KindSpeed   Kind = "speed"
	KindRange   Kind = "range"
	KindSNR     Kind = "snr"
)

type columnName struct {
	bracket string
	suffix  string
}

var columnNames = map[Kind]columnName{
	KindVoltage: {bracket: "Radar Voltage [V]", suffix: "radar_voltage"},
	KindADC:     {bracket: "Radar ADC", suffix: "radar_adc"},
	KindSpeed:   {bracket: "Speed [m/s]", suffix: "speed"},
	KindRange:   {bracket: "Range [m]", suffix: "range"},
	KindSNR:     {bracket: "SNR [dB]", suffix: "snr"},
}

// ParseKinds parses a comma separated column list such as "voltage,adc".
func ParseKinds(s string) ([]Kind, error) {
	var kinds []Kind
	for _, part := range strings.Split(s, ",") {
		k := Kind(strings.ToLower(strings.TrimSpace(part)))
		if k == "" {
			continue
		}
		if _, ok := columnNames[k]; !ok {
			return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidConfig, k)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

const (
	adcFullScale = 4095
	adcVref      = 3.3
)

// Generator produces one column value per sample time.
type Generator interface {
	Kind() Kind
	// Next returns the value at t seconds since the start of the recording.
	Next(t float64) float64
}

// waveGenerator is a sine carrier with periodic echo pulses and gaussian noise.
type waveGenerator struct {
	kind       Kind
	rand       *rand.Rand
	base       float64
	amplitude  float64
	freqHz     float64
	pulseEvery float64
	pulseWidth float64
	pulseGain  float64
	noise      float64
}

func (g *waveGenerator) Kind() Kind { return g.kind }

func (g *waveGenerator) Next(t float64) float64 {
	v := g.base + g.amplitude*math.Sin(2*math.Pi*g.freqHz*t)
	if g.pulseEvery > 0 {
		phase := math.Mod(t, g.pulseEvery) - g.pulseEvery/2
		v += g.pulseGain * math.Exp(-(phase*phase)/(2*g.pulseWidth*g.pulseWidth))
	}
	return v + g.noise*g.rand.NormFloat64()
}

// adcGenerator quantizes a voltage generator to a 12-bit reading.
type adcGenerator struct {
	voltage *waveGenerator
}

func (g *adcGenerator) Kind() Kind { return KindADC }

func (g *adcGenerator) Next(t float64) float64 {
	v := g.voltage.Next(t)
	code := math.Round(v / adcVref * adcFullScale)
	return math.Max(0, math.Min(adcFullScale, code))
}

// NewGenerator returns the generator for kind, seeded for reproducible output.
func NewGenerator(kind Kind, seed int64, noise float64) (Generator, error) {
	r := rand.New(rand.NewSource(seed))
	switch kind {
	case KindVoltage:
		return voltageWave(r, noise), nil
	case KindADC:
		return &adcGenerator{voltage: voltageWave(r, noise)}, nil
	case KindSpeed:
		return &waveGenerator{kind: kind, rand: r, base: 5, amplitude: 2, freqHz: 0.2, noise: noise * 10}, nil
	case KindRange:
		return &waveGenerator{kind: kind, rand: r, base: 50, amplitude: 10, freqHz: 0.05, noise: noise * 20}, nil
	case KindSNR:
		return &waveGenerator{kind: kind, rand: r, base: 20, amplitude: 3, freqHz: 0.5,
			pulseEvery: 2, pulseWidth: 0.05, pulseGain: 8, noise: noise * 25}, nil
	}
	return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidConfig, kind)
}

func voltageWave(r *rand.Rand, noise float64) *waveGenerator {
	return &waveGenerator{
		kind:       KindVoltage,
		rand:       r,
		base:       1.5,
		amplitude:  0.6,
		freqHz:     1,
		pulseEvery: 1,
		pulseWidth: 0.02,
		pulseGain:  1.0,
		noise:      noise,
	}
}
