package schema

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krimson/radar-scope/viewer/internal/valueparse"
)

func TestDetect_RadarOverride(t *testing.T) {
	header := []string{"time_ms", "radar_voltage", "radar_adc"}

	m, err := Detect(header, [][]string{{"0", "1.0", "10"}})
	require.NoError(t, err)

	assert.Equal(t, 0, m.XIndex)
	assert.InDelta(t, 1e-3, m.TimeScaleToSeconds, 1e-15)
	assert.Equal(t, []int{1, 2}, m.YIndices)
	assert.Equal(t, TitleVoltageADC, m.YTitle)
	assert.Equal(t, TitleTime, m.XTitle)
}

func TestDetect_FirstNonEmptyGroupWins(t *testing.T) {
	cases := []struct {
		name   string
		header []string
		y      []int
		title  string
	}{
		{"voltage beats speed", []string{"Speed", "Time [us]", "Voltage [mV]", "Range"}, []int{2}, "Voltage [mV]"},
		{"speed beats range", []string{"timestamp", "Range [m]", "velocity"}, []int{2}, "velocity"},
		{"range", []string{"t", "Distance [m]", "foo"}, []int{1}, "Distance [m]"},
		{"signal", []string{"t", "SNR", "foo"}, []int{1}, "SNR"},
		{"no group takes every column", []string{"foo", "t", "bar"}, []int{0, 2}, "foo"},
		{"short token as a word", []string{"t", "ai_in", "avg"}, []int{1}, "Voltage [V]"},
		{"single v", []string{"t", "V"}, []int{1}, "Voltage [V]"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, err := Detect(c.header, nil)
			require.NoError(t, err)
			assert.Equal(t, c.y, m.YIndices)
			assert.Equal(t, c.title, m.YTitle)
		})
	}
}

func TestDetect_UnnamedColumnsGetValueTitle(t *testing.T) {
	m, err := Detect([]string{"time", ""}, [][]string{{"0", "1"}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, m.YIndices)
	assert.Equal(t, TitleValue, m.YTitle)
}

func TestDetect_CapsYColumns(t *testing.T) {
	header := []string{"time"}
	for i := 0; i < 15; i++ {
		header = append(header, fmt.Sprintf("speed %d", i))
	}
	m, err := Detect(header, nil)
	require.NoError(t, err)
	assert.Len(t, m.YIndices, MaxYColumns)
	assert.Equal(t, 1, m.YIndices[0])
}

func TestDetect_NoTimeColumn(t *testing.T) {
	_, err := Detect([]string{"temperature", "voltage"}, nil)
	assert.ErrorIs(t, err, ErrNoXColumn)
}

func TestSplitUnit(t *testing.T) {
	cases := []struct{ in, base, unit string }{
		{"Voltage [V]", "Voltage", "V"},
		{"Speed (km/h)", "Speed", "km/h"},
		{"time_ms", "time", "ms"},
		{"Time us", "Time", "us"},
		{" \"radar_adc\" ", "radar_adc", ""},
		{"[V]", "[V]", ""},
	}
	for _, c := range cases {
		base, unit := SplitUnit(c.in)
		assert.Equal(t, c.base, base, c.in)
		assert.Equal(t, c.unit, unit, c.in)
	}
}

func TestTimeScale(t *testing.T) {
	assert.Equal(t, 1.0, TimeScale("s", "Time [s]"))
	assert.Equal(t, 1e-3, TimeScale("ms", "time_ms"))
	assert.Equal(t, 1e-6, TimeScale("µs", "Time [µs]"))
	assert.Equal(t, 1e-6, TimeScale("US", "TIME_US"))
	assert.Equal(t, 1e-3, TimeScale("ticks", "Time in ms (ticks)"))
	assert.Equal(t, 1.0, TimeScale("", "timestamp"))
}

func TestIsTimeHeader(t *testing.T) {
	for _, h := range []string{"t", "T", "Time", "Sample-Time", "time stamp", "SampleTime"} {
		assert.True(t, IsTimeHeader(h), h)
	}
	for _, h := range []string{"temperature", "tx", "voltage"} {
		assert.False(t, IsTimeHeader(h), h)
	}
}

func TestClassifyColumn(t *testing.T) {
	p := valueparse.Invariant()

	stamps := []string{"2024-03-01 10:00:00", "2024-03-01 10:00:01", "", "bad"}
	assert.Equal(t, DateTimeLikely, ClassifyColumn(stamps, p))

	numbers := []string{"0", "1", "2", "2024-03-01 10:00:00"}
	assert.Equal(t, Numeric, ClassifyColumn(numbers, p))

	assert.Equal(t, Numeric, ClassifyColumn(nil, p))
}

func TestXValues(t *testing.T) {
	p := valueparse.Invariant()

	scaled := XValues([]string{"0", "10", "x"}, 1e-3, p)
	assert.InDelta(t, 0.0, scaled[0], 1e-12)
	assert.InDelta(t, 0.01, scaled[1], 1e-12)
	assert.True(t, math.IsNaN(scaled[2]))

	elapsed := XValues([]string{"2024-03-01 10:00:00", "2024-03-01 10:00:01.500", "oops"}, 1e-3, p)
	assert.Equal(t, 0.0, elapsed[0])
	assert.InDelta(t, 1.5, elapsed[1], 1e-9)
	assert.True(t, math.IsNaN(elapsed[2]))
}

func TestColumn_PadsShortRows(t *testing.T) {
	assert.Equal(t, []string{"b", ""}, Column([][]string{{"a", "b"}, {"c"}}, 1))
}
