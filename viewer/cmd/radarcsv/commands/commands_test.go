package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const radarCSV = "time_ms,radar_voltage,radar_adc\n0,1.0,10\n10,2.5,12\n20,1.2,9\n"

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCommand(t *testing.T) {
	path := writeFile(t, "run1.csv", radarCSV)
	missing := filepath.Join(t.TempDir(), "missing.csv")

	out, errOut, err := run(t, "load", path, missing)
	require.NoError(t, err)
	assert.Contains(t, out, "X: Time [s]")
	assert.Contains(t, out, "run1 - radar_voltage")
	assert.Contains(t, out, "points=3")
	assert.Contains(t, out, "2 series from 1 file(s), 1 failed")
	assert.Contains(t, errOut, "missing.csv")
}

func TestLoadCommand_JSON(t *testing.T) {
	path := writeFile(t, "run1.csv", radarCSV)

	out, _, err := run(t, "load", "--json", path)
	require.NoError(t, err)

	var decoded loadOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Series, 2)
	assert.Equal(t, "run1 - radar_adc", decoded.Series[1].Name)
	assert.InDelta(t, 0.02, decoded.Series[1].MaxX, 1e-9)
	assert.InDelta(t, 12.0, decoded.Series[1].MaxY, 1e-9)
}

func TestLoadCommand_Locale(t *testing.T) {
	path := writeFile(t, "messung.csv", "Time [s];Radar Voltage [V]\n0,0;1,5\n0,1;2,25\n")

	out, _, err := run(t, "load", "--locale", "de-DE", path)
	require.NoError(t, err)
	assert.Contains(t, out, `Locale: de-DE (decimal ",")`)
	assert.Contains(t, out, "y=[1.5, 2.25]")
}

func TestLoadCommand_AllFailed(t *testing.T) {
	_, _, err := run(t, "load", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestSummaryCommand(t *testing.T) {
	path := writeFile(t, "run1.csv", radarCSV)

	out, _, err := run(t, "summary", "--json", path)
	require.NoError(t, err)

	var slices []struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &slices))
	require.Len(t, slices, 2)
	assert.InDelta(t, 0.036, slices[0].Value, 1e-9)
	assert.InDelta(t, 0.215, slices[1].Value, 1e-9)
}

func TestSummaryCommand_ZeroArea(t *testing.T) {
	path := writeFile(t, "flat.csv", "time_ms,radar_voltage\n0,0\n10,0\n")

	out, _, err := run(t, "summary", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No series has a positive area")
}

func TestPeaksCommand(t *testing.T) {
	path := writeFile(t, "run1.csv", radarCSV)

	out, _, err := run(t, "peaks", path)
	require.NoError(t, err)
	assert.Contains(t, out, "run1 - radar_voltage (1 peaks)")
	assert.Contains(t, out, "y=2.5")
}

func TestTicksCommand(t *testing.T) {
	out, _, err := run(t, "ticks", "0", "10", "--max-ticks", "6")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "step 2", lines[0])
	assert.Equal(t, []string{"0", "2", "4", "6", "8", "10"}, lines[1:])

	_, _, err = run(t, "ticks", "a", "10")
	assert.Error(t, err)
}
