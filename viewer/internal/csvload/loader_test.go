package csvload

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Krimson/radar-scope/viewer/internal/valueparse"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_CommaWithHeader(t *testing.T) {
	path := writeFile(t, "run1.csv", "time_ms,radar_voltage,radar_adc\n0,1.0,10\n10,2.5,12\n20,1.2,9\n")

	table, err := Load(path, valueparse.Invariant())
	require.NoError(t, err)

	assert.Equal(t, "run1", table.BaseName)
	assert.Equal(t, ',', table.Delimiter)
	assert.Equal(t, HeaderPresent, table.HeaderKind)
	assert.Equal(t, []string{"time_ms", "radar_voltage", "radar_adc"}, table.Header())
	assert.Len(t, table.DataRows(), 3)
	assert.Equal(t, 3, table.ColumnCount())
}

func TestLoad_SemicolonAndTabMatchComma(t *testing.T) {
	p := valueparse.Invariant()
	comma, err := Load(writeFile(t, "a.csv", "t,\"speed, km/h\"\n0,1\n1,2\n"), p)
	require.NoError(t, err)
	semi, err := Load(writeFile(t, "b.csv", "t;\"speed, km/h\"\n0;1\n1;2\n"), p)
	require.NoError(t, err)
	tab, err := Load(writeFile(t, "c.tsv", "t\t\"speed, km/h\"\n0\t1\n1\t2\n"), p)
	require.NoError(t, err)

	assert.Equal(t, ';', semi.Delimiter)
	assert.Equal(t, '\t', tab.Delimiter)
	assert.Equal(t, comma.Records, semi.Records)
	assert.Equal(t, comma.Records, tab.Records)
	assert.Equal(t, "speed, km/h", comma.Header()[1])
}

func TestLoad_SemicolonWithCommaDecimals(t *testing.T) {
	table, err := Load(writeFile(t, "de.csv", "Zeit [s];Spannung [V]\n0,5;1,25\n1,0;2,50\n"), valueparse.Invariant())
	require.NoError(t, err)
	assert.Equal(t, ';', table.Delimiter)
	assert.Equal(t, []string{"0,5", "1,25"}, table.DataRows()[0])
}

func TestLoad_NoHeaderWhenRowZeroIsNumeric(t *testing.T) {
	table, err := Load(writeFile(t, "plain.csv", "0,5\n1,7\n2,3\n"), valueparse.Invariant())
	require.NoError(t, err)
	assert.Equal(t, NoHeader, table.HeaderKind)
	assert.Nil(t, table.Header())
	assert.Len(t, table.DataRows(), 3)
}

func TestLoad_DropsBlankRowsAndBOM(t *testing.T) {
	table, err := Load(writeFile(t, "bom.csv", "\xef\xbb\xbftime,v\n\n , \n0,1\n"), valueparse.Invariant())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"time", "v"}, {"0", "1"}}, table.Records)
}

func TestLoad_BlankFileFails(t *testing.T) {
	path := writeFile(t, "blank.csv", "\n  \n,,\n")

	_, err := Load(path, valueparse.Invariant())
	require.Error(t, err)

	var ingestErr *IngestError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, path, ingestErr.Path)
	assert.True(t, errors.Is(err, ErrNoRows))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"), valueparse.Invariant())
	var ingestErr *IngestError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, "failed to open file", ingestErr.Reason)
}

func TestLoad_Workbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Time [ms]"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "Voltage [V]"))
	require.NoError(t, f.SetCellValue(sheet, "A2", 0))
	require.NoError(t, f.SetCellValue(sheet, "B2", 1.5))
	require.NoError(t, f.SetCellValue(sheet, "A3", 10))
	require.NoError(t, f.SetCellValue(sheet, "B3", 2.5))

	path := filepath.Join(t.TempDir(), "scan.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := Load(path, valueparse.Invariant())
	require.NoError(t, err)
	assert.Equal(t, "scan", table.BaseName)
	assert.Equal(t, HeaderPresent, table.HeaderKind)
	assert.Equal(t, []string{"Time [ms]", "Voltage [V]"}, table.Header())
	assert.Equal(t, []string{"10", "2.5"}, table.DataRows()[1])
}

func TestDetectHeader(t *testing.T) {
	p := valueparse.Invariant()

	cases := []struct {
		row  []string
		want HeaderKind
	}{
		{[]string{"0", "5"}, NoHeader},
		{[]string{"time", "5"}, HeaderPresent},
		{[]string{"0", "volts"}, HeaderPresent},
		{[]string{"0"}, HeaderPresent},
		{[]string{"1.5", "x", "2"}, NoHeader},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DetectHeader(c.row, p), "row %v", c.row)
	}
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', DetectDelimiter([]byte("a,b\n1,2\n")))
	assert.Equal(t, ';', DetectDelimiter([]byte("a;b\n1,5;2,5\n")))
	assert.Equal(t, '\t', DetectDelimiter([]byte("a\tb\n1\t2\n")))
	assert.Equal(t, ',', DetectDelimiter([]byte("single\n1\n")))
}
