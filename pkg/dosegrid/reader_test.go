package dosegrid

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbsdailyqa/internal/phantom"
)

// ramp makes every value identify its own coordinates
func ramp(y, x float64) float64 {
	return 1000 + 10*y + x/10
}

// exportText renders a phantom export covering ±10 mm
func exportText(t *testing.T, dose phantom.Dose) string {
	t.Helper()
	axis := phantom.Axis(100)
	var buf bytes.Buffer
	require.NoError(t, phantom.WriteExport(&buf, axis, axis, phantom.Sample(axis, axis, dose)))
	return buf.String()
}

func TestParseExport(t *testing.T) {
	grid, err := Parse(strings.NewReader(exportText(t, ramp)))
	require.NoError(t, err)

	r, c := grid.Dims()
	assert.Equal(t, 201, r)
	assert.Equal(t, 201, c)

	rows, cols := grid.Rows(), grid.Cols()
	assert.Equal(t, -10.0, rows[0])
	assert.Equal(t, 10.0, rows[len(rows)-1])
	assert.Equal(t, -10.0, cols[0])
	assert.Equal(t, 10.0, cols[len(cols)-1])

	// spot checks through the label lookup
	for _, p := range []struct{ i, j int }{{0, 0}, {100, 100}, {37, 150}, {200, 3}} {
		assert.InDelta(t, ramp(rows[p.i], cols[p.j]), grid.At(p.i, p.j), 1e-6)
	}
}

func TestParseDropsArtifactRows(t *testing.T) {
	// the junk rows carry non-numeric cells and must never be parsed
	text := exportText(t, ramp)
	assert.Contains(t, text, "Start\tn/a")
	assert.Contains(t, text, "Total\tn/a")

	grid, err := Parse(strings.NewReader(text))
	require.NoError(t, err)

	r, _ := grid.Dims()
	assert.Equal(t, 201, r)
}

func TestParseIgnoresBlankBodyLines(t *testing.T) {
	text := exportText(t, ramp)
	lines := strings.Split(text, "\n")
	// blank line inside the measured rows
	lines = append(lines[:60], append([]string{"", "\r"}, lines[60:]...)...)

	grid, err := Parse(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)

	r, _ := grid.Dims()
	assert.Equal(t, 201, r)
}

func TestParseCRLF(t *testing.T) {
	text := strings.ReplaceAll(exportText(t, ramp), "\n", "\r\n")
	grid, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	assert.InDelta(t, ramp(0, 0), grid.At(100, 100), 1e-6)
}

func TestParseMalformed(t *testing.T) {
	good := exportText(t, ramp)
	lines := strings.Split(good, "\n")

	replaceLine := func(n int, f func(string) string) string {
		out := append([]string(nil), lines...)
		out[n-1] = f(out[n-1])
		return strings.Join(out, "\n")
	}

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short header", strings.Join(lines[:20], "\n")},
		{"header only", strings.Join(lines[:HeaderLines], "\n")},
		{"no data columns", replaceLine(HeaderLines, func(string) string { return "Y[mm]\t" })},
		{"too few rows", strings.Join(lines[:HeaderLines+3], "\n")},
		{"non-numeric column label", replaceLine(HeaderLines, func(s string) string {
			return strings.Replace(s, "  0.000 ", "  zero  ", 1)
		})},
		{"non-numeric row label", replaceLine(HeaderLines+50, func(s string) string {
			return "row\t" + s[strings.Index(s, "\t")+1:]
		})},
		{"non-numeric cell", replaceLine(HeaderLines+50, func(s string) string {
			fields := strings.Split(s, "\t")
			fields[1] = "abc"
			return strings.Join(fields, "\t")
		})},
		{"ragged row", replaceLine(HeaderLines+80, func(s string) string {
			return strings.TrimSuffix(s, "\t")
		})},
		{"decreasing rows", replaceLine(HeaderLines+50, func(s string) string {
			return "  9.000   " + s[strings.Index(s, "\t"):]
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, grid)

			var me *MalformedGridError
			assert.True(t, errors.As(err, &me), "got %T: %v", err, err)
		})
	}
}

func TestParseMissingRequiredSlices(t *testing.T) {
	// ±5 mm is too small for the outer spot bands
	axis := phantom.Axis(50)
	var buf bytes.Buffer
	require.NoError(t, phantom.WriteExport(&buf, axis, axis, phantom.Sample(axis, axis, ramp)))

	_, err := Parse(&buf)
	var me *MalformedGridError
	require.True(t, errors.As(err, &me), "got %v", err)
	assert.Contains(t, me.Error(), "Spot1A")
}

func TestParseMissingZeroColumn(t *testing.T) {
	var cols []float64
	for _, x := range phantom.Axis(100) {
		if x != 0 {
			cols = append(cols, x)
		}
	}
	rows := phantom.Axis(100)

	var buf bytes.Buffer
	require.NoError(t, phantom.WriteExport(&buf, rows, cols, phantom.Sample(rows, cols, ramp)))

	_, err := Parse(&buf)
	var me *MalformedGridError
	require.True(t, errors.As(err, &me), "got %v", err)
	assert.Contains(t, me.Reason, "no column at 0")
}

func TestMalformedErrorMessage(t *testing.T) {
	err := malformed(30, errors.New("boom"), "dose value %q", "x")
	assert.Equal(t, `malformed dose grid (line 30): dose value "x": boom`, err.Error())
	assert.EqualError(t, errors.Unwrap(err), "boom")

	err = malformed(0, nil, "grid has no data")
	assert.Equal(t, "malformed dose grid: grid has no data", err.Error())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily.txt")
	require.NoError(t, os.WriteFile(path, []byte(exportText(t, ramp)), 0644))

	grid, err := ParseFile(path)
	require.NoError(t, err)
	r, c := grid.Dims()
	assert.Equal(t, 201, r)
	assert.Equal(t, 201, c)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
