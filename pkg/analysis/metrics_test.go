package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbsdailyqa/internal/phantom"
	"pbsdailyqa/pkg/calibration"
)

func TestFlatnessFormula(t *testing.T) {
	assert.InDelta(t, 100.0/3, Flatness([]float64{10, 15, 20}), 1e-12)
	assert.Equal(t, 0.0, Flatness([]float64{7, 7, 7}))
}

func TestSymmetryFormula(t *testing.T) {
	// 100 * |0.3 - 0.4| / 0.7 / 2
	assert.InDelta(t, 100*(0.1/0.7)/2, Symmetry([]float64{1, 2}, []float64{4}), 1e-12)
	assert.Equal(t, 0.0, Symmetry([]float64{2, 3}, []float64{5}))
	// order of halves does not matter
	assert.Equal(t, Symmetry([]float64{1}, []float64{3}), Symmetry([]float64{3}, []float64{1}))
}

func TestGridMetricsFlatGrid(t *testing.T) {
	metrics, err := ComputeGridMetrics(newGrid(t, phantom.Constant(50)))
	require.NoError(t, err)

	assert.Equal(t, 0.0, metrics.FlatnessX)
	assert.Equal(t, 0.0, metrics.FlatnessY)
	assert.InDelta(t, 0, metrics.SymmetryX, 1e-12)

	// the Y positive half carries six more samples than the negative half
	assert.InDelta(t, flatSymmetryY, metrics.SymmetryY, 1e-9)
}

// TestSymmetryYUpperBound pins the 8.6 mm bound of the positive Y half
func TestSymmetryYUpperBound(t *testing.T) {
	assert.Equal(t, 8.6, calibration.SymmetryUpperY().Hi)
	assert.Equal(t, 8.0, calibration.SymmetryUpperX().Hi)

	// dose on the central column only between 8 and 8.6 mm; zero elsewhere
	// would make the X figures undefined, so the rest is 1
	g := newGrid(t, func(y, x float64) float64 {
		if x == 0 && y > 8.05 && y < 8.65 {
			return 5
		}
		return 1
	})

	metrics, err := ComputeGridMetrics(g)
	require.NoError(t, err)

	// lower: 81 samples of 1; upper: 81 of 1 plus 6 of 5
	assert.InDelta(t, 100*(30.0/192.0)/2, metrics.SymmetryY, 1e-9)
	assert.InDelta(t, 0, metrics.SymmetryX, 1e-12)

	// with an 8 mm bound the extra samples would not count
	bottom, err := g.ColAt(0, -8, 0)
	require.NoError(t, err)
	top, err := g.ColAt(0, 0, 8)
	require.NoError(t, err)
	assert.InDelta(t, 0, Symmetry(bottom, top), 1e-12)
}

func TestGridMetricsUseCentralSlices(t *testing.T) {
	// a gradient along X only changes the X figures
	g := newGrid(t, func(y, x float64) float64 {
		if y == 0 {
			return 100 + x
		}
		return 100
	})

	metrics, err := ComputeGridMetrics(g)
	require.NoError(t, err)

	assert.InDelta(t, 100*14.0/200.0, metrics.FlatnessX, 1e-9)
	assert.Equal(t, 0.0, metrics.FlatnessY)
	assert.Greater(t, metrics.SymmetryX, 0.0)
	assert.InDelta(t, flatSymmetryY, metrics.SymmetryY, 1e-9)
}

func TestGridMetricsMissingSlices(t *testing.T) {
	g := newGrid(t, phantom.Constant(1))
	sub, err := g.Slice(-10, 10, 0.5, 10)
	require.NoError(t, err)

	_, err = ComputeGridMetrics(sub)
	assert.Error(t, err)
}
