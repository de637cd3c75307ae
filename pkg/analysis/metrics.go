package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"pbsdailyqa/internal/models"
	"pbsdailyqa/pkg/calibration"
	"pbsdailyqa/pkg/dosegrid"
)

// sampleWidth weights each sample of a symmetry sum. It cancels in the ratio
// but is kept so intermediate sums match historical values.
const sampleWidth = 0.1

// Flatness is the percent spread of a slice: 100 (max - min) / (max + min)
func Flatness(values []float64) float64 {
	hi, lo := floats.Max(values), floats.Min(values)
	return 100 * (hi - lo) / (hi + lo)
}

// Symmetry is the percent imbalance of two half slices, halved
func Symmetry(lower, upper []float64) float64 {
	l := floats.Sum(lower) * sampleWidth
	u := floats.Sum(upper) * sampleWidth
	return (100 * (math.Abs(l-u) / math.Abs(l+u))) / 2
}

// ComputeGridMetrics evaluates flatness and symmetry on the central row
// (X figures) and central column (Y figures) of the full grid
func ComputeGridMetrics(grid *dosegrid.Grid) (models.GridMetrics, error) {
	var metrics models.GridMetrics

	// Flatness over the central ±7 mm
	fw := calibration.FlatnessWindow()
	row, err := grid.RowAt(0, fw.Lo, fw.Hi)
	if err != nil {
		return metrics, fmt.Errorf("flatness X: %w", err)
	}
	col, err := grid.ColAt(0, fw.Lo, fw.Hi)
	if err != nil {
		return metrics, fmt.Errorf("flatness Y: %w", err)
	}
	metrics.FlatnessX = Flatness(row)
	metrics.FlatnessY = Flatness(col)

	// Symmetry between the halves split at the beam axis; both halves
	// include the zero sample
	lo, upX, upY := calibration.SymmetryLower(), calibration.SymmetryUpperX(), calibration.SymmetryUpperY()

	left, err := grid.RowAt(0, lo.Lo, lo.Hi)
	if err != nil {
		return metrics, fmt.Errorf("symmetry X: %w", err)
	}
	right, err := grid.RowAt(0, upX.Lo, upX.Hi)
	if err != nil {
		return metrics, fmt.Errorf("symmetry X: %w", err)
	}
	metrics.SymmetryX = Symmetry(left, right)

	bottom, err := grid.ColAt(0, lo.Lo, lo.Hi)
	if err != nil {
		return metrics, fmt.Errorf("symmetry Y: %w", err)
	}
	top, err := grid.ColAt(0, upY.Lo, upY.Hi)
	if err != nil {
		return metrics, fmt.Errorf("symmetry Y: %w", err)
	}
	metrics.SymmetryY = Symmetry(bottom, top)

	return metrics, nil
}
