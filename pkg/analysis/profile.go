package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"pbsdailyqa/internal/models"
	"pbsdailyqa/pkg/calibration"
	"pbsdailyqa/pkg/dosegrid"
)

// Baselines returns the mean dose along the central row (baselineX) and the
// central column (baselineY) over the baseline window
func Baselines(grid *dosegrid.Grid) (baselineX, baselineY float64, err error) {
	w := calibration.BaselineWindow()

	row, err := grid.RowAt(0, w.Lo, w.Hi)
	if err != nil {
		return 0, 0, fmt.Errorf("baseline X: %w", err)
	}
	col, err := grid.ColAt(0, w.Lo, w.Hi)
	if err != nil {
		return 0, 0, fmt.Errorf("baseline Y: %w", err)
	}

	return stat.Mean(row, nil), stat.Mean(col, nil), nil
}

// SelectBackground picks the larger baseline; ties go to baselineY
func SelectBackground(baselineX, baselineY float64) float64 {
	if baselineX > baselineY {
		return baselineX
	}
	return baselineY
}

// Profiles collapses a spot region into its two axis profiles after
// subtracting background. The Y profile holds, for each row, the maximum over
// the columns; the X profile holds, for each column, the maximum over the
// rows. Negative values are clamped to zero.
func Profiles(region *dosegrid.Grid, background float64) (profileY, profileX models.AxisProfile) {
	m := region.Matrix()
	r, c := region.Dims()

	yValues := make([]float64, r)
	for i := 0; i < r; i++ {
		yValues[i] = clamp(floats.Max(mat.Row(nil, i, m)) - background)
	}

	xValues := make([]float64, c)
	for j := 0; j < c; j++ {
		xValues[j] = clamp(floats.Max(mat.Col(nil, j, m)) - background)
	}

	profileY = models.AxisProfile{Axis: models.AxisY, Positions: region.Rows(), Values: yValues}
	profileX = models.AxisProfile{Axis: models.AxisX, Positions: region.Cols(), Values: xValues}
	return profileY, profileX
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
