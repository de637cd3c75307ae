// Package analysis measures PBS spot position, width and beam uniformity on a
// parsed dose grid.
//
// The analysis runs in three steps:
// 1. Background from the central row and column baselines
// 2. Per spot: axis profiles, half-maximum crossings, position, size, sigma
//    and deviation from the calibration reference
// 3. Flatness and symmetry over the full grid
package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"pbsdailyqa/internal/logger"
	"pbsdailyqa/internal/models"
	"pbsdailyqa/pkg/dosegrid"
	"pbsdailyqa/pkg/interpolation"
)

const component = "analysis"

// UnitScale converts crossing distances and position deviations to the
// units of the reference FWHM table. Positions themselves are not scaled.
const UnitScale = 10

// Analyzer runs the spot analysis. It holds no per-analysis state and may be
// shared between goroutines.
type Analyzer struct {
	log logger.Logger
}

// NewAnalyzer creates an analyzer that reports progress to log.
// A nil log discards everything.
func NewAnalyzer(log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NoOp{}
	}
	return &Analyzer{log: log}
}

// Analyze runs the analysis with a silent analyzer
func Analyze(grid *dosegrid.Grid) (*models.AnalysisResult, error) {
	return NewAnalyzer(nil).Analyze(grid)
}

// Analyze measures all spots and grid metrics. Any spot that cannot be
// measured fails the whole analysis with no partial result.
func (a *Analyzer) Analyze(grid *dosegrid.Grid) (*models.AnalysisResult, error) {
	if grid == nil {
		return nil, errors.New("analysis: nil grid")
	}

	result := &models.AnalysisResult{}

	// Step 1: Background
	baselineX, baselineY, err := Baselines(grid)
	if err != nil {
		return nil, err
	}
	result.BaselineX = baselineX
	result.BaselineY = baselineY
	result.Background = SelectBackground(baselineX, baselineY)

	a.log.Debug(component, "background selected", map[string]interface{}{
		"baseline_x": baselineX,
		"baseline_y": baselineY,
		"background": result.Background,
	})

	// Step 2: Spots
	regions, err := grid.ExtractSpots()
	if err != nil {
		return nil, err
	}
	if len(regions) != models.SpotCount {
		return nil, fmt.Errorf("analysis: expected %d spots, got %d", models.SpotCount, len(regions))
	}

	for i, region := range regions {
		m, err := MeasureSpot(region, result.Background)
		if err != nil {
			a.log.Error(component, err, map[string]interface{}{"label": region.Spot.Label})
			return nil, err
		}
		result.Spots[i] = *m
		result.Halfmax[i] = m.Halfmax

		a.log.Debug(component, "spot measured", map[string]interface{}{
			"label":      m.Label,
			"position_x": m.PositionX,
			"position_y": m.PositionY,
			"size_x":     m.SizeX,
			"size_y":     m.SizeY,
		})
	}

	// Step 3: Flatness and symmetry
	metrics, err := ComputeGridMetrics(grid)
	if err != nil {
		return nil, err
	}
	result.Metrics = metrics

	a.log.Info(component, "analysis complete", map[string]interface{}{
		"background": result.Background,
		"flatness_x": metrics.FlatnessX,
		"flatness_y": metrics.FlatnessY,
		"symmetry_x": metrics.SymmetryX,
		"symmetry_y": metrics.SymmetryY,
	})

	return result, nil
}

// MeasureSpot derives position, size and deviations for one spot region
func MeasureSpot(region dosegrid.SpotRegion, background float64) (*models.SpotMeasurement, error) {
	label := region.Spot.Label
	ref := region.Spot.Reference

	profileY, profileX := Profiles(region.Grid, background)

	// the Y profile's peak sets the threshold for both axes
	halfmax := floats.Max(profileY.Values) / 2

	crossY, err := crossings(label, profileY, halfmax)
	if err != nil {
		return nil, err
	}
	crossX, err := crossings(label, profileX, halfmax)
	if err != nil {
		return nil, err
	}

	m := &models.SpotMeasurement{
		Label:     label,
		Reference: ref,
		Halfmax:   halfmax,
		CrossingY: crossY,
		CrossingX: crossX,
		ProfileY:  profileY,
		ProfileX:  profileX,
		Region:    region.Grid.Region(),
	}

	m.PositionY = 0.5 * (crossY.Ascending + crossY.Descending)
	m.PositionX = 0.5 * (crossX.Ascending + crossX.Descending)

	m.DiffPositionY = (m.PositionY - ref.PositionY) * UnitScale
	m.DiffPositionX = (m.PositionX - ref.PositionX) * UnitScale

	m.SizeY = math.Abs(crossY.Ascending-crossY.Descending) * UnitScale
	m.SizeX = math.Abs(crossX.Ascending-crossX.Descending) * UnitScale

	m.DiffSizeY = m.SizeY - ref.FWHMY
	m.DiffSizeX = m.SizeX - ref.FWHMX

	m.PercentDiffSizeY = (m.DiffSizeY / ref.FWHMY) * 100
	m.PercentDiffSizeX = (m.DiffSizeX / ref.FWHMX) * 100

	m.SigmaY = m.SizeY / models.FWHMToSigma
	m.SigmaX = m.SizeX / models.FWHMToSigma

	return m, nil
}

// crossings locates both half-maximum crossings of a profile
func crossings(label string, p models.AxisProfile, halfmax float64) (models.Crossing, error) {
	var c models.Crossing

	asc, err := interpolation.Crossing(p.Positions, p.Values, halfmax, interpolation.Ascending)
	if err != nil {
		return c, &InterpolationRangeError{Label: label, Axis: p.Axis, Side: interpolation.Ascending, Err: err}
	}
	desc, err := interpolation.Crossing(p.Positions, p.Values, halfmax, interpolation.Descending)
	if err != nil {
		return c, &InterpolationRangeError{Label: label, Axis: p.Axis, Side: interpolation.Descending, Err: err}
	}

	c.Ascending = asc
	c.Descending = desc
	return c, nil
}
