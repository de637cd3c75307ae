package models

// FWHMToSigma is the Gaussian FWHM to standard deviation divisor, 2*sqrt(2*ln 2).
const FWHMToSigma = 2.3548200450309493

// Axis names one of the two in-plane detector axes
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// Reference holds the baseline values a spot is compared against
type Reference struct {
	// FWHMY and FWHMX are the expected full widths at half maximum in mm
	FWHMY float64 `json:"fwhm_y" yaml:"fwhm_y"`
	FWHMX float64 `json:"fwhm_x" yaml:"fwhm_x"`

	// PositionY and PositionX are the nominal spot centers
	PositionY float64 `json:"position_y" yaml:"position_y"`
	PositionX float64 `json:"position_x" yaml:"position_x"`

	// Energy is the range label of the delivered spot
	Energy float64 `json:"energy" yaml:"energy"`
}

// SigmaY returns the expected Gaussian sigma along Y
func (r Reference) SigmaY() float64 { return r.FWHMY / FWHMToSigma }

// SigmaX returns the expected Gaussian sigma along X
func (r Reference) SigmaX() float64 { return r.FWHMX / FWHMToSigma }

// Region is a plain copy of a rectangular part of the dose grid.
// Values is row-major: Values[i][j] is the dose at (Rows[i], Cols[j]).
type Region struct {
	Rows   []float64   `json:"rows" yaml:"rows"`
	Cols   []float64   `json:"cols" yaml:"cols"`
	Values [][]float64 `json:"values" yaml:"values"`
}

// AxisProfile is a background-subtracted 1D profile through a spot
type AxisProfile struct {
	Axis      Axis      `json:"axis" yaml:"axis"`
	Positions []float64 `json:"positions" yaml:"positions"`
	Values    []float64 `json:"values" yaml:"values"`
}

// Crossing holds the two half-maximum crossing positions along one axis
type Crossing struct {
	Ascending  float64 `json:"ascending" yaml:"ascending"`
	Descending float64 `json:"descending" yaml:"descending"`
}

// SpotMeasurement is the derived result for one spot.
//
// Positions are in grid label units. Sizes and sigmas are the crossing
// distance scaled by 10, and DiffPosition is scaled the same way, so both are
// directly comparable with the reference FWHM values.
type SpotMeasurement struct {
	Label     string    `json:"label" yaml:"label"`
	Reference Reference `json:"reference" yaml:"reference"`
	Halfmax   float64   `json:"halfmax" yaml:"halfmax"`

	CrossingY Crossing `json:"crossing_y" yaml:"crossing_y"`
	CrossingX Crossing `json:"crossing_x" yaml:"crossing_x"`

	PositionY float64 `json:"position_y" yaml:"position_y"`
	PositionX float64 `json:"position_x" yaml:"position_x"`
	SizeY     float64 `json:"size_y" yaml:"size_y"`
	SizeX     float64 `json:"size_x" yaml:"size_x"`
	SigmaY    float64 `json:"sigma_y" yaml:"sigma_y"`
	SigmaX    float64 `json:"sigma_x" yaml:"sigma_x"`

	DiffPositionY    float64 `json:"diff_position_y" yaml:"diff_position_y"`
	DiffPositionX    float64 `json:"diff_position_x" yaml:"diff_position_x"`
	DiffSizeY        float64 `json:"diff_size_y" yaml:"diff_size_y"`
	DiffSizeX        float64 `json:"diff_size_x" yaml:"diff_size_x"`
	PercentDiffSizeY float64 `json:"percent_diff_size_y" yaml:"percent_diff_size_y"`
	PercentDiffSizeX float64 `json:"percent_diff_size_x" yaml:"percent_diff_size_x"`

	// ProfileY is indexed by row position, ProfileX by column position
	ProfileY AxisProfile `json:"profile_y" yaml:"profile_y"`
	ProfileX AxisProfile `json:"profile_x" yaml:"profile_x"`

	// Region is the raw (not background-subtracted) spot sub-grid
	Region Region `json:"region" yaml:"region"`
}

// Profile returns the profile along the given axis
func (m *SpotMeasurement) Profile(axis Axis) AxisProfile {
	if axis == AxisY {
		return m.ProfileY
	}
	return m.ProfileX
}

// Position returns the measured center along the given axis
func (m *SpotMeasurement) Position(axis Axis) float64 {
	if axis == AxisY {
		return m.PositionY
	}
	return m.PositionX
}

// Crossing returns the half-maximum crossings along the given axis
func (m *SpotMeasurement) Crossing(axis Axis) Crossing {
	if axis == AxisY {
		return m.CrossingY
	}
	return m.CrossingX
}

// GridMetrics are the beam uniformity figures computed over the whole grid
type GridMetrics struct {
	FlatnessX float64 `json:"flatness_x" yaml:"flatness_x"`
	FlatnessY float64 `json:"flatness_y" yaml:"flatness_y"`
	SymmetryX float64 `json:"symmetry_x" yaml:"symmetry_x"`
	SymmetryY float64 `json:"symmetry_y" yaml:"symmetry_y"`
}

// SpotCount is the number of spots delivered by the daily QA plan
const SpotCount = 16

// AnalysisResult bundles everything one analysis produces
type AnalysisResult struct {
	// Spots are in calibration table order
	Spots [SpotCount]SpotMeasurement `json:"spots" yaml:"spots"`

	// Background is the larger of the two baseline means
	Background float64 `json:"background" yaml:"background"`
	BaselineX  float64 `json:"baseline_x" yaml:"baseline_x"`
	BaselineY  float64 `json:"baseline_y" yaml:"baseline_y"`

	Halfmax [SpotCount]float64 `json:"halfmax" yaml:"halfmax"`
	Metrics GridMetrics        `json:"metrics" yaml:"metrics"`
}

// Spot returns the measurement for a label such as "Spot4B"
func (r *AnalysisResult) Spot(label string) (*SpotMeasurement, bool) {
	for i := range r.Spots {
		if r.Spots[i].Label == label {
			return &r.Spots[i], true
		}
	}
	return nil, false
}
