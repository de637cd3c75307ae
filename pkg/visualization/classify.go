package visualization

import "math"

// Status is the review band a measurement falls in
type Status string

const (
	StatusPass      Status = "pass"
	StatusTolerance Status = "tolerance"
	StatusFail      Status = "fail"
)

func (s Status) rank() int {
	switch s {
	case StatusPass:
		return 0
	case StatusTolerance:
		return 1
	}
	return 2
}

// Worst returns the most severe of the given statuses, StatusPass for none
func Worst(statuses ...Status) Status {
	worst := StatusPass
	for _, s := range statuses {
		if s.rank() > worst.rank() {
			worst = s
		}
	}
	return worst
}

// Tolerances are the review band limits. Position limits are absolute
// distances in grid label units; size limits are percent deviations from the
// reference FWHM.
type Tolerances struct {
	PositionPass         float64 `yaml:"position_pass" json:"position_pass"`
	PositionTolerance    float64 `yaml:"position_tolerance" json:"position_tolerance"`
	SizePassPercent      float64 `yaml:"size_pass_percent" json:"size_pass_percent"`
	SizeTolerancePercent float64 `yaml:"size_tolerance_percent" json:"size_tolerance_percent"`
}

// DefaultTolerances returns the limits used by the review plots
func DefaultTolerances() Tolerances {
	return Tolerances{
		PositionPass:         0.2,
		PositionTolerance:    0.5,
		SizePassPercent:      10,
		SizeTolerancePercent: 20,
	}
}

// Classifier sorts measurements into review bands
type Classifier struct {
	tol Tolerances
}

// NewClassifier creates a classifier with the given limits
func NewClassifier(tol Tolerances) *Classifier {
	return &Classifier{tol: tol}
}

// Tolerances returns the classifier's limits
func (c *Classifier) Tolerances() Tolerances {
	return c.tol
}

// Position classifies a measured center against its reference. Both limits
// are inclusive.
func (c *Classifier) Position(measured, reference float64) Status {
	return band(math.Abs(measured-reference), c.tol.PositionPass, c.tol.PositionTolerance)
}

// Size classifies a percent FWHM deviation
func (c *Classifier) Size(percentDiff float64) Status {
	return band(math.Abs(percentDiff), c.tol.SizePassPercent, c.tol.SizeTolerancePercent)
}

func band(d, pass, tolerance float64) Status {
	switch {
	case d <= pass:
		return StatusPass
	case d <= tolerance:
		return StatusTolerance
	}
	return StatusFail
}
