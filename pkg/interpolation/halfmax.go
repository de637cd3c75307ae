// Package interpolation locates where a sampled profile crosses a threshold.
package interpolation

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// Side selects which flank of a peak to search
type Side int

const (
	// Ascending is the flank before the peak (lower positions)
	Ascending Side = iota
	// Descending is the flank after the peak (higher positions)
	Descending
)

func (s Side) String() string {
	switch s {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// RangeError reports a threshold that cannot be located on a flank
type RangeError struct {
	Side      Side
	Threshold float64
	Reason    string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s flank: threshold %g: %s", e.Side, e.Threshold, e.Reason)
}

// Crossing returns the position where values falls through threshold on the
// requested flank of its maximum.
//
// The profile is split at the first maximum. Walking outward from the peak,
// the first sample strictly below threshold brackets the crossing together
// with its inner neighbour, and the position is found by inverse linear
// interpolation on that segment. Every sample walked before the bracket must
// be no higher than the one nearer the peak, and no sample beyond the bracket
// may reach the threshold again. A flank that crosses the threshold more than
// once is not unimodal and is rejected rather than guessed through.
//
// Parameters:
//   - positions: strictly increasing sample positions
//   - values: profile values, same length as positions
//   - threshold: level to locate, typically half the maximum
//   - side: flank to search
func Crossing(positions, values []float64, threshold float64, side Side) (float64, error) {
	if len(values) != len(positions) {
		return 0, fmt.Errorf("profile has %d values for %d positions", len(values), len(positions))
	}
	if len(values) == 0 {
		return 0, &RangeError{Side: side, Threshold: threshold, Reason: "empty profile"}
	}

	peak := floats.MaxIdx(values)

	step := 1
	if side == Ascending {
		step = -1
	}

	inner := peak
	for k := peak + step; k >= 0 && k < len(values); k += step {
		if values[k] < threshold {
			for j := k + step; j >= 0 && j < len(values); j += step {
				if values[j] >= threshold {
					return 0, &RangeError{
						Side:      side,
						Threshold: threshold,
						Reason:    fmt.Sprintf("profile rises above threshold again at %g", positions[j]),
					}
				}
			}
			return invert(values[k], values[inner], positions[k], positions[inner], threshold)
		}
		if values[k] > values[inner] {
			return 0, &RangeError{
				Side:      side,
				Threshold: threshold,
				Reason:    fmt.Sprintf("profile rises again at %g before crossing", positions[k]),
			}
		}
		inner = k
	}

	return 0, &RangeError{
		Side:      side,
		Threshold: threshold,
		Reason:    fmt.Sprintf("profile never falls below threshold (values %g..%g)", floats.Min(values), values[peak]),
	}
}

// invert interpolates the position at threshold on the segment from an outer
// sample below threshold to an inner sample at or above it
func invert(outerValue, innerValue, outerPos, innerPos, threshold float64) (float64, error) {
	var pl interp.PiecewiseLinear
	if err := pl.Fit([]float64{outerValue, innerValue}, []float64{outerPos, innerPos}); err != nil {
		return 0, fmt.Errorf("interpolating crossing: %w", err)
	}
	return pl.Predict(threshold), nil
}
