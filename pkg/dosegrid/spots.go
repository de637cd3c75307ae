package dosegrid

import (
	"errors"

	"pbsdailyqa/pkg/calibration"
)

// SpotRegion is the part of the grid around one expected spot
type SpotRegion struct {
	Spot calibration.Spot
	Grid *Grid
}

// ExtractSpots slices the 16 calibration cells out of the grid, in
// calibration table order.
func (g *Grid) ExtractSpots() ([]SpotRegion, error) {
	spots := calibration.Spots()
	regions := make([]SpotRegion, 0, len(spots))

	for _, s := range spots {
		rows, cols := s.Rows(), s.Cols()
		sub, err := g.Slice(rows.Lo, rows.Hi, cols.Lo, cols.Hi)
		if err != nil {
			var me *MalformedGridError
			if errors.As(err, &me) {
				return nil, malformed(me.Line, me.Err, "%s: %s", s.Label, me.Reason)
			}
			return nil, err
		}
		regions = append(regions, SpotRegion{Spot: s, Grid: sub})
	}

	return regions, nil
}

// checkCoverage verifies that every slice the analysis takes is available
func (g *Grid) checkCoverage() error {
	if _, err := g.ExtractSpots(); err != nil {
		return err
	}

	for _, w := range calibration.CentralWindows() {
		if _, err := g.RowAt(0, w.Lo, w.Hi); err != nil {
			return err
		}
		if _, err := g.ColAt(0, w.Lo, w.Hi); err != nil {
			return err
		}
	}

	return nil
}
