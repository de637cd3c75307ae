// Package dosegrid reads planar dose maps exported by the detector array
// software and slices them by millimeter coordinates.
package dosegrid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"pbsdailyqa/internal/models"
)

// LabelTolerance absorbs the rounding of printed axis labels when a
// millimeter bound is compared with a parsed label.
const LabelTolerance = 1e-6

// Grid is an immutable dose matrix addressed by millimeter coordinates.
// Rows run along Y and columns along X; both axes are strictly increasing.
type Grid struct {
	rows []float64
	cols []float64
	data *mat.Dense
}

// NewGrid builds a grid from axis labels and a matrix of matching shape.
// The grid keeps references to all three arguments, which must not be
// modified afterwards.
func NewGrid(rows, cols []float64, values *mat.Dense) (*Grid, error) {
	if values == nil || len(rows) == 0 || len(cols) == 0 {
		return nil, malformed(0, nil, "grid has no data")
	}

	r, c := values.Dims()
	if r != len(rows) || c != len(cols) {
		return nil, malformed(0, nil, "grid is %dx%d but has %d row and %d column labels",
			r, c, len(rows), len(cols))
	}

	if i := firstDisorder(rows); i >= 0 {
		return nil, malformed(0, nil, "row labels not increasing at %g", rows[i])
	}
	if j := firstDisorder(cols); j >= 0 {
		return nil, malformed(0, nil, "column labels not increasing at %g", cols[j])
	}

	return &Grid{rows: rows, cols: cols, data: values}, nil
}

// firstDisorder returns the index of the first label that does not exceed
// its predecessor, or -1
func firstDisorder(axis []float64) int {
	for i := 1; i < len(axis); i++ {
		if !(axis[i] > axis[i-1]) {
			return i
		}
	}
	for i, v := range axis {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}

// Dims returns the number of rows and columns
func (g *Grid) Dims() (int, int) {
	return len(g.rows), len(g.cols)
}

// Rows returns a copy of the row (Y) labels
func (g *Grid) Rows() []float64 {
	return append([]float64(nil), g.rows...)
}

// Cols returns a copy of the column (X) labels
func (g *Grid) Cols() []float64 {
	return append([]float64(nil), g.cols...)
}

// At returns the dose at row i, column j
func (g *Grid) At(i, j int) float64 {
	return g.data.At(i, j)
}

// Matrix exposes the dose values as a read-only matrix
func (g *Grid) Matrix() mat.Matrix {
	return g.data
}

// span returns the inclusive index range of labels within [lo, hi]
func span(axis []float64, lo, hi float64) (int, int, bool) {
	first := sort.Search(len(axis), func(i int) bool {
		return axis[i] >= lo-LabelTolerance
	})
	last := sort.Search(len(axis), func(i int) bool {
		return axis[i] > hi+LabelTolerance
	}) - 1

	if first >= len(axis) || last < first {
		return 0, 0, false
	}
	return first, last, true
}

// index returns the position of the label equal to v
func index(axis []float64, v float64) (int, bool) {
	i, j, ok := span(axis, v, v)
	if !ok || i != j {
		return 0, false
	}
	return i, true
}

// Slice returns the sub-grid whose labels lie in the inclusive millimeter
// rectangle. Labels are carried over; values share storage with g.
func (g *Grid) Slice(rowLo, rowHi, colLo, colHi float64) (*Grid, error) {
	i0, i1, ok := span(g.rows, rowLo, rowHi)
	if !ok {
		return nil, malformed(0, nil, "no rows in [%g, %g]", rowLo, rowHi)
	}
	j0, j1, ok := span(g.cols, colLo, colHi)
	if !ok {
		return nil, malformed(0, nil, "no columns in [%g, %g]", colLo, colHi)
	}

	return &Grid{
		rows: g.rows[i0 : i1+1 : i1+1],
		cols: g.cols[j0 : j1+1 : j1+1],
		data: g.data.Slice(i0, i1+1, j0, j1+1).(*mat.Dense),
	}, nil
}

// RowAt returns the values of the row labeled y for columns in [colLo, colHi]
func (g *Grid) RowAt(y, colLo, colHi float64) ([]float64, error) {
	i, ok := index(g.rows, y)
	if !ok {
		return nil, malformed(0, nil, "no row at %g", y)
	}
	j0, j1, ok := span(g.cols, colLo, colHi)
	if !ok {
		return nil, malformed(0, nil, "no columns in [%g, %g]", colLo, colHi)
	}

	return mat.Row(nil, 0, g.data.Slice(i, i+1, j0, j1+1)), nil
}

// ColAt returns the values of the column labeled x for rows in [rowLo, rowHi]
func (g *Grid) ColAt(x, rowLo, rowHi float64) ([]float64, error) {
	j, ok := index(g.cols, x)
	if !ok {
		return nil, malformed(0, nil, "no column at %g", x)
	}
	i0, i1, ok := span(g.rows, rowLo, rowHi)
	if !ok {
		return nil, malformed(0, nil, "no rows in [%g, %g]", rowLo, rowHi)
	}

	return mat.Col(nil, 0, g.data.Slice(i0, i1+1, j, j+1)), nil
}

// Region returns a plain copy of the grid for consumers outside the analysis
func (g *Grid) Region() models.Region {
	values := make([][]float64, len(g.rows))
	for i := range values {
		values[i] = mat.Row(nil, i, g.data)
	}
	return models.Region{
		Rows:   g.Rows(),
		Cols:   g.Cols(),
		Values: values,
	}
}
