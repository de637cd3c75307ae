// Package phantom generates synthetic dose maps and detector exports with
// known spot geometry, for exercising the analysis without measured data.
package phantom

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"pbsdailyqa/internal/models"
	"pbsdailyqa/pkg/calibration"
)

// Dose gives the dose at (y, x)
type Dose func(y, x float64) float64

// Axis returns labels -n/10 .. n/10 with 0.1 spacing
func Axis(n int) []float64 {
	axis := make([]float64, 0, 2*n+1)
	for i := -n; i <= n; i++ {
		axis = append(axis, float64(i)/10)
	}
	return axis
}

// Sample evaluates dose on every (row, column) label pair
func Sample(rows, cols []float64, dose Dose) *mat.Dense {
	m := mat.NewDense(len(rows), len(cols), nil)
	for i, y := range rows {
		for j, x := range cols {
			m.Set(i, j, dose(y, x))
		}
	}
	return m
}

// Constant is a flat field
func Constant(v float64) Dose {
	return func(y, x float64) float64 { return v }
}

// Gaussian is an elliptical Gaussian spot. The widths are full widths at half
// maximum in label units.
func Gaussian(amplitude, cy, cx, fwhmY, fwhmX float64) Dose {
	sy := fwhmY / models.FWHMToSigma
	sx := fwhmX / models.FWHMToSigma
	return func(y, x float64) float64 {
		dy := (y - cy) / sy
		dx := (x - cx) / sx
		return amplitude * math.Exp(-0.5*(dy*dy+dx*dx))
	}
}

// Sum adds doses together
func Sum(doses ...Dose) Dose {
	return func(y, x float64) float64 {
		total := 0.0
		for _, d := range doses {
			total += d(y, x)
		}
		return total
	}
}

// DailyQA places one Gaussian per calibration spot on a flat background.
// Each spot sits at its nominal position with its reference FWHM divided by
// 10, the scale the analysis multiplies crossing distances by.
func DailyQA(background, amplitude float64) Dose {
	doses := []Dose{Constant(background)}
	for _, s := range calibration.Spots() {
		r := s.Reference
		doses = append(doses, Gaussian(amplitude, r.PositionY, r.PositionX, r.FWHMY/10, r.FWHMX/10))
	}
	return Sum(doses...)
}

// WriteExport writes values in the detector software's tab-separated export
// layout: metadata, a column header row, one junk row before the data and two
// after it, and a trailing empty field on every row.
func WriteExport(w io.Writer, rows, cols []float64, values mat.Matrix) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Format:\tDaily QA phantom")
	fmt.Fprintln(bw, "File Version:\t3")
	for i := 3; i <= 25; i++ {
		fmt.Fprintf(bw, "Meta%02d:\t\n", i)
	}

	fmt.Fprint(bw, "Y[mm]\t")
	for _, x := range cols {
		fmt.Fprintf(bw, "%7.3f \t", x)
	}
	fmt.Fprintln(bw)

	junk := func(name string) {
		fmt.Fprintf(bw, "%s\t", name)
		for range cols {
			fmt.Fprint(bw, "n/a\t")
		}
		fmt.Fprintln(bw)
	}

	junk("Start")
	for i, y := range rows {
		fmt.Fprintf(bw, "%7.3f   \t", y)
		for j := range cols {
			fmt.Fprintf(bw, "%.6f\t", values.At(i, j))
		}
		fmt.Fprintln(bw)
	}
	junk("End")
	junk("Total")

	return bw.Flush()
}
