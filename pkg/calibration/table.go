// Package calibration holds the fixed spot layout and reference values of the
// PBS daily QA plan. The table is data: every other package reads it and none
// of them branch on spot labels.
package calibration

import (
	"pbsdailyqa/internal/models"
)

// Band is an inclusive millimeter range on one grid axis
type Band struct {
	Lo float64
	Hi float64
}

// Contains reports whether v lies within the band
func (b Band) Contains(v float64) bool {
	return v >= b.Lo && v <= b.Hi
}

// bands are the four row bands R1..R4; the column bands are identical.
// Adjacent bands overlap by 0.2 mm at -6.2..-6 and 6..6.2.
var bands = [4]Band{
	{Lo: -10, Hi: -6},
	{Lo: -6.2, Hi: -2.2},
	{Lo: 2.2, Hi: 6.2},
	{Lo: 6, Hi: 10},
}

// Spot is one entry of the calibration table
type Spot struct {
	// Label identifies the spot, e.g. "Spot1A"
	Label string

	// RowBand and ColBand index into Bands()
	RowBand int
	ColBand int

	Reference models.Reference
}

// Rows returns the row range of the spot
func (s Spot) Rows() Band { return bands[s.RowBand] }

// Cols returns the column range of the spot
func (s Spot) Cols() Band { return bands[s.ColBand] }

// Bands returns the four row bands; the column bands are identical
func Bands() [4]Band { return bands }

// Per spot number reference values. The A and B placements deliver the same
// spot, so they share these.
var (
	ref1 = ref(11.1247051608056, 10.9356585577624, 8)
	ref2 = ref(14.0175810440288, 13.8930985922848, 30)
	ref3 = ref(15.8049030455876, 15.5336685559552, 18)
	ref4 = ref(10.12564, 10.0079, 10)
	ref5 = ref(12.4253703811076, 12.301982918428, 12)
	ref6 = ref(17.0572244550148, 16.5682702861368, 25)
	ref7 = ref(18.36744, 17.661, 21)
	ref8 = ref(9.9363231954308, 9.9388035886888, 15)
)

func ref(fwhmY, fwhmX, energy float64) models.Reference {
	return models.Reference{FWHMY: fwhmY, FWHMX: fwhmX, Energy: energy}
}

// at places a reference at the center of its cell
func at(r models.Reference, rowBand, colBand int) models.Reference {
	r.PositionY = centers[rowBand]
	r.PositionX = centers[colBand]
	return r
}

var centers = [4]float64{-8, -4.2, 4.2, 8}

// table is in analysis order; the label-to-cell mapping is not row-major
var table = [models.SpotCount]Spot{
	{"Spot1A", 0, 0, at(ref1, 0, 0)},
	{"Spot2A", 0, 1, at(ref2, 0, 1)},
	{"Spot5A", 0, 2, at(ref5, 0, 2)},
	{"Spot6A", 0, 3, at(ref6, 0, 3)},

	{"Spot3A", 1, 0, at(ref3, 1, 0)},
	{"Spot4A", 1, 1, at(ref4, 1, 1)},
	{"Spot7A", 1, 2, at(ref7, 1, 2)},
	{"Spot8A", 1, 3, at(ref8, 1, 3)},

	{"Spot5B", 2, 0, at(ref5, 2, 0)},
	{"Spot6B", 2, 1, at(ref6, 2, 1)},
	{"Spot1B", 2, 2, at(ref1, 2, 2)},
	{"Spot2B", 2, 3, at(ref2, 2, 3)},

	{"Spot7B", 3, 0, at(ref7, 3, 0)},
	{"Spot8B", 3, 1, at(ref8, 3, 1)},
	{"Spot3B", 3, 2, at(ref3, 3, 2)},
	{"Spot4B", 3, 3, at(ref4, 3, 3)},
}

// Spots returns a copy of the calibration table in analysis order
func Spots() []Spot {
	out := make([]Spot, len(table))
	copy(out, table[:])
	return out
}

// Lookup finds a spot by label
func Lookup(label string) (Spot, bool) {
	for _, s := range table {
		if s.Label == label {
			return s, true
		}
	}
	return Spot{}, false
}

// Labels returns the spot labels in analysis order
func Labels() []string {
	labels := make([]string, len(table))
	for i, s := range table {
		labels[i] = s.Label
	}
	return labels
}
