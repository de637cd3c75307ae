package visualization

import (
	"errors"
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"pbsdailyqa/internal/models"
)

// Ellipse radii scales of the size annotation, relative to the measured sigma
const (
	sigmaToleranceScale = 1.1
	sigmaFailScale      = 1.2
)

// Marker is an annotation line at Value along Axis
type Marker struct {
	Name  string      `json:"name"`
	Axis  models.Axis `json:"axis"`
	Value float64     `json:"value"`
}

// Ellipse is an annotation outline centered on (CenterY, CenterX)
type Ellipse struct {
	Name    string  `json:"name"`
	CenterY float64 `json:"center_y"`
	CenterX float64 `json:"center_x"`
	RadiusY float64 `json:"radius_y"`
	RadiusX float64 `json:"radius_x"`
}

// Panel is the dataset of one spot's subplot
type Panel struct {
	Label string `json:"label"`
	Title string `json:"title"`

	// Profile is set for profile plots
	Profile *models.AxisProfile `json:"profile,omitempty"`

	// Image is set for spot plots: the background-subtracted region for
	// position annotations, the half-maximum mask (1 inside, 0 outside) for
	// size annotations
	Image *models.Region `json:"image,omitempty"`

	Halfmax  float64   `json:"halfmax"`
	Markers  []Marker  `json:"markers"`
	Ellipses []Ellipse `json:"ellipses,omitempty"`
	Status   Status    `json:"status"`
}

// BuildPanels produces one panel per spot in calibration table order.
// A nil classifier uses DefaultTolerances. Spot plots need the spot regions,
// so results decoded without them are rejected.
func BuildPanels(result *models.AnalysisResult, req PlotRequest, c *Classifier) ([]Panel, error) {
	if result == nil {
		return nil, errors.New("visualization: nil result")
	}
	if c == nil {
		c = NewClassifier(DefaultTolerances())
	}

	panels := make([]Panel, 0, len(result.Spots))
	for i := range result.Spots {
		m := &result.Spots[i]

		var (
			p   Panel
			err error
		)
		switch req.PlotType {
		case PlotProfile:
			p, err = profilePanel(m, req, c)
		case PlotSpot:
			p, err = spotPanel(m, result.Background, req, c)
		default:
			err = fmt.Errorf("unknown plot type %q", req.PlotType)
		}
		if err != nil {
			return nil, fmt.Errorf("visualization: %s: %w", m.Label, err)
		}

		p.Label = m.Label
		p.Halfmax = m.Halfmax
		panels = append(panels, p)
	}

	return panels, nil
}

func profilePanel(m *models.SpotMeasurement, req PlotRequest, c *Classifier) (Panel, error) {
	axis := req.Axis
	if axis != models.AxisX && axis != models.AxisY {
		return Panel{}, fmt.Errorf("unknown axis %q", axis)
	}

	profile := m.Profile(axis)
	if len(profile.Values) == 0 {
		return Panel{}, errors.New("profile not available")
	}

	ref := referencePosition(m.Reference, axis)
	pos := m.Position(axis)

	p := Panel{Profile: &profile}

	switch req.Annotations {
	case AnnotatePosition:
		p.Title = fmt.Sprintf("%s(%s,%s, R%s)", axis,
			num(m.Reference.PositionY), num(m.Reference.PositionX), num(m.Reference.Energy))
		p.Markers = []Marker{
			{Name: "measured", Axis: axis, Value: pos},
			{Name: "reference", Axis: axis, Value: ref},
		}
		p.Status = c.Position(pos, ref)

	case AnnotateSize:
		p.Title = fmt.Sprintf("%s(%s,%s:%.3g)", axis,
			num(m.Reference.PositionY), num(m.Reference.PositionX), referenceSigma(m.Reference, axis))

		// the reference FWHM is in scaled units; half of it, unscaled, is
		// the distance from the center to either reference crossing
		half := referenceFWHM(m.Reference, axis) / 20
		cross := m.Crossing(axis)
		p.Markers = []Marker{
			{Name: "ascending", Axis: axis, Value: cross.Ascending},
			{Name: "descending", Axis: axis, Value: cross.Descending},
			{Name: "reference_low", Axis: axis, Value: ref - half},
			{Name: "reference_high", Axis: axis, Value: ref + half},
		}
		p.Status = c.Size(percentDiffSize(m, axis))

	default:
		return Panel{}, fmt.Errorf("unknown annotations %q", req.Annotations)
	}

	return p, nil
}

func spotPanel(m *models.SpotMeasurement, background float64, req PlotRequest, c *Classifier) (Panel, error) {
	if len(m.Region.Values) == 0 || len(m.Region.Values[0]) == 0 {
		return Panel{}, errors.New("spot region not available")
	}

	ref := m.Reference
	dose := subtract(m.Region, background)

	var p Panel
	switch req.Annotations {
	case AnnotatePosition:
		p.Title = fmt.Sprintf("spot(%s,%s:R%s)", num(ref.PositionY), num(ref.PositionX), num(ref.Energy))
		p.Image = toRegion(m.Region, dose)
		p.Markers = []Marker{
			{Name: "reference", Axis: models.AxisY, Value: ref.PositionY},
			{Name: "reference", Axis: models.AxisX, Value: ref.PositionX},
			{Name: "measured", Axis: models.AxisY, Value: m.PositionY},
			{Name: "measured", Axis: models.AxisX, Value: m.PositionX},
		}
		pass, tol := c.Tolerances().PositionPass, c.Tolerances().PositionTolerance
		p.Ellipses = []Ellipse{
			{Name: "pass", CenterY: ref.PositionY, CenterX: ref.PositionX, RadiusY: pass, RadiusX: pass},
			{Name: "tolerance", CenterY: ref.PositionY, CenterX: ref.PositionX, RadiusY: tol, RadiusX: tol},
		}
		p.Status = Worst(c.Position(m.PositionY, ref.PositionY), c.Position(m.PositionX, ref.PositionX))

	case AnnotateSize:
		p.Title = fmt.Sprintf("spot(%s,%s,Y:%.3g,X:%.3g)", num(ref.PositionY), num(ref.PositionX), ref.SigmaY(), ref.SigmaX())

		dose.Apply(func(_, _ int, v float64) float64 {
			if v >= m.Halfmax {
				return 1
			}
			return 0
		}, dose)
		p.Image = toRegion(m.Region, dose)

		p.Markers = []Marker{
			{Name: "ascending", Axis: models.AxisY, Value: m.CrossingY.Ascending},
			{Name: "descending", Axis: models.AxisY, Value: m.CrossingY.Descending},
			{Name: "ascending", Axis: models.AxisX, Value: m.CrossingX.Ascending},
			{Name: "descending", Axis: models.AxisX, Value: m.CrossingX.Descending},
		}

		// sigmas are in scaled units like the sizes they come from
		sy, sx := m.SigmaY/10, m.SigmaX/10
		p.Ellipses = []Ellipse{
			{Name: "tolerance", CenterY: m.PositionY, CenterX: m.PositionX, RadiusY: sy * sigmaToleranceScale, RadiusX: sx * sigmaToleranceScale},
			{Name: "fail", CenterY: m.PositionY, CenterX: m.PositionX, RadiusY: sy * sigmaFailScale, RadiusX: sx * sigmaFailScale},
		}
		p.Status = Worst(c.Size(m.PercentDiffSizeY), c.Size(m.PercentDiffSizeX))

	default:
		return Panel{}, fmt.Errorf("unknown annotations %q", req.Annotations)
	}

	return p, nil
}

// subtract returns the region's dose minus background as a matrix. The result
// is not clamped.
func subtract(r models.Region, background float64) *mat.Dense {
	rows, cols := len(r.Values), len(r.Values[0])
	d := mat.NewDense(rows, cols, nil)
	for i, row := range r.Values {
		d.SetRow(i, row)
	}
	d.Apply(func(_, _ int, v float64) float64 { return v - background }, d)
	return d
}

func toRegion(src models.Region, d *mat.Dense) *models.Region {
	rows, _ := d.Dims()
	values := make([][]float64, rows)
	for i := range values {
		values[i] = mat.Row(nil, i, d)
	}
	return &models.Region{
		Rows:   append([]float64(nil), src.Rows...),
		Cols:   append([]float64(nil), src.Cols...),
		Values: values,
	}
}

func referencePosition(r models.Reference, axis models.Axis) float64 {
	if axis == models.AxisY {
		return r.PositionY
	}
	return r.PositionX
}

func referenceFWHM(r models.Reference, axis models.Axis) float64 {
	if axis == models.AxisY {
		return r.FWHMY
	}
	return r.FWHMX
}

func referenceSigma(r models.Reference, axis models.Axis) float64 {
	if axis == models.AxisY {
		return r.SigmaY()
	}
	return r.SigmaX()
}

func percentDiffSize(m *models.SpotMeasurement, axis models.Axis) float64 {
	if axis == models.AxisY {
		return m.PercentDiffSizeY
	}
	return m.PercentDiffSizeX
}

// num formats a calibration value in its shortest form, -8 or -4.2
func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
