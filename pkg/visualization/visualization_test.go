package visualization

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbsdailyqa/internal/models"
	"pbsdailyqa/internal/phantom"
	"pbsdailyqa/pkg/analysis"
	"pbsdailyqa/pkg/calibration"
	"pbsdailyqa/pkg/dosegrid"
)

func analyzePhantom(t *testing.T) *models.AnalysisResult {
	t.Helper()
	axis := phantom.Axis(100)
	grid, err := dosegrid.NewGrid(axis, axis, phantom.Sample(axis, axis, phantom.DailyQA(10, 100)))
	require.NoError(t, err)
	result, err := analysis.Analyze(grid)
	require.NoError(t, err)
	return result
}

func TestParsePlotRequestDefaults(t *testing.T) {
	req, err := ParsePlotRequest("", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPlotRequest, req)
	assert.Equal(t, PlotProfile, req.PlotType)
	assert.Equal(t, AnnotatePosition, req.Annotations)
	assert.Equal(t, models.AxisX, req.Axis)
}

func TestParsePlotRequestValid(t *testing.T) {
	req, err := ParsePlotRequest("spot", "size", "y")
	require.NoError(t, err)
	assert.Equal(t, PlotRequest{PlotType: PlotSpot, Annotations: AnnotateSize, Axis: models.AxisY}, req)
}

func TestParsePlotRequestInvalid(t *testing.T) {
	tests := []struct {
		name                        string
		plotType, annotations, axis string
	}{
		{"plot type", "surface", "size", "x"},
		{"annotations", "spot", "energy", "x"},
		{"axis", "profile", "position", "z"},
		{"upper case", "Profile", "position", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlotRequest(tt.plotType, tt.annotations, tt.axis)
			var ipe *InvalidParameterError
			require.True(t, errors.As(err, &ipe))
			assert.Equal(t, tt.plotType, ipe.PlotType)
			assert.Equal(t, tt.annotations, ipe.Annotations)
			assert.Equal(t, tt.axis, ipe.Axis)
		})
	}
}

func TestInvalidParameterErrorJSON(t *testing.T) {
	// the defaulted values are reported, not the empty input
	_, err := ParsePlotRequest("", "", "z")
	var ipe *InvalidParameterError
	require.True(t, errors.As(err, &ipe))

	data, err := json.Marshal(ipe)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Invalid parameters": {"plot_type": "profile", "annotations": "position", "axis": "z"},
		"Allowable parameters": {
			"plot_type": ["profile", "spot"],
			"annotations": ["position", "size"],
			"axis": ["x", "y"]
		}
	}`, string(data))

	assert.Contains(t, ipe.Error(), `axis="z"`)
}

func TestClassifierBands(t *testing.T) {
	c := NewClassifier(DefaultTolerances())

	assert.Equal(t, StatusPass, c.Position(0.2, 0))
	assert.Equal(t, StatusPass, c.Position(-4.3, -4.2))
	assert.Equal(t, StatusTolerance, c.Position(0.3, 0))
	assert.Equal(t, StatusTolerance, c.Position(-0.5, 0))
	assert.Equal(t, StatusFail, c.Position(8.6, 8))

	assert.Equal(t, StatusPass, c.Size(10))
	assert.Equal(t, StatusPass, c.Size(-3))
	assert.Equal(t, StatusTolerance, c.Size(-15))
	assert.Equal(t, StatusTolerance, c.Size(20))
	assert.Equal(t, StatusFail, c.Size(20.5))

	custom := NewClassifier(Tolerances{PositionPass: 1, PositionTolerance: 2, SizePassPercent: 1, SizeTolerancePercent: 2})
	assert.Equal(t, StatusPass, custom.Position(0.6, 0))
	assert.Equal(t, StatusFail, custom.Size(3))
}

func TestWorst(t *testing.T) {
	assert.Equal(t, StatusPass, Worst())
	assert.Equal(t, StatusPass, Worst(StatusPass, StatusPass))
	assert.Equal(t, StatusTolerance, Worst(StatusPass, StatusTolerance))
	assert.Equal(t, StatusFail, Worst(StatusFail, StatusTolerance, StatusPass))
}

func TestBuildPanelsTitles(t *testing.T) {
	result := analyzePhantom(t)

	tests := []struct {
		req   PlotRequest
		first string
		sixth string
	}{
		{PlotRequest{PlotProfile, AnnotatePosition, models.AxisX}, "x(-8,-8, R8)", "x(-4.2,-4.2, R10)"},
		{PlotRequest{PlotProfile, AnnotateSize, models.AxisY}, "y(-8,-8:4.72)", "y(-4.2,-4.2:4.3)"},
		{PlotRequest{PlotSpot, AnnotatePosition, models.AxisX}, "spot(-8,-8:R8)", "spot(-4.2,-4.2:R10)"},
		{PlotRequest{PlotSpot, AnnotateSize, models.AxisX}, "spot(-8,-8,Y:4.72,X:4.64)", "spot(-4.2,-4.2,Y:4.3,X:4.25)"},
	}

	for _, tt := range tests {
		t.Run(string(tt.req.PlotType)+"/"+string(tt.req.Annotations), func(t *testing.T) {
			panels, err := BuildPanels(result, tt.req, nil)
			require.NoError(t, err)
			require.Len(t, panels, models.SpotCount)

			assert.Equal(t, tt.first, panels[0].Title)
			assert.Equal(t, tt.sixth, panels[5].Title)
			for i, label := range calibration.Labels() {
				assert.Equal(t, label, panels[i].Label)
				assert.Equal(t, StatusPass, panels[i].Status, label)
				assert.Equal(t, result.Halfmax[i], panels[i].Halfmax)
			}
		})
	}
}

func TestProfilePanels(t *testing.T) {
	result := analyzePhantom(t)

	panels, err := BuildPanels(result, PlotRequest{PlotProfile, AnnotateSize, models.AxisY}, nil)
	require.NoError(t, err)

	p := panels[0]
	m := result.Spots[0]
	require.NotNil(t, p.Profile)
	assert.Nil(t, p.Image)
	assert.Equal(t, m.ProfileY, *p.Profile)

	require.Len(t, p.Markers, 4)
	assert.Equal(t, Marker{Name: "ascending", Axis: models.AxisY, Value: m.CrossingY.Ascending}, p.Markers[0])
	assert.Equal(t, Marker{Name: "descending", Axis: models.AxisY, Value: m.CrossingY.Descending}, p.Markers[1])
	// the reference crossings bracket the measured ones for a matching spot
	assert.InDelta(t, p.Markers[0].Value, p.Markers[2].Value, 0.01)
	assert.InDelta(t, p.Markers[1].Value, p.Markers[3].Value, 0.01)
}

func TestSpotPanelImages(t *testing.T) {
	result := analyzePhantom(t)
	m := result.Spots[0]

	t.Run("position shows background-subtracted dose", func(t *testing.T) {
		panels, err := BuildPanels(result, PlotRequest{PlotSpot, AnnotatePosition, models.AxisX}, nil)
		require.NoError(t, err)

		img := panels[0].Image
		require.NotNil(t, img)
		assert.Nil(t, panels[0].Profile)
		assert.Equal(t, m.Region.Rows, img.Rows)
		assert.Equal(t, m.Region.Cols, img.Cols)
		assert.InDelta(t, m.Region.Values[0][0]-result.Background, img.Values[0][0], 1e-12)
		assert.InDelta(t, m.Region.Values[20][20]-result.Background, img.Values[20][20], 1e-12)

		// the image is a copy; the stored region keeps the raw dose
		img.Values[0][0] = -1
		assert.Greater(t, result.Spots[0].Region.Values[0][0], 0.0)
		require.Len(t, panels[0].Ellipses, 2)
		assert.Equal(t, 0.2, panels[0].Ellipses[0].RadiusX)
		assert.Equal(t, 0.5, panels[0].Ellipses[1].RadiusY)
	})

	t.Run("size shows half-maximum mask", func(t *testing.T) {
		panels, err := BuildPanels(result, PlotRequest{PlotSpot, AnnotateSize, models.AxisX}, nil)
		require.NoError(t, err)

		img := panels[0].Image
		require.NotNil(t, img)
		for _, row := range img.Values {
			for _, v := range row {
				assert.True(t, v == 0 || v == 1)
			}
		}
		// Spot1A is centered at (-8, -8), index 20 of its region
		assert.Equal(t, 1.0, img.Values[20][20])
		assert.Equal(t, 0.0, img.Values[0][0])

		require.Len(t, panels[0].Ellipses, 2)
		e := panels[0].Ellipses[0]
		assert.Equal(t, m.PositionY, e.CenterY)
		assert.InDelta(t, m.SigmaX/10*1.1, e.RadiusX, 1e-12)
		assert.InDelta(t, m.SigmaY/10*1.2, panels[0].Ellipses[1].RadiusY, 1e-12)
	})
}

func TestPanelStatusFollowsMeasurement(t *testing.T) {
	result := analyzePhantom(t)
	result.Spots[0].PositionX += 0.6
	result.Spots[1].PercentDiffSizeY = 15

	x, err := BuildPanels(result, PlotRequest{PlotProfile, AnnotatePosition, models.AxisX}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusFail, x[0].Status)

	y, err := BuildPanels(result, PlotRequest{PlotProfile, AnnotatePosition, models.AxisY}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPass, y[0].Status)

	spot, err := BuildPanels(result, PlotRequest{PlotSpot, AnnotatePosition, models.AxisX}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusFail, spot[0].Status)

	size, err := BuildPanels(result, PlotRequest{PlotSpot, AnnotateSize, models.AxisX}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusTolerance, size[1].Status)

	loose := NewClassifier(Tolerances{PositionPass: 1, PositionTolerance: 2, SizePassPercent: 10, SizeTolerancePercent: 20})
	x, err = BuildPanels(result, PlotRequest{PlotProfile, AnnotatePosition, models.AxisX}, loose)
	require.NoError(t, err)
	assert.Equal(t, StatusPass, x[0].Status)
}

func TestBuildPanelsErrors(t *testing.T) {
	_, err := BuildPanels(nil, DefaultPlotRequest, nil)
	assert.Error(t, err)

	result := analyzePhantom(t)
	result.Spots[3].Region = models.Region{}

	_, err = BuildPanels(result, PlotRequest{PlotSpot, AnnotatePosition, models.AxisX}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Spot6A")

	// profile plots do not need the region
	_, err = BuildPanels(result, DefaultPlotRequest, nil)
	assert.NoError(t, err)

	_, err = BuildPanels(result, PlotRequest{PlotProfile, AnnotatePosition, "z"}, nil)
	assert.Error(t, err)
}

func TestPanelJSON(t *testing.T) {
	result := analyzePhantom(t)
	panels, err := BuildPanels(result, PlotRequest{PlotSpot, AnnotatePosition, models.AxisX}, nil)
	require.NoError(t, err)

	data, err := json.Marshal(panels[0])
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Spot1A", doc["label"])
	assert.Equal(t, "pass", doc["status"])
	assert.Contains(t, doc, "image")
	assert.NotContains(t, doc, "profile")
}
