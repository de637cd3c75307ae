// Package visualization turns an analysis result into the numeric datasets
// behind the daily QA review plots: one panel per spot with the plotted data,
// annotation markers and a pass/tolerance/fail status. Rendering is left to
// the consumer.
package visualization

import (
	"encoding/json"
	"fmt"

	"pbsdailyqa/internal/models"
)

// PlotType selects what a panel shows
type PlotType string

const (
	// PlotProfile shows one axis profile per spot
	PlotProfile PlotType = "profile"
	// PlotSpot shows the 2D spot region
	PlotSpot PlotType = "spot"
)

// Annotation selects which measurement a panel is annotated with
type Annotation string

const (
	AnnotatePosition Annotation = "position"
	AnnotateSize     Annotation = "size"
)

var (
	allowedPlotTypes   = []string{string(PlotProfile), string(PlotSpot)}
	allowedAnnotations = []string{string(AnnotatePosition), string(AnnotateSize)}
	allowedAxes        = []string{string(models.AxisX), string(models.AxisY)}
)

// PlotRequest is a validated plot selection
type PlotRequest struct {
	PlotType    PlotType    `json:"plot_type"`
	Annotations Annotation  `json:"annotations"`
	Axis        models.Axis `json:"axis"`
}

// DefaultPlotRequest is used for any parameter left empty
var DefaultPlotRequest = PlotRequest{
	PlotType:    PlotProfile,
	Annotations: AnnotatePosition,
	Axis:        models.AxisX,
}

// ParsePlotRequest validates the three plot parameters. Empty strings take
// the DefaultPlotRequest values. Any value outside its enumeration yields an
// *InvalidParameterError naming all three values as given.
func ParsePlotRequest(plotType, annotations, axis string) (PlotRequest, error) {
	if plotType == "" {
		plotType = string(DefaultPlotRequest.PlotType)
	}
	if annotations == "" {
		annotations = string(DefaultPlotRequest.Annotations)
	}
	if axis == "" {
		axis = string(DefaultPlotRequest.Axis)
	}

	if !contains(allowedPlotTypes, plotType) ||
		!contains(allowedAnnotations, annotations) ||
		!contains(allowedAxes, axis) {
		return PlotRequest{}, &InvalidParameterError{
			PlotType:    plotType,
			Annotations: annotations,
			Axis:        axis,
		}
	}

	return PlotRequest{
		PlotType:    PlotType(plotType),
		Annotations: Annotation(annotations),
		Axis:        models.Axis(axis),
	}, nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// InvalidParameterError reports a plot request outside the allowed values.
// It is an expected answer to a bad request, not a failure.
type InvalidParameterError struct {
	PlotType    string
	Annotations string
	Axis        string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid plot parameters: plot_type=%q annotations=%q axis=%q (allowed plot_type %v, annotations %v, axis %v)",
		e.PlotType, e.Annotations, e.Axis, allowedPlotTypes, allowedAnnotations, allowedAxes)
}

type parameterValues struct {
	PlotType    string `json:"plot_type"`
	Annotations string `json:"annotations"`
	Axis        string `json:"axis"`
}

type parameterEnums struct {
	PlotType    []string `json:"plot_type"`
	Annotations []string `json:"annotations"`
	Axis        []string `json:"axis"`
}

type invalidParameterDocument struct {
	Invalid   parameterValues `json:"Invalid parameters"`
	Allowable parameterEnums  `json:"Allowable parameters"`
}

// MarshalJSON renders the error document returned to plot clients
func (e *InvalidParameterError) MarshalJSON() ([]byte, error) {
	return json.Marshal(invalidParameterDocument{
		Invalid: parameterValues{
			PlotType:    e.PlotType,
			Annotations: e.Annotations,
			Axis:        e.Axis,
		},
		Allowable: parameterEnums{
			PlotType:    allowedPlotTypes,
			Annotations: allowedAnnotations,
			Axis:        allowedAxes,
		},
	})
}
