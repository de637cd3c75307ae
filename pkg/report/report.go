// Package report writes analysis results for people and for other tools:
// JSON and YAML documents, an aligned text summary and an xlsx workbook.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"pbsdailyqa/internal/models"
)

// Format names an output encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatSummary Format = "summary"
	FormatXLSX    Format = "xlsx"
)

// ParseFormat accepts a format name in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatSummary, FormatXLSX:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (json, yaml, summary or xlsx)", s)
}

type options struct {
	profiles bool
}

// Option adjusts what a document contains
type Option func(*options)

// WithProfiles includes the axis profiles and the raw spot regions
func WithProfiles() Option {
	return func(o *options) { o.profiles = true }
}

// Document is the encoded form of an analysis result
type Document struct {
	Background float64            `json:"background" yaml:"background"`
	BaselineX  float64            `json:"baseline_x" yaml:"baseline_x"`
	BaselineY  float64            `json:"baseline_y" yaml:"baseline_y"`
	Metrics    models.GridMetrics `json:"metrics" yaml:"metrics"`
	Spots      []SpotDocument     `json:"spots" yaml:"spots"`
}

// SpotDocument is one spot of a Document. Profiles and Region are present
// only when requested.
type SpotDocument struct {
	Label     string           `json:"label" yaml:"label"`
	Reference models.Reference `json:"reference" yaml:"reference"`
	Halfmax   float64          `json:"halfmax" yaml:"halfmax"`

	CrossingY models.Crossing `json:"crossing_y" yaml:"crossing_y"`
	CrossingX models.Crossing `json:"crossing_x" yaml:"crossing_x"`

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

	ProfileY *models.AxisProfile `json:"profile_y,omitempty" yaml:"profile_y,omitempty"`
	ProfileX *models.AxisProfile `json:"profile_x,omitempty" yaml:"profile_x,omitempty"`
	Region   *models.Region      `json:"region,omitempty" yaml:"region,omitempty"`
}

// NewDocument flattens a result into its encoded form
func NewDocument(result *models.AnalysisResult, opts ...Option) *Document {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	doc := &Document{
		Background: result.Background,
		BaselineX:  result.BaselineX,
		BaselineY:  result.BaselineY,
		Metrics:    result.Metrics,
		Spots:      make([]SpotDocument, len(result.Spots)),
	}

	for i := range result.Spots {
		m := &result.Spots[i]
		s := SpotDocument{
			Label:            m.Label,
			Reference:        m.Reference,
			Halfmax:          m.Halfmax,
			CrossingY:        m.CrossingY,
			CrossingX:        m.CrossingX,
			PositionY:        m.PositionY,
			PositionX:        m.PositionX,
			SizeY:            m.SizeY,
			SizeX:            m.SizeX,
			SigmaY:           m.SigmaY,
			SigmaX:           m.SigmaX,
			DiffPositionY:    m.DiffPositionY,
			DiffPositionX:    m.DiffPositionX,
			DiffSizeY:        m.DiffSizeY,
			DiffSizeX:        m.DiffSizeX,
			PercentDiffSizeY: m.PercentDiffSizeY,
			PercentDiffSizeX: m.PercentDiffSizeX,
		}
		if o.profiles {
			py, px, region := m.ProfileY, m.ProfileX, m.Region
			s.ProfileY, s.ProfileX, s.Region = &py, &px, &region
		}
		doc.Spots[i] = s
	}

	return doc
}

// Encode writes result as JSON or YAML. Pretty indents JSON; YAML is always
// block style.
func Encode(w io.Writer, result *models.AnalysisResult, format Format, pretty bool, opts ...Option) error {
	if result == nil {
		return errors.New("report: nil result")
	}
	doc := NewDocument(result, opts...)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		if pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("report: encoding json: %w", err)
		}
		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("report: encoding yaml: %w", err)
		}
		return enc.Close()
	}

	return fmt.Errorf("report: %q is not a document format", format)
}
