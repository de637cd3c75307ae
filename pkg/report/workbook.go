package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pbsdailyqa/internal/models"
	"pbsdailyqa/pkg/visualization"
)

// Sheet names of the workbook
const (
	SpotsSheet   = "Spots"
	MetricsSheet = "Metrics"
)

var spotColumns = []interface{}{
	"Spot", "Energy",
	"Ref Pos Y", "Ref Pos X", "Pos Y", "Pos X", "Diff Pos Y", "Diff Pos X",
	"Ref FWHM Y", "Ref FWHM X", "Size Y", "Size X", "Diff Size Y %", "Diff Size X %",
	"Sigma Y", "Sigma X", "Halfmax", "Status",
}

// WriteWorkbook writes the spot table and grid figures as an xlsx workbook.
// A nil classifier uses the default tolerances.
func WriteWorkbook(w io.Writer, result *models.AnalysisResult, c *visualization.Classifier) error {
	if result == nil {
		return errors.New("report: nil result")
	}
	if c == nil {
		c = visualization.NewClassifier(visualization.DefaultTolerances())
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SpotsSheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := setRow(f, SpotsSheet, 1, spotColumns); err != nil {
		return err
	}

	for i := range result.Spots {
		m := &result.Spots[i]
		ref := m.Reference
		row := []interface{}{
			m.Label, ref.Energy,
			ref.PositionY, ref.PositionX, m.PositionY, m.PositionX, m.DiffPositionY, m.DiffPositionX,
			ref.FWHMY, ref.FWHMX, m.SizeY, m.SizeX, m.PercentDiffSizeY, m.PercentDiffSizeX,
			m.SigmaY, m.SigmaX, m.Halfmax, string(Classify(m, c).Overall),
		}
		if err := setRow(f, SpotsSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(MetricsSheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	mt := result.Metrics
	metrics := [][]interface{}{
		{"Figure", "Value"},
		{"Background", result.Background},
		{"Baseline X", result.BaselineX},
		{"Baseline Y", result.BaselineY},
		{"Flatness X", mt.FlatnessX},
		{"Flatness Y", mt.FlatnessY},
		{"Symmetry X", mt.SymmetryX},
		{"Symmetry Y", mt.SymmetryY},
	}
	for i, row := range metrics {
		if err := setRow(f, MetricsSheet, i+1, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("report: writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("report: %s row %d: %w", sheet, row, err)
	}
	return nil
}
