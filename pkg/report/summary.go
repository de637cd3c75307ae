package report

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"pbsdailyqa/internal/models"
	"pbsdailyqa/pkg/visualization"
)

// SpotStatus is the review outcome of one spot
type SpotStatus struct {
	Position visualization.Status
	Size     visualization.Status
	Overall  visualization.Status
}

// Classify rates a spot's position on both axes and its size on both axes
func Classify(m *models.SpotMeasurement, c *visualization.Classifier) SpotStatus {
	pos := visualization.Worst(
		c.Position(m.PositionY, m.Reference.PositionY),
		c.Position(m.PositionX, m.Reference.PositionX),
	)
	size := visualization.Worst(c.Size(m.PercentDiffSizeY), c.Size(m.PercentDiffSizeX))
	return SpotStatus{Position: pos, Size: size, Overall: visualization.Worst(pos, size)}
}

// WriteSummary writes one aligned line per spot followed by the background
// and the grid figures. A nil classifier uses the default tolerances.
func WriteSummary(w io.Writer, result *models.AnalysisResult, c *visualization.Classifier) error {
	if result == nil {
		return errors.New("report: nil result")
	}
	if c == nil {
		c = visualization.NewClassifier(visualization.DefaultTolerances())
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SPOT\tPOS Y\tPOS X\tDPOS Y\tDPOS X\tSIZE Y\tSIZE X\tDSIZE Y %\tDSIZE X %\tSTATUS\t")

	for i := range result.Spots {
		m := &result.Spots[i]
		st := Classify(m, c)
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%+.3f\t%+.3f\t%.3f\t%.3f\t%+.2f\t%+.2f\t%s\t\n",
			m.Label,
			m.PositionY, m.PositionX,
			m.DiffPositionY, m.DiffPositionX,
			m.SizeY, m.SizeX,
			m.PercentDiffSizeY, m.PercentDiffSizeX,
			st.Overall)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	mt := result.Metrics
	_, err := fmt.Fprintf(w,
		"\nBackground: %.3f (baseline X %.3f, baseline Y %.3f)\nFlatness X: %.3f%%  Flatness Y: %.3f%%\nSymmetry X: %.3f%%  Symmetry Y: %.3f%%\n",
		result.Background, result.BaselineX, result.BaselineY,
		mt.FlatnessX, mt.FlatnessY, mt.SymmetryX, mt.SymmetryY)
	return err
}
