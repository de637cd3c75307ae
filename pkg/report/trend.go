package report

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"pbsdailyqa/pkg/batch"
	"pbsdailyqa/pkg/visualization"
)

// WriteTrend writes one line per batch outcome: the grid figures and the
// worst spot status, or the error of a failed export
func WriteTrend(w io.Writer, outcomes []batch.Outcome, c *visualization.Classifier) error {
	if c == nil {
		c = visualization.NewClassifier(visualization.DefaultTolerances())
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tBACKGROUND\tFLAT X %\tFLAT Y %\tSYM X %\tSYM Y %\tSTATUS\tWORST SPOT")

	for _, o := range outcomes {
		name := filepath.Base(o.Path)
		if o.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\terror\t%v\n", name, o.Err)
			continue
		}

		r := o.Result
		worst := visualization.StatusPass
		worstLabel := "-"
		for i := range r.Spots {
			st := Classify(&r.Spots[i], c).Overall
			if visualization.Worst(worst, st) != worst {
				worst, worstLabel = st, r.Spots[i].Label
			}
		}

		mt := r.Metrics
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%s\t%s\n",
			name, r.Background, mt.FlatnessX, mt.FlatnessY, mt.SymmetryX, mt.SymmetryY, worst, worstLabel)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
