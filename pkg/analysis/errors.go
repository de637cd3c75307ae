package analysis

import (
	"fmt"

	"pbsdailyqa/internal/models"
	"pbsdailyqa/pkg/interpolation"
)

// InterpolationRangeError reports a spot whose half maximum cannot be located
// on one flank of one profile. The whole analysis fails with it: daily QA
// evaluates all 16 spots or none.
type InterpolationRangeError struct {
	Label string
	Axis  models.Axis
	Side  interpolation.Side
	Err   error
}

func (e *InterpolationRangeError) Error() string {
	return fmt.Sprintf("%s: %s profile: %v", e.Label, e.Axis, e.Err)
}

func (e *InterpolationRangeError) Unwrap() error {
	return e.Err
}
