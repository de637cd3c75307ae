package calibration

// Windows of the central row (Y=0) and column (X=0) slices used for the
// grid-wide figures.
var (
	baselineWindow = Band{Lo: -8, Hi: 8}
	flatnessWindow = Band{Lo: -7, Hi: 7}
	symmetryLower  = Band{Lo: -8, Hi: 0}
	symmetryUpperX = Band{Lo: 0, Hi: 8}
	symmetryUpperY = Band{Lo: 0, Hi: 8.6}
)

// BaselineWindow gives the background estimate
func BaselineWindow() Band { return baselineWindow }

// FlatnessWindow gives flatness along both axes
func FlatnessWindow() Band { return flatnessWindow }

// SymmetryLower is the negative half for both axes
func SymmetryLower() Band { return symmetryLower }

// SymmetryUpperX is the positive half along X
func SymmetryUpperX() Band { return symmetryUpperX }

// SymmetryUpperY is the positive half along Y. Its 8.6 mm upper bound
// differs from X; historical baselines were produced with it.
func SymmetryUpperY() Band { return symmetryUpperY }

// CentralWindows lists every central slice window
func CentralWindows() []Band {
	return []Band{baselineWindow, flatnessWindow, symmetryLower, symmetryUpperX, symmetryUpperY}
}
