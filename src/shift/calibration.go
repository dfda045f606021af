// Package shift selects the active gear of a multi-speed transmission from
// noisy throttle and vehicle speed signals, with debounced shift decisions
// to prevent chattering between adjacent gears.
package shift

// Point is a single calibration breakpoint: the shift speed that applies at
// a given throttle percent.
type Point struct {
	Throttle float64 // percent of full throttle, 0-100
	Speed    float64 // vehicle speed at which the shift becomes appropriate
}

// Curve is a piecewise-linear map from throttle percent to shift speed.
// Breakpoints must be strictly increasing in throttle and non-decreasing
// in speed (more throttle never lowers the shift point).
type Curve []Point

// Calibration holds the shift curves for every adjacent gear transition.
// Upshift[i] governs the shift from gear i+1 to gear i+2, Downshift[i] the
// shift from gear i+2 back to gear i+1, so both slices have topGear-1
// entries.
type Calibration struct {
	Upshift   []Curve
	Downshift []Curve
}

// TopGear returns the number of gears this calibration describes.
func (c Calibration) TopGear() int {
	return len(c.Upshift) + 1
}

// DefaultCalibration returns the built-in 4-speed calibration.
// Speeds are in mph; curves are spread so that each gear's downshift point
// sits well below its upshift point at every throttle.
func DefaultCalibration() Calibration {
	return Calibration{
		Upshift: []Curve{
			{{0, 10}, {25, 15}, {50, 23}, {75, 32}, {100, 40}},  // 1 -> 2
			{{0, 20}, {25, 30}, {50, 42}, {75, 56}, {100, 70}},  // 2 -> 3
			{{0, 32}, {25, 46}, {50, 62}, {75, 80}, {100, 100}}, // 3 -> 4
		},
		Downshift: []Curve{
			{{0, 5}, {25, 8}, {50, 13}, {75, 19}, {100, 25}},   // 2 -> 1
			{{0, 12}, {25, 19}, {50, 29}, {75, 41}, {100, 55}}, // 3 -> 2
			{{0, 22}, {25, 34}, {50, 48}, {75, 64}, {100, 82}}, // 4 -> 3
		},
	}
}
