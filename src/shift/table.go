package shift

import (
	"fmt"
	"math"
)

// CalibrationError reports an invalid calibration table. It is returned by
// NewTable; a table that constructed successfully never produces one.
type CalibrationError struct {
	Curve  string // which curve, e.g. "upshift 2->3"
	Reason string
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("calibration %s: %s", e.Curve, e.Reason)
}

// Thresholds holds the interpolated shift speeds for one (gear, throttle)
// pair. At the boundary gears the missing direction is +Inf (no upshift from
// top gear) or -Inf (no downshift from first gear) so comparisons against it
// can never fire.
type Thresholds struct {
	Upshift   float64 // shift up when speed exceeds this
	Downshift float64 // shift down when speed falls below this
}

// Table is validated, immutable shift calibration. All invariant checking
// happens in NewTable; Thresholds is a pure lookup with no failure modes.
type Table struct {
	topGear int
	up      []Curve // up[g-1] for gear g in 1..topGear-1
	down    []Curve // down[g-2] for gear g in 2..topGear
}

// NewTable validates a calibration and compiles it into a lookup table.
// It returns a *CalibrationError if any curve is malformed, if the up and
// down curve counts disagree, or if a gear's downshift speed is not strictly
// below its upshift speed at every throttle.
func NewTable(cal Calibration) (*Table, error) {
	if len(cal.Upshift) == 0 {
		return nil, &CalibrationError{Curve: "upshift", Reason: "no transition curves"}
	}
	if len(cal.Upshift) != len(cal.Downshift) {
		return nil, &CalibrationError{
			Curve:  "downshift",
			Reason: fmt.Sprintf("%d curves, want %d to match upshift", len(cal.Downshift), len(cal.Upshift)),
		}
	}

	topGear := cal.TopGear()
	for i, c := range cal.Upshift {
		name := fmt.Sprintf("upshift %d->%d", i+1, i+2)
		if err := validateCurve(name, c); err != nil {
			return nil, err
		}
	}
	for i, c := range cal.Downshift {
		name := fmt.Sprintf("downshift %d->%d", i+2, i+1)
		if err := validateCurve(name, c); err != nil {
			return nil, err
		}
	}

	// For every gear that has both directions, the downshift curve must sit
	// strictly below the upshift curve. Both are piecewise linear, so checking
	// at the union of their breakpoints covers every throttle.
	for gear := 2; gear < topGear; gear++ {
		up := cal.Upshift[gear-1]
		down := cal.Downshift[gear-2]
		for _, p := range append(append(Curve{}, up...), down...) {
			if down.at(p.Throttle) >= up.at(p.Throttle) {
				return nil, &CalibrationError{
					Curve: fmt.Sprintf("downshift %d->%d", gear, gear-1),
					Reason: fmt.Sprintf("speed %.2f at throttle %.1f is not below upshift speed %.2f",
						down.at(p.Throttle), p.Throttle, up.at(p.Throttle)),
				}
			}
		}
	}

	return &Table{topGear: topGear, up: cal.Upshift, down: cal.Downshift}, nil
}

// validateCurve checks the per-curve invariants: at least one breakpoint,
// strictly increasing throttle, non-decreasing speed.
func validateCurve(name string, c Curve) error {
	if len(c) == 0 {
		return &CalibrationError{Curve: name, Reason: "empty curve"}
	}
	for i := 1; i < len(c); i++ {
		if c[i].Throttle <= c[i-1].Throttle {
			return &CalibrationError{
				Curve:  name,
				Reason: fmt.Sprintf("throttle breakpoints not strictly increasing at index %d (%.1f after %.1f)", i, c[i].Throttle, c[i-1].Throttle),
			}
		}
		if c[i].Speed < c[i-1].Speed {
			return &CalibrationError{
				Curve:  name,
				Reason: fmt.Sprintf("shift speed decreases at index %d (%.2f after %.2f)", i, c[i].Speed, c[i-1].Speed),
			}
		}
	}
	return nil
}

// TopGear returns the highest gear the table knows about.
func (t *Table) TopGear() int {
	return t.topGear
}

// Thresholds returns the interpolated up and down shift speeds for the given
// gear and throttle. Out-of-range throttle is clamped to [0,100] (sensor
// overshoot, not a fault). An out-of-range gear is a caller bug and panics
// with an *InvariantError.
func (t *Table) Thresholds(gear int, throttle float64) Thresholds {
	if gear < 1 || gear > t.topGear {
		panic(&InvariantError{Reason: fmt.Sprintf("gear %d outside 1..%d", gear, t.topGear)})
	}

	throttle = clampThrottle(throttle)

	th := Thresholds{Upshift: math.Inf(1), Downshift: math.Inf(-1)}
	if gear < t.topGear {
		th.Upshift = t.up[gear-1].at(throttle)
	}
	if gear > 1 {
		th.Downshift = t.down[gear-2].at(throttle)
	}
	return th
}

// at interpolates the curve at the given throttle. Exact breakpoint matches
// return the calibrated value unmodified; throttle beyond the curve's ends
// holds the end value.
func (c Curve) at(throttle float64) float64 {
	if throttle <= c[0].Throttle {
		return c[0].Speed
	}
	last := c[len(c)-1]
	if throttle >= last.Throttle {
		return last.Speed
	}

	for i := 1; i < len(c); i++ {
		if throttle == c[i].Throttle {
			return c[i].Speed
		}
		if throttle < c[i].Throttle {
			lo, hi := c[i-1], c[i]
			frac := (throttle - lo.Throttle) / (hi.Throttle - lo.Throttle)
			return lo.Speed + (hi.Speed-lo.Speed)*frac
		}
	}
	return last.Speed
}

// clampThrottle clamps throttle to [0,100], treating NaN as 0 (sensor
// dropout).
func clampThrottle(throttle float64) float64 {
	if math.IsNaN(throttle) {
		return 0
	}
	return max(0, min(100, throttle))
}
