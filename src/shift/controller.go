package shift

import (
	"fmt"
	"math"
)

// InvariantError reports a broken internal invariant: a programming defect
// upstream, never a consequence of valid external input. It is delivered by
// panic so the supervising worker's recovery path handles it.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "controller invariant violated: " + e.Reason
}

// Controller is the fixed-rate supervisory gear controller. Each Step reads
// the plant inputs, looks up thresholds for the pre-step gear, advances the
// confirmation state machine exactly once, applies any resulting intent to
// the gear register, and increments the tick counter.
//
// A Controller owns its state exclusively and is not safe for concurrent
// use; parallel scenarios each get their own instance.
type Controller struct {
	table   *Table
	confirm *Confirmer
	reg     *Register
	tick    uint64
}

// NewController builds a controller from a calibration and a debounce window
// in ticks. The calibration is validated here; a controller that constructed
// successfully cannot fail during Step.
func NewController(cal Calibration, debounceTicks uint64) (*Controller, error) {
	table, err := NewTable(cal)
	if err != nil {
		return nil, fmt.Errorf("new controller: %w", err)
	}
	return &Controller{
		table:   table,
		confirm: NewConfirmer(debounceTicks),
		reg:     NewRegister(table.TopGear()),
	}, nil
}

// Step advances the controller by one tick and returns the post-step gear.
// Out-of-range throttle is clamped to [0,100] and negative or NaN speed is
// treated as 0; Step is total over its input domain.
//
// All three updates (table lookup, confirmation advance, register apply) see
// the gear that was current at the start of the call, so the gear cannot
// change mid-evaluation and produce inconsistent thresholds within a tick.
func (c *Controller) Step(throttle, speed float64) int {
	gear := c.reg.Gear()
	if gear < 1 || gear > c.table.TopGear() {
		panic(&InvariantError{Reason: fmt.Sprintf("gear %d outside 1..%d at start of tick %d", gear, c.table.TopGear(), c.tick)})
	}

	if speed < 0 || math.IsNaN(speed) {
		speed = 0
	}

	th := c.table.Thresholds(gear, throttle)
	intent := c.confirm.Advance(c.tick, gear, c.table.TopGear(), speed, th)
	gear = c.reg.Apply(intent)
	c.tick++
	return gear
}

// Gear returns the current gear without advancing the controller.
func (c *Controller) Gear() int {
	return c.reg.Gear()
}

// Tick returns the number of steps taken since construction or the last
// Reset.
func (c *Controller) Tick() uint64 {
	return c.tick
}

// TopGear returns the number of gears.
func (c *Controller) TopGear() int {
	return c.table.TopGear()
}

// Thresholds exposes the table lookup for the current gear, for diagnostics.
func (c *Controller) Thresholds(throttle float64) Thresholds {
	return c.table.Thresholds(c.reg.Gear(), throttle)
}

// Snapshot is a point-in-time copy of the controller's state, for
// diagnostics and the debug console.
type Snapshot struct {
	Tick      uint64
	Gear      int
	State     State
	EntryTick uint64 // meaningful only when State is not Idle
}

// Snapshot returns the current state without mutating anything.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Tick:      c.tick,
		Gear:      c.reg.Gear(),
		State:     c.confirm.State(),
		EntryTick: c.confirm.EntryTick(),
	}
}

// SetGear forces the current gear, cancelling any in-progress confirmation.
// Used by the debug console and to start scenarios from a non-initial gear.
func (c *Controller) SetGear(gear int) error {
	if gear < 1 || gear > c.table.TopGear() {
		return fmt.Errorf("set gear: %d outside 1..%d", gear, c.table.TopGear())
	}
	c.reg.set(gear)
	c.confirm.Reset()
	return nil
}

// Reset returns the controller to its initial state: first gear, idle
// confirmation, tick zero. Used between test runs and by the debug console.
func (c *Controller) Reset() {
	c.reg.Reset()
	c.confirm.Reset()
	c.tick = 0
}
