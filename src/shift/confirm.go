package shift

// State is the confirmation region's state: idle, or waiting out the
// debounce window for an up or down shift.
type State int

const (
	Idle State = iota
	ConfirmingUp
	ConfirmingDown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case ConfirmingUp:
		return "CONFIRMING_UP"
	case ConfirmingDown:
		return "CONFIRMING_DOWN"
	default:
		return "UNKNOWN"
	}
}

// Intent is the shift decision produced by one confirmation step. At most
// one non-None intent is emitted per tick, and it is consumed by the gear
// register within the same tick.
type Intent int

const (
	None Intent = iota
	Up
	Down
)

func (i Intent) String() string {
	switch i {
	case None:
		return "NONE"
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// Confirmer decides whether a threshold crossing is real or transient noise.
// A crossing must hold for debounceTicks consecutive ticks before the shift
// is committed; the triggering condition is re-checked every tick while
// confirming, so a crossing that lapses before the window elapses cancels
// back to idle without shifting.
type Confirmer struct {
	state     State
	entryTick uint64 // tick at which confirmation began; meaningless when idle
	debounce  uint64
}

// NewConfirmer creates a Confirmer with the given debounce window in ticks.
func NewConfirmer(debounceTicks uint64) *Confirmer {
	return &Confirmer{debounce: debounceTicks}
}

// State returns the current confirmation state.
func (c *Confirmer) State() State {
	return c.state
}

// EntryTick returns the tick at which the current confirmation began.
// Only meaningful when State is not Idle.
func (c *Confirmer) EntryTick() uint64 {
	return c.entryTick
}

// Reset returns the confirmer to Idle, discarding any in-progress
// confirmation.
func (c *Confirmer) Reset() {
	c.state = Idle
	c.entryTick = 0
}

// Advance evaluates one tick. gear and th must be the values current at the
// start of the tick: the gear register is only updated after Advance returns,
// so thresholds keep their pre-shift meaning throughout a confirmation.
//
// The boundary guards (gear < topGear, gear > 1) mean confirmation is never
// entered for a shift the register could not honor.
func (c *Confirmer) Advance(tick uint64, gear, topGear int, speed float64, th Thresholds) Intent {
	switch c.state {
	case ConfirmingUp:
		if !(speed > th.Upshift) {
			// Condition lapsed before the window elapsed: noise, not a shift.
			c.Reset()
			return None
		}
		if tick-c.entryTick >= c.debounce {
			c.Reset()
			return Up
		}
		return None

	case ConfirmingDown:
		if !(speed < th.Downshift) {
			c.Reset()
			return None
		}
		if tick-c.entryTick >= c.debounce {
			c.Reset()
			return Down
		}
		return None

	default: // Idle
		if gear < topGear && speed > th.Upshift {
			c.state = ConfirmingUp
			c.entryTick = tick
		} else if gear > 1 && speed < th.Downshift {
			c.state = ConfirmingDown
			c.entryTick = tick
		}
		return None
	}
}
