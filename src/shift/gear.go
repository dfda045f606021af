package shift

// Register holds the current gear and applies confirmed shift intents.
// The gear only changes through Apply, so it can never leave [1, topGear].
type Register struct {
	gear    int
	topGear int
}

// NewRegister creates a Register starting in first gear.
func NewRegister(topGear int) *Register {
	return &Register{gear: 1, topGear: topGear}
}

// Gear returns the current gear.
func (r *Register) Gear() int {
	return r.gear
}

// Apply applies a shift intent and returns the resulting gear. Boundary
// intents are clamped rather than rejected: the confirmer's guards make them
// impossible in normal operation, so an out-of-bounds request is a latent
// upstream bug, not something worth crashing the controller over.
func (r *Register) Apply(intent Intent) int {
	switch intent {
	case Up:
		r.gear = min(r.gear+1, r.topGear)
	case Down:
		r.gear = max(r.gear-1, 1)
	}
	return r.gear
}

// Reset returns the register to first gear.
func (r *Register) Reset() {
	r.gear = 1
}

// set forces the gear. The caller validates the range.
func (r *Register) set(gear int) {
	r.gear = gear
}
