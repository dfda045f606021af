package shift

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Fixed thresholds for confirmer tests: up at 30, down at 19.
var testThresholds = Thresholds{Upshift: 30, Downshift: 19}

func TestConfirmerUpshiftDebounce(t *testing.T) {
	c := NewConfirmer(5)

	t.Run("below threshold stays idle", func(t *testing.T) {
		for tick := uint64(0); tick < 4; tick++ {
			assert.Equal(t, None, c.Advance(tick, 2, 4, 28, testThresholds))
			assert.Equal(t, Idle, c.State())
		}
	})

	t.Run("crossing enters confirming without emitting", func(t *testing.T) {
		assert.Equal(t, None, c.Advance(4, 2, 4, 31, testThresholds))
		assert.Equal(t, ConfirmingUp, c.State())
		assert.Equal(t, uint64(4), c.EntryTick())
	})

	t.Run("holds through window then emits up", func(t *testing.T) {
		for tick := uint64(5); tick < 9; tick++ {
			assert.Equal(t, None, c.Advance(tick, 2, 4, 31, testThresholds))
			assert.Equal(t, ConfirmingUp, c.State())
		}
		assert.Equal(t, Up, c.Advance(9, 2, 4, 31, testThresholds))
		assert.Equal(t, Idle, c.State())
	})
}

func TestConfirmerDownshiftDebounce(t *testing.T) {
	c := NewConfirmer(3)

	assert.Equal(t, None, c.Advance(0, 3, 4, 18, testThresholds))
	assert.Equal(t, ConfirmingDown, c.State())

	assert.Equal(t, None, c.Advance(1, 3, 4, 18, testThresholds))
	assert.Equal(t, None, c.Advance(2, 3, 4, 17, testThresholds))
	assert.Equal(t, Down, c.Advance(3, 3, 4, 17, testThresholds))
	assert.Equal(t, Idle, c.State())
}

func TestConfirmerChatterRejection(t *testing.T) {
	c := NewConfirmer(5)

	// Speed crosses up at tick 4 then drops back at tick 6, before the
	// window elapses: no intent, back to idle.
	assert.Equal(t, None, c.Advance(4, 2, 4, 31, testThresholds))
	assert.Equal(t, ConfirmingUp, c.State())
	assert.Equal(t, None, c.Advance(5, 2, 4, 31, testThresholds))
	assert.Equal(t, None, c.Advance(6, 2, 4, 29, testThresholds))
	assert.Equal(t, Idle, c.State())

	// A fresh crossing restarts the window from its own entry tick.
	assert.Equal(t, None, c.Advance(7, 2, 4, 31, testThresholds))
	assert.Equal(t, uint64(7), c.EntryTick())
	for tick := uint64(8); tick < 12; tick++ {
		assert.Equal(t, None, c.Advance(tick, 2, 4, 31, testThresholds))
	}
	assert.Equal(t, Up, c.Advance(12, 2, 4, 31, testThresholds))
}

func TestConfirmerBoundaryGuards(t *testing.T) {
	t.Run("no upshift confirmation from top gear", func(t *testing.T) {
		c := NewConfirmer(2)
		// Top gear thresholds carry +Inf upshift, but the guard alone must
		// hold even with a finite threshold.
		assert.Equal(t, None, c.Advance(0, 4, 4, 500, testThresholds))
		assert.Equal(t, Idle, c.State())
	})

	t.Run("no downshift confirmation from first gear", func(t *testing.T) {
		c := NewConfirmer(2)
		assert.Equal(t, None, c.Advance(0, 1, 4, 0, testThresholds))
		assert.Equal(t, Idle, c.State())
	})
}

func TestConfirmerExactThresholdDoesNotTrigger(t *testing.T) {
	c := NewConfirmer(2)

	// Strict comparisons: speed equal to the threshold is not a crossing.
	assert.Equal(t, None, c.Advance(0, 2, 4, 30, testThresholds))
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, None, c.Advance(1, 2, 4, 19, testThresholds))
	assert.Equal(t, Idle, c.State())
}

func TestConfirmerLapseAtExactThreshold(t *testing.T) {
	c := NewConfirmer(5)

	// Enter confirming, then speed falls back to exactly the threshold:
	// the condition no longer holds, so the confirmation cancels.
	assert.Equal(t, None, c.Advance(0, 2, 4, 31, testThresholds))
	assert.Equal(t, ConfirmingUp, c.State())
	assert.Equal(t, None, c.Advance(1, 2, 4, 30, testThresholds))
	assert.Equal(t, Idle, c.State())
}

func TestConfirmerZeroDebounce(t *testing.T) {
	c := NewConfirmer(0)

	// Entry tick still emits nothing; the shift commits on the next tick.
	assert.Equal(t, None, c.Advance(0, 2, 4, 31, testThresholds))
	assert.Equal(t, Up, c.Advance(1, 2, 4, 31, testThresholds))
}

func TestConfirmerReset(t *testing.T) {
	c := NewConfirmer(5)

	assert.Equal(t, None, c.Advance(0, 2, 4, 31, testThresholds))
	assert.Equal(t, ConfirmingUp, c.State())

	c.Reset()
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, uint64(0), c.EntryTick())
}
