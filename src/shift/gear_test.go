package shift

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterApply(t *testing.T) {
	r := NewRegister(4)
	assert.Equal(t, 1, r.Gear())

	assert.Equal(t, 2, r.Apply(Up))
	assert.Equal(t, 3, r.Apply(Up))
	assert.Equal(t, 3, r.Apply(None))
	assert.Equal(t, 2, r.Apply(Down))
}

func TestRegisterClampsAtBoundaries(t *testing.T) {
	r := NewRegister(4)

	// Down at first gear stays put.
	assert.Equal(t, 1, r.Apply(Down))
	assert.Equal(t, 1, r.Gear())

	// Up at top gear stays put.
	for range 5 {
		r.Apply(Up)
	}
	assert.Equal(t, 4, r.Gear())
}

func TestRegisterReset(t *testing.T) {
	r := NewRegister(4)
	r.Apply(Up)
	r.Apply(Up)

	r.Reset()
	assert.Equal(t, 1, r.Gear())
}
