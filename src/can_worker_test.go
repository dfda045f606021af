package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSignalUnsigned(t *testing.T) {
	// 16-bit little-endian throttle with 0.01 resolution: 0x1234 = 4660 raw
	sig := CANSignalConfig{StartBit: 0, Length: 16, Factor: 0.01}
	data := []byte{0x34, 0x12}

	assert.InDelta(t, 46.60, decodeSignal(data, sig), 1e-9)
}

func TestDecodeSignalSigned(t *testing.T) {
	sig := CANSignalConfig{StartBit: 0, Length: 16, Signed: true, Factor: 0.01}

	t.Run("positive", func(t *testing.T) {
		// 3000 raw = 30.00
		assert.InDelta(t, 30.0, decodeSignal([]byte{0xB8, 0x0B}, sig), 1e-9)
	})

	t.Run("negative", func(t *testing.T) {
		// -100 raw = 0xFF9C little-endian
		assert.InDelta(t, -1.0, decodeSignal([]byte{0x9C, 0xFF}, sig), 1e-9)
	})
}

func TestDecodeSignalOffsetAndUnalignedStart(t *testing.T) {
	// 8-bit signal starting at bit 8 (second byte) with an offset
	sig := CANSignalConfig{StartBit: 8, Length: 8, Factor: 1, Offset: -40}
	data := []byte{0x00, 0x64} // 100 raw

	assert.InDelta(t, 60.0, decodeSignal(data, sig), 1e-9)
}

func TestDecodeSignalSubByte(t *testing.T) {
	// 4-bit signal in the high nibble of the first byte
	sig := CANSignalConfig{StartBit: 4, Length: 4, Factor: 1}
	data := []byte{0xA5}

	assert.InDelta(t, 10.0, decodeSignal(data, sig), 1e-9)
}
