package main

import "time"

// ShiftConfig holds shared configuration for the shift controller daemon
type ShiftConfig struct {
	Name           string
	DebounceTicks  uint64
	SampleInterval time.Duration
	// StaleAfter is how old a sensor reading may be before the driver warns
	// that the plant inputs have gone quiet.
	StaleAfter time.Duration

	ThrottleTopic string
	SpeedTopic    string

	// CAN signal definitions used when the input source is a CAN bus
	// instead of MQTT. Decoded values are forwarded under the same logical
	// topics as the MQTT sensors.
	CANThrottle CANSignalConfig
	CANSpeed    CANSignalConfig
}

// CANSignalConfig describes how to extract one physical value from a CAN frame
type CANSignalConfig struct {
	FrameID  uint32
	StartBit int
	Length   int
	Signed   bool
	Factor   float64
	Offset   float64
	Topic    string // logical topic the decoded value is forwarded as
}

// DriverConfig holds configuration for the controller driver worker
type DriverConfig struct {
	Name           string
	SampleInterval time.Duration
	StaleAfter     time.Duration
	GearDeviceName string
}

// PlantConfig holds configuration for the plant input worker
type PlantConfig struct {
	ThrottleTopic string
	SpeedTopic    string
}

// DriverCfg creates a DriverConfig from the shared ShiftConfig
func (c *ShiftConfig) DriverCfg() DriverConfig {
	return DriverConfig{
		Name:           c.Name,
		SampleInterval: c.SampleInterval,
		StaleAfter:     c.StaleAfter,
		GearDeviceName: c.Name + " Gear",
	}
}

// PlantCfg creates a PlantConfig from the shared ShiftConfig
func (c *ShiftConfig) PlantCfg() PlantConfig {
	return PlantConfig{
		ThrottleTopic: c.ThrottleTopic,
		SpeedTopic:    c.SpeedTopic,
	}
}

// Topics returns the MQTT subscription list for the sensor inputs
func (c *ShiftConfig) Topics() []string {
	return []string{c.ThrottleTopic, c.SpeedTopic}
}

// DefaultShiftConfig returns the reference configuration: a 4-speed
// transmission sampled at 40ms with a 5 tick debounce window.
func DefaultShiftConfig() ShiftConfig {
	return ShiftConfig{
		Name:           "Transmission",
		DebounceTicks:  5,
		SampleInterval: 40 * time.Millisecond,
		StaleAfter:     2 * time.Second,
		ThrottleTopic:  "homeassistant/sensor/vehicle_throttle_position/state",
		SpeedTopic:     "homeassistant/sensor/vehicle_speed/state",
		CANThrottle: CANSignalConfig{
			FrameID:  0x200,
			StartBit: 0,
			Length:   16,
			Factor:   0.01, // percent, 0.01 resolution
			Topic:    "homeassistant/sensor/vehicle_throttle_position/state",
		},
		CANSpeed: CANSignalConfig{
			FrameID:  0x300,
			StartBit: 0,
			Length:   16,
			Signed:   true,
			Factor:   0.01, // mph, 0.01 resolution
			Topic:    "homeassistant/sensor/vehicle_speed/state",
		},
	}
}
