package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryansname/shiftctl/src/shift"
)

func TestEvalPlantCmd(t *testing.T) {
	scen := Scenario{
		Timing:   ScenarioTiming{DurationS: 10},
		Defaults: PlantCmd{Throttle: 20, Speed: 0},
		Segments: []ScenarioSegment{
			{T0: 2, T1: 4, Throttle: 50, Speed: 25},
			{T0: 4, T1: -1, Throttle: 80, Speed: 60},
		},
	}

	tests := []struct {
		name string
		t    float64
		want PlantCmd
	}{
		{"before first segment uses defaults", 1.0, PlantCmd{Throttle: 20, Speed: 0}},
		{"inside first segment", 3.0, PlantCmd{Throttle: 50, Speed: 25}},
		{"segment start is inclusive", 2.0, PlantCmd{Throttle: 50, Speed: 25}},
		{"segment end is exclusive", 4.0, PlantCmd{Throttle: 80, Speed: 60}},
		{"negative t1 runs to scenario end", 9.9, PlantCmd{Throttle: 80, Speed: 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvalPlantCmd(&scen, tt.t))
		})
	}
}

func TestRunScenarioCommitsSustainedShift(t *testing.T) {
	// 100ms ticks, debounce 5. Gear 2 at 25% throttle upshifts above 30 mph;
	// speed crosses at t=0.4s and holds, so the shift commits at tick 9.
	config := DefaultShiftConfig()
	config.SampleInterval = 100 * time.Millisecond
	config.DebounceTicks = 5

	scen := Scenario{
		Timing:    ScenarioTiming{DurationS: 1.0},
		Defaults:  PlantCmd{Throttle: 25, Speed: 28},
		StartGear: 2,
		Segments: []ScenarioSegment{
			{T0: 0.4, T1: -1, Throttle: 25, Speed: 31},
		},
	}

	result, err := runScenario(&scen, shift.DefaultCalibration(), config)
	require.NoError(t, err)

	require.Len(t, result.Events, 1)
	assert.Equal(t, uint64(9), result.Events[0].Tick)
	assert.Equal(t, 2, result.Events[0].From)
	assert.Equal(t, 3, result.Events[0].To)
	assert.Equal(t, 3, result.FinalGear)
}

func TestRunScenarioRejectsTransientCrossing(t *testing.T) {
	// Speed pokes above the threshold for two ticks, then falls back before
	// the debounce window elapses: no shift.
	config := DefaultShiftConfig()
	config.SampleInterval = 100 * time.Millisecond
	config.DebounceTicks = 5

	scen := Scenario{
		Timing:    ScenarioTiming{DurationS: 1.0},
		Defaults:  PlantCmd{Throttle: 25, Speed: 28},
		StartGear: 2,
		Segments: []ScenarioSegment{
			{T0: 0.4, T1: 0.6, Throttle: 25, Speed: 31},
		},
	}

	result, err := runScenario(&scen, shift.DefaultCalibration(), config)
	require.NoError(t, err)

	assert.Empty(t, result.Events)
	assert.Equal(t, 2, result.FinalGear)
}

func TestRunScenarioRejectsBadStartGear(t *testing.T) {
	scen := Scenario{
		Timing:    ScenarioTiming{DurationS: 1.0},
		StartGear: 9,
	}

	_, err := runScenario(&scen, shift.DefaultCalibration(), DefaultShiftConfig())
	assert.Error(t, err)
}
