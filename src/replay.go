package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/ryansname/shiftctl/src/shift"
)

// Scenario is a recorded drive: throttle and speed over time, replayed
// against the controller offline at the configured sample interval.
type Scenario struct {
	Meta      ScenarioMeta      `json:"meta"`
	Timing    ScenarioTiming    `json:"timing"`
	Defaults  PlantCmd          `json:"defaults"`
	Segments  []ScenarioSegment `json:"segments"`
	StartGear int               `json:"start_gear,omitempty"` // 0 = first gear
}

// ScenarioMeta contains scenario metadata
type ScenarioMeta struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ScenarioTiming defines how long the scenario runs
type ScenarioTiming struct {
	DurationS float64 `json:"duration_s"`
}

// ScenarioSegment holds the plant inputs for one time window. T1 < 0 means
// "until the end of the scenario".
type ScenarioSegment struct {
	T0       float64 `json:"t0"`
	T1       float64 `json:"t1"`
	Throttle float64 `json:"throttle"`
	Speed    float64 `json:"speed"`
	Comment  string  `json:"comment,omitempty"`
}

// PlantCmd is one (throttle, speed) input pair
type PlantCmd struct {
	Throttle float64 `json:"throttle"`
	Speed    float64 `json:"speed"`
}

// LoadScenario loads a scenario from a JSON file
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}

	var scen Scenario
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario: %w", err)
	}

	if scen.Timing.DurationS <= 0 {
		return Scenario{}, fmt.Errorf("invalid duration_s: %f", scen.Timing.DurationS)
	}

	return scen, nil
}

// EvalPlantCmd evaluates the scenario at time t
func EvalPlantCmd(scen *Scenario, t float64) PlantCmd {
	cmd := scen.Defaults

	// Find active segment
	for _, seg := range scen.Segments {
		t1 := seg.T1
		if t1 < 0 {
			t1 = scen.Timing.DurationS
		}

		if t >= seg.T0 && t < t1 {
			cmd.Throttle = seg.Throttle
			cmd.Speed = seg.Speed
			break
		}
	}

	return cmd
}

// ShiftEvent records one committed gear change during a replay
type ShiftEvent struct {
	Tick     uint64
	TimeS    float64
	From, To int
	Throttle float64
	Speed    float64
}

// ReplayResult is the outcome of running a scenario against a controller
type ReplayResult struct {
	Ticks     uint64
	FinalGear int
	Events    []ShiftEvent
}

// runScenario steps a fresh controller through the scenario and collects the
// shift events. Pure logical time: one tick per sample interval, no clock.
func runScenario(scen *Scenario, cal shift.Calibration, config ShiftConfig) (ReplayResult, error) {
	controller, err := shift.NewController(cal, config.DebounceTicks)
	if err != nil {
		return ReplayResult{}, err
	}
	if scen.StartGear > 0 {
		if err := controller.SetGear(scen.StartGear); err != nil {
			return ReplayResult{}, fmt.Errorf("scenario start_gear: %w", err)
		}
	}

	dt := config.SampleInterval.Seconds()
	ticks := uint64(scen.Timing.DurationS / dt)

	result := ReplayResult{Ticks: ticks}
	gear := controller.Gear()

	for tick := uint64(0); tick < ticks; tick++ {
		t := float64(tick) * dt
		cmd := EvalPlantCmd(scen, t)

		newGear := controller.Step(cmd.Throttle, cmd.Speed)
		if newGear != gear {
			result.Events = append(result.Events, ShiftEvent{
				Tick:     tick,
				TimeS:    t,
				From:     gear,
				To:       newGear,
				Throttle: cmd.Throttle,
				Speed:    cmd.Speed,
			})
			gear = newGear
		}
	}

	result.FinalGear = gear
	return result, nil
}

// RunReplay loads a scenario, replays it offline, and renders the shift
// events as a table.
func RunReplay(path string, cal shift.Calibration, config ShiftConfig) error {
	scen, err := LoadScenario(path)
	if err != nil {
		return err
	}

	pterm.DefaultHeader.WithFullWidth().Printfln("Replay: %s", scen.Meta.Name)
	if scen.Meta.Description != "" {
		pterm.Info.Println(scen.Meta.Description)
	}
	pterm.Info.Printfln("%.1fs at %v per tick, debounce %d ticks",
		scen.Timing.DurationS, config.SampleInterval, config.DebounceTicks)

	result, err := runScenario(&scen, cal, config)
	if err != nil {
		return err
	}

	if len(result.Events) == 0 {
		pterm.Warning.Println("No gear changes")
		return nil
	}

	data := pterm.TableData{{"Tick", "Time", "Shift", "Throttle", "Speed"}}
	for _, ev := range result.Events {
		data = append(data, []string{
			fmt.Sprintf("%d", ev.Tick),
			fmt.Sprintf("%.2fs", ev.TimeS),
			fmt.Sprintf("%d -> %d", ev.From, ev.To),
			fmt.Sprintf("%.1f%%", ev.Throttle),
			fmt.Sprintf("%.1f", ev.Speed),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	pterm.Success.Printfln("%d shifts over %d ticks, final gear %d",
		len(result.Events), result.Ticks, result.FinalGear)
	return nil
}
