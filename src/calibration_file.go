package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ryansname/shiftctl/src/shift"
)

// calibrationFile is the on-disk calibration format: one curve per adjacent
// gear transition in each direction, ordered from the lowest transition up.
//
//	{
//	  "upshift":   [ [ {"throttle": 0, "speed": 10}, ... ], ... ],
//	  "downshift": [ [ {"throttle": 0, "speed": 5},  ... ], ... ]
//	}
type calibrationFile struct {
	Upshift   [][]calibrationPoint `json:"upshift"`
	Downshift [][]calibrationPoint `json:"downshift"`
}

type calibrationPoint struct {
	Throttle float64 `json:"throttle"`
	Speed    float64 `json:"speed"`
}

// LoadCalibration loads a calibration from a JSON file. The structural and
// monotonicity invariants are checked by building a table from it, so a
// calibration this returns is always safe to construct a controller with.
func LoadCalibration(path string) (shift.Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return shift.Calibration{}, fmt.Errorf("read calibration: %w", err)
	}

	var file calibrationFile
	if err := json.Unmarshal(data, &file); err != nil {
		return shift.Calibration{}, fmt.Errorf("parse calibration: %w", err)
	}

	cal := shift.Calibration{
		Upshift:   toCurves(file.Upshift),
		Downshift: toCurves(file.Downshift),
	}

	// Validate now so startup fails fast instead of at controller creation
	if _, err := shift.NewTable(cal); err != nil {
		return shift.Calibration{}, fmt.Errorf("calibration %s: %w", path, err)
	}

	return cal, nil
}

func toCurves(raw [][]calibrationPoint) []shift.Curve {
	curves := make([]shift.Curve, 0, len(raw))
	for _, points := range raw {
		curve := make(shift.Curve, 0, len(points))
		for _, p := range points {
			curve = append(curve, shift.Point{Throttle: p.Throttle, Speed: p.Speed})
		}
		curves = append(curves, curve)
	}
	return curves
}
