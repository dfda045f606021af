package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryansname/shiftctl/src/shift"
)

func writeCalibrationFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calibration.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCalibrationValid(t *testing.T) {
	path := writeCalibrationFile(t, `{
		"upshift": [
			[{"throttle": 0, "speed": 10}, {"throttle": 100, "speed": 40}],
			[{"throttle": 0, "speed": 20}, {"throttle": 100, "speed": 70}]
		],
		"downshift": [
			[{"throttle": 0, "speed": 5}, {"throttle": 100, "speed": 25}],
			[{"throttle": 0, "speed": 12}, {"throttle": 100, "speed": 55}]
		]
	}`)

	cal, err := LoadCalibration(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cal.TopGear())

	table, err := shift.NewTable(cal)
	require.NoError(t, err)
	assert.Equal(t, 25.0, table.Thresholds(1, 50).Upshift)
}

func TestLoadCalibrationRejectsNonMonotonic(t *testing.T) {
	// Upshift speed decreases with throttle
	path := writeCalibrationFile(t, `{
		"upshift": [
			[{"throttle": 0, "speed": 40}, {"throttle": 100, "speed": 10}]
		],
		"downshift": [
			[{"throttle": 0, "speed": 5}, {"throttle": 100, "speed": 25}]
		]
	}`)

	_, err := LoadCalibration(path)
	require.Error(t, err)
	var calErr *shift.CalibrationError
	assert.ErrorAs(t, err, &calErr)
}

func TestLoadCalibrationRejectsMalformedJSON(t *testing.T) {
	path := writeCalibrationFile(t, `{"upshift": [`)

	_, err := LoadCalibration(path)
	assert.Error(t, err)
}

func TestLoadCalibrationMissingFile(t *testing.T) {
	_, err := LoadCalibration(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
