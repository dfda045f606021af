package main

import (
	"context"
	"log"
	"time"

	"github.com/ryansname/shiftctl/src/shift"
)

// DriverStatus is a point-in-time view of the driver for the debug console:
// the controller snapshot plus the inputs and thresholds it was stepped with.
type DriverStatus struct {
	Snapshot   shift.Snapshot
	Inputs     PlantInputs
	Thresholds shift.Thresholds
}

// driverWorker is the fixed-cadence driver: one Controller.Step per sample
// interval using the latest plant inputs. The controller is owned exclusively
// by this worker; everyone else sees it through DriverStatus snapshots.
func driverWorker(
	ctx context.Context,
	inputsChan <-chan PlantInputs,
	statusChan chan<- DriverStatus,
	config DriverConfig,
	controller *shift.Controller,
	sender *MQTTSender,
) {
	log.Printf("Driver worker started (interval %v)\n", config.SampleInterval)

	ticker := time.NewTicker(config.SampleInterval)
	defer ticker.Stop()

	var inputs PlantInputs
	lastGear := controller.Gear()
	staleWarned := false

	// Publish the initial gear so the entity is never unknown
	sender.PublishGear(config.GearDeviceName, lastGear)

	for {
		select {
		case latest := <-inputsChan:
			inputs = latest

		case now := <-ticker.C:
			if !inputs.Ready() {
				continue
			}

			// Warn once when the sensors go quiet; the controller keeps
			// stepping on the last known values.
			age := max(now.Sub(inputs.ThrottleAt), now.Sub(inputs.SpeedAt))
			if age > config.StaleAfter {
				if !staleWarned {
					log.Printf("Driver worker: plant inputs stale for %v, holding last values\n", age.Round(time.Millisecond))
					staleWarned = true
				}
			} else {
				staleWarned = false
			}

			thresholds := controller.Thresholds(inputs.Throttle)
			gear := controller.Step(inputs.Throttle, inputs.Speed)

			if gear != lastGear {
				log.Printf("Driver worker: gear %d -> %d (throttle=%.1f%% speed=%.1f)\n",
					lastGear, gear, inputs.Throttle, inputs.Speed)
				sender.PublishGear(config.GearDeviceName, gear)
				lastGear = gear
			}

			// Non-blocking: the debug console may not be running
			select {
			case statusChan <- DriverStatus{
				Snapshot:   controller.Snapshot(),
				Inputs:     inputs,
				Thresholds: thresholds,
			}:
			default:
			}

		case <-ctx.Done():
			log.Println("Driver worker stopped")
			return
		}
	}
}
