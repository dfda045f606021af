package main

import (
	"context"
	"log"
	"strconv"
	"time"
)

// PlantInputs is the latest known state of the plant sensors: one throttle
// and one speed reading with the time each was last updated. The controller
// consumes instantaneous values, so only the current reading is kept.
type PlantInputs struct {
	Throttle   float64
	Speed      float64
	ThrottleAt time.Time
	SpeedAt    time.Time
}

// Ready reports whether both sensors have delivered at least one reading.
func (p PlantInputs) Ready() bool {
	return !p.ThrottleAt.IsZero() && !p.SpeedAt.IsZero()
}

// plantWorker receives sensor messages, parses them, and maintains the
// latest PlantInputs, forwarding a copy downstream on every update. The
// controller itself clamps out-of-range values, so no clamping happens here.
func plantWorker(
	ctx context.Context,
	msgChan <-chan SensorMessage,
	outputChan chan<- PlantInputs,
	config PlantConfig,
) {
	var inputs PlantInputs
	ready := false

	for {
		select {
		case msg := <-msgChan:
			value, err := strconv.ParseFloat(msg.Value, 64)
			if err != nil {
				log.Printf("Plant worker: unparseable value on %s: %q\n", msg.Topic, msg.Value)
				continue
			}

			switch msg.Topic {
			case config.ThrottleTopic:
				inputs.Throttle = value
				inputs.ThrottleAt = time.Now()
			case config.SpeedTopic:
				inputs.Speed = value
				inputs.SpeedAt = time.Now()
			default:
				log.Printf("Plant worker: reading on unexpected topic %s\n", msg.Topic)
				continue
			}

			if !ready && inputs.Ready() {
				ready = true
				log.Println("Plant worker ready: both sensors reporting")
			}
			if !ready {
				continue
			}

			select {
			case outputChan <- inputs:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			log.Println("Plant worker stopped")
			return
		}
	}
}
