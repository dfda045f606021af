package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"

	"github.com/ryansname/shiftctl/src/shift"
)

// SensorMessage represents one sensor reading with its logical topic.
// Both the MQTT and CAN input workers produce these.
type SensorMessage struct {
	Topic string
	Value string
}

// SafeGo launches a goroutine with panic recovery and retry logic.
// On panic, retries with exponential backoff (max 10 retries).
// Retry count resets if worker ran for 2+ minutes before failing.
// After exhausting retries, cancels context to trigger shutdown.
func SafeGo(
	ctx context.Context,
	cancel context.CancelFunc,
	name string,
	fn func(ctx context.Context),
) {
	const maxRetries = 10
	const maxDelay = 10 * time.Minute
	const resetAfter = 2 * time.Minute

	go func() {
		retries := 0
		delay := time.Second

		for {
			startTime := time.Now()
			var panicValue any

			func() {
				defer func() {
					panicValue = recover()
				}()
				fn(ctx)
			}()

			// If function returned normally (no panic), exit the goroutine
			// This covers both context cancellation and unexpected completion
			if panicValue == nil {
				return
			}

			// If ran for resetAfter duration before panicking, reset retry state
			if time.Since(startTime) >= resetAfter {
				retries = 0
				delay = time.Second
			}

			retries++
			log.Printf("Panic in %s (attempt %d/%d): %v\n", name, retries, maxRetries, panicValue)

			// Check if we've exhausted retries
			if retries >= maxRetries {
				log.Printf("%s failed after %d retries, shutting down\n", name, maxRetries)
				cancel()
				return
			}

			// Wait before retry with exponential backoff
			log.Printf("%s will retry in %v\n", name, delay)
			select {
			case <-time.After(delay):
				// Double delay for next time, cap at max
				delay = min(delay*2, maxDelay)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// loadCalibrationOrDefault loads the calibration file if a path was given,
// falling back to the built-in 4-speed calibration.
func loadCalibrationOrDefault(path string) (shift.Calibration, error) {
	if path == "" {
		return shift.DefaultCalibration(), nil
	}
	return LoadCalibration(path)
}

func main() {
	log.Println("Starting shiftctl...")

	var (
		source        = flag.String("source", "mqtt", "sensor input source: mqtt or can")
		broker        = flag.String("broker", "homeassistant.lan", "MQTT broker host")
		iface         = flag.String("iface", "can0", "SocketCAN interface (for -source can)")
		calibPath     = flag.String("calibration", "", "calibration JSON file (default: built-in 4-speed)")
		scenarioPath  = flag.String("replay", "", "scenario JSON file: replay offline and exit")
		debounceTicks = flag.Uint64("debounce", 0, "debounce window in ticks (0 = config default)")
		debugConsole  = flag.Bool("debug", false, "enable the interactive debug console")
	)
	flag.Parse()

	config := DefaultShiftConfig()
	if *debounceTicks > 0 {
		config.DebounceTicks = *debounceTicks
	}

	cal, err := loadCalibrationOrDefault(*calibPath)
	if err != nil {
		log.Fatalf("Calibration: %v", err)
	}

	// Offline replay: no broker, no workers, just the controller against a
	// recorded scenario.
	if *scenarioPath != "" {
		if err := RunReplay(*scenarioPath, cal, config); err != nil {
			log.Fatalf("Replay: %v", err)
		}
		return
	}

	controller, err := shift.NewController(cal, config.DebounceTicks)
	if err != nil {
		log.Fatalf("Controller: %v", err)
	}
	log.Printf("Controller ready: %d gears, debounce %d ticks, sample interval %v\n",
		controller.TopGear(), config.DebounceTicks, config.SampleInterval)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v\n", err)
	}

	// Create context for lifecycle management
	ctx, cancel := context.WithCancel(context.Background())

	// Create channels for communication between workers
	msgChan := make(chan SensorMessage, 10)
	inputsChan := make(chan PlantInputs, 10)
	mqttOutgoingChan := make(chan MQTTMessage, 100) // Larger buffer for queuing
	mqttClientChan := make(chan mqtt.Client, 1)     // Buffered to prevent blocking onConnect

	// Launch MQTT sender worker (receives client updates via channel)
	SafeGo(ctx, cancel, "mqtt-sender-worker", func(ctx context.Context) {
		mqttSenderWorker(ctx, mqttOutgoingChan, mqttClientChan)
	})

	// Create MQTT sender for workers
	sender := NewMQTTSender(mqttOutgoingChan)

	// Create the Home Assistant gear entity
	driverConfig := config.DriverCfg()
	if err := sender.CreateGearEntity(driverConfig.GearDeviceName, controller.TopGear()); err != nil {
		cancel()
		log.Fatalf("Failed to create gear entity: %v", err)
	}

	// Launch plant input worker (parses sensor readings into PlantInputs)
	SafeGo(ctx, cancel, "plant-worker", func(ctx context.Context) {
		plantWorker(ctx, msgChan, inputsChan, config.PlantCfg())
	})
	log.Println("Plant worker started")

	// Fan out plant inputs to the driver and, when enabled, the debug console
	driverInputsChan := make(chan PlantInputs, 10)
	downstreamChans := []chan<- PlantInputs{driverInputsChan}

	statusChan := make(chan DriverStatus, 10)
	if *debugConsole {
		SafeGo(ctx, cancel, "debug-worker", func(ctx context.Context) {
			debugWorker(ctx, cancel, statusChan, cal, config)
		})
		log.Println("Debug worker started")
	}

	SafeGo(ctx, cancel, "broadcast-worker", func(ctx context.Context) {
		broadcastWorker(ctx, inputsChan, downstreamChans)
	})

	// Launch the fixed-cadence controller driver
	SafeGo(ctx, cancel, "driver-worker", func(ctx context.Context) {
		driverWorker(ctx, driverInputsChan, statusChan, driverConfig, controller, sender)
	})
	log.Println("Driver worker started")

	// Launch the selected sensor input source
	switch *source {
	case "can":
		SafeGo(ctx, cancel, "can-worker", func(ctx context.Context) {
			canWorker(ctx, *iface, []CANSignalConfig{config.CANThrottle, config.CANSpeed}, msgChan)
		})
		log.Printf("CAN worker started on %s\n", *iface)
	default:
		// Get MQTT credentials from environment
		mqttUsername := os.Getenv("MQTT_USERNAME")
		mqttPassword := os.Getenv("MQTT_PASSWORD")
		if mqttUsername == "" || mqttPassword == "" {
			cancel()
			log.Fatal("MQTT_USERNAME and MQTT_PASSWORD must be set in .env file")
		}

		SafeGo(ctx, cancel, "mqtt-worker", func(ctx context.Context) {
			mqttWorker(ctx, *broker, config.Topics(), mqttUsername, mqttPassword, msgChan, mqttClientChan)
		})
		log.Println("MQTT worker started")
	}

	// Wait for interrupt signal or context cancellation (from panic)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Println("\nShutting down...")
	case <-ctx.Done():
		log.Println("\nShutting down due to error...")
	}
	cancel()
}
