package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ryansname/shiftctl/src/shift"
)

// readlineWriter wraps log output to work with readline
type readlineWriter struct {
	rl *readline.Instance
}

func (w *readlineWriter) Write(p []byte) (n int, err error) {
	if w.rl != nil {
		w.rl.Clean()
	}
	n, err = os.Stderr.Write(p)
	if w.rl != nil {
		w.rl.Refresh()
	}
	return n, err
}

// Global readline writer for log output
var rlWriter = &readlineWriter{}

// DebugState holds the console's view of the running driver plus a scratch
// controller for offline experiments. The scratch controller is a separate
// instance so the console never mutates the driver's state.
type DebugState struct {
	latest    *DriverStatus
	scratch   *shift.Controller
	scratchOK bool
	rl        *readline.Instance
}

// print outputs a line, handling the readline prompt properly
func (s *DebugState) print(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if s.rl != nil {
		// Clean prompt, print, refresh prompt
		s.rl.Clean()
		fmt.Println(line)
		s.rl.Refresh()
	} else {
		fmt.Println(line)
	}
}

// Status prints the latest driver status
func (s *DebugState) Status() {
	if s.latest == nil {
		s.print("No driver status received yet")
		return
	}

	snap := s.latest.Snapshot
	in := s.latest.Inputs
	th := s.latest.Thresholds

	s.print("tick=%d gear=%d state=%s", snap.Tick, snap.Gear, snap.State)
	if snap.State != shift.Idle {
		s.print("  confirming since tick %d (%d ticks elapsed)", snap.EntryTick, snap.Tick-snap.EntryTick)
	}
	s.print("  throttle=%.1f%% speed=%.1f", in.Throttle, in.Speed)
	s.print("  thresholds: up=%s down=%s", formatThreshold(th.Upshift), formatThreshold(th.Downshift))
}

// formatThreshold renders a threshold speed, showing the boundary-gear
// infinities as a dash
func formatThreshold(v float64) string {
	if math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}

// SimStep steps the scratch controller with the given inputs
func (s *DebugState) SimStep(throttle, speed float64, count int) {
	for range count {
		gear := s.scratch.Step(throttle, speed)
		snap := s.scratch.Snapshot()
		s.print("sim tick=%d gear=%d state=%s", snap.Tick-1, gear, snap.State)
	}
}

// handleDebugCommand processes a debug command
func handleDebugCommand(cmd string, state *DebugState, cancel context.CancelFunc) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "status":
		state.Status()

	case "sim":
		if !state.scratchOK {
			log.Println("Scratch controller unavailable")
			return
		}
		handleSimCommand(parts[1:], state)

	case "help":
		fmt.Println("Commands:")
		fmt.Println("  status                          - Show the live driver's state")
		fmt.Println("  sim step <throttle> <speed> [n] - Step the scratch controller n times (default 1)")
		fmt.Println("  sim gear <n>                    - Force the scratch controller's gear")
		fmt.Println("  sim reset                       - Reset the scratch controller")
		fmt.Println("  sim status                      - Show the scratch controller's state")
		fmt.Println("  exit                            - Shut down")
		fmt.Println("  help                            - Show this help")

	case "exit", "quit":
		cancel()

	default:
		log.Printf("Unknown command: %s (try 'help')", parts[0])
	}
}

// handleSimCommand processes the scratch controller subcommands
func handleSimCommand(args []string, state *DebugState) {
	if len(args) == 0 {
		log.Println("Usage: sim step|gear|reset|status")
		return
	}

	switch args[0] {
	case "step":
		if len(args) < 3 {
			log.Println("Usage: sim step <throttle> <speed> [count]")
			return
		}
		throttle, err1 := strconv.ParseFloat(args[1], 64)
		speed, err2 := strconv.ParseFloat(args[2], 64)
		if err1 != nil || err2 != nil {
			log.Println("throttle and speed must be numbers")
			return
		}
		count := 1
		if len(args) > 3 {
			n, err := strconv.Atoi(args[3])
			if err != nil || n < 1 {
				log.Println("count must be a positive integer")
				return
			}
			count = n
		}
		state.SimStep(throttle, speed, count)

	case "gear":
		if len(args) < 2 {
			log.Println("Usage: sim gear <n>")
			return
		}
		gear, err := strconv.Atoi(args[1])
		if err != nil {
			log.Println("gear must be an integer")
			return
		}
		if err := state.scratch.SetGear(gear); err != nil {
			log.Printf("Error: %v", err)
			return
		}
		state.print("sim gear set to %d", gear)

	case "reset":
		state.scratch.Reset()
		state.print("sim controller reset")

	case "status":
		snap := state.scratch.Snapshot()
		state.print("sim tick=%d gear=%d state=%s", snap.Tick, snap.Gear, snap.State)

	default:
		log.Printf("Unknown sim command: %s", args[0])
	}
}

// readlineLoop runs the readline loop, sending commands to the channel
func readlineLoop(
	ctx context.Context,
	cancel context.CancelFunc,
	rl *readline.Instance,
	commandChan chan<- string,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			cancel() // Ctrl+C pressed, shutdown the app
			return
		}
		if err != nil {
			return // EOF or other error
		}
		line = strings.TrimSpace(line)
		if line != "" {
			commandChan <- line
		}
	}
}

// getHistoryFilePath returns the path for debug history file
func getHistoryFilePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "" // No history if we can't find home
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	shiftctlCache := filepath.Join(cacheDir, "shiftctl")
	// Create directory if it doesn't exist
	_ = os.MkdirAll(shiftctlCache, 0750)
	return filepath.Join(shiftctlCache, "debug_history")
}

// debugWorker provides interactive introspection of the running driver and a
// scratch controller for trying out input sequences
func debugWorker(
	ctx context.Context,
	cancel context.CancelFunc,
	statusChan <-chan DriverStatus,
	cal shift.Calibration,
	config ShiftConfig,
) {
	// Create readline instance with prompt and persistent history
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: getHistoryFilePath(),
	})
	if err != nil {
		log.Printf("Debug worker: readline init failed: %v", err)
		return
	}
	defer func() {
		_ = rl.Close()
		rlWriter.rl = nil // Clear readline reference on exit
	}()

	// Redirect log output through readline-aware writer
	rlWriter.rl = rl
	log.SetOutput(rlWriter)

	log.Println("Debug worker started (type 'help' for commands)")

	state := &DebugState{rl: rl}
	if scratch, err := shift.NewController(cal, config.DebounceTicks); err == nil {
		state.scratch = scratch
		state.scratchOK = true
	} else {
		log.Printf("Debug worker: scratch controller: %v", err)
	}

	commandChan := make(chan string, 10)
	go readlineLoop(ctx, cancel, rl, commandChan)

	for {
		select {
		case cmd := <-commandChan:
			handleDebugCommand(cmd, state, cancel)
		case status := <-statusChan:
			state.latest = &status
		case <-ctx.Done():
			log.Println("Debug worker stopped")
			return
		}
	}
}
