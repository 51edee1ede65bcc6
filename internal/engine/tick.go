package engine

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Engine drives a simulation against the wall clock. Each engine tick
// advances the simulation by its configured timestep, so Speed 1.0
// with a 100ms interval and a 0.1s timestep runs in real time.
type Engine struct {
	Sim      *Simulation
	Speed    float64       // multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // wall-clock time per tick at speed 1.0
	Running  bool

	OnTick func(*Simulation) // called after every tick, if set
}

// NewEngine wraps a simulation in a real-time runner. The interval is
// derived from the sim timestep so one sim-second takes one wall
// second at speed 1.0.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		Sim:      sim,
		Speed:    1.0,
		Interval: time.Duration(sim.Config.TickSeconds * float64(time.Second)),
	}
}

// Run starts the loop and blocks until Stop is called or the trading
// day ends. Setting Speed to zero pauses without burning a core.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("engine started",
		"clock", ClockString(e.Sim.Clock),
		"speed", e.Speed,
	)

	for e.Running {
		if e.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.Sim.Tick(e.Sim.Config.TickSeconds)
		if e.OnTick != nil {
			e.OnTick(e.Sim)
		}
		if e.Sim.Closed() {
			e.Running = false
			break
		}

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("engine stopped", "clock", ClockString(e.Sim.Clock), "ticks", e.Sim.Ticks)
}

// Stop halts the loop after the current tick.
func (e *Engine) Stop() {
	e.Running = false
}

// ClockString renders seconds since midnight as "HH:MM".
func ClockString(clock float64) string {
	if clock < 0 {
		clock = 0
	}
	total := int(clock)
	h := total / 3600 % 24
	m := total / 60 % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ParseClock reads a "HH:MM" or bare "HH" time of day into seconds
// since midnight.
func ParseClock(s string) (float64, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("parse clock %q: bad hour", s)
	}
	m := 0
	if ok {
		m, err = strconv.Atoi(mm)
		if err != nil || m < 0 || m > 59 {
			return 0, fmt.Errorf("parse clock %q: bad minute", s)
		}
	}
	return float64(h*3600 + m*60), nil
}
