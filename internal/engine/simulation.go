// Package engine owns the simulated trading day: the clock, the
// arrival schedule, the fixed-timestep update loop and the statistics
// collected along the way.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/exp/maps"

	"github.com/asgorot87/PeopleSwarm/internal/agents"
	"github.com/asgorot87/PeopleSwarm/internal/floor"
)

// ErrBadHours flags a config whose closing time is not after opening.
var ErrBadHours = errors.New("closing time must be after opening time")

// DefaultTickSeconds is the sim-time step used when the config leaves
// it unset.
const DefaultTickSeconds = 0.1

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// Config tunes one simulated trading day. Times of day are seconds
// since midnight.
type Config struct {
	Seed           int64   `json:"seed"`
	TickSeconds    float64 `json:"tick_seconds"`
	ClientsPerHour float64 `json:"clients_per_hour"` // party arrivals per hour
	OpenTime       float64 `json:"open_time"`
	CloseTime      float64 `json:"close_time"`
	PrimeStart     float64 `json:"prime_start"` // busy window, e.g. the lunch rush
	PrimeEnd       float64 `json:"prime_end"`
	PrimeBoost     float64 `json:"prime_boost"` // arrival multiplier inside the busy window
	SpeedMult      float64 `json:"speed_mult"`  // shopper pace multiplier

	Groups agents.Distribution `json:"-"`
}

// DefaultConfig returns a 9-to-21 trading day with a doubled lunch
// rush and modest traffic.
func DefaultConfig() Config {
	return Config{
		TickSeconds:    DefaultTickSeconds,
		ClientsPerHour: 120,
		OpenTime:       9 * 3600,
		CloseTime:      21 * 3600,
		PrimeStart:     12 * 3600,
		PrimeEnd:       14 * 3600,
		PrimeBoost:     2.0,
		SpeedMult:      1.0,
		Groups:         agents.DefaultDistribution(),
	}
}

// Event is a notable occurrence on the floor.
type Event struct {
	Tick        uint64 `json:"tick"`
	Clock       string `json:"clock"`
	Category    string `json:"category"` // "arrival", "departure"
	Description string `json:"description"`
}

// Simulation holds the complete state of one simulated store.
type Simulation struct {
	Layout *floor.Layout
	Config Config

	Clock float64 // seconds since midnight, sim time
	Ticks uint64  // ticks processed so far

	Groups     []*agents.Group
	Agents     []*agents.Agent // flat member list in creation order
	AgentIndex map[agents.AgentID]*agents.Agent

	Factory *agents.Factory
	Stats   *Stats
	Events  []Event // recent events (bounded)

	env       agents.Environment
	nextSpawn float64
	lastHour  int
}

// NewSimulation wires a simulation over a validated layout. The clock
// starts at opening time with an empty floor; shoppers arrive on the
// schedule as ticks advance.
func NewSimulation(layout *floor.Layout, cfg Config) (*Simulation, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("new simulation: %w", err)
	}
	if cfg.CloseTime <= cfg.OpenTime {
		return nil, fmt.Errorf("new simulation: %w", ErrBadHours)
	}
	if cfg.TickSeconds <= 0 {
		cfg.TickSeconds = DefaultTickSeconds
	}
	if cfg.SpeedMult <= 0 {
		cfg.SpeedMult = 1.0
	}
	if cfg.PrimeBoost <= 0 {
		cfg.PrimeBoost = 1.0
	}

	s := &Simulation{
		Layout:     layout,
		Config:     cfg,
		Clock:      cfg.OpenTime,
		AgentIndex: make(map[agents.AgentID]*agents.Agent),
		Factory:    agents.NewFactory(cfg.Seed),
		Stats:      NewStats(layout.Products(), layout.Checkouts()),
		env: agents.Environment{
			Products:  layout.Products(),
			Checkouts: layout.Checkouts(),
			Doors:     layout.Doors(),
			Scale:     layout.Scale,
			SpeedMult: cfg.SpeedMult,
		},
		nextSpawn: cfg.OpenTime,
		lastHour:  int(cfg.OpenTime) / 3600,
	}
	if len(layout.Checkouts()) == 0 {
		slog.Warn("layout has no checkouts, shoppers will leave without paying",
			"layout", layout.Name)
	}
	return s, nil
}

// Tick advances the simulation by dt sim-seconds: due arrivals spawn,
// every party updates against the full population, finished parties
// retire and the collector samples the result. A non-positive dt is a
// no-op, so a paused engine never mutates state.
func (s *Simulation) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	prev := s.Clock
	s.Ticks++
	s.Clock += dt

	s.processArrivals()
	for _, g := range s.Groups {
		g.Update(s.Agents, dt)
	}
	s.retireFinished()

	s.Stats.Observe(s.Agents)
	if int(prev)/60 != int(s.Clock)/60 {
		s.Stats.SampleMinute(int(s.Clock)/60, len(s.Agents))
	}
	s.hourlyDigest()
}

// retireFinished drops parties whose leader has left the store,
// releasing any queue claims and booking the exits.
func (s *Simulation) retireFinished() {
	removed := false
	kept := s.Groups[:0]
	for _, g := range s.Groups {
		if !g.Finished() {
			kept = append(kept, g)
			continue
		}
		removed = true
		for _, m := range g.Members {
			m.ReleaseQueue()
			s.Stats.RecordExit(m, s.Clock)
			delete(s.AgentIndex, m.ID)
		}
		s.addEvent("departure", fmt.Sprintf("%s party of %d left", g.Kind, len(g.Members)))
	}
	s.Groups = kept
	if !removed {
		return
	}

	// Rebuild the flat list; group order already is creation order.
	s.Agents = s.Agents[:0]
	for _, g := range s.Groups {
		s.Agents = append(s.Agents, g.Members...)
	}
}

// register adds a newly spawned party to the live population.
func (s *Simulation) register(g *agents.Group) {
	s.Groups = append(s.Groups, g)
	for _, m := range g.Members {
		s.Agents = append(s.Agents, m)
		s.AgentIndex[m.ID] = m
		s.Stats.RecordArrival(m, s.Clock)
	}
	s.addEvent("arrival", fmt.Sprintf("%s party of %d arrived", g.Kind, len(g.Members)))
}

// Populate spawns a batch of roughly total shoppers at once, on top of
// whatever is already inside. Used to prefill a floor before the
// arrival schedule takes over.
func (s *Simulation) Populate(total int) error {
	groups, err := s.Factory.Build(total, s.Config.Groups, s.env)
	if err != nil {
		return fmt.Errorf("populate: %w", err)
	}
	for _, g := range groups {
		s.register(g)
	}
	slog.Info("population prefilled", "groups", len(groups), "shoppers", len(s.Agents))
	return nil
}

// Closed reports whether the trading day is over: past closing time
// with nobody left inside.
func (s *Simulation) Closed() bool {
	return s.Clock >= s.Config.CloseTime && len(s.Agents) == 0
}

// RunDay ticks the simulation from the current clock until the store
// has closed and drained, refusing to spin forever if the floor can
// never empty.
func (s *Simulation) RunDay(dt float64) error {
	if dt <= 0 {
		dt = s.Config.TickSeconds
	}
	limit := uint64((s.Config.CloseTime-s.Config.OpenTime)/dt)*4 + 100000
	start := s.Ticks
	for !s.Closed() {
		s.Tick(dt)
		if s.Ticks-start > limit {
			return fmt.Errorf("run day: floor did not drain after %d ticks", limit)
		}
	}
	return nil
}

// Reset returns the simulation to opening time with an empty floor.
// The factory is reseeded, so a reset run replays the same day.
func (s *Simulation) Reset() {
	s.Groups = nil
	s.Agents = nil
	maps.Clear(s.AgentIndex)
	s.Layout.ResetQueues()
	s.Factory = agents.NewFactory(s.Config.Seed)
	s.Stats = NewStats(s.Layout.Products(), s.Layout.Checkouts())
	s.Events = nil
	s.Clock = s.Config.OpenTime
	s.Ticks = 0
	s.nextSpawn = s.Config.OpenTime
	s.lastHour = int(s.Config.OpenTime) / 3600
	slog.Info("simulation reset", "clock", ClockString(s.Clock))
}

func (s *Simulation) addEvent(category, description string) {
	s.Events = append(s.Events, Event{
		Tick:        s.Ticks,
		Clock:       ClockString(s.Clock),
		Category:    category,
		Description: description,
	})
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

func (s *Simulation) hourlyDigest() {
	h := int(s.Clock) / 3600
	if h == s.lastHour {
		return
	}
	s.lastHour = h
	snap := s.Stats.Snapshot()
	slog.Info("hourly digest",
		"clock", ClockString(s.Clock),
		"visitors", snap.TotalVisitors,
		"inside", snap.CurrentVisitors,
		"served", snap.TotalServed,
	)
}
