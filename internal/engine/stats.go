package engine

import (
	"sort"

	"github.com/paulmach/orb"
	"golang.org/x/exp/maps"

	"github.com/asgorot87/PeopleSwarm/internal/agents"
	"github.com/asgorot87/PeopleSwarm/internal/floor"
)

// MinuteSample is one point on the footfall curve.
type MinuteSample struct {
	Minute int `json:"minute"` // minutes since midnight
	Inside int `json:"inside"`
}

// ZoneCount pairs a zone with its visit count.
type ZoneCount struct {
	Name   string `json:"name"`
	Visits int    `json:"visits"`
}

// Snapshot is a point-in-time copy of the collected numbers, safe to
// serialize while the simulation keeps running.
type Snapshot struct {
	TotalVisitors   int            `json:"total_visitors"`
	CurrentVisitors int            `json:"current_visitors"`
	Finished        int            `json:"finished"`
	TotalServed     int            `json:"total_served"`
	AvgVisitSeconds float64        `json:"avg_visit_seconds"`
	ZoneVisits      map[string]int `json:"zone_visits"`
	CheckoutServed  map[string]int `json:"checkout_served"`
	QueueLengths    map[string]int `json:"queue_lengths"`
	Footfall        []MinuteSample `json:"footfall"`
}

// Stats watches the population from the outside and accumulates
// per-zone and per-visitor counters. Agents know nothing about it.
type Stats struct {
	products  []*floor.Zone
	checkouts []*floor.Zone

	totalVisitors int
	finished      int
	visitSeconds  float64
	served        map[string]int
	zoneVisits    map[string]int

	entered   map[agents.AgentID]float64
	prevZone  map[agents.AgentID]string
	prevState map[agents.AgentID]agents.State
	lastTill  map[agents.AgentID]string

	footfall []MinuteSample
	inside   int
}

// NewStats builds a collector for the given floor. Zone and checkout
// counters start at zero so empty zones still show up in snapshots.
func NewStats(products, checkouts []*floor.Zone) *Stats {
	s := &Stats{
		products:   products,
		checkouts:  checkouts,
		served:     make(map[string]int, len(checkouts)),
		zoneVisits: make(map[string]int, len(products)),
		entered:    make(map[agents.AgentID]float64),
		prevZone:   make(map[agents.AgentID]string),
		prevState:  make(map[agents.AgentID]agents.State),
		lastTill:   make(map[agents.AgentID]string),
	}
	for _, z := range checkouts {
		s.served[z.Name] = 0
	}
	for _, z := range products {
		s.zoneVisits[z.Name] = 0
	}
	return s
}

// RecordArrival books a shopper walking in the door.
func (s *Stats) RecordArrival(a *agents.Agent, clock float64) {
	s.totalVisitors++
	s.entered[a.ID] = clock
	s.prevState[a.ID] = a.State()
}

// Observe scans the live population once per tick. Zone visits count
// on entry, not per tick spent inside, and a checkout is credited the
// moment its customer stops paying.
func (s *Stats) Observe(live []*agents.Agent) {
	s.inside = len(live)
	for _, a := range live {
		zone := s.zoneAt(a.Position)
		if zone != "" && zone != s.prevZone[a.ID] {
			s.zoneVisits[zone]++
		}
		s.prevZone[a.ID] = zone

		if co := a.Checkout(); co != nil {
			s.lastTill[a.ID] = co.Name
		}
		state := a.State()
		if s.prevState[a.ID] == agents.StatePaying && state != agents.StatePaying {
			s.creditServed(a.ID)
		}
		s.prevState[a.ID] = state
	}
}

// RecordExit books a departed shopper. A paid-but-unobserved till
// credit is settled here, which covers a shopper whose last tick went
// straight from the till out the door.
func (s *Stats) RecordExit(a *agents.Agent, clock float64) {
	s.finished++
	if t0, ok := s.entered[a.ID]; ok {
		s.visitSeconds += clock - t0
		delete(s.entered, a.ID)
	}
	s.creditServed(a.ID)
	delete(s.prevZone, a.ID)
	delete(s.prevState, a.ID)
	delete(s.lastTill, a.ID)
}

// creditServed increments the till the shopper last queued at, once.
func (s *Stats) creditServed(id agents.AgentID) {
	if till, ok := s.lastTill[id]; ok {
		s.served[till]++
		delete(s.lastTill, id)
	}
}

// SampleMinute appends one point to the footfall curve.
func (s *Stats) SampleMinute(minute, inside int) {
	s.footfall = append(s.footfall, MinuteSample{Minute: minute, Inside: inside})
}

// Snapshot copies the counters into an independent summary.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		TotalVisitors:   s.totalVisitors,
		CurrentVisitors: s.inside,
		Finished:        s.finished,
		ZoneVisits:      maps.Clone(s.zoneVisits),
		CheckoutServed:  maps.Clone(s.served),
		QueueLengths:    make(map[string]int, len(s.checkouts)),
		Footfall:        append([]MinuteSample(nil), s.footfall...),
	}
	for _, n := range s.served {
		snap.TotalServed += n
	}
	for _, z := range s.checkouts {
		snap.QueueLengths[z.Name] = z.QueueLength()
	}
	if s.finished > 0 {
		snap.AvgVisitSeconds = s.visitSeconds / float64(s.finished)
	}
	return snap
}

// TopZones returns the n most visited product zones, busiest first.
// Ties break alphabetically so reports stay stable.
func (s *Stats) TopZones(n int) []ZoneCount {
	names := maps.Keys(s.zoneVisits)
	sort.Slice(names, func(i, j int) bool {
		vi, vj := s.zoneVisits[names[i]], s.zoneVisits[names[j]]
		if vi != vj {
			return vi > vj
		}
		return names[i] < names[j]
	})
	if n > len(names) {
		n = len(names)
	}
	out := make([]ZoneCount, 0, n)
	for _, name := range names[:n] {
		out = append(out, ZoneCount{Name: name, Visits: s.zoneVisits[name]})
	}
	return out
}

func (s *Stats) zoneAt(p orb.Point) string {
	for _, z := range s.products {
		if z.Contains(p) {
			return z.Name
		}
	}
	return ""
}
