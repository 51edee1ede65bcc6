package engine

import (
	"log/slog"
)

// spawnInterval returns the sim-seconds between party arrivals at the
// given time of day. Inside the busy window arrivals come PrimeBoost
// times as often.
func (s *Simulation) spawnInterval(clock float64) float64 {
	if s.Config.ClientsPerHour <= 0 {
		return 0
	}
	interval := 3600 / s.Config.ClientsPerHour
	if clock >= s.Config.PrimeStart && clock < s.Config.PrimeEnd {
		interval /= s.Config.PrimeBoost
	}
	return interval
}

// processArrivals spawns every party whose arrival time has come due.
// Arrivals only happen during opening hours; once the store closes the
// schedule goes quiet and the floor drains.
func (s *Simulation) processArrivals() {
	interval := s.spawnInterval(s.Clock)
	if interval <= 0 {
		return
	}
	for s.nextSpawn <= s.Clock {
		at := s.nextSpawn
		s.nextSpawn += s.spawnInterval(at)
		if at < s.Config.OpenTime || at >= s.Config.CloseTime {
			continue
		}
		g, err := s.Factory.SpawnRandom(s.Config.Groups, s.env)
		if err != nil {
			slog.Error("spawn failed", "error", err)
			return
		}
		s.register(g)
	}
}
