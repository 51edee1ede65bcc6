// Package api exposes a running simulation over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/asgorot87/PeopleSwarm/internal/agents"
	"github.com/asgorot87/PeopleSwarm/internal/engine"
	"github.com/asgorot87/PeopleSwarm/internal/persistence"
)

// Server serves the floor state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // nil disables the run history endpoints
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// The full shopper dump is the one heavy endpoint; viewers poll it
	// every frame.
	agentsLimiter := NewLimiter(300, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/layout", s.handleLayout)
	mux.HandleFunc("/api/v1/agents", agentsLimiter.Limit(s.handleAgents))
	mux.HandleFunc("/api/v1/agent/", s.handleAgentDetail)
	mux.HandleFunc("/api/v1/zones", s.handleZones)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/run/", s.handleRunDetail)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))
	mux.HandleFunc("/api/v1/save", s.adminOnly(s.handleSave))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed viewer origins. Set
// CORS_ORIGINS to a comma-separated list of extra allowed origins;
// localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST
// requests. GET requests pass through for endpoints that serve both.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no PEOPLESWARM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Stats.Snapshot()

	status := map[string]any{
		"layout":        s.Sim.Layout.Name,
		"clock":         engine.ClockString(s.Sim.Clock),
		"clock_seconds": s.Sim.Clock,
		"tick":          s.Sim.Ticks,
		"speed":         s.Eng.Speed,
		"running":       s.Eng.Running,
		"open":          engine.ClockString(s.Sim.Config.OpenTime),
		"close":         engine.ClockString(s.Sim.Config.CloseTime),
		"inside":        len(s.Sim.Agents),
		"parties":       len(s.Sim.Groups),
		"visitors":      snap.TotalVisitors,
		"served":        snap.TotalServed,
	}
	writeJSON(w, status)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	type zoneEntry struct {
		Name           string  `json:"name"`
		Number         int     `json:"zone_number"`
		Category       string  `json:"category,omitempty"`
		Kind           string  `json:"type"`
		X              float64 `json:"x"`
		Y              float64 `json:"y"`
		Width          float64 `json:"width"`
		Height         float64 `json:"height"`
		Attractiveness float64 `json:"attractiveness,omitempty"`
	}

	zones := make([]zoneEntry, 0, len(s.Sim.Layout.Zones))
	for _, z := range s.Sim.Layout.Zones {
		zones = append(zones, zoneEntry{
			Name:           z.Name,
			Number:         z.Number,
			Category:       z.Category,
			Kind:           z.Kind.String(),
			X:              z.Bound.Min.X(),
			Y:              z.Bound.Min.Y(),
			Width:          z.Width(),
			Height:         z.Height(),
			Attractiveness: z.Attractiveness,
		})
	}

	writeJSON(w, map[string]any{
		"name":  s.Sim.Layout.Name,
		"scale": s.Sim.Layout.Scale,
		"zones": zones,
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	stateFilter := r.URL.Query().Get("state")

	type agentSummary struct {
		ID       agents.AgentID `json:"id"`
		State    string         `json:"state"`
		Behavior string         `json:"behavior"`
		Budget   string         `json:"budget"`
		X        float64        `json:"x"`
		Y        float64        `json:"y"`
		HeadingX float64        `json:"heading_x"`
		HeadingY float64        `json:"heading_y"`
		Visited  int            `json:"visited"`
		Queue    string         `json:"queue,omitempty"`
		Slot     int            `json:"slot,omitempty"`
	}

	result := make([]agentSummary, 0, len(s.Sim.Agents))
	for _, a := range s.Sim.Agents {
		state := a.State().String()
		if stateFilter != "" && state != stateFilter {
			continue
		}

		entry := agentSummary{
			ID:       a.ID,
			State:    state,
			Behavior: a.Behavior.String(),
			Budget:   a.Budget.String(),
			X:        a.Position.X(),
			Y:        a.Position.Y(),
			HeadingX: a.Heading.X(),
			HeadingY: a.Heading.Y(),
			Visited:  a.VisitedCount(),
		}
		if co := a.Checkout(); co != nil {
			entry.Queue = co.Name
			entry.Slot = a.QueueSlot()
		}
		result = append(result, entry)
	}
	writeJSON(w, result)
}

func (s *Server) handleAgentDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 {
		http.Error(w, "missing agent id", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseUint(parts[4], 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}

	a, ok := s.Sim.AgentIndex[agents.AgentID(id)]
	if !ok {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}

	detail := map[string]any{
		"id":        a.ID,
		"state":     a.State().String(),
		"behavior":  a.Behavior.String(),
		"budget":    a.Budget.String(),
		"x":         a.Position.X(),
		"y":         a.Position.Y(),
		"heading_x": a.Heading.X(),
		"heading_y": a.Heading.Y(),
		"footprint": a.Footprint,
		"visited":   a.VisitedCount(),
		"remaining": a.RemainingCount(),
	}
	if dest, ok := a.Destination(); ok {
		detail["dest_x"] = dest.X()
		detail["dest_y"] = dest.Y()
	}
	if co := a.Checkout(); co != nil {
		detail["queue"] = co.Name
		detail["slot"] = a.QueueSlot()
	}
	for _, g := range s.Sim.Groups {
		for i, m := range g.Members {
			if m.ID == a.ID {
				detail["party"] = g.ID
				detail["party_kind"] = g.Kind.String()
				role := "leader"
				if i > 0 {
					role = "follower"
				}
				detail["party_role"] = role
			}
		}
	}
	writeJSON(w, detail)
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Stats.Snapshot()

	type zoneStatus struct {
		Name     string `json:"name"`
		Kind     string `json:"type"`
		Category string `json:"category,omitempty"`
		Visits   int    `json:"visits"`
		Queue    int    `json:"queue_length,omitempty"`
		Capacity int    `json:"queue_capacity,omitempty"`
		Served   int    `json:"served,omitempty"`
	}

	var result []zoneStatus
	for _, z := range s.Sim.Layout.Products() {
		result = append(result, zoneStatus{
			Name:     z.Name,
			Kind:     z.Kind.String(),
			Category: z.Category,
			Visits:   snap.ZoneVisits[z.Name],
		})
	}
	for _, z := range s.Sim.Layout.Checkouts() {
		result = append(result, zoneStatus{
			Name:     z.Name,
			Kind:     z.Kind.String(),
			Queue:    z.QueueLength(),
			Capacity: z.MaxQueue,
			Served:   snap.CheckoutServed[z.Name],
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Stats.Snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.Events
	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	runs, err := s.DB.RecentRuns(limit)
	if err != nil {
		slog.Error("runs query failed", "error", err)
		// Return empty array instead of error; the table may be fresh.
		writeJSON(w, []persistence.RunSummary{})
		return
	}
	if runs == nil {
		runs = []persistence.RunSummary{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 {
		http.Error(w, "missing run id", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	run, err := s.DB.Run(id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("run query failed", "error", err, "run", id)
		http.Error(w, "run query failed", http.StatusInternalServerError)
		return
	}

	zones, err := s.DB.ZoneStats(id)
	if err != nil {
		slog.Error("zone stats query failed", "error", err, "run", id)
		http.Error(w, "run query failed", http.StatusInternalServerError)
		return
	}
	curve, err := s.DB.Footfall(id)
	if err != nil {
		slog.Error("footfall query failed", "error", err, "run", id)
		http.Error(w, "run query failed", http.StatusInternalServerError)
		return
	}
	events, err := s.DB.RunEvents(id, 200)
	if err != nil {
		slog.Error("run events query failed", "error", err, "run", id)
		http.Error(w, "run query failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"run":      run,
		"zones":    zones,
		"footfall": curve,
		"events":   events,
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.Speed = req.Speed
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.Sim.Reset()
	writeJSON(w, map[string]any{
		"success": true,
		"clock":   engine.ClockString(s.Sim.Clock),
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	id, err := s.DB.SaveRun(s.Sim)
	if err != nil {
		slog.Error("run save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"run_id":  id,
		"message": "run saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
