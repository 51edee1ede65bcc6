// Command peopleswarm simulates a trading day of shoppers on a store
// floor. By default it runs headless and prints a report; with -serve
// it runs in real time behind the HTTP API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/asgorot87/PeopleSwarm/internal/api"
	"github.com/asgorot87/PeopleSwarm/internal/engine"
	"github.com/asgorot87/PeopleSwarm/internal/entropy"
	"github.com/asgorot87/PeopleSwarm/internal/floor"
	"github.com/asgorot87/PeopleSwarm/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		layoutPath string
		exportPath string
		seed       int64
		clients    float64
		openStr    string
		closeStr   string
		primeStr   string
		primeMult  float64
		pace       float64
		dt         float64
		prefill    int
		days       int
		dbPath     string
		serve      bool
		port       int
		speed      float64
	)
	flag.StringVar(&layoutPath, "layout", "", "layout JSON file (empty generates the demo floor)")
	flag.StringVar(&exportPath, "export-layout", "", "write the active layout to this file and exit")
	flag.Int64Var(&seed, "seed", 0, "simulation seed (0 picks a random one)")
	flag.Float64Var(&clients, "clients", 120, "party arrivals per hour")
	flag.StringVar(&openStr, "open", "09:00", "opening time (HH:MM)")
	flag.StringVar(&closeStr, "close", "21:00", "closing time (HH:MM)")
	flag.StringVar(&primeStr, "prime", "12:00-14:00", "busy window (HH:MM-HH:MM, empty disables)")
	flag.Float64Var(&primeMult, "prime-mult", 2, "arrival multiplier inside the busy window")
	flag.Float64Var(&pace, "pace", 1, "shopper walking speed multiplier")
	flag.Float64Var(&dt, "dt", engine.DefaultTickSeconds, "sim seconds per tick")
	flag.IntVar(&prefill, "prefill", 0, "shoppers already inside at opening time")
	flag.IntVar(&days, "days", 1, "trading days to simulate (report mode)")
	flag.StringVar(&dbPath, "db", "data/peopleswarm.db", "SQLite run archive (empty disables)")
	flag.BoolVar(&serve, "serve", false, "serve the HTTP API and run in real time")
	flag.IntVar(&port, "port", 8080, "HTTP API port")
	flag.Float64Var(&speed, "speed", 1, "engine speed multiplier (serve mode, 0 starts paused)")
	flag.Parse()

	if dt <= 0 {
		slog.Error("-dt must be > 0")
		os.Exit(1)
	}
	if clients < 0 {
		slog.Error("-clients must be >= 0")
		os.Exit(1)
	}
	if days < 1 {
		slog.Error("-days must be >= 1")
		os.Exit(1)
	}
	if seed == 0 {
		seed = entropy.Seed()
	}

	cfg := engine.DefaultConfig()
	cfg.Seed = seed
	cfg.TickSeconds = dt
	cfg.ClientsPerHour = clients
	cfg.SpeedMult = pace

	var err error
	if cfg.OpenTime, err = engine.ParseClock(openStr); err != nil {
		slog.Error("bad -open", "error", err)
		os.Exit(1)
	}
	if cfg.CloseTime, err = engine.ParseClock(closeStr); err != nil {
		slog.Error("bad -close", "error", err)
		os.Exit(1)
	}
	if primeStr == "" {
		cfg.PrimeBoost = 1
	} else {
		from, to, ok := strings.Cut(primeStr, "-")
		if !ok {
			slog.Error("bad -prime, want HH:MM-HH:MM", "value", primeStr)
			os.Exit(1)
		}
		if cfg.PrimeStart, err = engine.ParseClock(from); err != nil {
			slog.Error("bad -prime", "error", err)
			os.Exit(1)
		}
		if cfg.PrimeEnd, err = engine.ParseClock(to); err != nil {
			slog.Error("bad -prime", "error", err)
			os.Exit(1)
		}
		cfg.PrimeBoost = primeMult
	}

	// ── Floor ─────────────────────────────────────────────────────────
	var lay *floor.Layout
	if layoutPath != "" {
		lay, err = floor.Load(layoutPath)
		if err != nil {
			slog.Error("failed to load layout", "path", layoutPath, "error", err)
			os.Exit(1)
		}
		slog.Info("layout loaded", "path", layoutPath, "layout", lay.Name)
	} else {
		gen := floor.DefaultGenConfig()
		gen.Seed = seed
		lay = floor.Generate(gen)
		slog.Info("demo floor generated", "layout", lay.Name, "seed", seed)
	}
	slog.Info("floor ready",
		"layout", lay.Name,
		"shelves", len(lay.Products()),
		"tills", len(lay.Checkouts()),
		"doors", len(lay.Doors()),
	)

	if exportPath != "" {
		if err := floor.Save(lay, exportPath); err != nil {
			slog.Error("failed to export layout", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Layout written to %s\n", exportPath)
		return
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim, err := engine.NewSimulation(lay, cfg)
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}
	if prefill > 0 {
		if err := sim.Populate(prefill); err != nil {
			slog.Error("prefill failed", "error", err)
			os.Exit(1)
		}
	}

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if dbPath != "" {
		os.MkdirAll(filepath.Dir(dbPath), 0755)
		db, err = persistence.Open(dbPath)
		if err != nil {
			slog.Error("failed to open database", "path", dbPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", dbPath)
		if last, err := db.GetMeta("last_run_id"); err == nil {
			slog.Info("run archive has history", "last_run_id", last)
		}
	}

	if !serve {
		runReport(sim, db, days, dt, prefill)
		return
	}

	// ── Engine + HTTP API ─────────────────────────────────────────────
	eng := engine.NewEngine(sim)
	eng.Speed = speed

	adminKey := os.Getenv("PEOPLESWARM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("PEOPLESWARM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Port:     port,
		AdminKey: adminKey,
	}
	apiServer.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	quit := make(chan struct{})
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
		close(quit)
	}()

	fmt.Printf("\n%s is open %s to %s, expecting ~%.0f parties/hour.\n",
		lay.Name,
		engine.ClockString(cfg.OpenTime), engine.ClockString(cfg.CloseTime),
		cfg.ClientsPerHour)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	for {
		eng.Run()

		// Only completed days go into the archive; an interrupted day
		// is discarded.
		if sim.Closed() && db != nil {
			if id, err := db.SaveRun(sim); err != nil {
				slog.Error("failed to archive day", "error", err)
			} else {
				slog.Info("day archived", "run", id)
			}
		}

		select {
		case <-quit:
			fmt.Println("Simulation stopped.")
			return
		default:
		}
		if !sim.Closed() {
			return
		}

		// Open again tomorrow on a fresh seed.
		sim.Config.Seed++
		sim.Reset()
		if prefill > 0 {
			if err := sim.Populate(prefill); err != nil {
				slog.Error("prefill failed", "error", err)
			}
		}
	}
}

// runReport simulates the requested days back to back as fast as the
// host allows and prints a trading report for each.
func runReport(sim *engine.Simulation, db *persistence.DB, days int, dt float64, prefill int) {
	fmt.Printf("=== PeopleSwarm Trading Report ===\n")
	fmt.Printf("layout=%q open=%s close=%s clients_per_hour=%.0f seed=%d days=%d\n\n",
		sim.Layout.Name,
		engine.ClockString(sim.Config.OpenTime), engine.ClockString(sim.Config.CloseTime),
		sim.Config.ClientsPerHour, sim.Config.Seed, days)

	var totVisitors, totServed, totFinished int
	var totVisitSeconds float64

	for d := 1; d <= days; d++ {
		if d > 1 {
			sim.Config.Seed++
			sim.Reset()
			if prefill > 0 {
				if err := sim.Populate(prefill); err != nil {
					slog.Error("prefill failed", "error", err)
					os.Exit(1)
				}
			}
		}

		start := time.Now()
		if err := sim.RunDay(dt); err != nil {
			slog.Error("day did not finish", "day", d, "error", err)
			os.Exit(1)
		}
		snap := sim.Stats.Snapshot()
		printDay(sim, snap, d, time.Since(start))

		if db != nil {
			if id, err := db.SaveRun(sim); err != nil {
				slog.Error("failed to archive day", "error", err)
			} else {
				fmt.Printf("archived as run %d\n", id)
			}
		}
		fmt.Println()

		totVisitors += snap.TotalVisitors
		totServed += snap.TotalServed
		totFinished += snap.Finished
		totVisitSeconds += snap.AvgVisitSeconds * float64(snap.Finished)
	}

	if days > 1 {
		fmt.Printf("=== Aggregate (%d days) ===\n", days)
		avg := 0.0
		if totFinished > 0 {
			avg = totVisitSeconds / float64(totFinished)
		}
		fmt.Printf("visitors=%s served=%s avg_visit=%s\n",
			humanize.Comma(int64(totVisitors)),
			humanize.Comma(int64(totServed)),
			visitString(avg))
	}
}

func printDay(sim *engine.Simulation, snap engine.Snapshot, day int, wall time.Duration) {
	fmt.Printf("--- Day %d (seed=%d) ---\n", day, sim.Config.Seed)
	fmt.Printf("visitors=%s served=%s avg_visit=%s ticks=%d wall=%s\n",
		humanize.Comma(int64(snap.TotalVisitors)),
		humanize.Comma(int64(snap.TotalServed)),
		visitString(snap.AvgVisitSeconds),
		sim.Ticks,
		wall.Round(time.Millisecond))

	var peak engine.MinuteSample
	for _, fs := range snap.Footfall {
		if fs.Inside > peak.Inside {
			peak = fs
		}
	}
	if peak.Inside > 0 {
		fmt.Printf("peak_inside=%d at %s\n", peak.Inside, engine.ClockString(float64(peak.Minute*60)))
	}

	fmt.Println("top shelves:")
	for _, zc := range sim.Stats.TopZones(5) {
		fmt.Printf("  %-16s %d visits\n", zc.Name, zc.Visits)
	}

	tills := make([]string, 0, len(snap.CheckoutServed))
	for name := range snap.CheckoutServed {
		tills = append(tills, name)
	}
	sort.Strings(tills)
	fmt.Println("tills:")
	for _, name := range tills {
		fmt.Printf("  %-16s %s served\n", name, humanize.Comma(int64(snap.CheckoutServed[name])))
	}
}

// visitString renders an average visit length like "12m35s".
func visitString(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}
