package floor

import (
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
	"github.com/paulmach/orb"
)

// GenConfig controls demo floor generation. Real deployments load a
// measured layout from JSON; the generator exists so the simulator can
// run out of the box and so tests have floors to work with.
type GenConfig struct {
	Name            string
	Width           float64 // px
	Height          float64 // px
	Aisles          int
	ShelvesPerAisle int
	Checkouts       int
	Scale           float64 // mm per px
	Seed            int64   // 0 = random
}

// DefaultGenConfig returns a mid-sized supermarket floor.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Name:            "demo floor",
		Width:           1200,
		Height:          800,
		Aisles:          4,
		ShelvesPerAisle: 5,
		Checkouts:       3,
		Scale:           15,
	}
}

// SmallTestConfig returns a floor small enough for fast tests.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Name:            "test floor",
		Width:           600,
		Height:          400,
		Aisles:          2,
		ShelvesPerAisle: 3,
		Checkouts:       1,
		Scale:           10,
		Seed:            42,
	}
}

var shelfCategories = []string{
	"produce", "dairy", "bakery", "meat", "frozen", "snacks", "drinks", "household",
}

const wallThickness = 20

// Generate builds a rectangular store: perimeter walls, aisles of
// shelves whose attractiveness comes from layered noise, a row of
// checkouts along the south side and two doors beside them. The same
// seed always yields the same floor.
func Generate(cfg GenConfig) *Layout {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	appeal := opensimplex.NewNormalized(seed)
	variety := opensimplex.NewNormalized(seed + 1)

	l := &Layout{Name: cfg.Name, Scale: cfg.Scale}

	addWalls(l, cfg)

	// Shelves live in a grid between the left margin and the right
	// wall, leaving the south strip free for tills and doors.
	const (
		margin      = 80.0
		shelfW      = 70.0
		shelfH      = 60.0
		southStrip  = 140.0
		noiseScale  = 0.35
		minAppeal   = 0.8
		appealRange = 0.9
	)

	counts := map[string]int{}
	innerW := cfg.Width - 2*margin
	innerH := cfg.Height - margin - southStrip
	for a := 0; a < cfg.Aisles; a++ {
		x := margin + innerW*float64(a)/float64(cfg.Aisles)
		for s := 0; s < cfg.ShelvesPerAisle; s++ {
			y := margin + innerH*float64(s)/float64(cfg.ShelvesPerAisle)

			v := variety.Eval2(float64(a)*noiseScale, float64(s)*noiseScale)
			cat := shelfCategories[int(v*float64(len(shelfCategories)))%len(shelfCategories)]
			counts[cat]++

			l.Zones = append(l.Zones, &Zone{
				Name:     fmt.Sprintf("%s %d", cat, counts[cat]),
				Number:   counts[cat],
				Category: cat,
				Kind:     KindProduct,
				Bound: orb.Bound{
					Min: orb.Point{x, y},
					Max: orb.Point{x + shelfW, y + shelfH},
				},
				Attractiveness: minAppeal + appealRange*appeal.Eval2(float64(a)*noiseScale, float64(s)*noiseScale),
			})
		}
	}

	addCheckouts(l, cfg)
	addDoors(l, cfg)
	return l
}

func addWalls(l *Layout, cfg GenConfig) {
	w, h := cfg.Width, cfg.Height
	walls := []struct {
		name string
		b    orb.Bound
	}{
		{"north wall", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{w, wallThickness}}},
		{"south wall", orb.Bound{Min: orb.Point{0, h - wallThickness}, Max: orb.Point{w, h}}},
		{"west wall", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{wallThickness, h}}},
		{"east wall", orb.Bound{Min: orb.Point{w - wallThickness, 0}, Max: orb.Point{w, h}}},
	}
	for _, wz := range walls {
		l.Zones = append(l.Zones, &Zone{Name: wz.name, Kind: KindWall, Bound: wz.b})
	}
}

func addCheckouts(l *Layout, cfg GenConfig) {
	const tillSize = 50.0
	y := cfg.Height - 100
	for i := 0; i < cfg.Checkouts; i++ {
		x := cfg.Width * float64(i+1) / float64(cfg.Checkouts+2)
		l.Zones = append(l.Zones, &Zone{
			Name:   fmt.Sprintf("till %d", i+1),
			Number: i + 1,
			Kind:   KindCheckout,
			Bound: orb.Bound{
				Min: orb.Point{x, y},
				Max: orb.Point{x + tillSize, y + tillSize},
			},
			MaxQueue:     DefaultMaxQueue,
			QueueSpacing: DefaultQueueSpacing,
		})
	}
}

func addDoors(l *Layout, cfg GenConfig) {
	const doorW, doorH = 80.0, 30.0
	y := cfg.Height - wallThickness - doorH
	doors := []struct {
		name string
		x    float64
	}{
		{"main door", cfg.Width * 0.72},
		{"side door", cfg.Width * 0.86},
	}
	for _, d := range doors {
		l.Zones = append(l.Zones, &Zone{
			Name: d.name,
			Kind: KindEntryExit,
			Bound: orb.Bound{
				Min: orb.Point{d.x, y},
				Max: orb.Point{d.x + doorW, y + doorH},
			},
		})
	}
}
