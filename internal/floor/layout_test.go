package floor

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
)

func testLayout() *Layout {
	mk := func(name string, kind ZoneKind, x, y float64) *Zone {
		return &Zone{
			Name: name,
			Kind: kind,
			Bound: orb.Bound{
				Min: orb.Point{x, y},
				Max: orb.Point{x + 50, y + 50},
			},
			Attractiveness: 1.0,
			MaxQueue:       DefaultMaxQueue,
			QueueSpacing:   DefaultQueueSpacing,
		}
	}
	return &Layout{
		Name:  "corner shop",
		Scale: 12,
		Zones: []*Zone{
			mk("north wall", KindWall, 0, 0),
			mk("dairy 1", KindProduct, 100, 100),
			mk("bakery 1", KindProduct, 200, 100),
			mk("till 1", KindCheckout, 100, 300),
			mk("door", KindEntryExit, 300, 300),
		},
	}
}

func TestLayoutAccessors(t *testing.T) {
	l := testLayout()

	if got := len(l.Products()); got != 2 {
		t.Errorf("Products = %d zones, want 2", got)
	}
	if got := len(l.Checkouts()); got != 1 {
		t.Errorf("Checkouts = %d zones, want 1", got)
	}
	if got := len(l.Walls()); got != 1 {
		t.Errorf("Walls = %d zones, want 1", got)
	}

	doors := l.Doors()
	if len(doors) != 1 {
		t.Fatalf("Doors = %d points, want 1", len(doors))
	}
	if !doors[0].Equal(orb.Point{325, 325}) {
		t.Errorf("door point = %v, want (325,325)", doors[0])
	}

	// Accessors must preserve layout order.
	prods := l.Products()
	if prods[0].Name != "dairy 1" || prods[1].Name != "bakery 1" {
		t.Errorf("product order = %q, %q", prods[0].Name, prods[1].Name)
	}
}

func TestLayoutValidate(t *testing.T) {
	if err := testLayout().Validate(); err != nil {
		t.Errorf("valid layout rejected: %v", err)
	}

	l := testLayout()
	l.Scale = 0
	if err := l.Validate(); !errors.Is(err, ErrBadScale) {
		t.Errorf("zero scale: err = %v, want ErrBadScale", err)
	}

	l = testLayout()
	l.Zones = l.Zones[:4] // drop the door
	if err := l.Validate(); !errors.Is(err, ErrNoEntryExit) {
		t.Errorf("no doors: err = %v, want ErrNoEntryExit", err)
	}

	l = testLayout()
	var kept []*Zone
	for _, z := range l.Zones {
		if z.Kind != KindProduct {
			kept = append(kept, z)
		}
	}
	l.Zones = kept
	if err := l.Validate(); !errors.Is(err, ErrNoProducts) {
		t.Errorf("no products: err = %v, want ErrNoProducts", err)
	}
}

func TestLayoutBound(t *testing.T) {
	l := testLayout()
	b := l.Bound()
	if !b.Min.Equal(orb.Point{0, 0}) || !b.Max.Equal(orb.Point{350, 350}) {
		t.Errorf("Bound = %v", b)
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	orig := testLayout()
	path := filepath.Join(t.TempDir(), "layout.json")

	if err := Save(orig, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Name != orig.Name || got.Scale != orig.Scale {
		t.Errorf("header = %q/%v, want %q/%v", got.Name, got.Scale, orig.Name, orig.Scale)
	}
	if len(got.Zones) != len(orig.Zones) {
		t.Fatalf("loaded %d zones, want %d", len(got.Zones), len(orig.Zones))
	}
	for i, z := range got.Zones {
		o := orig.Zones[i]
		if z.Name != o.Name || z.Kind != o.Kind || z.Category != o.Category {
			t.Errorf("zone %d = %v, want %v", i, z, o)
		}
		if !z.Bound.Min.Equal(o.Bound.Min) || !z.Bound.Max.Equal(o.Bound.Max) {
			t.Errorf("zone %d bound = %v, want %v", i, z.Bound, o.Bound)
		}
	}
}

func TestParseDefaults(t *testing.T) {
	data := []byte(`{
		"scale": 10,
		"zones": [
			{"name": "shelf", "type": "product", "x": 0, "y": 0, "width": 50, "height": 50},
			{"name": "till", "type": "checkout", "x": 100, "y": 0, "width": 50, "height": 50}
		]
	}`)
	l, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := l.Products()[0].Attractiveness; got != 1.0 {
		t.Errorf("default attractiveness = %v, want 1.0", got)
	}
	till := l.Checkouts()[0]
	if till.MaxQueue != DefaultMaxQueue {
		t.Errorf("default queue capacity = %d, want %d", till.MaxQueue, DefaultMaxQueue)
	}
	if till.QueueSpacing != DefaultQueueSpacing {
		t.Errorf("default queue spacing = %v, want %v", till.QueueSpacing, DefaultQueueSpacing)
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := Parse([]byte(`{"scale": 10, "zones": [{"name": "x", "type": "pond"}]}`))
	if err == nil {
		t.Fatal("Parse accepted an unknown zone type")
	}
}
