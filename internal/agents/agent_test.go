package agents

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"

	"github.com/asgorot87/PeopleSwarm/internal/floor"
)

func mkShelf(name string, x, y, attr float64) *floor.Zone {
	return &floor.Zone{
		Name: name,
		Kind: floor.KindProduct,
		Bound: orb.Bound{
			Min: orb.Point{x - 20, y - 20},
			Max: orb.Point{x + 20, y + 20},
		},
		Attractiveness: attr,
	}
}

func mkTill(name string, x, y float64, capacity int) *floor.Zone {
	return &floor.Zone{
		Name: name,
		Kind: floor.KindCheckout,
		Bound: orb.Bound{
			Min: orb.Point{x - 25, y - 25},
			Max: orb.Point{x + 25, y + 25},
		},
		MaxQueue:     capacity,
		QueueSpacing: floor.DefaultQueueSpacing,
	}
}

var testDoors = []orb.Point{{-200, 0}}

// newShopper builds an agent with test defaults: unit scale, normal
// pace, a single door west of the origin.
func newShopper(t *testing.T, seed int64, cfg Config) *Agent {
	t.Helper()
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}
	if cfg.SpeedMult == 0 {
		cfg.SpeedMult = 1
	}
	if cfg.Exits == nil {
		cfg.Exits = testDoors
	}
	a, err := NewAgent(1, cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	return a
}

func TestNewAgentValidation(t *testing.T) {
	shelves := []*floor.Zone{mkShelf("a", 100, 0, 1)}
	base := func() Config {
		return Config{
			Start:     orb.Point{0, 0},
			Products:  shelves,
			Exits:     testDoors,
			Scale:     1,
			SpeedMult: 1,
		}
	}

	cases := []struct {
		name   string
		rng    *rand.Rand
		mutate func(*Config)
		want   error
	}{
		{"nil rng", nil, func(*Config) {}, ErrNilRand},
		{"zero scale", rand.New(rand.NewSource(1)), func(c *Config) { c.Scale = 0 }, ErrBadScale},
		{"negative speed", rand.New(rand.NewSource(1)), func(c *Config) { c.SpeedMult = -1 }, ErrBadSpeed},
		{"no products", rand.New(rand.NewSource(1)), func(c *Config) { c.Products = nil }, ErrNoProductZones},
		{"no exits", rand.New(rand.NewSource(1)), func(c *Config) { c.Exits = nil }, ErrNoExits},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if _, err := NewAgent(1, cfg, tc.rng); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSpawnDraws(t *testing.T) {
	shelves := []*floor.Zone{mkShelf("a", 100, 0, 1)}
	for seed := int64(0); seed < 100; seed++ {
		a := newShopper(t, seed, Config{
			Start:    orb.Point{0, 0},
			Products: shelves,
			Behavior: BehaviorExplorer,
			Budget:   BudgetHigh,
		})
		if a.serviceTime < minServiceTime || a.serviceTime > maxServiceTime {
			t.Fatalf("seed %d: service time %v outside [%v, %v]",
				seed, a.serviceTime, minServiceTime, maxServiceTime)
		}
		for _, c := range []float64{
			a.rewardSensitivity, a.anticipationWeight, a.imageryVividness, a.costSensitivity,
		} {
			if c < minCoefficient || c > maxCoefficient {
				t.Fatalf("seed %d: coefficient %v outside [%v, %v]",
					seed, c, minCoefficient, maxCoefficient)
			}
		}
		if a.impulseProb < 0 || a.impulseProb >= maxImpulseProb {
			t.Fatalf("seed %d: impulse probability %v outside [0, %v)",
				seed, a.impulseProb, maxImpulseProb)
		}
		if a.state != StateWalking {
			t.Fatalf("seed %d: fresh shopper in state %v", seed, a.state)
		}
		if _, ok := a.Destination(); !ok {
			t.Fatalf("seed %d: fresh shopper has no destination", seed)
		}
	}
}

func TestVisitAllZonesThenLeave(t *testing.T) {
	// No checkouts on this floor: zones are ticked off without dwell
	// and the shopper walks straight out afterwards.
	shelves := []*floor.Zone{
		mkShelf("a", 100, 0, 1),
		mkShelf("b", 200, 0, 1),
		mkShelf("c", 300, 0, 1),
	}
	a := newShopper(t, 1, Config{
		Start:    orb.Point{0, 0},
		Products: shelves,
		Behavior: BehaviorExplorer,
		Budget:   BudgetHigh,
	})
	others := []*Agent{a}

	for i := 0; i < 1000 && a.State() != StateFinished; i++ {
		a.Update(others, 1.0)
	}

	if a.State() != StateFinished {
		t.Fatalf("shopper stuck in %v after 1000 ticks", a.State())
	}
	if a.VisitedCount() != 3 || a.RemainingCount() != 0 {
		t.Errorf("visited %d, remaining %d, want 3 and 0", a.VisitedCount(), a.RemainingCount())
	}
	if !a.Position.Equal(testDoors[0]) {
		t.Errorf("finished at %v, want the door %v", a.Position, testDoors[0])
	}
	if _, ok := a.Destination(); ok {
		t.Error("finished shopper still holds a destination")
	}
}

func TestFullVisitWithCheckout(t *testing.T) {
	shelves := []*floor.Zone{mkShelf("a", 100, 0, 1)}
	till := mkTill("till", 300, 200, 3)
	a := newShopper(t, 2, Config{
		Start:     orb.Point{0, 0},
		Products:  shelves,
		Checkouts: []*floor.Zone{till},
		Behavior:  BehaviorTargeted,
		Budget:    BudgetHigh,
	})
	others := []*Agent{a}

	seen := map[State]bool{}
	for i := 0; i < 5000 && a.State() != StateFinished; i++ {
		seen[a.State()] = true
		a.Update(others, 1.0)
	}
	seen[a.State()] = true

	for _, want := range []State{
		StateWalking, StateShopping, StateInQueue, StatePaying, StateLeaving, StateFinished,
	} {
		if !seen[want] {
			t.Errorf("state %v never entered", want)
		}
	}
	if q := till.QueueLength(); q != 0 {
		t.Errorf("queue length after visit = %d, want 0", q)
	}
	if a.Checkout() != nil {
		t.Error("finished shopper still holds a queue claim")
	}
}

func TestNonPositiveDeltaIsNoOp(t *testing.T) {
	shelves := []*floor.Zone{mkShelf("a", 100, 0, 1)}
	till := mkTill("till", 300, 0, 3)
	a := newShopper(t, 3, Config{
		Start:     orb.Point{0, 0},
		Products:  shelves,
		Checkouts: []*floor.Zone{till},
		Behavior:  BehaviorExplorer,
		Budget:    BudgetHigh,
	})
	others := []*Agent{a}
	for i := 0; i < 3; i++ {
		a.Update(others, 1.0)
	}

	pos, heading, state := a.Position, a.Heading, a.state
	dest, shopT, payT := a.dest, a.shoppingTime, a.payingTime

	a.Update(others, 0)
	a.Update(others, -1)

	if !a.Position.Equal(pos) || !a.Heading.Equal(heading) {
		t.Errorf("paused tick moved the shopper: %v -> %v", pos, a.Position)
	}
	if a.state != state || a.dest != dest {
		t.Errorf("paused tick changed state %v -> %v", state, a.state)
	}
	if a.shoppingTime != shopT || a.payingTime != payT {
		t.Error("paused tick advanced dwell timers")
	}
}

func TestVisitedPartitionInvariant(t *testing.T) {
	shelves := []*floor.Zone{
		mkShelf("a", 100, 0, 1),
		mkShelf("b", 200, 100, 1),
		mkShelf("c", 300, 0, 1),
		mkShelf("d", 400, 100, 1),
	}
	a := newShopper(t, 4, Config{
		Start:    orb.Point{0, 0},
		Products: shelves,
		Behavior: BehaviorFamily,
		Budget:   BudgetMedium,
	})
	others := []*Agent{a}

	for i := 0; i < 1000 && a.State() != StateFinished; i++ {
		if got := a.VisitedCount() + a.RemainingCount(); got != len(shelves) {
			t.Fatalf("tick %d: visited+remaining = %d, want %d", i, got, len(shelves))
		}
		seen := map[*floor.Zone]bool{}
		for _, z := range a.visited {
			seen[z] = true
		}
		for _, z := range a.unvisited {
			if seen[z] {
				t.Fatalf("tick %d: zone %q in both visited and unvisited", i, z.Name)
			}
		}
		a.Update(others, 1.0)
	}
}

func TestCheckoutFullDefersDecision(t *testing.T) {
	shelf := mkShelf("s", 100, 0, 1)
	till := mkTill("till", 300, 0, 1)
	mk := func(seed int64) *Agent {
		a := newShopper(t, seed, Config{
			Start:     orb.Point{50, 0},
			Products:  []*floor.Zone{shelf},
			Checkouts: []*floor.Zone{till},
			Behavior:  BehaviorTargeted,
			Budget:    BudgetHigh,
		})
		// Fast-forward past shopping: nothing left to visit, next
		// decision must be the checkout.
		a.unvisited = nil
		a.state = StateWalking
		a.dest = nil
		return a
	}
	first, second := mk(10), mk(11)
	others := []*Agent{first, second}

	first.Update(others, 1)
	if first.State() != StateInQueue {
		t.Fatalf("first shopper = %v, want in-queue", first.State())
	}

	second.Update(others, 1)
	if second.State() != StateWalking {
		t.Errorf("deferred shopper = %v, want walking", second.State())
	}
	if _, ok := second.Destination(); ok {
		t.Error("deferred shopper holds a destination")
	}
	if q := till.QueueLength(); q != 1 {
		t.Errorf("queue length = %d, want 1", q)
	}

	// Once the first shopper pays and leaves, the retry must claim the
	// freed slot. The queue may never exceed its capacity meanwhile.
	for i := 0; i < 5000 && second.State() != StateInQueue; i++ {
		first.Update(others, 1)
		second.Update(others, 1)
		if q := till.QueueLength(); q > till.MaxQueue {
			t.Fatalf("queue over capacity: %d", q)
		}
	}
	if second.State() != StateInQueue {
		t.Fatal("deferred shopper never joined after the slot freed")
	}
}

func TestHeadPromotionBySlotOrder(t *testing.T) {
	shelf := mkShelf("s", 100, 0, 1)
	till := mkTill("till", 300, 0, 3)
	mk := func(seed int64) *Agent {
		a := newShopper(t, seed, Config{
			Start:     orb.Point{50, 0},
			Products:  []*floor.Zone{shelf},
			Checkouts: []*floor.Zone{till},
			Behavior:  BehaviorTargeted,
			Budget:    BudgetHigh,
		})
		a.unvisited = nil
		return a
	}

	// The update list holds b before a, but a owns the lower slot.
	b, a := mk(20), mk(21)
	a.state = StateInQueue
	a.checkout = till
	a.queueSlot = till.Join()
	b.state = StateInQueue
	b.checkout = till
	b.queueSlot = till.Join()
	if a.queueSlot != 1 || b.queueSlot != 2 {
		t.Fatalf("staged slots = %d, %d, want 1, 2", a.queueSlot, b.queueSlot)
	}
	for _, ag := range []*Agent{a, b} {
		p := till.SlotPosition(ag.queueSlot, ag.Footprint.Length, ag.scale)
		ag.dest = &p
		ag.Position = p
	}
	others := []*Agent{b, a}

	b.Update(others, 1)
	a.Update(others, 1)
	if a.State() != StatePaying {
		t.Errorf("slot-1 shopper = %v, want paying", a.State())
	}
	if b.State() != StateInQueue {
		t.Errorf("slot-2 shopper = %v, want in-queue", b.State())
	}

	// With the head gone from the queue the next slot promotes, even
	// though the first shopper is still being served.
	b.Update(others, 1)
	if b.State() != StatePaying {
		t.Errorf("slot-2 shopper after promotion = %v, want paying", b.State())
	}
	if q := till.QueueLength(); q != 2 {
		t.Errorf("queue length during service = %d, want 2", q)
	}
}
