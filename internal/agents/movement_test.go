package agents

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/asgorot87/PeopleSwarm/internal/floor"
)

func TestArrivalSnapsOntoDestination(t *testing.T) {
	// Step is 50 px at dt 0.05; the shelf center is 40 px away, so the
	// shopper lands exactly on it rather than past it.
	shelf := mkShelf("s", 40, 0, 1)
	till := mkTill("t", 300, 300, 3)
	a := newShopper(t, 1, Config{
		Start:     orb.Point{0, 0},
		Products:  []*floor.Zone{shelf},
		Checkouts: []*floor.Zone{till},
		Behavior:  BehaviorTargeted,
		Budget:    BudgetHigh,
	})

	a.Update([]*Agent{a}, 0.05)

	if !a.Position.Equal(shelf.Center()) {
		t.Errorf("position = %v, want exactly %v", a.Position, shelf.Center())
	}
	if a.State() != StateShopping {
		t.Errorf("state = %v, want shopping", a.State())
	}
}

func TestStepAdvancesBySpeed(t *testing.T) {
	shelf := mkShelf("s", 250, 0, 1)
	a := newShopper(t, 2, Config{
		Start:    orb.Point{0, 0},
		Products: []*floor.Zone{shelf},
		Behavior: BehaviorTargeted,
		Budget:   BudgetHigh,
	})

	// Destination is dead east, matching the initial heading, so one
	// tick covers exactly one step with no turning.
	a.Update([]*Agent{a}, 0.1)

	if math.Abs(a.Position.X()-100) > 1e-9 || math.Abs(a.Position.Y()) > 1e-9 {
		t.Errorf("position = %v, want (100, 0)", a.Position)
	}
	if a.State() != StateWalking {
		t.Errorf("state = %v, want walking", a.State())
	}
}

func TestFamilyPaceIsSlower(t *testing.T) {
	mk := func(b Behavior) *Agent {
		return newShopper(t, 3, Config{
			Start:    orb.Point{0, 0},
			Products: []*floor.Zone{mkShelf("s", 500, 0, 1)},
			Behavior: b,
			Budget:   BudgetHigh,
		})
	}
	solo := mk(BehaviorTargeted)
	family := mk(BehaviorFamily)

	if got, want := family.stepDistance(1), 0.7*solo.stepDistance(1); math.Abs(got-want) > 1e-9 {
		t.Errorf("family step = %v, want %v", got, want)
	}
}

func TestHeadingTurnsSmoothly(t *testing.T) {
	// Destination straight up-screen while heading east: the heading
	// low-passes toward the new direction instead of snapping.
	shelf := mkShelf("s", 0, -500, 1)
	a := newShopper(t, 4, Config{
		Start:    orb.Point{0, 0},
		Products: []*floor.Zone{shelf},
		Behavior: BehaviorTargeted,
		Budget:   BudgetHigh,
	})

	a.Update([]*Agent{a}, 0.001)

	want := orb.Point{0.8, -0.2}
	n := math.Hypot(want.X(), want.Y())
	want = orb.Point{want.X() / n, want.Y() / n}
	if math.Abs(a.Heading.X()-want.X()) > 1e-6 || math.Abs(a.Heading.Y()-want.Y()) > 1e-6 {
		t.Errorf("heading after one tick = %v, want %v", a.Heading, want)
	}
	if got := math.Hypot(a.Heading.X(), a.Heading.Y()); math.Abs(got-1) > 1e-9 {
		t.Errorf("heading length = %v, want 1", got)
	}
}

func TestAvoidanceVeersAroundNeighbor(t *testing.T) {
	// Two wide shoppers closer than their personal space: the walker
	// pushes away from the neighbor sitting just below its path.
	shelf := mkShelf("s", 2000, 0, 1)
	mk := func(seed int64) *Agent {
		return newShopper(t, seed, Config{
			Start:    orb.Point{0, 0},
			Products: []*floor.Zone{shelf},
			Behavior: BehaviorExplorer,
			Budget:   BudgetHigh,
			Scale:    10,
		})
	}
	a, b := mk(5), mk(6)
	b.Position = orb.Point{60, 5}

	a.Update([]*Agent{a, b}, 0.0005)

	if a.Position.Y() >= 0 {
		t.Errorf("walker did not veer away: position %v", a.Position)
	}
	if a.Heading.Y() >= 0 {
		t.Errorf("heading did not turn away: %v", a.Heading)
	}
}

func TestCoincidentShoppersProduceNoNaN(t *testing.T) {
	shelf := mkShelf("s", 500, 0, 1)
	mk := func(seed int64) *Agent {
		return newShopper(t, seed, Config{
			Start:    orb.Point{0, 0},
			Products: []*floor.Zone{shelf},
			Behavior: BehaviorExplorer,
			Budget:   BudgetHigh,
		})
	}
	a, b := mk(7), mk(8)

	for i := 0; i < 10; i++ {
		a.Update([]*Agent{a, b}, 0.01)
		b.Update([]*Agent{a, b}, 0.01)
	}
	for _, ag := range []*Agent{a, b} {
		if math.IsNaN(ag.Position.X()) || math.IsNaN(ag.Position.Y()) {
			t.Fatalf("position went NaN: %v", ag.Position)
		}
		if math.IsNaN(ag.Heading.X()) || math.IsNaN(ag.Heading.Y()) {
			t.Fatalf("heading went NaN: %v", ag.Heading)
		}
	}
}

func TestCollisionBoundTracksHeading(t *testing.T) {
	a := newShopper(t, 9, Config{
		Start:    orb.Point{0, 0},
		Products: []*floor.Zone{mkShelf("s", 500, 0, 1)},
		Behavior: BehaviorImpulsive, // 450 x 300 mm footprint
		Budget:   BudgetHigh,
	})

	// Facing east the footprint width spans x.
	a.Heading = orb.Point{1, 0}
	b := a.CollisionBound()
	if !b.Min.Equal(orb.Point{-225, -150}) || !b.Max.Equal(orb.Point{225, 150}) {
		t.Errorf("east-facing bound = %v", b)
	}

	// Facing up-screen the rectangle turns with the shopper.
	a.Heading = orb.Point{0, -1}
	b = a.CollisionBound()
	if !b.Min.Equal(orb.Point{-150, -225}) || !b.Max.Equal(orb.Point{150, 225}) {
		t.Errorf("north-facing bound = %v", b)
	}
}
