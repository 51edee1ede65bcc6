package floor

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// Layout violations reported by Validate.
var (
	ErrBadScale    = errors.New("layout scale must be positive")
	ErrNoEntryExit = errors.New("layout has no entry-exit zone")
	ErrNoProducts  = errors.New("layout has no product zones")
)

// Layout is a measured floor plan: every drawn zone plus the scale that
// converts pixels to millimetres. The zone slice keeps file order, which
// fixes iteration order everywhere downstream.
type Layout struct {
	Name  string
	Scale float64 // mm per pixel
	Zones []*Zone
}

// byKind returns the zones of one kind, preserving layout order.
func (l *Layout) byKind(k ZoneKind) []*Zone {
	var out []*Zone
	for _, z := range l.Zones {
		if z.Kind == k {
			out = append(out, z)
		}
	}
	return out
}

// Products returns the browsable shelf zones in layout order.
func (l *Layout) Products() []*Zone {
	return l.byKind(KindProduct)
}

// Checkouts returns the till zones in layout order. A layout without
// checkouts is legal; shoppers then leave without paying.
func (l *Layout) Checkouts() []*Zone {
	return l.byKind(KindCheckout)
}

// EntryExits returns the door zones in layout order.
func (l *Layout) EntryExits() []*Zone {
	return l.byKind(KindEntryExit)
}

// Walls returns the impassable zones in layout order.
func (l *Layout) Walls() []*Zone {
	return l.byKind(KindWall)
}

// Doors returns the centers of all entry-exit zones. The same doors
// serve as spawn points and as exits.
func (l *Layout) Doors() []orb.Point {
	ee := l.EntryExits()
	pts := make([]orb.Point, len(ee))
	for i, z := range ee {
		pts[i] = z.Center()
	}
	return pts
}

// Bound returns the rectangle enclosing every zone in the layout.
func (l *Layout) Bound() orb.Bound {
	if len(l.Zones) == 0 {
		return orb.Bound{}
	}
	b := l.Zones[0].Bound
	for _, z := range l.Zones[1:] {
		b = b.Union(z.Bound)
	}
	return b
}

// Validate checks that the layout can host a simulation: a positive
// scale, at least one door to spawn from and at least one product zone
// to shop at. Checkouts are optional.
func (l *Layout) Validate() error {
	if l.Scale <= 0 {
		return fmt.Errorf("layout %q: %w", l.Name, ErrBadScale)
	}
	if len(l.EntryExits()) == 0 {
		return fmt.Errorf("layout %q: %w", l.Name, ErrNoEntryExit)
	}
	if len(l.Products()) == 0 {
		return fmt.Errorf("layout %q: %w", l.Name, ErrNoProducts)
	}
	return nil
}

// ResetQueues clears the live queue state of every checkout.
func (l *Layout) ResetQueues() {
	for _, z := range l.Zones {
		z.ResetQueue()
	}
}

func (l *Layout) String() string {
	return fmt.Sprintf("layout %q: %d zones (%d product, %d checkout, %d door), %.1f mm/px",
		l.Name, len(l.Zones), len(l.Products()), len(l.Checkouts()), len(l.EntryExits()), l.Scale)
}
