// Package floor models the retail floor plan: the measured zones a
// store is drawn from, the layout container that groups them, JSON
// load/save of layouts, and a seeded generator for demo floors.
//
// All geometry is in screen pixels; real-world sizes (footprints,
// queue spacing) are millimetres converted through the layout scale,
// which records how many millimetres one pixel covers.
package floor

import (
	"fmt"

	"github.com/paulmach/orb"
)

// ZoneKind discriminates what a drawn rectangle means to the simulation.
type ZoneKind uint8

const (
	KindWall      ZoneKind = iota // impassable outline, shelving block
	KindProduct                   // browsable shelf, carries attractiveness
	KindCheckout                  // till with a FIFO queue
	KindEntryExit                 // door, both spawn point and exit
	KindScaleRef                  // reference segment used when measuring a plan
)

func (k ZoneKind) String() string {
	switch k {
	case KindWall:
		return "wall"
	case KindProduct:
		return "product"
	case KindCheckout:
		return "checkout"
	case KindEntryExit:
		return "entry-exit"
	case KindScaleRef:
		return "scale-ref"
	default:
		return "unknown"
	}
}

// ParseZoneKind maps a layout-file type label back to its ZoneKind.
func ParseZoneKind(s string) (ZoneKind, error) {
	switch s {
	case "wall":
		return KindWall, nil
	case "product":
		return KindProduct, nil
	case "checkout":
		return KindCheckout, nil
	case "entry-exit":
		return KindEntryExit, nil
	case "scale-ref":
		return KindScaleRef, nil
	default:
		return 0, fmt.Errorf("unknown zone type %q", s)
	}
}

// Queue defaults applied when a layout file leaves them unset.
const (
	DefaultMaxQueue     = 5     // shoppers per checkout, including the one paying
	DefaultQueueSpacing = 900.0 // mm of aisle between queued shoppers
)

// Zone is one rectangle of the floor plan. Product zones advertise an
// attractiveness score that drives shopper decisions; checkout zones
// additionally carry live queue state. Zones are shared by reference
// between the layout and every agent that knows about them.
type Zone struct {
	Name     string
	Number   int
	Category string
	Kind     ZoneKind

	Bound          orb.Bound
	Attractiveness float64

	// Checkout-only tuning.
	MaxQueue     int
	QueueSpacing float64

	queued int
}

// Center returns the midpoint of the zone rectangle. For checkouts this
// is where the paying shopper stands.
func (z *Zone) Center() orb.Point {
	return z.Bound.Center()
}

// Width returns the zone's horizontal extent in pixels.
func (z *Zone) Width() float64 {
	return z.Bound.Max.X() - z.Bound.Min.X()
}

// Height returns the zone's vertical extent in pixels. Note that orb
// bounds are geo-oriented; in screen coordinates Min is the top-left
// corner, so height is Max.Y minus Min.Y here too.
func (z *Zone) Height() float64 {
	return z.Bound.Max.Y() - z.Bound.Min.Y()
}

// Contains reports whether the point lies inside the zone rectangle.
func (z *Zone) Contains(p orb.Point) bool {
	return z.Bound.Contains(p)
}

// QueueLength returns how many shoppers currently hold a slot at this
// checkout, the paying one included.
func (z *Zone) QueueLength() int {
	return z.queued
}

// CanJoin reports whether the checkout has a free queue slot.
func (z *Zone) CanJoin() bool {
	return z.queued < z.MaxQueue
}

// Join claims the next queue slot and returns its 1-based number, slot 1
// being the till itself. It returns -1 when the queue is already full;
// callers must check CanJoin or handle the refusal.
func (z *Zone) Join() int {
	if z.queued >= z.MaxQueue {
		return -1
	}
	z.queued++
	return z.queued
}

// Release gives one claimed slot back. Shoppers release exactly once,
// when payment completes or when the simulation discards them.
func (z *Zone) Release() {
	if z.queued > 0 {
		z.queued--
	}
}

// ResetQueue clears all queue claims, used when the simulation resets.
func (z *Zone) ResetQueue() {
	z.queued = 0
}

// SlotPosition returns where the holder of the given slot should stand.
// Slots line up to the left of the till center, each one footprint plus
// the configured spacing apart, converted from millimetres to pixels
// through the layout scale.
func (z *Zone) SlotPosition(slot int, footprintLength, scale float64) orb.Point {
	c := z.Center()
	gap := (z.QueueSpacing + footprintLength) / scale
	return orb.Point{c.X() - gap*float64(slot), c.Y()}
}

func (z *Zone) String() string {
	if z.Category != "" {
		return fmt.Sprintf("%s %q (%s)", z.Kind, z.Name, z.Category)
	}
	return fmt.Sprintf("%s %q", z.Kind, z.Name)
}
