// Zone selection: behavior-weighted roulette over unvisited zones,
// budget gating, the one-shot entry bias and the checkout picker.

package agents

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/asgorot87/PeopleSwarm/internal/floor"
	"github.com/asgorot87/PeopleSwarm/internal/geom"
)

// budgetFloor maps a budget tier to the minimum attractiveness a zone
// needs to stay in consideration. High budgets consider everything.
var budgetFloor = map[Budget]float64{
	BudgetLow:    1.3,
	BudgetMedium: 1.1,
}

// chooseNextTarget picks where the shopper goes next and updates
// destination and state. Leaving shoppers head for the nearest door.
// With unvisited zones left, one is drawn by behavior weight; once all
// are shopped the agent queues at a checkout, or walks out directly on
// a floor without tills.
func (a *Agent) chooseNextTarget() {
	if a.state == StateLeaving {
		e := a.nearestExit()
		a.dest = &e
		return
	}

	if len(a.unvisited) == 0 {
		if len(a.checkouts) > 0 {
			a.joinCheckout()
		} else {
			e := a.nearestExit()
			a.dest = &e
		}
		return
	}

	candidates := a.unvisited
	if a.firstMove {
		if biased := zonesRightOf(a.Position, a.entryHeading, candidates); len(biased) > 0 {
			candidates = biased
		}
		a.firstMove = false
	}
	if gated := a.withinBudget(candidates); len(gated) > 0 {
		candidates = gated
	}

	chosen := a.pickWeighted(candidates)
	a.markVisited(chosen)
	c := chosen.Center()
	a.dest = &c
	a.state = StateWalking
}

// joinCheckout queues at the best till: shortest queue first, nearest
// center as the tie-break. With every queue full the decision is
// deferred; the shopper idles in WALKING with no destination and
// retries next tick.
func (a *Agent) joinCheckout() {
	var best *floor.Zone
	var bestD float64
	for _, z := range a.checkouts {
		if !z.CanJoin() {
			continue
		}
		d := planar.DistanceSquared(a.Position, z.Center())
		if best == nil || z.QueueLength() < best.QueueLength() ||
			(z.QueueLength() == best.QueueLength() && d < bestD) {
			best, bestD = z, d
		}
	}
	if best == nil {
		a.state = StateWalking
		a.dest = nil
		return
	}

	slot := best.Join()
	if slot < 0 {
		a.state = StateWalking
		a.dest = nil
		return
	}
	a.checkout = best
	a.queueSlot = slot
	p := best.SlotPosition(slot, a.Footprint.Length, a.scale)
	a.dest = &p
	a.state = StateInQueue
}

func (a *Agent) nearestExit() orb.Point {
	best := a.exits[0]
	bestD := planar.DistanceSquared(a.Position, best)
	for _, e := range a.exits[1:] {
		if d := planar.DistanceSquared(a.Position, e); d < bestD {
			best, bestD = e, d
		}
	}
	return best
}

// markVisited moves a zone from the unvisited to the visited set. The
// two sets stay disjoint and together always cover the floor's product
// zones.
func (a *Agent) markVisited(z *floor.Zone) {
	for i, u := range a.unvisited {
		if u == z {
			a.unvisited = append(a.unvisited[:i], a.unvisited[i+1:]...)
			break
		}
	}
	a.visited = append(a.visited, z)
}

// zonesRightOf returns the zones on the right-hand side of the heading
// as seen from the given point, right being the negative cross-product
// side. Shoppers drift that way on their first pick, mirroring how
// people turn when entering a store.
func zonesRightOf(from, heading orb.Point, zones []*floor.Zone) []*floor.Zone {
	var out []*floor.Zone
	for _, z := range zones {
		if geom.Cross(heading, geom.Sub(z.Center(), from)) < 0 {
			out = append(out, z)
		}
	}
	return out
}

// withinBudget filters candidates to those above the tier's
// attractiveness floor. The caller keeps the unfiltered set when
// nothing qualifies, so a picky shopper still shops.
func (a *Agent) withinBudget(zones []*floor.Zone) []*floor.Zone {
	threshold, gated := budgetFloor[a.Budget]
	if !gated {
		return zones
	}
	var out []*floor.Zone
	for _, z := range zones {
		if z.Attractiveness >= threshold {
			out = append(out, z)
		}
	}
	return out
}

// pickWeighted rolls a roulette wheel over the candidates' behavior
// weights. Negative weights count as zero, and if every weight is zero
// the pick falls back to uniform.
func (a *Agent) pickWeighted(zones []*floor.Zone) *floor.Zone {
	weights := make([]float64, len(zones))
	total := 0.0
	for i, z := range zones {
		w := a.zoneWeight(z)
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return zones[a.rng.Intn(len(zones))]
	}

	r := a.rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return zones[i]
		}
	}
	return zones[len(zones)-1]
}

// zoneWeight scores one candidate zone under the shopper's strategy.
func (a *Agent) zoneWeight(z *floor.Zone) float64 {
	switch a.Behavior {
	case BehaviorExplorer:
		return z.Attractiveness
	case BehaviorTargeted:
		return 1.0 / (1.0 + planar.Distance(a.Position, z.Center()))
	case BehaviorBudget:
		return a.utility(z)
	case BehaviorImpulsive:
		// Mostly indifferent, but sometimes the appraisal kicks in.
		w := 1.0
		if a.rng.Float64() < a.impulseProb {
			w = a.utility(z)
		}
		return w + a.rng.Float64()
	case BehaviorFamily:
		return 0.5 + a.rng.Float64()*0.5
	default:
		return 1.0
	}
}

// utility is the stimulus appraisal of a zone: sensed reward plus
// vividness-weighted anticipation minus a cost term that grows as
// attractiveness drops.
func (a *Agent) utility(z *floor.Zone) float64 {
	return a.rewardSensitivity*z.Attractiveness +
		a.anticipationWeight*a.imageryVividness -
		a.costSensitivity/math.Max(z.Attractiveness, 0.1)
}
