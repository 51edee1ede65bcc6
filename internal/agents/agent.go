// Agent construction and the per-tick state machine driving one
// shopper through a store visit.

package agents

import (
	"errors"
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/asgorot87/PeopleSwarm/internal/floor"
	"github.com/asgorot87/PeopleSwarm/internal/geom"
)

// Config violations reported by NewAgent.
var (
	ErrNilRand        = errors.New("nil random source")
	ErrBadScale       = errors.New("measurement scale must be positive")
	ErrBadSpeed       = errors.New("speed multiplier must be positive")
	ErrNoProductZones = errors.New("no product zones to shop")
	ErrNoExits        = errors.New("no exits to leave through")
)

// Config describes one spawned shopper: where it enters, what it can
// see of the floor plan, and how it behaves. Zone slices are shared by
// reference with the layout and with other agents.
type Config struct {
	Start     orb.Point
	Products  []*floor.Zone
	Checkouts []*floor.Zone
	Exits     []orb.Point
	Behavior  Behavior
	Budget    Budget
	Scale     float64 // mm per pixel, from the layout
	SpeedMult float64 // simulation pace, 1.0 = normal
}

// Agent is one shopper on the floor. All simulation access is
// single-goroutine; Update mutates the agent in place.
type Agent struct {
	ID        AgentID   `json:"id"`
	Behavior  Behavior  `json:"behavior"`
	Budget    Budget    `json:"budget"`
	Footprint Footprint `json:"footprint"`

	Position orb.Point `json:"position"`
	Heading  orb.Point `json:"heading"`

	state State
	dest  *orb.Point

	desiredHeading orb.Point
	entryHeading   orb.Point
	firstMove      bool

	// Floor knowledge, shared with the layout.
	unvisited []*floor.Zone
	visited   []*floor.Zone
	checkouts []*floor.Zone
	exits     []orb.Point

	// Queue claim, set while IN_QUEUE or PAYING.
	checkout  *floor.Zone
	queueSlot int

	scale     float64
	speedMult float64

	shoppingTime float64
	payingTime   float64
	serviceTime  float64

	// S-O-R profile, drawn once at spawn.
	rewardSensitivity  float64
	anticipationWeight float64
	imageryVividness   float64
	costSensitivity    float64
	impulseProb        float64

	rng *rand.Rand
}

func drawCoefficient(rng *rand.Rand) float64 {
	return minCoefficient + rng.Float64()*(maxCoefficient-minCoefficient)
}

// NewAgent builds a shopper at its entry point and immediately picks
// its first destination, so a freshly spawned agent is already walking.
// Shoppers enter facing east; the first zone choice favors zones to
// the right of that entry heading.
func NewAgent(id AgentID, cfg Config, rng *rand.Rand) (*Agent, error) {
	if rng == nil {
		return nil, ErrNilRand
	}
	if cfg.Scale <= 0 {
		return nil, ErrBadScale
	}
	if cfg.SpeedMult <= 0 {
		return nil, ErrBadSpeed
	}
	if len(cfg.Products) == 0 {
		return nil, ErrNoProductZones
	}
	if len(cfg.Exits) == 0 {
		return nil, ErrNoExits
	}

	a := &Agent{
		ID:        id,
		Behavior:  cfg.Behavior,
		Budget:    cfg.Budget,
		Footprint: footprintFor(cfg.Behavior),

		Position: cfg.Start,
		Heading:  orb.Point{1, 0},

		state:          StateWalking,
		desiredHeading: orb.Point{1, 0},
		entryHeading:   orb.Point{1, 0},
		firstMove:      true,

		unvisited: append([]*floor.Zone(nil), cfg.Products...),
		checkouts: cfg.Checkouts,
		exits:     cfg.Exits,

		scale:     cfg.Scale,
		speedMult: cfg.SpeedMult * speedFactorFor(cfg.Behavior),

		serviceTime: minServiceTime + rng.Float64()*(maxServiceTime-minServiceTime),

		rewardSensitivity:  drawCoefficient(rng),
		anticipationWeight: drawCoefficient(rng),
		imageryVividness:   drawCoefficient(rng),
		costSensitivity:    drawCoefficient(rng),
		impulseProb:        rng.Float64() * maxImpulseProb,

		rng: rng,
	}
	a.chooseNextTarget()
	return a, nil
}

// Update advances the shopper by dt seconds. The others slice is the
// full active population, used for queue coordination and collision
// avoidance; it may include the agent itself. A non-positive dt is a
// no-op so a paused tick never mutates state.
func (a *Agent) Update(others []*Agent, dt float64) {
	if dt <= 0 || a.state == StateFinished {
		return
	}

	switch a.state {
	case StateShopping:
		a.shoppingTime += dt
		if a.shoppingTime >= minShoppingTime && a.rng.Float64() < dt/(maxShoppingTime-minShoppingTime) {
			a.shoppingTime = 0
			a.chooseNextTarget()
		}
		return

	case StatePaying:
		a.payingTime += dt
		if a.payingTime >= a.serviceTime {
			a.state = StateLeaving
			a.ReleaseQueue()
			a.chooseNextTarget()
		}
		return

	case StateInQueue:
		// A shopper promotes the moment it holds the lowest claimed
		// slot, even if still walking toward its slot marker.
		if a.headOfQueue(others) {
			a.state = StatePaying
			return
		}
	}

	if a.dest == nil {
		if a.state == StateWalking {
			// A deferred checkout decision retries every tick until a
			// till frees up.
			a.chooseNextTarget()
		}
		if a.dest == nil {
			return
		}
	}

	to := geom.Sub(*a.dest, a.Position)
	dist := geom.Len(to)
	step := a.stepDistance(dt)
	if dist <= step {
		a.Position = *a.dest
		a.arrive()
		return
	}

	a.steer(to, a.avoidance(others))
	a.Position = geom.Add(a.Position, geom.Scale(a.Heading, step))
}

// arrive handles reaching the current destination. The position has
// already been snapped onto the destination point.
func (a *Agent) arrive() {
	switch a.state {
	case StateWalking:
		if len(a.checkouts) > 0 {
			a.state = StateShopping
			a.shoppingTime = 0
		} else if a.atExit() {
			a.state = StateFinished
			a.dest = nil
		} else {
			// No checkouts on this floor: zones are ticked off with no
			// dwell, so hop straight to the next one.
			a.chooseNextTarget()
		}
	case StateLeaving:
		if a.atExit() {
			a.state = StateFinished
			a.dest = nil
		} else {
			a.chooseNextTarget()
		}
	}
	// StateInQueue: reached the slot marker, stand and wait.
}

// headOfQueue reports whether no other shopper queued at the same
// checkout holds a lower slot. The slot claim of a paying shopper is
// released only when payment completes, so a till can briefly serve
// one shopper while the next already promoted; the queue count stays
// consistent because both still hold their claims.
func (a *Agent) headOfQueue(others []*Agent) bool {
	for _, o := range others {
		if o.state != StateInQueue || o.checkout != a.checkout {
			continue
		}
		if o.queueSlot < a.queueSlot {
			return false
		}
	}
	return true
}

// ReleaseQueue gives back the agent's checkout slot, if it holds one.
// Called on payment completion and when the simulation discards the
// agent mid-visit.
func (a *Agent) ReleaseQueue() {
	if a.checkout == nil {
		return
	}
	a.checkout.Release()
	a.checkout = nil
	a.queueSlot = 0
}

func (a *Agent) atExit() bool {
	if a.dest == nil {
		return false
	}
	for _, e := range a.exits {
		if e.Equal(*a.dest) {
			return true
		}
	}
	return false
}

// State returns the current visit phase.
func (a *Agent) State() State {
	return a.state
}

// Destination returns the current movement target, if any.
func (a *Agent) Destination() (orb.Point, bool) {
	if a.dest == nil {
		return orb.Point{}, false
	}
	return *a.dest, true
}

// Checkout returns the till this shopper holds a slot at, or nil.
func (a *Agent) Checkout() *floor.Zone {
	return a.checkout
}

// QueueSlot returns the held slot number, 0 when not queued.
func (a *Agent) QueueSlot() int {
	return a.queueSlot
}

// VisitedCount returns how many product zones have been shopped.
func (a *Agent) VisitedCount() int {
	return len(a.visited)
}

// RemainingCount returns how many product zones are still unvisited.
func (a *Agent) RemainingCount() int {
	return len(a.unvisited)
}
