// Package agents provides the shopper data model: the per-agent state
// machine, S-O-R decision making, steering with collision avoidance,
// checkout queue handling, and the group and population factories.
package agents

// AgentID is a unique identifier for a shopper.
type AgentID uint64

// State is the phase of a shopper's store visit. Transitions only move
// forward through a visit; FINISHED is terminal.
type State uint8

const (
	StateWalking  State = iota // moving toward a zone, door or deferred decision
	StateShopping              // dwelling at a product zone
	StateInQueue               // holds a checkout slot, advancing or waiting
	StatePaying                // head of queue, being served
	StateLeaving               // paid, heading for a door
	StateFinished              // out of the store
)

func (s State) String() string {
	switch s {
	case StateWalking:
		return "walking"
	case StateShopping:
		return "shopping"
	case StateInQueue:
		return "in-queue"
	case StatePaying:
		return "paying"
	case StateLeaving:
		return "leaving"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Behavior selects the zone-scoring strategy a shopper uses.
type Behavior uint8

const (
	BehaviorImpulsive Behavior = iota // flat weights, occasional utility spikes
	BehaviorTargeted                  // prefers whatever is closest
	BehaviorExplorer                  // follows attractiveness
	BehaviorFamily                    // near-uniform wandering, slower, bigger footprint
	BehaviorBudget                    // pure utility maximizer
)

func (b Behavior) String() string {
	switch b {
	case BehaviorImpulsive:
		return "impulsive"
	case BehaviorTargeted:
		return "targeted"
	case BehaviorExplorer:
		return "explorer"
	case BehaviorFamily:
		return "family"
	case BehaviorBudget:
		return "budget"
	default:
		return "unknown"
	}
}

// Budget is a shopper's spending tier. It gates which product zones
// are considered at all, not how much is spent.
type Budget uint8

const (
	BudgetLow    Budget = iota // only strongly attractive zones qualify
	BudgetMedium               // mildly attractive zones qualify
	BudgetHigh                 // everything qualifies
)

func (b Budget) String() string {
	switch b {
	case BudgetLow:
		return "low"
	case BudgetMedium:
		return "medium"
	case BudgetHigh:
		return "high"
	default:
		return "unknown"
	}
}

// GroupKind is the composition of one arriving party.
type GroupKind uint8

const (
	GroupIndividual GroupKind = iota // one shopper
	GroupPair                        // leader plus one follower
	GroupFamily                      // leader plus two followers
)

// Size returns the member count for the kind.
func (k GroupKind) Size() int {
	switch k {
	case GroupPair:
		return 2
	case GroupFamily:
		return 3
	default:
		return 1
	}
}

func (k GroupKind) String() string {
	switch k {
	case GroupIndividual:
		return "individual"
	case GroupPair:
		return "pair"
	case GroupFamily:
		return "family"
	default:
		return "unknown"
	}
}

// Footprint is the physical space a shopper occupies, in millimetres.
// Width spans shoulder to shoulder, length front to back.
type Footprint struct {
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
}

// footprintFor returns the footprint drawn for a behavior. Families
// move as one wide blob, solo strategies differ by how much space the
// shopper (cart, basket, stroller) takes up.
func footprintFor(b Behavior) Footprint {
	switch b {
	case BehaviorFamily:
		return Footprint{Width: 1200, Length: 1500}
	case BehaviorImpulsive, BehaviorTargeted:
		return Footprint{Width: 450, Length: 300}
	default: // explorer, budget
		return Footprint{Width: 900, Length: 600}
	}
}

// speedFactorFor returns the behavior's walking-speed multiplier.
func speedFactorFor(b Behavior) float64 {
	if b == BehaviorFamily {
		return familySpeedFactor
	}
	return 1.0
}

// Movement and dwell tuning. Distances are millimetres, times seconds.
const (
	baseSpeed         = 1000.0 // walking speed, mm/s
	familySpeedFactor = 0.7

	minShoppingTime = 5.0  // dwell before a shopper may move on
	maxShoppingTime = 30.0 // scales the per-tick chance of moving on
	minServiceTime  = 30.0 // checkout service draw, lower bound
	maxServiceTime  = 120.0

	turnRate      = 0.2  // low-pass factor blending heading toward desired
	avoidMargin   = 50.0 // px of padding when scanning for neighbors
	hardRepulsion = 2.0  // push strength inside personal space
	softRepulsion = 0.5  // exponential falloff outside personal space
)

// S-O-R coefficient draw bounds. Each shopper samples its stimulus
// response profile once at spawn.
const (
	minCoefficient = 0.2
	maxCoefficient = 1.0
	maxImpulseProb = 0.5
)
