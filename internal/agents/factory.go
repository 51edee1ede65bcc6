// Population factory: seeded spawning of shoppers and parties.

package agents

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/asgorot87/PeopleSwarm/internal/floor"
)

// Environment is the slice of the floor plan every spawned shopper
// gets a reference to.
type Environment struct {
	Products  []*floor.Zone
	Checkouts []*floor.Zone
	Doors     []orb.Point
	Scale     float64
	SpeedMult float64 // 0 means normal pace
}

// Distribution holds the relative share of each party kind among
// arrivals. Shares are weights and need not sum to 1.
type Distribution struct {
	Individual float64
	Pair       float64
	Family     float64
}

// DefaultDistribution reflects typical supermarket traffic: mostly
// singles, some pairs, a few families.
func DefaultDistribution() Distribution {
	return Distribution{Individual: 0.6, Pair: 0.25, Family: 0.15}
}

func (d Distribution) share(k GroupKind) float64 {
	switch k {
	case GroupPair:
		return d.Pair
	case GroupFamily:
		return d.Family
	default:
		return d.Individual
	}
}

// groupKinds fixes the order in which shares are walked, keeping
// seeded runs reproducible.
var groupKinds = [...]GroupKind{GroupIndividual, GroupPair, GroupFamily}

var soloBehaviors = [...]Behavior{
	BehaviorImpulsive, BehaviorTargeted, BehaviorExplorer, BehaviorBudget,
}

// Factory spawns shoppers with sequential IDs from one seeded stream,
// so equal seeds replay the same population.
type Factory struct {
	rng    *rand.Rand
	nextID AgentID
}

// NewFactory returns a factory with its own seeded random stream.
func NewFactory(seed int64) *Factory {
	return &Factory{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// NextID returns the ID the next spawned shopper will receive.
func (f *Factory) NextID() AgentID {
	return f.nextID
}

// Spawn creates one party of the given kind at a random door. Solo
// shoppers draw one of the four solo strategies; pairs and families
// always move as a family unit. Budget tier is drawn per party and
// shared by its members, and all members start on the same point.
func (f *Factory) Spawn(kind GroupKind, env Environment) (*Group, error) {
	if len(env.Doors) == 0 {
		return nil, fmt.Errorf("spawn %s: %w", kind, ErrNoExits)
	}
	if env.SpeedMult == 0 {
		env.SpeedMult = 1.0
	}

	behavior := BehaviorFamily
	if kind == GroupIndividual {
		behavior = soloBehaviors[f.rng.Intn(len(soloBehaviors))]
	}

	cfg := Config{
		Start:     env.Doors[f.rng.Intn(len(env.Doors))],
		Products:  env.Products,
		Checkouts: env.Checkouts,
		Exits:     env.Doors,
		Behavior:  behavior,
		Budget:    Budget(f.rng.Intn(3)),
		Scale:     env.Scale,
		SpeedMult: env.SpeedMult,
	}

	g := &Group{ID: uuid.NewString(), Kind: kind}
	for i := 0; i < kind.Size(); i++ {
		a, err := NewAgent(f.nextID, cfg, f.rng)
		if err != nil {
			return nil, fmt.Errorf("spawn %s member %d: %w", kind, i+1, err)
		}
		f.nextID++
		g.Members = append(g.Members, a)
	}
	return g, nil
}

// SpawnRandom creates one party with its kind drawn from the
// distribution. Zero or negative total weight falls back to a single.
func (f *Factory) SpawnRandom(dist Distribution, env Environment) (*Group, error) {
	total := 0.0
	for _, k := range groupKinds {
		if s := dist.share(k); s > 0 {
			total += s
		}
	}

	kind := GroupIndividual
	if total > 0 {
		r := f.rng.Float64() * total
		for _, k := range groupKinds {
			s := dist.share(k)
			if s <= 0 {
				continue
			}
			r -= s
			if r <= 0 {
				kind = k
				break
			}
		}
	}
	return f.Spawn(kind, env)
}

// Build spawns a whole population of roughly total shoppers at once.
// Each kind gets floor(total*share/size) parties; the integer
// remainder is padded with singles so the member count lands exactly
// on total.
func (f *Factory) Build(total int, dist Distribution, env Environment) ([]*Group, error) {
	if total <= 0 {
		return nil, nil
	}

	sum := 0.0
	for _, k := range groupKinds {
		if s := dist.share(k); s > 0 {
			sum += s
		}
	}

	var groups []*Group
	spawned := 0
	if sum > 0 {
		for _, k := range groupKinds {
			share := dist.share(k)
			if share <= 0 {
				continue
			}
			n := int(float64(total) * share / sum / float64(k.Size()))
			for i := 0; i < n; i++ {
				g, err := f.Spawn(k, env)
				if err != nil {
					return nil, err
				}
				groups = append(groups, g)
				spawned += k.Size()
			}
		}
	}

	for spawned < total {
		g, err := f.Spawn(GroupIndividual, env)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
		spawned++
	}
	return groups, nil
}
