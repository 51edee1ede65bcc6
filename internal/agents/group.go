// Group movement: the leader runs the full decision and movement
// stack, followers trail behind it in a chain.

package agents

// Group is one arriving party. Members[0] is the leader; the rest
// follow in file and never decide anything on their own.
type Group struct {
	ID      string    `json:"id"`
	Kind    GroupKind `json:"kind"`
	Members []*Agent  `json:"members"`
}

// Leader returns the deciding member.
func (g *Group) Leader() *Agent {
	return g.Members[0]
}

// Finished reports whether the party is done with its visit. Followers
// only mirror the leader, so the leader's state speaks for the group.
func (g *Group) Finished() bool {
	return g.Members[0].State() == StateFinished
}

// Update advances the leader through its state machine, then pulls
// each follower toward the member directly ahead. Follower i chases
// the already-updated position of member i-1, so the chain tightens
// front to back within a single tick.
func (g *Group) Update(all []*Agent, dt float64) {
	if len(g.Members) == 0 {
		return
	}
	g.Members[0].Update(all, dt)
	for i := 1; i < len(g.Members); i++ {
		g.Members[i].followStep(g.Members[i-1].Position, dt)
	}
}
