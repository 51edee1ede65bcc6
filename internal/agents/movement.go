// Steering and collision avoidance. Shoppers repel each other with a
// hard push inside personal space and a soft exponential falloff just
// outside it; headings turn smoothly rather than snapping.

package agents

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/asgorot87/PeopleSwarm/internal/geom"
)

// stepDistance returns how far the shopper advances in dt seconds, in
// pixels.
func (a *Agent) stepDistance(dt float64) float64 {
	return baseSpeed * a.scale * a.speedMult * dt
}

// CollisionBound returns the axis-aligned box around the shopper's
// footprint as currently oriented. The footprint rectangle rotates
// with the heading; the bound covers it whatever the angle.
func (a *Agent) CollisionBound() orb.Bound {
	w := a.Footprint.Width / a.scale
	l := a.Footprint.Length / a.scale

	// Heading is unit length, so its components are the cos/sin of the
	// orientation angle.
	cx := math.Abs(a.Heading.X())
	cy := math.Abs(a.Heading.Y())
	halfW := (w*cx + l*cy) / 2
	halfH := (w*cy + l*cx) / 2

	return orb.Bound{
		Min: orb.Point{a.Position.X() - halfW, a.Position.Y() - halfH},
		Max: orb.Point{a.Position.X() + halfW, a.Position.Y() + halfH},
	}
}

// avoidance sums repulsion from every nearby shopper. Personal space
// is half the combined footprint widths; inside it the push ramps up
// hard, outside it decays exponentially. Only agents whose padded
// collision bounds overlap contribute, and exactly coincident agents
// are skipped because they have no direction to push along.
func (a *Agent) avoidance(others []*Agent) orb.Point {
	var av orb.Point
	mine := a.CollisionBound()

	for _, o := range others {
		if o == a || o.state == StateFinished {
			continue
		}
		if !mine.Intersects(o.CollisionBound().Pad(avoidMargin)) {
			continue
		}

		dx := a.Position.X() - o.Position.X()
		dy := a.Position.Y() - o.Position.Y()
		d2 := dx*dx + dy*dy
		if d2 <= 0 {
			continue
		}
		d := math.Sqrt(d2)

		minDist := (a.Footprint.Width + o.Footprint.Width) / (2 * a.scale)
		var f float64
		if d < minDist {
			f = hardRepulsion * (minDist - d) / d
		} else {
			f = softRepulsion * math.Exp(-(d-minDist)/minDist)
		}
		av = geom.Add(av, orb.Point{dx * f, dy * f})
	}
	return av
}

// steer blends the pull toward the destination with the avoidance
// push, then low-passes the heading toward that desired direction so
// shoppers arc instead of pivoting. The heading stays unit length and
// keeps its last value whenever the inputs cancel out.
func (a *Agent) steer(toward, avoid orb.Point) {
	desired := geom.Normalize(toward)
	if !geom.IsZero(avoid) {
		desired = geom.Add(desired, geom.Normalize(avoid))
	}
	if !geom.IsZero(desired) {
		a.desiredHeading = geom.Normalize(desired)
	}

	a.Heading = geom.Add(a.Heading, geom.Scale(geom.Sub(a.desiredHeading, a.Heading), turnRate))
	if geom.IsZero(a.Heading) {
		a.Heading = a.desiredHeading
		return
	}
	a.Heading = geom.Normalize(a.Heading)
}

// followStep moves a group follower toward its predecessor's current
// position: the full step if the gap is wider than one step, otherwise
// straight onto the target. Followers never overshoot and never run
// the decision logic.
func (a *Agent) followStep(target orb.Point, dt float64) {
	if dt <= 0 {
		return
	}
	to := geom.Sub(target, a.Position)
	dist := geom.Len(to)
	if dist == 0 {
		return
	}
	step := a.stepDistance(dt)
	if dist <= step {
		a.Position = target
		return
	}
	a.Position = geom.Add(a.Position, geom.Scale(to, step/dist))
}
