// Package geom holds small planar vector helpers used by the movement
// and steering code. Positions and headings are orb.Points in screen
// coordinates (x grows right, y grows down); orb supplies the types and
// distance math but no arithmetic, so the operators live here.
package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Add returns a + b component-wise.
func Add(a, b orb.Point) orb.Point {
	return orb.Point{a.X() + b.X(), a.Y() + b.Y()}
}

// Sub returns a - b component-wise.
func Sub(a, b orb.Point) orb.Point {
	return orb.Point{a.X() - b.X(), a.Y() - b.Y()}
}

// Scale returns v scaled by s.
func Scale(v orb.Point, s float64) orb.Point {
	return orb.Point{v.X() * s, v.Y() * s}
}

// Len returns the Euclidean length of v.
func Len(v orb.Point) float64 {
	return math.Hypot(v.X(), v.Y())
}

// LenSq returns the squared length of v, avoiding the sqrt when only
// comparisons are needed.
func LenSq(v orb.Point) float64 {
	return v.X()*v.X() + v.Y()*v.Y()
}

// Normalize returns v scaled to unit length. The zero vector has no
// direction and is returned unchanged.
func Normalize(v orb.Point) orb.Point {
	l := Len(v)
	if l == 0 {
		return orb.Point{}
	}
	return orb.Point{v.X() / l, v.Y() / l}
}

// IsZero reports whether both components of v are exactly zero.
func IsZero(v orb.Point) bool {
	return v.X() == 0 && v.Y() == 0
}

// Cross returns the z component of the cross product a x b. The sign
// tells which side of a the vector b lies on; note the sense is
// mirrored relative to the usual convention because y grows down.
func Cross(a, b orb.Point) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// Lerp returns the point a + (b-a)*t.
func Lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a.X() + (b.X()-a.X())*t, a.Y() + (b.Y()-a.Y())*t}
}
