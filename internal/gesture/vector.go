package gesture

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/handrunner/internal/detector"
)

// Vec2 is a 2D vector in normalized camera space.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NoHandControl is the control vector reported when no hand is usable:
// no horizontal intent and the largest "hand low" vertical value.
var NoHandControl = Vec2{X: 0, Y: 1}

// DefaultAnchor is the initial control anchor.
var DefaultAnchor = Vec2{X: 0.5, Y: 0}

func vecFrom(p detector.Point3D) Vec2 {
	return Vec2{X: p.X, Y: p.Y}
}

func (v Vec2) vec() mgl64.Vec2 { return mgl64.Vec2{v.X, v.Y} }

func fromVec(m mgl64.Vec2) Vec2 { return Vec2{X: m[0], Y: m[1]} }

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return fromVec(v.vec().Add(o.vec()))
}

// Scale returns v multiplied by k.
func (v Vec2) Scale(k float64) Vec2 {
	return fromVec(v.vec().Mul(k))
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return fromVec(v.vec().Sub(o.vec()))
}

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 {
	return v.vec().Dot(o.vec())
}

// Len returns the Euclidean magnitude of v.
func (v Vec2) Len() float64 {
	return v.vec().Len()
}

// Normalize returns v scaled to unit length.
// ok is false when v has zero magnitude and cannot be normalized.
func (v Vec2) Normalize() (n Vec2, ok bool) {
	if v.Len() == 0 {
		return Vec2{}, false
	}
	return fromVec(v.vec().Normalize()), true
}
