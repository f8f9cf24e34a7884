package gesture

import (
	"fmt"
	"math"

	"github.com/ayusman/handrunner/internal/detector"
)

// Finger indexes a FingerOpenness vector.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// ThumbOpenThreshold is the alignment a thumb must exceed to count as open.
// A thumb folded across the palm still aligns positively, typically below this.
const ThumbOpenThreshold = 0.65

// Closed is the value recorded for a thumb below threshold and for any
// finger whose vectors are degenerate.
const Closed = -1.0

// ErrInvalidLandmarks is returned when a hand does not carry exactly 21 landmarks.
var ErrInvalidLandmarks = detector.ErrInvalidLandmarks

// FingerOpenness holds one alignment value per finger, thumb first.
// Positive means open, negative means closed. The thumb is either in
// (ThumbOpenThreshold, 1] or exactly Closed.
type FingerOpenness [5]float64

// Open reports whether the finger is extended.
func (o FingerOpenness) Open(f Finger) bool {
	return o[f] > 0
}

// closed is the literal negative check; zero is neither open nor closed.
func (o FingerOpenness) closed(f Finger) bool {
	return o[f] < 0
}

// ComputeFingerOpenness measures, for each finger, how well the direction
// from its middle joint to its tip continues the direction from the wrist
// to that joint.
func ComputeFingerOpenness(hand detector.HandLandmarks) (FingerOpenness, error) {
	var o FingerOpenness
	if err := hand.Validate(); err != nil {
		return o, err
	}

	wrist := vecFrom(hand.Points[detector.Wrist])
	for i, tip := range detector.FingerTips {
		o[i] = alignment(wrist, vecFrom(hand.Points[tip-2]), vecFrom(hand.Points[tip]))
		if Finger(i) == Thumb && !(o[i] > ThumbOpenThreshold) {
			o[i] = Closed
		}
	}

	return o, nil
}

// alignment returns the dot product of the normalized joint→tip and
// wrist→joint vectors, or Closed when either vector has zero length.
func alignment(wrist, joint, tip Vec2) float64 {
	fv, ok := tip.Sub(joint).Normalize()
	if !ok {
		return Closed
	}
	pv, ok := joint.Sub(wrist).Normalize()
	if !ok {
		return Closed
	}
	// rounding can push a perfectly aligned pair just past 1
	return math.Max(-1, math.Min(1, fv.Dot(pv)))
}

// String formats the vector for logs.
func (o FingerOpenness) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f %.2f]", o[0], o[1], o[2], o[3], o[4])
}
