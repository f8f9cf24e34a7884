// Package detector provides hand detection interfaces and types for gesture-driven input.
package detector

import (
	"errors"
	"fmt"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// FingerTips lists the tip landmark of each finger, thumb first.
var FingerTips = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// ErrInvalidLandmarks is returned when a hand does not carry exactly NumLandmarks points.
var ErrInvalidLandmarks = errors.New("invalid landmark count")

// Point3D represents a landmark position. X and Y are normalized camera
// coordinates with the origin at the top-left and Y growing downward.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the landmarks reported for one hand.
// A well-formed hand has exactly NumLandmarks points; use Validate before indexing.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Validate reports ErrInvalidLandmarks when the hand does not have exactly NumLandmarks points.
func (h *HandLandmarks) Validate() error {
	if h == nil {
		return fmt.Errorf("nil hand: %w", ErrInvalidLandmarks)
	}
	if len(h.Points) != NumLandmarks {
		return fmt.Errorf("got %d landmarks, want %d: %w", len(h.Points), NumLandmarks, ErrInvalidLandmarks)
	}
	return nil
}

// Clone returns a deep copy of the hand.
func (h HandLandmarks) Clone() HandLandmarks {
	points := make([]Point3D, len(h.Points))
	copy(points, h.Points)
	h.Points = points
	return h
}

// Translate returns a copy of the hand shifted by (dx, dy).
func (h HandLandmarks) Translate(dx, dy float64) HandLandmarks {
	out := h.Clone()
	for i := range out.Points {
		out.Points[i].X += dx
		out.Points[i].Y += dy
	}
	return out
}
