// Package gesture turns per-frame hand landmarks into finger openness,
// a discrete gesture label and an analog control vector.
package gesture

import "fmt"

// Gesture is a discrete hand pose from a fixed taxonomy.
// The zero value Unset means no gesture has been observed yet.
type Gesture int

const (
	Unset Gesture = iota
	RockAndRoll
	ThumbsUp
	ThumbsDown
	OneFinger
	Peace
	OpenHand
	Fist
	FourFingers
	ThreeFingers
	NoGesture
)

var gestureNames = map[Gesture]string{
	Unset:        "",
	RockAndRoll:  "Rock & Roll",
	ThumbsUp:     "Thumbs Up",
	ThumbsDown:   "Thumbs Down",
	OneFinger:    "1 finger",
	Peace:        "Peace",
	OpenHand:     "Open Hand",
	Fist:         "Fist",
	FourFingers:  "4 fingers",
	ThreeFingers: "3 fingers",
	NoGesture:    "No Gesture",
}

// Gestures lists every classifiable gesture (Unset excluded).
var Gestures = []Gesture{
	RockAndRoll, ThumbsUp, ThumbsDown, OneFinger, Peace,
	OpenHand, Fist, FourFingers, ThreeFingers, NoGesture,
}

// String returns the display label of the gesture.
func (g Gesture) String() string {
	if name, ok := gestureNames[g]; ok {
		return name
	}
	return fmt.Sprintf("Gesture(%d)", int(g))
}

// MarshalText encodes the gesture as its display label.
func (g Gesture) MarshalText() ([]byte, error) {
	if _, ok := gestureNames[g]; !ok {
		return nil, fmt.Errorf("unknown gesture %d", int(g))
	}
	return []byte(g.String()), nil
}

// UnmarshalText decodes a display label produced by MarshalText.
func (g *Gesture) UnmarshalText(text []byte) error {
	parsed, err := ParseGesture(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGesture returns the gesture with the given display label.
// The empty string parses as Unset.
func ParseGesture(label string) (Gesture, error) {
	for g, name := range gestureNames {
		if name == label {
			return g, nil
		}
	}
	return Unset, fmt.Errorf("unknown gesture %q", label)
}
