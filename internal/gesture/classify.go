package gesture

import "github.com/ayusman/handrunner/internal/detector"

// rule is one row of the gesture decision table.
type rule struct {
	matches func(o FingerOpenness) bool
	resolve func(hand detector.HandLandmarks) Gesture
}

func label(g Gesture) func(detector.HandLandmarks) Gesture {
	return func(detector.HandLandmarks) Gesture { return g }
}

// thumbDirection tells thumbs up from thumbs down. Y grows downward, so a
// tip with a smaller Y than the thumb base is pointing up.
func thumbDirection(hand detector.HandLandmarks) Gesture {
	if hand.Validate() != nil {
		return NoGesture
	}
	if hand.Points[detector.ThumbTip].Y < hand.Points[detector.ThumbMCP].Y {
		return ThumbsUp
	}
	return ThumbsDown
}

// rules is evaluated in order and the first match wins. The patterns
// overlap, so the order is part of the behavior.
var rules = []rule{
	{
		matches: func(o FingerOpenness) bool {
			return o.Open(Index) && o.closed(Middle) && o.Open(Pinky) && o.closed(Ring)
		},
		resolve: label(RockAndRoll),
	},
	{
		matches: func(o FingerOpenness) bool {
			return o.Open(Thumb) && o.closed(Index) && o.closed(Middle) && o.closed(Ring) && o.closed(Pinky)
		},
		resolve: thumbDirection,
	},
	{
		matches: func(o FingerOpenness) bool {
			return o.closed(Thumb) && o.Open(Index) && o.closed(Middle) && o.closed(Ring) && o.closed(Pinky)
		},
		resolve: label(OneFinger),
	},
	{
		matches: func(o FingerOpenness) bool {
			return o.closed(Thumb) && o.Open(Index) && o.Open(Middle) && o.closed(Ring) && o.closed(Pinky)
		},
		resolve: label(Peace),
	},
	{
		matches: func(o FingerOpenness) bool {
			return o.Open(Thumb) && o.Open(Index) && o.Open(Middle) && o.Open(Ring) && o.Open(Pinky)
		},
		resolve: label(OpenHand),
	},
	{
		matches: func(o FingerOpenness) bool {
			return o.closed(Thumb) && o.closed(Index) && o.closed(Middle) && o.closed(Ring) && o.closed(Pinky)
		},
		resolve: label(Fist),
	},
	{
		matches: func(o FingerOpenness) bool {
			return o.closed(Thumb) && o.Open(Index) && o.Open(Middle) && o.Open(Ring) && o.Open(Pinky)
		},
		resolve: label(FourFingers),
	},
	{
		matches: func(o FingerOpenness) bool {
			return o.closed(Thumb) && o.Open(Index) && o.Open(Middle) && o.Open(Ring) && o.closed(Pinky)
		},
		resolve: label(ThreeFingers),
	},
}

// Classify maps an openness vector to a gesture. The hand is consulted only
// to tell thumbs up from thumbs down; a malformed hand yields NoGesture there.
func Classify(o FingerOpenness, hand detector.HandLandmarks) Gesture {
	for _, r := range rules {
		if r.matches(o) {
			return r.resolve(hand)
		}
	}
	return NoGesture
}
