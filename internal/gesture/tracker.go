package gesture

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ayusman/handrunner/internal/detector"
)

// HandPolicy decides which hand's gesture a frame retains when several are reported.
type HandPolicy int

const (
	// LastHandWins lets every hand update the gesture state in turn, so the
	// final hand reported by the detector determines the frame's gesture.
	LastHandWins HandPolicy = iota
	// FirstHandWins keeps the first reported hand's gesture and ignores the rest for classification.
	FirstHandWins
)

// String returns the config name of the policy.
func (p HandPolicy) String() string {
	switch p {
	case FirstHandWins:
		return "first"
	default:
		return "last"
	}
}

// ParseHandPolicy parses "last" or "first".
func ParseHandPolicy(s string) (HandPolicy, error) {
	switch s {
	case "", "last":
		return LastHandWins, nil
	case "first":
		return FirstHandWins, nil
	default:
		return LastHandWins, fmt.Errorf("unknown hand policy %q", s)
	}
}

// TrackerState is the state carried between frames.
type TrackerState struct {
	Current Gesture `json:"current"`
	Last    Gesture `json:"last"`
	Anchor  Vec2    `json:"anchor"`
	Delta   Vec2    `json:"delta"`
}

// RecenterFunc runs when a hand switches into ThumbsUp from anything but
// ThumbsUp or Fist. It may move state.Anchor.
type RecenterFunc func(state *TrackerState, hand detector.HandLandmarks)

// RecenterLog only records that a recenter was requested; the anchor stays put.
func RecenterLog(logger *log.Logger) RecenterFunc {
	return func(state *TrackerState, hand detector.HandLandmarks) {
		logger.Info("centering", "anchor", state.Anchor)
	}
}

// RecenterToWrist moves the anchor to the wrist of the triggering hand.
func RecenterToWrist(state *TrackerState, hand detector.HandLandmarks) {
	state.Anchor = vecFrom(hand.Points[detector.Wrist])
}

// Config configures a Tracker.
type Config struct {
	Anchor     Vec2
	HandPolicy HandPolicy
	Recenter   RecenterFunc
	Logger     *log.Logger
}

// DefaultConfig returns the reference tracker behavior.
func DefaultConfig() Config {
	return Config{
		Anchor:     DefaultAnchor,
		HandPolicy: LastHandWins,
	}
}

// HandResult is the classification of one hand.
type HandResult struct {
	Openness FingerOpenness `json:"openness"`
	Gesture  Gesture        `json:"gesture"`
	Wrist    Vec2           `json:"wrist"`
}

// FrameResult is the outcome of one ProcessFrame call.
type FrameResult struct {
	Control    Vec2         `json:"control"`
	Gesture    Gesture      `json:"gesture"`
	Hands      []HandResult `json:"hands,omitempty"`
	NoHand     bool         `json:"no_hand"`
	Recentered bool         `json:"recentered"`
	// Landmarks is the number of landmarks that went into the average.
	Landmarks int `json:"landmarks"`
}

// Tracker classifies frames of hands and keeps the gesture state between them.
// It is not safe for concurrent use; frames must be processed one at a time.
type Tracker struct {
	state    TrackerState
	policy   HandPolicy
	recenter RecenterFunc
	anchor   Vec2
	logger   *log.Logger
}

// NewTracker creates a Tracker with the given configuration.
func NewTracker(cfg Config) *Tracker {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	recenter := cfg.Recenter
	if recenter == nil {
		recenter = RecenterLog(logger)
	}

	return &Tracker{
		state:    TrackerState{Anchor: cfg.Anchor},
		policy:   cfg.HandPolicy,
		recenter: recenter,
		anchor:   cfg.Anchor,
		logger:   logger,
	}
}

// State returns a copy of the current tracker state.
func (t *Tracker) State() TrackerState {
	return t.state
}

// Reset clears the gesture history and restores the configured anchor.
func (t *Tracker) Reset() {
	t.state = TrackerState{Anchor: t.anchor}
}

// ProcessFrame classifies every hand in the frame and computes the control
// vector: the mean of all landmark positions minus the anchor.
//
// An empty frame yields NoHandControl and leaves the gesture state alone.
// If any hand does not have exactly 21 landmarks the frame is rejected with
// ErrInvalidLandmarks before any state changes.
func (t *Tracker) ProcessFrame(hands []detector.HandLandmarks) (FrameResult, error) {
	for i := range hands {
		if err := hands[i].Validate(); err != nil {
			return FrameResult{Control: NoHandControl, Gesture: t.state.Current}, fmt.Errorf("hand %d: %w", i, err)
		}
	}

	if len(hands) == 0 {
		t.state.Delta = NoHandControl
		return FrameResult{Control: NoHandControl, Gesture: t.state.Current, NoHand: true}, nil
	}

	result := FrameResult{Hands: make([]HandResult, 0, len(hands))}
	var sum Vec2

	for i, hand := range hands {
		openness, _ := ComputeFingerOpenness(hand)
		g := Classify(openness, hand)
		result.Hands = append(result.Hands, HandResult{
			Openness: openness,
			Gesture:  g,
			Wrist:    vecFrom(hand.Points[detector.Wrist]),
		})

		if t.policy == LastHandWins || i == 0 {
			t.state.Current = g
			if t.shouldRecenter() {
				t.recenter(&t.state, hand)
				result.Recentered = true
			}
			if t.state.Current != t.state.Last {
				t.logger.Debug("gesture changed", "from", t.state.Last, "to", t.state.Current, "openness", openness)
			}
			t.state.Last = t.state.Current
		}

		for _, p := range hand.Points {
			// MediaPipe reports undetected landmarks at x == 0
			if p.X == 0 {
				continue
			}
			sum.X += p.X
			sum.Y += p.Y
			result.Landmarks++
		}
	}

	result.Gesture = t.state.Current
	if result.Landmarks == 0 {
		result.Control = NoHandControl
	} else {
		n := float64(result.Landmarks)
		mean := Vec2{X: sum.X / n, Y: sum.Y / n}
		result.Control = mean.Sub(t.state.Anchor)
	}
	t.state.Delta = result.Control

	return result, nil
}

func (t *Tracker) shouldRecenter() bool {
	return t.state.Last != ThumbsUp && t.state.Last != Fist && t.state.Current == ThumbsUp
}
