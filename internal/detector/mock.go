package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	err      error
	calls    int
	closed   bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence queues per-call results. Once the queue is drained Detect
// falls back to the hands set with SetHands.
func (m *MockDetector) SetSequence(frames [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = frames
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next, nil
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ThumbDirection selects where an extended thumb points in a synthetic hand.
type ThumbDirection int

const (
	ThumbSideways ThumbDirection = iota
	ThumbUpward
	ThumbDownward
)

// Pose describes a synthetic hand: which fingers are extended and where the thumb points.
type Pose struct {
	Thumb, Index, Middle, Ring, Pinky bool
	ThumbDirection                    ThumbDirection
}

// Distances from the wrist, along the finger direction, of the four
// landmarks of an extended or curled finger (base joint first).
var (
	extendedFinger = [4]float64{0.10, 0.15, 0.19, 0.23}
	curledFinger   = [4]float64{0.10, 0.14, 0.11, 0.08}
	extendedThumb  = [4]float64{0.05, 0.09, 0.13, 0.17}
	foldedThumb    = [4]float64{0.05, 0.09, 0.08, 0.06}
)

// fingerDirections are the unit directions (y down) each finger extends along, thumb first.
var fingerDirections = [5][2]float64{
	{0.8, -0.6},
	unit(0.3, -0.95),
	{0, -1},
	unit(-0.25, -0.97),
	unit(-0.5, -0.87),
}

func unit(x, y float64) [2]float64 {
	l := math.Hypot(x, y)
	return [2]float64{x / l, y / l}
}

// SyntheticHand builds a right hand with its wrist at the given point.
// Every finger's four landmarks lie on a ray from the wrist, so an extended
// finger has openness 1 and a curled one has openness -1.
func SyntheticHand(wrist Point3D, pose Pose) HandLandmarks {
	hand := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}
	hand.Points[Wrist] = wrist

	extended := [5]bool{pose.Thumb, pose.Index, pose.Middle, pose.Ring, pose.Pinky}
	for finger, tip := range FingerTips {
		dir := fingerDirections[finger]
		offsets := curledFinger
		if finger == 0 {
			offsets = foldedThumb
			switch pose.ThumbDirection {
			case ThumbUpward:
				dir = [2]float64{0, -1}
			case ThumbDownward:
				dir = [2]float64{0, 1}
			}
			if extended[finger] {
				offsets = extendedThumb
			}
		} else if extended[finger] {
			offsets = extendedFinger
		}

		for j, dist := range offsets {
			hand.Points[tip-3+j] = Point3D{
				X: wrist.X + dir[0]*dist,
				Y: wrist.Y + dir[1]*dist,
			}
		}
	}

	return hand
}

var defaultWrist = Point3D{X: 0.5, Y: 0.8}

// ThumbsUpLandmarks returns a hand with the thumb extended upward and the other fingers curled.
func ThumbsUpLandmarks() HandLandmarks {
	return SyntheticHand(defaultWrist, Pose{Thumb: true, ThumbDirection: ThumbUpward})
}

// ThumbsDownLandmarks returns a hand with the thumb extended downward and the other fingers curled.
func ThumbsDownLandmarks() HandLandmarks {
	return SyntheticHand(Point3D{X: 0.5, Y: 0.5}, Pose{Thumb: true, ThumbDirection: ThumbDownward})
}

// OpenPalmLandmarks returns a hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return SyntheticHand(defaultWrist, Pose{Thumb: true, Index: true, Middle: true, Ring: true, Pinky: true})
}

// FistLandmarks returns a hand with every finger curled.
func FistLandmarks() HandLandmarks {
	return SyntheticHand(defaultWrist, Pose{})
}

// OneFingerLandmarks returns a hand pointing with the index finger only.
func OneFingerLandmarks() HandLandmarks {
	return SyntheticHand(defaultWrist, Pose{Index: true})
}

// PeaceLandmarks returns a hand with index and middle fingers extended.
func PeaceLandmarks() HandLandmarks {
	return SyntheticHand(defaultWrist, Pose{Index: true, Middle: true})
}

// RockAndRollLandmarks returns a hand with index and pinky extended.
func RockAndRollLandmarks() HandLandmarks {
	return SyntheticHand(defaultWrist, Pose{Index: true, Pinky: true})
}

// FourFingersLandmarks returns a hand with all fingers but the thumb extended.
func FourFingersLandmarks() HandLandmarks {
	return SyntheticHand(defaultWrist, Pose{Index: true, Middle: true, Ring: true, Pinky: true})
}

// ThreeFingersLandmarks returns a hand with index, middle and ring extended.
func ThreeFingersLandmarks() HandLandmarks {
	return SyntheticHand(defaultWrist, Pose{Index: true, Middle: true, Ring: true})
}
