package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	// BlurSize is the Gaussian kernel applied before differencing.
	BlurSize = 21
	// PixelDelta is the per-pixel intensity change counted as motion.
	PixelDelta = 25
)

// GateConfig configures a MotionGate.
type GateConfig struct {
	Enabled bool `yaml:"enabled"`
	// Threshold is the percentage of pixels that must change between frames.
	Threshold float64 `yaml:"threshold"`
	// MaxSkip bounds how many still frames may reuse the previous detection.
	MaxSkip int `yaml:"max_skip"`
}

// DefaultGateConfig returns a disabled gate with usable settings.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Enabled:   false,
		Threshold: 0.5,
		MaxSkip:   10,
	}
}

// MotionGate decides whether a frame differs enough from the previous one to
// be worth sending to the hand detector. A still scene keeps the last hands.
type MotionGate struct {
	threshold float64
	maxSkip   int
	skipped   int
	change    float64
	prevGray  gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewMotionGate creates a gate. Non-positive thresholds fall back to the default.
func NewMotionGate(cfg GateConfig) *MotionGate {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultGateConfig().Threshold
	}
	if cfg.MaxSkip < 0 {
		cfg.MaxSkip = 0
	}
	return &MotionGate{
		threshold: cfg.Threshold,
		maxSkip:   cfg.MaxSkip,
		prevGray:  gocv.NewMat(),
	}
}

// ShouldDetect reports whether the frame should go through detection. The
// first frame always passes, as does any frame after MaxSkip still ones.
func (g *MotionGate) ShouldDetect(frame *gocv.Mat) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: BlurSize, Y: BlurSize}, 0, 0, gocv.BorderDefault)

	if !g.primed {
		g.swap(blurred)
		g.primed = true
		g.skipped = 0
		g.change = 0
		return true
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, PixelDelta, 255, gocv.ThresholdBinary)

	g.change = float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0
	g.swap(blurred)

	if g.change > g.threshold || g.skipped >= g.maxSkip {
		g.skipped = 0
		return true
	}
	g.skipped++
	return false
}

// swap replaces the reference frame, taking ownership of next.
func (g *MotionGate) swap(next gocv.Mat) {
	g.prevGray.Close()
	g.prevGray = next
}

// Change returns the percentage of pixels that changed on the last call.
func (g *MotionGate) Change() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.change
}

// Reset forgets the reference frame so the next frame passes.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.primed = false
	g.skipped = 0
}

// Close releases the reference frame.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prevGray.Close()
	g.prevGray = gocv.NewMat()
	g.primed = false
}
