package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/handrunner/internal/capture"
	"github.com/ayusman/handrunner/internal/detector"
	"github.com/ayusman/handrunner/internal/gesture"
)

// FrameSink receives every captured frame before it is released.
// Implementations must copy what they keep.
type FrameSink interface {
	WriteFrame(frame *gocv.Mat)
}

// HandInput turns camera frames into tracker results, one frame per Poll.
// It owns the camera and detector from Open until Close.
type HandInput struct {
	camera   capture.Camera
	detector detector.Detector
	tracker  *gesture.Tracker
	gate     *capture.MotionGate
	sink     FrameSink
	logger   *log.Logger

	lastHands []detector.HandLandmarks
	skipped   int64
}

// InputConfig wires a HandInput. Gate and Sink are optional.
type InputConfig struct {
	Camera   capture.Camera
	Detector detector.Detector
	Tracker  *gesture.Tracker
	Gate     *capture.MotionGate
	Sink     FrameSink
	Logger   *log.Logger
}

// NewHandInput creates a HandInput.
func NewHandInput(cfg InputConfig) *HandInput {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = gesture.NewTracker(gesture.Config{Anchor: gesture.DefaultAnchor, Logger: logger})
	}
	return &HandInput{
		camera:   cfg.Camera,
		detector: cfg.Detector,
		tracker:  tracker,
		gate:     cfg.Gate,
		sink:     cfg.Sink,
		logger:   logger,
	}
}

// Open acquires the camera.
func (h *HandInput) Open() error {
	if err := h.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	return nil
}

// Poll reads one frame, detects hands and feeds them to the tracker.
// Frames the motion gate considers still reuse the previous detection.
func (h *HandInput) Poll(ctx context.Context) (gesture.FrameResult, error) {
	if err := ctx.Err(); err != nil {
		return h.fallback(), err
	}

	frame, err := h.camera.ReadFrame()
	if err != nil {
		return h.fallback(), fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	if h.sink != nil {
		h.sink.WriteFrame(frame)
	}

	hands := h.lastHands
	if h.gate == nil || h.gate.ShouldDetect(frame) {
		hands, err = h.detector.Detect(frame)
		if err != nil {
			return h.fallback(), fmt.Errorf("detect hands: %w", err)
		}
		h.lastHands = hands
	} else {
		h.skipped++
	}

	result, err := h.tracker.ProcessFrame(hands)
	if err != nil {
		// do not replay a frame the tracker rejected
		h.lastHands = nil
		return result, err
	}
	return result, nil
}

// fallback is the result reported for a frame that produced no input.
func (h *HandInput) fallback() gesture.FrameResult {
	return gesture.FrameResult{
		Control: gesture.NoHandControl,
		Gesture: h.tracker.State().Current,
		NoHand:  true,
	}
}

// Tracker returns the gesture tracker.
func (h *HandInput) Tracker() *gesture.Tracker {
	return h.tracker
}

// Skipped returns how many frames reused a previous detection.
func (h *HandInput) Skipped() int64 {
	return h.skipped
}

// Close releases the camera, detector and motion gate.
func (h *HandInput) Close() error {
	var errs []error
	if err := h.camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if h.detector != nil {
		if err := h.detector.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close detector: %w", err))
		}
	}
	if h.gate != nil {
		h.gate.Close()
	}
	return errors.Join(errs...)
}
