package detector

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `yaml:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`

	// IdleTimeout stops the detector subprocess after this long without a request.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.6,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}

// Validate rejects settings the MediaPipe service would refuse.
func (c Config) Validate() error {
	var errs []error
	if c.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("detector.max_hands must be at least 1, got %d", c.MaxHands))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 || c.MinTrackingConf < 0 || c.MinTrackingConf > 1 {
		errs = append(errs, errors.New("detector confidences must be within [0, 1]"))
	}
	if c.IdleTimeout < 0 {
		errs = append(errs, errors.New("detector.idle_timeout must not be negative"))
	}
	return errors.Join(errs...)
}
