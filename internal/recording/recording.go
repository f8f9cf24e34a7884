// Package recording stores sequences of detected hands so they can be
// classified offline or replayed in place of a live detector.
package recording

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/handrunner/internal/detector"
)

// ErrEmpty is returned when a recording holds no frames.
var ErrEmpty = errors.New("recording has no frames")

// Frame is the detector output for one camera frame.
type Frame struct {
	Hands []detector.HandLandmarks `json:"hands"`
}

// Recording is an ordered list of frames.
type Recording struct {
	Name   string  `json:"name,omitempty"`
	FPS    int     `json:"fps,omitempty"`
	Frames []Frame `json:"frames"`
}

// Decode reads a recording. Both {"frames": [...]} and a bare array of frames are accepted.
func Decode(r io.Reader) (*Recording, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		var frames []Frame
		if err2 := json.Unmarshal(data, &frames); err2 != nil {
			return nil, fmt.Errorf("decode recording: %w", err)
		}
		rec.Frames = frames
	}
	if len(rec.Frames) == 0 {
		return nil, ErrEmpty
	}
	return &rec, nil
}

// Load reads a recording file.
func Load(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rec, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if rec.Name == "" {
		rec.Name = path
	}
	return rec, nil
}

// Encode writes the recording as indented JSON.
func (r *Recording) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Save writes the recording to path.
func (r *Recording) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Hands returns the frames as detector output, in order.
func (r *Recording) Hands() [][]detector.HandLandmarks {
	out := make([][]detector.HandLandmarks, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = f.Hands
	}
	return out
}

// Replayer is a detector that returns the frames of a recording in order,
// ignoring the camera image.
type Replayer struct {
	mu     sync.Mutex
	frames []Frame
	next   int
	loop   bool
	closed bool
}

// NewReplayer creates a Replayer. When loop is false, frames past the end
// report no hands.
func NewReplayer(rec *Recording, loop bool) *Replayer {
	return &Replayer{frames: rec.Frames, loop: loop}
}

// Detect returns the next recorded frame.
func (p *Replayer) Detect(frame *gocv.Mat) ([]detector.HandLandmarks, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.next >= len(p.frames) {
		if !p.loop || len(p.frames) == 0 {
			return nil, nil
		}
		p.next = 0
	}
	hands := p.frames[p.next].Hands
	p.next++

	out := make([]detector.HandLandmarks, len(hands))
	for i, h := range hands {
		out[i] = h.Clone()
	}
	return out, nil
}

// Done reports whether a non-looping replay has run out of frames.
func (p *Replayer) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.loop && p.next >= len(p.frames)
}

// Close marks the replayer closed.
func (p *Replayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Recorder wraps a detector and keeps every result it returns.
type Recorder struct {
	detector.Detector

	mu     sync.Mutex
	frames []Frame
}

// NewRecorder wraps d.
func NewRecorder(d detector.Detector) *Recorder {
	return &Recorder{Detector: d}
}

// Detect runs the wrapped detector and records successful results.
func (r *Recorder) Detect(frame *gocv.Mat) ([]detector.HandLandmarks, error) {
	hands, err := r.Detector.Detect(frame)
	if err != nil {
		return hands, err
	}

	kept := make([]detector.HandLandmarks, len(hands))
	for i, h := range hands {
		kept[i] = h.Clone()
	}
	r.mu.Lock()
	r.frames = append(r.frames, Frame{Hands: kept})
	r.mu.Unlock()
	return hands, nil
}

// Recording returns what has been recorded so far.
func (r *Recorder) Recording(name string, fps int) *Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Recording{Name: name, FPS: fps, Frames: append([]Frame(nil), r.frames...)}
}
