package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// DefaultStreamInterval paces the MJPEG stream at about 15 frames per second.
const DefaultStreamInterval = 66 * time.Millisecond

// StreamHandler serves the frames the game loop captures as MJPEG.
// It receives them as a frame sink, so the camera is only read by the game loop.
type StreamHandler struct {
	interval time.Duration

	mu      sync.Mutex
	jpeg    []byte
	updated chan struct{}
	viewers int
}

// NewStreamHandler creates a StreamHandler. A zero interval uses DefaultStreamInterval.
func NewStreamHandler(interval time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	return &StreamHandler{
		interval: interval,
		updated:  make(chan struct{}),
	}
}

// WriteFrame encodes the frame as JPEG when someone is watching.
func (h *StreamHandler) WriteFrame(frame *gocv.Mat) {
	h.mu.Lock()
	watching := h.viewers > 0
	h.mu.Unlock()
	if !watching || frame == nil || frame.Empty() {
		return
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	h.publish(data)
}

// publish replaces the current frame and wakes the streams.
func (h *StreamHandler) publish(jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jpeg = jpeg
	close(h.updated)
	h.updated = make(chan struct{})
}

func (h *StreamHandler) current() ([]byte, chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.jpeg, h.updated
}

// Viewers returns the number of open streams.
func (h *StreamHandler) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewers
}

func (h *StreamHandler) watch(delta int) {
	h.mu.Lock()
	h.viewers += delta
	h.mu.Unlock()
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.watch(1)
	defer h.watch(-1)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ctx := r.Context()
	for {
		jpeg, updated := h.current()
		if jpeg != nil {
			if err := writePart(w, jpeg); err != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-updated:
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(h.interval):
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
