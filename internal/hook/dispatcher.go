package hook

import (
	"context"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/ayusman/handrunner/internal/gesture"
)

// DefaultQueueSize is the number of pending gesture changes kept for the hooks.
const DefaultQueueSize = 16

// Dispatcher runs the matching hooks for each gesture change on its own
// goroutine, so slow hooks never hold up the game loop.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	logger   *log.Logger
	queue    chan Request

	ran     atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewDispatcher creates a Dispatcher. Call Run to start processing.
func NewDispatcher(m *Manager, e *Executor, queueSize int, logger *log.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		manager:  m,
		executor: e,
		logger:   logger,
		queue:    make(chan Request, queueSize),
	}
}

// GestureChanged queues a gesture change. When the queue is full the change is dropped.
func (d *Dispatcher) GestureChanged(frame int64, prev, cur gesture.Gesture, control gesture.Vec2) {
	req := Request{
		Event:    "gesture",
		Gesture:  cur.String(),
		Previous: prev.String(),
		Frame:    frame,
		ControlX: control.X,
		ControlY: control.Y,
	}
	select {
	case d.queue <- req:
	default:
		d.dropped.Add(1)
		d.logger.Debug("hook queue full, dropping", "gesture", req.Gesture)
	}
}

// Run executes queued requests until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.queue:
			d.dispatch(ctx, req)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) {
	for _, h := range d.manager.List() {
		if !h.Accepts(req.Gesture) {
			continue
		}

		r := req
		r.Config = h.Manifest.Config
		resp, err := d.executor.Execute(ctx, h, &r)
		d.ran.Add(1)
		switch {
		case err != nil:
			d.failed.Add(1)
			d.logger.Warn("hook failed", "hook", h.Manifest.Name, "gesture", req.Gesture, "err", err)
		case !resp.Success:
			d.failed.Add(1)
			d.logger.Warn("hook reported failure", "hook", h.Manifest.Name, "gesture", req.Gesture, "error", resp.Error)
		default:
			d.logger.Debug("hook ran", "hook", h.Manifest.Name, "gesture", req.Gesture)
		}
	}
}

// Stats returns how many hook runs happened, how many failed and how many
// gesture changes were dropped.
func (d *Dispatcher) Stats() (ran, failed, dropped int64) {
	return d.ran.Load(), d.failed.Load(), d.dropped.Load()
}
