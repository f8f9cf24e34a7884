package app

import (
	"github.com/charmbracelet/log"

	"github.com/ayusman/handrunner/internal/gesture"
	"github.com/ayusman/handrunner/internal/store"
)

// journal records gesture transitions, recenters, no-hand streaks and tick
// errors of one session. Without a store it only keeps the counters.
type journal struct {
	store   *store.Store
	session *store.Session
	logger  *log.Logger

	prev   gesture.Gesture
	noHand bool
	stats  store.SessionStats
}

func newJournal(s *store.Store, logger *log.Logger) *journal {
	return &journal{store: s, logger: logger}
}

// begin opens a session row.
func (j *journal) begin(sess store.Session) error {
	j.prev = gesture.Unset
	j.noHand = false
	j.stats = store.SessionStats{}
	j.session = &sess
	if j.store == nil {
		return nil
	}
	return j.store.Sessions().Create(j.session)
}

func (j *journal) sessionID() string {
	if j.session == nil {
		return ""
	}
	return j.session.ID
}

// record journals one tick.
func (j *journal) record(frame int64, res gesture.FrameResult, tickErr error) {
	j.stats.Frames++

	if tickErr != nil {
		j.write(&store.Event{Kind: store.EventError, Frame: frame, Detail: tickErr.Error()})
	}

	if res.NoHand {
		j.stats.NoHandFrames++
		if !j.noHand {
			j.noHand = true
			j.logger.Info("no hand")
			j.write(&store.Event{Kind: store.EventNoHand, Frame: frame, ControlX: res.Control.X, ControlY: res.Control.Y})
		}
	} else {
		j.noHand = false
	}

	if res.Gesture != j.prev && res.Gesture != gesture.Unset {
		j.write(&store.Event{
			Kind:     store.EventGesture,
			Frame:    frame,
			Gesture:  res.Gesture.String(),
			Previous: j.prev.String(),
			ControlX: res.Control.X,
			ControlY: res.Control.Y,
		})
		j.prev = res.Gesture
	}

	if res.Recentered {
		j.stats.Recenters++
		j.write(&store.Event{
			Kind:     store.EventRecenter,
			Frame:    frame,
			Gesture:  res.Gesture.String(),
			ControlX: res.Control.X,
			ControlY: res.Control.Y,
		})
	}
}

func (j *journal) write(e *store.Event) {
	if j.store == nil || j.session == nil {
		return
	}
	e.SessionID = j.session.ID
	if err := j.store.Events().Create(e); err != nil {
		j.logger.Warn("failed to journal event", "kind", e.Kind, "err", err)
	}
}

// end closes the session row with the final counters.
func (j *journal) end() error {
	if j.store == nil || j.session == nil {
		return nil
	}
	err := j.store.Sessions().End(j.session.ID, j.stats)
	j.session = nil
	return err
}
