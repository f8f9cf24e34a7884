package store

import (
	"database/sql"
	"time"
)

// EventKind classifies journal entries.
type EventKind string

const (
	// EventGesture records a change of the current gesture.
	EventGesture EventKind = "gesture"
	// EventRecenter records that the recenter rule fired.
	EventRecenter EventKind = "recenter"
	// EventNoHand records the start of a run of frames without hands.
	EventNoHand EventKind = "no_hand"
	// EventError records a frame that could not be processed.
	EventError EventKind = "error"
)

// Event is a single journal entry of a session.
type Event struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      EventKind `json:"kind"`
	Frame     int64     `json:"frame"`
	Gesture   string    `json:"gesture,omitempty"`
	Previous  string    `json:"previous,omitempty"`
	ControlX  float64   `json:"control_x"`
	ControlY  float64   `json:"control_y"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRepository provides access to gesture events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create appends an event and sets its ID.
func (r *EventRepository) Create(e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO gesture_events (session_id, kind, frame, gesture, previous, control_x, control_y, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, string(e.Kind), e.Frame, e.Gesture, e.Previous, e.ControlX, e.ControlY, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return err
	}

	e.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns a session's events in frame order.
// limit <= 0 returns all of them.
func (r *EventRepository) ListBySession(sessionID string, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT id, session_id, kind, frame, gesture, previous, control_x, control_y, detail, created_at
		 FROM gesture_events WHERE session_id = ? ORDER BY frame, id LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var kind string
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &e.Frame, &e.Gesture, &e.Previous,
			&e.ControlX, &e.ControlY, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = EventKind(kind)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountByKind tallies a session's events per kind.
func (r *EventRepository) CountByKind(sessionID string) (map[EventKind]int, error) {
	rows, err := r.db.Query(
		`SELECT kind, COUNT(*) FROM gesture_events WHERE session_id = ? GROUP BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[EventKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[EventKind(kind)] = n
	}
	return counts, rows.Err()
}
