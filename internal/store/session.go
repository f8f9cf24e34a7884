package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session is one play run.
type Session struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	ConfigSource string     `json:"config_source"`
	HandPolicy   string     `json:"hand_policy"`
	Recenter     string     `json:"recenter"`
	Frames       int64      `json:"frames"`
	NoHandFrames int64      `json:"no_hand_frames"`
	Recenters    int64      `json:"recenters"`
}

// SessionStats are the counters written when a session ends.
type SessionStats struct {
	Frames       int64
	NoHandFrames int64
	Recenters    int64
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. An empty ID is filled with a fresh UUID.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	if sess.HandPolicy == "" {
		sess.HandPolicy = "last"
	}
	if sess.Recenter == "" {
		sess.Recenter = "none"
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at, config_source, hand_policy, recenter)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.StartedAt, sess.ConfigSource, sess.HandPolicy, sess.Recenter,
	)
	return err
}

const sessionColumns = `id, started_at, ended_at, config_source, hand_policy, recenter, frames, no_hand_frames, recenters`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	err := row.Scan(&sess.ID, &sess.StartedAt, &ended, &sess.ConfigSource, &sess.HandPolicy,
		&sess.Recenter, &sess.Frames, &sess.NoHandFrames, &sess.Recenters)
	if err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves sessions, newest first. limit <= 0 returns all of them.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// End stamps the session's end time and final counters.
func (r *SessionRepository) End(id string, stats SessionStats) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, no_hand_frames = ?, recenters = ?
		 WHERE id = ?`,
		time.Now(), stats.Frames, stats.NoHandFrames, stats.Recenters, id,
	)
	if err != nil {
		return err
	}
	return expectRow(result)
}

// Delete removes a session and, by cascade, its events.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

func expectRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
