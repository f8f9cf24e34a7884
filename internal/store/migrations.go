package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per play run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			config_source TEXT NOT NULL DEFAULT '',
			hand_policy TEXT NOT NULL DEFAULT 'last',
			recenter TEXT NOT NULL DEFAULT 'none',
			frames INTEGER NOT NULL DEFAULT 0,
			no_hand_frames INTEGER NOT NULL DEFAULT 0,
			recenters INTEGER NOT NULL DEFAULT 0
		)`,

		// Gesture events table - gesture transitions, recenters, no-hand streaks and tick errors
		`CREATE TABLE IF NOT EXISTS gesture_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			kind TEXT NOT NULL CHECK(kind IN ('gesture', 'recenter', 'no_hand', 'error')),
			frame INTEGER NOT NULL,
			gesture TEXT NOT NULL DEFAULT '',
			previous TEXT NOT NULL DEFAULT '',
			control_x REAL NOT NULL DEFAULT 0,
			control_y REAL NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_gesture_events_session_id ON gesture_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
