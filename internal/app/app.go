// Package app wires hand input, the game and the journal into the handrunner game loop.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ayusman/handrunner/internal/game"
	"github.com/ayusman/handrunner/internal/gesture"
	"github.com/ayusman/handrunner/internal/store"
)

// Publisher broadcasts tick updates, e.g. to dashboard clients.
type Publisher interface {
	Publish(v any)
}

// GestureDisplay shows the current gesture, e.g. in the tray.
type GestureDisplay interface {
	SetLastGesture(name string)
}

// GestureListener is told about every change of the current gesture.
// It is called on the game loop and must not block.
type GestureListener interface {
	GestureChanged(frame int64, prev, cur gesture.Gesture, control gesture.Vec2)
}

// Config holds the collaborators of an App. Store, Publisher, Display and
// Listener are optional.
type Config struct {
	Input     *HandInput
	Game      *game.Game
	Store     *store.Store
	Publisher Publisher
	Display   GestureDisplay
	Listener  GestureListener
	// Tick is the loop period; zero means the game's tick rate.
	Tick time.Duration
	// Session describes the run for the journal.
	Session store.Session
	Logger  *log.Logger
}

// Update is the outcome of one tick.
type Update struct {
	Frame       int64               `json:"frame"`
	Time        time.Time           `json:"time"`
	HandControl bool                `json:"hand_control"`
	Result      gesture.FrameResult `json:"result"`
	Game        game.State          `json:"game"`
	Error       string              `json:"error,omitempty"`
}

// App runs the game loop.
type App struct {
	config  Config
	input   *HandInput
	game    *game.Game
	journal *journal
	logger  *log.Logger
	keys    chan game.Key

	mu        sync.RWMutex
	enabled   bool
	running   bool
	last      Update
	frame     int64
	shownName string
	current   gesture.Gesture
}

// New creates a new App. Hand control starts enabled unless the store says otherwise.
func New(config Config) *App {
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	if config.Tick <= 0 {
		config.Tick = game.DefaultWorldConfig().Tick()
	}

	enabled := true
	if config.Store != nil {
		enabled = config.Store.Settings().Bool(store.SettingHandControl, true)
	}

	return &App{
		config:  config,
		input:   config.Input,
		game:    config.Game,
		journal: newJournal(config.Store, logger),
		logger:  logger,
		keys:    make(chan game.Key, 16),
		enabled: enabled,
	}
}

// SetEnabled turns hand control on or off and remembers the choice.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	a.logger.Info("hand control", "enabled", enabled)
	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingHandControl, enabled); err != nil {
			a.logger.Warn("failed to save setting", "err", err)
		}
	}
}

// IsEnabled returns whether hand control is on.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// PressKey queues a keyboard key for the next tick. Keys beyond the queue are dropped.
func (a *App) PressKey(k game.Key) bool {
	select {
	case a.keys <- k:
		return true
	default:
		return false
	}
}

// ResetTracker forgets the gesture history and restores the anchor.
func (a *App) ResetTracker() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.input.Tracker().Reset()
}

// Snapshot returns the latest tick update.
func (a *App) Snapshot() Update {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// SessionID returns the journal session of the current run.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.journal.sessionID()
}

// Run opens the hand input and ticks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	if err := a.input.Open(); err != nil {
		return err
	}
	defer func() {
		if err := a.input.Close(); err != nil {
			a.logger.Warn("error closing hand input", "err", err)
		}
	}()

	if err := a.Begin(); err != nil {
		a.logger.Warn("failed to start session", "err", err)
	}
	defer a.End()

	ticker := time.NewTicker(a.config.Tick)
	defer ticker.Stop()

	a.logger.Info("game loop started", "tick", a.config.Tick, "hand_control", a.IsEnabled())
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("game loop stopped", "frames", a.Stats().Frames)
			return nil
		case <-ticker.C:
			a.Tick(ctx)
		}
	}
}

// Begin opens a journal session. Run calls it; tests driving Tick directly may too.
func (a *App) Begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.journal.begin(a.config.Session); err != nil {
		return err
	}
	a.logger.Debug("session started", "id", a.journal.sessionID())
	return nil
}

// End closes the journal session.
func (a *App) End() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.journal.end(); err != nil {
		a.logger.Warn("failed to close session", "err", err)
	}
}

// Tick polls hand input, drives the game one step and publishes the result.
// Input errors are logged and replaced by the no-hand control for the tick.
func (a *App) Tick(ctx context.Context) Update {
	enabled := a.IsEnabled()

	a.mu.Lock()
	a.frame++
	frame := a.frame

	result := gesture.FrameResult{
		Control: gesture.NoHandControl,
		Gesture: a.input.Tracker().State().Current,
		NoHand:  true,
	}
	var tickErr error
	if enabled {
		res, err := a.input.Poll(ctx)
		if err != nil {
			a.logger.Warn("hand input failed", "frame", frame, "err", err)
			tickErr = err
			res.Control = gesture.NoHandControl
		}
		result = res
	}

	for drained := false; !drained; {
		select {
		case k := <-a.keys:
			a.game.KeyPressed(k)
		default:
			drained = true
		}
	}

	if err := a.game.Tick(result.Control, result.Gesture); err != nil {
		a.logger.Error("game step failed", "err", err)
		if tickErr == nil {
			tickErr = err
		}
	}

	a.journal.record(frame, result, tickErr)

	update := Update{
		Frame:       frame,
		Time:        time.Now(),
		HandControl: enabled,
		Result:      result,
		Game:        a.game.State(),
	}
	if tickErr != nil {
		update.Error = tickErr.Error()
	}
	a.last = update

	name := result.Gesture.String()
	showChanged := name != a.shownName
	a.shownName = name
	prev := a.current
	a.current = result.Gesture
	a.mu.Unlock()

	if a.config.Publisher != nil {
		a.config.Publisher.Publish(update)
	}
	if showChanged && a.config.Display != nil {
		a.config.Display.SetLastGesture(name)
	}
	if prev != result.Gesture && result.Gesture != gesture.Unset && a.config.Listener != nil {
		a.config.Listener.GestureChanged(frame, prev, result.Gesture, result.Control)
	}
	return update
}

// Stats returns the counters of the current session.
func (a *App) Stats() store.SessionStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.journal.stats
}
