package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/handrunner/internal/capture"
	"github.com/ayusman/handrunner/internal/detector"
	"github.com/ayusman/handrunner/internal/game"
	"github.com/ayusman/handrunner/internal/gesture"
	"github.com/ayusman/handrunner/internal/logging"
	"github.com/ayusman/handrunner/internal/store"
)

type recordingPublisher struct {
	mu      sync.Mutex
	updates []Update
}

func (p *recordingPublisher) Publish(v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, v.(Update))
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.updates)
}

type recordingDisplay struct {
	mu    sync.Mutex
	names []string
}

func (d *recordingDisplay) SetLastGesture(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
}

type change struct {
	frame     int64
	prev, cur gesture.Gesture
}

type recordingListener struct {
	changes []change
}

func (l *recordingListener) GestureChanged(frame int64, prev, cur gesture.Gesture, control gesture.Vec2) {
	l.changes = append(l.changes, change{frame, prev, cur})
}

type fixture struct {
	app      *App
	det      *detector.MockDetector
	cam      *capture.MockCamera
	store    *store.Store
	pub      *recordingPublisher
	display  *recordingDisplay
	listener *recordingListener
}

func flatLevel() game.Level {
	return game.Level{
		Name:   "flat",
		Start:  game.Vec2{X: 0, Y: 0.15},
		Blocks: []game.Block{{Min: game.Vec2{X: -10, Y: -0.5}, Max: game.Vec2{X: 10, Y: 0}}},
	}
}

func newFixture(t *testing.T, withStore bool) *fixture {
	t.Helper()

	f := &fixture{
		det:     detector.NewMockDetector(),
		cam:     capture.NewBlankCamera(64, 48),
		pub:      &recordingPublisher{},
		display:  &recordingDisplay{},
		listener: &recordingListener{},
	}
	if withStore {
		s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("store.New() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		f.store = s
	}

	logger := logging.Discard()
	input := NewHandInput(InputConfig{
		Camera:   f.cam,
		Detector: f.det,
		Tracker:  gesture.NewTracker(gesture.Config{Anchor: gesture.DefaultAnchor, Logger: logger}),
		Logger:   logger,
	})
	if err := input.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { input.Close() })

	f.app = New(Config{
		Input:     input,
		Game:      game.New(game.DefaultConfig(), flatLevel(), nil),
		Store:     f.store,
		Publisher: f.pub,
		Display:   f.display,
		Listener:  f.listener,
		Session:   store.Session{ConfigSource: "test"},
		Logger:    logger,
	})
	return f
}

func TestApp_TickNoHand(t *testing.T) {
	f := newFixture(t, false)

	u := f.app.Tick(context.Background())

	if !u.Result.NoHand || u.Result.Control != gesture.NoHandControl {
		t.Errorf("Result = %+v, want no-hand sentinel", u.Result)
	}
	if u.Game.Tick != 1 || u.Frame != 1 {
		t.Errorf("Frame = %d, game tick = %d, want 1/1", u.Frame, u.Game.Tick)
	}
	if f.pub.count() != 1 {
		t.Errorf("published %d updates, want 1", f.pub.count())
	}
	if got := f.app.Stats().NoHandFrames; got != 1 {
		t.Errorf("NoHandFrames = %d, want 1", got)
	}
	if f.app.Snapshot().Frame != 1 {
		t.Error("Snapshot should hold the last update")
	}
}

func TestApp_HandDrivesPlayer(t *testing.T) {
	t.Run("raised hand jumps", func(t *testing.T) {
		f := newFixture(t, false)
		f.det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks().Translate(0, -0.5)})

		u := f.app.Tick(context.Background())

		if u.Result.Control.Y >= 0.4 {
			t.Fatalf("control %v should be above the jump threshold", u.Result.Control)
		}
		if u.Game.Player.Jumps != 1 {
			t.Errorf("Jumps = %d, want 1", u.Game.Player.Jumps)
		}
		if u.Result.Gesture != gesture.OpenHand || u.Game.Player.Gesture != gesture.OpenHand {
			t.Errorf("gesture = %v / %v, want Open Hand", u.Result.Gesture, u.Game.Player.Gesture)
		}
	})

	t.Run("hand to the side runs", func(t *testing.T) {
		f := newFixture(t, false)
		f.det.SetHands([]detector.HandLandmarks{detector.FistLandmarks().Translate(0.35, 0)})

		u := f.app.Tick(context.Background())

		want := u.Result.Control.X * game.DefaultPlayerConfig().RunSpeed
		if u.Result.Control.X <= 0.1 || u.Game.Player.Velocity.X != want || !u.Game.Player.Running {
			t.Errorf("control %v gave velocity %v running=%v", u.Result.Control, u.Game.Player.Velocity, u.Game.Player.Running)
		}
	})
}

func TestApp_JournalsGestures(t *testing.T) {
	f := newFixture(t, true)
	f.det.SetSequence([][]detector.HandLandmarks{
		{detector.OpenPalmLandmarks()},
		{detector.ThumbsUpLandmarks()},
		{detector.ThumbsUpLandmarks()},
		{detector.FistLandmarks()},
		{detector.ThumbsUpLandmarks()},
		{},
	})

	if err := f.app.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	id := f.app.SessionID()

	var recentered []int64
	for i := 0; i < 6; i++ {
		u := f.app.Tick(context.Background())
		if u.Result.Recentered {
			recentered = append(recentered, u.Frame)
		}
	}
	f.app.End()

	if len(recentered) != 1 || recentered[0] != 2 {
		t.Errorf("recentered on frames %v, want [2]", recentered)
	}

	counts, err := f.store.Events().CountByKind(id)
	if err != nil {
		t.Fatalf("CountByKind() error = %v", err)
	}
	want := map[store.EventKind]int{store.EventGesture: 4, store.EventRecenter: 1, store.EventNoHand: 1}
	for k, n := range want {
		if counts[k] != n {
			t.Errorf("%s events = %d, want %d", k, counts[k], n)
		}
	}

	sess, err := f.store.Sessions().GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if sess.EndedAt == nil || sess.Frames != 6 || sess.Recenters != 1 || sess.NoHandFrames != 1 {
		t.Errorf("session = %+v", sess)
	}
	if sess.ConfigSource != "test" {
		t.Errorf("ConfigSource = %q, want test", sess.ConfigSource)
	}

	wantNames := []string{"Open Hand", "Thumbs Up", "Fist", "Thumbs Up"}
	if strings.Join(f.display.names, ",") != strings.Join(wantNames, ",") {
		t.Errorf("display showed %v, want %v", f.display.names, wantNames)
	}

	wantChanges := []change{
		{1, gesture.Unset, gesture.OpenHand},
		{2, gesture.OpenHand, gesture.ThumbsUp},
		{4, gesture.ThumbsUp, gesture.Fist},
		{5, gesture.Fist, gesture.ThumbsUp},
	}
	if len(f.listener.changes) != len(wantChanges) {
		t.Fatalf("listener saw %v, want %v", f.listener.changes, wantChanges)
	}
	for i, c := range wantChanges {
		if f.listener.changes[i] != c {
			t.Errorf("change %d = %v, want %v", i, f.listener.changes[i], c)
		}
	}
}

func TestApp_InputErrorsDegrade(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*detector.MockDetector)
		want  string
	}{
		{
			name:  "detector failure",
			setup: func(d *detector.MockDetector) { d.SetError(errors.New("pipe closed")) },
			want:  "pipe closed",
		},
		{
			name: "malformed hand",
			setup: func(d *detector.MockDetector) {
				d.SetHands([]detector.HandLandmarks{{Points: make([]detector.Point3D, 10)}})
			},
			want: "invalid landmark count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			tt.setup(f.det)
			if err := f.app.Begin(); err != nil {
				t.Fatalf("Begin() error = %v", err)
			}

			u := f.app.Tick(context.Background())

			if !strings.Contains(u.Error, tt.want) {
				t.Errorf("Error = %q, want it to mention %q", u.Error, tt.want)
			}
			if u.Result.Control != gesture.NoHandControl {
				t.Errorf("Control = %v, want sentinel", u.Result.Control)
			}
			if u.Game.Tick != 1 {
				t.Error("the game should keep running")
			}

			counts, err := f.store.Events().CountByKind(f.app.SessionID())
			if err != nil {
				t.Fatalf("CountByKind() error = %v", err)
			}
			if counts[store.EventError] != 1 {
				t.Errorf("error events = %d, want 1", counts[store.EventError])
			}
		})
	}
}

func TestApp_Disabled(t *testing.T) {
	f := newFixture(t, true)
	f.det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	f.app.SetEnabled(false)
	u := f.app.Tick(context.Background())

	if f.det.Calls() != 0 {
		t.Errorf("detector called %d times while disabled", f.det.Calls())
	}
	if u.HandControl || !u.Result.NoHand {
		t.Errorf("update = %+v, want hand control off", u)
	}

	again := New(Config{
		Input:  f.app.input,
		Game:   game.New(game.DefaultConfig(), flatLevel(), nil),
		Store:  f.store,
		Logger: logging.Discard(),
	})
	if again.IsEnabled() {
		t.Error("disabled hand control should persist")
	}
}

func TestApp_PressKey(t *testing.T) {
	f := newFixture(t, false)

	if !f.app.PressKey(game.KeyA) {
		t.Fatal("PressKey() should queue")
	}
	u := f.app.Tick(context.Background())

	if u.Game.Player.Velocity.X != 8 {
		t.Errorf("Velocity.X = %f, want 8", u.Game.Player.Velocity.X)
	}

	for i := 0; i < 32; i++ {
		f.app.PressKey(game.KeySpace)
	}
	if f.app.PressKey(game.KeySpace) {
		t.Error("full key queue should drop")
	}
}

func TestApp_ResetTracker(t *testing.T) {
	f := newFixture(t, false)
	f.det.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})
	f.app.Tick(context.Background())

	f.app.ResetTracker()

	if s := f.app.input.Tracker().State(); s.Current != gesture.Unset || s.Last != gesture.Unset {
		t.Errorf("state after reset = %+v", s)
	}
}

func TestApp_Run(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.PeaceLandmarks()})
	cam := capture.NewBlankCamera(64, 48)
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	a := New(Config{
		Input:  NewHandInput(InputConfig{Camera: cam, Detector: det, Logger: logging.Discard()}),
		Game:   game.New(game.DefaultConfig(), flatLevel(), nil),
		Store:  s,
		Tick:   5 * time.Millisecond,
		Logger: logging.Discard(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if cam.IsOpen() || !det.Closed() {
		t.Error("Run should release the camera and detector")
	}
	if a.Snapshot().Result.Gesture != gesture.Peace {
		t.Errorf("last gesture = %v, want Peace", a.Snapshot().Result.Gesture)
	}

	sessions, err := s.Sessions().List(0)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("List() = %v, %v", sessions, err)
	}
	if sessions[0].EndedAt == nil || sessions[0].Frames == 0 {
		t.Errorf("session not closed: %+v", sessions[0])
	}
}
