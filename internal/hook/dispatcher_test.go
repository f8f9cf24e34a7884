package hook

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/handrunner/internal/gesture"
	"github.com/ayusman/handrunner/internal/logging"
)

func TestDispatcher_RunsMatchingHooks(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "calls.log")
	record := "INPUT=$(cat)\necho \"$(basename $(pwd)) $INPUT\" >> " + out + "\necho '{\"success\":true}'\n"
	writeHook(t, dir, "all", record)
	writeHook(t, dir, "thumbs", record, "Thumbs Up")
	writeHook(t, dir, "sulky", "cat >/dev/null\necho '{\"success\":false,\"error\":\"no\"}'\n", "Fist")

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	d := NewDispatcher(m, NewExecutor(5*time.Second), 0, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.GestureChanged(3, gesture.OpenHand, gesture.ThumbsUp, gesture.Vec2{X: 0.1, Y: 0.2})
	d.GestureChanged(9, gesture.ThumbsUp, gesture.Fist, gesture.Vec2{})

	deadline := time.Now().Add(10 * time.Second)
	for {
		ran, _, _ := d.Stats()
		if ran == 4 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("hooks ran %d times, want 4", ran)
		}
		time.Sleep(10 * time.Millisecond)
	}

	ran, failed, dropped := d.Stats()
	if ran != 4 || failed != 1 || dropped != 0 {
		t.Errorf("Stats() = %d, %d, %d, want 4, 1, 0", ran, failed, dropped)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read call log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 recorded calls, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "all ") || !strings.Contains(lines[0], `"gesture":"Thumbs Up"`) {
		t.Errorf("first call = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "thumbs ") || !strings.Contains(lines[1], `"previous":"Open Hand"`) {
		t.Errorf("second call = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "all ") || !strings.Contains(lines[2], `"frame":9`) {
		t.Errorf("third call = %q", lines[2])
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(NewManager(t.TempDir()), NewExecutor(0), 2, logging.Discard())

	for i := 0; i < 5; i++ {
		d.GestureChanged(int64(i), gesture.Unset, gesture.Peace, gesture.Vec2{})
	}

	if _, _, dropped := d.Stats(); dropped != 3 {
		t.Errorf("dropped = %d, want 3", dropped)
	}
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	d := NewDispatcher(NewManager(t.TempDir()), NewExecutor(0), 0, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
