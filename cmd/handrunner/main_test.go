package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/handrunner/internal/config"
	"github.com/ayusman/handrunner/internal/detector"
	"github.com/ayusman/handrunner/internal/recording"
	"github.com/ayusman/handrunner/internal/store"
)

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	flagConfig, flagLogLevel, flagDBPath = "", "", ""
	flagJSON, flagHandPolicy, flagRecenter = false, "", ""
	flagLimit, flagEventsLimit = 10, 50
	flagTray, flagHeadless, flagDuration = false, false, 0
	flagReplay, flagLoop, flagRecord, flagSeed = "", false, "", 0

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeConfig writes a config file that keeps the test away from the
// user's home directory.
func writeConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	path := filepath.Join(dir, "handrunner.yaml")
	body := "log:\n  level: error\nserver:\n  enabled: false\n" + extra
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func writeRecording(t *testing.T, dir string, frames ...[]detector.HandLandmarks) string {
	t.Helper()
	rec := &recording.Recording{Name: "demo", FPS: 30}
	for _, hands := range frames {
		rec.Frames = append(rec.Frames, recording.Frame{Hands: hands})
	}
	path := filepath.Join(dir, "demo.json")
	if err := rec.Save(path); err != nil {
		t.Fatalf("failed to save recording: %v", err)
	}
	return path
}

func hands(h ...detector.HandLandmarks) []detector.HandLandmarks { return h }

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "tracker:\n  recenter: wrist\n")
	dbPath := filepath.Join(dir, "sessions.db")

	out, err := execute(t, "config", "--config", cfgPath, "--db", dbPath, "--log-level", "debug")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}

	for _, want := range []string{
		"# source: " + cfgPath,
		"recenter: wrist",
		"level: debug",
		"path: " + dbPath,
		"enabled: false",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCommand_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"bad log level", []string{"config", "--config", writeConfig(t, dir, ""), "--log-level", "loud"}},
		{"missing config file", []string{"config", "--config", filepath.Join(dir, "missing.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestClassifyCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "")
	recPath := writeRecording(t, dir,
		hands(detector.OpenPalmLandmarks()),
		hands(detector.ThumbsUpLandmarks()),
		hands(detector.ThumbsUpLandmarks()),
		nil,
	)

	out, err := execute(t, "classify", recPath, "--config", cfgPath)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header, rule, four frames, blank line, summary, two gesture counts
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[2], "Open Hand") || strings.Contains(lines[2], "yes") {
		t.Errorf("frame 0 line = %q", lines[2])
	}
	if !strings.Contains(lines[3], "Thumbs Up") || !strings.HasSuffix(lines[3], "yes") {
		t.Errorf("frame 1 should recenter: %q", lines[3])
	}
	if strings.HasSuffix(lines[4], "yes") {
		t.Errorf("frame 2 should not recenter again: %q", lines[4])
	}
	if !strings.Contains(lines[5], "(no hand)") || !strings.Contains(lines[5], "1.0000") {
		t.Errorf("frame 3 should be the no-hand control: %q", lines[5])
	}
	if want := "demo: 4 frames, 1 without a hand, 0 invalid, 1 recenters"; lines[7] != want {
		t.Errorf("summary = %q, want %q", lines[7], want)
	}
	if !strings.Contains(out, "Thumbs Up       2") {
		t.Errorf("expected two thumbs up frames:\n%s", out)
	}
}

func TestClassifyCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "")
	bad := detector.OpenPalmLandmarks()
	bad.Points = bad.Points[:10]
	recPath := writeRecording(t, dir,
		hands(detector.FistLandmarks()),
		hands(bad),
		hands(detector.ThumbsUpLandmarks()),
	)

	out, err := execute(t, "classify", recPath, "--config", cfgPath, "--json")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	type line struct {
		Frame      int    `json:"frame"`
		Gesture    string `json:"gesture"`
		Recentered bool   `json:"recentered"`
		Error      string `json:"error"`
	}
	var got []line
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var l line
		if err := json.Unmarshal(sc.Bytes(), &l); err != nil {
			t.Fatalf("invalid JSON line %q: %v", sc.Text(), err)
		}
		got = append(got, l)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(got))
	}
	if got[0].Gesture != "Fist" || got[0].Error != "" {
		t.Errorf("frame 0 = %+v", got[0])
	}
	if got[1].Error == "" || got[1].Gesture != "Fist" {
		t.Errorf("malformed frame should report an error and keep the gesture: %+v", got[1])
	}
	// Fist -> Thumbs Up does not recenter
	if got[2].Gesture != "Thumbs Up" || got[2].Recentered {
		t.Errorf("frame 2 = %+v", got[2])
	}
}

func TestClassifyCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "")
	recPath := writeRecording(t, dir, hands(detector.FistLandmarks()))

	tests := []struct {
		name string
		args []string
	}{
		{"missing recording", []string{"classify", filepath.Join(dir, "nope.json"), "--config", cfgPath}},
		{"no argument", []string{"classify", "--config", cfgPath}},
		{"bad hand policy", []string{"classify", recPath, "--config", cfgPath, "--hand-policy", "middle"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSessionsCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "")
	dbPath := filepath.Join(dir, "sessions.db")

	out, err := execute(t, "sessions", "--config", cfgPath, "--db", dbPath)
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if !strings.Contains(out, "No sessions recorded yet.") {
		t.Errorf("unexpected output for empty store:\n%s", out)
	}

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	sess := &store.Session{StartedAt: time.Now().Add(-time.Minute), ConfigSource: cfgPath, HandPolicy: "last", Recenter: "none"}
	if err := st.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	events := []store.Event{
		{SessionID: sess.ID, Kind: store.EventGesture, Frame: 1, Gesture: "Open Hand"},
		{SessionID: sess.ID, Kind: store.EventGesture, Frame: 5, Gesture: "Thumbs Up", Previous: "Open Hand"},
		{SessionID: sess.ID, Kind: store.EventError, Frame: 7, Detail: "camera is not open"},
	}
	for i := range events {
		if err := st.Events().Create(&events[i]); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}
	}
	if err := st.Sessions().End(sess.ID, store.SessionStats{Frames: 12, NoHandFrames: 3, Recenters: 1}); err != nil {
		t.Fatalf("failed to end session: %v", err)
	}
	st.Close()

	t.Run("list", func(t *testing.T) {
		out, err := execute(t, "sessions", "--config", cfgPath, "--db", dbPath)
		if err != nil {
			t.Fatalf("sessions failed: %v", err)
		}
		if !strings.Contains(out, sess.ID) {
			t.Errorf("list missing session %s:\n%s", sess.ID, out)
		}
	})

	t.Run("show", func(t *testing.T) {
		out, err := execute(t, "sessions", sess.ID, "--config", cfgPath, "--db", dbPath)
		if err != nil {
			t.Fatalf("sessions %s failed: %v", sess.ID, err)
		}
		for _, want := range []string{
			"Frames:      12 (3 without a hand)",
			"hand_policy=last recenter=none",
			"Open Hand -> Thumbs Up",
			"camera is not open",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := execute(t, "sessions", "missing", "--config", cfgPath, "--db", dbPath); err == nil {
			t.Error("expected error for unknown session")
		}
	})
}

func TestHooksCommand(t *testing.T) {
	dir := t.TempDir()
	hooksDir := filepath.Join(dir, "hooks")
	cfgPath := writeConfig(t, dir, "hooks:\n  enabled: true\n  dir: "+hooksDir+"\n")

	out, err := execute(t, "hooks", "--config", cfgPath)
	if err != nil {
		t.Fatalf("hooks failed: %v", err)
	}
	if !strings.Contains(out, "No hooks in") {
		t.Errorf("unexpected output without hooks:\n%s", out)
	}

	hookDir := filepath.Join(hooksDir, "notify")
	if err := os.MkdirAll(hookDir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name": "notify", "version": "1.0.0", "executable": "notify", "gestures": ["Thumbs Up", "Rock & Roll"]}`
	if err := os.WriteFile(filepath.Join(hookDir, "hook.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	out, err = execute(t, "hooks", "--config", cfgPath)
	if err != nil {
		t.Fatalf("hooks failed: %v", err)
	}
	for _, want := range []string{"(enabled)", "notify", "1.0.0", "Thumbs Up, Rock & Roll"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPlayCommand_Replay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping game loop test in short mode")
	}

	dir := t.TempDir()
	// an enabled motion gate must not hold back replayed frames
	cfgPath := writeConfig(t, dir, "motion_gate:\n  enabled: true\n")
	dbPath := filepath.Join(dir, "sessions.db")
	recPath := writeRecording(t, dir,
		hands(detector.OpenPalmLandmarks()),
		hands(detector.ThumbsUpLandmarks()),
		hands(detector.FistLandmarks()),
	)
	outPath := filepath.Join(dir, "again.json")

	out, err := execute(t, "play", "--config", cfgPath, "--db", dbPath,
		"--replay", recPath, "--record", outPath, "--duration", "3s", "--seed", "7")
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if !strings.HasPrefix(out, "Session ") {
		t.Errorf("unexpected summary: %q", out)
	}

	again, err := recording.Load(outPath)
	if err != nil {
		t.Fatalf("recording not saved: %v", err)
	}
	if len(again.Frames) < 3 {
		t.Errorf("expected at least 3 recorded frames, got %d", len(again.Frames))
	}
	if len(again.Frames[1].Hands) != 1 {
		t.Errorf("frame 1 should hold the thumbs up hand, got %d hands", len(again.Frames[1].Hands))
	}

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()
	sessions, err := st.Sessions().List(0)
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].EndedAt == nil || sessions[0].Recenters != 1 {
		t.Errorf("unexpected sessions: %+v", sessions)
	}
}

func TestNewMotionGate(t *testing.T) {
	enabled := config.Default()
	enabled.Motion.Enabled = true

	tests := []struct {
		name     string
		cfg      config.Config
		blank    bool
		wantGate bool
	}{
		{"disabled", config.Default(), false, false},
		{"enabled with a real camera", enabled, false, true},
		{"enabled with a blank camera", enabled, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := newMotionGate(tt.cfg, tt.blank)
			if gate != nil {
				defer gate.Close()
			}
			if (gate != nil) != tt.wantGate {
				t.Errorf("newMotionGate() = %v, want gate %v", gate, tt.wantGate)
			}
		})
	}
}
