package recording

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/handrunner/internal/detector"
)

func sample() *Recording {
	return &Recording{
		Name: "sample",
		FPS:  30,
		Frames: []Frame{
			{Hands: []detector.HandLandmarks{detector.OpenPalmLandmarks()}},
			{Hands: []detector.HandLandmarks{detector.ThumbsUpLandmarks(), detector.FistLandmarks()}},
			{},
		},
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.json")
	if err := sample().Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec.Name != "sample" || rec.FPS != 30 || len(rec.Frames) != 3 {
		t.Fatalf("loaded %s fps=%d frames=%d", rec.Name, rec.FPS, len(rec.Frames))
	}
	hands := rec.Hands()
	if len(hands[1]) != 2 || len(hands[2]) != 0 {
		t.Errorf("hands per frame = %d, %d", len(hands[1]), len(hands[2]))
	}
	want := detector.ThumbsUpLandmarks().Points[detector.ThumbTip]
	if got := hands[1][0].Points[detector.ThumbTip]; got != want {
		t.Errorf("thumb tip = %v, want %v", got, want)
	}
}

func TestDecode(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		rec, err := Decode(strings.NewReader(`[{"hands": []}, {"hands": []}]`))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if len(rec.Frames) != 2 {
			t.Errorf("expected 2 frames, got %d", len(rec.Frames))
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := Decode(strings.NewReader(`{"frames": []}`)); !errors.Is(err, ErrEmpty) {
			t.Errorf("expected ErrEmpty, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := Decode(strings.NewReader(`hands!`)); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("name defaults to path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "unnamed.json")
		rec := sample()
		rec.Name = ""
		rec.Save(path)

		loaded, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if loaded.Name != path {
			t.Errorf("Name = %q, want %q", loaded.Name, path)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestEncode_Indented(t *testing.T) {
	var buf bytes.Buffer
	if err := sample().Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"frames\"") {
		t.Error("expected indented output")
	}
}

func TestReplayer(t *testing.T) {
	t.Run("once", func(t *testing.T) {
		p := NewReplayer(sample(), false)

		counts := []int{}
		for i := 0; i < 5; i++ {
			hands, err := p.Detect(nil)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			counts = append(counts, len(hands))
		}
		if want := []int{1, 2, 0, 0, 0}; !equal(counts, want) {
			t.Errorf("hands per call = %v, want %v", counts, want)
		}
		if !p.Done() {
			t.Error("expected replay to be done")
		}
	})

	t.Run("loop", func(t *testing.T) {
		p := NewReplayer(sample(), true)

		counts := []int{}
		for i := 0; i < 5; i++ {
			hands, _ := p.Detect(nil)
			counts = append(counts, len(hands))
		}
		if want := []int{1, 2, 0, 1, 2}; !equal(counts, want) {
			t.Errorf("hands per call = %v, want %v", counts, want)
		}
		if p.Done() {
			t.Error("looping replay is never done")
		}
	})

	t.Run("results are copies", func(t *testing.T) {
		rec := sample()
		p := NewReplayer(rec, true)
		hands, _ := p.Detect(nil)
		hands[0].Points[0].X = 99

		if rec.Frames[0].Hands[0].Points[0].X == 99 {
			t.Error("Detect must not hand out the recording's own landmarks")
		}
	})
}

func TestRecorder(t *testing.T) {
	mock := detector.NewMockDetector()
	mock.SetSequence([][]detector.HandLandmarks{
		{detector.PeaceLandmarks()},
		{},
	})
	r := NewRecorder(mock)

	r.Detect(nil)
	r.Detect(nil)
	mock.SetError(errors.New("camera unplugged"))
	if _, err := r.Detect(nil); err == nil {
		t.Fatal("expected the detector error")
	}

	rec := r.Recording("live", 30)
	if len(rec.Frames) != 2 {
		t.Fatalf("expected 2 recorded frames, got %d", len(rec.Frames))
	}
	if len(rec.Frames[0].Hands) != 1 || len(rec.Frames[1].Hands) != 0 {
		t.Errorf("recorded %+v", rec.Frames)
	}

	if err := r.Close(); err != nil || !mock.Closed() {
		t.Error("Close should reach the wrapped detector")
	}
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
