// Package hook runs external programs when the player's gesture changes.
//
// A hook is a directory holding a hook.json manifest and an executable.
// The executable receives one JSON Request on stdin and answers with one
// JSON Response on stdout.
package hook

import (
	"encoding/json"
	"slices"
)

// Manifest describes a hook's metadata and the gestures it reacts to.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// Gestures lists the labels the hook is run for; empty means every gesture.
	Gestures []string        `json:"gestures,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Request is sent to a hook on stdin.
type Request struct {
	Event    string          `json:"event"`
	Gesture  string          `json:"gesture"`
	Previous string          `json:"previous"`
	Frame    int64           `json:"frame"`
	ControlX float64         `json:"control_x"`
	ControlY float64         `json:"control_y"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Response is read from a hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Accepts reports whether the hook wants to run for the gesture label.
func (h *Hook) Accepts(gesture string) bool {
	return len(h.Manifest.Gestures) == 0 || slices.Contains(h.Manifest.Gestures, gesture)
}
