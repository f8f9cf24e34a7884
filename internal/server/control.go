package server

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/handrunner/internal/game"
)

type controlRequest struct {
	HandControl *bool `json:"hand_control"`
}

type keyRequest struct {
	Key string `json:"key"`
}

// handleState handles GET /api/state with the latest tick update.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.config.Controller.Snapshot())
}

// handleControl reads (GET) or sets (PUT) whether hand control is on.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	ctl := s.config.Controller

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut, http.MethodPost:
		var req controlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.HandControl == nil {
			writeError(w, http.StatusBadRequest, "hand_control is required")
			return
		}
		ctl.SetEnabled(*req.HandControl)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"hand_control": ctl.IsEnabled()})
}

// handleKey handles POST /api/keys, the keyboard fallback.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if status, msg := pressKey(s.config.Controller, req.Key); status != http.StatusAccepted {
		writeError(w, status, msg)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// pressKey queues a named key and returns the HTTP status describing the outcome.
func pressKey(ctl Controller, name string) (int, string) {
	k, ok := game.ParseKey(name)
	if !ok {
		return http.StatusBadRequest, "unknown key " + name
	}
	if !ctl.PressKey(k) {
		return http.StatusTooManyRequests, "key queue full"
	}
	return http.StatusAccepted, ""
}

// handleResetTracker handles POST /api/tracker/reset.
func (s *Server) handleResetTracker(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.config.Controller.ResetTracker()
	w.WriteHeader(http.StatusNoContent)
}
