package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/handrunner/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// seedSession creates an ended session with a few events.
func seedSession(t *testing.T, s *store.Store, id string, started time.Time) {
	t.Helper()

	sess := &store.Session{ID: id, StartedAt: started, ConfigSource: "embedded"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	events := []store.Event{
		{Kind: store.EventGesture, Frame: 1, Gesture: "Open Hand"},
		{Kind: store.EventGesture, Frame: 4, Gesture: "Thumbs Up", Previous: "Open Hand"},
		{Kind: store.EventRecenter, Frame: 4, Gesture: "Thumbs Up"},
		{Kind: store.EventNoHand, Frame: 9, ControlY: 1},
	}
	for i := range events {
		events[i].SessionID = id
		if err := s.Events().Create(&events[i]); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}
	}
	if err := s.Sessions().End(id, store.SessionStats{Frames: 10, NoHandFrames: 2, Recenters: 1}); err != nil {
		t.Fatalf("failed to end session: %v", err)
	}
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	now := time.Now()
	seedSession(t, s, "older", now.Add(-time.Hour))
	seedSession(t, s, "newer", now)

	t.Run("newest first", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response listSessionsResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(response.Sessions) != 2 {
			t.Fatalf("expected 2 sessions, got %d", len(response.Sessions))
		}
		if response.Sessions[0].ID != "newer" {
			t.Errorf("expected newest session first, got %s", response.Sessions[0].ID)
		}
		got := response.Sessions[0]
		if got.Frames != 10 || got.Recenters != 1 || got.EndedAt == "" {
			t.Errorf("unexpected session %+v", got)
		}
	})

	t.Run("limit", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions?limit=1")
		var response listSessionsResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if len(response.Sessions) != 1 {
			t.Errorf("expected 1 session, got %d", len(response.Sessions))
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions?limit=-3")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})
}

func TestSessionHandler_ListEmpty(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	rec := serve(handler, http.MethodGet, "/api/sessions")

	if body := rec.Body.String(); body != "{\"sessions\":[]}\n" {
		t.Errorf("expected empty list, got %q", body)
	}
}

func TestSessionHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	seedSession(t, s, "run-1", time.Now().Add(-90*time.Second))

	rec := serve(handler, http.MethodGet, "/api/sessions/run-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ID != "run-1" || response.ConfigSource != "embedded" {
		t.Errorf("unexpected session %+v", response)
	}
	if response.Duration == "" {
		t.Error("ended session should report a duration")
	}
}

func TestSessionHandler_Get_NotFound(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	rec := serve(handler, http.MethodGet, "/api/sessions/missing")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionHandler_Events(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	seedSession(t, s, "run-1", time.Now())

	rec := serve(handler, http.MethodGet, "/api/sessions/run-1/events")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response eventsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(response.Events))
	}
	if response.Events[1].Previous != "Open Hand" {
		t.Errorf("expected previous gesture to be kept, got %+v", response.Events[1])
	}
	if response.Counts[store.EventGesture] != 2 || response.Counts[store.EventRecenter] != 1 {
		t.Errorf("unexpected counts %v", response.Counts)
	}

	t.Run("limit", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions/run-1/events?limit=2")
		var response eventsResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if len(response.Events) != 2 {
			t.Errorf("expected 2 events, got %d", len(response.Events))
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions/missing/events")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestSessionHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	seedSession(t, s, "run-1", time.Now())

	rec := serve(handler, http.MethodDelete, "/api/sessions/run-1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	if _, err := s.Sessions().GetByID("run-1"); err == nil {
		t.Error("session should be gone")
	}
	events, _ := s.Events().ListBySession("run-1", 0)
	if len(events) != 0 {
		t.Errorf("expected events to be deleted, got %d", len(events))
	}

	rec = serve(handler, http.MethodDelete, "/api/sessions/run-1")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionHandler_Routing(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodPost, "/api/sessions", http.StatusMethodNotAllowed},
		{http.MethodPut, "/api/sessions/x", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/sessions/x/events", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/sessions/x/frames", http.StatusNotFound},
		{http.MethodGet, "/api/sessions/x/events/1", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := serve(handler, tt.method, tt.target)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
