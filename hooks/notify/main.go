// Command notify is a handrunner hook that shows a desktop notification
// when the player's gesture changes.
//
// Build it into its hook directory:
//
//	go build -o hooks/notify/notify ./hooks/notify
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Request is the hook input read from stdin.
type Request struct {
	Event    string          `json:"event"`
	Gesture  string          `json:"gesture"`
	Previous string          `json:"previous"`
	Frame    int64           `json:"frame"`
	Config   json.RawMessage `json:"config"`
}

// Response is the hook output written to stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Settings come from the "config" field of hook.json.
type Settings struct {
	Title string `json:"title"`
	// DryRun prints the notification instead of showing it.
	DryRun bool `json:"dry_run"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("decode request: %w", err))
		return
	}

	settings := Settings{Title: "Handrunner"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &settings); err != nil {
			writeResponse(fmt.Errorf("decode config: %w", err))
			return
		}
	}

	writeResponse(notify(settings, message(req)))
}

func message(req Request) string {
	if req.Previous == "" {
		return req.Gesture
	}
	return fmt.Sprintf("%s → %s", req.Previous, req.Gesture)
}

func notify(s Settings, msg string) error {
	if s.DryRun {
		fmt.Fprintf(os.Stderr, "%s: %s\n", s.Title, msg)
		return nil
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("osascript", "-e", fmt.Sprintf("display notification %q with title %q", msg, s.Title))
	case "linux":
		cmd = exec.Command("notify-send", s.Title, msg)
	default:
		return fmt.Errorf("notifications are not supported on %s", runtime.GOOS)
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
