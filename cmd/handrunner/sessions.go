package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/handrunner/internal/store"
)

var (
	flagLimit       int
	flagEventsLimit int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions [id]",
	Short: "Show journaled play sessions",
	Long: `Without an argument, list the most recent play sessions. With a session
ID, show that session and its gesture journal.

Examples:
  handrunner sessions
  handrunner sessions --limit 5
  handrunner sessions 3f0c9a52-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of sessions to list (0 = all)")
	sessionsCmd.Flags().IntVar(&flagEventsLimit, "events", 50, "Number of journal events to show for a session")
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 1 {
		return showSession(cmd, st, args[0])
	}

	sessions, err := st.Sessions().List(flagLimit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded yet.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'handrunner play' to start one.")
		return nil
	}

	fmt.Fprintf(out, "  %-36s  %-16s  %8s  %8s  %s\n", "ID", "Started", "Frames", "No hand", "Recenters")
	fmt.Fprintf(out, "  %-36s  %-16s  %8s  %8s  %s\n", "--", "-------", "------", "-------", "---------")
	for _, s := range sessions {
		fmt.Fprintf(out, "  %-36s  %-16s  %8d  %8d  %d\n",
			s.ID, s.StartedAt.Local().Format("2006-01-02 15:04"), s.Frames, s.NoHandFrames, s.Recenters)
	}
	return nil
}

func showSession(cmd *cobra.Command, st *store.Store, id string) error {
	sess, err := st.Sessions().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("unknown session %q", id)
	}
	if err != nil {
		return err
	}

	events, err := st.Events().ListBySession(id, flagEventsLimit)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s\n", sess.ID)
	fmt.Fprintf(out, "  Started:     %s\n", sess.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if sess.EndedAt != nil {
		fmt.Fprintf(out, "  Ended:       %s (%s)\n",
			sess.EndedAt.Local().Format("2006-01-02 15:04:05"), sess.EndedAt.Sub(sess.StartedAt).Round(time.Second))
	} else {
		fmt.Fprintln(out, "  Ended:       -")
	}
	fmt.Fprintf(out, "  Config:      %s\n", sess.ConfigSource)
	fmt.Fprintf(out, "  Tracker:     hand_policy=%s recenter=%s\n", sess.HandPolicy, sess.Recenter)
	fmt.Fprintf(out, "  Frames:      %d (%d without a hand)\n", sess.Frames, sess.NoHandFrames)
	fmt.Fprintf(out, "  Recenters:   %d\n", sess.Recenters)
	fmt.Fprintln(out)

	if len(events) == 0 {
		fmt.Fprintln(out, "No events.")
		return nil
	}
	fmt.Fprintf(out, "  %-8s  %-8s  %-26s  %s\n", "Frame", "Kind", "Gesture", "Control")
	fmt.Fprintf(out, "  %-8s  %-8s  %-26s  %s\n", "-----", "----", "-------", "-------")
	for _, e := range events {
		what := e.Gesture
		if e.Previous != "" {
			what = e.Previous + " -> " + e.Gesture
		}
		if e.Kind == store.EventError {
			what = e.Detail
		}
		fmt.Fprintf(out, "  %-8d  %-8s  %-26s  (%.3f, %.3f)\n", e.Frame, e.Kind, what, e.ControlX, e.ControlY)
	}
	return nil
}
