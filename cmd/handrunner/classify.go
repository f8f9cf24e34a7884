package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/handrunner/internal/gesture"
	"github.com/ayusman/handrunner/internal/logging"
	"github.com/ayusman/handrunner/internal/recording"
)

var (
	flagJSON       bool
	flagHandPolicy string
	flagRecenter   string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <recording.json>",
	Short: "Classify a recorded landmark stream",
	Long: `Run every frame of a recording through a fresh gesture tracker and print
the gesture and control vector of each frame, followed by a summary.

The tracker settings come from the configuration; --hand-policy and
--recenter override them.

Examples:
  handrunner classify run.json
  handrunner classify run.json --json
  handrunner classify run.json --hand-policy first`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&flagJSON, "json", false, "Print one JSON object per frame")
	classifyCmd.Flags().StringVar(&flagHandPolicy, "hand-policy", "", "Override tracker.hand_policy (last, first)")
	classifyCmd.Flags().StringVar(&flagRecenter, "recenter", "", "Override tracker.recenter (none, wrist)")
}

// classifiedFrame is one line of --json output.
type classifiedFrame struct {
	Frame int `json:"frame"`
	gesture.FrameResult
	Error string `json:"error,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagHandPolicy != "" {
		cfg.Tracker.HandPolicy = flagHandPolicy
	}
	if flagRecenter != "" {
		cfg.Tracker.Recenter = flagRecenter
	}

	// results go to stdout, so tracker logs are kept off it
	logger, err := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, "tracker")
	if err != nil {
		return err
	}
	trackerCfg, err := cfg.Tracker.Build(logger)
	if err != nil {
		return err
	}
	tracker := gesture.NewTracker(trackerCfg)

	rec, err := recording.Load(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	if !flagJSON {
		fmt.Fprintf(out, "%-6s  %-5s  %-14s  %9s  %9s  %s\n", "Frame", "Hands", "Gesture", "Control X", "Control Y", "Recenter")
		fmt.Fprintf(out, "%-6s  %-5s  %-14s  %9s  %9s  %s\n", "-----", "-----", "-------", "---------", "---------", "--------")
	}

	counts := make(map[gesture.Gesture]int)
	var noHand, recenters, invalid int
	for i, hands := range rec.Hands() {
		res, err := tracker.ProcessFrame(hands)

		if flagJSON {
			line := classifiedFrame{Frame: i, FrameResult: res}
			if err != nil {
				line.Error = err.Error()
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		} else if err != nil {
			fmt.Fprintf(out, "%-6d  %-5d  invalid: %v\n", i, len(hands), err)
		} else {
			mark := ""
			if res.Recentered {
				mark = "yes"
			}
			fmt.Fprintf(out, "%-6d  %-5d  %-14s  %9.4f  %9.4f  %s\n",
				i, len(hands), gestureLabel(res), res.Control.X, res.Control.Y, mark)
		}

		switch {
		case err != nil:
			invalid++
		case res.NoHand:
			noHand++
		default:
			counts[res.Gesture]++
		}
		if res.Recentered {
			recenters++
		}
	}

	if flagJSON {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s: %d frames, %d without a hand, %d invalid, %d recenters\n",
		rec.Name, len(rec.Frames), noHand, invalid, recenters)
	for _, g := range gesture.Gestures {
		if n := counts[g]; n > 0 {
			fmt.Fprintf(out, "  %-14s  %d\n", g, n)
		}
	}
	return nil
}

func gestureLabel(res gesture.FrameResult) string {
	if res.NoHand {
		return "(no hand)"
	}
	if res.Gesture == gesture.Unset {
		return "-"
	}
	return res.Gesture.String()
}
