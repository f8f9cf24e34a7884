package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/handrunner/internal/hook"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "List gesture hooks",
	Long: `Show the hooks found in the hook directory (hooks.dir, default
~/.handrunner/hooks). Each hook is a subdirectory holding a hook.json
manifest and an executable that receives gesture changes on stdin.`,
	Args: cobra.NoArgs,
	RunE: runHooks,
}

func runHooks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir, err := cfg.HooksDir()
	if err != nil {
		return err
	}

	m := hook.NewManager(dir)
	if err := m.Discover(); err != nil {
		return fmt.Errorf("discover hooks: %w", err)
	}

	out := cmd.OutOrStdout()
	hooks := m.List()
	if len(hooks) == 0 {
		fmt.Fprintf(out, "No hooks in %s.\n", dir)
		return nil
	}

	state := "disabled"
	if cfg.Hooks.Enabled {
		state = "enabled"
	}
	fmt.Fprintf(out, "Hooks in %s (%s):\n", dir, state)
	fmt.Fprintln(out)

	maxName := len("Name")
	for _, h := range hooks {
		maxName = max(maxName, len(h.Manifest.Name))
	}
	fmt.Fprintf(out, "  %-*s  %-8s  %s\n", maxName, "Name", "Version", "Gestures")
	fmt.Fprintf(out, "  %-*s  %-8s  %s\n", maxName, "----", "-------", "--------")
	for _, h := range hooks {
		gestures := "all"
		if len(h.Manifest.Gestures) > 0 {
			gestures = strings.Join(h.Manifest.Gestures, ", ")
		}
		fmt.Fprintf(out, "  %-*s  %-8s  %s\n", maxName, h.Manifest.Name, h.Manifest.Version, gestures)
	}
	return nil
}
