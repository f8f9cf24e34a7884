// handrunner drives a side-scrolling platformer with hand gestures seen by a webcam.
//
// Usage:
//
//	handrunner play                  - Run the game with camera input
//	handrunner classify <file.json>  - Classify a recorded landmark stream
//	handrunner sessions              - List journaled play sessions
//	handrunner hooks                 - List installed gesture hooks
//	handrunner config                - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Config file (default: ~/.handrunner/config.yaml)
//	--log-level <level> - Override log.level
//	--db <path>         - Override store.path
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ayusman/handrunner/internal/config"
	"github.com/ayusman/handrunner/internal/logging"
	"github.com/ayusman/handrunner/internal/store"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
	flagDBPath   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "handrunner",
	Short: "Handrunner - play a platformer with your hands",
	Long: `Handrunner reads hand landmarks from a webcam, classifies the gesture
and turns the hand position into a control vector for a 2D platformer.

Available commands:
  play      - Run the game
  classify  - Classify a recorded landmark stream
  sessions  - Show journaled play sessions
  hooks     - List gesture hooks
  config    - Print the effective configuration

Examples:
  handrunner play
  handrunner play --replay run.json --duration 10s
  handrunner classify run.json
  handrunner sessions --limit 5`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to session database")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(hooksCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the configuration and applies the global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagDBPath != "" {
		cfg.Store.Path = flagDBPath
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*log.Logger, error) {
	return logging.New(cfg.Log.Level, "handrunner")
}

func openStore(cfg config.Config) (*store.Store, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	return st, nil
}
