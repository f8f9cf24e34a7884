// Package config loads handrunner settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ayusman/handrunner/internal/capture"
	"github.com/ayusman/handrunner/internal/detector"
	"github.com/ayusman/handrunner/internal/game"
	"github.com/ayusman/handrunner/internal/gesture"
	"github.com/ayusman/handrunner/internal/hook"
	"github.com/ayusman/handrunner/internal/logging"
)

// Config is the complete runtime configuration.
type Config struct {
	Camera   capture.Config     `yaml:"camera"`
	Motion   capture.GateConfig `yaml:"motion_gate"`
	Detector detector.Config    `yaml:"detector"`
	Tracker  TrackerConfig      `yaml:"tracker"`
	Player   game.PlayerConfig  `yaml:"player"`
	Enemy    game.EnemyConfig   `yaml:"enemy"`
	World    game.WorldConfig   `yaml:"world"`
	Server   ServerConfig       `yaml:"server"`
	Store    StoreConfig        `yaml:"store"`
	Hooks    HooksConfig        `yaml:"hooks"`
	Log      LogConfig          `yaml:"log"`

	// Source is the file the configuration came from, or "embedded".
	Source string `yaml:"-"`
}

// TrackerConfig selects the gesture tracker behavior.
type TrackerConfig struct {
	Anchor gesture.Vec2 `yaml:"anchor"`
	// Recenter is "none" (log only) or "wrist".
	Recenter   string `yaml:"recenter"`
	HandPolicy string `yaml:"hand_policy"`
}

// ServerConfig configures the debug dashboard.
type ServerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// StoreConfig locates the gesture journal.
type StoreConfig struct {
	// Path of the sqlite database; empty means ~/.handrunner/handrunner.db.
	Path string `yaml:"path"`
}

// HooksConfig configures the external programs run on gesture changes.
type HooksConfig struct {
	Enabled bool `yaml:"enabled"`
	// Dir holds one subdirectory per hook; empty means ~/.handrunner/hooks.
	Dir       string        `yaml:"dir"`
	Timeout   time.Duration `yaml:"timeout"`
	QueueSize int           `yaml:"queue_size"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Camera:   capture.DefaultConfig(),
		Motion:   capture.DefaultGateConfig(),
		Detector: detector.DefaultConfig(),
		Tracker: TrackerConfig{
			Anchor:     gesture.DefaultAnchor,
			Recenter:   "none",
			HandPolicy: "last",
		},
		Player: game.DefaultPlayerConfig(),
		Enemy:  game.DefaultEnemyConfig(),
		World:  game.DefaultWorldConfig(),
		Server: ServerConfig{
			Enabled: true,
			Addr:    ":8080",
		},
		Hooks: HooksConfig{
			Timeout:   hook.DefaultTimeout,
			QueueSize: hook.DefaultQueueSize,
		},
		Log:    LogConfig{Level: logging.DefaultLevel},
		Source: "default",
	}
}

// Validate rejects settings the runtime cannot work with.
func (c Config) Validate() error {
	var errs []error

	if err := c.Detector.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Tracker.Build(nil); err != nil {
		errs = append(errs, err)
	}
	if c.Player.DeadZone < 0 || c.Player.DeadZone >= 1 {
		errs = append(errs, fmt.Errorf("player.dead_zone must be within [0, 1), got %g", c.Player.DeadZone))
	}
	if c.Player.MaxJumps < 0 {
		errs = append(errs, fmt.Errorf("player.max_jumps must not be negative, got %d", c.Player.MaxJumps))
	}
	if c.Player.Width <= 0 || c.Player.Height <= 0 || c.Enemy.Size <= 0 {
		errs = append(errs, errors.New("body sizes must be positive"))
	}
	if c.Player.Camera.MinX > c.Player.Camera.MaxX {
		errs = append(errs, errors.New("player.camera.min_x exceeds max_x"))
	}
	if c.World.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("world.tick_rate must be positive, got %d", c.World.TickRate))
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required when the server is enabled"))
	}
	if c.Hooks.Timeout < 0 || c.Hooks.QueueSize < 0 {
		errs = append(errs, errors.New("hooks.timeout and hooks.queue_size must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Build turns the tracker section into a gesture.Config.
func (t TrackerConfig) Build(logger *log.Logger) (gesture.Config, error) {
	cfg := gesture.Config{Anchor: t.Anchor, Logger: logger}

	policy, err := gesture.ParseHandPolicy(t.HandPolicy)
	if err != nil {
		return cfg, fmt.Errorf("tracker.hand_policy: %w", err)
	}
	cfg.HandPolicy = policy

	switch t.Recenter {
	case "", "none", "log":
	case "wrist":
		cfg.Recenter = gesture.RecenterToWrist
	default:
		return cfg, fmt.Errorf("tracker.recenter: unknown mode %q", t.Recenter)
	}
	return cfg, nil
}

// DataDir returns ~/.handrunner, creating it if needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot get home directory: %w", err)
	}
	dir := filepath.Join(home, ".handrunner")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

// StorePath resolves the database location.
func (c Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "handrunner.db"), nil
}

// HooksDir resolves the hook directory.
func (c Config) HooksDir() (string, error) {
	if c.Hooks.Dir != "" {
		return c.Hooks.Dir, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hooks"), nil
}
