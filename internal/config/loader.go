package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/handrunner.yaml
var defaultYAML []byte

// FileName is the config file looked up in the search directories.
const FileName = "handrunner.yaml"

// Load reads the configuration.
// Search order: customPath -> ~/.handrunner/config.yaml -> ./configs/handrunner.yaml -> embedded default.
// Files are layered over the defaults, so they only need the keys they change.
// A custom path that cannot be read or parsed is an error; the other
// locations are skipped when missing or broken.
func Load(customPath string) (Config, error) {
	base := Default()
	if err := yaml.Unmarshal(defaultYAML, &base); err != nil {
		base = Default()
	}
	base.Source = "embedded"

	if customPath != "" {
		cfg, err := loadFile(customPath, base)
		if err != nil {
			return cfg, err
		}
		return cfg, cfg.Validate()
	}

	candidates := []string{filepath.Join("configs", FileName)}
	if p := userConfigPath(); p != "" {
		candidates = append([]string{p}, candidates...)
	}
	for _, path := range candidates {
		if cfg, err := loadFile(path, base); err == nil {
			return cfg, cfg.Validate()
		}
	}

	return base, base.Validate()
}

func loadFile(path string, base Config) (Config, error) {
	cfg := base
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// userConfigPath returns ~/.handrunner/config.yaml, or empty if home is unavailable.
func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".handrunner", "config.yaml")
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
