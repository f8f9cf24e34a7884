package game

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Block is a static box spanning Min to Max.
type Block struct {
	Min Vec2 `yaml:"min"`
	Max Vec2 `yaml:"max"`
}

// Level is the static layout of a run.
type Level struct {
	Name    string  `yaml:"name"`
	Start   Vec2    `yaml:"start"`
	Blocks  []Block `yaml:"blocks"`
	Enemies []Vec2  `yaml:"enemies"`
}

// DefaultLevel is a single stretch of ground with one gap, one step and a
// wall at each end. The run heads toward negative x.
func DefaultLevel() Level {
	return Level{
		Name:  "1-1",
		Start: Vec2{X: -0.5, Y: 0.15},
		Blocks: []Block{
			{Min: Vec2{X: -5.5, Y: -0.5}, Max: Vec2{X: 1, Y: 0}},
			{Min: Vec2{X: -14, Y: -0.5}, Max: Vec2{X: -6, Y: 0}},
			{Min: Vec2{X: -3, Y: 0}, Max: Vec2{X: -2.5, Y: 0.3}},
			{Min: Vec2{X: 1, Y: 0}, Max: Vec2{X: 1.2, Y: 2}},
			{Min: Vec2{X: -14.2, Y: 0}, Max: Vec2{X: -14, Y: 2}},
		},
		Enemies: []Vec2{
			{X: -4, Y: 0.08},
			{X: -9, Y: 0.08},
		},
	}
}

// LoadLevel reads a level from a YAML file.
func LoadLevel(path string) (Level, error) {
	var lvl Level

	data, err := os.ReadFile(path)
	if err != nil {
		return lvl, fmt.Errorf("failed to read level %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &lvl); err != nil {
		return lvl, fmt.Errorf("failed to parse level %s: %w", path, err)
	}
	if err := lvl.Validate(); err != nil {
		return lvl, fmt.Errorf("level %s: %w", path, err)
	}
	return lvl, nil
}

// Validate rejects inverted blocks and levels without ground.
func (l Level) Validate() error {
	if len(l.Blocks) == 0 {
		return errors.New("level has no blocks")
	}
	for i, b := range l.Blocks {
		if b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y {
			return fmt.Errorf("block %d has non-positive size", i)
		}
	}
	return nil
}

func (b Block) body() *Body {
	return &Body{
		Position: Vec2{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2},
		Width:    b.Max.X - b.Min.X,
		Height:   b.Max.Y - b.Min.Y,
		Static:   true,
	}
}
