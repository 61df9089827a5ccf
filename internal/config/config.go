// Package config provides YAML-based configuration loading and difficulty
// presets for flappygym.
package config

import (
	"fmt"

	"github.com/vovakirdan/flappygym/internal/core"
	"github.com/vovakirdan/flappygym/internal/games/flappy"
)

// Config is the full flappygym configuration.
type Config struct {
	Field   FieldConfig   `yaml:"field"`
	Physics PhysicsConfig `yaml:"physics"`
	Episode EpisodeConfig `yaml:"episode"`
	Display DisplayConfig `yaml:"display"`
	Storage StorageConfig `yaml:"storage"`
	Rollout RolloutConfig `yaml:"rollout"`
}

// FieldConfig defines the playing field.
type FieldConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	GapHeight int `yaml:"gap_height"`
}

// PhysicsConfig defines the vertical motion of the player.
type PhysicsConfig struct {
	Gravity     int `yaml:"gravity"`
	FlapImpulse int `yaml:"flap_impulse"`
}

// EpisodeConfig defines episode limits.
type EpisodeConfig struct {
	MaxSteps int `yaml:"max_steps"` // 0 = unlimited
}

// DisplayConfig defines terminal playback.
type DisplayConfig struct {
	TickRate int `yaml:"tick_rate"` // Frames per second
}

// StorageConfig defines where scores are kept.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// RolloutConfig defines defaults for batch rollouts.
type RolloutConfig struct {
	Policy   string `yaml:"policy"`
	Episodes int    `yaml:"episodes"`
	Workers  int    `yaml:"workers"`
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// GapForPreset returns the gap height for a difficulty preset.
func GapForPreset(preset DifficultyPreset) (int, error) {
	switch preset {
	case DifficultyEasy:
		return 6, nil
	case DifficultyNormal:
		return 4, nil
	case DifficultyHard:
		return 2, nil
	default:
		return 0, fmt.Errorf("config: unknown difficulty %q (want easy, normal or hard)", preset)
	}
}

// ApplyPreset sets the gap height from a difficulty preset.
// An empty preset leaves the config untouched.
func ApplyPreset(cfg *Config, preset DifficultyPreset) error {
	if preset == "" {
		return nil
	}
	gap, err := GapForPreset(preset)
	if err != nil {
		return err
	}
	cfg.Field.GapHeight = gap
	return nil
}

// Validate checks that the field can be simulated and the rest is sane.
func (c Config) Validate() error {
	field := flappy.Config{
		ScreenWidth:  c.Field.Width,
		ScreenHeight: c.Field.Height,
		GapHeight:    c.Field.GapHeight,
	}
	if err := field.Validate(); err != nil {
		return err
	}
	if c.Display.TickRate <= 0 {
		return fmt.Errorf("config: tick_rate must be positive, got %d", c.Display.TickRate)
	}
	if c.Episode.MaxSteps < 0 {
		return fmt.Errorf("config: max_steps cannot be negative, got %d", c.Episode.MaxSteps)
	}
	return nil
}

// Runtime converts the configuration into the per-episode runtime settings.
func (c Config) Runtime(seed int64) core.RuntimeConfig {
	return core.RuntimeConfig{
		ScreenW:     c.Field.Width,
		ScreenH:     c.Field.Height,
		GapHeight:   c.Field.GapHeight,
		Gravity:     c.Physics.Gravity,
		FlapImpulse: c.Physics.FlapImpulse,
		TickRate:    c.Display.TickRate,
		MaxSteps:    c.Episode.MaxSteps,
		Seed:        seed,
	}
}
