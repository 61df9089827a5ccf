package config

import (
	_ "embed"

	"github.com/vovakirdan/flappygym/internal/games/flappy"
)

//go:embed defaults/flappy.yaml
var defaultYAML []byte

// DefaultConfig returns the hard-coded configuration, matching the embedded
// defaults/flappy.yaml.
func DefaultConfig() Config {
	return Config{
		Field: FieldConfig{
			Width:     20,
			Height:    15,
			GapHeight: 4,
		},
		Physics: PhysicsConfig{
			Gravity:     flappy.DefaultGravity,
			FlapImpulse: flappy.DefaultFlapImpulse,
		},
		Display: DisplayConfig{
			TickRate: 4,
		},
		Storage: StorageConfig{
			DBPath: "~/.flappygym/scores.db",
		},
		Rollout: RolloutConfig{
			Policy:   "seeker",
			Episodes: 100,
			Workers:  4,
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
