package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/flappygym/internal/games/flappy"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEmbeddedMatchesDefault(t *testing.T) {
	var cfg Config
	require.NoError(t, yaml.Unmarshal(DefaultYAML(), &cfg))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadSearchOrder(t *testing.T) {
	dir := t.TempDir()
	user := writeFile(t, dir, "user.yaml", "field:\n  gap_height: 3\n")
	local := writeFile(t, dir, "local.yaml", "field:\n  gap_height: 5\n")
	missing := filepath.Join(dir, "missing.yaml")

	cfg, err := load("", user, local)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Field.GapHeight, "user file wins over local")

	cfg, err = load("", missing, local)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Field.GapHeight, "local file used when user file is missing")

	cfg, err = load("", missing, missing)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg, "embedded default used last")
}

func TestLoadSkipsBrokenSearchFiles(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.yaml", "field: [not a map\n")
	local := writeFile(t, dir, "local.yaml", "display:\n  tick_rate: 10\n")

	cfg, err := load("", broken, local)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Display.TickRate)
}

func TestLoadCustomPath(t *testing.T) {
	dir := t.TempDir()
	custom := writeFile(t, dir, "custom.yaml", "field:\n  width: 30\nphysics:\n  gravity: 1\n")

	cfg, err := Load(custom)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Field.Width)
	assert.Equal(t, 1, cfg.Physics.Gravity)
	// Keys missing from the file keep their defaults
	assert.Equal(t, 15, cfg.Field.Height)
	assert.Equal(t, flappy.DefaultFlapImpulse, cfg.Physics.FlapImpulse)
}

func TestLoadCustomPathErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	broken := writeFile(t, dir, "broken.yaml", "field: [not a map\n")
	_, err = Load(broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), broken)
}

func TestPresets(t *testing.T) {
	tests := []struct {
		preset DifficultyPreset
		gap    int
	}{
		{DifficultyEasy, 6},
		{DifficultyNormal, 4},
		{DifficultyHard, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, ApplyPreset(&cfg, tt.preset))
			assert.Equal(t, tt.gap, cfg.Field.GapHeight)
			assert.NoError(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	require.NoError(t, ApplyPreset(&cfg, ""))
	assert.Equal(t, DefaultConfig(), cfg)

	assert.Error(t, ApplyPreset(&cfg, "nightmare"))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Field.GapHeight = cfg.Field.Height - 1
	assert.ErrorIs(t, cfg.Validate(), flappy.ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Display.TickRate = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Episode.MaxSteps = -1
	assert.Error(t, cfg.Validate())
}

func TestRuntime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episode.MaxSteps = 500

	rt := cfg.Runtime(42)
	assert.Equal(t, 20, rt.ScreenW)
	assert.Equal(t, 15, rt.ScreenH)
	assert.Equal(t, 4, rt.GapHeight)
	assert.Equal(t, 2, rt.Gravity)
	assert.Equal(t, -1, rt.FlapImpulse)
	assert.Equal(t, 4, rt.TickRate)
	assert.Equal(t, 500, rt.MaxSteps)
	assert.Equal(t, int64(42), rt.Seed)
}
