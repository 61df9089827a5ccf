// Package env wraps the flappy simulator in step/reset environments.
// Two observation encodings are registered: "screen" yields the whole field
// as a grid of cell codes, "simple" yields the distance to the next gap.
// Every step earns a constant reward of 1 while the episode runs.
package env

import (
	"errors"

	"github.com/vovakirdan/flappygym/internal/core"
	"github.com/vovakirdan/flappygym/internal/games/flappy"
	"github.com/vovakirdan/flappygym/internal/registry"
)

// StepReward is the reward for every step taken.
const StepReward = 1.0

var (
	// ErrNotReset is returned when stepping an environment that was never reset.
	ErrNotReset = errors.New("env: step before reset")

	// ErrEpisodeOver is returned when stepping after the episode ended.
	ErrEpisodeOver = errors.New("env: step after episode end")
)

// episode holds the per-episode bookkeeping shared by both environments.
type episode struct {
	sim       *flappy.Simulator
	cfg       core.RuntimeConfig
	steps     int
	truncated bool
}

// reset builds a fresh simulator seeded with cfg.Seed. Zero gravity together
// with a zero flap impulse means the physics were left unset.
func (e *episode) reset(cfg core.RuntimeConfig) error {
	opts := []flappy.Option{flappy.WithSeed(cfg.Seed)}
	if cfg.Gravity != 0 || cfg.FlapImpulse != 0 {
		opts = append(opts, flappy.WithPhysics(cfg.Gravity, cfg.FlapImpulse))
	}

	sim, err := flappy.New(cfg.ScreenW, cfg.ScreenH, cfg.GapHeight, opts...)
	if err != nil {
		return err
	}

	e.sim = sim
	e.cfg = cfg
	e.steps = 0
	e.truncated = false
	return nil
}

// advance runs one simulator tick and reports done and truncated.
func (e *episode) advance(a flappy.Action) (done, truncated bool, err error) {
	if e.sim == nil {
		return false, false, ErrNotReset
	}
	if !e.sim.IsAlive() || e.truncated {
		return false, false, ErrEpisodeOver
	}

	alive := e.sim.Advance(a)
	e.steps++
	if alive && e.cfg.MaxSteps > 0 && e.steps >= e.cfg.MaxSteps {
		e.truncated = true
	}
	return !alive, e.truncated, nil
}

func (e *episode) info() registry.Info {
	if e.sim == nil {
		return registry.Info{}
	}
	x, y := e.sim.PlayerPosition()
	return registry.Info{
		Score:   e.sim.Score(),
		PlayerX: x,
		PlayerY: y,
		Steps:   e.steps,
	}
}

func (e *episode) state() core.GameState {
	if e.sim == nil {
		return core.GameState{}
	}
	return core.GameState{
		Score:    e.sim.Score(),
		Steps:    e.steps,
		GameOver: !e.sim.IsAlive() || e.truncated,
	}
}
