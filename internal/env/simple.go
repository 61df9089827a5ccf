package env

import (
	"fmt"
	"math"

	"github.com/vovakirdan/flappygym/internal/core"
	"github.com/vovakirdan/flappygym/internal/games/flappy"
	"github.com/vovakirdan/flappygym/internal/registry"
)

// Distance is the offset from the player to the centre of the next gap.
// DY is positive when the player is below the centre.
type Distance struct {
	DX int
	DY int
}

// Vector returns [DX, DY].
func (d Distance) Vector() []int {
	return []int{d.DX, d.DY}
}

// Norm returns the Euclidean length of the offset.
func (d Distance) Norm() float64 {
	return math.Hypot(float64(d.DX), float64(d.DY))
}

// Bounds are the nominal observation-space ranges of a Distance, sized from
// the field the way the text Flappy Bird gym sizes its discrete spaces. They
// are not hard limits: a live player at the ceiling facing a low gap, or a
// dead player below the floor, can report a DY outside [DYMin, DYMax].
type Bounds struct {
	DXMin, DXMax int
	DYMin, DYMax int
}

// DistanceBounds computes the nominal observation ranges for a field.
func DistanceBounds(width, height, gap int) Bounds {
	dyMax := height - 1 - gap/2 - 1
	return Bounds{
		DXMin: 0,
		DXMax: width - width*3/10 - 1,
		DYMin: -dyMax,
		DYMax: dyMax,
	}
}

// NextPipe returns the oldest pipe not yet behind the player. If every pipe
// is behind, the newest one is returned.
func NextPipe(sim *flappy.Simulator) flappy.Pipe {
	px, _ := sim.PlayerPosition()
	pipes := sim.Obstacles()
	for _, p := range pipes {
		if p.X-px >= 0 {
			return p
		}
	}
	return pipes[len(pipes)-1]
}

// EncodeDistance measures the offset to the next gap centre.
func EncodeDistance(sim *flappy.Simulator) Distance {
	px, py := sim.PlayerPosition()
	p := NextPipe(sim)
	return Distance{
		DX: p.X - px,
		DY: py - p.GapTop - p.GapHeight/2,
	}
}

// SimpleEnv observes only the distance to the next gap.
type SimpleEnv struct {
	ep episode
}

// NewSimpleEnv creates a simple environment. Call Reset before stepping.
func NewSimpleEnv() *SimpleEnv {
	return &SimpleEnv{}
}

// ID returns the environment identifier.
func (e *SimpleEnv) ID() string {
	return "simple"
}

// Title returns the display name.
func (e *SimpleEnv) Title() string {
	return "Text Flappy Bird (simple)"
}

// Bounds returns the nominal observation ranges for the current episode.
func (e *SimpleEnv) Bounds() Bounds {
	return DistanceBounds(e.ep.cfg.ScreenW, e.ep.cfg.ScreenH, e.ep.cfg.GapHeight)
}

// Reset starts a new episode.
func (e *SimpleEnv) Reset(cfg core.RuntimeConfig) (registry.Observation, registry.Info, error) {
	if err := e.ep.reset(cfg); err != nil {
		return nil, registry.Info{}, err
	}
	obs := EncodeDistance(e.ep.sim)
	return obs, e.info(obs), nil
}

// Step advances one tick.
func (e *SimpleEnv) Step(a flappy.Action) (registry.StepResult, error) {
	done, truncated, err := e.ep.advance(a)
	if err != nil {
		return registry.StepResult{}, err
	}
	obs := EncodeDistance(e.ep.sim)
	return registry.StepResult{
		Observation: obs,
		Reward:      StepReward,
		Done:        done,
		Truncated:   truncated,
		Info:        e.info(obs),
	}, nil
}

func (e *SimpleEnv) info(obs Distance) registry.Info {
	info := e.ep.info()
	info.Distance = obs.Norm()
	return info
}

// Render draws the frame with the last action and gap distance underneath.
func (e *SimpleEnv) Render(dst *core.Screen) {
	if e.ep.sim == nil {
		return
	}
	d := EncodeDistance(e.ep.sim)
	DrawFrame(dst, e.ep.sim,
		fmt.Sprintf("Player Action (%s)", e.ep.sim.LastAction()),
		fmt.Sprintf("Distance From Pipe (dx=%d,dy=%d)", d.DX, d.DY),
	)
}

// State returns the episode state.
func (e *SimpleEnv) State() core.GameState {
	return e.ep.state()
}

// Simulator returns the current simulator, nil before Reset.
func (e *SimpleEnv) Simulator() *flappy.Simulator {
	return e.ep.sim
}

func init() {
	registry.Register("simple", func() registry.Env {
		return NewSimpleEnv()
	})
}
