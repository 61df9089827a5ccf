package env

import (
	"github.com/vovakirdan/flappygym/internal/core"
	"github.com/vovakirdan/flappygym/internal/games/flappy"
	"github.com/vovakirdan/flappygym/internal/registry"
)

// Cell codes of the grid observation.
const (
	CellEmpty      = 0
	CellPlayer     = 1
	CellPipe       = 2
	CellDeadPlayer = 3
)

// Grid is the full-field observation, indexed by column then row.
type Grid struct {
	Width  int
	Height int
	cells  []int
}

// NewGrid returns an empty grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		cells:  make([]int, width*height),
	}
}

// At returns the cell code at (x, y), or CellEmpty outside the grid.
func (g *Grid) At(x, y int) int {
	if !g.bounds().Contains(x, y) {
		return CellEmpty
	}
	return g.cells[x*g.Height+y]
}

func (g *Grid) set(x, y, v int) {
	if !g.bounds().Contains(x, y) {
		return
	}
	g.cells[x*g.Height+y] = v
}

func (g *Grid) bounds() core.Rect {
	return core.NewRect(0, 0, g.Width, g.Height)
}

// Vector returns the cells column by column.
func (g *Grid) Vector() []int {
	out := make([]int, len(g.cells))
	copy(out, g.cells)
	return out
}

// EncodeGrid projects the simulator state onto a grid. A dead player is
// drawn one column behind, on the last row if it fell through the floor.
// A player that dies in column 0 has no cell at all; the marker is not
// wrapped to the last column.
func EncodeGrid(sim *flappy.Simulator) *Grid {
	cfg := sim.Config()
	g := NewGrid(cfg.ScreenWidth, cfg.ScreenHeight)

	px, py := sim.PlayerPosition()
	if sim.IsAlive() {
		g.set(px, py, CellPlayer)
	} else {
		g.set(px-1, core.Clamp(py, 0, cfg.ScreenHeight-1), CellDeadPlayer)
	}

	for _, p := range sim.Obstacles() {
		for y := 0; y < p.GapTop; y++ {
			g.set(p.X, y, CellPipe)
		}
		for y := p.GapTop + p.GapHeight; y < cfg.ScreenHeight; y++ {
			g.set(p.X, y, CellPipe)
		}
	}
	return g
}

// ScreenEnv observes the whole field as a grid.
type ScreenEnv struct {
	ep episode
}

// NewScreenEnv creates a screen environment. Call Reset before stepping.
func NewScreenEnv() *ScreenEnv {
	return &ScreenEnv{}
}

// ID returns the environment identifier.
func (e *ScreenEnv) ID() string {
	return "screen"
}

// Title returns the display name.
func (e *ScreenEnv) Title() string {
	return "Text Flappy Bird (screen)"
}

// Reset starts a new episode.
func (e *ScreenEnv) Reset(cfg core.RuntimeConfig) (registry.Observation, registry.Info, error) {
	if err := e.ep.reset(cfg); err != nil {
		return nil, registry.Info{}, err
	}
	return EncodeGrid(e.ep.sim), e.ep.info(), nil
}

// Step advances one tick.
func (e *ScreenEnv) Step(a flappy.Action) (registry.StepResult, error) {
	done, truncated, err := e.ep.advance(a)
	if err != nil {
		return registry.StepResult{}, err
	}
	return registry.StepResult{
		Observation: EncodeGrid(e.ep.sim),
		Reward:      StepReward,
		Done:        done,
		Truncated:   truncated,
		Info:        e.ep.info(),
	}, nil
}

// Render draws the frame with the last action underneath.
func (e *ScreenEnv) Render(dst *core.Screen) {
	if e.ep.sim == nil {
		return
	}
	DrawFrame(dst, e.ep.sim, "("+e.ep.sim.LastAction().String()+")")
}

// State returns the episode state.
func (e *ScreenEnv) State() core.GameState {
	return e.ep.state()
}

// Simulator returns the current simulator, nil before Reset.
func (e *ScreenEnv) Simulator() *flappy.Simulator {
	return e.ep.sim
}

func init() {
	registry.Register("screen", func() registry.Env {
		return NewScreenEnv()
	})
}
