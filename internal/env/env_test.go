package env

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/flappygym/internal/core"
	"github.com/vovakirdan/flappygym/internal/games/flappy"
	"github.com/vovakirdan/flappygym/internal/registry"
)

// fixedSource places every gap top at 1 + v.
type fixedSource int

func (f fixedSource) Intn(n int) int {
	return int(f) % n
}

// newFixedSim builds the classic 20x15 field with every gap at rows [5, 9).
func newFixedSim(t *testing.T) *flappy.Simulator {
	t.Helper()
	sim, err := flappy.New(20, 15, 4, flappy.WithSource(fixedSource(4)))
	require.NoError(t, err)
	return sim
}

func alternate(tick int) flappy.Action {
	if tick%2 == 1 {
		return flappy.Flap
	}
	return flappy.Idle
}

func testConfig() core.RuntimeConfig {
	cfg := core.DefaultConfig()
	cfg.Seed = 1
	return cfg
}

func TestRegistered(t *testing.T) {
	for _, id := range []string{"screen", "simple"} {
		t.Run(id, func(t *testing.T) {
			require.True(t, registry.Exists(id))
			e, err := registry.Create(id)
			require.NoError(t, err)
			assert.Equal(t, id, e.ID())
			assert.Nil(t, e.Simulator(), "fresh env has no simulator")
		})
	}
}

func TestResetSeedZeroIsDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.Seed = 0

	want, err := flappy.New(cfg.ScreenW, cfg.ScreenH, cfg.GapHeight, flappy.WithSeed(0))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		e := NewSimpleEnv()
		_, _, err := e.Reset(cfg)
		require.NoError(t, err)
		require.Equal(t, want.Obstacles(), e.Simulator().Obstacles(), "reset %d", i)
	}

	// The whole pipe sequence matches, not just the first gap.
	a, b := NewScreenEnv(), NewScreenEnv()
	_, _, err = a.Reset(cfg)
	require.NoError(t, err)
	_, _, err = b.Reset(cfg)
	require.NoError(t, err)
	for tick := 1; tick <= 30; tick++ {
		ra, errA := a.Step(alternate(tick))
		rb, errB := b.Step(alternate(tick))
		require.Equal(t, errA, errB)
		if errA != nil {
			break
		}
		require.Equal(t, ra.Observation.Vector(), rb.Observation.Vector(), "tick %d", tick)
	}
}

func TestResetRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.GapHeight = cfg.ScreenH - 1

	for _, e := range []registry.Env{NewScreenEnv(), NewSimpleEnv()} {
		_, _, err := e.Reset(cfg)
		require.Error(t, err)

		var cfgErr *flappy.ConfigError
		assert.True(t, errors.As(err, &cfgErr), "%s: expected ConfigError, got %v", e.ID(), err)
	}
}

func TestStepBeforeReset(t *testing.T) {
	_, err := NewScreenEnv().Step(flappy.Idle)
	assert.ErrorIs(t, err, ErrNotReset)

	_, err = NewSimpleEnv().Step(flappy.Flap)
	assert.ErrorIs(t, err, ErrNotReset)
}

func TestEncodeGrid(t *testing.T) {
	sim := newFixedSim(t)
	g := EncodeGrid(sim)

	assert.Equal(t, 20, g.Width)
	assert.Equal(t, 15, g.Height)
	assert.Equal(t, CellPlayer, g.At(6, 7))

	for y := 0; y < 15; y++ {
		want := CellPipe
		if y >= 5 && y < 9 {
			want = CellEmpty
		}
		assert.Equal(t, want, g.At(19, y), "pipe column row %d", y)
	}

	vec := g.Vector()
	require.Len(t, vec, 300)
	assert.Equal(t, CellPlayer, vec[6*15+7])
	assert.Equal(t, CellPipe, vec[19*15+0])

	// Vector is a copy
	vec[0] = 9
	assert.Equal(t, CellEmpty, g.At(0, 0))
}

func TestEncodeGridDeadPlayer(t *testing.T) {
	sim := newFixedSim(t)
	for sim.Advance(flappy.Idle) {
	}

	_, y := sim.PlayerPosition()
	require.Equal(t, 15, y, "player fell through the floor")

	g := EncodeGrid(sim)
	assert.Equal(t, CellDeadPlayer, g.At(5, 14))
	assert.Equal(t, CellEmpty, g.At(6, 14))
}

func TestDeadPlayerInFirstColumnNotDrawn(t *testing.T) {
	// A 3-wide field puts the player in column 0.
	sim, err := flappy.New(3, 15, 4, flappy.WithSource(fixedSource(4)))
	require.NoError(t, err)
	px, _ := sim.PlayerPosition()
	require.Equal(t, 0, px)

	for sim.Advance(flappy.Idle) {
	}

	for _, v := range EncodeGrid(sim).Vector() {
		assert.NotEqual(t, CellDeadPlayer, v, "dead marker must not wrap to the last column")
	}

	w, h := FrameSize(3, 15, 1)
	screen := core.NewScreen(w, h)
	DrawFrame(screen, sim)
	assert.NotContains(t, screen.String(), string(DeadPlayerChar))
}

func TestEncodeDistance(t *testing.T) {
	sim := newFixedSim(t)

	d := EncodeDistance(sim)
	assert.Equal(t, Distance{DX: 13, DY: 0}, d)
	assert.InDelta(t, 13.0, d.Norm(), 1e-9)
	assert.Equal(t, []int{13, 0}, d.Vector())

	// After tick 14 the first pipe is behind the player and the second
	// one, at column 15, is the next to pass.
	for tick := 1; tick <= 14; tick++ {
		require.True(t, sim.Advance(alternate(tick)))
	}
	d = EncodeDistance(sim)
	assert.Equal(t, Distance{DX: 9, DY: 0}, d)

	sim.Advance(alternate(15)) // flap lifts the player to row 6
	assert.Equal(t, Distance{DX: 8, DY: -1}, EncodeDistance(sim))
}

func TestDistanceBounds(t *testing.T) {
	b := DistanceBounds(20, 15, 4)
	assert.Equal(t, Bounds{DXMin: 0, DXMax: 13, DYMin: -11, DYMax: 11}, b)

	e := NewSimpleEnv()
	_, _, err := e.Reset(testConfig())
	require.NoError(t, err)
	assert.Equal(t, b, e.Bounds())
}

func TestDistanceBoundsAreNominal(t *testing.T) {
	// Gap rows [10, 14) with the player flapped up to the ceiling.
	sim, err := flappy.New(20, 15, 4, flappy.WithSource(fixedSource(9)))
	require.NoError(t, err)
	for tick := 1; tick <= 7; tick++ {
		require.True(t, sim.Advance(flappy.Flap))
	}
	_, y := sim.PlayerPosition()
	require.Equal(t, 0, y)

	d := EncodeDistance(sim)
	b := DistanceBounds(20, 15, 4)
	assert.Equal(t, -12, d.DY)
	assert.Less(t, d.DY, b.DYMin)
}

func TestSimpleEnvEpisode(t *testing.T) {
	e := NewSimpleEnv()
	obs, info, err := e.Reset(testConfig())
	require.NoError(t, err)

	d, ok := obs.(Distance)
	require.True(t, ok, "simple env observes a Distance")
	assert.Equal(t, 13, d.DX)
	assert.Equal(t, 6, info.PlayerX)
	assert.Equal(t, 7, info.PlayerY)
	assert.InDelta(t, d.Norm(), info.Distance, 1e-9)

	// Idle falls through the floor on the fourth step.
	var res registry.StepResult
	for i := 1; i <= 4; i++ {
		res, err = e.Step(flappy.Idle)
		require.NoError(t, err)
		assert.Equal(t, StepReward, res.Reward)
		assert.Equal(t, i == 4, res.Done, "step %d", i)
		assert.False(t, res.Truncated)
	}
	assert.Equal(t, 4, res.Info.Steps)
	assert.True(t, e.State().GameOver)

	_, err = e.Step(flappy.Idle)
	assert.ErrorIs(t, err, ErrEpisodeOver)
}

func TestScreenEnvTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSteps = 3

	e := NewScreenEnv()
	obs, _, err := e.Reset(cfg)
	require.NoError(t, err)
	_, ok := obs.(*Grid)
	require.True(t, ok, "screen env observes a *Grid")

	for tick := 1; tick <= 3; tick++ {
		res, err := e.Step(alternate(tick))
		require.NoError(t, err)
		assert.False(t, res.Done)
		assert.Equal(t, tick == 3, res.Truncated, "step %d", tick)
	}
	assert.True(t, e.State().GameOver)
	assert.Equal(t, 3, e.State().Steps)

	_, err = e.Step(flappy.Flap)
	assert.ErrorIs(t, err, ErrEpisodeOver)

	// Reset starts over
	_, info, err := e.Reset(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Steps)
	assert.False(t, e.State().GameOver)
}

func TestSameSeedSameObservations(t *testing.T) {
	cfg := testConfig()
	cfg.Seed = 2024

	a, b := NewScreenEnv(), NewScreenEnv()
	_, _, err := a.Reset(cfg)
	require.NoError(t, err)
	_, _, err = b.Reset(cfg)
	require.NoError(t, err)

	for tick := 1; tick <= 40; tick++ {
		ra, errA := a.Step(alternate(tick))
		rb, errB := b.Step(alternate(tick))
		require.Equal(t, errA, errB)
		if errA != nil {
			break
		}
		require.Equal(t, ra.Observation.Vector(), rb.Observation.Vector(), "tick %d", tick)
		require.Equal(t, ra.Info, rb.Info)
	}
}

func TestDrawFrame(t *testing.T) {
	sim := newFixedSim(t)
	w, h := FrameSize(20, 15, 1)
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)

	screen := core.NewScreen(w, h)
	DrawFrame(screen, sim, "(Idle)")

	row := func(y int) string {
		return strings.TrimRight(screen.Row(y), " ")
	}
	assert.Equal(t, Banner, row(0))
	assert.Equal(t, "Score: 0", row(1))
	assert.Equal(t, strings.Repeat("-", 22), row(2))
	assert.Equal(t, "[                   |]", row(3))
	assert.Equal(t, "[      @             ]", row(3+7))
	assert.Equal(t, strings.Repeat("^", 22), row(18))
	assert.Equal(t, "(Idle)", row(19))

	assert.Equal(t, core.ColorYellow, screen.GetCell(7, 10).Color)
	assert.Equal(t, core.ColorGreen, screen.GetCell(20, 3).Color)
}

func TestText(t *testing.T) {
	e := NewSimpleEnv()
	assert.Equal(t, "", Text(e), "nothing to draw before reset")

	_, _, err := e.Reset(testConfig())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(Text(e), "\n"), "\n")
	require.Len(t, lines, 2+15+2+2)
	assert.Equal(t, Banner, lines[0])
	assert.Equal(t, "Player Action (Idle)", lines[19])
	assert.True(t, strings.HasPrefix(lines[20], "Distance From Pipe (dx=13,dy="), lines[20])
}
