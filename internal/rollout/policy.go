package rollout

import (
	"fmt"
	"math/rand"

	"github.com/vovakirdan/flappygym/internal/env"
	"github.com/vovakirdan/flappygym/internal/games/flappy"
	"github.com/vovakirdan/flappygym/internal/registry"
)

// Policy picks an action from an observation.
// A Policy is used by one episode at a time and need not be safe for
// concurrent use.
type Policy interface {
	Name() string
	Act(obs registry.Observation) flappy.Action
}

// DefaultFlapProbability is the flap rate of the random policy.
const DefaultFlapProbability = 0.5

// PolicyNames lists the built-in policies.
func PolicyNames() []string {
	return []string{"flap", "idle", "random", "seeker"}
}

// NewPolicy resolves a built-in policy by name. The seed only matters for
// policies that draw random numbers.
func NewPolicy(name string, seed int64) (Policy, error) {
	switch name {
	case "idle":
		return constPolicy{name: "idle", action: flappy.Idle}, nil
	case "flap":
		return constPolicy{name: "flap", action: flappy.Flap}, nil
	case "random":
		return NewRandomPolicy(seed, DefaultFlapProbability), nil
	case "seeker":
		return SeekerPolicy{}, nil
	default:
		return nil, fmt.Errorf("rollout: unknown policy %q", name)
	}
}

// constPolicy always returns the same action.
type constPolicy struct {
	name   string
	action flappy.Action
}

func (p constPolicy) Name() string                           { return p.name }
func (p constPolicy) Act(registry.Observation) flappy.Action { return p.action }

// RandomPolicy flaps with a fixed probability.
type RandomPolicy struct {
	rng  *rand.Rand
	prob float64
}

// NewRandomPolicy creates a seeded random policy.
func NewRandomPolicy(seed int64, flapProbability float64) *RandomPolicy {
	return &RandomPolicy{
		rng:  rand.New(rand.NewSource(seed)),
		prob: flapProbability,
	}
}

func (p *RandomPolicy) Name() string { return "random" }

func (p *RandomPolicy) Act(registry.Observation) flappy.Action {
	if p.rng.Float64() < p.prob {
		return flappy.Flap
	}
	return flappy.Idle
}

// SeekerPolicy flaps whenever the player is below the centre of the next gap.
// It understands both the simple and the screen observations.
type SeekerPolicy struct{}

func (SeekerPolicy) Name() string { return "seeker" }

func (SeekerPolicy) Act(obs registry.Observation) flappy.Action {
	var d env.Distance
	switch o := obs.(type) {
	case env.Distance:
		d = o
	case *env.Distance:
		d = *o
	case *env.Grid:
		var ok bool
		if d, ok = gridDistance(o); !ok {
			return flappy.Idle
		}
	default:
		return flappy.Idle
	}

	if d.DY > 0 {
		return flappy.Flap
	}
	return flappy.Idle
}

// gridDistance recovers the simple observation from a screen grid.
// It reports false when there is no live player or no pipe ahead.
func gridDistance(g *env.Grid) (env.Distance, bool) {
	px, py := -1, -1
	for x := 0; x < g.Width && px < 0; x++ {
		for y := 0; y < g.Height; y++ {
			if g.At(x, y) == env.CellPlayer {
				px, py = x, y
				break
			}
		}
	}
	if px < 0 {
		return env.Distance{}, false
	}

	for x := px; x < g.Width; x++ {
		gapTop, gapHeight, isPipe := -1, 0, false
		for y := 0; y < g.Height; y++ {
			if g.At(x, y) == env.CellPipe {
				isPipe = true
				continue
			}
			if gapTop < 0 {
				gapTop = y
			}
			gapHeight++
		}
		if isPipe {
			return env.Distance{DX: x - px, DY: py - gapTop - gapHeight/2}, true
		}
	}
	return env.Distance{}, false
}
