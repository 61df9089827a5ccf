// Package registry provides a global registry for environment factories.
// Environments register themselves in init() functions, allowing the CLI,
// the rollout runner and the terminal front-end to discover and instantiate
// them without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/flappygym/internal/core"
	"github.com/vovakirdan/flappygym/internal/games/flappy"
)

// Observation is what an agent sees after reset or a step.
type Observation interface {
	// Vector flattens the observation into integers for numeric consumers.
	Vector() []int
}

// Info carries diagnostics that are not part of the observation.
type Info struct {
	Score    int
	PlayerX  int
	PlayerY  int
	Steps    int
	Distance float64 // Euclidean distance to the gap centre, simple env only
}

// StepResult is returned by Env.Step after each tick.
type StepResult struct {
	Observation Observation
	Reward      float64
	Done        bool // The player crashed
	Truncated   bool // The step limit was reached while alive
	Info        Info
}

// Env is the step/reset interface every environment implements.
// Environments contain pure logic with no terminal dependencies; the platform
// handles input mapping, timing, and display.
type Env interface {
	// ID returns a unique identifier for this environment (e.g., "screen").
	// Used for CLI commands and score storage.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Reset starts a new episode with a fresh simulator.
	// Invalid field dimensions are reported as *flappy.ConfigError.
	Reset(cfg core.RuntimeConfig) (Observation, Info, error)

	// Step advances the episode by one tick.
	Step(a flappy.Action) (StepResult, error)

	// Render draws the current episode into the provided screen buffer.
	Render(dst *core.Screen)

	// State returns the current episode state (score, game over).
	State() core.GameState

	// Simulator exposes the underlying game for read-only inspection.
	// It is nil before the first Reset.
	Simulator() *flappy.Simulator
}

// EnvInfo contains metadata about a registered environment.
type EnvInfo struct {
	ID    string
	Title string
}

// Factory is a function that creates a new instance of an environment.
type Factory func() Env

var (
	factories = make(map[string]Factory)
	titles    = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds an environment factory to the registry.
// Typically called from an init() function.
// Panics if an environment with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: environment %q already registered", id))
	}

	factories[id] = f
	titles[id] = f().Title()
}

// List returns information about all registered environments, sorted by ID.
func List() []EnvInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]EnvInfo, 0, len(factories))
	for id := range factories {
		result = append(result, EnvInfo{
			ID:    id,
			Title: titles[id],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a new environment by its ID.
// Returns an error if the ID is not registered.
func Create(id string) (Env, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown environment %q", id)
	}

	return f(), nil
}

// Exists checks if an environment with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
