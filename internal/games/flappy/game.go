// Package flappy implements the Text Flappy Bird simulator.
// The player sits in a fixed column and can only move vertically while pairs
// of pipes scroll in from the right. Everything is integer arithmetic on a
// small grid, so a run is fully determined by its seed and action sequence.
package flappy

import "fmt"

// Physics defaults. Velocity is in rows per tick, positive is down.
const (
	DefaultGravity     = 2  // Added to velocity after each move
	DefaultFlapImpulse = -1 // Velocity set by a flap
)

// Action is the player's input for one tick.
type Action int

const (
	Idle Action = iota
	Flap
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case Idle:
		return "Idle"
	case Flap:
		return "Flap"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction maps an integer action space (0 idle, 1 flap) to an Action.
func ParseAction(v int) (Action, error) {
	switch v {
	case 0:
		return Idle, nil
	case 1:
		return Flap, nil
	default:
		return Idle, fmt.Errorf("flappy: unknown action %d", v)
	}
}

// Config holds the immutable parameters of one game.
type Config struct {
	ScreenWidth  int
	ScreenHeight int
	GapHeight    int
	Gravity      int
	FlapImpulse  int
}

// Validate checks that a pipe gap fits with at least one occupied row
// above and below it, and that the screen can hold the pipe schedule.
func (c Config) Validate() error {
	if c.ScreenWidth < 2 {
		return &ConfigError{Field: "screen width", Value: c.ScreenWidth, Reason: "must be at least 2"}
	}
	if c.GapHeight < 1 {
		return &ConfigError{Field: "gap height", Value: c.GapHeight, Reason: "must be at least 1"}
	}
	if c.GapHeight > c.ScreenHeight-2 {
		return &ConfigError{
			Field:  "gap height",
			Value:  c.GapHeight,
			Reason: fmt.Sprintf("cannot exceed screen height minus 2 (max %d)", c.ScreenHeight-2),
		}
	}
	return nil
}

// Option configures a Simulator at construction.
type Option func(*options)

type options struct {
	src         Source
	gravity     int
	flapImpulse int
}

// WithSeed makes pipe placement deterministic for the given seed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.src = NewSeededSource(seed)
	}
}

// WithSource injects the random source used for pipe placement.
func WithSource(src Source) Option {
	return func(o *options) {
		o.src = src
	}
}

// WithPhysics overrides gravity and flap impulse.
func WithPhysics(gravity, flapImpulse int) Option {
	return func(o *options) {
		o.gravity = gravity
		o.flapImpulse = flapImpulse
	}
}

// State is a copy of everything the accessors expose, taken at one tick.
type State struct {
	Tick       int
	PlayerX    int
	PlayerY    int
	VelocityY  int
	Alive      bool
	LastAction Action
	Score      int
	Pipes      []Pipe
}

// Simulator owns the state of one game session.
// It is not safe for concurrent use; separate instances share nothing.
type Simulator struct {
	cfg   Config
	src   Source
	pipes pipeQueue

	playerX    int
	playerY    int
	velY       int
	alive      bool
	lastAction Action
	score      int
	ticks      int
}

// New builds a simulator for a screenWidth x screenHeight field with pipe
// gaps of gapHeight rows. It returns a *ConfigError if the gap cannot fit.
// Without WithSeed or WithSource, pipes are placed from system entropy.
func New(screenWidth, screenHeight, gapHeight int, opts ...Option) (*Simulator, error) {
	o := options{
		gravity:     DefaultGravity,
		flapImpulse: DefaultFlapImpulse,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = NewSystemSource()
	}

	cfg := Config{
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		GapHeight:    gapHeight,
		Gravity:      o.gravity,
		FlapImpulse:  o.flapImpulse,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:        cfg,
		src:        o.src,
		playerX:    screenWidth * 3 / 10,
		playerY:    screenHeight / 2,
		alive:      true,
		lastAction: Idle,
	}
	s.pipes.PushBack(s.randomPipe())
	return s, nil
}

// randomPipe creates a pipe at the right edge with its gap top drawn
// uniformly from [1, screenHeight-gapHeight).
func (s *Simulator) randomPipe() Pipe {
	span := s.cfg.ScreenHeight - s.cfg.GapHeight - 1
	return Pipe{
		X:         s.cfg.ScreenWidth - 1,
		GapTop:    1 + s.src.Intn(span),
		GapHeight: s.cfg.GapHeight,
	}
}

// Advance runs one tick and reports whether the player is still alive.
//
// Once the player has died Advance is a no-op that returns false: the
// action is not recorded and neither the pipes, the player nor the score
// change. This keeps a finished game readable as its final frame.
func (s *Simulator) Advance(action Action) bool {
	if !s.alive {
		return false
	}
	s.ticks++
	s.lastAction = action

	// A new pipe appears when the oldest one reaches the middle.
	if s.pipes.Front().X == s.cfg.ScreenWidth/2-1 {
		s.pipes.PushBack(s.randomPipe())
	}
	s.pipes.ShiftLeft()

	if action == Flap {
		s.velY = s.cfg.FlapImpulse
	}

	// Gravity applies after the move, so a flap always lifts for one tick.
	s.playerY += s.velY
	if s.playerY < 0 {
		s.playerY = 0
	}
	if s.playerY > s.cfg.ScreenHeight {
		s.playerY = s.cfg.ScreenHeight
	}
	s.velY += s.cfg.Gravity

	if s.crashed() {
		s.alive = false
	}

	oldest := s.pipes.Front()
	if s.alive && s.playerX == oldest.X+1 {
		s.score++
	}

	if oldest.X < 0 {
		s.pipes.PopFront()
	}

	return s.alive
}

// crashed reports a fall past the last row or a hit on the oldest pipe.
// The ceiling is handled by clamping, not by dying.
func (s *Simulator) crashed() bool {
	if s.playerY > s.cfg.ScreenHeight-1 {
		return true
	}
	oldest := s.pipes.Front()
	return s.playerX == oldest.X && !oldest.InGap(s.playerY)
}

// PlayerPosition returns the player's column and row.
// The row ranges over [0, ScreenHeight]; ScreenHeight means past the floor.
func (s *Simulator) PlayerPosition() (x, y int) {
	return s.playerX, s.playerY
}

// PlayerVelocityY returns the velocity that the next tick will apply.
func (s *Simulator) PlayerVelocityY() int {
	return s.velY
}

// IsAlive reports whether the game is still running.
func (s *Simulator) IsAlive() bool {
	return s.alive
}

// LastAction returns the most recent accepted action.
func (s *Simulator) LastAction() Action {
	return s.lastAction
}

// Score returns the number of pipes passed.
func (s *Simulator) Score() int {
	return s.score
}

// Ticks returns the number of ticks advanced while alive.
func (s *Simulator) Ticks() int {
	return s.ticks
}

// Obstacles returns a copy of the pipes on screen, oldest first.
func (s *Simulator) Obstacles() []Pipe {
	return s.pipes.Slice()
}

// Config returns the simulator configuration.
func (s *Simulator) Config() Config {
	return s.cfg
}

// State returns a snapshot of the whole game state.
func (s *Simulator) State() State {
	return State{
		Tick:       s.ticks,
		PlayerX:    s.playerX,
		PlayerY:    s.playerY,
		VelocityY:  s.velY,
		Alive:      s.alive,
		LastAction: s.lastAction,
		Score:      s.score,
		Pipes:      s.pipes.Slice(),
	}
}
