package core

// RuntimeConfig contains configuration passed to environments on reset.
// Environments use this to size the field and for deterministic simulation.
type RuntimeConfig struct {
	ScreenW     int   // Field width in columns
	ScreenH     int   // Field height in rows
	GapHeight   int   // Open rows in every pipe
	Gravity     int   // Velocity added after each move
	FlapImpulse int   // Velocity set by a flap
	TickRate    int   // Ticks per second for interactive play
	MaxSteps    int   // Truncate episodes after this many steps (0 = never)
	Seed        int64 // RNG seed; every value, 0 included, is used as given
}

// DefaultConfig returns the classic 20x15 field with a 4-row gap.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:     20,
		ScreenH:     15,
		GapHeight:   4,
		Gravity:     2,
		FlapImpulse: -1,
		TickRate:    4,
	}
}

// GameState represents the current state of an episode.
// Returned by Env.State() to communicate status to the platform.
type GameState struct {
	Score    int  // Pipes passed
	Steps    int  // Steps taken this episode
	GameOver bool // Whether the player has crashed
	Paused   bool // Whether interactive play is paused
}
