package flappy

import (
	"math/rand"
	"time"
)

// Source supplies the integers used to place pipe gaps.
// *rand.Rand satisfies it, and tests can swap in a fixed stub.
type Source interface {
	// Intn returns an integer in [0, n). n is always positive.
	Intn(n int) int
}

// NewSeededSource returns a deterministic source for the given seed.
func NewSeededSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewSystemSource returns a source seeded from the current time.
func NewSystemSource() Source {
	return NewSeededSource(time.Now().UnixNano())
}
