// Package dice provides the shared randomness abstraction for combat rolls,
// mob spawning, and loot. A single Source is shared by every handler and
// scheduler goroutine, so implementations must be safe for concurrent use.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Source is the randomness provider for the game engine.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int

	// Float64 returns a random float64 in [0.0, 1.0).
	Float64() float64
}

// lockedSource wraps a math/rand PRNG with a mutex.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource returns a Source seeded from crypto/rand.
func NewSource() Source {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return NewSeededSource(int64(binary.LittleEndian.Uint64(b[:])))
}

// NewSeededSource returns a deterministic Source for tests.
//
// Postcondition: two Sources built from the same seed produce the same
// value sequence.
func NewSeededSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" otherwise.
func (s *lockedSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Float64 returns a random float64 in [0.0, 1.0).
func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
