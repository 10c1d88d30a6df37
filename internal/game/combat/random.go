package combat

import (
	"math/rand/v2"
	"sync"
)

// RandomSource supplies the critical-hit rolls. Implementations must be safe
// for concurrent use: rolls for different characters run in parallel.
type RandomSource interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// DefaultRandom draws from the math/rand/v2 global generator.
type DefaultRandom struct{}

func (DefaultRandom) IntN(n int) int { return rand.IntN(n) }

// SeededRandom is a deterministic source for replays: the same seed yields
// the same roll sequence.
type SeededRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededRandom creates a PCG-backed source.
func NewSeededRandom(seed uint64) *SeededRandom {
	return &SeededRandom{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *SeededRandom) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}
