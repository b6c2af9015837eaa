package policy

import (
	"math/rand/v2"
)

// seededRand wraps a math/rand/v2 generator together with the seed it was
// constructed from. Only the seed is ever serialized (internal/domain's
// PolicyType.Seed); the generator's stream position never is — a reloaded
// policy is reproducible from the reload point forward, not bit-for-bit
// identical with its pre-crash stream.
type seededRand struct {
	seed *uint64
	r    *rand.Rand
}

func newSeededRand(seed *uint64) *seededRand {
	if seed != nil {
		return &seededRand{seed: seed, r: rand.New(rand.NewPCG(*seed, *seed))}
	}
	return &seededRand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (s *seededRand) Float64() float64 { return s.r.Float64() }
func (s *seededRand) IntN(n int) int   { return s.r.IntN(n) }
