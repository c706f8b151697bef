package montecarlo

import (
	"math/rand/v2"
)

// PCGStreams derives one PCG stream per batch from the run seed.
type PCGStreams struct{}

// Stream creates a deterministic RNG stream for a batch
func (PCGStreams) Stream(seed uint64, batch int) rand.Source {
	return rand.NewPCG(seed, uint64(batch))
}
