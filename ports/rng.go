package ports

import (
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream returns the source for one batch of a seeded run. The same
	// (seed, batch) pair must always yield the same sequence, independent of
	// which worker draws it.
	Stream(seed uint64, batch int) rand.Source
}
