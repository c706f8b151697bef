package ports

import (
	"context"

	"gointegral/domain/integration"
)

// Solver is the single capability every integration method provides.
// Implementations hold only their immutable configuration.
type Solver interface {
	// Integrate estimates the integral of f over the rectangle bounds.
	Integrate(ctx context.Context, f integration.BatchFunc, bounds integration.Bounds) (integration.Estimate, error)
}
