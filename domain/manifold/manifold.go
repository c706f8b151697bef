// Package manifold describes integration domains as point-membership
// predicates, with closed-form volumes and centroids where they are known.
package manifold

import (
	"gointegral/domain/integration"

	"gonum.org/v1/gonum/mat"
)

// Predicate is a geometric region in D dimensions.
// Implementations are immutable and safe for concurrent use.
type Predicate interface {
	Dimension() int
	Contains(x []float64) bool
	// ContainsBatch tests every row of an (N, D) matrix.
	ContainsBatch(points mat.Matrix) []bool
	// AnalyticVolume returns the exact volume when a closed form exists.
	AnalyticVolume() (float64, bool)
	Centroid() ([]float64, bool)
	// BoundingBox is the tightest axis-aligned rectangle containing the region.
	BoundingBox() integration.Bounds
}

// Indicator returns an integrand that is 1 inside p and 0 outside. Integrating
// it over p.BoundingBox() estimates the volume of p.
func Indicator(p Predicate) integration.BatchFunc {
	return func(points mat.Matrix) ([]float64, error) {
		inside := p.ContainsBatch(points)
		out := make([]float64, len(inside))
		for i, in := range inside {
			if in {
				out[i] = 1
			}
		}
		return out, nil
	}
}

func containsRows(points mat.Matrix, contains func([]float64) bool) []bool {
	n, d := points.Dims()
	out := make([]bool, n)
	row := make([]float64, d)
	for i := 0; i < n; i++ {
		mat.Row(row, i, points)
		out[i] = contains(row)
	}
	return out
}
