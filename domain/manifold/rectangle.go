package manifold

import (
	"gointegral/domain/integration"
	"gointegral/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// HyperRectangle is an axis-aligned box (orthotope).
type HyperRectangle struct {
	bounds integration.Bounds
}

// NewHyperRectangle validates bounds and builds the box.
func NewHyperRectangle(bounds integration.Bounds) (*HyperRectangle, error) {
	if err := bounds.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid hyperrectangle")
	}
	return &HyperRectangle{bounds: bounds.Clone()}, nil
}

func (r *HyperRectangle) Dimension() int { return len(r.bounds) }

// Contains reports min_i <= x_i <= max_i for every axis.
func (r *HyperRectangle) Contains(x []float64) bool {
	if len(x) != len(r.bounds) {
		return false
	}
	for i, iv := range r.bounds {
		if x[i] < iv.Min || x[i] > iv.Max {
			return false
		}
	}
	return true
}

func (r *HyperRectangle) ContainsBatch(points mat.Matrix) []bool {
	return containsRows(points, r.Contains)
}

// AnalyticVolume is the product of the axis widths.
func (r *HyperRectangle) AnalyticVolume() (float64, bool) {
	return r.bounds.Volume(), true
}

// Centroid is the vector of axis midpoints.
func (r *HyperRectangle) Centroid() ([]float64, bool) {
	c := make([]float64, len(r.bounds))
	for i, iv := range r.bounds {
		c[i] = iv.Mid()
	}
	return c, true
}

func (r *HyperRectangle) BoundingBox() integration.Bounds {
	return r.bounds.Clone()
}
