package manifold

import (
	"math"

	"gointegral/domain/integration"
	"gointegral/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// HyperSphere is the closed D-ball of a given radius around a center.
type HyperSphere struct {
	center []float64
	radius float64
}

// NewHyperSphere builds a ball. A nil center means the origin.
func NewHyperSphere(dimension int, radius float64, center []float64) (*HyperSphere, error) {
	if dimension < 1 {
		return nil, errors.ValidationErrorf("hypersphere dimension must be >= 1, got %d", dimension)
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, errors.ValidationErrorf("hypersphere radius must be positive and finite, got %g", radius)
	}
	if center == nil {
		center = make([]float64, dimension)
	}
	if len(center) != dimension {
		return nil, errors.ValidationErrorf("center dimension %d does not match manifold dimension %d", len(center), dimension)
	}
	for i, c := range center {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, errors.ValidationErrorf("center coordinate %d is not finite", i)
		}
	}
	return &HyperSphere{center: append([]float64(nil), center...), radius: radius}, nil
}

func (s *HyperSphere) Dimension() int { return len(s.center) }

// Radius returns r.
func (s *HyperSphere) Radius() float64 { return s.radius }

// Contains reports |x - c|^2 <= r^2.
func (s *HyperSphere) Contains(x []float64) bool {
	if len(x) != len(s.center) {
		return false
	}
	var sq float64
	for i, c := range s.center {
		d := x[i] - c
		sq += d * d
	}
	return sq <= s.radius*s.radius
}

func (s *HyperSphere) ContainsBatch(points mat.Matrix) []bool {
	return containsRows(points, s.Contains)
}

// AnalyticVolume is pi^(D/2) / Gamma(D/2 + 1) * r^D, computed in log space.
func (s *HyperSphere) AnalyticVolume() (float64, bool) {
	return BallVolume(len(s.center), s.radius), true
}

func (s *HyperSphere) Centroid() ([]float64, bool) {
	return append([]float64(nil), s.center...), true
}

func (s *HyperSphere) BoundingBox() integration.Bounds {
	b := make(integration.Bounds, len(s.center))
	for i, c := range s.center {
		b[i] = integration.Interval{Min: c - s.radius, Max: c + s.radius}
	}
	return b
}

// BallVolume returns the volume of a D-ball of radius r.
func BallVolume(dimension int, radius float64) float64 {
	n := float64(dimension)
	lg, _ := math.Lgamma(n/2 + 1)
	return math.Exp(n/2*math.Log(math.Pi) - lg + n*math.Log(radius))
}
