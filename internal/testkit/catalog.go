// Package testkit provides benchmark integrands with known integrals, shared
// by the command-line driver, the convergence study and tests.
package testkit

import (
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"gointegral/domain/integration"
	"gointegral/domain/manifold"
	"gointegral/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Integrand is a named benchmark function.
type Integrand struct {
	Name        string
	Description string
	Func        integration.BatchFunc
	// Exact returns the closed-form integral over bounds, when one exists.
	Exact func(bounds integration.Bounds) (float64, bool)
	// DefaultBounds is the domain used when the caller supplies none.
	DefaultBounds func(dim int) integration.Bounds
}

var catalog = map[string]Integrand{
	"constant": {
		Name:          "constant",
		Description:   "f(x) = 1",
		Func:          rowwise(func([]float64) float64 { return 1 }),
		Exact:         func(b integration.Bounds) (float64, bool) { return b.Volume(), true },
		DefaultBounds: unitCube,
	},
	"sumsq": {
		Name:        "sumsq",
		Description: "f(x) = sum of x_i^2",
		Func:        rowwise(func(x []float64) float64 { return floats.Dot(x, x) }),
		Exact: func(b integration.Bounds) (float64, bool) {
			vol := b.Volume()
			total := 0.0
			for _, iv := range b {
				cube := (iv.Max*iv.Max*iv.Max - iv.Min*iv.Min*iv.Min) / 3
				total += cube * vol / iv.Width()
			}
			return total, true
		},
		DefaultBounds: unitCube,
	},
	"product": {
		Name:        "product",
		Description: "f(x) = product of x_i",
		Func:        rowwise(floats.Prod),
		Exact: func(b integration.Bounds) (float64, bool) {
			out := 1.0
			for _, iv := range b {
				out *= (iv.Max*iv.Max - iv.Min*iv.Min) / 2
			}
			return out, true
		},
		DefaultBounds: unitCube,
	},
	"gaussian": {
		Name:        "gaussian",
		Description: "f(x) = exp(-|x|^2)",
		Func:        rowwise(func(x []float64) float64 { return math.Exp(-floats.Dot(x, x)) }),
		Exact: func(b integration.Bounds) (float64, bool) {
			out := 1.0
			for _, iv := range b {
				out *= math.Sqrt(math.Pi) / 2 * (math.Erf(iv.Max) - math.Erf(iv.Min))
			}
			return out, true
		},
		DefaultBounds: func(dim int) integration.Bounds { return integration.Cube(dim, -2, 2) },
	},
	"ripple": {
		Name:          "ripple",
		Description:   "f(x) = cos(|x|^2) * exp(-|x|^2 / 10)",
		Func:          rowwise(ripple),
		Exact:         func(integration.Bounds) (float64, bool) { return 0, false },
		DefaultBounds: func(dim int) integration.Bounds { return integration.Cube(dim, -3, 3) },
	},
	"ball": {
		Name:        "ball",
		Description: "indicator of the unit ball centred at the origin",
		Func: func(points mat.Matrix) ([]float64, error) {
			_, d := points.Dims()
			ball, err := manifold.NewHyperSphere(d, 1, nil)
			if err != nil {
				return nil, err
			}
			return manifold.Indicator(ball)(points)
		},
		Exact: func(b integration.Bounds) (float64, bool) {
			for _, iv := range b {
				if iv.Min > -1 || iv.Max < 1 {
					return 0, false
				}
			}
			return manifold.BallVolume(b.Dimension(), 1), true
		},
		DefaultBounds: func(dim int) integration.Bounds { return integration.Cube(dim, -1, 1) },
	},
}

func ripple(x []float64) float64 {
	r2 := floats.Dot(x, x)
	return math.Cos(r2) * math.Exp(-r2/10)
}

func unitCube(dim int) integration.Bounds { return integration.Cube(dim, 0, 1) }

// rowwise lifts a pure point function into a batch integrand.
func rowwise(f func([]float64) float64) integration.BatchFunc {
	return integration.FromPointFunc(func(x []float64) (float64, error) {
		return f(x), nil
	})
}

// Names lists the catalog in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds an integrand by name, ignoring case and surrounding spaces.
func Lookup(name string) (Integrand, error) {
	in, ok := catalog[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Integrand{}, errors.ValidationErrorf("unknown integrand %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return in, nil
}

// Counter wraps a batch integrand and counts the points it is asked to
// evaluate. Safe for concurrent use.
type Counter struct {
	f      integration.BatchFunc
	points atomic.Int64
	calls  atomic.Int64
}

// NewCounter wraps f.
func NewCounter(f integration.BatchFunc) *Counter {
	return &Counter{f: f}
}

// Func returns the counting integrand.
func (c *Counter) Func() integration.BatchFunc {
	return func(points mat.Matrix) ([]float64, error) {
		n, _ := points.Dims()
		c.points.Add(int64(n))
		c.calls.Add(1)
		return c.f(points)
	}
}

// Points is the total number of points evaluated so far.
func (c *Counter) Points() int { return int(c.points.Load()) }

// Calls is the number of batch invocations so far.
func (c *Counter) Calls() int { return int(c.calls.Load()) }
