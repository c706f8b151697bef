package integration

import (
	"gointegral/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// BatchFunc evaluates an integrand on an (N, D) matrix of points and returns
// N values, one per row. Returning a different number of values is a caller
// contract violation.
type BatchFunc func(points mat.Matrix) ([]float64, error)

// PointFunc evaluates an integrand at a single point of D coordinates.
type PointFunc func(x []float64) (float64, error)

// FromPointFunc lifts a point function to the batched contract by evaluating
// each row in turn.
func FromPointFunc(f PointFunc) BatchFunc {
	return func(points mat.Matrix) ([]float64, error) {
		n, d := points.Dims()
		out := make([]float64, n)
		row := make([]float64, d)
		for i := 0; i < n; i++ {
			mat.Row(row, i, points)
			v, err := f(row)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
}

// AtPoint presents the batched function as a point function by evaluating a
// 1xD batch per call.
func (f BatchFunc) AtPoint() PointFunc {
	return func(x []float64) (float64, error) {
		point := mat.NewDense(1, len(x), append([]float64(nil), x...))
		values, err := f(point)
		if err != nil {
			return 0, err
		}
		if len(values) != 1 {
			return 0, errors.ValidationErrorf("function returned %d values for a single point", len(values))
		}
		return values[0], nil
	}
}

// ProgressReporter receives progress once per completed unit of work.
// Returning an error aborts the solve; the error reaches the caller unchanged.
type ProgressReporter interface {
	Progress(fraction float64, message string) error
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(fraction float64, message string) error

// Progress calls f.
func (f ProgressFunc) Progress(fraction float64, message string) error {
	return f(fraction, message)
}

// Estimate is what a solver hands back to the engine.
type Estimate struct {
	Value         float64
	ErrorEstimate float64
	Evaluations   int
}
