package integration

import (
	"fmt"
	"math"
	"time"

	"gointegral/internal/errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Result is the immutable record of one integration run. Build it with
// NewResult; there are no setters.
type Result struct {
	method        string
	value         float64
	errorEstimate float64
	dimension     int
	evaluations   int
	elapsed       time.Duration
}

// NewResult validates and freezes a result. Elapsed time must already be
// known when the record is built.
func NewResult(method string, est Estimate, dimension int, elapsed time.Duration) (Result, error) {
	switch {
	case math.IsNaN(est.ErrorEstimate) || est.ErrorEstimate < 0:
		return Result{}, errors.ValidationErrorf("error estimate must be >= 0, got %g", est.ErrorEstimate)
	case dimension < 1:
		return Result{}, errors.ValidationErrorf("dimension must be >= 1, got %d", dimension)
	case est.Evaluations < 0:
		return Result{}, errors.ValidationErrorf("evaluation count must be >= 0, got %d", est.Evaluations)
	case elapsed < 0:
		return Result{}, errors.ValidationErrorf("execution time must be >= 0, got %s", elapsed)
	}
	return Result{
		method:        method,
		value:         est.Value,
		errorEstimate: est.ErrorEstimate,
		dimension:     dimension,
		evaluations:   est.Evaluations,
		elapsed:       elapsed,
	}, nil
}

// Method is the registry name of the solver that produced the result.
func (r Result) Method() string { return r.method }

// Value is the integral estimate.
func (r Result) Value() float64 { return r.value }

// ErrorEstimate is the standard error (Monte Carlo) or accumulated local
// error bound (quadrature).
func (r Result) ErrorEstimate() float64 { return r.errorEstimate }

// Dimension is D.
func (r Result) Dimension() int { return r.dimension }

// Evaluations is the sample count or number of function invocations.
func (r Result) Evaluations() int { return r.evaluations }

// Elapsed is the wall-clock solver time.
func (r Result) Elapsed() time.Duration { return r.elapsed }

// ExecutionTime is Elapsed in seconds.
func (r Result) ExecutionTime() float64 { return r.elapsed.Seconds() }

// String renders the record for logs and terminals.
func (r Result) String() string {
	return fmt.Sprintf("%.8g ± %.3e [%dD, %s evaluations, %.3fs]",
		r.value, r.errorEstimate, r.dimension, message.NewPrinter(language.English).Sprintf("%d", r.evaluations), r.ExecutionTime())
}
