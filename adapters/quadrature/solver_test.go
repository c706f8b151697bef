package quadrature

import (
	"context"
	"fmt"
	"math"
	"testing"

	"gointegral/domain/integration"
	"gointegral/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func newSolver(t *testing.T, cfg Config) *Solver {
	t.Helper()
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.MaxEvaluations == 0 {
		cfg.MaxEvaluations = DefaultMaxEvaluations
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

// counted wraps f and counts every call.
func counted(f integration.PointFunc, calls *int) integration.PointFunc {
	return func(x []float64) (float64, error) {
		*calls++
		return f(x)
	}
}

func TestRuleWeightsIntegrateConstants(t *testing.T) {
	for _, name := range RuleNames() {
		r, err := LookupRule(name)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, floats.Sum(r.high), 1e-14, name)
		assert.InDelta(t, 2.0, floats.Sum(r.low), 1e-14, name)
		assert.Len(t, r.low, r.Size())
	}
}

func TestNodesPerRegion(t *testing.T) {
	gk15, _ := LookupRule(RuleGK15)
	gk7, _ := LookupRule(RuleGK7)
	leg, _ := LookupRule(RuleLegendre)

	assert.Equal(t, 15, gk15.NodesPerRegion(1))
	assert.Equal(t, 225, gk15.NodesPerRegion(2))
	assert.Equal(t, 343, gk7.NodesPerRegion(3))
	assert.Equal(t, 25+100, leg.NodesPerRegion(2))

	assert.Positive(t, gk15.NodesPerRegion(16))
	assert.Equal(t, math.MaxInt, gk15.NodesPerRegion(17))
	assert.Equal(t, math.MaxInt, gk15.NodesPerRegion(19))
	assert.Equal(t, math.MaxInt, gk7.NodesPerRegion(23))
	assert.Equal(t, math.MaxInt, leg.NodesPerRegion(64))
}

func TestLookupRule(t *testing.T) {
	r, err := LookupRule(" GK7 ")
	require.NoError(t, err)
	assert.Equal(t, RuleGK7, r.Name())

	r, err = LookupRule("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRule, r.Name())

	_, err = LookupRule("simpson")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestPolynomialMatchesClosedForm(t *testing.T) {
	tests := []struct {
		name   string
		rule   string
		bounds integration.Bounds
		f      integration.PointFunc
		exact  float64
		evals  int
	}{
		{
			name:   "quadratic 1D",
			rule:   RuleGK15,
			bounds: integration.Bounds{{Min: -1, Max: 2}},
			f:      func(x []float64) (float64, error) { return 3*x[0]*x[0] - 2*x[0] + 1, nil },
			exact:  9 - 3 + 3, // [x^3 - x^2 + x] from -1 to 2
			evals:  15,
		},
		{
			name:   "mixed 2D",
			rule:   RuleGK15,
			bounds: integration.Bounds{{Min: 0, Max: 1}, {Min: 0, Max: 2}},
			f:      func(x []float64) (float64, error) { return x[0]*x[0] + x[1]*x[1]*x[1] + x[0]*x[1], nil },
			exact:  2.0/3.0 + 4 + 1,
			evals:  225,
		},
		{
			name:   "quartic 3D with gk7",
			rule:   RuleGK7,
			bounds: integration.Cube(3, 0, 1),
			f:      func(x []float64) (float64, error) { return x[0]*x[1]*x[2] + math.Pow(x[2], 4), nil },
			exact:  1.0/8.0 + 1.0/5.0,
			evals:  343,
		},
		{
			name:   "mixed 2D with legendre",
			rule:   RuleLegendre,
			bounds: integration.Bounds{{Min: 0, Max: 1}, {Min: 0, Max: 2}},
			f:      func(x []float64) (float64, error) { return x[0]*x[0] + x[1]*x[1]*x[1] + x[0]*x[1], nil },
			exact:  2.0/3.0 + 4 + 1,
			evals:  125,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSolver(t, Config{Rule: tt.rule})
			calls := 0
			est, err := s.IntegratePoint(context.Background(), counted(tt.f, &calls), tt.bounds)
			require.NoError(t, err)

			assert.InDelta(t, tt.exact, est.Value, DefaultTolerance)
			assert.Equal(t, calls, est.Evaluations)
			assert.Equal(t, tt.evals, est.Evaluations)
			assert.LessOrEqual(t, est.ErrorEstimate, DefaultTolerance)
		})
	}
}

func TestSubdivisionOnSingularDerivative(t *testing.T) {
	s := newSolver(t, Config{Tolerance: 1e-10})
	calls := 0
	sqrt := func(x []float64) (float64, error) { return math.Sqrt(x[0]), nil }

	est, err := s.IntegratePoint(context.Background(), counted(sqrt, &calls), integration.Bounds{{Min: 0, Max: 1}})
	require.NoError(t, err)

	assert.InDelta(t, 2.0/3.0, est.Value, 1e-9)
	assert.Greater(t, est.Evaluations, 15, "sqrt must force subdivision")
	assert.Equal(t, calls, est.Evaluations)
	assert.Zero(t, est.Evaluations%15, "every region costs one full rule")
}

func TestDepthExhaustedReturnsBestEffort(t *testing.T) {
	step := func(x []float64) (float64, error) {
		if x[0] < 0.3 {
			return 0, nil
		}
		return 1, nil
	}

	s := newSolver(t, Config{MaxDepth: 4})
	est, err := s.IntegratePoint(context.Background(), step, integration.Bounds{{Min: 0, Max: 1}})
	require.NoError(t, err, "a missed tolerance is not an error")

	assert.InDelta(t, 0.7, est.Value, 0.1)
	assert.Greater(t, est.ErrorEstimate, DefaultTolerance, "the unmet local error is propagated")
	assert.LessOrEqual(t, est.Evaluations, 15*(1<<5))
}

func TestEvaluationBudgetCapsWork(t *testing.T) {
	step := func(x []float64) (float64, error) {
		if x[0]*x[0]+x[1]*x[1] < 0.5 {
			return 1, nil
		}
		return 0, nil
	}

	s := newSolver(t, Config{MaxEvaluations: 225 * 20})
	est, err := s.IntegratePoint(context.Background(), step, integration.Cube(2, 0, 1))
	require.NoError(t, err)
	assert.LessOrEqual(t, est.Evaluations, 225*20)
	assert.Zero(t, est.Evaluations%225)
	assert.Greater(t, est.ErrorEstimate, 0.0)
	assert.GreaterOrEqual(t, est.Value, 0.0)
	assert.LessOrEqual(t, est.Value, 1.0)
}

func TestEvaluationBudgetReservesSiblings(t *testing.T) {
	step := func(x []float64) (float64, error) {
		if x[0] < 0.3 {
			return 0, nil
		}
		return 1, nil
	}

	for budget := 15; budget <= 15*12; budget += 15 {
		s := newSolver(t, Config{MaxEvaluations: budget})
		est, err := s.IntegratePoint(context.Background(), step, integration.Bounds{{Min: 0, Max: 1}})
		require.NoError(t, err)
		assert.LessOrEqual(t, est.Evaluations, budget, "budget %d", budget)
	}
}

func TestBudgetBelowOneRegionIsRejected(t *testing.T) {
	s := newSolver(t, Config{MaxEvaluations: 100})
	_, err := s.IntegratePoint(context.Background(), func([]float64) (float64, error) { return 1, nil }, integration.Cube(2, 0, 1))
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestHighDimensionalRuleIsRejectedBeforeEvaluating(t *testing.T) {
	for _, tt := range []struct {
		rule string
		dim  int
	}{
		{RuleGK15, 19},
		{RuleGK15, 40},
		{RuleGK7, 23},
	} {
		calls := 0
		s := newSolver(t, Config{Rule: tt.rule, MaxEvaluations: 1000})
		_, err := s.IntegratePoint(context.Background(), counted(func([]float64) (float64, error) { return 1, nil }, &calls), integration.Cube(tt.dim, 0, 1))
		assert.True(t, errors.Is(err, errors.ErrValidation), "%s in %d dimensions", tt.rule, tt.dim)
		assert.Zero(t, calls)
	}
}

func TestBudgetIsSharedBetweenDifficultHalves(t *testing.T) {
	band := func(x []float64) (float64, error) {
		if x[0] > 0.3 && x[0] < 0.7 {
			return 1, nil
		}
		return 0, nil
	}

	budget := 15 * 41
	s := newSolver(t, Config{MaxEvaluations: budget})
	est, err := s.IntegratePoint(context.Background(), band, integration.Bounds{{Min: 0, Max: 1}})
	require.NoError(t, err)

	assert.LessOrEqual(t, est.Evaluations, budget)
	assert.InDelta(t, 0.4, est.Value, 0.01)
	assert.Less(t, est.ErrorEstimate, 0.01, "both edges of the band are refined")
}

func TestTinyVolumeStillUsesTolerance(t *testing.T) {
	calls := 0
	one := func([]float64) (float64, error) { return 1, nil }
	bounds := integration.Bounds{{Min: 0, Max: 1e-200}, {Min: 0, Max: 1e-200}}
	require.Zero(t, bounds.Volume(), "volume underflows")

	est, err := newSolver(t, Config{}).IntegratePoint(context.Background(), counted(one, &calls), bounds)
	require.NoError(t, err)
	assert.Equal(t, 225, est.Evaluations, "the first region is accepted")
	assert.Equal(t, calls, est.Evaluations)
}

func TestEvaluationFailureIsConvergenceError(t *testing.T) {
	cause := fmt.Errorf("pole")
	f := func(x []float64) (float64, error) {
		if x[0] > 0.5 {
			return 0, cause
		}
		return x[0], nil
	}

	_, err := newSolver(t, Config{}).IntegratePoint(context.Background(), f, integration.Bounds{{Min: 0, Max: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConvergence))
	assert.True(t, errors.Is(err, errors.ErrEvaluation))
	assert.ErrorIs(t, err, cause)
}

func TestNonFiniteIsConvergenceError(t *testing.T) {
	f := func(x []float64) (float64, error) { return 1 / (x[0] - x[0]), nil }

	_, err := newSolver(t, Config{}).IntegratePoint(context.Background(), f, integration.Bounds{{Min: 0, Max: 1}})
	assert.True(t, errors.Is(err, errors.ErrConvergence))
	assert.True(t, errors.Is(err, errors.ErrPrecision))
}

func TestBatchContractIsCalledOnePointAtATime(t *testing.T) {
	calls := 0
	f := func(points mat.Matrix) ([]float64, error) {
		calls++
		n, d := points.Dims()
		require.Equal(t, 1, n)
		require.Equal(t, 2, d)
		return []float64{points.At(0, 0) * points.At(0, 1)}, nil
	}

	est, err := newSolver(t, Config{}).Integrate(context.Background(), f, integration.Cube(2, 0, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, est.Value, 1e-12)
	assert.Equal(t, calls, est.Evaluations)
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSolver(t, Config{}).IntegratePoint(ctx, func([]float64) (float64, error) { return 1, nil }, integration.Bounds{{Min: 0, Max: 1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsBadConfig(t *testing.T) {
	for _, cfg := range []Config{
		{MaxDepth: 0, Tolerance: 1, MaxEvaluations: 1},
		{MaxDepth: 1, Tolerance: 0, MaxEvaluations: 1},
		{MaxDepth: 1, Tolerance: -1, MaxEvaluations: 1},
		{MaxDepth: 1, Tolerance: math.NaN(), MaxEvaluations: 1},
		{MaxDepth: 1, Tolerance: 1, MaxEvaluations: 0},
		{MaxDepth: 1, Tolerance: 1, MaxEvaluations: 1, Rule: "trapezoid"},
	} {
		_, err := New(cfg)
		assert.True(t, errors.Is(err, errors.ErrValidation), "%+v", cfg)
	}
}
