package testkit

import (
	"context"
	"math"
	"testing"

	"gointegral/adapters/quadrature"
	"gointegral/domain/integration"
	"gointegral/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	in, err := Lookup(" Gaussian ")
	require.NoError(t, err)
	assert.Equal(t, "gaussian", in.Name)

	_, err = Lookup("sinc")
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "ripple")
}

func TestNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"ball", "constant", "gaussian", "product", "ripple", "sumsq"}, Names())
}

func TestSmoothIntegrandsMatchQuadrature(t *testing.T) {
	solver, err := quadrature.New(quadrature.Config{
		MaxDepth:       20,
		Tolerance:      1e-10,
		MaxEvaluations: 1_000_000,
	})
	require.NoError(t, err)

	bounds := integration.Bounds{{Min: -0.5, Max: 1}, {Min: 0.25, Max: 2}}
	for _, name := range []string{"constant", "sumsq", "product", "gaussian"} {
		t.Run(name, func(t *testing.T) {
			in, err := Lookup(name)
			require.NoError(t, err)

			exact, ok := in.Exact(bounds)
			require.True(t, ok)

			est, err := solver.Integrate(context.Background(), in.Func, bounds)
			require.NoError(t, err)
			assert.InDelta(t, exact, est.Value, 1e-8)
		})
	}
}

func TestClosedForms(t *testing.T) {
	sumsq, _ := Lookup("sumsq")
	v, _ := sumsq.Exact(integration.Cube(3, 0, 1))
	assert.InDelta(t, 1.0, v, 1e-15)

	product, _ := Lookup("product")
	v, _ = product.Exact(integration.Cube(4, 0, 2))
	assert.InDelta(t, 16.0, v, 1e-12)

	ball, _ := Lookup("ball")
	v, ok := ball.Exact(ball.DefaultBounds(2))
	require.True(t, ok)
	assert.InDelta(t, math.Pi, v, 1e-12)

	_, ok = ball.Exact(integration.Cube(2, 0, 1))
	assert.False(t, ok, "a box that cuts the ball has no closed form here")

	ripple, _ := Lookup("ripple")
	_, ok = ripple.Exact(ripple.DefaultBounds(2))
	assert.False(t, ok)
}

func TestBallIndicator(t *testing.T) {
	ball, _ := Lookup("ball")
	f := ball.Func.AtPoint()

	in, err := f([]float64{0.5, 0.5})
	require.NoError(t, err)
	out, err := f([]float64{0.9, 0.9})
	require.NoError(t, err)

	assert.Equal(t, 1.0, in)
	assert.Equal(t, 0.0, out)
}

func TestRippleAtOrigin(t *testing.T) {
	ripple, _ := Lookup("ripple")
	v, err := ripple.Func.AtPoint()([]float64{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestCounter(t *testing.T) {
	constant, _ := Lookup("constant")
	c := NewCounter(constant.Func)

	f := c.Func().AtPoint()
	for i := 0; i < 5; i++ {
		_, err := f([]float64{0.1})
		require.NoError(t, err)
	}
	assert.Equal(t, 5, c.Points())
	assert.Equal(t, 5, c.Calls())
}
