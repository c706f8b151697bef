package integration

import (
	"math"
	"testing"

	"gointegral/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBounds(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]float64
		wantErr bool
	}{
		{"unit square", [][]float64{{0, 1}, {0, 1}}, false},
		{"negative range", [][]float64{{-2, -1}}, false},
		{"empty", nil, true},
		{"ragged", [][]float64{{0, 1}, {0}}, true},
		{"triple", [][]float64{{0, 1, 2}}, true},
		{"min equals max", [][]float64{{1, 1}}, true},
		{"reversed", [][]float64{{1, 0}}, true},
		{"nan", [][]float64{{math.NaN(), 1}}, true},
		{"infinite", [][]float64{{0, math.Inf(1)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseBounds(tt.rows)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.rows), b.Dimension())
		})
	}
}

func TestParseBoundsSpec(t *testing.T) {
	b, err := ParseBoundsSpec(" 0:1, -1:1 ,2.5:4")
	require.NoError(t, err)
	assert.Equal(t, Bounds{{0, 1}, {-1, 1}, {2.5, 4}}, b)
	assert.InDelta(t, 1*2*1.5, b.Volume(), 1e-12)

	for _, bad := range []string{"", "0-1", "a:1", "0:b", "1:0"} {
		_, err := ParseBoundsSpec(bad)
		assert.True(t, errors.Is(err, errors.ErrValidation), "input %q", bad)
	}
}

func TestBoundsGeometry(t *testing.T) {
	b := Bounds{{0, 1}, {0, 4}, {-1, 1}}

	assert.Equal(t, 8.0, b.Volume())
	assert.Equal(t, 1, b.LongestAxis())

	lower, upper := b.Bisect(1)
	assert.Equal(t, Interval{0, 2}, lower[1])
	assert.Equal(t, Interval{2, 4}, upper[1])
	assert.Equal(t, Interval{0, 4}, b[1], "bisect must not alias the parent")
	assert.Equal(t, b.Volume(), lower.Volume()+upper.Volume())

	assert.Equal(t, "[0:1, 0:4, -1:1]", b.String())
	assert.Equal(t, 1.0, Cube(5, 0, 1).Volume())
}
