package montecarlo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// accumulator holds the count, sum and sum of squares of values re-centred on
// shift. Re-centring is exact algebra on the raw sums, so merged accumulators
// still reduce sums and sums of squares rather than partial means.
type accumulator struct {
	n     int
	shift float64
	sum   float64
	sumSq float64
}

// accumulate builds the accumulator of one batch. scratch must hold at least
// len(values) entries; values is not modified.
func accumulate(values, scratch []float64) accumulator {
	if len(values) == 0 {
		return accumulator{}
	}
	shift := values[0]
	centred := scratch[:len(values)]
	copy(centred, values)
	floats.AddConst(-shift, centred)
	return accumulator{
		n:     len(values),
		shift: shift,
		sum:   floats.Sum(centred),
		sumSq: floats.Dot(centred, centred),
	}
}

// merge folds b into a, keeping a's shift.
func (a accumulator) merge(b accumulator) accumulator {
	if a.n == 0 {
		return b
	}
	if b.n == 0 {
		return a
	}
	delta := b.shift - a.shift
	bn := float64(b.n)
	return accumulator{
		n:     a.n + b.n,
		shift: a.shift,
		sum:   a.sum + b.sum + bn*delta,
		sumSq: a.sumSq + b.sumSq + 2*delta*b.sum + bn*delta*delta,
	}
}

// mean returns the sample mean of the raw values.
func (a accumulator) mean() float64 {
	return a.shift + a.sum/float64(a.n)
}

// variance returns the population variance sumsq/n - mean^2. Rounding below
// zero is clamped; overflowed sums give NaN or +Inf.
func (a accumulator) variance() float64 {
	n := float64(a.n)
	m := a.sum / n
	v := a.sumSq/n - m*m
	if v < 0 {
		return 0
	}
	return v
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
