package integration

import (
	"math"
	"strconv"
	"strings"

	"gointegral/internal/errors"

	"gonum.org/v1/gonum/floats"
)

// Interval is one axis of an axis-aligned hyperrectangle.
type Interval struct {
	Min float64
	Max float64
}

// Width returns Max - Min.
func (iv Interval) Width() float64 {
	return iv.Max - iv.Min
}

// Mid returns the interval midpoint.
func (iv Interval) Mid() float64 {
	return iv.Min + 0.5*(iv.Max-iv.Min)
}

// Bounds is an ordered list of D intervals. It is the sampling and
// subdivision domain for every solver.
type Bounds []Interval

// NewBounds builds Bounds from (min, max) pairs and validates them.
func NewBounds(pairs ...[2]float64) (Bounds, error) {
	b := make(Bounds, len(pairs))
	for i, p := range pairs {
		b[i] = Interval{Min: p[0], Max: p[1]}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Cube returns the hypercube [lo, hi]^dim.
func Cube(dim int, lo, hi float64) Bounds {
	b := make(Bounds, dim)
	for i := range b {
		b[i] = Interval{Min: lo, Max: hi}
	}
	return b
}

// ParseBounds decodes loosely shaped input, requiring a (D, 2) structure.
func ParseBounds(rows [][]float64) (Bounds, error) {
	if len(rows) == 0 {
		return nil, errors.ValidationError("bounds must contain at least one (min, max) pair")
	}
	b := make(Bounds, len(rows))
	for i, row := range rows {
		if len(row) != 2 {
			return nil, errors.ValidationErrorf("bounds row %d has %d entries, want (min, max)", i, len(row))
		}
		b[i] = Interval{Min: row[0], Max: row[1]}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// ParseBoundsSpec parses the textual form "min:max,min:max,...".
func ParseBoundsSpec(spec string) (Bounds, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.ValidationError("bounds string is empty")
	}
	parts := strings.Split(spec, ",")
	rows := make([][]float64, 0, len(parts))
	for i, part := range parts {
		ends := strings.Split(strings.TrimSpace(part), ":")
		if len(ends) != 2 {
			return nil, errors.ValidationErrorf("bounds axis %d: %q is not min:max", i, part)
		}
		lo, err := strconv.ParseFloat(strings.TrimSpace(ends[0]), 64)
		if err != nil {
			return nil, errors.WithCode(errors.CodeValidationError, errors.Wrapf(err, "bounds axis %d: bad min", i))
		}
		hi, err := strconv.ParseFloat(strings.TrimSpace(ends[1]), 64)
		if err != nil {
			return nil, errors.WithCode(errors.CodeValidationError, errors.Wrapf(err, "bounds axis %d: bad max", i))
		}
		rows = append(rows, []float64{lo, hi})
	}
	return ParseBounds(rows)
}

// Validate checks D >= 1, finite endpoints and Min < Max on every axis.
func (b Bounds) Validate() error {
	if len(b) == 0 {
		return errors.ValidationError("bounds must contain at least one (min, max) pair")
	}
	for i, iv := range b {
		if math.IsNaN(iv.Min) || math.IsNaN(iv.Max) || math.IsInf(iv.Min, 0) || math.IsInf(iv.Max, 0) {
			return errors.ValidationErrorf("bounds axis %d: endpoints must be finite, got (%g, %g)", i, iv.Min, iv.Max)
		}
		if !(iv.Min < iv.Max) {
			return errors.ValidationErrorf("bounds axis %d: min must be less than max, got (%g, %g)", i, iv.Min, iv.Max)
		}
	}
	return nil
}

// Dimension returns D.
func (b Bounds) Dimension() int {
	return len(b)
}

// Widths returns max_i - min_i per axis.
func (b Bounds) Widths() []float64 {
	w := make([]float64, len(b))
	for i, iv := range b {
		w[i] = iv.Width()
	}
	return w
}

// Volume returns the hypervolume of the rectangle.
func (b Bounds) Volume() float64 {
	if len(b) == 0 {
		return 0
	}
	return floats.Prod(b.Widths())
}

// LongestAxis returns the index of the widest axis (first one on ties).
func (b Bounds) LongestAxis() int {
	return floats.MaxIdx(b.Widths())
}

// Bisect splits the rectangle in half along axis.
func (b Bounds) Bisect(axis int) (Bounds, Bounds) {
	lower := b.Clone()
	upper := b.Clone()
	mid := b[axis].Mid()
	lower[axis].Max = mid
	upper[axis].Min = mid
	return lower, upper
}

// Clone returns an independent copy.
func (b Bounds) Clone() Bounds {
	out := make(Bounds, len(b))
	copy(out, b)
	return out
}

func (b Bounds) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, iv := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(iv.Min, 'g', -1, 64))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(iv.Max, 'g', -1, 64))
	}
	sb.WriteByte(']')
	return sb.String()
}
