package mesh

import "math"

// Field is a per-cell scalar field (temperature, source terms) indexed the
// same way as Grid cells.
type Field []float64

func (f Field) Clone() Field {
	c := make(Field, len(f))
	copy(c, f)
	return c
}

// IsValid reports whether the field is free of NaN and Inf values.
func (f Field) IsValid() bool {
	for _, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (f Field) Max() float64 {
	if len(f) == 0 {
		return 0
	}
	m := f[0]
	for _, v := range f[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func (f Field) Min() float64 {
	if len(f) == 0 {
		return 0
	}
	m := f[0]
	for _, v := range f[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func (f Field) Mean() float64 {
	if len(f) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range f {
		sum += v
	}
	return sum / float64(len(f))
}

// Fill sets every entry to v.
func (f Field) Fill(v float64) {
	for i := range f {
		f[i] = v
	}
}
