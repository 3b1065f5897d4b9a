// Package fixed implements the 24.8 signed fixed-point numbers used for
// pointer coordinates on the wire.
package fixed

import "math"

// Fixed is a signed 24.8 fixed-point number.
type Fixed int32

// One is the fixed-point representation of 1.
const One Fixed = 256

// FromInt converts an integer to fixed point.
func FromInt(i int32) Fixed {
	return Fixed(i * 256)
}

// FromFloat converts a float to fixed point, rounding to the nearest 1/256.
func FromFloat(f float64) Fixed {
	return Fixed(math.Round(f * 256))
}

// Int returns the integer part, rounding towards negative infinity so that
// containment tests behave the same on both sides of the origin.
func (f Fixed) Int() int32 {
	return int32(f) >> 8
}

// Frac returns the fractional part in 1/256 units.
func (f Fixed) Frac() int32 {
	return int32(f) & 0xff
}

// Float converts the value to a float64.
func (f Fixed) Float() float64 {
	return float64(f) / 256
}
