// Package object is a small reference heap for exercising the inline cache
// system: objects with named fields, elements backing stores and prototype
// chains, plus the fully generic (uncached) load and store paths every
// handler must agree with.
package object

import (
	"errors"
	"fmt"
	"math"
)

// Value is any value of the reference language:
//   - int for small integers (smis)
//   - float64 for heap numbers
//   - string, bool
//   - *Object for heap objects
//   - *Oddball for undefined, null and the hole
//
// Every Value is comparable with ==.
type Value any

// Oddball is a singleton non-object value.
type Oddball struct {
	name string
}

func (o *Oddball) String() string { return o.name }

var (
	Undefined = &Oddball{name: "undefined"}
	Null      = &Oddball{name: "null"}
	// Hole marks a missing element in a holey backing store. It never
	// escapes a load.
	Hole = &Oddball{name: "the_hole"}
)

// ErrTypeError is the language-level TypeError raised by generic accesses.
var ErrTypeError = errors.New("TypeError")

func typeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTypeError, fmt.Sprintf(format, args...))
}

const (
	smiMin = math.MinInt32
	smiMax = math.MaxInt32
)

// IsSmi reports whether v is a small integer.
func IsSmi(v Value) bool {
	i, ok := v.(int)
	return ok && i >= smiMin && i <= smiMax
}

// IsNumber reports whether v is a smi or a heap number.
func IsNumber(v Value) bool {
	switch v.(type) {
	case int, float64:
		return true
	}
	return false
}

// IsHeapNumber reports whether v is a number that is not a smi.
func IsHeapNumber(v Value) bool {
	return IsNumber(v) && !IsSmi(v)
}

// NormalizeNumber returns v as a smi when it holds an integral value in smi
// range, so the same number always has the same representation.
func NormalizeNumber(v Value) Value {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && n >= smiMin && n <= smiMax && !(n == 0 && math.Signbit(n)) {
			return int(n)
		}
	case int:
		if n < smiMin || n > smiMax {
			return float64(n)
		}
	}
	return v
}

// ToNumber converts v the way element stores into typed arrays do.
func ToNumber(v Value) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	case bool:
		if n {
			return 1
		}
		return 0
	case *Oddball:
		if n == Null {
			return 0
		}
	}
	return math.NaN()
}

func toFloat(v Value) float64 {
	if i, ok := v.(int); ok {
		return float64(i)
	}
	return v.(float64)
}

// modulo wraps the integral part of f into [0, m).
func modulo(f, m float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	n := math.Mod(math.Trunc(f), m)
	if n < 0 {
		n += m
	}
	return n
}

func toInt32(f float64) int { return int(int32(uint32(modulo(f, 1<<32)))) }
func toUint8(f float64) int { return int(modulo(f, 1<<8)) }
