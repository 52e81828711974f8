// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dtype

// Value is the tagged scalar value type shared by keywords and array
// elements. It avoids boxing into interface{} the way schema.Float avoids a
// pointer for a nullable float: one struct, one allocation, typed accessors.
type Value struct {
	typ Type
	i   int64
	f   float64
	s   string
}

// Type reports the value's kind.
func (v Value) Type() Type { return v.typ }

// Int64 returns the integer payload; valid only when Type().IsInteger().
func (v Value) Int64() int64 { return v.i }

// Float64 returns the float payload; valid only when Type().IsFloat().
func (v Value) Float64() float64 { return v.f }

// String returns the string payload; valid only when Type() == String.
func (v Value) String() string { return v.s }

// NewInt builds an integer-kind Value. t must be Char, Short, Int, or Long.
func NewInt(t Type, i int64) Value {
	return Value{typ: t, i: i}
}

// NewFloat builds a float-kind Value. t must be Float, Double, or Time.
func NewFloat(t Type, f float64) Value {
	return Value{typ: t, f: f}
}

// NewString builds a String-kind Value.
func NewString(s string) Value {
	return Value{typ: String, s: s}
}

// Equal compares two values of the same type. Two missing sentinels of the
// same type compare equal; NaN payloads that are not the missing sentinel
// never compare equal to anything, matching IEEE semantics.
func Equal(t Type, a, b Value) bool {
	switch t {
	case Char, Short, Int, Long:
		return a.i == b.i
	case Float:
		af, bf := float32(a.f), float32(b.f)
		if IsMissingFloat32(af) && IsMissingFloat32(bf) {
			return true
		}
		return af == bf
	case Double, Time:
		if IsMissingFloat64(a.f) && IsMissingFloat64(b.f) {
			return true
		}
		return a.f == b.f
	case String:
		return a.s == b.s
	default:
		return false
	}
}
