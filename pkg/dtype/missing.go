// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dtype

import "math"

// Integer missing sentinels use the minimum representable value of the
// destination width.
const (
	MissingChar  int8  = math.MinInt8
	MissingShort int16 = math.MinInt16
	MissingInt   int32 = math.MinInt32
	MissingLong  int64 = math.MinInt64
)

// Float/Double/Time missing sentinels are a quiet NaN with a fixed bit
// pattern: top exponent, top quiet bit set, all other fraction bits set,
// and the low 16 (float32) or 48 (float64) bits zero.
var (
	missingFloatBits  uint32 = 0x7FFF0000
	missingDoubleBits uint64 = 0x7FFF000000000000
)

// MissingFloat32 is the Float missing-value sentinel.
func MissingFloat32() float32 {
	return math.Float32frombits(missingFloatBits)
}

// MissingFloat64 is the Double missing-value sentinel.
func MissingFloat64() float64 {
	return math.Float64frombits(missingDoubleBits)
}

// MissingTime is the reserved NaN used for Time; it shares the Double bit pattern.
func MissingTime() float64 {
	return MissingFloat64()
}

// IsMissingFloat32 reports whether f has exactly the Float missing bit pattern.
func IsMissingFloat32(f float32) bool {
	return math.Float32bits(f) == missingFloatBits
}

// IsMissingFloat64 reports whether f has exactly the Double/Time missing bit pattern.
func IsMissingFloat64(f float64) bool {
	return math.Float64bits(f) == missingDoubleBits
}

// AllocateMissing returns the missing-value sentinel for t as a Value.
// String has no missing sentinel and AllocateMissing panics if asked for one;
// callers must special-case String themselves (strings are either present
// or absent from a container, never individually "missing").
func AllocateMissing(t Type) Value {
	switch t {
	case Char:
		return Value{typ: Char, i: int64(MissingChar)}
	case Short:
		return Value{typ: Short, i: int64(MissingShort)}
	case Int:
		return Value{typ: Int, i: int64(MissingInt)}
	case Long:
		return Value{typ: Long, i: int64(MissingLong)}
	case Float:
		return Value{typ: Float, f: float64(MissingFloat32())}
	case Double:
		return Value{typ: Double, f: MissingFloat64()}
	case Time:
		return Value{typ: Time, f: MissingTime()}
	default:
		panic("dtype: no missing-value sentinel for type " + t.String())
	}
}

// IsMissing reports whether v equals its type's missing-value sentinel.
func IsMissing(v Value) bool {
	switch v.typ {
	case Char:
		return v.i == int64(MissingChar)
	case Short:
		return v.i == int64(MissingShort)
	case Int:
		return v.i == int64(MissingInt)
	case Long:
		return v.i == int64(MissingLong)
	case Float:
		return IsMissingFloat32(float32(v.f))
	case Double, Time:
		return IsMissingFloat64(v.f)
	default:
		return false
	}
}

// IntegerMax returns the largest representable value for an integer type;
// nothing at the top of the range is reserved (the sentinel is IntegerMin).
func IntegerMax(t Type) int64 {
	switch t {
	case Char:
		return math.MaxInt8
	case Short:
		return math.MaxInt16
	case Int:
		return math.MaxInt32
	case Long:
		return math.MaxInt64
	default:
		panic("dtype: IntegerMax of non-integer type " + t.String())
	}
}

// IntegerMin returns the smallest representable value, which doubles as the
// missing-value sentinel for t.
func IntegerMin(t Type) int64 {
	switch t {
	case Char:
		return int64(MissingChar)
	case Short:
		return int64(MissingShort)
	case Int:
		return int64(MissingInt)
	case Long:
		return int64(MissingLong)
	default:
		panic("dtype: IntegerMin of non-integer type " + t.String())
	}
}
