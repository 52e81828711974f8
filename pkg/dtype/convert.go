// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dtype

import (
	"fmt"
	"math"
	"strconv"

	"github.com/heliocore/drms-export/pkg/xerr"
)

// Convert maps srcV (of type srcT) into a Value of type dstT:
//   - Overflow when the source value cannot be represented in the
//     destination type.
//   - Unsupported when either endpoint is String paired with a numeric
//     type and no textual parse/format is defined for the value at hand.
//   - converting a missing-value sentinel to a numeric type yields the
//     destination type's own missing-value sentinel (never a parse/format
//     attempt); converting one to String is Unsupported, since String has
//     no sentinel.
func Convert(srcT Type, srcV Value, dstT Type) (Value, error) {
	if srcT == Raw || dstT == Raw {
		return Value{}, fmt.Errorf("convert %s -> %s: %w", srcT, dstT, xerr.Unsupported)
	}
	if srcT == dstT {
		return srcV, nil
	}
	if srcT != String && IsMissing(srcV) {
		if dstT == String {
			return Value{}, fmt.Errorf("convert missing %s -> String: %w", srcT, xerr.Unsupported)
		}
		return AllocateMissing(dstT), nil
	}

	switch {
	case srcT.IsInteger() && dstT.IsInteger():
		return convertIntToInt(srcT, srcV.i, dstT)
	case srcT.IsInteger() && dstT.IsFloat():
		return NewFloat(dstT, float64(srcV.i)), nil
	case srcT.IsInteger() && dstT == String:
		return NewString(strconv.FormatInt(srcV.i, 10)), nil

	case srcT.IsFloat() && dstT.IsInteger():
		return convertFloatToInt(srcV.f, dstT)
	case srcT.IsFloat() && dstT.IsFloat():
		return convertFloatToFloat(srcV.f, dstT)
	case srcT.IsFloat() && dstT == String:
		return NewString(formatFloat(srcV.f, srcT)), nil

	case srcT == String && dstT.IsInteger():
		n, err := strconv.ParseInt(srcV.s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("convert String %q -> %s: %w", srcV.s, dstT, xerr.Unsupported)
		}
		return convertIntToInt(Long, n, dstT)
	case srcT == String && dstT.IsFloat():
		f, err := strconv.ParseFloat(srcV.s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("convert String %q -> %s: %w", srcV.s, dstT, xerr.Unsupported)
		}
		return NewFloat(dstT, f), nil
	}

	return Value{}, fmt.Errorf("convert %s -> %s: %w", srcT, dstT, xerr.Unsupported)
}

func convertIntToInt(srcT Type, v int64, dstT Type) (Value, error) {
	lo, hi := IntegerMin(dstT), IntegerMax(dstT)
	if v < lo || v > hi {
		return Value{}, fmt.Errorf("convert %s value %d -> %s: %w", srcT, v, dstT, xerr.Overflow)
	}
	if v == lo {
		// The only representable value equal to the destination sentinel
		// is the sentinel itself; a genuine value colliding with it is
		// indistinguishable from "missing" and must be rejected rather
		// than silently reinterpreted.
		return Value{}, fmt.Errorf("convert %s value %d -> %s: collides with missing sentinel: %w", srcT, v, dstT, xerr.Overflow)
	}
	return NewInt(dstT, v), nil
}

func convertFloatToInt(v float64, dstT Type) (Value, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}, fmt.Errorf("convert non-finite float -> %s: %w", dstT, xerr.Overflow)
	}
	r := math.Round(v)
	lo, hi := float64(IntegerMin(dstT)), float64(IntegerMax(dstT))
	if r < lo || r > hi {
		return Value{}, fmt.Errorf("convert float value %v -> %s: %w", v, dstT, xerr.Overflow)
	}
	return convertIntToInt(Double, int64(r), dstT)
}

func convertFloatToFloat(v float64, dstT Type) (Value, error) {
	if dstT == Float {
		if !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) > math.MaxFloat32 {
			return Value{}, fmt.Errorf("convert double value %v -> Float: %w", v, xerr.Overflow)
		}
		return NewFloat(Float, float64(float32(v))), nil
	}
	// Double and Time share the same in-memory representation.
	return NewFloat(dstT, v), nil
}

func formatFloat(v float64, srcT Type) string {
	bits := 64
	if srcT == Float {
		bits = 32
	}
	return strconv.FormatFloat(v, 'g', -1, bits)
}
