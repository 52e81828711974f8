// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"fmt"
	"math"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// Autoscale chooses (bzero, bscale) for writing a to a segment declared as
// dstType, following an ordered set of rules, and returns a new array holding the
// scaled/converted data. It never mutates a.
func Autoscale(a *store.Array, dstType dtype.Type) (*store.Array, error) {
	if dstType == dtype.String {
		return nil, fmt.Errorf("segment: autoscale to String is disabled: %w", xerr.Unsupported)
	}

	if !dstType.IsInteger() {
		if !a.IsRaw {
			return rescaleTo(a, dstType, 0, 1)
		}
		return rescaleTo(a, dstType, a.Bzero, a.Bscale)
	}

	lo, hi, ok := valueRange(a)
	if !ok {
		// no non-missing samples: every element is written as the missing
		// sentinel, under identity scaling
		return rescaleTo(a, dstType, 0, 1)
	}

	outMin := dtype.IntegerMin(dstType) + 1 // exclude the missing sentinel
	outMax := dtype.IntegerMax(dstType)

	if a.IsRaw && preservesIntegers(a.Bzero, a.Bscale) {
		scaledLo := (lo - a.Bzero) / a.Bscale
		scaledHi := (hi - a.Bzero) / a.Bscale
		if scaledLo >= float64(outMin) && scaledHi <= float64(outMax) {
			return rescaleTo(a, dstType, a.Bzero, a.Bscale)
		}
	}

	bzero := (hi + lo) / 2
	bscale := 1.0
	if outMax > outMin {
		bscale = (hi - lo) / float64(outMax-outMin)
	}
	if bscale == 0 {
		bscale = 1.0
	}
	return rescaleTo(a, dstType, bzero, bscale)
}

// preservesIntegers reports whether round((x-bzero)/bscale) is an integer
// for integer x, which holds exactly when bscale==1 and bzero is integral.
func preservesIntegers(bzero, bscale float64) bool {
	return bscale == 1.0 && bzero == math.Trunc(bzero)
}

func valueRange(a *store.Array) (lo, hi float64, ok bool) {
	first := true
	for _, v := range a.Data {
		if dtype.IsMissing(v) {
			continue
		}
		var f float64
		if a.Type.IsFloat() {
			f = v.Float64()
		} else {
			f = float64(v.Int64())
		}
		if first {
			lo, hi = f, f
			first = false
			continue
		}
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	return lo, hi, !first
}

// rescaleTo converts a's values into dstType's storage representation
// under the given (bzero, bscale), producing a raw array.
func rescaleTo(a *store.Array, dstType dtype.Type, bzero, bscale float64) (*store.Array, error) {
	out := &store.Array{
		Type:   dstType,
		Naxis:  a.Naxis,
		Axes:   append([]int64(nil), a.Axes...),
		Bzero:  bzero,
		Bscale: bscale,
		IsRaw:  true,
		Parent: a.Parent,
	}
	out.Data = make([]dtype.Value, len(a.Data))
	for i, v := range a.Data {
		if dtype.IsMissing(v) {
			out.Data[i] = dtype.AllocateMissing(dstType)
			continue
		}
		var phys float64
		if a.Type.IsFloat() {
			phys = v.Float64()
		} else {
			phys = float64(v.Int64())
		}
		if dstType.IsInteger() {
			stored := math.Round((phys - bzero) / bscale)
			if stored < float64(dtype.IntegerMin(dstType)+1) || stored > float64(dtype.IntegerMax(dstType)) {
				return nil, fmt.Errorf("segment: autoscale: element %d overflows %s: %w", i, dstType, xerr.Overflow)
			}
			out.Data[i] = dtype.NewInt(dstType, int64(stored))
		} else {
			out.Data[i] = dtype.NewFloat(dstType, (phys-bzero)/bscale)
		}
	}
	return out, nil
}
