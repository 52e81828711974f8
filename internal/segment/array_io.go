// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// readImageData reads len(out) big-endian elements of t from r (FITS
// byte order) into out.
func readImageData(r io.Reader, t dtype.Type, out []dtype.Value) error {
	switch t {
	case dtype.Char:
		buf := make([]byte, len(out))
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		for i, b := range buf {
			out[i] = dtype.NewInt(t, int64(int8(b)))
		}
	case dtype.Short:
		buf := make([]byte, 2*len(out))
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		for i := range out {
			v := int16(binary.BigEndian.Uint16(buf[2*i:]))
			out[i] = dtype.NewInt(t, int64(v))
		}
	case dtype.Int:
		buf := make([]byte, 4*len(out))
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		for i := range out {
			v := int32(binary.BigEndian.Uint32(buf[4*i:]))
			out[i] = dtype.NewInt(t, int64(v))
		}
	case dtype.Long:
		buf := make([]byte, 8*len(out))
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		for i := range out {
			v := int64(binary.BigEndian.Uint64(buf[8*i:]))
			out[i] = dtype.NewInt(t, v)
		}
	case dtype.Float:
		buf := make([]byte, 4*len(out))
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		for i := range out {
			bits := binary.BigEndian.Uint32(buf[4*i:])
			out[i] = dtype.NewFloat(t, float64(math.Float32frombits(bits)))
		}
	case dtype.Double, dtype.Time:
		buf := make([]byte, 8*len(out))
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		for i := range out {
			bits := binary.BigEndian.Uint64(buf[8*i:])
			out[i] = dtype.NewFloat(t, math.Float64frombits(bits))
		}
	default:
		return fmt.Errorf("segment: cannot read raw data of type %s: %w", t, xerr.Unsupported)
	}
	return nil
}

// writeImageData writes data as big-endian elements of t to w.
func writeImageData(w io.Writer, t dtype.Type, data []dtype.Value) error {
	switch t {
	case dtype.Char:
		buf := make([]byte, len(data))
		for i, v := range data {
			buf[i] = byte(int8(v.Int64()))
		}
		_, err := w.Write(buf)
		return err
	case dtype.Short:
		buf := make([]byte, 2*len(data))
		for i, v := range data {
			binary.BigEndian.PutUint16(buf[2*i:], uint16(int16(v.Int64())))
		}
		_, err := w.Write(buf)
		return err
	case dtype.Int:
		buf := make([]byte, 4*len(data))
		for i, v := range data {
			binary.BigEndian.PutUint32(buf[4*i:], uint32(int32(v.Int64())))
		}
		_, err := w.Write(buf)
		return err
	case dtype.Long:
		buf := make([]byte, 8*len(data))
		for i, v := range data {
			binary.BigEndian.PutUint64(buf[8*i:], uint64(v.Int64()))
		}
		_, err := w.Write(buf)
		return err
	case dtype.Float:
		buf := make([]byte, 4*len(data))
		for i, v := range data {
			binary.BigEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v.Float64())))
		}
		_, err := w.Write(buf)
		return err
	case dtype.Double, dtype.Time:
		buf := make([]byte, 8*len(data))
		for i, v := range data {
			binary.BigEndian.PutUint64(buf[8*i:], math.Float64bits(v.Float64()))
		}
		_, err := w.Write(buf)
		return err
	default:
		return fmt.Errorf("segment: cannot write raw data of type %s: %w", t, xerr.Unsupported)
	}
}

// sliceArray extracts the inclusive hyperplane [start,end] from full.
// len(start) must equal full.Naxis. When dropTrailingAxis is set (the TAS
// record-slot convention), the last axis is dropped from the result shape
// after slicing, since a single-slot slice has a fixed coordinate there.
func sliceArray(full *store.Array, start, end []int64, dropTrailingAxis bool) (*store.Array, error) {
	if len(start) != len(end) {
		return nil, fmt.Errorf("segment: slice start/end length mismatch: %w", xerr.BadRequest)
	}
	naxis := len(start)
	if naxis != full.Naxis {
		return nil, fmt.Errorf("segment: slice rank %d does not match array rank %d: %w", naxis, full.Naxis, xerr.BadRequest)
	}

	sliceAxes := make([]int64, naxis)
	for i := 0; i < naxis; i++ {
		if end[i] < start[i] {
			return nil, fmt.Errorf("segment: slice axis %d has end < start: %w", i, xerr.BadRequest)
		}
		sliceAxes[i] = end[i] - start[i] + 1
	}

	out := &store.Array{
		Type:   full.Type,
		Axes:   sliceAxes,
		IsRaw:  full.IsRaw,
		Bzero:  full.Bzero,
		Bscale: full.Bscale,
		Start:  append([]int64(nil), start...),
		Parent: full.Parent,
	}
	if dropTrailingAxis {
		out.Axes = sliceAxes[:naxis-1]
	}
	out.Naxis = len(out.Axes)

	data := make([]dtype.Value, 0, out.NumElements())
	idx := make([]int64, naxis)
	copy(idx, start)

	walkHyperplane(idx, start, end, func(coord []int64) {
		offset := flatIndex(coord, full.Axes)
		if offset >= 0 && offset < int64(len(full.Data)) {
			data = append(data, full.Data[offset])
		} else {
			data = append(data, dtype.AllocateMissing(full.Type))
		}
	})

	out.Data = data
	return out, nil
}

func walkHyperplane(idx, start, end []int64, visit func([]int64)) {
	n := len(idx)
	for {
		visit(idx)
		i := n - 1
		for i >= 0 {
			idx[i]++
			if idx[i] <= end[i] {
				break
			}
			idx[i] = start[i]
			i--
		}
		if i < 0 {
			return
		}
	}
}

// flatIndex computes the row-major flat offset of coord within an array
// whose per-axis extents are axes.
func flatIndex(coord, axes []int64) int64 {
	var offset int64
	var stride int64 = 1
	for i := len(axes) - 1; i >= 0; i-- {
		offset += coord[i] * stride
		stride *= axes[i]
	}
	return offset
}
