// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// binaryHeader is the bespoke header shared by BINARY and BINZIP. It is
// written before the raw big-endian array payload, not after it, and its
// width varies with naxis: type, naxis, the axes, bzero, bscale and the
// raw flag.
type binaryHeader struct {
	Type  dtype.Type
	Axes  []int64
	Bzero float64
	Bscale float64
	IsRaw bool
}

func writeBinaryHeader(w io.Writer, h binaryHeader) error {
	if err := binary.Write(w, binary.BigEndian, int32(h.Type)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, int32(len(h.Axes))); err != nil {
		return err
	}
	for _, ax := range h.Axes {
		if err := binary.Write(w, binary.BigEndian, ax); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.BigEndian, h.Bzero); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, h.Bscale); err != nil {
		return err
	}
	rawFlag := int8(0)
	if h.IsRaw {
		rawFlag = 1
	}
	return binary.Write(w, binary.BigEndian, rawFlag)
}

func readBinaryHeader(r io.Reader) (binaryHeader, error) {
	var h binaryHeader
	var typ, naxis int32
	if err := binary.Read(r, binary.BigEndian, &typ); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.BigEndian, &naxis); err != nil {
		return h, err
	}
	h.Type = dtype.Type(typ)
	h.Axes = make([]int64, naxis)
	for i := range h.Axes {
		if err := binary.Read(r, binary.BigEndian, &h.Axes[i]); err != nil {
			return h, err
		}
	}
	if err := binary.Read(r, binary.BigEndian, &h.Bzero); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.BigEndian, &h.Bscale); err != nil {
		return h, err
	}
	var rawFlag int8
	if err := binary.Read(r, binary.BigEndian, &rawFlag); err != nil {
		return h, err
	}
	h.IsRaw = rawFlag != 0
	return h, nil
}

// BinaryBackend implements Backend for the BINARY protocol.
type BinaryBackend struct {
	PathOf func(seg *store.Segment) string
}

func (b *BinaryBackend) open(seg *store.Segment) (io.ReadCloser, error) {
	f, err := os.Open(b.PathOf(seg))
	return f, err
}

func (b *BinaryBackend) Read(ctx context.Context, seg *store.Segment, dstType dtype.Type) (*store.Array, error) {
	f, err := b.open(seg)
	if os.IsNotExist(err) {
		return newMissingArray(seg, dstType), nil
	}
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	defer f.Close()
	return readBinaryArray(f, seg, dstType)
}

func readBinaryArray(r io.Reader, seg *store.Segment, dstType dtype.Type) (*store.Array, error) {
	br := bufio.NewReader(r)
	hdr, err := readBinaryHeader(br)
	if err != nil {
		return nil, fmt.Errorf("segment: binary header: %w", err)
	}

	n := int64(1)
	for _, ax := range hdr.Axes {
		n *= ax
	}
	raw := make([]dtype.Value, n)
	if err := readImageData(br, hdr.Type, raw); err != nil {
		return nil, fmt.Errorf("segment: binary payload: %w", err)
	}

	a := &store.Array{
		Type:   hdr.Type,
		Naxis:  len(hdr.Axes),
		Axes:   hdr.Axes,
		Data:   raw,
		Bzero:  hdr.Bzero,
		Bscale: hdr.Bscale,
		IsRaw:  hdr.IsRaw,
		Parent: seg,
	}

	if dstType != hdr.Type {
		converted := make([]dtype.Value, len(a.Data))
		for i, v := range a.Data {
			cv, err := dtype.Convert(hdr.Type, v, dstType)
			if err != nil {
				return nil, fmt.Errorf("segment: element %d: %w", i, err)
			}
			converted[i] = cv
		}
		a.Data = converted
		a.Type = dstType
		a.IsRaw = false
	}
	return a, nil
}

func (b *BinaryBackend) ReadSlice(ctx context.Context, seg *store.Segment, dstType dtype.Type, start, end []int64) (*store.Array, error) {
	full, err := b.Read(ctx, seg, dstType)
	if err != nil {
		return nil, err
	}
	return sliceArray(full, start, end, false)
}

func (b *BinaryBackend) Write(ctx context.Context, seg *store.Segment, a *store.Array, autoscale bool) error {
	path := b.PathOf(seg)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("segment: create %s: %w", path, err)
	}
	defer f.Close()
	return writeBinaryArray(f, a, seg, autoscale)
}

func writeBinaryArray(w io.Writer, a *store.Array, seg *store.Segment, autoscale bool) error {
	out := a
	if autoscale {
		scaled, err := Autoscale(a, seg.Type)
		if err != nil {
			return err
		}
		out = scaled
	}
	hdr := binaryHeader{Type: out.Type, Axes: out.Axes, Bzero: out.Bzero, Bscale: out.Bscale, IsRaw: out.IsRaw}
	if out.Bscale == 0 {
		hdr.Bscale = 1.0
	}
	if err := writeBinaryHeader(w, hdr); err != nil {
		return err
	}
	return writeImageData(w, out.Type, out.Data)
}

func (b *BinaryBackend) WriteFromFile(ctx context.Context, seg *store.Segment, path string) error {
	return fmt.Errorf("segment: write_from_file not supported for BINARY protocol: %w", xerr.Unsupported)
}

// BinzipBackend implements Backend for the BINZIP protocol: a BINARY
// payload wrapped in gzip.
type BinzipBackend struct {
	PathOf func(seg *store.Segment) string
}

func (b *BinzipBackend) Read(ctx context.Context, seg *store.Segment, dstType dtype.Type) (*store.Array, error) {
	f, err := os.Open(b.PathOf(seg))
	if os.IsNotExist(err) {
		return newMissingArray(seg, dstType), nil
	}
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("segment: binzip: %w", err)
	}
	defer gz.Close()
	return readBinaryArray(gz, seg, dstType)
}

func (b *BinzipBackend) ReadSlice(ctx context.Context, seg *store.Segment, dstType dtype.Type, start, end []int64) (*store.Array, error) {
	full, err := b.Read(ctx, seg, dstType)
	if err != nil {
		return nil, err
	}
	return sliceArray(full, start, end, false)
}

func (b *BinzipBackend) Write(ctx context.Context, seg *store.Segment, a *store.Array, autoscale bool) error {
	path := b.PathOf(seg)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("segment: create %s: %w", path, err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	if err := writeBinaryArray(gz, a, seg, autoscale); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

func (b *BinzipBackend) WriteFromFile(ctx context.Context, seg *store.Segment, path string) error {
	return fmt.Errorf("segment: write_from_file not supported for BINZIP protocol: %w", xerr.Unsupported)
}
