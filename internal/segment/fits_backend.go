// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"context"
	"fmt"
	"os"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/fits"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// FITSBackend implements Backend for the FITS and FITS_TILED protocols.
// Write does not read Tiled, seg.Blocksize or any cparms string: a
// FITS_TILED segment is written uncompressed through the same
// header/array bridge as a plain FITS segment.
type FITSBackend struct {
	PathOf func(seg *store.Segment) string
	Tiled  bool
}

func (b *FITSBackend) Read(ctx context.Context, seg *store.Segment, dstType dtype.Type) (*store.Array, error) {
	path := b.PathOf(seg)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return newMissingArray(seg, dstType), nil
	}
	if err != nil {
		return nil, fmt.Errorf("segment: open %s: %w", path, err)
	}
	defer f.Close()

	h, err := fits.ParseHeader(f)
	if err != nil {
		return nil, fmt.Errorf("segment: %s: %w", path, err)
	}
	info, err := fits.ImageInfoFromHeader(h)
	if err != nil {
		return nil, fmt.Errorf("segment: %s: %w", path, err)
	}
	storeType, err := fits.BitpixToType(info.Bitpix)
	if err != nil {
		return nil, err
	}

	n := int64(1)
	for _, ax := range info.Axes {
		n *= ax
	}
	raw := make([]dtype.Value, n)
	if err := readImageData(f, storeType, raw); err != nil {
		return nil, fmt.Errorf("segment: %s: %w", path, err)
	}

	a := &store.Array{
		Type:   storeType,
		Naxis:  info.Naxis,
		Axes:   info.Axes,
		Data:   raw,
		IsRaw:  true,
		Parent: seg,
	}
	if info.Bzero != nil {
		a.Bzero = *info.Bzero
	}
	if info.Bscale != nil {
		a.Bscale = *info.Bscale
	} else {
		a.Bscale = 1.0
	}

	if info.Blank != nil {
		fits.ShootBlanks(a, *info.Blank)
	}

	if dstType != storeType {
		converted := make([]dtype.Value, len(a.Data))
		for i, v := range a.Data {
			cv, err := dtype.Convert(storeType, v, dstType)
			if err != nil {
				return nil, fmt.Errorf("segment: %s: element %d: %w", path, i, err)
			}
			converted[i] = cv
		}
		a.Data = converted
		a.Type = dstType
		a.IsRaw = false
	}

	return a, nil
}

func (b *FITSBackend) ReadSlice(ctx context.Context, seg *store.Segment, dstType dtype.Type, start, end []int64) (*store.Array, error) {
	full, err := b.Read(ctx, seg, dstType)
	if err != nil {
		return nil, err
	}
	return sliceArray(full, start, end, false)
}

func (b *FITSBackend) Write(ctx context.Context, seg *store.Segment, a *store.Array, autoscale bool) error {
	path := b.PathOf(seg)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("segment: create %s: %w", path, err)
	}
	defer f.Close()

	out := a
	if autoscale {
		scaled, err := Autoscale(a, seg.Type)
		if err != nil {
			return err
		}
		out = scaled
	}

	info, err := fits.DeriveImageInfo(out)
	if err != nil {
		return err
	}
	h := &fits.Header{}
	info.ApplyToHeader(h)
	if _, err := h.WriteTo(f); err != nil {
		return fmt.Errorf("segment: %s: write header: %w", path, err)
	}
	if err := writeImageData(f, out.Type, out.Data); err != nil {
		return fmt.Errorf("segment: %s: write image: %w", path, err)
	}
	return nil
}

func (b *FITSBackend) WriteFromFile(ctx context.Context, seg *store.Segment, path string) error {
	return fmt.Errorf("segment: write_from_file not supported for FITS protocol: %w", xerr.Unsupported)
}
