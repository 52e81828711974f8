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
	"github.com/heliocore/drms-export/pkg/xerr"
)

// TASBackend implements Backend for the TAS protocol: one file per storage
// unit, rank naxis+1, with the trailing axis indexing each record's slot.
// Full-array reads across all slots are rare; TAS is built around
// record-at-a-time addressing, so Read treats seg.RecordRecnum's slot as
// the only axis of interest via ReadSlice.
type TASBackend struct {
	PathOf func(seg *store.Segment) string
	// SlotOf resolves the record's slot number within the TAS file.
	SlotOf func(seg *store.Segment) (int64, error)
}

func (b *TASBackend) Read(ctx context.Context, seg *store.Segment, dstType dtype.Type) (*store.Array, error) {
	slot, err := b.SlotOf(seg)
	if err != nil {
		return nil, err
	}
	start := make([]int64, seg.Naxis+1)
	end := make([]int64, seg.Naxis+1)
	for i := 0; i < seg.Naxis; i++ {
		end[i] = seg.Axes[i] - 1
	}
	start[seg.Naxis] = slot
	end[seg.Naxis] = slot
	return b.ReadSlice(ctx, seg, dstType, start, end)
}

func (b *TASBackend) ReadSlice(ctx context.Context, seg *store.Segment, dstType dtype.Type, start, end []int64) (*store.Array, error) {
	path := b.PathOf(seg)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return newMissingArray(seg, dstType), nil
	}
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	defer f.Close()

	full, err := readBinaryArray(f, seg, dstType)
	if err != nil {
		return nil, err
	}
	if len(start) != full.Naxis {
		return nil, fmt.Errorf("segment: tas slice rank %d does not match file rank %d: %w", len(start), full.Naxis, xerr.BadRequest)
	}
	return sliceArray(full, start, end, true)
}

func (b *TASBackend) Write(ctx context.Context, seg *store.Segment, a *store.Array, autoscale bool) error {
	slot, err := b.SlotOf(seg)
	if err != nil {
		return err
	}
	path := b.PathOf(seg)

	full, err := b.readOrAllocateFull(path, seg, a.Type)
	if err != nil {
		return err
	}

	if err := writeHyperplane(full, a, slot); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("segment: create %s: %w", path, err)
	}
	defer f.Close()
	return writeBinaryArray(f, full, seg, autoscale)
}

// readOrAllocateFull loads the full multi-slot TAS array, or allocates a
// fresh one sized for a single record if the file does not yet exist. The
// number of slots is taken from seg.Blocksize[0] when known, else 1. The
// file is never grown afterwards: writeHyperplane rejects a slot outside
// the allocated range.
func (b *TASBackend) readOrAllocateFull(path string, seg *store.Segment, t dtype.Type) (*store.Array, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		slots := int64(1)
		if len(seg.Blocksize) > 0 && seg.Blocksize[0] > 0 {
			slots = seg.Blocksize[0]
		}
		axes := append(append([]int64(nil), seg.Axes...), slots)
		n := int64(1)
		for _, ax := range axes {
			n *= ax
		}
		data := make([]dtype.Value, n)
		missing := dtype.AllocateMissing(t)
		for i := range data {
			data[i] = missing
		}
		return &store.Array{Type: t, Naxis: len(axes), Axes: axes, Data: data, Bscale: 1.0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	defer f.Close()
	return readBinaryArray(f, seg, t)
}

// writeHyperplane overwrites full's slot-th trailing-axis hyperplane with a.
func writeHyperplane(full, a *store.Array, slot int64) error {
	if slot < 0 || slot >= full.Axes[full.Naxis-1] {
		return fmt.Errorf("segment: tas slot %d out of range [0,%d): %w", slot, full.Axes[full.Naxis-1], xerr.BadRequest)
	}
	start := make([]int64, full.Naxis)
	end := make([]int64, full.Naxis)
	for i := 0; i < full.Naxis-1; i++ {
		end[i] = full.Axes[i] - 1
	}
	start[full.Naxis-1] = slot
	end[full.Naxis-1] = slot

	idx := make([]int64, full.Naxis)
	copy(idx, start)
	i := 0
	walkHyperplane(idx, start, end, func(coord []int64) {
		offset := flatIndex(coord, full.Axes)
		if i < len(a.Data) {
			full.Data[offset] = a.Data[i]
		}
		i++
	})
	return nil
}

func (b *TASBackend) WriteFromFile(ctx context.Context, seg *store.Segment, path string) error {
	return fmt.Errorf("segment: write_from_file not supported for TAS protocol: %w", xerr.Unsupported)
}
