// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package segment implements the segment I/O engine: protocol
// dispatch across FITS, FITS_TILED, BINARY, BINZIP, TAS, GENERIC, LOCAL and
// DSDS, the autoscale policy, TAS slice addressing and constant-segment
// link-follow semantics. One small Backend interface, one implementation per
// backing format, selected at construction time by the segment's protocol.
package segment

import (
	"context"
	"fmt"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// Backend is the per-protocol segment I/O implementation.
type Backend interface {
	// Read loads the full array for seg, converting to dstType.
	Read(ctx context.Context, seg *store.Segment, dstType dtype.Type) (*store.Array, error)

	// ReadSlice loads the hyperplane of seg bounded by [start,end] (inclusive),
	// converting to dstType. Used for TAS record addressing and sub-array reads.
	ReadSlice(ctx context.Context, seg *store.Segment, dstType dtype.Type, start, end []int64) (*store.Array, error)

	// Write stores a, optionally autoscaling to seg's declared type.
	Write(ctx context.Context, seg *store.Segment, a *store.Array, autoscale bool) error

	// WriteFromFile streams the contents of path into seg's storage unverified
	// (GENERIC protocol only). Other protocols return Unsupported.
	WriteFromFile(ctx context.Context, seg *store.Segment, path string) error
}

// ConstantSegmentResolver looks up and records the canonical recnum a
// Constant-scope segment's shared file lives under.
type ConstantSegmentResolver interface {
	// ResolveConstRecnum returns the recnum whose storage unit holds seg's
	// file, or 0 if the segment has never been written.
	ResolveConstRecnum(ctx context.Context, seg *store.Segment) (int64, error)

	// PersistConstRecnum records recnum as the canonical writer of seg,
	// and fails if a canonical writer is already recorded.
	PersistConstRecnum(ctx context.Context, seg *store.Segment, recnum int64) error
}

// Engine dispatches segment operations to the Backend matching each
// segment's declared protocol, resolving Constant-scope link-follow first.
type Engine struct {
	backends map[store.Protocol]Backend
	resolver ConstantSegmentResolver
}

// NewEngine builds an Engine from a set of per-protocol backends.
func NewEngine(backends map[store.Protocol]Backend, resolver ConstantSegmentResolver) *Engine {
	return &Engine{backends: backends, resolver: resolver}
}

func (e *Engine) backendFor(p store.Protocol) (Backend, error) {
	b, ok := e.backends[p]
	if !ok {
		return nil, fmt.Errorf("segment: no backend registered for protocol %s: %w", p, xerr.Unsupported)
	}
	return b, nil
}

// resolveConstant follows a Constant-scope segment's link to its canonical
// owning record, returning the segment to actually read/write against.
func (e *Engine) resolveConstant(ctx context.Context, seg *store.Segment) (*store.Segment, error) {
	if seg.Scope != store.SegmentConstant || e.resolver == nil {
		return seg, nil
	}
	recnum, err := e.resolver.ResolveConstRecnum(ctx, seg)
	if err != nil {
		return nil, err
	}
	resolved := *seg
	resolved.ConstRecordRecnum = recnum
	resolved.RecordRecnum = recnum
	return &resolved, nil
}

// Read loads seg's array, converting to dstType. A missing file yields a
// fresh array filled with dstType's missing sentinel rather than an error.
func (e *Engine) Read(ctx context.Context, seg *store.Segment, dstType dtype.Type) (*store.Array, error) {
	resolved, err := e.resolveConstant(ctx, seg)
	if err != nil {
		return nil, err
	}
	b, err := e.backendFor(resolved.Protocol)
	if err != nil {
		return nil, err
	}
	a, err := b.Read(ctx, resolved, dstType)
	if err != nil {
		return nil, err
	}
	if err := checkShape(resolved, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ReadSlice loads the [start,end] hyperplane of seg. For TAS segments the
// trailing record axis is dropped from the result after slicing.
func (e *Engine) ReadSlice(ctx context.Context, seg *store.Segment, dstType dtype.Type, start, end []int64) (*store.Array, error) {
	resolved, err := e.resolveConstant(ctx, seg)
	if err != nil {
		return nil, err
	}
	b, err := e.backendFor(resolved.Protocol)
	if err != nil {
		return nil, err
	}
	return b.ReadSlice(ctx, resolved, dstType, start, end)
}

// Write stores a into seg. Writing a Constant-scope segment is legal only
// when no canonical writer has yet been recorded; on success the writer's
// recnum is persisted as that canonical owner.
func (e *Engine) Write(ctx context.Context, seg *store.Segment, a *store.Array, autoscale bool) error {
	if seg.Scope == store.SegmentConstant && e.resolver != nil {
		existing, err := e.resolver.ResolveConstRecnum(ctx, seg)
		if err != nil {
			return err
		}
		if existing != 0 {
			return fmt.Errorf("segment: constant segment %s already written by recnum %d: %w", seg.Name, existing, xerr.BadRequest)
		}
	}

	b, err := e.backendFor(seg.Protocol)
	if err != nil {
		return err
	}
	if err := b.Write(ctx, seg, a, autoscale); err != nil {
		return err
	}

	if seg.Scope == store.SegmentConstant && e.resolver != nil {
		if err := e.resolver.PersistConstRecnum(ctx, seg, seg.RecordRecnum); err != nil {
			return err
		}
	}
	return nil
}

// WriteFromFile streams path's contents into seg (GENERIC protocol only).
func (e *Engine) WriteFromFile(ctx context.Context, seg *store.Segment, path string) error {
	if seg.Protocol != store.ProtoGeneric {
		return fmt.Errorf("segment: write_from_file requires GENERIC protocol, got %s: %w", seg.Protocol, xerr.Unsupported)
	}
	b, err := e.backendFor(seg.Protocol)
	if err != nil {
		return err
	}
	return b.WriteFromFile(ctx, seg, path)
}

// checkShape enforces the common non-TAS shape contract: naxis and axes
// must match the segment's declaration exactly.
func checkShape(seg *store.Segment, a *store.Array) error {
	if seg.Protocol == store.ProtoTAS {
		return nil
	}
	if a.Naxis != seg.Naxis {
		return fmt.Errorf("segment: %s: read returned naxis %d, want %d: %w", seg.Name, a.Naxis, seg.Naxis, xerr.Internal)
	}
	for i, ax := range seg.Axes {
		if a.Axes[i] != ax {
			return fmt.Errorf("segment: %s: axis %d is %d, want %d: %w", seg.Name, i, a.Axes[i], ax, xerr.Internal)
		}
	}
	return nil
}

// newMissingArray builds a fresh array of seg's declared shape filled with
// dstType's missing sentinel, used when a segment's file does not exist.
func newMissingArray(seg *store.Segment, dstType dtype.Type) *store.Array {
	a := &store.Array{
		Type:   dstType,
		Naxis:  seg.Naxis,
		Axes:   append([]int64(nil), seg.Axes...),
		IsRaw:  false,
		Parent: seg,
	}
	n := a.NumElements()
	if dstType == dtype.String {
		a.Data = make([]dtype.Value, n)
		for i := range a.Data {
			a.Data[i] = dtype.NewString("")
		}
		return a
	}
	missing := dtype.AllocateMissing(dstType)
	a.Data = make([]dtype.Value, n)
	for i := range a.Data {
		a.Data[i] = missing
	}
	return a
}
