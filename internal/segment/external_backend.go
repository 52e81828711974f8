// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"context"
	"fmt"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// ExternalContainer abstracts a legacy data-store library (DSDS, or a
// LOCAL bind-mount convention) behind the same read surface as a Backend,
// so LOCAL and DSDS segments can be served without linking against the
// legacy library itself. Implementations are expected to be supplied by
// internal/vds, which owns the handle cache and lifetime.
type ExternalContainer interface {
	// Open resolves seg to an external handle, caching/reusing it per the
	// container's own policy. The returned handle is only valid for the
	// duration of the call that obtained it unless the container documents
	// otherwise.
	Open(ctx context.Context, seg *store.Segment) (ExternalHandle, error)
}

// ExternalHandle is a single open external-container reference.
type ExternalHandle interface {
	Read(ctx context.Context, dstType dtype.Type) (*store.Array, error)
	Close() error
}

// ExternalBackend implements Backend for the LOCAL and DSDS protocols by
// delegating to an ExternalContainer. Writes are never supported: both
// protocols are read-only views onto data owned by another system.
type ExternalBackend struct {
	Container ExternalContainer
}

func (b *ExternalBackend) Read(ctx context.Context, seg *store.Segment, dstType dtype.Type) (*store.Array, error) {
	h, err := b.Container.Open(ctx, seg)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return h.Read(ctx, dstType)
}

func (b *ExternalBackend) ReadSlice(ctx context.Context, seg *store.Segment, dstType dtype.Type, start, end []int64) (*store.Array, error) {
	full, err := b.Read(ctx, seg, dstType)
	if err != nil {
		return nil, err
	}
	return sliceArray(full, start, end, false)
}

func (b *ExternalBackend) Write(ctx context.Context, seg *store.Segment, a *store.Array, autoscale bool) error {
	return fmt.Errorf("segment: %s segments do not support write: %w", seg.Protocol, xerr.Unsupported)
}

func (b *ExternalBackend) WriteFromFile(ctx context.Context, seg *store.Segment, path string) error {
	return fmt.Errorf("segment: %s segments do not support write_from_file: %w", seg.Protocol, xerr.Unsupported)
}
