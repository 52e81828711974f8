// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// GenericBackend implements Backend for the GENERIC protocol: an opaque
// blob with no typed structure. Typed reads and writes are refused; the
// only supported operation is streaming a file in (WriteFromFile). The
// exporter reads segments through Engine.Read, so it does not export
// GENERIC segments.
type GenericBackend struct {
	PathOf func(seg *store.Segment) string
}

func (b *GenericBackend) Read(ctx context.Context, seg *store.Segment, dstType dtype.Type) (*store.Array, error) {
	return nil, fmt.Errorf("segment: GENERIC segments do not support typed read: %w", xerr.Unsupported)
}

func (b *GenericBackend) ReadSlice(ctx context.Context, seg *store.Segment, dstType dtype.Type, start, end []int64) (*store.Array, error) {
	return nil, fmt.Errorf("segment: GENERIC segments do not support typed read: %w", xerr.Unsupported)
}

func (b *GenericBackend) Write(ctx context.Context, seg *store.Segment, a *store.Array, autoscale bool) error {
	return fmt.Errorf("segment: GENERIC segments do not support typed write: %w", xerr.Unsupported)
}

func (b *GenericBackend) WriteFromFile(ctx context.Context, seg *store.Segment, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("segment: open source %s: %w", path, err)
	}
	defer src.Close()

	dstPath := b.PathOf(seg)
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("segment: create %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("segment: copy into %s: %w", dstPath, err)
	}
	return nil
}
