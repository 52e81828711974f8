// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package vds

import (
	"context"
	"testing"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/stretchr/testify/require"
)

type testHandle struct {
	closed *bool
}

func (h *testHandle) Read(ctx context.Context, dstType dtype.Type) (*store.Array, error) {
	return &store.Array{Type: dstType}, nil
}

func (h *testHandle) Close() error {
	*h.closed = true
	return nil
}

func newFakeHandle() (Handle, *bool) {
	closed := false
	return &testHandle{closed: &closed}, &closed
}

func TestCachePutAndGet(t *testing.T) {
	c := New(4)
	h, _ := newFakeHandle()
	c.Put("a", h)
	got, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, h, got)
}

func TestCacheEvictsHalfAtCapacity(t *testing.T) {
	c := New(4)
	for _, k := range []string{"a", "b", "c", "d"} {
		h, _ := newFakeHandle()
		c.Put(k, h)
	}
	require.Equal(t, 4, c.Len())

	h5, _ := newFakeHandle()
	c.Put("e", h5)
	require.LessOrEqual(t, c.Len(), 4)

	// the newest entry must survive the sweep
	_, ok := c.Get("e")
	require.True(t, ok)
}

func TestCacheCloseRemovesAndCloses(t *testing.T) {
	c := New(4)
	h, closed := newFakeHandle()
	c.Put("a", h)
	require.NoError(t, c.Close("a"))
	require.True(t, *closed)
	_, ok := c.Get("a")
	require.False(t, ok)
}

func TestCacheCloseAllClosesEverything(t *testing.T) {
	c := New(4)
	h1, closed1 := newFakeHandle()
	h2, closed2 := newFakeHandle()
	c.Put("a", h1)
	c.Put("b", h2)
	require.NoError(t, c.CloseAll())
	require.True(t, *closed1)
	require.True(t, *closed2)
	require.Equal(t, 0, c.Len())
}
