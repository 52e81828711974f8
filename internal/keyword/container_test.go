// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package keyword

import (
	"fmt"
	"testing"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/stretchr/testify/require"
)

func TestContainerResolveDirect(t *testing.T) {
	c := NewContainer([]*store.Keyword{
		{Name: "quality", Type: dtype.Int, Value: dtype.NewInt(dtype.Int, 1)},
	}, nil)
	k, err := c.Resolve("quality")
	require.NoError(t, err)
	require.Equal(t, int64(1), k.Value.Int64())
}

func TestContainerResolveFollowsLink(t *testing.T) {
	target := NewContainer([]*store.Keyword{
		{Name: "quality", Type: dtype.Int, Value: dtype.NewInt(dtype.Int, 7)},
	}, nil)
	lookup := func(ref string) (*Container, error) {
		if ref == "source_link" {
			return target, nil
		}
		return nil, fmt.Errorf("unknown link %s", ref)
	}
	c := NewContainer([]*store.Keyword{
		{Name: "quality", IsLink: true, Link: "source_link", Target: "quality"},
	}, lookup)
	k, err := c.Resolve("quality")
	require.NoError(t, err)
	require.Equal(t, int64(7), k.Value.Int64())
}

func TestContainerResolveDetectsCycle(t *testing.T) {
	var a, b *Container
	lookupA := func(ref string) (*Container, error) { return b, nil }
	lookupB := func(ref string) (*Container, error) { return a, nil }
	a = NewContainer([]*store.Keyword{{Name: "k", IsLink: true, Link: "b", Target: "k"}}, lookupA)
	b = NewContainer([]*store.Keyword{{Name: "k", IsLink: true, Link: "a", Target: "k"}}, lookupB)

	_, err := a.Resolve("k")
	require.Error(t, err)
}

func TestContainerOrderedByRank(t *testing.T) {
	c := NewContainer([]*store.Keyword{
		{Name: "b", Rank: 2},
		{Name: "a", Rank: 1},
	}, nil)
	ordered := c.Ordered()
	require.Equal(t, "a", ordered[0].Name)
	require.Equal(t, "b", ordered[1].Name)
}
