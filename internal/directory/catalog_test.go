// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package directory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heliocore/drms-export/internal/scheduler"
	"github.com/heliocore/drms-export/internal/store"
)

type stubCatalog struct {
	scheduler.Catalog
	notifyAddr string
	notifyOK   bool
}

func (s stubCatalog) NotifyAddress(user string) (string, bool, error) {
	return s.notifyAddr, s.notifyOK, nil
}

func (s stubCatalog) ClaimNew(n int, dev bool) ([]store.ExportRequest, error) {
	return nil, nil
}

func TestWithResolverOverridesNotifyAddressOnly(t *testing.T) {
	base := stubCatalog{notifyAddr: "table@example.org", notifyOK: true}
	r := NewResolver(Config{}, fakeFallback{addr: "resolved@example.org", ok: true})

	wrapped := WithResolver(base, r)
	addr, ok, err := wrapped.NotifyAddress("alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "resolved@example.org", addr)

	claimed, err := wrapped.ClaimNew(10, false)
	require.NoError(t, err)
	require.Nil(t, claimed)
}
