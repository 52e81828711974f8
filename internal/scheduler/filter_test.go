// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReqidFilterCountsPrimeKeysPlusOne(t *testing.T) {
	info := SeriesInfo{PrimeKeyCount: 2, HasRequestIDPrime: false}
	require.Equal(t, "[][][JSOC_20260730_001]", ReqidFilter(info, "JSOC_20260730_001"))
}

func TestReqidFilterNoExtraSlotWhenSeriesHasRequestIDPrime(t *testing.T) {
	info := SeriesInfo{PrimeKeyCount: 3, HasRequestIDPrime: true}
	require.Equal(t, "[][][reqid1]", ReqidFilter(info, "reqid1"))
}

func TestStripFilters(t *testing.T) {
	require.Equal(t, "hmi.v45", StripFilters("hmi.v45[2010.01.01][45]"))
	require.Equal(t, "hmi.v45", StripFilters("hmi.v45"))
}

func TestApplyReqidFilterReplacesExisting(t *testing.T) {
	info := SeriesInfo{PrimeKeyCount: 1, HasRequestIDPrime: false}
	got := ApplyReqidFilter("hmi.v45[2010.01.01]", info, "r1")
	require.Equal(t, "hmi.v45[][r1]", got)
}
