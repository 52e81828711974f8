// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heliocore/drms-export/internal/config"
	"github.com/heliocore/drms-export/internal/store"
)

func TestSeedSeriesCatalogUpsertsAndUpdates(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.SeedSeriesCatalog([]config.SeriesCatalogEntry{
		{Name: "hmi.v45", PrimeKeyCount: 2, HasRequestIDPrime: true},
	}))

	info, err := c.SeriesInfo("hmi.v45")
	require.NoError(t, err)
	require.Equal(t, 2, info.PrimeKeyCount)
	require.True(t, info.HasRequestIDPrime)

	require.NoError(t, c.SeedSeriesCatalog([]config.SeriesCatalogEntry{
		{Name: "hmi.v45", PrimeKeyCount: 3, HasRequestIDPrime: false},
	}))
	info, err = c.SeriesInfo("hmi.v45")
	require.NoError(t, err)
	require.Equal(t, 3, info.PrimeKeyCount)
	require.False(t, info.HasRequestIDPrime)
}

func TestSeedProcessingCatalogUpsertsStep(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.SeedProcessingCatalog([]config.ProcessingCatalogEntry{
		{
			Name:         "calib",
			ExecPath:     "/bin/calib",
			RequiredArgs: []string{"in", "out"},
			OptionalArgs: map[string]string{"thresh": `"3.0"`},
			NameMap:      map[string]string{"in": "--input"},
			OutputRule:   &config.ProcessingCatalogOutputRule{Kind: "suffix", A: "cal"},
		},
	}))

	step, ok, err := c.ProcessingStep("calib")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/bin/calib", step.ExecPath)
	require.Equal(t, []string{"in", "out"}, step.RequiredArgs)
	require.Equal(t, "--input", step.NameMap["in"])
	require.Equal(t, store.OutputSuffix, step.OutputRule.Kind)
	require.Equal(t, "cal", step.OutputRule.A)
}

func TestSeedProcessingCatalogRejectsUnknownOutputRuleKind(t *testing.T) {
	c := newTestClient(t)
	err := c.SeedProcessingCatalog([]config.ProcessingCatalogEntry{
		{Name: "bad", ExecPath: "/bin/bad", OutputRule: &config.ProcessingCatalogOutputRule{Kind: "bogus"}},
	})
	require.Error(t, err)
}
