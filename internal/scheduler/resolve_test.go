// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heliocore/drms-export/internal/store"
)

func TestResolvePipelineDerivesOutputSeriesAndFilter(t *testing.T) {
	cat := newFakeCatalog()
	cat.series["hmi.v45"] = SeriesInfo{PrimeKeyCount: 1, HasRequestIDPrime: false}
	cat.steps["calib"] = store.ProcessingStep{
		ExecPath:     "/bin/calib",
		RequiredArgs: []string{"in", "out"},
		OutputRule:   store.OutputRule{Kind: store.OutputSuffix, A: "cal"},
	}

	req := store.ExportRequest{RequestID: "r1", Spec: "hmi.v45[2010.01.01]"}
	steps, _, err := ParsePipeline("calib")
	require.NoError(t, err)

	resolved, err := ResolvePipeline(cat, req, steps, 0)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.Equal(t, "hmi.v45_cal", resolved[0].OutSpec)
	require.Equal(t, "hmi.v45[][r1]", resolved[0].InSpec)
	require.Equal(t, "/bin/calib", resolved[0].ExecPath)
	require.Equal(t, "hmi.v45[][r1]", resolved[0].Args["in"])
	require.Equal(t, "hmi.v45_cal", resolved[0].Args["out"])
}

func TestResolvePipelineUnknownStepFails(t *testing.T) {
	cat := newFakeCatalog()
	cat.series["hmi.v45"] = SeriesInfo{PrimeKeyCount: 1}
	req := store.ExportRequest{RequestID: "r1", Spec: "hmi.v45"}
	steps, _, _ := ParsePipeline("nosuchstep")

	_, err := ResolvePipeline(cat, req, steps, 0)
	require.Error(t, err)
}

func TestResolvePipelineChainsSeriesAcrossSteps(t *testing.T) {
	cat := newFakeCatalog()
	cat.series["hmi.v45"] = SeriesInfo{PrimeKeyCount: 1}
	cat.steps["a"] = store.ProcessingStep{OutputRule: store.OutputRule{Kind: store.OutputSuffix, A: "x"}}
	cat.steps["b"] = store.ProcessingStep{OutputRule: store.OutputRule{Kind: store.OutputSuffix, A: "y"}}

	req := store.ExportRequest{RequestID: "r1", Spec: "hmi.v45"}
	steps, _, _ := ParsePipeline("a|b")

	resolved, err := ResolvePipeline(cat, req, steps, 0)
	require.NoError(t, err)
	require.Equal(t, "hmi.v45_x", resolved[0].OutSpec)
	require.Equal(t, "hmi.v45_x_y", resolved[1].OutSpec)
}

func TestMaterializeSubspecsRewritesAsRecnumList(t *testing.T) {
	cat := newFakeCatalog()
	cat.recnums["hmi.v45[1],hmi.v45[2]"] = []int64{100, 200}

	out, err := MaterializeSubspecs(cat, "hmi.v45[1],hmi.v45[2]")
	require.NoError(t, err)
	require.Equal(t, "hmi.v45[:#100,#200]", out)
}

func TestMaterializeSubspecsPassthroughForSingleSpec(t *testing.T) {
	cat := newFakeCatalog()
	out, err := MaterializeSubspecs(cat, "hmi.v45[1]")
	require.NoError(t, err)
	require.Equal(t, "hmi.v45[1]", out)
}

func TestResolvePipelineAppliesNameMap(t *testing.T) {
	cat := newFakeCatalog()
	cat.series["hmi.v45"] = SeriesInfo{PrimeKeyCount: 1}
	cat.steps["calib"] = store.ProcessingStep{
		RequiredArgs: []string{"in", "out"},
		NameMap:      map[string]string{"in": "--input", "out": "--output"},
	}

	req := store.ExportRequest{RequestID: "r1", Spec: "hmi.v45"}
	steps, _, _ := ParsePipeline("calib")

	resolved, err := ResolvePipeline(cat, req, steps, 0)
	require.NoError(t, err)
	_, hasOldIn := resolved[0].Args["in"]
	require.False(t, hasOldIn)
	require.Equal(t, "hmi.v45[][r1]", resolved[0].Args["--input"])
	require.Equal(t, "hmi.v45", resolved[0].Args["--output"])
}
