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

func TestRenderQsubScriptIncludesDBEnvAndNotify(t *testing.T) {
	out := RenderQsubScript("req1", ScriptEnv{
		DBName: "jsoc", DBUser: "prod", DBHost: "db1", DBExportHost: "db1x",
		NotifyAddress: "a@b.org", NotifyEnabled: true, SubmittedState: 1,
	})
	require.Contains(t, out, `JSOC_DBNAME="jsoc"`)
	require.Contains(t, out, "drms_run req1.drmsrun")
	require.Contains(t, out, "a@b.org")
	require.Contains(t, out, "= 1")
}

func TestRenderQsubScriptOmitsMailWhenNotifyDisabled(t *testing.T) {
	out := RenderQsubScript("req1", ScriptEnv{NotifyEnabled: false})
	require.NotContains(t, out, "mail -s")
}

func TestRenderDrmsrunScriptOrdersStepsThenExporterThenIndex(t *testing.T) {
	req := store.ExportRequest{RequestID: "req1", Protocol: "FITS", Format: "fitsdef", Method: "url_direct"}
	steps := []ResolvedStep{
		{Name: "calib", ExecPath: "/bin/calib", Args: map[string]string{"in": "x", "out": "y"}},
	}
	out := RenderDrmsrunScript(req, steps, "drms-exporter")

	calibIdx := indexOf(out, "/bin/calib")
	exporterIdx := indexOf(out, "drms-exporter --reqid=req1")
	indexIdx := indexOf(out, "jsoc_export_make_index req1")
	require.True(t, calibIdx < exporterIdx)
	require.True(t, exporterIdx < indexIdx)
	require.Contains(t, out, "in=x")
	require.Contains(t, out, "out=y")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
