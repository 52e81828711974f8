// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/heliocore/drms-export/internal/store"
)

// ScriptEnv carries the resolved shell-environment values and the notify address
// resolved in pipeline step 2, needed to render the qsub wrapper.
type ScriptEnv struct {
	DBName         string
	DBUser         string
	DBHost         string
	DBExportHost   string
	NotifyAddress  string
	NotifyEnabled  bool
	SubmittedState int
}

// RenderQsubScript builds the "<reqid>.qsub" wrapper script: it
// polls the request row until the submitted status is observed, exports
// the captured DB environment, invokes drms_run, waits for the export row's
// recnum, and mails the outcome.
func RenderQsubScript(reqID string, env ScriptEnv) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#!/bin/sh\n")
	fmt.Fprintf(&b, "# emitted for request %s\n", reqID)
	fmt.Fprintf(&b, "export JSOC_DBNAME=%q\n", env.DBName)
	fmt.Fprintf(&b, "export JSOC_DBUSER=%q\n", env.DBUser)
	fmt.Fprintf(&b, "export JSOC_DBHOST=%q\n", env.DBHost)
	fmt.Fprintf(&b, "export JSOC_DBEXPORTHOST=%q\n", env.DBExportHost)
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "until [ \"$(exp_status %s)\" = %d ]; do sleep 1; done\n", reqID, env.SubmittedState)
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "drms_run %s.drmsrun\n", reqID)
	fmt.Fprintf(&b, "rc=$?\n")
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "i=0\n")
	fmt.Fprintf(&b, "while [ $i -lt 20 ] && [ -z \"$(exp_recnum %s)\" ]; do sleep 1; i=$((i+1)); done\n", reqID)
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "if [ $rc -ne 0 ] || [ -z \"$(exp_recnum %s)\" ]; then\n", reqID)
	fmt.Fprintf(&b, "  exp_setstatus %s 4\n", reqID)
	if env.NotifyEnabled {
		fmt.Fprintf(&b, "  mail -s \"export %s failed\" %s </dev/null\n", reqID, env.NotifyAddress)
	}
	fmt.Fprintf(&b, "else\n")
	if env.NotifyEnabled {
		fmt.Fprintf(&b, "  mail -s \"export %s complete\" %s </dev/null\n", reqID, env.NotifyAddress)
	}
	fmt.Fprintf(&b, "  logrotate %s.log\n", reqID)
	fmt.Fprintf(&b, "fi\n")
	return b.String()
}

// RenderDrmsrunScript builds the "<reqid>.drmsrun" run script: acquire
// the export row for update, run each processing step in
// order, then the protocol-specific exporter, then the index builder, then
// update Status/ExpTime/Size from the produced index.json.
func RenderDrmsrunScript(req store.ExportRequest, steps []ResolvedStep, exporterBin string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#!/bin/sh\n")
	fmt.Fprintf(&b, "set -e\n")
	fmt.Fprintf(&b, "exp_lock %s\n\n", req.RequestID)

	for _, step := range steps {
		fmt.Fprintf(&b, "%s %s\n", step.ExecPath, renderArgs(step.Args))
	}

	fmt.Fprintf(&b, "%s --reqid=%s --protocol=%s --format=%s --method=%s\n",
		exporterBin, req.RequestID, req.Protocol, req.Format, req.Method)
	fmt.Fprintf(&b, "jsoc_export_make_index %s\n\n", req.RequestID)

	fmt.Fprintf(&b, "size=$(jq .size_mb < index.json)\n")
	fmt.Fprintf(&b, "exp_update %s Status=0 ExpTime=$(date +%%s) Size=$size\n", req.RequestID)
	return b.String()
}

// renderArgs sorts args by name for a deterministic, diffable command line.
func renderArgs(args map[string]string) string {
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", k, args[k]))
	}
	return strings.Join(parts, " ")
}
