// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Command drms-exporter is the protocol-specific export worker: the
// drmsrun script invokes it once per request, after the processing
// pipeline's steps have already run, to read the resolved records'
// segments and write the export package. jsoc_export_make_index, the
// shell command the drmsrun script runs immediately after this one,
// builds index.json from the staged output; this binary does not
// produce that file itself.
//
// In script mode (the default) it resolves --reqid against the catalog
// and writes the export into the staging target named by config.json's
// stage-* keys. In stdout mode (--stdout) it instead streams a single
// USTAR archive straight to standard output, for ad-hoc use outside the
// qsub/drmsrun pipeline.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/heliocore/drms-export/internal/catalog"
	"github.com/heliocore/drms-export/internal/config"
	"github.com/heliocore/drms-export/internal/exporter"
	"github.com/heliocore/drms-export/internal/segment"
	"github.com/heliocore/drms-export/internal/stage"
	"github.com/heliocore/drms-export/pkg/rlog"
	"github.com/heliocore/drms-export/pkg/tarstream"
)

func main() {
	var flagConfigFile, flagReqID, flagProtocol, flagFormat, flagMethod, flagSpec string
	var flagStdout bool
	flag.StringVar(&flagConfigFile, "config", "./config.json", "load configuration overrides from `config.json`")
	flag.StringVar(&flagReqID, "reqid", "", "export request ID (script mode)")
	flag.StringVar(&flagProtocol, "protocol", "", "export protocol, as recorded on the request row (informational; re-read from the catalog)")
	flag.StringVar(&flagFormat, "format", "", "export format, as recorded on the request row (informational; re-read from the catalog)")
	flag.StringVar(&flagMethod, "method", "", "delivery method (informational; re-read from the catalog)")
	flag.BoolVar(&flagStdout, "stdout", false, "stream a USTAR archive to stdout instead of writing to the staging target")
	flag.StringVar(&flagSpec, "spec", "", "record-set specification overriding the request row's stored spec (either mode; -reqid is still required)")
	flag.Parse()

	if flagReqID == "" {
		rlog.Fatalf("drms-exporter: -reqid is required")
	}

	config.Init(flagConfigFile)
	cfg := config.Keys

	db, err := catalog.Connect(cfg.DBDriver, cfg.DB)
	if err != nil {
		rlog.Fatalf("drms-exporter: %v", err)
	}
	client := catalog.New(db, cfg.DBDriver)

	req, ok, err := client.ExportRow(flagReqID)
	if err != nil {
		rlog.Fatalf("drms-exporter: %s: %v", flagReqID, err)
	}
	if !ok {
		rlog.Fatalf("drms-exporter: %s: no such export request", flagReqID)
	}
	if flagSpec != "" {
		req.Spec = flagSpec
	}

	recnums, err := client.RecnumsForSpec(req.Spec)
	if err != nil {
		rlog.Fatalf("drms-exporter: %s: resolving %q: %v", flagReqID, req.Spec, err)
	}

	engine := segment.NewLocalEngine(cfg.RecordStoreRoot, client)
	exp := exporter.NewExporter(engine, client)

	ctx := context.Background()

	if flagStdout {
		manifest, err := exp.Run(ctx, req, recnums, tarstream.NopFlusher(os.Stdout))
		if err != nil {
			rlog.Fatalf("drms-exporter: %s: %v", flagReqID, err)
		}
		if len(manifest.Errors) > 0 {
			rlog.Warnf("drms-exporter: %s: completed with %d record error(s)", flagReqID, len(manifest.Errors))
		}
		return
	}

	target, err := stage.NewTarget(cfg.StageConfig(), req.RequestID)
	if err != nil {
		rlog.Fatalf("drms-exporter: %s: opening staging target: %v", flagReqID, err)
	}

	manifest, runErr := exp.RunToStage(ctx, req, recnums, target)
	if err := target.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		rlog.Fatalf("drms-exporter: %s: %v", flagReqID, runErr)
	}
	if len(manifest.Errors) > 0 {
		rlog.Warnf("drms-exporter: %s: completed with %d record error(s)", flagReqID, len(manifest.Errors))
	}
	rlog.Infof("drms-exporter: %s: wrote %d file(s)", flagReqID, len(manifest.Files))
}
