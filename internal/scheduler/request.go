// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package scheduler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/rlog"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// Environment carries the resolved shell-environment values and paths a Processor needs beyond
// what the catalog supplies.
type Environment struct {
	DBName       string
	DBUser       string
	DBHost       string
	DBExportHost string
	StagingRoot  string // directory the <reqid>.qsub/.drmsrun pair is written into
	ExporterBin  string
}

// Processor runs one request through the full per-request pipeline.
type Processor struct {
	Catalog Catalog
	Env     Environment
}

// NewProcessor builds a Processor.
func NewProcessor(cat Catalog, env Environment) *Processor {
	return &Processor{Catalog: cat, Env: env}
}

// Process runs the full per-request pipeline against one claimed request row. The row
// is assumed already cloned into the durable export table (step 1 is the
// caller's ClaimNew responsibility; see Service.claimPass). Process only
// performs steps 2 through 8: notify resolution, pipeline parse/resolve,
// script emission, and status transition.
//
// Errors from catalog access are left for the caller to classify via
// xerr.Recoverable: a recoverable error should leave the row in New for
// retry, anything else should be recorded as Failed.
func (p *Processor) Process(req store.ExportRequest) error {
	notify, notifyOK, err := p.Catalog.NotifyAddress(req.User)
	if err != nil {
		return fmt.Errorf("scheduler: resolve notify address for %q: %w", req.User, err)
	}
	if !notifyOK {
		rlog.Warnf("scheduler: no notify address for user %q, notifications disabled for %s", req.User, req.RequestID)
	}

	steps, recLimit, err := ParsePipeline(req.Processing)
	if err != nil {
		return err
	}

	spec := req.Spec
	if len(steps) == 0 {
		// step 5: processing-free requests may carry multiple sub-specs as-is.
		if err := ValidateSeriesCount(seriesNamesInSpec(spec), false); err != nil {
			return err
		}
	} else {
		// step 5: a pipeline may not span multiple input series, checked
		// before step 6's same-series multi-subset materialization.
		if err := ValidateSeriesCount(seriesNamesInSpec(spec), true); err != nil {
			return err
		}
		subspecs := SplitSubspecs(spec)
		if len(subspecs) > 1 {
			// step 6: materialize the union as a recnum list before resolving.
			spec, err = MaterializeSubspecs(p.Catalog, spec)
			if err != nil {
				return err
			}
			req.Spec = spec
		}
	}

	resolved, err := ResolvePipeline(p.Catalog, req, steps, recLimit)
	if err != nil {
		return err
	}

	if err := p.emitScripts(req, resolved, notify, notifyOK); err != nil {
		return fmt.Errorf("scheduler: emit scripts for %s: %w", req.RequestID, err)
	}

	req.Status = store.StatusQueued
	if err := p.Catalog.SaveExportRow(req); err != nil {
		return fmt.Errorf("scheduler: save export row for %s: %w", req.RequestID, err)
	}

	// step 8: release the backpressure slot now that the scripts exist and
	// the row has been handed off; actual run-script execution happens out
	// of process, under the batch system.
	if err := p.Catalog.DeletePendingRequest(req.User); err != nil {
		return fmt.Errorf("scheduler: release pending-requests row for %q: %w", req.User, err)
	}

	return nil
}

func (p *Processor) emitScripts(req store.ExportRequest, resolved []ResolvedStep, notify string, notifyOK bool) error {
	if p.Env.StagingRoot == "" {
		return fmt.Errorf("scheduler: no staging root configured: %w", xerr.Internal)
	}
	if err := os.MkdirAll(p.Env.StagingRoot, 0o755); err != nil {
		return err
	}

	env := ScriptEnv{
		DBName:         p.Env.DBName,
		DBUser:         p.Env.DBUser,
		DBHost:         p.Env.DBHost,
		DBExportHost:   p.Env.DBExportHost,
		NotifyAddress:  notify,
		NotifyEnabled:  notifyOK,
		SubmittedState: int(store.StatusQueued),
	}

	qsub := RenderQsubScript(req.RequestID, env)
	drmsrun := RenderDrmsrunScript(req, resolved, p.Env.ExporterBin)

	qsubPath := filepath.Join(p.Env.StagingRoot, req.RequestID+".qsub")
	drmsrunPath := filepath.Join(p.Env.StagingRoot, req.RequestID+".drmsrun")

	if err := os.WriteFile(qsubPath, []byte(qsub), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(drmsrunPath, []byte(drmsrun), 0o755); err != nil {
		return err
	}
	return nil
}
