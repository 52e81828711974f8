// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/rlog"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// ClaimBatchSize bounds how many New rows one claim pass processes, so a
// burst of submissions cannot monopolize a single pass.
const ClaimBatchSize = 50

// Config controls the periodic claim pass.
type Config struct {
	Interval time.Duration // default 30s if zero
	DevMode  bool          // also claim DevNew(12) rows
}

// Service wraps a gocron scheduler driving the periodic claim pass, the
// only job it registers.
type Service struct {
	proc *Processor
	cfg  Config
	s    gocron.Scheduler
}

// NewService builds a Service. Call Start to begin the periodic claim pass.
func NewService(proc *Processor, cfg Config) (*Service, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Service{proc: proc, cfg: cfg, s: s}, nil
}

// Start registers the claim-pass job and starts the underlying scheduler.
func (svc *Service) Start() error {
	_, err := svc.s.NewJob(
		gocron.DurationJob(svc.cfg.Interval),
		gocron.NewTask(func() {
			if err := svc.TriggerClaimPass(); err != nil {
				rlog.Errorf("scheduler: claim pass: %v", err)
			}
		}),
	)
	if err != nil {
		return err
	}
	svc.s.Start()
	return nil
}

// Shutdown stops the underlying scheduler.
func (svc *Service) Shutdown() error {
	return svc.s.Shutdown()
}

// TriggerClaimPass runs one claim pass out of band, satisfying web.Trigger
// so the administrative endpoint can force an immediate pass rather than
// waiting for the next scheduled interval.
func (svc *Service) TriggerClaimPass() error {
	claimed, err := svc.proc.Catalog.ClaimNew(ClaimBatchSize, svc.cfg.DevMode)
	if err != nil {
		return fmt.Errorf("scheduler: claim pass: %w", err)
	}

	for _, req := range claimed {
		if err := svc.proc.Process(req); err != nil {
			svc.fail(req, err)
		}
	}
	return nil
}

// fail implements the Failed(4) transition for a non-recoverable pipeline
// error: the first fatal error is recorded against the row and the
// row is stamped Failed. A recoverable (catalog-transient) error instead
// leaves the row as-is, in New, for the next claim pass to retry.
func (svc *Service) fail(req store.ExportRequest, err error) {
	if xerr.Recoverable(err) {
		rlog.Warnf("scheduler: %s: transient error, retrying next pass: %v", req.RequestID, err)
		return
	}

	rlog.Errorf("scheduler: %s: %v", req.RequestID, err)
	req.Status = store.StatusFailed
	req.ErrorMessage = err.Error()
	if saveErr := svc.proc.Catalog.SaveExportRow(req); saveErr != nil {
		rlog.Errorf("scheduler: %s: failed to record Failed status: %v", req.RequestID, saveErr)
	}
}
