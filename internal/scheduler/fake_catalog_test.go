// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package scheduler

import (
	"fmt"

	"github.com/heliocore/drms-export/internal/store"
)

// fakeCatalog is an in-memory Catalog used by scheduler tests; no database
// is involved, matching the narrow Catalog interface's purpose.
type fakeCatalog struct {
	steps        map[string]store.ProcessingStep
	series       map[string]SeriesInfo
	notify       map[string]string
	recnums      map[string][]int64
	pendingCalls []string
	savedRows    []store.ExportRequest
	claimRows    []store.ExportRequest
	claimErr     error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		steps:  map[string]store.ProcessingStep{},
		series: map[string]SeriesInfo{},
		notify: map[string]string{},
		recnums: map[string][]int64{},
	}
}

func (f *fakeCatalog) ProcessingStep(name string) (store.ProcessingStep, bool, error) {
	s, ok := f.steps[name]
	return s, ok, nil
}

func (f *fakeCatalog) SeriesInfo(name string) (SeriesInfo, error) {
	s, ok := f.series[name]
	if !ok {
		return SeriesInfo{}, fmt.Errorf("no such series %q", name)
	}
	return s, nil
}

func (f *fakeCatalog) RecnumsForSpec(spec string) ([]int64, error) {
	r, ok := f.recnums[spec]
	if !ok {
		return nil, fmt.Errorf("no recnums for %q", spec)
	}
	return r, nil
}

func (f *fakeCatalog) NotifyAddress(user string) (string, bool, error) {
	addr, ok := f.notify[user]
	return addr, ok, nil
}

func (f *fakeCatalog) ClaimNew(n int, dev bool) ([]store.ExportRequest, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	return f.claimRows, nil
}

func (f *fakeCatalog) SaveExportRow(req store.ExportRequest) error {
	f.savedRows = append(f.savedRows, req)
	return nil
}

func (f *fakeCatalog) DeletePendingRequest(user string) error {
	f.pendingCalls = append(f.pendingCalls, user)
	return nil
}
