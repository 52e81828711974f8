// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package scheduler

import "github.com/heliocore/drms-export/internal/store"

// SeriesInfo is the slice of series catalog metadata the scheduler needs to
// derive reqid-scoped filters, independent of how internal/catalog fetches it.
type SeriesInfo struct {
	Name              string
	PrimeKeyCount     int
	HasRequestIDPrime bool
}

// Catalog is the subset of internal/catalog's surface the scheduler depends
// on. Keeping it as a narrow interface here, rather than importing the
// concrete client, lets pipeline/script-emission logic be tested against a
// fake without a database.
type Catalog interface {
	// ProcessingStep looks up one processing-catalog row by step name.
	ProcessingStep(name string) (store.ProcessingStep, bool, error)

	// SeriesInfo looks up prime-key shape for a series name.
	SeriesInfo(name string) (SeriesInfo, error)

	// RecnumsForSpec resolves a multi-subset record-set spec to the union
	// of matching recnums, for step 6's materialization.
	RecnumsForSpec(spec string) ([]int64, error)

	// NotifyAddress resolves a user identity's notification address. ok is
	// false when none is on file (notifications are then disabled).
	NotifyAddress(user string) (address string, ok bool, err error)

	// ClaimNew fetches up to n rows in New (or DevNew when dev is true)
	// status, clones each into the durable export table, and returns the
	// cloned rows. Rows whose clone fails are left untouched for retry.
	ClaimNew(n int, dev bool) ([]store.ExportRequest, error)

	// SaveExportRow persists req's current fields (status, error message,
	// processing/filename overrides applied during pipeline resolution).
	SaveExportRow(req store.ExportRequest) error

	// DeletePendingRequest removes the backpressure row for user, once the
	// run script has been handed off (step 8).
	DeletePendingRequest(user string) error
}
