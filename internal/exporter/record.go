// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package exporter implements the per-request export orchestration that
// runs after the scheduler has emitted a request's scripts: iterate
// records, read each segment through the I/O engine,
// convert the in-memory array to FITS applying the keyword map, wrap the
// bytes in a TAR stream, and append a manifest and error list.
package exporter

import "github.com/heliocore/drms-export/internal/store"

// Record is one exported record's keyword/segment content, the thin
// boundary across which this package talks to the Store's record
// implementation, which is out of scope for this core, the same boundary
// internal/catalog draws around the SQL engine itself.
type Record struct {
	Recnum   int64
	Series   string
	Keywords []*store.Keyword
	Segments []store.Segment
}

// RecordSource resolves recnums to their keyword/segment content.
type RecordSource interface {
	Record(recnum int64) (Record, error)
}
