// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package xerr defines the error kinds the export core surfaces and their
// propagation rules: the first fatal error in a request is recorded
// against the export row and the row is stamped Failed, while transient
// catalog failures leave the row in New for the next scheduler pass.
package xerr

import "errors"

// Kind is a sentinel compared with errors.Is. Wrap it with fmt.Errorf's
// %w to attach context while keeping the kind matchable.
type Kind error

var (
	// BadRequest: malformed queue row, bad record-set spec, unknown processing step.
	BadRequest Kind = errors.New("bad request")
	// Unsupported: string-to-FITS-number conversion, or a write on a protocol without a writer.
	Unsupported Kind = errors.New("unsupported operation")
	// Overflow: type narrowing lost precision.
	Overflow Kind = errors.New("overflow")
	// ScalingConflict: catalog bzero/bscale disagrees with the FITS file's BZERO/BSCALE.
	ScalingConflict Kind = errors.New("scaling conflict")
	// MissingFile: expected segment file absent but the caller asked for raw data.
	MissingFile Kind = errors.New("missing file")
	// Offline: storage unit not staged to disk (tape retrieval pending).
	Offline Kind = errors.New("storage unit offline")
	// Truncated: TAR size cap reached; archive closed cleanly mid-request.
	Truncated Kind = errors.New("truncated")
	// CatalogUnavailable: SQL layer down or a query failed transiently.
	CatalogUnavailable Kind = errors.New("catalog unavailable")
	// Internal: invariant violation.
	Internal Kind = errors.New("internal error")
)

// Recoverable reports whether a request seeing this error should be left
// in New for a retry, rather than stamped Failed. Only catalog hiccups are
// recoverable; Offline is deliberately excluded (re-staging belongs to the
// storage-unit allocator, not to a scheduler retry).
func Recoverable(err error) bool {
	return errors.Is(err, CatalogUnavailable)
}
