// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/heliocore/drms-export/internal/store"
)

// LocalPath derives the on-disk path for seg's file under root, laid out
// as <root>/<series>/<recnum>/<filename>. Constant-scope segments resolve
// against their canonical writer's recnum (Engine.resolveConstant has
// already substituted it into seg.RecordRecnum by the time a Backend's
// PathOf sees it).
func LocalPath(root string, seg *store.Segment) string {
	return filepath.Join(root, seg.Series, strconv.FormatInt(seg.RecordRecnum, 10), seg.Filename)
}

// NewLocalEngine wires the local-disk-backed protocols (FITS, FITS_TILED,
// BINARY, BINZIP, GENERIC) against files under root, addressed by
// LocalPath. TAS (needs storage-unit slot bookkeeping this core does not
// own) and LOCAL/DSDS (the legacy external-container bridge) are left
// unregistered; a request naming either fails with xerr.Unsupported at
// dispatch rather than silently misreading a file.
func NewLocalEngine(root string, resolver ConstantSegmentResolver) *Engine {
	pathOf := func(seg *store.Segment) string {
		path := LocalPath(root, seg)
		os.MkdirAll(filepath.Dir(path), 0o755)
		return path
	}
	backends := map[store.Protocol]Backend{
		store.ProtoFITS:      &FITSBackend{PathOf: pathOf},
		store.ProtoFITSTiled: &FITSBackend{PathOf: pathOf, Tiled: true},
		store.ProtoBinary:    &BinaryBackend{PathOf: pathOf},
		store.ProtoBinzip:    &BinzipBackend{PathOf: pathOf},
		store.ProtoGeneric:   &GenericBackend{PathOf: pathOf},
	}
	return NewEngine(backends, resolver)
}
