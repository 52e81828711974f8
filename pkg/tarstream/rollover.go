// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package tarstream

import (
	"fmt"
	"io"
	"os"
)

// RollingWriter wraps a sequence of Writer instances, each backed by its
// own on-disk file, rolling over to a new sibling file once the current
// one reaches cap bytes (staging mode uses a ~50 GiB cap; the HTTP
// single-stream mode instead uses a plain Writer with a ~2 GiB cap
// enforced by the caller, since there is only one sink to roll onto).
type RollingWriter struct {
	reqID   string
	dir     string
	cap     int64
	seq     int
	cur     *Writer
	curFile *os.File
	paths   []string
}

// NewRollingWriter prepares a rolling writer that creates
// "<dir>/<reqID>_NNNN.tar" files as needed. A file rolls over before a
// member that would take it past cap bytes, but a member written into an
// empty file is never rolled, so a single member larger than cap yields a
// file over cap; the end-of-archive marker is not counted against cap.
func NewRollingWriter(dir, reqID string, cap int64) *RollingWriter {
	return &RollingWriter{reqID: reqID, dir: dir, cap: cap}
}

// Paths returns every tar file path created so far, in creation order.
func (rw *RollingWriter) Paths() []string { return append([]string(nil), rw.paths...) }

func (rw *RollingWriter) currentPath() string {
	return fmt.Sprintf("%s/%s_%04d.tar", rw.dir, rw.reqID, rw.seq)
}

func (rw *RollingWriter) ensureOpen() error {
	if rw.cur != nil {
		return nil
	}
	path := rw.currentPath()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tarstream: create %s: %w", path, err)
	}
	rw.curFile = f
	rw.cur = NewWriter(NopFlusher(f))
	rw.paths = append(rw.paths, path)
	return nil
}

// WriteFile writes h/r to the current tar, rolling over to a new sibling
// file first if writing this member would exceed cap.
func (rw *RollingWriter) WriteFile(h FileHeader, r io.Reader) error {
	if err := rw.ensureOpen(); err != nil {
		return err
	}

	estimated := blockSize + h.Size + paddingLen(h.Size)
	if rw.cur.BytesWritten()+estimated > rw.cap && rw.cur.BytesWritten() > 0 {
		if err := rw.rollover(); err != nil {
			return err
		}
	}
	return rw.cur.WriteFile(h, r)
}

func (rw *RollingWriter) rollover() error {
	if err := rw.cur.Close(); err != nil {
		return err
	}
	if err := rw.curFile.Close(); err != nil {
		return fmt.Errorf("tarstream: close %s: %w", rw.curFile.Name(), err)
	}
	rw.seq++
	rw.cur = nil
	rw.curFile = nil
	return rw.ensureOpen()
}

// Close finalizes the current tar file, if one is open.
func (rw *RollingWriter) Close() error {
	if rw.cur == nil {
		return nil
	}
	if err := rw.cur.Close(); err != nil {
		return err
	}
	return rw.curFile.Close()
}
