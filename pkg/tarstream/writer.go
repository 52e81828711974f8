// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package tarstream implements a forward-only USTAR writer: header
// and checksum composition over a non-seekable sink, flush-after-every-
// write discipline so a truncated stream remains a legal archive prefix,
// and size-capped rollover onto a sibling file.
package tarstream

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/heliocore/drms-export/pkg/xerr"
)

const (
	blockSize   = 512
	nameMaxLen  = 100
	endMarkerSz = 1024
)

// Flusher is implemented by sinks that buffer writes and need an explicit
// flush to guarantee a truncated stream is a legal prefix. Sinks that
// write through immediately (e.g. a raw os.File
// opened without buffering) can be wrapped with NopFlusher.
type Flusher interface {
	Flush() error
}

type nopFlusher struct{ io.Writer }

func (nopFlusher) Flush() error { return nil }

// WriteFlusher composes io.Writer and Flusher.
type WriteFlusher interface {
	io.Writer
	Flusher
}

// NopFlusher wraps w with a no-op Flush, for sinks that need no buffering.
func NopFlusher(w io.Writer) WriteFlusher { return nopFlusher{w} }

// Writer emits a USTAR archive to w in a single forward pass. It never
// seeks; every header's checksum is computed before the header is written.
type Writer struct {
	w         WriteFlusher
	written   int64
	closed    bool
	terminate bool
}

// NewWriter wraps w as a fresh archive stream.
func NewWriter(w WriteFlusher) *Writer {
	return &Writer{w: w}
}

// FileHeader describes one regular-file tar member.
type FileHeader struct {
	Name  string
	Size  int64
	Mode  int64
	Uid   int
	Gid   int
	Mtime int64
	Uname string
	Gname string
}

// BytesWritten returns the total bytes emitted to the sink so far,
// including headers and padding.
func (tw *Writer) BytesWritten() int64 { return tw.written }

// Terminate marks the stream for the cancellation path: the current
// file's buffered bytes are allowed to finish, but WriteFile will refuse
// to start a new file header afterward.
func (tw *Writer) Terminate() { tw.terminate = true }

// Terminated reports whether Terminate has been called.
func (tw *Writer) Terminated() bool { return tw.terminate }

// WriteFile emits one tar member: header, then exactly h.Size bytes read
// from r, then zero-padding to the next 512-byte boundary. Both the
// header and the payload are flushed before returning, so a crash
// immediately after this call leaves the stream as a legal archive
// prefix.
func (tw *Writer) WriteFile(h FileHeader, r io.Reader) error {
	if tw.terminate {
		return fmt.Errorf("tarstream: write after terminate: %w", xerr.Truncated)
	}
	if len(h.Name) > nameMaxLen {
		return fmt.Errorf("tarstream: name %q exceeds %d bytes: %w", h.Name, nameMaxLen, xerr.BadRequest)
	}

	header := composeHeader(h)
	if _, err := tw.w.Write(header[:]); err != nil {
		return fmt.Errorf("tarstream: write header: %w", err)
	}
	if err := tw.w.Flush(); err != nil {
		return fmt.Errorf("tarstream: flush header: %w", err)
	}
	tw.written += blockSize

	n, err := io.CopyN(tw.w, r, h.Size)
	tw.written += n
	if err != nil && err != io.EOF {
		return fmt.Errorf("tarstream: write payload for %s: %w", h.Name, err)
	}
	if n != h.Size {
		return fmt.Errorf("tarstream: payload for %s was %d bytes, header declared %d: %w", h.Name, n, h.Size, xerr.Internal)
	}

	if pad := paddingLen(h.Size); pad > 0 {
		if _, err := tw.w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("tarstream: write padding: %w", err)
		}
		tw.written += pad
	}
	if err := tw.w.Flush(); err != nil {
		return fmt.Errorf("tarstream: flush payload: %w", err)
	}
	return nil
}

// WriteBytes is a convenience wrapper over WriteFile for in-memory payloads
// (the manifest and error-list members).
func (tw *Writer) WriteBytes(name string, data []byte, mtime int64) error {
	return tw.WriteFile(FileHeader{Name: name, Size: int64(len(data)), Mtime: mtime, Mode: 0664}, bytes.NewReader(data))
}

// Close writes the 1024-byte end-of-archive marker. It is safe to call
// even when the stream was terminated early.
func (tw *Writer) Close() error {
	if tw.closed {
		return nil
	}
	tw.closed = true
	if _, err := tw.w.Write(make([]byte, endMarkerSz)); err != nil {
		return fmt.Errorf("tarstream: write end marker: %w", err)
	}
	tw.written += endMarkerSz
	return tw.w.Flush()
}

func paddingLen(size int64) int64 {
	rem := size % blockSize
	if rem == 0 {
		return 0
	}
	return blockSize - rem
}

func composeHeader(h FileHeader) [blockSize]byte {
	var buf [blockSize]byte

	putString(buf[0:100], h.Name)
	putOctal(buf[100:108], h.Mode, 7)
	putOctal(buf[108:116], int64(h.Uid), 7)
	putOctal(buf[116:124], int64(h.Gid), 7)
	putOctal(buf[124:136], h.Size, 11)
	putOctal(buf[136:148], h.Mtime, 11)
	for i := 148; i < 156; i++ {
		buf[i] = ' '
	}
	buf[156] = '0' // typeflag: regular file
	copy(buf[257:263], "ustar\x00")
	copy(buf[263:265], "00")
	putString(buf[265:297], h.Uname)
	putString(buf[297:329], h.Gname)
	// devmajor/devminor/prefix left zero

	sum := checksum(buf)
	putOctal(buf[148:156], sum, 6)
	buf[154] = 0
	buf[155] = ' '

	return buf
}

func checksum(buf [blockSize]byte) int64 {
	var sum int64
	for _, b := range buf {
		sum += int64(b)
	}
	return sum
}

func putString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	n := copy(dst, s)
	_ = n
}

// putOctal writes v as a zero-padded octal field of width digits, NUL
// terminated, into dst (which must be digits+1 or digits+2 bytes wide per
// the USTAR convention used by each field above).
func putOctal(dst []byte, v int64, digits int) {
	s := strconv.FormatInt(v, 8)
	for len(s) < digits {
		s = "0" + s
	}
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
}
