// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package exporter

import (
	"context"
	"fmt"
	"io"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/tarstream"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// capWriter caps the total bytes written through it, the single-stream
// equivalent of stage.Target's rolling cap: the HTTP single-stream mode
// writes to a plain Writer with a cap enforced by the caller, since there
// is only one sink to roll onto.
type capWriter struct {
	w       io.Writer
	written int64
	max     int64
}

func (c *capWriter) Write(p []byte) (int, error) {
	if c.written+int64(len(p)) > c.max {
		return 0, fmt.Errorf("exporter: stream exceeded %d byte cap: %w", c.max, xerr.Truncated)
	}
	n, err := c.w.Write(p)
	c.written += int64(n)
	return n, err
}

// StreamingExporter adapts Exporter to internal/web's StreamExporter
// interface, for the URL_CGI direct-streaming sink: the archive is written
// straight to the HTTP response, capped at maxBytes, rather than staged to
// disk/S3 first.
type StreamingExporter struct {
	Export *Exporter
	Lookup Lookup
}

// NewStreamingExporter builds a StreamingExporter.
func NewStreamingExporter(export *Exporter, lookup Lookup) *StreamingExporter {
	return &StreamingExporter{Export: export, Lookup: lookup}
}

// StreamExport resolves req's record-set spec to recnums and writes the
// resulting TAR archive to w, capped at maxBytes.
func (s *StreamingExporter) StreamExport(req store.ExportRequest, w io.Writer, maxBytes int64) error {
	recnums, err := s.Lookup.RecnumsForSpec(req.Spec)
	if err != nil {
		return fmt.Errorf("exporter: resolve recnums for %s: %w", req.RequestID, err)
	}

	cw := &capWriter{w: w, max: maxBytes}
	_, err = s.Export.Run(context.Background(), req, recnums, tarstream.NopFlusher(cw))
	return err
}
