// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package exporter

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heliocore/drms-export/internal/segment"
	"github.com/heliocore/drms-export/internal/store"
)

var errBoom = errors.New("lookup failed")

type fakeLookup struct {
	row     store.ExportRequest
	rowOK   bool
	recnums []int64
	recErr  error
}

func (f fakeLookup) ExportRow(reqID string) (store.ExportRequest, bool, error) {
	return f.row, f.rowOK, nil
}

func (f fakeLookup) RecnumsForSpec(spec string) ([]int64, error) {
	if f.recErr != nil {
		return nil, f.recErr
	}
	return f.recnums, nil
}

func TestStreamExportWritesTarToWriter(t *testing.T) {
	engine, dir := newTestEngine(t)
	seg := fixtureSegment("image", 3000)
	writeFixtureArray(t, &segment.FITSBackend{PathOf: func(s *store.Segment) string { return filepath.Join(dir, s.Name+".fits") }}, seg)

	source := &fakeSource{records: map[int64]Record{
		3000: {Recnum: 3000, Segments: []store.Segment{seg}},
	}}
	streamer := NewStreamingExporter(NewExporter(engine, source), fakeLookup{recnums: []int64{3000}})

	var buf bytes.Buffer
	req := store.ExportRequest{RequestID: "req1", Protocol: "FITS", Spec: "aia.lev1[1000]"}
	require.NoError(t, streamer.StreamExport(req, &buf, 10<<20))
	require.Greater(t, buf.Len(), 0)
}

func TestStreamExportEnforcesByteCap(t *testing.T) {
	cw := &capWriter{max: 4}
	_, err := cw.Write([]byte("way too long"))
	require.Error(t, err)
}

func TestStreamExportPropagatesRecnumLookupError(t *testing.T) {
	streamer := NewStreamingExporter(NewExporter(nil, &fakeSource{}), fakeLookup{recErr: errBoom})
	var buf bytes.Buffer
	err := streamer.StreamExport(store.ExportRequest{RequestID: "req1"}, &buf, 10<<20)
	require.Error(t, err)
}
