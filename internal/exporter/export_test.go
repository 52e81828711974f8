// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package exporter

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heliocore/drms-export/internal/segment"
	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/tarstream"
	"github.com/heliocore/drms-export/pkg/xerr"
)

func fixtureSegment(name string, recnum int64) store.Segment {
	return store.Segment{
		Name:         name,
		Type:         dtype.Short,
		Naxis:        2,
		Axes:         []int64{2, 2},
		Protocol:     store.ProtoFITS,
		Scope:        store.SegmentVariable,
		RecordRecnum: recnum,
		Series:       "aia.lev1",
	}
}

func writeFixtureArray(t *testing.T, backend *segment.FITSBackend, seg store.Segment) {
	t.Helper()
	arr := &store.Array{
		Type:  dtype.Short,
		Naxis: 2,
		Axes:  []int64{2, 2},
		Data:  []dtype.Value{dtype.NewInt(dtype.Short, 1), dtype.NewInt(dtype.Short, 2), dtype.NewInt(dtype.Short, 3), dtype.NewInt(dtype.Short, 4)},
		IsRaw: true,
	}
	require.NoError(t, backend.Write(context.Background(), &seg, arr, false))
}

type fakeSource struct {
	records map[int64]Record
	err     error
}

func (f *fakeSource) Record(recnum int64) (Record, error) {
	if f.err != nil {
		return Record{}, f.err
	}
	rec, ok := f.records[recnum]
	if !ok {
		return Record{}, xerr.BadRequest
	}
	return rec, nil
}

func newTestEngine(t *testing.T) (*segment.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	pathOf := func(seg *store.Segment) string {
		return filepath.Join(dir, seg.Name+".fits")
	}
	backend := &segment.FITSBackend{PathOf: pathOf}
	engine := segment.NewEngine(map[store.Protocol]segment.Backend{store.ProtoFITS: backend}, nil)
	return engine, dir
}

func TestRunExportsOneRecordOneSegment(t *testing.T) {
	engine, dir := newTestEngine(t)
	seg := fixtureSegment("image", 1000)
	writeFixtureArray(t, &segment.FITSBackend{PathOf: func(s *store.Segment) string { return filepath.Join(dir, s.Name+".fits") }}, seg)

	source := &fakeSource{records: map[int64]Record{
		1000: {Recnum: 1000, Series: "aia.lev1", Segments: []store.Segment{seg}},
	}}

	exp := NewExporter(engine, source)
	req := store.ExportRequest{RequestID: "req1", Protocol: "FITS", FilenameFormat: "{seriesname}.{recnum}.{segment}"}

	var buf bytes.Buffer
	manifest, err := exp.Run(context.Background(), req, []int64{1000}, tarstream.NopFlusher(&buf))
	require.NoError(t, err)
	require.Len(t, manifest.Files, 1)
	require.Equal(t, "aia.lev1.1000.image", manifest.Files[0].Filename)
	require.Empty(t, manifest.Errors)
	require.Greater(t, buf.Len(), 0)
}

func TestRunToStageWritesThroughRollingWriter(t *testing.T) {
	engine, dir := newTestEngine(t)
	seg := fixtureSegment("image", 3000)
	writeFixtureArray(t, &segment.FITSBackend{PathOf: func(s *store.Segment) string { return filepath.Join(dir, s.Name+".fits") }}, seg)

	source := &fakeSource{records: map[int64]Record{
		3000: {Recnum: 3000, Series: "aia.lev1", Segments: []store.Segment{seg}},
	}}
	exp := NewExporter(engine, source)
	req := store.ExportRequest{RequestID: "req3", Protocol: "FITS", FilenameFormat: "{seriesname}.{recnum}.{segment}"}

	stageDir := t.TempDir()
	target := tarstream.NewRollingWriter(stageDir, req.RequestID, 1<<30)
	manifest, err := exp.RunToStage(context.Background(), req, []int64{3000}, target)
	require.NoError(t, err)
	require.NoError(t, target.Close())
	require.Len(t, manifest.Files, 1)
	require.Empty(t, manifest.Errors)

	entries, err := filepath.Glob(filepath.Join(stageDir, "req3_*.tar"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRunRejectsNonFITSProtocol(t *testing.T) {
	engine, _ := newTestEngine(t)
	exp := NewExporter(engine, &fakeSource{})
	req := store.ExportRequest{RequestID: "req1", Protocol: "BINARY"}

	var buf bytes.Buffer
	_, err := exp.Run(context.Background(), req, []int64{1}, tarstream.NopFlusher(&buf))
	require.Error(t, err)
}

func TestRunRecordsPerRecordErrorWithoutAbortingRun(t *testing.T) {
	engine, dir := newTestEngine(t)
	seg := fixtureSegment("image", 2000)
	writeFixtureArray(t, &segment.FITSBackend{PathOf: func(s *store.Segment) string { return filepath.Join(dir, s.Name+".fits") }}, seg)

	source := &fakeSource{records: map[int64]Record{
		2000: {Recnum: 2000, Segments: []store.Segment{seg}},
	}}
	exp := NewExporter(engine, source)
	req := store.ExportRequest{RequestID: "req1", Protocol: "FITS"}

	var buf bytes.Buffer
	manifest, err := exp.Run(context.Background(), req, []int64{1999, 2000}, tarstream.NopFlusher(&buf))
	require.NoError(t, err)
	require.Len(t, manifest.Files, 1)
	require.Len(t, manifest.Errors, 1)
}

func TestManifestSizeMBRoundsUp(t *testing.T) {
	m := &Manifest{Files: []ManifestEntry{{Bytes: 1}, {Bytes: (1 << 20)}}}
	require.Equal(t, int64(2), m.SizeMB())
}

func TestManifestIndexJSONIncludesErrorCount(t *testing.T) {
	m := &Manifest{RequestID: "req1", Errors: []string{"boom"}}
	raw, err := m.IndexJSON()
	require.NoError(t, err)
	require.Contains(t, string(raw), `"error_count":1`)
}

func TestParseRecordRefParsesRecnum(t *testing.T) {
	recnum, err := ParseRecordRef("aia.lev1:#12345")
	require.NoError(t, err)
	require.Equal(t, int64(12345), recnum)
}

func TestParseRecordRefRejectsMalformed(t *testing.T) {
	_, err := ParseRecordRef("no-hash-here")
	require.Error(t, err)
}
