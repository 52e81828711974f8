// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package exporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/heliocore/drms-export/internal/keyword"
	"github.com/heliocore/drms-export/internal/segment"
	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/fits"
	"github.com/heliocore/drms-export/pkg/rlog"
	"github.com/heliocore/drms-export/pkg/tarstream"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// Lookup is the subset of internal/catalog's surface the exporter binary
// needs. It is narrower than scheduler.Catalog: by the time this binary
// starts, the processing steps named in the request's pipeline have
// already run as separate programs (scripts.go's RenderDrmsrunScript), so
// only the request row and its resolved recnum set are needed here.
type Lookup interface {
	ExportRow(reqID string) (store.ExportRequest, bool, error)
	RecnumsForSpec(spec string) ([]int64, error)
}

// Exporter runs one request's record iteration -> segment read -> FITS
// encode -> TAR write pipeline.
type Exporter struct {
	Engine *segment.Engine
	Source RecordSource
}

// NewExporter builds an Exporter.
func NewExporter(engine *segment.Engine, source RecordSource) *Exporter {
	return &Exporter{Engine: engine, Source: source}
}

// recordLookup adapts Source into a keyword.RecordLookup, so a link's
// target record's keywords can be resolved by record-reference string
// (the Store's convention is "<series>:#<recnum>"; see ParseRecordRef).
func (e *Exporter) recordLookup() keyword.RecordLookup {
	return func(ref string) (*keyword.Container, error) {
		recnum, err := ParseRecordRef(ref)
		if err != nil {
			return nil, err
		}
		rec, err := e.Source.Record(recnum)
		if err != nil {
			return nil, err
		}
		return keyword.NewContainer(rec.Keywords, e.recordLookup()), nil
	}
}

// ParseRecordRef parses a "<series>:#<recnum>" record-reference string
// (the format keyword links use to name their target record) into its
// recnum. The series half is not needed to fetch the record: recnums are
// unique across the catalog this core talks to.
func ParseRecordRef(ref string) (int64, error) {
	idx := strings.LastIndexByte(ref, '#')
	if idx < 0 {
		return 0, fmt.Errorf("exporter: malformed record reference %q: %w", ref, xerr.BadRequest)
	}
	var recnum int64
	if _, err := fmt.Sscanf(ref[idx+1:], "%d", &recnum); err != nil {
		return 0, fmt.Errorf("exporter: malformed record reference %q: %w", ref, xerr.BadRequest)
	}
	return recnum, nil
}

// tarSink is the member-level write surface shared by tarstream.Writer,
// tarstream.RollingWriter, and stage.Target: one call per tar member,
// rather than a raw byte stream. Run wraps a byte-level sink in a
// tarstream.Writer to get this; RunToStage is handed one directly, since
// stage.Target already rolls members across however many backing tar
// files it needs.
type tarSink interface {
	WriteFile(h tarstream.FileHeader, r io.Reader) error
}

var _ tarSink = (*tarstream.Writer)(nil)

// Run exports every recnum into sink as a single USTAR stream, returning
// the accumulated manifest. sink is wrapped in a tarstream.Writer here,
// for the URL_CGI single-stream caller; the staging/S3 caller uses
// RunToStage instead, against a sink that already rolls across several
// tar files on its own.
func (e *Exporter) Run(ctx context.Context, req store.ExportRequest, recnums []int64, sink tarstream.WriteFlusher) (*Manifest, error) {
	tw := tarstream.NewWriter(sink)
	manifest, err := e.runInto(ctx, req, recnums, tw, func() { tw.Terminate() })
	if err != nil {
		return manifest, err
	}
	if err := tw.Close(); err != nil {
		return manifest, err
	}
	return manifest, nil
}

// RunToStage exports every recnum into target, a staging sink that caps
// and rolls output across as many tar files as the run needs (local disk
// or S3; see internal/stage). Unlike Run, it does not wrap target in its
// own tarstream.Writer: target is already a complete member-level sink.
// Closing target is the caller's responsibility, since the caller is also
// the one that opened it.
func (e *Exporter) RunToStage(ctx context.Context, req store.ExportRequest, recnums []int64, target tarSink) (*Manifest, error) {
	return e.runInto(ctx, req, recnums, target, nil)
}

// runInto drives the shared record-iteration loop against any tarSink,
// appending the file/error manifest at the end. onCancel, if non-nil, is
// called once before breaking out of the loop on context cancellation,
// giving Run a chance to mark its tarstream.Writer terminated; a staging
// sink has no equivalent concept, since each rolled-over part is already
// a complete, valid tar file on its own.
func (e *Exporter) runInto(ctx context.Context, req store.ExportRequest, recnums []int64, sink tarSink, onCancel func()) (*Manifest, error) {
	manifest := &Manifest{RequestID: req.RequestID}

	protocolName, cparmsStr := splitProtocolField(req.Protocol)
	protocol, ok := store.ParseProtocol(protocolName)
	if !ok {
		return nil, fmt.Errorf("exporter: unknown export protocol %q: %w", req.Protocol, xerr.BadRequest)
	}
	if protocol != store.ProtoFITS && protocol != store.ProtoFITSTiled {
		return nil, fmt.Errorf("exporter: export target protocol %q: %w", req.Protocol, xerr.Unsupported)
	}

	var cparms fits.CompressParams
	if cparmsStr != "" {
		var err error
		cparms, err = fits.ParseCompressParams(cparmsStr)
		if err != nil {
			return nil, fmt.Errorf("exporter: %w", err)
		}
	}

	for _, recnum := range recnums {
		if ctx.Err() != nil {
			if onCancel != nil {
				onCancel()
			}
			break
		}
		if err := e.exportRecord(ctx, sink, req, recnum, cparms, manifest); err != nil {
			if !xerr.Recoverable(err) {
				rlog.Warnf("exporter: %s: record %d: %v", req.RequestID, recnum, err)
				manifest.Errors = append(manifest.Errors, fmt.Sprintf("record %d: %v", recnum, err))
				continue
			}
			return manifest, err
		}
	}

	if err := e.appendBookkeeping(sink, manifest); err != nil {
		return manifest, err
	}
	return manifest, nil
}

func (e *Exporter) appendBookkeeping(sink tarSink, manifest *Manifest) error {
	now := time.Now().Unix()
	if len(manifest.Files) > 0 {
		if err := writeBytes(sink, "jsoc/file_list.txt", manifest.FileList(), now); err != nil {
			return err
		}
	}
	if len(manifest.Errors) > 0 {
		if err := writeBytes(sink, "jsoc/error_list.txt", manifest.ErrorList(), now); err != nil {
			return err
		}
	}
	return nil
}

func writeBytes(sink tarSink, name string, data []byte, mtime int64) error {
	return sink.WriteFile(tarstream.FileHeader{Name: name, Size: int64(len(data)), Mtime: mtime}, bytes.NewReader(data))
}

func (e *Exporter) exportRecord(ctx context.Context, sink tarSink, req store.ExportRequest, recnum int64, cparms fits.CompressParams, manifest *Manifest) error {
	rec, err := e.Source.Record(recnum)
	if err != nil {
		return fmt.Errorf("fetch record: %w", err)
	}

	container := keyword.NewContainer(rec.Keywords, e.recordLookup())
	expand := segment.NewExpander(func(seg *store.Segment, name string) (*store.Keyword, error) {
		return container.Resolve(name)
	})

	cards, err := exportKeywordCards(container, cparms)
	if err != nil {
		return fmt.Errorf("export keywords: %w", err)
	}

	for i := range rec.Segments {
		seg := rec.Segments[i]
		arr, err := e.Engine.Read(ctx, &seg, seg.Type)
		if err != nil {
			return fmt.Errorf("segment %s: %w", seg.Name, err)
		}

		var buf bytes.Buffer
		if err := segment.EncodeFITS(&buf, arr, cards); err != nil {
			return fmt.Errorf("segment %s: encode fits: %w", seg.Name, err)
		}

		name, err := expand.Expand(req.FilenameFormat, &seg)
		if err != nil {
			return fmt.Errorf("segment %s: derive filename: %w", seg.Name, err)
		}

		if err := sink.WriteFile(tarstream.FileHeader{Name: name, Size: int64(buf.Len()), Mode: 0o664, Mtime: time.Now().Unix()}, &buf); err != nil {
			return fmt.Errorf("segment %s: write tar member: %w", seg.Name, err)
		}
		manifest.Files = append(manifest.Files, ManifestEntry{Record: recnum, Segment: seg.Name, Filename: name, Bytes: int64(buf.Len())})
	}
	return nil
}

// exportKeywordCards applies the keyword map to every non-link keyword on
// the record, plus an informational ZCMPTYPE card when the request named a
// tile compression scheme. Actual Rice/GZIP tile compression is not
// performed — see DESIGN.md; cfitsio's tile codecs are out of this core's
// scope the same way the legacy numeric-array library is.
func exportKeywordCards(container *keyword.Container, cparms fits.CompressParams) ([]fits.Card, error) {
	var cards []fits.Card
	for _, k := range container.Ordered() {
		if k.IsLink {
			continue
		}
		c, err := fits.ExportKeyword(k, fits.ExportOptions{})
		if err != nil {
			return nil, fmt.Errorf("keyword %s: %w", k.Name, err)
		}
		cards = append(cards, c)
	}

	if cparms.Algorithm != fits.CompressNone {
		cards = append(cards, fits.Card{Name: "ZCMPTYPE", Kind: fits.KindString, StrVal: cparms.Algorithm.String()})
	}
	return cards, nil
}

// splitProtocolField splits a request's Protocol field into the protocol
// name and the (optional) comma-separated compression parameter string
// following it.
func splitProtocolField(s string) (protocol, cparms string) {
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}
