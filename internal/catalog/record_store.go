// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/heliocore/drms-export/internal/exporter"
	"github.com/heliocore/drms-export/internal/segment"
	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/xerr"
)

var _ exporter.RecordSource = (*Client)(nil)
var _ segment.ConstantSegmentResolver = (*Client)(nil)

// ResolveConstRecnum looks up the recnum holding seg's canonical shared
// file, or 0 if no writer has claimed it yet.
func (c *Client) ResolveConstRecnum(ctx context.Context, seg *store.Segment) (int64, error) {
	var recnum int64
	err := sq.Select("recnum").From("const_segment").
		Where(sq.Eq{"series": seg.Series, "name": seg.Name}).
		RunWith(c.stmtCache).QueryRow().Scan(&recnum)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, wrapCatalogErr(err)
	}
	return recnum, nil
}

// PersistConstRecnum records recnum as the canonical writer of seg. It
// fails if a canonical writer is already on file, since the whole point
// of a Constant-scope segment is that exactly one record ever writes it.
func (c *Client) PersistConstRecnum(ctx context.Context, seg *store.Segment, recnum int64) error {
	existing, err := c.ResolveConstRecnum(ctx, seg)
	if err != nil {
		return err
	}
	if existing != 0 {
		return fmt.Errorf("catalog: %s.%s already has a canonical writer (recnum %d): %w", seg.Series, seg.Name, existing, xerr.BadRequest)
	}
	_, err = c.DB.Exec(`INSERT INTO const_segment (series, name, recnum) VALUES (?, ?, ?)`,
		seg.Series, seg.Name, recnum)
	return wrapCatalogErr(err)
}

type recordKeywordRow struct {
	Name        string  `db:"name"`
	Type        int     `db:"type"`
	ValueInt    int64   `db:"value_int"`
	ValueFloat  float64 `db:"value_float"`
	ValueStr    string  `db:"value_str"`
	Format      string  `db:"format"`
	Unit        string  `db:"unit"`
	Description string  `db:"description"`
	Scope       int     `db:"scope"`
	Flags       uint32  `db:"flags"`
	Rank        int     `db:"rank"`
	IsLink      int     `db:"is_link"`
	Link        string  `db:"link"`
	Target      string  `db:"target"`
}

type recordSegmentRow struct {
	Name              string `db:"name"`
	Segnum            int    `db:"segnum"`
	Type              int    `db:"type"`
	Naxis             int    `db:"naxis"`
	Axes              string `db:"axes"`
	Protocol          int    `db:"protocol"`
	Scope             int    `db:"scope"`
	Blocksize         string `db:"blocksize"`
	Filename          string `db:"filename"`
	ConstRecordRecnum int64  `db:"const_record_recnum"`
}

// Record assembles one record's keyword and segment rows into an
// exporter.Record, satisfying exporter.RecordSource. The series name is
// read off whichever of the two row sets is non-empty, since a record
// with no keywords at all (unusual but legal) still has segments and vice
// versa; a record with neither is reported missing.
func (c *Client) Record(recnum int64) (exporter.Record, error) {
	kwRows, err := c.recordKeywords(recnum)
	if err != nil {
		return exporter.Record{}, err
	}
	segRows, err := c.recordSegments(recnum)
	if err != nil {
		return exporter.Record{}, err
	}
	if len(kwRows) == 0 && len(segRows) == 0 {
		return exporter.Record{}, fmt.Errorf("catalog: no record for recnum %d: %w", recnum, xerr.BadRequest)
	}

	rec := exporter.Record{Recnum: recnum}
	for _, row := range kwRows {
		rec.Series = row.series
		rec.Keywords = append(rec.Keywords, row.keyword)
	}
	for _, row := range segRows {
		rec.Series = row.series
		rec.Segments = append(rec.Segments, row.segment)
	}
	return rec, nil
}

type keywordRowWithSeries struct {
	series  string
	keyword *store.Keyword
}

func (c *Client) recordKeywords(recnum int64) ([]keywordRowWithSeries, error) {
	rows, err := sq.Select("series", "name", "type", "value_int", "value_float", "value_str",
		"format", "unit", "description", "scope", "flags", "rank", "is_link", "link", "target").
		From("record_keyword").Where(sq.Eq{"recnum": recnum}).OrderBy("rank", "name").
		RunWith(c.stmtCache).Query()
	if err != nil {
		return nil, wrapCatalogErr(err)
	}
	defer rows.Close()

	var out []keywordRowWithSeries
	for rows.Next() {
		var series string
		var row recordKeywordRow
		if err := rows.Scan(&series, &row.Name, &row.Type, &row.ValueInt, &row.ValueFloat, &row.ValueStr,
			&row.Format, &row.Unit, &row.Description, &row.Scope, &row.Flags, &row.Rank, &row.IsLink, &row.Link, &row.Target); err != nil {
			return nil, wrapCatalogErr(err)
		}
		out = append(out, keywordRowWithSeries{series: series, keyword: row.toKeyword()})
	}
	return out, rows.Err()
}

func (row recordKeywordRow) toKeyword() *store.Keyword {
	t := dtype.Type(row.Type)
	var v dtype.Value
	switch {
	case t == dtype.String:
		v = dtype.NewString(row.ValueStr)
	case t == dtype.Float || t == dtype.Double || t == dtype.Time:
		v = dtype.NewFloat(t, row.ValueFloat)
	default:
		v = dtype.NewInt(t, row.ValueInt)
	}
	return &store.Keyword{
		Name:        row.Name,
		Type:        t,
		Value:       v,
		Format:      row.Format,
		Unit:        row.Unit,
		Description: row.Description,
		Scope:       store.KeywordScope(row.Scope),
		Flags:       store.KeywordFlags(row.Flags),
		Rank:        row.Rank,
		IsLink:      row.IsLink != 0,
		Link:        row.Link,
		Target:      row.Target,
	}
}

type segmentRowWithSeries struct {
	series  string
	segment store.Segment
}

func (c *Client) recordSegments(recnum int64) ([]segmentRowWithSeries, error) {
	rows, err := sq.Select("series", "name", "segnum", "type", "naxis", "axes",
		"protocol", "scope", "blocksize", "filename", "const_record_recnum").
		From("record_segment").Where(sq.Eq{"recnum": recnum}).OrderBy("segnum", "name").
		RunWith(c.stmtCache).Query()
	if err != nil {
		return nil, wrapCatalogErr(err)
	}
	defer rows.Close()

	var out []segmentRowWithSeries
	for rows.Next() {
		var series string
		var row recordSegmentRow
		if err := rows.Scan(&series, &row.Name, &row.Segnum, &row.Type, &row.Naxis, &row.Axes,
			&row.Protocol, &row.Scope, &row.Blocksize, &row.Filename, &row.ConstRecordRecnum); err != nil {
			return nil, wrapCatalogErr(err)
		}
		out = append(out, segmentRowWithSeries{series: series, segment: row.toSegment(series, recnum)})
	}
	return out, rows.Err()
}

func (row recordSegmentRow) toSegment(series string, recnum int64) store.Segment {
	return store.Segment{
		Name:              row.Name,
		Segnum:            row.Segnum,
		Type:              dtype.Type(row.Type),
		Naxis:             row.Naxis,
		Axes:              parseInt64List(row.Axes),
		Protocol:          store.Protocol(row.Protocol),
		Scope:             store.SegmentScope(row.Scope),
		Blocksize:         parseInt64List(row.Blocksize),
		Filename:          row.Filename,
		ConstRecordRecnum: row.ConstRecordRecnum,
		RecordRecnum:      recnum,
		Series:            series,
	}
}

// PutRecord upserts recnum's keyword and segment rows. Deployments wire
// this from whatever ingests new records into the catalog; it also backs
// test fixtures for the exporter and segment packages' integration tests.
func (c *Client) PutRecord(series string, recnum int64, keywords []*store.Keyword, segments []store.Segment) error {
	for _, kw := range keywords {
		if err := c.putKeywordRow(series, recnum, kw); err != nil {
			return fmt.Errorf("catalog: put keyword %s for recnum %d: %w", kw.Name, recnum, err)
		}
	}
	for _, seg := range segments {
		if err := c.putSegmentRow(series, recnum, seg); err != nil {
			return fmt.Errorf("catalog: put segment %s for recnum %d: %w", seg.Name, recnum, err)
		}
	}
	return nil
}

func (c *Client) putKeywordRow(series string, recnum int64, kw *store.Keyword) error {
	var vi int64
	var vf float64
	var vs string
	switch {
	case kw.Type == dtype.String:
		vs = kw.Value.String()
	case kw.Type == dtype.Float || kw.Type == dtype.Double || kw.Type == dtype.Time:
		vf = kw.Value.Float64()
	default:
		vi = kw.Value.Int64()
	}

	isLink := 0
	if kw.IsLink {
		isLink = 1
	}

	cols := `recnum, series, name, type, value_int, value_float, value_str, format, unit, description, scope, flags, rank, is_link, link, target`
	args := []any{recnum, series, kw.Name, int(kw.Type), vi, vf, vs, kw.Format, kw.Unit, kw.Description,
		int(kw.Scope), uint32(kw.Flags), kw.Rank, isLink, kw.Link, kw.Target}

	var query string
	switch c.Driver {
	case "mysql":
		query = fmt.Sprintf(`INSERT INTO record_keyword (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE type=VALUES(type), value_int=VALUES(value_int), value_float=VALUES(value_float),
			value_str=VALUES(value_str), format=VALUES(format), unit=VALUES(unit), description=VALUES(description),
			scope=VALUES(scope), flags=VALUES(flags), rank=VALUES(rank), is_link=VALUES(is_link), link=VALUES(link), target=VALUES(target)`, cols)
	default:
		query = fmt.Sprintf(`INSERT INTO record_keyword (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(recnum, name) DO UPDATE SET
			type=excluded.type, value_int=excluded.value_int, value_float=excluded.value_float,
			value_str=excluded.value_str, format=excluded.format, unit=excluded.unit, description=excluded.description,
			scope=excluded.scope, flags=excluded.flags, rank=excluded.rank, is_link=excluded.is_link, link=excluded.link, target=excluded.target`, cols)
	}
	_, err := c.DB.Exec(query, args...)
	return wrapCatalogErr(err)
}

func (c *Client) putSegmentRow(series string, recnum int64, seg store.Segment) error {
	cols := `recnum, series, name, segnum, type, naxis, axes, protocol, scope, blocksize, filename, const_record_recnum`
	args := []any{recnum, series, seg.Name, seg.Segnum, int(seg.Type), seg.Naxis, formatInt64List(seg.Axes),
		int(seg.Protocol), int(seg.Scope), formatInt64List(seg.Blocksize), seg.Filename, seg.ConstRecordRecnum}

	var query string
	switch c.Driver {
	case "mysql":
		query = fmt.Sprintf(`INSERT INTO record_segment (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE segnum=VALUES(segnum), type=VALUES(type), naxis=VALUES(naxis), axes=VALUES(axes),
			protocol=VALUES(protocol), scope=VALUES(scope), blocksize=VALUES(blocksize), filename=VALUES(filename),
			const_record_recnum=VALUES(const_record_recnum)`, cols)
	default:
		query = fmt.Sprintf(`INSERT INTO record_segment (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(recnum, name) DO UPDATE SET
			segnum=excluded.segnum, type=excluded.type, naxis=excluded.naxis, axes=excluded.axes,
			protocol=excluded.protocol, scope=excluded.scope, blocksize=excluded.blocksize, filename=excluded.filename,
			const_record_recnum=excluded.const_record_recnum`, cols)
	}
	_, err := c.DB.Exec(query, args...)
	return wrapCatalogErr(err)
}

func formatInt64List(vals []int64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}

func parseInt64List(s string) []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
