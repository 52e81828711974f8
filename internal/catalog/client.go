// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/heliocore/drms-export/internal/scheduler"
	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// Client is the sqlx/squirrel-backed implementation of scheduler.Catalog.
type Client struct {
	DB        *sqlx.DB
	Driver    string // "sqlite3" or "mysql"; only sqlite3 is exercised in tests
	stmtCache *sq.StmtCache
}

// New wraps an already-connected db for driver ("sqlite3" or "mysql").
func New(db *sqlx.DB, driver string) *Client {
	return &Client{DB: db, Driver: driver, stmtCache: sq.NewStmtCache(db.DB)}
}

var _ scheduler.Catalog = (*Client)(nil)

func wrapCatalogErr(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return err
	}
	return fmt.Errorf("catalog: %w: %w", xerr.CatalogUnavailable, err)
}

type processingStepRow struct {
	Name         string `db:"name"`
	ExecPath     string `db:"exec_path"`
	RequiredArgs string `db:"required_args"`
	OptionalArgs string `db:"optional_args"`
	NameMap      string `db:"name_map"`
	RuleKind     int    `db:"rule_kind"`
	RuleA        string `db:"rule_a"`
	RuleB        string `db:"rule_b"`
}

// ProcessingStep looks up one processing-catalog row by step name.
func (c *Client) ProcessingStep(name string) (store.ProcessingStep, bool, error) {
	var row processingStepRow
	err := sq.Select("name", "exec_path", "required_args", "optional_args", "name_map", "rule_kind", "rule_a", "rule_b").
		From("processing_step").Where(sq.Eq{"name": name}).
		RunWith(c.stmtCache).QueryRow().Scan(
		&row.Name, &row.ExecPath, &row.RequiredArgs, &row.OptionalArgs, &row.NameMap, &row.RuleKind, &row.RuleA, &row.RuleB,
	)
	if err == sql.ErrNoRows {
		return store.ProcessingStep{}, false, nil
	}
	if err != nil {
		return store.ProcessingStep{}, false, wrapCatalogErr(err)
	}

	step := store.ProcessingStep{
		Name:         row.Name,
		ExecPath:     row.ExecPath,
		RequiredArgs: splitNonEmpty(row.RequiredArgs, ","),
		OptionalArgs: map[string]string{},
		NameMap:      map[string]string{},
		OutputRule:   store.OutputRule{Kind: store.OutputRuleKind(row.RuleKind), A: row.RuleA, B: row.RuleB},
	}
	if row.OptionalArgs != "" {
		if err := json.Unmarshal([]byte(row.OptionalArgs), &step.OptionalArgs); err != nil {
			return store.ProcessingStep{}, false, fmt.Errorf("catalog: decode optional_args for %q: %w", name, err)
		}
	}
	if row.NameMap != "" {
		if err := json.Unmarshal([]byte(row.NameMap), &step.NameMap); err != nil {
			return store.ProcessingStep{}, false, fmt.Errorf("catalog: decode name_map for %q: %w", name, err)
		}
	}
	return step, true, nil
}

// SeriesInfo looks up prime-key shape for a series name.
func (c *Client) SeriesInfo(name string) (scheduler.SeriesInfo, error) {
	var info scheduler.SeriesInfo
	var hasReqID int
	err := sq.Select("name", "prime_key_count", "has_requestid_prime").
		From("series_info").Where(sq.Eq{"name": name}).
		RunWith(c.stmtCache).QueryRow().Scan(&info.Name, &info.PrimeKeyCount, &hasReqID)
	if err != nil {
		return scheduler.SeriesInfo{}, fmt.Errorf("catalog: series info for %q: %w", name, wrapCatalogErr(err))
	}
	info.HasRequestIDPrime = hasReqID != 0
	return info, nil
}

// RecnumsForSpec resolves a multi-subset record-set spec to the union of
// matching recnums. The spec itself is opaque to the catalog layer; actual
// record-set parsing/matching is not done here, so this issues one query
// per comma-separated sub-spec and unions the results from the
// record_filter_match mapping table. No code in this module writes that
// table; it must be populated externally.
func (c *Client) RecnumsForSpec(spec string) ([]int64, error) {
	subspecs := scheduler.SplitSubspecs(spec)
	seen := map[int64]bool{}
	var out []int64
	for _, sub := range subspecs {
		series := scheduler.StripFilters(sub)
		rows, err := sq.Select("recnum").From("record_filter_match").
			Where(sq.Eq{"series": series, "subspec": sub}).
			RunWith(c.stmtCache).Query()
		if err != nil {
			return nil, wrapCatalogErr(err)
		}
		for rows.Next() {
			var r int64
			if err := rows.Scan(&r); err != nil {
				rows.Close()
				return nil, wrapCatalogErr(err)
			}
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
		rows.Close()
	}
	return out, nil
}

// NotifyAddress resolves a user identity's notification address.
func (c *Client) NotifyAddress(user string) (string, bool, error) {
	var addr string
	err := sq.Select("address").From("notify_address").Where(sq.Eq{"user": user}).
		RunWith(c.stmtCache).QueryRow().Scan(&addr)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapCatalogErr(err)
	}
	return addr, true, nil
}

// ExportRow looks up one export_request row by request id, for the web
// status and URL_CGI endpoints and for cmd/drms-exporter. It is not part of
// scheduler.Catalog: the scheduler never needs to read a row back by id.
func (c *Client) ExportRow(reqID string) (store.ExportRequest, bool, error) {
	var req store.ExportRequest
	var s int
	err := sq.Select("request_id", "user", "spec", "processing", "protocol", "format", "filename_format", "method", "size_mb", "status", "error_message").
		From("export_request").Where(sq.Eq{"request_id": reqID}).
		RunWith(c.stmtCache).QueryRow().Scan(
		&req.RequestID, &req.User, &req.Spec, &req.Processing, &req.Protocol, &req.Format,
		&req.FilenameFormat, &req.Method, &req.SizeMB, &s, &req.ErrorMessage,
	)
	if err == sql.ErrNoRows {
		return store.ExportRequest{}, false, nil
	}
	if err != nil {
		return store.ExportRequest{}, false, wrapCatalogErr(err)
	}
	req.Status = store.RequestStatus(s)
	return req, true, nil
}

// ClaimNew fetches up to n rows in New (or DevNew) status and clones each
// into the durable export table. A row whose INSERT fails is skipped (and
// so remains New for the next pass) rather than aborting the whole batch.
func (c *Client) ClaimNew(n int, dev bool) ([]store.ExportRequest, error) {
	status := store.StatusNew
	if dev {
		status = store.StatusDevNew
	}

	rows, err := sq.Select("request_id", "user", "spec", "processing", "protocol", "format", "filename_format", "method", "size_mb", "status").
		From("export_request").Where(sq.Eq{"status": int(status)}).Limit(uint64(n)).
		RunWith(c.stmtCache).Query()
	if err != nil {
		return nil, wrapCatalogErr(err)
	}
	defer rows.Close()

	var pending []store.ExportRequest
	for rows.Next() {
		var req store.ExportRequest
		var s int
		if err := rows.Scan(&req.RequestID, &req.User, &req.Spec, &req.Processing, &req.Protocol, &req.Format, &req.FilenameFormat, &req.Method, &req.SizeMB, &s); err != nil {
			return nil, wrapCatalogErr(err)
		}
		req.Status = store.RequestStatus(s)
		pending = append(pending, req)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapCatalogErr(err)
	}
	// release the connection before writing: sqlite runs with a single one
	rows.Close()

	var claimed []store.ExportRequest
	for _, req := range pending {
		if err := c.SaveExportRow(req); err != nil {
			continue // step 1: clone failure leaves the row in New for retry
		}
		claimed = append(claimed, req)
	}
	return claimed, nil
}

// SaveExportRow persists req's current fields, inserting or updating the
// export table row by request_id. The upsert clause is driver-specific
// (sqlite3's ON CONFLICT vs mysql's ON DUPLICATE KEY), mirroring the
// teacher's own driver-conditional SQL in dbConnection.go.
func (c *Client) SaveExportRow(req store.ExportRequest) error {
	now := time.Now().Unix()
	cols := `request_id, user, spec, processing, protocol, format, filename_format, method, size_mb, status, error_message, created_at, updated_at`
	args := []any{
		req.RequestID, req.User, req.Spec, req.Processing, req.Protocol, req.Format, req.FilenameFormat, req.Method,
		req.SizeMB, int(req.Status), req.ErrorMessage, now, now,
	}

	var query string
	switch c.Driver {
	case "mysql":
		query = fmt.Sprintf(`INSERT INTO export_request (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE spec=VALUES(spec), processing=VALUES(processing), protocol=VALUES(protocol),
			format=VALUES(format), filename_format=VALUES(filename_format), method=VALUES(method),
			size_mb=VALUES(size_mb), status=VALUES(status), error_message=VALUES(error_message), updated_at=VALUES(updated_at)`, cols)
	default: // sqlite3
		query = fmt.Sprintf(`INSERT INTO export_request (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(request_id) DO UPDATE SET
			spec=excluded.spec, processing=excluded.processing, protocol=excluded.protocol,
			format=excluded.format, filename_format=excluded.filename_format, method=excluded.method,
			size_mb=excluded.size_mb, status=excluded.status, error_message=excluded.error_message,
			updated_at=excluded.updated_at`, cols)
	}

	_, err := c.DB.Exec(query, args...)
	return wrapCatalogErr(err)
}

// DeletePendingRequest removes the backpressure row for user.
func (c *Client) DeletePendingRequest(user string) error {
	_, err := c.DB.Exec(`DELETE FROM pending_request WHERE user = ?`, user)
	return wrapCatalogErr(err)
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
