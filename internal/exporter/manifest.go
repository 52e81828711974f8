// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package exporter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ManifestEntry describes one exported file: a line of jsoc/file_list.txt
// and one row of index.json's "files" array.
type ManifestEntry struct {
	Record   int64  `json:"record"`
	Segment  string `json:"segment"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
}

// Manifest accumulates the bookkeeping jsoc_export_make_index performs
// after a run: the exported file list, any per-record errors, and the
// total size the scheduler's Size=<MB> update is derived from.
type Manifest struct {
	RequestID string
	Files     []ManifestEntry
	Errors    []string
}

// TotalBytes sums every exported file's size.
func (m *Manifest) TotalBytes() int64 {
	var total int64
	for _, f := range m.Files {
		total += f.Bytes
	}
	return total
}

// SizeMB rounds TotalBytes up to whole megabytes, the unit the scheduler's
// request row Size column stores.
func (m *Manifest) SizeMB() int64 {
	const mb = 1 << 20
	total := m.TotalBytes()
	return (total + mb - 1) / mb
}

// FileList renders jsoc/file_list.txt: one "<filename> <bytes>" line per
// exported file.
func (m *Manifest) FileList() []byte {
	var b strings.Builder
	for _, f := range m.Files {
		fmt.Fprintf(&b, "%s %d\n", f.Filename, f.Bytes)
	}
	return []byte(b.String())
}

// ErrorList renders jsoc/error_list.txt: one error message per line.
func (m *Manifest) ErrorList() []byte {
	return []byte(strings.Join(m.Errors, "\n"))
}

type indexDocument struct {
	RequestID  string          `json:"request_id"`
	SizeMB     int64           `json:"size_mb"`
	Files      []ManifestEntry `json:"files"`
	ErrorCount int             `json:"error_count"`
}

// IndexJSON renders the index.json document jsoc_export_make_index
// writes, from which the emitted run script extracts size_mb via jq
// (scripts.go's RenderDrmsrunScript).
func (m *Manifest) IndexJSON() ([]byte, error) {
	doc := indexDocument{
		RequestID:  m.RequestID,
		SizeMB:     m.SizeMB(),
		Files:      m.Files,
		ErrorCount: len(m.Errors),
	}
	return json.Marshal(doc)
}
