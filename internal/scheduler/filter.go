// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package scheduler

import "strings"

// ReqidFilter builds the "[][]...[reqid]" filter appended to a processing
// step's input spec. The total number of bracket groups, counting the
// trailing "[reqid]" group, equals the series's prime-key constituent
// count, plus one more if the series has no RequestID prime-key component
// of its own (so the reqid slot is an extra trailing key rather than one
// of the series's own prime keys).
func ReqidFilter(info SeriesInfo, reqid string) string {
	n := info.PrimeKeyCount
	if !info.HasRequestIDPrime {
		n++
	}
	if n < 1 {
		n = 1
	}

	var b strings.Builder
	for i := 0; i < n-1; i++ {
		b.WriteString("[]")
	}
	b.WriteString("[")
	b.WriteString(reqid)
	b.WriteString("]")
	return b.String()
}

// StripFilters removes any bracketed filter groups from a record-set spec
// by keeping only the text before the first '['; anything after the
// filters, including a segment-list suffix, is dropped as well.
func StripFilters(spec string) string {
	idx := strings.IndexByte(spec, '[')
	if idx < 0 {
		return spec
	}
	return spec[:idx]
}

// ApplyReqidFilter strips any existing filters from spec and appends the
// reqid-scoped filter in their place.
func ApplyReqidFilter(spec string, info SeriesInfo, reqid string) string {
	return StripFilters(spec) + ReqidFilter(info, reqid)
}
