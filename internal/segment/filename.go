// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// DefaultFilenameFormat is used when a request supplies no explicit
// filename format, per the original exputl_mk_expfilename default.
const DefaultFilenameFormat = "{seriesname}.{recnum:%lld}.{segment}"

// KeywordLookup resolves a keyword by name against the record owning seg,
// following links the way drms_keyword_lookup does (the source segment's
// name/metadata are used, but a linked segment's value comes from the
// target record). internal/exporter supplies one backed by
// keyword.Container.Resolve.
type KeywordLookup func(seg *store.Segment, name string) (*store.Keyword, error)

// Expander threads the "#" ordinal counter across the names generated
// within one export run, mirroring exputl_mk_expfilename's static
// namesMade counter, scoped per Expander instead of process-global.
type Expander struct {
	lookup    KeywordLookup
	namesMade int
}

// NewExpander builds a filename expander. lookup may be nil if the format
// string is known not to reference any keyword.
func NewExpander(lookup KeywordLookup) *Expander {
	return &Expander{lookup: lookup}
}

// Expand renders format against seg, substituting the proxy names
// (seriesname, recnum, segment, #) and keyword references in "{name}" or
// "{name:layout}" form.
//
// The original's alias-handling branch (a keyword lookup that resolves to
// a name different from the one requested) is a no-op here: Go strings are
// immutable value copies, so there is no shared-buffer aliasing hazard for
// the rewritten alias to guard against, and the resolved *store.Keyword
// already carries its own name.
func (e *Expander) Expand(format string, seg *store.Segment) (string, error) {
	if format == "" {
		format = DefaultFilenameFormat
	}

	var sb strings.Builder
	i := 0
	for i < len(format) {
		if format[i] != '{' {
			sb.WriteByte(format[i])
			i++
			continue
		}
		end := strings.IndexByte(format[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("segment: filename format %q: unterminated '{': %w", format, xerr.BadRequest)
		}
		end += i
		token := format[i+1 : end]
		i = end + 1

		name, layout, hasLayout := token, "", false
		if idx := strings.IndexByte(token, ':'); idx >= 0 {
			name, layout = token[:idx], token[idx+1:]
			hasLayout = true
		}

		val, err := e.resolveToken(name, layout, hasLayout, seg)
		if err != nil {
			return "", err
		}
		sb.WriteString(val)
	}
	return sb.String(), nil
}

func (e *Expander) resolveToken(name, layout string, hasLayout bool, seg *store.Segment) (string, error) {
	switch name {
	case "#":
		format := "%05d"
		if hasLayout {
			format = layout
		}
		val := sprintfC(format, int64(e.namesMade))
		e.namesMade++
		return val, nil
	case "seriesname":
		return seg.Series, nil
	case "recnum":
		format := "%lld"
		if hasLayout {
			format = layout
		}
		return sprintfC(format, seg.RecordRecnum), nil
	case "segment":
		if seg.Filename != "" {
			return seg.Filename, nil
		}
		return seg.Name, nil
	default:
		if e.lookup == nil {
			return "", fmt.Errorf("segment: filename format references keyword %q with no lookup configured: %w", name, xerr.BadRequest)
		}
		k, err := e.lookup(seg, name)
		if err != nil {
			return "", fmt.Errorf("segment: filename format: unknown keyword %q: %w", name, err)
		}
		return formatKeywordToken(k, layout, hasLayout), nil
	}
}

func formatKeywordToken(k *store.Keyword, layout string, hasLayout bool) string {
	if k.Type == dtype.Time && hasLayout {
		tf := parseTimeLayout(layout)
		return dtype.FormatTime(k.Value.Float64(), tf)
	}
	if hasLayout {
		if k.Type.IsInteger() {
			return sprintfC(layout, k.Value.Int64())
		}
		if k.Type.IsFloat() {
			return sprintfC(layout, k.Value.Float64())
		}
		return sprintfC(layout, k.Value.String())
	}
	return dtype.FormatValue(k.Value, k.Format)
}

// parseTimeLayout parses the original format's "[A|D]<precision>[,<zone>]"
// time layout grammar. The 'A'/'D' alternate-format modifiers are accepted
// for compatibility but do not change output here, since FormatTime
// already omits separators when callers want a script-safe name; callers
// wanting the '@'-bracketed directory form should post-process the result.
func parseTimeLayout(layout string) dtype.TimeFormat {
	if len(layout) > 0 && (layout[0] == 'A' || layout[0] == 'D') {
		layout = layout[1:]
	}
	precision := 0
	zone := ""
	rest := layout
	j := 0
	if j < len(rest) && (rest[j] == '-' ) {
		j++
	}
	for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
		j++
	}
	if j > 0 {
		if n, err := strconv.Atoi(rest[:j]); err == nil {
			precision = n
		}
		rest = rest[j:]
	}
	if strings.HasPrefix(rest, ",") {
		zone = rest[1:]
	}
	return dtype.TimeFormat{Precision: precision, Zone: zone}
}

// sprintfC renders a C-style printf verb (%lld, %05d, %s, ...) for v. Only
// the verb family actually used by filename formats is supported.
func sprintfC(format string, v any) string {
	f := strings.ReplaceAll(format, "%lld", "%d")
	f = strings.ReplaceAll(f, "%ld", "%d")
	return fmt.Sprintf(f, v)
}
