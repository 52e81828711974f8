// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package fits

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// Keymap is an external name/cast override table, keyed by store keyword
// name, populated either from an explicit keymap file or a named keymap
// class, the first two name-resolution priorities.
type Keymap map[string]KeymapEntry

// KeymapEntry overrides a keyword's exported FITS name and/or cast.
type KeymapEntry struct {
	FITSName string
	Cast     string // "", "INTEGER", "FLOAT", "STRING", "LOGICAL"
}

// ExportOptions controls keyword export name/type resolution and LOGICAL
// polarity.
type ExportOptions struct {
	Keymap  Keymap
	Logical LogicalMapping
}

// ExportKeyword resolves k's external FITS name and cast and renders it as
// a Card, following a fixed priority order: explicit keymap → hint in the
// description → uppercased legal original name → synthesized legal name.
func ExportKeyword(k *store.Keyword, opt ExportOptions) (Card, error) {
	name, cast := resolveExportNameAndCast(k, opt.Keymap)

	c := Card{Name: name}
	switch cast {
	case "LOGICAL":
		c.Kind = KindLogical
		c.BoolVal = opt.Logical.ToFITS(k.Value.Int64())
	case "STRING":
		c.Kind = KindString
		c.StrVal = dtype.FormatValue(k.Value, k.Format)
	case "INTEGER":
		c.Kind = KindInteger
		c.IntVal = k.Value.Int64()
	case "FLOAT":
		c.Kind = KindFloat
		c.FltVal = k.Value.Float64()
	default:
		return Card{}, fmt.Errorf("fits: keyword %s: unresolved cast: %w", k.Name, xerr.Unsupported)
	}
	c.Comment = k.Description
	return c, nil
}

// resolveExportNameAndCast implements the priority chain and returns the
// chosen (fitsName, cast) pair.
func resolveExportNameAndCast(k *store.Keyword, km Keymap) (string, string) {
	if km != nil {
		if e, ok := km[k.Name]; ok {
			name := e.FITSName
			if name == "" {
				name = k.Name
			}
			cast := e.Cast
			if cast == "" {
				cast = defaultCast(k.Type)
			}
			return name, cast
		}
	}

	if name, cast, ok := parseDescriptionHint(k.Description); ok {
		if cast == "" {
			cast = defaultCast(k.Type)
		}
		return name, cast
	}

	if cast := castFromCastSuffix(k.Description); cast != "" {
		return legalFITSName(k.Name), cast
	}

	if isLegalFITSName(k.Name) {
		return strings.ToUpper(k.Name), defaultCast(k.Type)
	}
	return synthesizeFITSName(k.Name), defaultCast(k.Type)
}

// parseDescriptionHint extracts a leading "[NAME]" or "[NAME:CAST]" hint
// from a keyword's description field.
func parseDescriptionHint(desc string) (name, cast string, ok bool) {
	desc = strings.TrimSpace(desc)
	if !strings.HasPrefix(desc, "[") {
		return "", "", false
	}
	end := strings.Index(desc, "]")
	if end < 0 {
		return "", "", false
	}
	inner := desc[1:end]
	if idx := strings.Index(inner, ":"); idx >= 0 {
		name = inner[:idx]
		cast = strings.ToUpper(inner[idx+1:])
		if !validCast(cast) {
			cast = ""
		}
	} else {
		name = inner
	}
	if name == "" {
		return "", "", false
	}
	return name, cast, true
}

// castFromCastSuffix honors a bare ":CAST" suffix anywhere in the
// description when no "[NAME]" hint form is present.
func castFromCastSuffix(desc string) string {
	idx := strings.LastIndex(desc, ":")
	if idx < 0 {
		return ""
	}
	cast := strings.ToUpper(strings.TrimSpace(desc[idx+1:]))
	if validCast(cast) {
		return cast
	}
	return ""
}

func validCast(cast string) bool {
	switch cast {
	case "INTEGER", "FLOAT", "STRING", "LOGICAL":
		return true
	default:
		return false
	}
}

func defaultCast(t dtype.Type) string {
	switch t {
	case dtype.Char, dtype.Short, dtype.Int, dtype.Long:
		return "INTEGER"
	case dtype.Float, dtype.Double:
		return "FLOAT"
	case dtype.Time, dtype.String:
		return "STRING"
	default:
		return ""
	}
}

// isLegalFITSName reports whether name is usable verbatim (uppercased) as
// a FITS keyword: <=8 characters, from [A-Z0-9_-].
func isLegalFITSName(name string) bool {
	if len(name) == 0 || len(name) > 8 {
		return false
	}
	for _, r := range name {
		r = unicode.ToUpper(r)
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

func legalFITSName(name string) string {
	if isLegalFITSName(name) {
		return strings.ToUpper(name)
	}
	return synthesizeFITSName(name)
}

// synthesizeFITSName derives a legal 8-character FITS name from an
// arbitrary store keyword name by stripping disallowed characters and
// truncating; it is deterministic so repeated exports agree.
func synthesizeFITSName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		r = unicode.ToUpper(r)
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
		if sb.Len() >= 8 {
			break
		}
	}
	out := sb.String()
	if out == "" {
		return "KEYWORD"
	}
	return out
}
