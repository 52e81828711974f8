// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package fits

import (
	"fmt"
	"strings"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
)

// ImportOptions controls keyword import LOGICAL polarity.
type ImportOptions struct {
	Logical LogicalMapping
}

// ImportKeyword converts one FITS card into a store.Keyword, following a
// fixed set of keyword-import rules: integers narrow to the smallest containing store
// type, floats narrow to Float iff they fit exactly, Logical becomes
// Char{0,1} with cast Logical, and a round-trip hint is attached to the
// description whenever the store name or cast would otherwise be lost.
func ImportKeyword(c Card, opt ImportOptions) (store.Keyword, error) {
	k := store.Keyword{Name: strings.ToLower(c.Name)}

	var cast string
	switch c.Kind {
	case KindString:
		k.Type = dtype.String
		k.Value = dtype.NewString(strings.TrimRight(c.StrVal, " "))
	case KindLogical:
		k.Type = dtype.Char
		k.Value = dtype.NewInt(dtype.Char, opt.Logical.ToStore(c.BoolVal))
		cast = "Logical"
	case KindInteger:
		k.Type = narrowestIntType(c.IntVal)
		k.Value = dtype.NewInt(k.Type, c.IntVal)
	case KindFloat:
		if fitsFloat32Exactly(c.FltVal) {
			k.Type = dtype.Float
		} else {
			k.Type = dtype.Double
		}
		k.Value = dtype.NewFloat(k.Type, c.FltVal)
	default:
		return store.Keyword{}, fmt.Errorf("fits: card %q has no importable value", c.Name)
	}

	fitsName := c.Name
	storeName := k.Name
	if !strings.EqualFold(fitsName, storeName) || cast == "Logical" {
		if cast == "" {
			cast = defaultCast(k.Type)
		}
		k.Description = fmt.Sprintf("[%s:%s]", fitsName, cast)
	} else if c.Comment != "" {
		k.Description = c.Comment
	}

	return k, nil
}

// AccumulateCommentHistory folds a repeated COMMENT/HISTORY card's text
// into the existing keyword value, newline-separated.
func AccumulateCommentHistory(existing store.Keyword, text string) store.Keyword {
	if existing.Value.Type() != dtype.String || existing.Value.String() == "" {
		existing.Type = dtype.String
		existing.Value = dtype.NewString(text)
		return existing
	}
	existing.Value = dtype.NewString(existing.Value.String() + "\n" + text)
	return existing
}

func narrowestIntType(v int64) dtype.Type {
	switch {
	case v >= dtype.IntegerMin(dtype.Char)+1 && v <= dtype.IntegerMax(dtype.Char):
		return dtype.Char
	case v >= dtype.IntegerMin(dtype.Short)+1 && v <= dtype.IntegerMax(dtype.Short):
		return dtype.Short
	case v >= dtype.IntegerMin(dtype.Int)+1 && v <= dtype.IntegerMax(dtype.Int):
		return dtype.Int
	default:
		return dtype.Long
	}
}

// fitsFloat32Exactly reports whether v round-trips through float32 without
// loss, i.e. narrowing to Float would not change its value.
func fitsFloat32Exactly(v float64) bool {
	return float64(float32(v)) == v
}
