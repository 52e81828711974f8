// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package fits

import (
	"testing"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/stretchr/testify/require"
)

func TestExportKeywordUsesDescriptionHint(t *testing.T) {
	k := &store.Keyword{
		Name:        "quality",
		Type:        dtype.Int,
		Value:       dtype.NewInt(dtype.Int, 42),
		Description: "[QUAL:INTEGER] data quality bitmask",
	}
	c, err := ExportKeyword(k, ExportOptions{})
	require.NoError(t, err)
	require.Equal(t, "QUAL", c.Name)
	require.Equal(t, KindInteger, c.Kind)
	require.Equal(t, int64(42), c.IntVal)
}

func TestExportKeywordSynthesizesLongName(t *testing.T) {
	k := &store.Keyword{
		Name:  "this_name_is_way_too_long",
		Type:  dtype.Short,
		Value: dtype.NewInt(dtype.Short, 1),
	}
	c, err := ExportKeyword(k, ExportOptions{})
	require.NoError(t, err)
	require.LessOrEqual(t, len(c.Name), 8)
}

func TestExportKeywordLogicalDefaultInverted(t *testing.T) {
	k := &store.Keyword{
		Name:        "isgood",
		Type:        dtype.Char,
		Value:       dtype.NewInt(dtype.Char, 0),
		Description: "[ISGOOD:LOGICAL]",
	}
	c, err := ExportKeyword(k, ExportOptions{})
	require.NoError(t, err)
	require.Equal(t, KindLogical, c.Kind)
	require.True(t, c.BoolVal) // store 0 -> FITS T under inverted default mapping
}

func TestImportKeywordNarrowsInteger(t *testing.T) {
	k, err := ImportKeyword(Card{Name: "NAXIS1", Kind: KindInteger, IntVal: 100}, ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, dtype.Char, k.Type)
}

func TestImportKeywordLogicalRoundTripHint(t *testing.T) {
	k, err := ImportKeyword(Card{Name: "SIMPLE", Kind: KindLogical, BoolVal: true}, ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, dtype.Char, k.Type)
	require.Contains(t, k.Description, "SIMPLE:Logical")
}

func TestImportKeywordFloatNarrowsWhenExact(t *testing.T) {
	k, err := ImportKeyword(Card{Name: "CRVAL1", Kind: KindFloat, FltVal: 1.5}, ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, dtype.Float, k.Type)
}

func TestImportKeywordFloatWidensWhenInexact(t *testing.T) {
	k, err := ImportKeyword(Card{Name: "CRVAL1", Kind: KindFloat, FltVal: 1.0000000001234567}, ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, dtype.Double, k.Type)
}

func TestAccumulateCommentHistory(t *testing.T) {
	k := store.Keyword{Name: "comment"}
	k = AccumulateCommentHistory(k, "first line")
	k = AccumulateCommentHistory(k, "second line")
	require.Equal(t, "first line\nsecond line", k.Value.String())
}

func TestParseCompressParams(t *testing.T) {
	p, err := ParseCompressParams("compress Rice (1024,1)")
	require.NoError(t, err)
	require.Equal(t, CompressRice, p.Algorithm)
	require.Equal(t, []int64{1024, 1}, p.TileAxes)

	none, err := ParseCompressParams("")
	require.NoError(t, err)
	require.Equal(t, CompressNone, none.Algorithm)
}

func TestImageInfoRoundTrip(t *testing.T) {
	a := &store.Array{Type: dtype.Int, Naxis: 2, Axes: []int64{10, 20}}
	info, err := DeriveImageInfo(a)
	require.NoError(t, err)
	require.Equal(t, 32, info.Bitpix)

	h := &Header{}
	info.ApplyToHeader(h)
	back, err := ImageInfoFromHeader(h)
	require.NoError(t, err)
	require.Equal(t, info.Bitpix, back.Bitpix)
	require.Equal(t, info.Axes, back.Axes)
}

func TestShootBlanks(t *testing.T) {
	a := &store.Array{
		Type: dtype.Short,
		Data: []dtype.Value{
			dtype.NewInt(dtype.Short, 5),
			dtype.NewInt(dtype.Short, -9999),
			dtype.NewInt(dtype.Short, 7),
		},
	}
	ShootBlanks(a, -9999)
	require.Equal(t, int64(5), a.Data[0].Int64())
	require.True(t, dtype.IsMissing(a.Data[1]))
	require.Equal(t, int64(7), a.Data[2].Int64())
}
