// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"testing"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/stretchr/testify/require"
)

func TestExpandDefaultFormat(t *testing.T) {
	e := NewExpander(nil)
	seg := &store.Segment{Series: "hmi.M_720s", RecordRecnum: 123, Name: "image"}
	out, err := e.Expand("", seg)
	require.NoError(t, err)
	require.Equal(t, "hmi.M_720s.123.image", out)
}

func TestExpandSegmentProxyPrefersFilename(t *testing.T) {
	e := NewExpander(nil)
	seg := &store.Segment{Filename: "magnetogram.fits"}
	out, err := e.Expand("{segment}", seg)
	require.NoError(t, err)
	require.Equal(t, "magnetogram.fits", out)
}

func TestExpandOrdinalCounterIncrements(t *testing.T) {
	e := NewExpander(nil)
	seg := &store.Segment{}
	first, err := e.Expand("{#}", seg)
	require.NoError(t, err)
	second, err := e.Expand("{#}", seg)
	require.NoError(t, err)
	require.Equal(t, "00000", first)
	require.Equal(t, "00001", second)
}

func TestExpandKeywordLookup(t *testing.T) {
	lookup := func(seg *store.Segment, name string) (*store.Keyword, error) {
		return &store.Keyword{Name: name, Type: dtype.Int, Value: dtype.NewInt(dtype.Int, 42)}, nil
	}
	e := NewExpander(lookup)
	out, err := e.Expand("quality={quality}", &store.Segment{})
	require.NoError(t, err)
	require.Equal(t, "quality=42", out)
}

func TestExpandUnterminatedBraceFails(t *testing.T) {
	e := NewExpander(nil)
	_, err := e.Expand("{seriesname", &store.Segment{})
	require.Error(t, err)
}
