// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/stretchr/testify/require"
)

func TestLocalPathLayout(t *testing.T) {
	seg := &store.Segment{Series: "hmi.M_720s", RecordRecnum: 42, Filename: "magnetogram.fits"}
	require.Equal(t, filepath.Join("/data", "hmi.M_720s", "42", "magnetogram.fits"), LocalPath("/data", seg))
}

func TestNewLocalEngineReadsMissingAsSentinel(t *testing.T) {
	engine := NewLocalEngine(t.TempDir(), nil)
	seg := &store.Segment{Series: "hmi.M_720s", RecordRecnum: 1, Filename: "no_such.fits", Protocol: store.ProtoFITS, Naxis: 1, Axes: []int64{4}}

	a, err := engine.Read(context.Background(), seg, dtype.Float)
	require.NoError(t, err)
	require.Equal(t, 4, len(a.Data))
}

func TestNewLocalEngineRejectsTAS(t *testing.T) {
	engine := NewLocalEngine(t.TempDir(), nil)
	seg := &store.Segment{Protocol: store.ProtoTAS}
	_, err := engine.Read(context.Background(), seg, dtype.Float)
	require.Error(t, err)
}

func TestNewLocalEngineGenericWriteFromFile(t *testing.T) {
	root := t.TempDir()
	engine := NewLocalEngine(root, nil)
	seg := &store.Segment{Series: "su.generic", RecordRecnum: 7, Filename: "blob.dat", Protocol: store.ProtoGeneric}

	src := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	require.NoError(t, engine.WriteFromFile(context.Background(), seg, src))

	got, err := os.ReadFile(LocalPath(root, seg))
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}
