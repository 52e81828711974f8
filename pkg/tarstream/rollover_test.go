// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package tarstream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRollingWriterRollsOverOnCap(t *testing.T) {
	dir := t.TempDir()
	rw := NewRollingWriter(dir, "req123", 1024)

	payload := strings.Repeat("x", 600)
	require.NoError(t, rw.WriteFile(FileHeader{Name: "a.fits", Size: 600}, strings.NewReader(payload)))
	require.NoError(t, rw.WriteFile(FileHeader{Name: "b.fits", Size: 600}, strings.NewReader(payload)))
	require.NoError(t, rw.Close())

	require.Len(t, rw.Paths(), 2)
	require.Contains(t, rw.Paths()[0], "req123_0000.tar")
	require.Contains(t, rw.Paths()[1], "req123_0001.tar")
}
