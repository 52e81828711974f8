// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package tarstream

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileAndCloseLength(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(NopFlusher(&buf))

	require.NoError(t, tw.WriteFile(FileHeader{Name: "a.fits", Size: 3}, strings.NewReader("abc")))
	require.NoError(t, tw.WriteFile(FileHeader{Name: "b.fits", Size: 513}, bytes.NewReader(bytes.Repeat([]byte{1}, 513))))
	require.NoError(t, tw.Close())

	// header(512) + 3 bytes + pad(509) + header(512) + 513 bytes + pad(511) + end(1024)
	require.Equal(t, int64(512+3+509+512+513+511+1024), int64(buf.Len()))
}

func TestHeaderNameTooLongRejected(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(NopFlusher(&buf))
	longName := strings.Repeat("x", 101)
	err := tw.WriteFile(FileHeader{Name: longName, Size: 0}, strings.NewReader(""))
	require.Error(t, err)
}

func TestTerminateRefusesFurtherWrites(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(NopFlusher(&buf))
	require.NoError(t, tw.WriteFile(FileHeader{Name: "a.fits", Size: 1}, strings.NewReader("a")))
	tw.Terminate()
	err := tw.WriteFile(FileHeader{Name: "b.fits", Size: 1}, strings.NewReader("b"))
	require.Error(t, err)
	require.NoError(t, tw.Close())
}

func TestChecksumFieldParsesAsOctal(t *testing.T) {
	h := composeHeader(FileHeader{Name: "x", Size: 10, Mode: 0664})
	// checksum field occupies bytes [148:156): 6 octal digits, NUL, space
	require.Equal(t, byte(0), h[154])
	require.Equal(t, byte(' '), h[155])
	require.Equal(t, "ustar\x00", string(h[257:263]))

	sum, err := strconv.ParseInt(string(h[148:154]), 8, 64)
	require.NoError(t, err)
	blank := h
	for i := 148; i < 156; i++ {
		blank[i] = ' '
	}
	require.Equal(t, checksum(blank), sum)
}

func TestWriteBytesManifest(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(NopFlusher(&buf))
	require.NoError(t, tw.WriteBytes("jsoc/file_list.txt", []byte("a.fits\nb.fits\n"), 0))
	require.NoError(t, tw.Close())
	require.Greater(t, buf.Len(), 0)
}
