// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package fits

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/heliocore/drms-export/pkg/xerr"
)

// CompressAlgorithm identifies a FITS_TILED tile-compression algorithm.
type CompressAlgorithm int

const (
	CompressNone CompressAlgorithm = iota
	CompressRice
	CompressGZIP1
	CompressGZIP2
	CompressPLIO
	CompressHCompress
)

func (a CompressAlgorithm) String() string {
	switch a {
	case CompressRice:
		return "RICE_1"
	case CompressGZIP1:
		return "GZIP_1"
	case CompressGZIP2:
		return "GZIP_2"
	case CompressPLIO:
		return "PLIO_1"
	case CompressHCompress:
		return "HCOMPRESS_1"
	default:
		return "NONE"
	}
}

// CompressParams is the parsed form of a segment's cparms string, e.g.
// "compress Rice 1024,1" or "compress Gzip2".
type CompressParams struct {
	Algorithm CompressAlgorithm
	TileAxes  []int64 // empty means "row per tile" (FITS default)
}

// ParseCompressParams parses a cfitsio-style cparms string. The grammar is
// "compress <name> [tile,axes,...]"; an empty or "none" string disables
// tiling entirely.
func ParseCompressParams(s string) (CompressParams, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return CompressParams{Algorithm: CompressNone}, nil
	}

	fields := strings.Fields(s)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "compress") {
		return CompressParams{}, fmt.Errorf("fits: cparms %q: expected leading \"compress\": %w", s, xerr.BadRequest)
	}
	if len(fields) < 2 {
		return CompressParams{}, fmt.Errorf("fits: cparms %q: missing algorithm: %w", s, xerr.BadRequest)
	}

	algo, err := parseAlgorithmName(fields[1])
	if err != nil {
		return CompressParams{}, err
	}
	params := CompressParams{Algorithm: algo}

	if len(fields) >= 3 {
		axes, err := parseTileAxes(fields[2])
		if err != nil {
			return CompressParams{}, err
		}
		params.TileAxes = axes
	}
	return params, nil
}

func parseAlgorithmName(name string) (CompressAlgorithm, error) {
	switch strings.ToLower(name) {
	case "rice", "rice_1":
		return CompressRice, nil
	case "gzip", "gzip1", "gzip_1":
		return CompressGZIP1, nil
	case "gzip2", "gzip_2":
		return CompressGZIP2, nil
	case "plio", "plio_1":
		return CompressPLIO, nil
	case "hcompress", "hcompress_1":
		return CompressHCompress, nil
	default:
		return CompressNone, fmt.Errorf("fits: unknown compression algorithm %q: %w", name, xerr.Unsupported)
	}
}

// parseTileAxes parses a parenthesized or bare comma-separated axis list,
// e.g. "(1024,1)" or "1024,1".
func parseTileAxes(s string) ([]int64, error) {
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Split(s, ",")
	axes := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("fits: cparms tile axis %q: %w", p, xerr.BadRequest)
		}
		axes = append(axes, n)
	}
	return axes, nil
}

// String renders params back to cfitsio cparms grammar.
func (p CompressParams) String() string {
	if p.Algorithm == CompressNone {
		return "none"
	}
	s := "compress " + p.Algorithm.String()
	if len(p.TileAxes) > 0 {
		strs := make([]string, len(p.TileAxes))
		for i, a := range p.TileAxes {
			strs[i] = strconv.FormatInt(a, 10)
		}
		s += " " + strings.Join(strs, ",")
	}
	return s
}
