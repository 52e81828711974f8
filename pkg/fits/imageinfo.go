// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package fits

import (
	"fmt"
	"math"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
)

// ImageInfo is the CFITSIO_IMAGE_INFO equivalent derived from an array.
// Blank/Bzero/Bscale are nil when not applicable so callers can
// distinguish "zero" from "absent".
type ImageInfo struct {
	Bitpix  int
	Naxis   int
	Axes    []int64
	Simple  bool
	Extend  bool
	Blank   *int64
	Bzero   *float64
	Bscale  *float64
}

// DeriveImageInfo computes the FITS image parameters for a.
//
// BLANK is only ever emitted for integer BITPIX, and its value is the
// store's integer missing sentinel for a.Type. BZERO/BSCALE are only
// emitted when a.IsRaw and either Bscale != 1.0 or |Bzero| != 0.0.
func DeriveImageInfo(a *store.Array) (*ImageInfo, error) {
	bitpix, err := TypeToBitpix(a.Type)
	if err != nil {
		return nil, err
	}
	if a.Naxis < 1 || a.Naxis > 9 {
		return nil, fmt.Errorf("fits: naxis %d out of range [1,9]", a.Naxis)
	}

	info := &ImageInfo{
		Bitpix: bitpix,
		Naxis:  a.Naxis,
		Axes:   append([]int64(nil), a.Axes...),
		Simple: true,
		Extend: false,
	}

	if bitpix > 0 {
		blank := dtype.IntegerMin(a.Type)
		info.Blank = &blank
	}

	if a.IsRaw && (a.Bscale != 1.0 || math.Abs(a.Bzero) != 0.0) {
		bz, bs := a.Bzero, a.Bscale
		info.Bzero = &bz
		info.Bscale = &bs
	}

	return info, nil
}

// ApplyToHeader writes SIMPLE/BITPIX/NAXIS/NAXISn/BLANK/BZERO/BSCALE cards
// derived from info into h.
func (info *ImageInfo) ApplyToHeader(h *Header) {
	h.Set(Card{Name: "SIMPLE", Kind: KindLogical, BoolVal: info.Simple})
	h.Set(Card{Name: "BITPIX", Kind: KindInteger, IntVal: int64(info.Bitpix)})
	h.Set(Card{Name: "NAXIS", Kind: KindInteger, IntVal: int64(info.Naxis)})
	for i, ax := range info.Axes {
		h.Set(Card{Name: fmt.Sprintf("NAXIS%d", i+1), Kind: KindInteger, IntVal: ax})
	}
	h.Set(Card{Name: "EXTEND", Kind: KindLogical, BoolVal: info.Extend})
	if info.Blank != nil {
		h.Set(Card{Name: "BLANK", Kind: KindInteger, IntVal: *info.Blank})
	}
	if info.Bzero != nil {
		h.Set(Card{Name: "BZERO", Kind: KindFloat, FltVal: *info.Bzero})
	}
	if info.Bscale != nil {
		h.Set(Card{Name: "BSCALE", Kind: KindFloat, FltVal: *info.Bscale})
	}
}

// ImageInfoFromHeader parses the mandatory image keywords back out of h.
func ImageInfoFromHeader(h *Header) (*ImageInfo, error) {
	bitpix, ok := h.IntVal("BITPIX")
	if !ok || !ValidBitpix(int(bitpix)) {
		return nil, fmt.Errorf("fits: missing or invalid BITPIX")
	}
	naxis, ok := h.IntVal("NAXIS")
	if !ok || naxis < 1 || naxis > 9 {
		return nil, fmt.Errorf("fits: missing or invalid NAXIS")
	}

	info := &ImageInfo{Bitpix: int(bitpix), Naxis: int(naxis), Simple: true}
	for i := 1; i <= int(naxis); i++ {
		ax, ok := h.IntVal(fmt.Sprintf("NAXIS%d", i))
		if !ok {
			return nil, fmt.Errorf("fits: missing NAXIS%d", i)
		}
		info.Axes = append(info.Axes, ax)
	}
	if c, ok := h.Get("EXTEND"); ok && c.Kind == KindLogical {
		info.Extend = c.BoolVal
	}
	if blank, ok := h.IntVal("BLANK"); ok {
		info.Blank = &blank
	}
	if bz, ok := h.FloatVal("BZERO"); ok {
		info.Bzero = &bz
	}
	if bs, ok := h.FloatVal("BSCALE"); ok {
		info.Bscale = &bs
	}
	return info, nil
}
