// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"fmt"
	"io"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/fits"
)

// EncodeFITS writes a as a single-HDU FITS image to w: header block then
// big-endian image data, the same assembly FITSBackend.Write uses for an
// on-disk segment file, exported here for callers (the exporter) that need
// the encoded bytes without a backing segment path. extraCards is appended
// after the image-info cards SIMPLE/BITPIX/NAXISn/BLANK/BZERO/BSCALE — the
// exporter uses it to apply a record's keyword map, which is a per-request
// concern this package has no business knowing about.
func EncodeFITS(w io.Writer, a *store.Array, extraCards []fits.Card) error {
	info, err := fits.DeriveImageInfo(a)
	if err != nil {
		return err
	}
	h := &fits.Header{}
	info.ApplyToHeader(h)
	for _, c := range extraCards {
		h.Append(c)
	}
	if _, err := h.WriteTo(w); err != nil {
		return fmt.Errorf("segment: write header: %w", err)
	}
	if err := writeImageData(w, a.Type, a.Data); err != nil {
		return fmt.Errorf("segment: write image: %w", err)
	}
	return nil
}
