// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package fits

import (
	"fmt"

	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// TypeToBitpix maps a store array type to its FITS BITPIX. The
// mapping is bijective on the integer side and lossy on the double side:
// both Double and Time collapse onto BITPIX -64, so BitpixToType never
// reconstructs Time on its own (callers that need Time back carry that
// information out of band, e.g. via a keyword hint).
func TypeToBitpix(t dtype.Type) (int, error) {
	switch t {
	case dtype.Char:
		return 8, nil
	case dtype.Short:
		return 16, nil
	case dtype.Int:
		return 32, nil
	case dtype.Long:
		return 64, nil
	case dtype.Float:
		return -32, nil
	case dtype.Double, dtype.Time:
		return -64, nil
	default:
		return 0, fmt.Errorf("fits: type %s has no BITPIX mapping: %w", t, xerr.Unsupported)
	}
}

// BitpixToType maps a FITS BITPIX value back to a store array type.
func BitpixToType(bitpix int) (dtype.Type, error) {
	switch bitpix {
	case 8:
		return dtype.Char, nil
	case 16:
		return dtype.Short, nil
	case 32:
		return dtype.Int, nil
	case 64:
		return dtype.Long, nil
	case -32:
		return dtype.Float, nil
	case -64:
		return dtype.Double, nil
	default:
		return 0, fmt.Errorf("fits: unsupported BITPIX %d: %w", bitpix, xerr.Unsupported)
	}
}

// ValidBitpix reports whether bitpix is one of the six legal values.
func ValidBitpix(bitpix int) bool {
	switch bitpix {
	case 8, 16, 32, 64, -32, -64:
		return true
	default:
		return false
	}
}
