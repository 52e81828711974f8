// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package fits

import (
	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
)

// ShootBlanks replaces every element of a equal to blank with the store's
// missing sentinel for a.Type. It runs only for integer BITPIX;
// callers should not invoke it for float/double arrays (blank-shooting is
// meaningless there, since the missing sentinel is a NaN bit pattern, not
// a representable integer value).
func ShootBlanks(a *store.Array, blank int64) {
	if !a.Type.IsInteger() {
		return
	}
	missing := dtype.AllocateMissing(a.Type)
	for i, v := range a.Data {
		if v.Int64() == blank {
			a.Data[i] = missing
		}
	}
}
