// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package keyword

import (
	"strconv"

	"github.com/heliocore/drms-export/internal/store"
)

// ScalingKeywordName returns the per-segment auxiliary keyword name for
// segnum, e.g. "bzero5" / "bscale5". These carry the BZERO/BSCALE pair the
// segment I/O engine wrote at export time, for its scaling-conflict check.
func ScalingKeywordName(base string, segnum int) string {
	return base + strconv.Itoa(segnum)
}

// ResolveScalingKeyword implements the decision for per-segment scaling
// keyword linkage: reads of bzero/bscale
// follow the keyword's link the same as any other keyword (so a linked
// record reports its target's actual scaling), but a write always targets
// the concrete segment's own slot on the record being written, never the
// link target. This matches how the segment engine treats Constant-scope
// segments: the link is a read-time view, but write ownership is always
// local to the writing record. base is "bzero" or "bscale".
func ResolveScalingKeyword(c *Container, base string, segnum int) (*store.Keyword, error) {
	return c.Resolve(ScalingKeywordName(base, segnum))
}

// WriteScalingKeyword locates the local (non-link-followed) keyword slot
// that a segment write must update, per the rule documented above.
func WriteScalingKeyword(c *Container, base string, segnum int) (*store.Keyword, bool) {
	return c.Get(ScalingKeywordName(base, segnum))
}
