// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package keyword implements the keyword engine: keyword
// lifecycle/container, link resolution with cycle detection, and slotted-
// keyword slot_to_index arithmetic.
package keyword

import (
	"fmt"
	"strings"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// RecordLookup resolves another record's keyword container, used to
// follow a keyword link to its target record. Supplied by the catalog.
type RecordLookup func(recordRef string) (*Container, error)

// Container is a record's set of keywords, indexed by case-insensitive
// name for O(1) lookup, with Rank preserved for deterministic iteration.
type Container struct {
	byName map[string]*store.Keyword
	order  []*store.Keyword
	lookup RecordLookup
}

// NewContainer builds a Container from a record's keyword rows. lookup is
// used to resolve link targets and may be nil if the container holds no
// link keywords.
func NewContainer(keywords []*store.Keyword, lookup RecordLookup) *Container {
	c := &Container{byName: make(map[string]*store.Keyword, len(keywords)), lookup: lookup}
	for _, k := range keywords {
		c.byName[strings.ToLower(k.Name)] = k
		c.order = append(c.order, k)
	}
	return c
}

// Get returns the raw keyword row named name, without following a link.
func (c *Container) Get(name string) (*store.Keyword, bool) {
	k, ok := c.byName[strings.ToLower(name)]
	return k, ok
}

// Ordered returns keywords in Rank order (stable for equal ranks).
func (c *Container) Ordered() []*store.Keyword {
	out := append([]*store.Keyword(nil), c.order...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Rank < out[j-1].Rank; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Resolve returns the value-bearing keyword for name, following at most
// store.MaxLinkDepth link hops. A cycle or missing target is a hard error.
func (c *Container) Resolve(name string) (*store.Keyword, error) {
	k, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("keyword: %q not found: %w", name, xerr.BadRequest)
	}
	seen := map[string]bool{}
	cur, curContainer := k, c
	for depth := 0; cur.IsLink; depth++ {
		if depth >= store.MaxLinkDepth {
			return nil, fmt.Errorf("keyword: link depth exceeded resolving %q: %w", name, xerr.Internal)
		}
		key := cur.Link + "\x00" + cur.Target
		if seen[key] {
			return nil, fmt.Errorf("keyword: cycle detected resolving %q: %w", name, xerr.Internal)
		}
		seen[key] = true

		if curContainer.lookup == nil {
			return nil, fmt.Errorf("keyword: %q is a link but no record lookup is configured: %w", name, xerr.Internal)
		}
		target, err := curContainer.lookup(cur.Link)
		if err != nil {
			return nil, fmt.Errorf("keyword: resolving link %q: %w", cur.Link, err)
		}
		next, ok := target.Get(cur.Target)
		if !ok {
			return nil, fmt.Errorf("keyword: link target %q/%q not found: %w", cur.Link, cur.Target, xerr.BadRequest)
		}
		cur, curContainer = next, target
	}
	return cur, nil
}
