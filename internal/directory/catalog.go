// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package directory

import "github.com/heliocore/drms-export/internal/scheduler"

// catalogWithResolver overrides a scheduler.Catalog's NotifyAddress with a
// Resolver (LDAP, falling back to the catalog's own local table) while
// delegating every other method unchanged.
type catalogWithResolver struct {
	scheduler.Catalog
	resolver *Resolver
}

// WithResolver wraps cat so NotifyAddress is resolved via r instead of
// going straight to cat's local table. r's fallback should normally be cat
// itself.
func WithResolver(cat scheduler.Catalog, r *Resolver) scheduler.Catalog {
	return catalogWithResolver{Catalog: cat, resolver: r}
}

func (c catalogWithResolver) NotifyAddress(user string) (string, bool, error) {
	return c.resolver.Resolve(user)
}
