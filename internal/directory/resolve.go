// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package directory resolves a requestor's notification e-mail address
// from an LDAP directory service, falling back to a
// locally maintained table when LDAP is unconfigured, unreachable, or has
// no entry for the user.
package directory

import (
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/heliocore/drms-export/pkg/rlog"
)

// Config names the LDAP server and search parameters used to resolve a
// user identity to a mail attribute.
type Config struct {
	URL           string // e.g. "ldap://directory.example.org:389"
	SearchDN      string // bind DN used for the search itself
	AdminPassword string
	UserBase      string // search base, e.g. "ou=people,dc=example,dc=org"
	UserFilter    string // e.g. "(uid={username})"
	MailAttr      string // attribute holding the notify address, default "mail"
}

// NotifyLookup is the local-table fallback a Resolver defers to. The
// catalog client's NotifyAddress method satisfies it directly.
type NotifyLookup interface {
	NotifyAddress(user string) (address string, ok bool, err error)
}

// ldapConn is the subset of *ldap.Conn a Resolver needs, narrowed so tests
// can inject a fake without dialing a real server.
type ldapConn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

var _ ldapConn = (*ldap.Conn)(nil)

// Resolver resolves notify addresses, trying LDAP first when configured
// and always falling back to the local table.
type Resolver struct {
	cfg      Config
	fallback NotifyLookup
	dial     func(url string) (ldapConn, error)
}

// NewResolver builds a Resolver. fallback is consulted whenever LDAP is
// unconfigured, errors, or has no matching entry.
func NewResolver(cfg Config, fallback NotifyLookup) *Resolver {
	if cfg.MailAttr == "" {
		cfg.MailAttr = "mail"
	}
	return &Resolver{
		cfg:      cfg,
		fallback: fallback,
		dial: func(url string) (ldapConn, error) {
			return ldap.DialURL(url)
		},
	}
}

// Resolve returns the notify address for user, or ok=false if none could
// be found anywhere.
func (r *Resolver) Resolve(user string) (string, bool, error) {
	if r.cfg.URL == "" {
		return r.fallback.NotifyAddress(user)
	}

	addr, ok, err := r.lookupLDAP(user)
	if err != nil {
		rlog.Warnf("directory: ldap lookup for %q failed, falling back: %v", user, err)
		return r.fallback.NotifyAddress(user)
	}
	if ok {
		return addr, true, nil
	}
	return r.fallback.NotifyAddress(user)
}

func (r *Resolver) lookupLDAP(user string) (string, bool, error) {
	conn, err := r.dial(r.cfg.URL)
	if err != nil {
		return "", false, err
	}
	defer conn.Close()

	if r.cfg.SearchDN != "" {
		if err := conn.Bind(r.cfg.SearchDN, r.cfg.AdminPassword); err != nil {
			return "", false, err
		}
	}

	filter := strings.Replace(r.cfg.UserFilter, "{username}", ldap.EscapeFilter(user), -1)
	req := ldap.NewSearchRequest(
		r.cfg.UserBase, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		filter, []string{r.cfg.MailAttr}, nil,
	)

	result, err := conn.Search(req)
	if err != nil {
		return "", false, err
	}
	if len(result.Entries) == 0 {
		return "", false, nil
	}

	addr := result.Entries[0].GetAttributeValue(r.cfg.MailAttr)
	if addr == "" {
		return "", false, nil
	}
	return addr, true, nil
}
