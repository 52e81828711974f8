// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/heliocore/drms-export/internal/config"
	"github.com/heliocore/drms-export/internal/store"
)

// SeedSeriesCatalog upserts a parsed series-catalog document into
// series_info, loading the config-file equivalent of the catalog's own
// series table into the local database. Neither command in cmd/ calls it
// (nor SeedProcessingCatalog); seeding happens only when a caller invokes
// it directly.
func (c *Client) SeedSeriesCatalog(entries []config.SeriesCatalogEntry) error {
	for _, e := range entries {
		hasReqID := 0
		if e.HasRequestIDPrime {
			hasReqID = 1
		}
		if err := c.upsertSeriesInfo(e.Name, e.PrimeKeyCount, hasReqID); err != nil {
			return fmt.Errorf("catalog: seed series %q: %w", e.Name, err)
		}
	}
	return nil
}

func (c *Client) upsertSeriesInfo(name string, primeKeyCount, hasReqID int) error {
	var query string
	switch c.Driver {
	case "mysql":
		query = `INSERT INTO series_info (name, prime_key_count, has_requestid_prime) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE prime_key_count=VALUES(prime_key_count), has_requestid_prime=VALUES(has_requestid_prime)`
	default:
		query = `INSERT INTO series_info (name, prime_key_count, has_requestid_prime) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET prime_key_count=excluded.prime_key_count, has_requestid_prime=excluded.has_requestid_prime`
	}
	_, err := c.DB.Exec(query, name, primeKeyCount, hasReqID)
	return wrapCatalogErr(err)
}

// SeedProcessingCatalog upserts a parsed processing-catalog document into
// processing_step.
func (c *Client) SeedProcessingCatalog(entries []config.ProcessingCatalogEntry) error {
	for _, e := range entries {
		rule := store.OutputRule{}
		if e.OutputRule != nil {
			kind, ok := parseOutputRuleKind(e.OutputRule.Kind)
			if !ok {
				return fmt.Errorf("catalog: seed step %q: unknown output rule kind %q", e.Name, e.OutputRule.Kind)
			}
			rule = store.OutputRule{Kind: kind, A: e.OutputRule.A, B: e.OutputRule.B}
		}

		optionalArgs, err := json.Marshal(e.OptionalArgs)
		if err != nil {
			return fmt.Errorf("catalog: seed step %q: %w", e.Name, err)
		}
		nameMap, err := json.Marshal(e.NameMap)
		if err != nil {
			return fmt.Errorf("catalog: seed step %q: %w", e.Name, err)
		}

		if err := c.upsertProcessingStep(e.Name, e.ExecPath, strings.Join(e.RequiredArgs, ","),
			string(optionalArgs), string(nameMap), int(rule.Kind), rule.A, rule.B); err != nil {
			return fmt.Errorf("catalog: seed step %q: %w", e.Name, err)
		}
	}
	return nil
}

func parseOutputRuleKind(s string) (store.OutputRuleKind, bool) {
	switch s {
	case "", "none":
		return store.OutputNone, true
	case "suffix":
		return store.OutputSuffix, true
	case "replacement":
		return store.OutputReplacement, true
	case "substitution":
		return store.OutputSubstitution, true
	default:
		return 0, false
	}
}

func (c *Client) upsertProcessingStep(name, execPath, requiredArgs, optionalArgs, nameMap string, ruleKind int, ruleA, ruleB string) error {
	var query string
	switch c.Driver {
	case "mysql":
		query = `INSERT INTO processing_step (name, exec_path, required_args, optional_args, name_map, rule_kind, rule_a, rule_b)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE exec_path=VALUES(exec_path), required_args=VALUES(required_args),
			optional_args=VALUES(optional_args), name_map=VALUES(name_map), rule_kind=VALUES(rule_kind),
			rule_a=VALUES(rule_a), rule_b=VALUES(rule_b)`
	default:
		query = `INSERT INTO processing_step (name, exec_path, required_args, optional_args, name_map, rule_kind, rule_a, rule_b)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET exec_path=excluded.exec_path, required_args=excluded.required_args,
			optional_args=excluded.optional_args, name_map=excluded.name_map, rule_kind=excluded.rule_kind,
			rule_a=excluded.rule_a, rule_b=excluded.rule_b`
	}
	_, err := c.DB.Exec(query, name, execPath, requiredArgs, optionalArgs, nameMap, ruleKind, ruleA, ruleB)
	return wrapCatalogErr(err)
}
