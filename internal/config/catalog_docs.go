// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// SeriesCatalogEntry describes one series' prime-key shape, as read from
// the series-catalog JSON document named by Config.SeriesCatalog.
type SeriesCatalogEntry struct {
	Name              string `json:"name"`
	PrimeKeyCount     int    `json:"prime-key-count"`
	HasRequestIDPrime bool   `json:"has-requestid-prime"`
}

// ProcessingCatalogOutputRule mirrors store.OutputRule in the JSON
// document's own vocabulary (kind names instead of the numeric enum).
type ProcessingCatalogOutputRule struct {
	Kind string `json:"kind"`
	A    string `json:"a"`
	B    string `json:"b"`
}

// ProcessingCatalogEntry describes one external processing program, as
// read from the processing-catalog JSON document named by
// Config.ProcessingCatalog.
type ProcessingCatalogEntry struct {
	Name         string                       `json:"name"`
	ExecPath     string                       `json:"exec-path"`
	RequiredArgs []string                     `json:"required-args"`
	OptionalArgs map[string]string            `json:"optional-args"`
	NameMap      map[string]string            `json:"name-map"`
	OutputRule   *ProcessingCatalogOutputRule `json:"output-rule"`
}

// LoadSeriesCatalog reads and schema-validates a series-catalog document.
func LoadSeriesCatalog(path string) ([]SeriesCatalogEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validate(SeriesCatalog, raw); err != nil {
		return nil, err
	}
	var entries []SeriesCatalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("config: decode series catalog %s: %w", path, err)
	}
	return entries, nil
}

// LoadProcessingCatalog reads and schema-validates a processing-catalog
// document.
func LoadProcessingCatalog(path string) ([]ProcessingCatalogEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validate(ProcessingCatalog, raw); err != nil {
		return nil, err
	}
	var entries []ProcessingCatalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("config: decode processing catalog %s: %w", path, err)
	}
	return entries, nil
}
