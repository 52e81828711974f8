// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Kind identifies one of the embedded JSON schemas this package validates
// documents against.
type Kind int

const (
	ProgramConfig Kind = iota + 1
	SeriesCatalog
	ProcessingCatalog
)

//go:embed schemas/*
var schemaFiles embed.FS

func loadSchemaFile(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(u.Path)
}

func init() {
	jsonschema.Loaders["embedFS"] = loadSchemaFile
}

func validate(k Kind, raw []byte) error {
	var s *jsonschema.Schema
	var err error

	switch k {
	case ProgramConfig:
		s, err = jsonschema.Compile("embedFS://schemas/config.schema.json")
	case SeriesCatalog:
		s, err = jsonschema.Compile("embedFS://schemas/series-catalog.schema.json")
	case ProcessingCatalog:
		s, err = jsonschema.Compile("embedFS://schemas/processing-catalog.schema.json")
	default:
		return fmt.Errorf("config: unknown schema kind %d", k)
	}
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("config: decode document for validation: %w", err)
	}

	if err := s.Validate(v); err != nil {
		return fmt.Errorf("config: schema validation failed: %w", err)
	}
	return nil
}
