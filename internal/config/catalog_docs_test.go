// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSeriesCatalogParsesEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "series.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`[{"name":"hmi.v_45","prime-key-count":2,"has-requestid-prime":true}]`), 0o644))

	entries, err := LoadSeriesCatalog(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "hmi.v_45", entries[0].Name)
	require.Equal(t, 2, entries[0].PrimeKeyCount)
	require.True(t, entries[0].HasRequestIDPrime)
}

func TestLoadSeriesCatalogRejectsSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "series.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"hmi.v_45"}]`), 0o644))

	_, err := LoadSeriesCatalog(path)
	require.Error(t, err)
}

func TestLoadProcessingCatalogParsesEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processing.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{
		"name": "calib",
		"exec-path": "/bin/calib",
		"required-args": ["in", "out"],
		"optional-args": {"thresh": "\"3.0\""},
		"name-map": {"in": "--input"},
		"output-rule": {"kind": "suffix", "a": "cal"}
	}]`), 0o644))

	entries, err := LoadProcessingCatalog(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "calib", entries[0].Name)
	require.Equal(t, []string{"in", "out"}, entries[0].RequiredArgs)
	require.Equal(t, "--input", entries[0].NameMap["in"])
	require.NotNil(t, entries[0].OutputRule)
	require.Equal(t, "suffix", entries[0].OutputRule.Kind)
}

func TestLoadProcessingCatalogRejectsUnknownOutputRuleKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processing.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`[{"name":"calib","exec-path":"/bin/calib","output-rule":{"kind":"bogus"}}]`), 0o644))

	_, err := LoadProcessingCatalog(path)
	require.Error(t, err)
}
