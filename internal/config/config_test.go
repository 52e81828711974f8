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

func TestInitMissingFileKeepsDefaults(t *testing.T) {
	Keys = Config{Addr: ":8080", DBDriver: "sqlite3", DB: "./var/drms-export.db"}
	Init(filepath.Join(t.TempDir(), "nosuch.json"))
	require.Equal(t, ":8080", Keys.Addr)
	require.Equal(t, "sqlite3", Keys.DBDriver)
}

func TestInitDecodesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"addr":":9090","db-driver":"mysql","db":"root@/export"}`), 0o644))

	Keys = Config{Addr: ":8080", DBDriver: "sqlite3", DB: "./var/drms-export.db"}
	Init(path)
	require.Equal(t, ":9090", Keys.Addr)
	require.Equal(t, "mysql", Keys.DBDriver)
	require.Equal(t, "root@/export", Keys.DB)
}

func TestInitResolvesEnvDSNOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"db":"env:DRMS_EXPORT_TEST_DSN"}`), 0o644))
	t.Setenv("DRMS_EXPORT_TEST_DSN", "resolved-dsn")

	Keys = Config{}
	Init(path)
	require.Equal(t, "resolved-dsn", Keys.DB)
}

func TestValidateRejectsUnknownConfigField(t *testing.T) {
	err := validate(ProgramConfig, []byte(`{"nosuchfield":true}`))
	require.Error(t, err)
}

func TestValidateAcceptsKnownConfigFields(t *testing.T) {
	err := validate(ProgramConfig, []byte(`{"addr":":9090","db-driver":"sqlite3"}`))
	require.NoError(t, err)
}

func TestClaimIntervalDurationDefaultsOnEmpty(t *testing.T) {
	c := Config{}
	require.Equal(t, "30s", c.ClaimIntervalDuration().String())
}

func TestClaimIntervalDurationParsesSet(t *testing.T) {
	c := Config{ClaimInterval: "5m"}
	require.Equal(t, "5m0s", c.ClaimIntervalDuration().String())
}

func TestSchedulerEnvironmentReadsShellVars(t *testing.T) {
	t.Setenv("JSOC_DBNAME", "jsoc")
	t.Setenv("JSOC_DBUSER", "production")
	t.Setenv("JSOC_DBMAINHOST", "db.example.org")
	t.Setenv("JSOC_DBHOST", "dbexport.example.org")
	t.Setenv("JSOCROOT_EXPORT", "/SUM/export")

	env := Config{ExporterBin: "./drms-exporter"}.SchedulerEnvironment()
	require.Equal(t, "jsoc", env.DBName)
	require.Equal(t, "production", env.DBUser)
	require.Equal(t, "db.example.org", env.DBHost)
	require.Equal(t, "dbexport.example.org", env.DBExportHost)
	require.Equal(t, "/SUM/export", env.StagingRoot)
	require.Equal(t, "./drms-exporter", env.ExporterBin)
}

func TestSchedulerEnvironmentFallsBackToConfigStagingRoot(t *testing.T) {
	t.Setenv("JSOCROOT_EXPORT", "")
	env := Config{StagingRoot: "./var/stage"}.SchedulerEnvironment()
	require.Equal(t, "./var/stage", env.StagingRoot)
}
