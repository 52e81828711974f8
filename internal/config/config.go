// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package config loads the daemon's JSON configuration, overlays it on
// compiled-in defaults, and resolves the handful of settings the original
// system always took from the shell environment rather than a config file.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/heliocore/drms-export/internal/directory"
	"github.com/heliocore/drms-export/internal/runtimeenv"
	"github.com/heliocore/drms-export/internal/scheduler"
	"github.com/heliocore/drms-export/internal/stage"
	"github.com/heliocore/drms-export/pkg/rlog"
)

// LdapConfig mirrors directory.Config for JSON decoding; kept separate so
// the directory package never needs to know about the config file shape.
type LdapConfig struct {
	URL           string `json:"url"`
	SearchDN      string `json:"search-dn"`
	AdminPassword string `json:"admin-password"`
	UserBase      string `json:"user-base"`
	UserFilter    string `json:"user-filter"`
	MailAttr      string `json:"mail-attr"`
}

// StageS3Config mirrors stage.S3Config for JSON decoding.
type StageS3Config struct {
	Endpoint     string `json:"endpoint"`
	Bucket       string `json:"bucket"`
	AccessKey    string `json:"access-key"`
	SecretKey    string `json:"secret-key"`
	Region       string `json:"region"`
	UsePathStyle bool   `json:"use-path-style"`
}

// Config is the daemon's top-level configuration, decoded from a JSON file
// (default ./config.json) with unknown fields rejected.
type Config struct {
	Addr              string            `json:"addr"`
	User              string            `json:"user"`
	Group             string            `json:"group"`
	DBDriver          string            `json:"db-driver"`
	DB                string            `json:"db"`
	EnvFile           string            `json:"env-file"`
	StagingRoot       string            `json:"staging-root"`
	ExporterBin       string            `json:"exporter-bin"`
	SubmitCommand     string            `json:"submit-command"`
	ClaimInterval     string            `json:"claim-interval"`
	DevMode           bool              `json:"dev-mode"`
	SeriesCatalog     string            `json:"series-catalog"`
	ProcessingCatalog string            `json:"processing-catalog"`
	JWTSecret         string            `json:"jwt-secret"`
	NotifyTable       map[string]string `json:"notify-table"`
	Ldap              LdapConfig        `json:"ldap"`
	RecordStoreRoot   string            `json:"record-store-root"`
	StageTargetKind   string            `json:"stage-target-kind"`
	StageLocalDir     string            `json:"stage-local-dir"`
	StageCapBytes     int64             `json:"stage-cap-bytes"`
	StageS3           StageS3Config     `json:"stage-s3"`
}

// Keys holds the active configuration after Init, mirroring the compiled-in
// defaults until a config file overrides them.
var Keys = Config{
	Addr:            ":8080",
	DBDriver:        "sqlite3",
	DB:              "./var/drms-export.db",
	EnvFile:         "./.env",
	StagingRoot:     "./var/stage",
	ExporterBin:     "./drms-exporter",
	ClaimInterval:   "30s",
	NotifyTable:     map[string]string{},
	RecordStoreRoot: "./var/records",
	StageLocalDir:   "./var/tar",
}

// Init loads flagConfigFile over Keys, validates it against the embedded
// schema, loads the .env file it names, and resolves any "env:VAR" DSN
// override. A missing config file is not an error; a malformed one is
// fatal.
func Init(flagConfigFile string) {
	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		if !os.IsNotExist(err) {
			rlog.Fatalf("config: %v", err)
		}
		return
	}

	if err := validate(ProgramConfig, raw); err != nil {
		rlog.Fatalf("config: %v", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		rlog.Fatalf("config: %v", err)
	}

	if Keys.EnvFile != "" {
		if err := runtimeenv.LoadEnv(Keys.EnvFile); err != nil && !os.IsNotExist(err) {
			rlog.Fatalf("config: loading %s: %v", Keys.EnvFile, err)
		}
	}

	// As a special case for `db`, allow pointing at an environment variable
	// instead of storing the DSN in the config file directly.
	if strings.HasPrefix(Keys.DB, "env:") {
		Keys.DB = os.Getenv(strings.TrimPrefix(Keys.DB, "env:"))
	}
}

// ClaimIntervalDuration parses ClaimInterval, falling back to 30s if it is
// empty or malformed.
func (c Config) ClaimIntervalDuration() time.Duration {
	if c.ClaimInterval == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.ClaimInterval)
	if err != nil {
		rlog.Warnf("config: bad claim-interval %q, using 30s: %v", c.ClaimInterval, err)
		return 30 * time.Second
	}
	return d
}

// SchedulerEnvironment resolves the shell-environment variables
// (JSOC_DBHOST, JSOC_DBMAINHOST, JSOC_DBNAME, JSOC_DBUSER,
// JSOCROOT_EXPORT) into the scheduler's Environment. JSOC_DBMAINHOST names
// the catalog's own database host and JSOC_DBHOST the export series'
// (possibly different) host, matching the two-host split the qsub/drmsrun
// scripts have always assumed.
func (c Config) SchedulerEnvironment() scheduler.Environment {
	stagingRoot := os.Getenv("JSOCROOT_EXPORT")
	if stagingRoot == "" {
		stagingRoot = c.StagingRoot
	}
	return scheduler.Environment{
		DBName:       os.Getenv("JSOC_DBNAME"),
		DBUser:       os.Getenv("JSOC_DBUSER"),
		DBHost:       os.Getenv("JSOC_DBMAINHOST"),
		DBExportHost: os.Getenv("JSOC_DBHOST"),
		StagingRoot:  stagingRoot,
		ExporterBin:  c.ExporterBin,
	}
}

// DirectoryConfig converts the decoded ldap block into directory.Config. A
// zero-value Ldap block yields a zero-value directory.Config, which
// directory.NewResolver treats as "LDAP unconfigured" and falls back to the
// local notify table.
func (c Config) DirectoryConfig() directory.Config {
	return directory.Config{
		URL:           c.Ldap.URL,
		SearchDN:      c.Ldap.SearchDN,
		AdminPassword: c.Ldap.AdminPassword,
		UserBase:      c.Ldap.UserBase,
		UserFilter:    c.Ldap.UserFilter,
		MailAttr:      c.Ldap.MailAttr,
	}
}

// StageConfig converts the decoded stage-* fields into stage.Config, for
// the worker binary's TAR sink. It is separate from SchedulerEnvironment's
// StagingRoot, which names the directory the <reqid>.qsub/.drmsrun scripts
// themselves are written into, not where the exported archive lands.
func (c Config) StageConfig() stage.Config {
	return stage.Config{
		TargetKind: c.StageTargetKind,
		LocalDir:   c.StageLocalDir,
		CapBytes:   c.StageCapBytes,
		S3: stage.S3Config{
			Endpoint:     c.StageS3.Endpoint,
			Bucket:       c.StageS3.Bucket,
			AccessKey:    c.StageS3.AccessKey,
			SecretKey:    c.StageS3.SecretKey,
			Region:       c.StageS3.Region,
			UsePathStyle: c.StageS3.UsePathStyle,
		},
	}
}
