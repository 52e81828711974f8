// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package catalog implements the SQL-backed client the scheduler and
// exporter use to read/write series, keyword, segment, export-request,
// processing-catalog, and pending-requests rows.
package catalog

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/heliocore/drms-export/pkg/rlog"
)

const schemaVersion uint = 3

//go:embed migrations/*
var migrationFiles embed.FS

// Connect opens a pooled *sqlx.DB for driver ("sqlite3" or "mysql") and dsn.
// Schema version is validated but never auto-migrated; operators run
// MigrateUp explicitly.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	switch driver {
	case "sqlite3":
		db, err = sqlx.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", dsn))
		if err != nil {
			return nil, fmt.Errorf("catalog: open sqlite3: %w", err)
		}
		db.SetMaxOpenConns(1) // sqlite3 does not support concurrent writers
	case "mysql":
		db, err = sqlx.Open("mysql", fmt.Sprintf("%s?multiStatements=true&parseTime=true", dsn))
		if err != nil {
			return nil, fmt.Errorf("catalog: open mysql: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	default:
		return nil, fmt.Errorf("catalog: unsupported driver %q", driver)
	}

	if err := checkSchemaVersion(driver, db); err != nil {
		rlog.Warnf("catalog: %v", err)
	}

	return db, nil
}

func checkSchemaVersion(driver string, db *sqlx.DB) error {
	m, err := newMigrate(driver, db)
	if err != nil {
		return err
	}
	v, _, err := m.Version()
	if err != nil {
		if err == migrate.ErrNilVersion {
			return fmt.Errorf("database has no migration version; run MigrateUp")
		}
		return err
	}
	if v != schemaVersion {
		return fmt.Errorf("database schema version %d, need %d; run MigrateUp", v, schemaVersion)
	}
	return nil
}

// MigrateUp applies all pending migrations for driver against db.
func MigrateUp(driver string, db *sqlx.DB) error {
	m, err := newMigrate(driver, db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("catalog: migrate up: %w", err)
	}
	return nil
}

func newMigrate(driver string, db *sqlx.DB) (*migrate.Migrate, error) {
	switch driver {
	case "sqlite3":
		dbDriver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		if err != nil {
			return nil, err
		}
		src, err := iofs.New(migrationFiles, "migrations/sqlite3")
		if err != nil {
			return nil, err
		}
		return migrate.NewWithInstance("iofs", src, "sqlite3", dbDriver)
	case "mysql":
		dbDriver, err := mysql.WithInstance(db.DB, &mysql.Config{})
		if err != nil {
			return nil, err
		}
		src, err := iofs.New(migrationFiles, "migrations/mysql")
		if err != nil {
			return nil, err
		}
		return migrate.NewWithInstance("iofs", src, "mysql", dbDriver)
	default:
		return nil, fmt.Errorf("catalog: unsupported driver %q", driver)
	}
}
