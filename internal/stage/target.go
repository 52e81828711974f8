// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package stage provides the scheduler's staging-mode TAR sink: a
// rolled sequence of <reqid>_NNNN.tar files capped at ~50 GiB each,
// written either to local disk or to an S3-compatible object store,
// selected by Config.TargetKind.
package stage

import (
	"io"

	"github.com/heliocore/drms-export/pkg/tarstream"
)

// DefaultCapBytes is the staging-mode size cap per rolled tar file.
const DefaultCapBytes = 50 << 30

// Target is the rolling, cap-checked TAR sink an exporter run writes to.
type Target interface {
	WriteFile(h tarstream.FileHeader, r io.Reader) error
	Close() error
}

// S3Config names an S3-compatible bucket and credentials.
type S3Config struct {
	Endpoint     string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Region       string
	UsePathStyle bool
}

// Config selects and configures one staging backend.
type Config struct {
	TargetKind string // "file" (default) or "s3"
	LocalDir   string
	CapBytes   int64
	S3         S3Config
}

func (c Config) capOrDefault() int64 {
	if c.CapBytes > 0 {
		return c.CapBytes
	}
	return DefaultCapBytes
}

// NewTarget builds the staging Target for one export request.
func NewTarget(cfg Config, reqID string) (Target, error) {
	switch cfg.TargetKind {
	case "s3":
		return newS3Target(cfg.S3, reqID, cfg.capOrDefault())
	default:
		return tarstream.NewRollingWriter(cfg.LocalDir, reqID, cfg.capOrDefault()), nil
	}
}
