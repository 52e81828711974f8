// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package stage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/heliocore/drms-export/pkg/rlog"
	"github.com/heliocore/drms-export/pkg/tarstream"
)

// putObjectAPI is the narrow slice of *s3.Client this package calls,
// letting tests substitute a fake uploader instead of reaching a real
// object store.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Target rolls tar parts onto local temp files exactly like
// tarstream.RollingWriter, uploading and removing each part as soon as it
// closes (on rollover, or on Close for the final part) instead of leaving
// it on local disk.
type s3Target struct {
	client putObjectAPI
	bucket string
	reqID  string
	tmpDir string
	cap    int64

	seq     int
	cur     *tarstream.Writer
	curFile *os.File
	curPath string
}

func newS3Target(cfg S3Config, reqID string, cap int64) (*s3Target, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("stage: s3 target: empty bucket name")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("stage: s3 target: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3TargetWithClient(client, cfg.Bucket, reqID, os.TempDir(), cap), nil
}

func newS3TargetWithClient(client putObjectAPI, bucket, reqID, tmpDir string, cap int64) *s3Target {
	return &s3Target{client: client, bucket: bucket, reqID: reqID, tmpDir: tmpDir, cap: cap}
}

func (t *s3Target) currentKey() string {
	return fmt.Sprintf("%s_%04d.tar", t.reqID, t.seq)
}

func (t *s3Target) ensureOpen() error {
	if t.cur != nil {
		return nil
	}
	path := fmt.Sprintf("%s/%s.part", t.tmpDir, t.currentKey())
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stage: s3 target: create temp part %s: %w", path, err)
	}
	t.curFile = f
	t.curPath = path
	t.cur = tarstream.NewWriter(tarstream.NopFlusher(f))
	return nil
}

// WriteFile writes h/r to the current part, uploading and rolling onto a
// new part first if writing this member would exceed cap. The size
// estimate is deliberately generous (the exact header+padding overhead is
// package-internal to tarstream) since it only needs to keep each
// uploaded part safely under the object-store-side limit, not hit cap
// exactly.
func (t *s3Target) WriteFile(h tarstream.FileHeader, r io.Reader) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}

	const overheadMargin = 1536
	estimated := h.Size + overheadMargin
	if t.cur.BytesWritten()+estimated > t.cap && t.cur.BytesWritten() > 0 {
		if err := t.rollover(); err != nil {
			return err
		}
	}
	return t.cur.WriteFile(h, r)
}

func (t *s3Target) rollover() error {
	if err := t.closeAndUploadCurrent(); err != nil {
		return err
	}
	t.seq++
	return t.ensureOpen()
}

func (t *s3Target) closeAndUploadCurrent() error {
	if err := t.cur.Close(); err != nil {
		return err
	}
	if err := t.curFile.Close(); err != nil {
		return fmt.Errorf("stage: s3 target: close temp part %s: %w", t.curPath, err)
	}

	key := t.currentKey()
	f, err := os.Open(t.curPath)
	if err != nil {
		return fmt.Errorf("stage: s3 target: reopen temp part %s: %w", t.curPath, err)
	}
	defer f.Close()

	_, err = t.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/x-tar"),
	})
	if err != nil {
		return fmt.Errorf("stage: s3 target: put object %q: %w", key, err)
	}

	if err := os.Remove(t.curPath); err != nil {
		rlog.Warnf("stage: s3 target: remove temp part %s: %v", t.curPath, err)
	}

	t.cur = nil
	t.curFile = nil
	return nil
}

// Close finalizes and uploads the current part, if one is open.
func (t *s3Target) Close() error {
	if t.cur == nil {
		return nil
	}
	return t.closeAndUploadCurrent()
}
