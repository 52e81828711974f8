// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package scheduler implements the export request scheduler: it claims
// Queued-bound request rows, parses the processing pipeline field,
// resolves each step's arguments and output series, and emits the pair of
// shell scripts that drive the exporter.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/heliocore/drms-export/pkg/xerr"
)

// Step is one parsed element of a processing pipeline.
type Step struct {
	Name string
	Args map[string]string
}

// ParsePipeline splits a request's processing field into ordered steps.
// An empty field yields a nil slice (no processing). The legacy "n=K"
// record-limit prefix is recognized only as a step's leading element,
// before the step name, and returned separately as recLimit; it is not a
// regular arg. An "n=K" after the step name is an ordinary arg named "n".
func ParsePipeline(processing string) (steps []Step, recLimit int, err error) {
	processing = strings.TrimSpace(processing)
	if processing == "" {
		return nil, 0, nil
	}

	for _, raw := range strings.Split(processing, "|") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, 0, fmt.Errorf("scheduler: empty processing step: %w", xerr.BadRequest)
		}
		parts := strings.Split(raw, ",")

		// the legacy "n=K" record-limit directive, when present, is its own
		// leading comma-separated element rather than a regular step arg —
		// it precedes the step name itself.
		if k, v, ok := strings.Cut(strings.TrimSpace(parts[0]), "="); ok && strings.TrimSpace(k) == "n" {
			n, perr := strconv.Atoi(strings.TrimSpace(v))
			if perr != nil {
				return nil, 0, fmt.Errorf("scheduler: bad record limit %q: %w", v, xerr.BadRequest)
			}
			recLimit = n
			parts = parts[1:]
		}
		if len(parts) == 0 {
			return nil, 0, fmt.Errorf("scheduler: processing step missing name: %w", xerr.BadRequest)
		}

		step := Step{Name: strings.TrimSpace(parts[0]), Args: map[string]string{}}
		if step.Name == "" {
			return nil, 0, fmt.Errorf("scheduler: processing step missing name: %w", xerr.BadRequest)
		}
		for _, kv := range parts[1:] {
			kv = strings.TrimSpace(kv)
			if kv == "" {
				continue
			}
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, 0, fmt.Errorf("scheduler: malformed arg %q in step %q: %w", kv, step.Name, xerr.BadRequest)
			}
			step.Args[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		steps = append(steps, step)
	}
	return steps, recLimit, nil
}

// SplitSubspecs splits a comma-separated list of record-set sub-specs. A
// pipeline still rejects specs naming more than one distinct series (see
// ValidateSeriesCount), but several sub-specs of one series are split here
// too (see MaterializeSubspecs).
func SplitSubspecs(spec string) []string {
	parts := strings.Split(spec, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateSeriesCount enforces step 5 of the pipeline: a request whose
// spec names more than one distinct input series may not carry processing.
func ValidateSeriesCount(seriesNames []string, hasProcessing bool) error {
	distinct := map[string]bool{}
	for _, s := range seriesNames {
		distinct[s] = true
	}
	if hasProcessing && len(distinct) > 1 {
		return fmt.Errorf("scheduler: record-set spans %d series, does not support multiple input series with processing: %w", len(distinct), xerr.BadRequest)
	}
	return nil
}
