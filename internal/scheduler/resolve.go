// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package scheduler

import (
	"fmt"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// ResolvedStep is one processing step after output-series derivation,
// reqid filtering, and argument binding (step 4 of the pipeline).
type ResolvedStep struct {
	Name     string
	ExecPath string
	Args     map[string]string
	InSpec   string // bound "in" value: input record-set spec with reqid filter applied
	OutSpec  string // bound "out" value: output series name only
}

// ResolvePipeline runs step 4 of the per-request pipeline over a parsed
// request: output-series derivation, reqid-scoped filter application and
// argument binding for each step. Recnum materialization for multi-subset
// specs is not done here (Process calls MaterializeSubspecs). The reqid
// filter width of every step comes from the prime-key shape of the first
// series named in req.Spec; later steps' output series are not consulted.
func ResolvePipeline(cat Catalog, req store.ExportRequest, steps []Step, recLimit int) ([]ResolvedStep, error) {
	if len(steps) == 0 {
		return nil, nil
	}

	seriesNames := seriesNamesInSpec(req.Spec)
	if err := ValidateSeriesCount(seriesNames, true); err != nil {
		return nil, err
	}

	ancestryInfo, err := cat.SeriesInfo(seriesNames[0])
	if err != nil {
		return nil, fmt.Errorf("scheduler: series info for %q: %w", seriesNames[0], err)
	}

	currentSeries := seriesNames[0]
	currentSpec := StripFilters(req.Spec)

	resolved := make([]ResolvedStep, 0, len(steps))
	for _, step := range steps {
		catStep, ok, err := cat.ProcessingStep(step.Name)
		if err != nil {
			return nil, fmt.Errorf("scheduler: processing step %q lookup: %w", step.Name, err)
		}
		if !ok {
			return nil, fmt.Errorf("scheduler: unknown processing step %q: %w", step.Name, xerr.BadRequest)
		}

		outSeries := catStep.OutputRule.Apply(currentSeries)
		inSpecFiltered := ApplyReqidFilter(currentSpec, ancestryInfo, req.RequestID)

		bc := NewBindContext(SpecialVars(inSpecFiltered, outSeries, recLimit))
		args, err := BindStep(step, catStep, bc)
		if err != nil {
			return nil, err
		}

		resolved = append(resolved, ResolvedStep{
			Name:     step.Name,
			ExecPath: catStep.ExecPath,
			Args:     applyNameMap(args, catStep.NameMap),
			InSpec:   inSpecFiltered,
			OutSpec:  outSeries,
		})

		currentSeries = outSeries
		currentSpec = outSeries
	}

	return resolved, nil
}

// seriesNamesInSpec extracts the series name portion of each comma-
// separated sub-spec in a record-set spec string.
func seriesNamesInSpec(spec string) []string {
	subspecs := SplitSubspecs(spec)
	names := make([]string, 0, len(subspecs))
	for _, s := range subspecs {
		names = append(names, StripFilters(s))
	}
	if len(names) == 0 {
		names = append(names, StripFilters(spec))
	}
	return names
}

// MaterializeSubspecs implements step 6: for a multi-subset spec with
// processing, resolve the union of matching recnums via the catalog and
// rewrite the spec as "series[:#r1,#r2,...]".
func MaterializeSubspecs(cat Catalog, spec string) (string, error) {
	subspecs := SplitSubspecs(spec)
	if len(subspecs) <= 1 {
		return spec, nil
	}

	seriesName := StripFilters(subspecs[0])
	recnums, err := cat.RecnumsForSpec(spec)
	if err != nil {
		return "", fmt.Errorf("scheduler: materialize recnums for %q: %w", spec, err)
	}
	if len(recnums) == 0 {
		return "", fmt.Errorf("scheduler: multi-subset spec %q matched no records: %w", spec, xerr.BadRequest)
	}

	out := seriesName + "[:#" + formatRecnum(recnums[0])
	for _, r := range recnums[1:] {
		out += ",#" + formatRecnum(r)
	}
	out += "]"
	return out, nil
}

func formatRecnum(r int64) string {
	return fmt.Sprintf("%d", r)
}

// applyNameMap translates bound argument names to the exec program's own
// expected flag names, per the processing catalog's name_map column. Args
// with no entry in nameMap pass through unchanged.
func applyNameMap(args map[string]string, nameMap map[string]string) map[string]string {
	if len(nameMap) == 0 {
		return args
	}
	out := make(map[string]string, len(args))
	for k, v := range args {
		if mapped, ok := nameMap[k]; ok {
			out[mapped] = v
			continue
		}
		out[k] = v
	}
	return out
}
