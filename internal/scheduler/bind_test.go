// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heliocore/drms-export/internal/store"
)

func TestBindStepLiteralBeatsVarsAndEnv(t *testing.T) {
	step := Step{Name: "calib", Args: map[string]string{"arg1": "literal"}}
	catStep := store.ProcessingStep{RequiredArgs: []string{"arg1"}}
	bc := BindContext{Vars: map[string]string{"arg1": "fromvar"}, Env: func(string) (string, bool) { return "", false }}

	bound, err := BindStep(step, catStep, bc)
	require.NoError(t, err)
	require.Equal(t, "literal", bound["arg1"])
}

func TestBindStepFallsBackToVarsThenEnv(t *testing.T) {
	step := Step{Name: "calib", Args: map[string]string{}}
	catStep := store.ProcessingStep{RequiredArgs: []string{"in", "shellvar"}}
	bc := BindContext{
		Vars: map[string]string{"in": "hmi.v45[][r1]"},
		Env:  func(k string) (string, bool) { return "envval", k == "shellvar" },
	}

	bound, err := BindStep(step, catStep, bc)
	require.NoError(t, err)
	require.Equal(t, "hmi.v45[][r1]", bound["in"])
	require.Equal(t, "envval", bound["shellvar"])
}

func TestBindStepRequiredMissingFails(t *testing.T) {
	step := Step{Name: "calib", Args: map[string]string{}}
	catStep := store.ProcessingStep{RequiredArgs: []string{"arg1"}}
	bc := BindContext{Vars: map[string]string{}, Env: func(string) (string, bool) { return "", false }}

	_, err := BindStep(step, catStep, bc)
	require.Error(t, err)
}

func TestBindStepOptionalOmittedWhenUnbound(t *testing.T) {
	step := Step{Name: "calib", Args: map[string]string{}}
	catStep := store.ProcessingStep{OptionalArgs: map[string]string{"opt": ""}}
	bc := BindContext{Vars: map[string]string{}, Env: func(string) (string, bool) { return "", false }}

	bound, err := BindStep(step, catStep, bc)
	require.NoError(t, err)
	_, ok := bound["opt"]
	require.False(t, ok)
}

func TestBindStepOptionalUsesLiteralCatalogDefault(t *testing.T) {
	step := Step{Name: "calib", Args: map[string]string{}}
	catStep := store.ProcessingStep{OptionalArgs: map[string]string{"opt": `"fallback_value"`}}
	bc := BindContext{Vars: map[string]string{}, Env: func(string) (string, bool) { return "", false }}

	bound, err := BindStep(step, catStep, bc)
	require.NoError(t, err)
	require.Equal(t, "fallback_value", bound["opt"])
}

func TestBindStepOptionalUsesExprDefault(t *testing.T) {
	step := Step{Name: "calib", Args: map[string]string{}}
	catStep := store.ProcessingStep{OptionalArgs: map[string]string{"opt": `out + "_cal"`}}
	bc := BindContext{Vars: map[string]string{"out": "hmi.v45_cal"}, Env: func(string) (string, bool) { return "", false }}

	bound, err := BindStep(step, catStep, bc)
	require.NoError(t, err)
	require.Equal(t, "hmi.v45_cal_cal", bound["opt"])
}

func TestSpecialVarsOmitsReclimWhenZero(t *testing.T) {
	vars := SpecialVars("in-spec", "out-series", 0)
	_, ok := vars["reclim"]
	require.False(t, ok)
	require.Equal(t, "in-spec", vars["in"])
	require.Equal(t, "out-series", vars["out"])
}

func TestSpecialVarsIncludesReclim(t *testing.T) {
	vars := SpecialVars("in-spec", "out-series", 7)
	require.Equal(t, "7", vars["reclim"])
}
