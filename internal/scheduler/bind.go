// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package scheduler

import (
	"fmt"
	"os"
	"strconv"

	"github.com/expr-lang/expr"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// BindContext supplies the non-literal sources an argument may resolve
// against, in the step 4 search order: step literal args (checked by the
// caller before BindContext is consulted), scheduler internal variables,
// then shell/process environment variables, then — for optional args only
// — the catalog's default expression.
type BindContext struct {
	Vars map[string]string // scheduler internal variables (in, out, reclim, reqid, ...)
	Env  func(string) (string, bool)
}

// NewBindContext builds a BindContext whose Env source is the process
// environment (os.LookupEnv), matching the shell-variable tier of the
// search order.
func NewBindContext(vars map[string]string) BindContext {
	return BindContext{Vars: vars, Env: os.LookupEnv}
}

// BindStep resolves every required and optional argument of step against
// literal, vars, and env, in that order, falling back to the catalog's
// optional-arg default expression when nothing else supplies an optional
// value. Required args absent from every tier are a BadRequest error.
// The three special names in/out/reclim are bound only from bc.Vars: step
// literals, env and the catalog default are not consulted for them.
func BindStep(step Step, catalogStep store.ProcessingStep, bc BindContext) (map[string]string, error) {
	bound := map[string]string{}
	special := map[string]bool{"in": true, "out": true, "reclim": true}

	resolve := func(name string) (string, bool) {
		if special[name] {
			v, ok := bc.Vars[name]
			return v, ok
		}
		if v, ok := step.Args[name]; ok {
			return v, true
		}
		if v, ok := bc.Vars[name]; ok {
			return v, true
		}
		if bc.Env != nil {
			if v, ok := bc.Env(name); ok {
				return v, true
			}
		}
		return "", false
	}

	for _, name := range catalogStep.RequiredArgs {
		v, ok := resolve(name)
		if !ok {
			return nil, fmt.Errorf("scheduler: step %q missing required arg %q: %w", step.Name, name, xerr.BadRequest)
		}
		bound[name] = v
	}

	for name, defaultExpr := range catalogStep.OptionalArgs {
		if v, ok := resolve(name); ok {
			bound[name] = v
			continue
		}
		if special[name] {
			continue
		}
		v, ok, err := evalOptionalDefault(defaultExpr, bc.Vars)
		if err != nil {
			return nil, fmt.Errorf("scheduler: step %q optional arg %q default: %w", step.Name, name, err)
		}
		if ok {
			bound[name] = v
		}
		// else: omitted entirely, per step 4's "omit entirely if still unbound"
	}

	return bound, nil
}

// evalOptionalDefault evaluates a catalog default value for an optional
// argument. The catalog stores an expr-lang expression, not a bare string,
// so a literal default must be written as a quoted string (`"fallback"`)
// and can otherwise reference the scheduler's internal variables (e.g.
// `out + "_mod"` or a conditional on reclim).
func evalOptionalDefault(defaultExpr string, vars map[string]string) (string, bool, error) {
	if defaultExpr == "" {
		return "", false, nil
	}
	env := make(map[string]any, len(vars))
	for k, v := range vars {
		env[k] = v
	}
	program, err := expr.Compile(defaultExpr, expr.Env(env))
	if err != nil {
		return "", false, fmt.Errorf("compile default expression %q: %w", defaultExpr, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return "", false, fmt.Errorf("evaluate default expression %q: %w", defaultExpr, err)
	}
	switch v := out.(type) {
	case string:
		return v, true, nil
	case int:
		return strconv.Itoa(v), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true, nil
	case bool:
		return strconv.FormatBool(v), true, nil
	default:
		return fmt.Sprintf("%v", v), true, nil
	}
}

// SpecialVars builds the scheduler internal variables for one step: in
// (pipeline input spec), out (output series name only), and reclim (the
// extracted record limit, as a decimal string; the key is absent when the
// limit is unset).
func SpecialVars(in, out string, recLimit int) map[string]string {
	vars := map[string]string{"in": in, "out": out}
	if recLimit != 0 {
		vars["reclim"] = strconv.Itoa(recLimit)
	}
	return vars
}
