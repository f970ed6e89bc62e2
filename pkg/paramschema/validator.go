/*
Copyright 2021 The KodeRover Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package paramschema implements the Parameter Schema Validator of
// spec.md §4.2: name/type/choice/default/regex/on_empty checks and the
// enumerated auto-type inferences, grounded on the same accumulate-then-report
// idiom the teacher uses for HTTP-facing validation (validate everything,
// collect every problem, decide pass/fail once).
package paramschema

import (
	"fmt"
	"regexp"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/pipelinecore/settings-engine/pkg/coerce"
	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/tool/log"
)

// identifierRegex is the POSIX shell identifier grammar spec.md §3
// requires of Param.Name and of on_empty.assign's $X target.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Warning is a non-fatal finding recorded alongside the boolean result.
type Warning struct {
	Param   string
	Message string
}

// Result is the outcome of validating a full parameter list.
type Result struct {
	OK       bool
	Errors   *multierror.Error
	Warnings []Warning
}

// Validate walks params (already merged required+optional+built-ins by
// the caller) and returns false iff at least one error-severity finding
// was emitted, per the table in spec.md §4.2. Params that need
// auto-typing are mutated in place so the returned slice reflects the
// inferred types (spec.md §8 "auto-typing is idempotent").
func Validate(params []*model.Param) Result {
	res := Result{OK: true}

	for _, p := range params {
		if !validateOne(p, &res) {
			res.OK = false
		}
	}
	return res
}

func validateOne(p *model.Param, res *Result) bool {
	ok := true

	name, nameOK := coerce.ToString(p.Name)
	if !nameOK || name == "" || !identifierRegex.MatchString(name) {
		res.Errors = multierror.Append(res.Errors, errf("parameter name %q is missing or violates the shell identifier pattern", p.Name))
		ok = false
	}

	hasChoices := p.Choices != nil
	hasDefault := p.Default != nil

	if hasDefault && hasChoices {
		res.Errors = multierror.Append(res.Errors, errf("%s: 'default' and 'choices' are mutually exclusive", name))
		ok = false
	}

	if hasChoices && !coerce.IsList(p.Choices) {
		res.Errors = multierror.Append(res.Errors, errf("%s: 'choices' must be a list", name))
		ok = false
	}

	if p.Type == "" {
		inferred, inferOK := inferType(p)
		if !inferOK {
			res.Errors = multierror.Append(res.Errors, errf("%s: 'type' is missing and could not be inferred from 'default' or 'choices'", name))
			ok = false
		} else {
			msg := "'type' key is not defined, but was detected by '" + inferredFrom(p) + "' key: " + inferred
			res.Warnings = append(res.Warnings, Warning{Param: name, Message: msg})
			log.Warnf("%s", msg)
			p.Type = inferred
		}
	}

	switch model.ParamType(p.Type) {
	case model.ParamTypeChoice:
		if !hasChoices {
			res.Errors = multierror.Append(res.Errors, errf("%s: type=choice requires 'choices'", name))
			ok = false
		}
	case model.ParamTypeBoolean:
		if hasDefault {
			if _, boolOK := coerce.ToBool(p.Default); !boolOK {
				res.Errors = multierror.Append(res.Errors, errf("%s: type=boolean requires a boolean 'default'", name))
				ok = false
			}
		}
	}

	if p.OnEmpty != nil && len(p.OnEmpty.Assign) > 1 && p.OnEmpty.Assign[0] == '$' {
		target := p.OnEmpty.Assign[1:]
		if !identifierRegex.MatchString(target) {
			res.Errors = multierror.Append(res.Errors, errf("%s: on_empty.assign references invalid variable name %q", name, target))
			ok = false
		}
	}

	return ok
}

// inferType implements spec.md §4.2's auto-typing rule: a boolean
// default infers "boolean", a list of choices infers "choice".
func inferType(p *model.Param) (string, bool) {
	if p.Choices != nil && coerce.IsList(p.Choices) {
		return string(model.ParamTypeChoice), true
	}
	if p.Default != nil {
		if _, ok := coerce.ToBool(p.Default); ok {
			if _, isBool := p.Default.(bool); isBool {
				return string(model.ParamTypeBoolean), true
			}
		}
	}
	return "", false
}

func inferredFrom(p *model.Param) string {
	if p.Choices != nil {
		return "choices"
	}
	return "default"
}

func errf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
