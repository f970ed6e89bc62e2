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

// Package template implements the String Templater of spec.md §4.5:
// $name / ${name} expansion against a two-tier lookup (built-ins first,
// then the resolved environment), grounded on the same
// regexp.MustCompile(`{{...}}`)-then-FindStringSubmatch idiom the
// teacher's stage_custom.go uses for its own ".job.NAME.output" token
// grammar.
package template

import (
	"regexp"

	"github.com/pipelinecore/settings-engine/pkg/severity"
)

// tokenRegex matches both $NAME and ${NAME} forms; NAME follows the
// same shell-identifier grammar as parameter names.
var tokenRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// malformedRegex catches a bare `$` not followed by a legal identifier
// start, which spec.md §4.5 calls a "malformed name".
var malformedRegex = regexp.MustCompile(`\$(?:\{[^}]*\}|[^A-Za-z_{}\s]*)`)

// Lookup resolves a single variable name to its value, per spec.md
// §4.5: "looks it up first in extras (built-ins) and then in env".
type Lookup struct {
	Env    map[string]string
	Extras map[string]interface{}
}

func (l Lookup) get(name string) (string, bool) {
	if l.Extras != nil {
		if v, ok := l.Extras[name]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	if l.Env != nil {
		if v, ok := l.Env[name]; ok {
			return v, true
		}
	}
	return "", false
}

// Expand rewrites every $name/${name} token in s. Undefined or
// malformed names substitute the empty string and set ok=false; the
// returned string is always the best-effort rewrite so validation can
// continue (spec.md §7: "the substituted empty string materializing so
// the pipeline still completes the validation pass").
func Expand(s string, env map[string]string, extras map[string]interface{}) (hadVars bool, ok bool, expanded string) {
	lookup := Lookup{Env: env, Extras: extras}
	ok = true

	out := tokenRegex.ReplaceAllStringFunc(s, func(tok string) string {
		hadVars = true
		m := tokenRegex.FindStringSubmatch(tok)
		name := m[1]
		if name == "" {
			name = m[2]
		}
		v, found := lookup.get(name)
		if !found {
			ok = false
			severity.Report(severity.Error, false, "undefined template variable %q referenced in %q", name, s)
			return ""
		}
		return v
	})

	// Any leftover `$` not consumed by tokenRegex is malformed input
	// (e.g. "$1abc" or a stray "$").
	if malformedRegex.MatchString(out) {
		ok = false
		severity.Report(severity.Error, false, "malformed template variable reference in %q", s)
		out = malformedRegex.ReplaceAllString(out, "")
	}

	return hadVars, ok, out
}

// ExpandKeys applies Expand to a named subset of a map's string-valued
// keys, accumulating ok across the whole call the way spec.md §4.5
// describes ("expand_keys(m, keys, env, extras, prev_ok)"): a single
// failing key flips the aggregate result but every key is still
// attempted so the caller sees every problem.
func ExpandKeys(m map[string]interface{}, keys []string, env map[string]string, extras map[string]interface{}, prevOK bool) (bool, map[string]interface{}) {
	ok := prevOK
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, k := range keys {
		raw, present := m[k]
		if !present {
			continue
		}
		s, isString := raw.(string)
		if !isString {
			continue
		}
		_, exOK, expanded := Expand(s, env, extras)
		out[k] = expanded
		if !exOK {
			ok = false
		}
	}
	return ok, out
}
