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

// Package paramresolve implements the Parameter Resolver of spec.md
// §4.4: the required-parameter on_empty pass followed by the
// regex/regex_replace pass over required+optional parameters, mutating
// the run's Environment. Compiled patterns are memoized in
// patrickmn/go-cache the way the teacher memoizes short-lived lookups
// elsewhere (e.g. registry namespace resolution), since the same
// pattern text recurs across parameters and across repeated resolves
// of the same pipeline within one long-lived CLI process.
package paramresolve

import (
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pipelinecore/settings-engine/pkg/coerce"
	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/severity"
)

var patternCache = gocache.New(10*time.Minute, 30*time.Minute)

// Report is one per-parameter finding from a resolve pass.
type Report struct {
	Param   string
	Pass    bool
	Message string
}

// Result is the aggregate outcome of Resolve. Env holds the resolved
// environment (env is never mutated in place so callers can compare
// before/after under concurrent stages).
type Result struct {
	OK      bool
	Env     map[string]string
	Reports []Report
}

// Resolve runs both passes of spec.md §4.4 over env, returning the
// resolved environment alongside the pass/fail report.
func Resolve(required, optional []*model.Param, env map[string]string, debugMode bool) Result {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}

	res := Result{OK: true, Env: out}

	for _, p := range required {
		rep := resolveRequired(p, out, debugMode)
		res.Reports = append(res.Reports, rep)
		if !rep.Pass {
			res.OK = false
		}
	}

	for _, p := range append(append([]*model.Param{}, required...), optional...) {
		rep := resolveRegex(p, out, debugMode)
		res.Reports = append(res.Reports, rep)
		if !rep.Pass {
			res.OK = false
		}
	}

	return res
}

// resolveRequired runs the on_empty pass for one required parameter:
// a parameter already set to a non-empty value passes, otherwise any
// on_empty assignment is written into env and the returned Report says
// whether the parameter passed.
func resolveRequired(p *model.Param, env map[string]string, debugMode bool) Report {
	name := p.Name
	if _, defined := env[name]; defined && env[name] != "" {
		return Report{Param: name, Pass: true}
	}

	if p.OnEmpty == nil {
		return Report{Param: name, Pass: true}
	}

	assigned := false
	if p.OnEmpty.Assign != "" {
		if strings.HasPrefix(p.OnEmpty.Assign, "$") {
			ref := p.OnEmpty.Assign[1:]
			if v, ok := env[ref]; ok && v != "" {
				env[name] = v
				assigned = true
			}
		} else {
			env[name] = p.OnEmpty.Assign
			assigned = true
		}
	}

	if assigned {
		entry, _ := severity.Report(severity.Debug, debugMode, "%s: assigned via on_empty", name)
		return Report{Param: name, Pass: true, Message: entry.Message}
	}

	if p.OnEmpty.Warn {
		entry, _ := severity.Report(severity.Warning, debugMode, "%s: required parameter is empty and on_empty could not assign a value", name)
		if !p.OnEmpty.FailOrDefault() {
			return Report{Param: name, Pass: true, Message: entry.Message}
		}
	}

	if p.OnEmpty.FailOrDefault() {
		entry, flip := severity.Report(severity.Error, debugMode, "%s parameter is required but was not supplied and on_empty could not assign a value", name)
		return Report{Param: name, Pass: !flip, Message: entry.Message}
	}

	return Report{Param: name, Pass: true}
}

func resolveRegex(p *model.Param, env map[string]string, debugMode bool) Report {
	name := p.Name
	value, defined := env[name]
	if !defined {
		return Report{Param: name, Pass: true}
	}

	if p.Regex != nil {
		pattern, ok := concatPattern(p.Regex)
		if ok {
			re, err := compile(pattern)
			if err == nil && !re.MatchString(value) {
				entry, flip := severity.Report(severity.Error, debugMode, "%s parameter is incorrect due to regex mismatch.", name)
				return Report{Param: name, Pass: !flip, Message: entry.Message}
			}
		}
	}

	if p.RegexReplace != nil {
		pattern, ok := concatPattern(p.RegexReplace.Regex)
		if ok {
			re, err := compileUnanchored(pattern)
			if err == nil {
				replaced := re.ReplaceAllString(value, p.RegexReplace.To)
				env[name] = replaced
				entry, _ := severity.Report(severity.Debug, debugMode, "%s: regex_replace applied", name)
				return Report{Param: name, Pass: true, Message: entry.Message}
			}
		}
	}

	return Report{Param: name, Pass: true}
}

// concatPattern implements spec.md §4.2/§8: "regex is either a string
// or an ordered sequence of strings concatenated at use time" and the
// boundary property that a list must match its concatenation, not any
// element individually.
func concatPattern(raw interface{}) (string, bool) {
	parts, ok := coerce.ToStringList(raw)
	if !ok {
		return "", false
	}
	return strings.Join(parts, ""), true
}

// compile anchors pattern for full-match verification (the `regex:`
// key: the whole value must match, not a substring of it).
func compile(pattern string) (*regexp.Regexp, error) {
	return compileCached("^(?:"+pattern+")$")
}

// compileUnanchored is used for `regex_replace:`, where
// ReplaceAllString must be free to match and replace a substring
// anywhere in the value (spec.md §8 scenario 6: "foo"->"bar" on
// "foofoo" yields "barbar", which an anchored pattern can never do).
func compileUnanchored(pattern string) (*regexp.Regexp, error) {
	return compileCached(pattern)
}

func compileCached(pattern string) (*regexp.Regexp, error) {
	if v, found := patternCache.Get(pattern); found {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Set(pattern, re, gocache.DefaultExpiration)
	return re, nil
}
