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

// Package coerce replaces the source-level type-switch chains the
// original settings engine used on raw YAML scalars with three small
// helpers, per spec.md §9 "Dynamic typing of YAML scalars": the
// coercion rules are kept identical to the original (numeric scalars
// coerce to string, "true"/"false" coerce to boolean) regardless of
// what concrete Go type gopkg.in/yaml.v3 decoded the node into.
package coerce

import (
	"fmt"
	"strconv"
)

// ToString converts a decoded YAML scalar to its string form. It
// returns ok=false only for types that have no sane scalar
// representation (maps, slices, nil).
func ToString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case []interface{}, []string, map[string]interface{}, map[interface{}]interface{}:
		return "", false
	default:
		return fmt.Sprintf("%v", t), true
	}
}

// ToBool converts a decoded YAML scalar or its already-templated string
// form to a boolean. Accepts the native bool, and the strings
// "true"/"false" (any case), matching the original's loose coercion.
func ToBool(v interface{}) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}

// IsList reports whether v decoded to a YAML sequence.
func IsList(v interface{}) bool {
	switch v.(type) {
	case []interface{}:
		return true
	case []string:
		return true
	default:
		return false
	}
}

// ToStringList coerces a scalar-or-sequence value into a []string,
// used for keys like `regex` and `collections` that spec.md allows to
// be either a single string or an ordered list of strings.
func ToStringList(v interface{}) ([]string, bool) {
	if IsList(v) {
		var out []string
		switch t := v.(type) {
		case []interface{}:
			for _, item := range t {
				s, ok := ToString(item)
				if !ok {
					return nil, false
				}
				out = append(out, s)
			}
		case []string:
			out = append(out, t...)
		}
		return out, true
	}
	s, ok := ToString(v)
	if !ok {
		return nil, false
	}
	return []string{s}, true
}
