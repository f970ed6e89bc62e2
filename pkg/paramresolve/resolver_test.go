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

package paramresolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelinecore/settings-engine/pkg/model"
)

func TestResolve_RegexMismatchFails(t *testing.T) {
	assert := assert.New(t)

	p := &model.Param{Name: "FOO", Type: "string", Regex: "[0-9]+"}
	res := Resolve([]*model.Param{p}, nil, map[string]string{"FOO": "12a"}, false)

	assert.False(res.OK)
	assert.Contains(res.Reports[len(res.Reports)-1].Message, "FOO parameter is incorrect due to regex mismatch.")
}

func TestResolve_RegexListMatchesConcatenationOnly(t *testing.T) {
	assert := assert.New(t)

	p := &model.Param{Name: "FOO", Type: "string", Regex: []interface{}{"[0-9]", "[a-z]"}}
	failing := Resolve([]*model.Param{p}, nil, map[string]string{"FOO": "9"}, false)
	assert.False(failing.OK, "a single element must not match on its own")

	passing := Resolve([]*model.Param{p}, nil, map[string]string{"FOO": "9a"}, false)
	assert.True(passing.OK)
}

func TestResolve_OnEmptyLiteralAssign(t *testing.T) {
	assert := assert.New(t)

	p := &model.Param{Name: "FOO", Type: "string", OnEmpty: &model.OnEmpty{Assign: "fallback"}}
	res := Resolve([]*model.Param{p}, nil, map[string]string{}, false)

	assert.True(res.OK)
}

func TestResolve_OnEmptyVarAssignUnsetFailsByDefault(t *testing.T) {
	assert := assert.New(t)

	p := &model.Param{Name: "FOO", Type: "string", OnEmpty: &model.OnEmpty{Assign: "$UNSET"}}
	res := Resolve([]*model.Param{p}, nil, map[string]string{}, false)

	assert.False(res.OK)
}

func TestResolve_OnEmptyVarAssignUnsetWithFailFalse(t *testing.T) {
	assert := assert.New(t)

	f := false
	p := &model.Param{Name: "FOO", Type: "string", OnEmpty: &model.OnEmpty{Assign: "$UNSET", Fail: &f, Warn: true}}
	res := Resolve([]*model.Param{p}, nil, map[string]string{}, false)

	assert.True(res.OK)
}

func TestResolve_RegexReplaceAppliedTwiceIsStable(t *testing.T) {
	assert := assert.New(t)

	p := &model.Param{Name: "FOO", Type: "string", RegexReplace: &model.RegexReplace{Regex: "foo", To: "bar"}}
	env := map[string]string{"FOO": "foofoo"}

	res1 := Resolve(nil, []*model.Param{p}, env, false)
	assert.Equal("foofoo", env["FOO"], "Resolve returns a new map, original env is untouched")
	assert.True(res1.OK)
	assert.Equal("barbar", res1.Env["FOO"], "regex_replace substitutes every occurrence, not just a whole-value match")

	res2 := Resolve(nil, []*model.Param{p}, res1.Env, false)
	assert.True(res2.OK)
	assert.Equal("barbar", res2.Env["FOO"], "re-applying regex_replace to an already-replaced value is idempotent")
}
