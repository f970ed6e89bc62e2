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

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand_SimpleVar(t *testing.T) {
	assert := assert.New(t)

	_, ok, out := Expand("hello $NAME", map[string]string{"NAME": "world"}, nil)
	assert.True(ok)
	assert.Equal("hello world", out)
}

func TestExpand_BracedVar(t *testing.T) {
	assert := assert.New(t)

	_, ok, out := Expand("hello ${NAME}!", map[string]string{"NAME": "world"}, nil)
	assert.True(ok)
	assert.Equal("hello world!", out)
}

func TestExpand_ExtrasTakesPriorityOverEnv(t *testing.T) {
	assert := assert.New(t)

	env := map[string]string{"NAME": "env-value"}
	extras := map[string]interface{}{"NAME": "extra-value"}
	_, ok, out := Expand("$NAME", env, extras)
	assert.True(ok)
	assert.Equal("extra-value", out)
}

func TestExpand_UndefinedVariableIsError(t *testing.T) {
	assert := assert.New(t)

	_, ok, out := Expand("hello $MISSING", nil, nil)
	assert.False(ok)
	assert.Equal("hello ", out)
}

func TestExpand_NoVars(t *testing.T) {
	assert := assert.New(t)

	had, ok, out := Expand("no vars here", nil, nil)
	assert.False(had)
	assert.True(ok)
	assert.Equal("no vars here", out)
}

func TestExpand_Idempotent(t *testing.T) {
	assert := assert.New(t)

	env := map[string]string{"NAME": "world"}
	_, _, once := Expand("hello $NAME", env, nil)
	_, _, twice := Expand(once, env, nil)
	assert.Equal(once, twice)
}

func TestExpandKeys_SubsetOnly(t *testing.T) {
	assert := assert.New(t)

	m := map[string]interface{}{
		"before_message": "starting $NAME",
		"dir":             "/workspace",
		"ignore_fail":     true,
	}
	ok, out := ExpandKeys(m, []string{"before_message"}, map[string]string{"NAME": "build"}, nil, true)
	assert.True(ok)
	assert.Equal("starting build", out["before_message"])
	assert.Equal("/workspace", out["dir"])
	assert.Equal(true, out["ignore_fail"])
}

func TestExpandKeys_AggregatesFailure(t *testing.T) {
	assert := assert.New(t)

	m := map[string]interface{}{"a": "$MISSING", "b": "fine"}
	ok, _ := ExpandKeys(m, []string{"a", "b"}, nil, nil, true)
	assert.False(ok)
}
