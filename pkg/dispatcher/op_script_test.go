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

package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelinecore/settings-engine/pkg/model"
)

func TestScriptOp_ValidateRequiresScriptOrJenkins(t *testing.T) {
	assert := assert.New(t)
	link := &model.ActionLink{Raw: map[string]interface{}{"script": map[string]interface{}{}}}
	assert.Error(ScriptOp{}.Validate(link))
}

func TestScriptOp_RunScriptDelegatesToRunner(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{"script": map[string]interface{}{"script": "echo hi"}}}
	rc := newTestRunContext(false)
	runner := &fakeRunner{scriptOut: "hi"}
	rc.Runner = runner

	ok, msg, err := ScriptOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.True(ok)
	assert.Equal("hi", msg)
	assert.Equal([]string{"echo hi"}, runner.scripts)
}

func TestScriptOp_RunJenkinsMergesReturnMapIntoEnvAndBuiltins(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{
		"script": map[string]interface{}{"jenkins": "BUILD_TAG=abc123\nSTATUS=ok\n"},
	}}
	rc := newTestRunContext(false)

	ok, _, err := ScriptOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.True(ok)

	v, present := rc.Env.Get("BUILD_TAG")
	assert.True(present)
	assert.Equal("abc123", v)

	b, present := rc.Env.GetBuiltin("STATUS")
	assert.True(present)
	assert.Equal("ok", b)
}

func TestScriptOp_RunJenkinsDryRunDoesNotMutate(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{
		"script": map[string]interface{}{"jenkins": "BUILD_TAG=abc123"},
	}}
	rc := newTestRunContext(true)

	ok, _, err := ScriptOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.True(ok)

	_, present := rc.Env.Get("BUILD_TAG")
	assert.False(present)
}
