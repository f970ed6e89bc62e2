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

package paraminject

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelinecore/settings-engine/pkg/model"
)

type countingSink struct{ calls int }

func (s *countingSink) Declare(params []*model.Param) error {
	s.calls++
	return nil
}

func TestReconcile_InjectsOnceWhenMissing(t *testing.T) {
	assert := assert.New(t)

	schema := []*model.Param{{Name: "FOO", Type: "string"}}
	sink := &countingSink{}

	res := Reconcile(schema, map[string]string{}, false, false, sink)
	assert.True(res.NeedsUpdate)
	assert.True(res.Terminated)
	assert.Equal(1, sink.calls)
}

func TestReconcile_NoOpWhenAlreadyDeclared(t *testing.T) {
	assert := assert.New(t)

	schema := []*model.Param{{Name: "FOO", Type: "string"}}
	sink := &countingSink{}

	res := Reconcile(schema, map[string]string{"FOO": "x"}, false, false, sink)
	assert.False(res.NeedsUpdate)
	assert.False(res.Terminated)
	assert.Equal(0, sink.calls)
}

func TestReconcile_DryRunSkipsInstallButTerminates(t *testing.T) {
	assert := assert.New(t)

	schema := []*model.Param{{Name: "FOO", Type: "string"}}
	sink := &countingSink{}

	res := Reconcile(schema, map[string]string{}, false, true, sink)
	assert.True(res.Terminated)
	assert.Equal(0, sink.calls)
}
