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

func TestPlaybookOp_RunResolvesPlaybookAndInventory(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{"playbook": "deploy"}}
	rc := newTestRunContext(false)
	rc.Settings = &model.PipelineSettings{
		Playbooks:   map[string]string{"deploy": "---\n- hosts: all"},
		Inventories: map[string]string{"default": "[all]\nlocalhost"},
	}
	runner := &fakeRunner{}
	rc.Runner = runner

	ok, _, err := PlaybookOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.True(ok)
	assert.Equal([]string{"---\n- hosts: all"}, runner.playbooks)
}

func TestPlaybookOp_RunFailsWhenPlaybookMissing(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{"playbook": "nope"}}
	rc := newTestRunContext(false)
	rc.Settings = &model.PipelineSettings{}

	_, _, err := PlaybookOp{}.Run(context.Background(), rc, link)
	assert.Error(err)
}
