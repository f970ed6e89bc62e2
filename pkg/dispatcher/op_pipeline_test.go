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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/tool/jenkins"
)

func TestPipelineOp_RunWaitsAndPasses(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{
		"pipeline": "downstream-job",
		"parameters": []interface{}{
			map[string]interface{}{"name": "BRANCH", "value": "main"},
		},
	}}
	rc := newTestRunContext(false)
	downstream := &fakeDownstream{pass: true}
	rc.Downstream = downstream

	ok, msg, err := PipelineOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.True(ok)
	assert.Contains(msg, "succeeded")
	assert.Equal([]string{"downstream-job"}, downstream.invoked)
}

func TestPipelineOp_RunReportsDownstreamFailure(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{"pipeline": "downstream-job"}}
	rc := newTestRunContext(false)
	rc.Downstream = &fakeDownstream{pass: false}

	ok, _, err := PipelineOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.False(ok)
}

func TestPipelineOp_RunWithWaitFalseDoesNotBlock(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{"pipeline": "downstream-job", "wait": false}}
	rc := newTestRunContext(false)
	downstream := &fakeDownstream{pass: false}
	rc.Downstream = downstream

	ok, msg, err := PipelineOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.True(ok)
	assert.Contains(msg, "not waiting")
}

func TestPipelineOp_RunCopiesArtifactsOnSuccess(t *testing.T) {
	assert := assert.New(t)

	root := t.TempDir()
	srcDir := filepath.Join(root, "downloaded")
	assert.NoError(os.MkdirAll(srcDir, 0o755))
	srcFile := filepath.Join(srcDir, "out.tar.gz")
	assert.NoError(os.WriteFile(srcFile, []byte("bytes"), 0o644))

	link := &model.ActionLink{Raw: map[string]interface{}{
		"pipeline":       "downstream-job",
		"copy_artifacts": map[string]interface{}{"filter": "*.tar.gz"},
	}}
	rc := newTestRunContext(false)
	rc.WorkspaceRoot = root
	rc.Dir = root
	build := &fakeBuild{pass: true, artifacts: []jenkins.Artifact{{LocalPath: srcFile, RelativePath: "out.tar.gz"}}}
	rc.Downstream = &fakeDownstream{build: build}

	ok, msg, err := PipelineOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.True(ok)
	assert.Contains(msg, "copied 1 artifact")

	published, err := os.ReadFile(filepath.Join(root, "artifacts", "out.tar.gz"))
	assert.NoError(err)
	assert.Equal("bytes", string(published))
}

func TestPipelineOp_RunFailsWhenCopyArtifactsFindsNothingAndNotOptional(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{
		"pipeline":       "downstream-job",
		"copy_artifacts": map[string]interface{}{"filter": "*.tar.gz"},
	}}
	rc := newTestRunContext(false)
	build := &fakeBuild{pass: true}
	rc.Downstream = &fakeDownstream{build: build}

	ok, _, err := PipelineOp{}.Run(context.Background(), rc, link)
	assert.Error(err)
	assert.False(ok)
}

func TestPipelineOp_RunOptionalCopyArtifactsToleratesNoMatches(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{
		"pipeline":       "downstream-job",
		"copy_artifacts": map[string]interface{}{"filter": "*.tar.gz", "optional": true},
	}}
	rc := newTestRunContext(false)
	build := &fakeBuild{pass: true}
	rc.Downstream = &fakeDownstream{build: build}

	ok, msg, err := PipelineOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.True(ok)
	assert.Contains(msg, "copied 0 artifact")
}

func TestPipelineOp_RunPropagateFalseMasksDownstreamFailure(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{"pipeline": "downstream-job", "propagate": false}}
	rc := newTestRunContext(false)
	build := &fakeBuild{pass: false}
	rc.Downstream = &fakeDownstream{build: build}

	ok, msg, err := PipelineOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.True(ok)
	assert.Contains(msg, "not propagated")
}

func TestPipelineOp_ValidateRejectsBadCopyArtifactsKeys(t *testing.T) {
	assert := assert.New(t)

	link := &model.ActionLink{Raw: map[string]interface{}{
		"pipeline":       "downstream-job",
		"copy_artifacts": map[string]interface{}{"optional": "not-a-bool"},
	}}
	assert.Error(PipelineOp{}.Validate(link))
}
