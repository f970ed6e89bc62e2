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
)

func TestArtifactsOp_PublishesMatchingFiles(t *testing.T) {
	assert := assert.New(t)

	root := t.TempDir()
	assert.NoError(os.WriteFile(filepath.Join(root, "result.txt"), []byte("data"), 0o644))

	rc := newTestRunContext(false)
	rc.WorkspaceRoot = root
	rc.Dir = root

	link := &model.ActionLink{Raw: map[string]interface{}{"artifacts": "*.txt"}}
	ok, _, err := ArtifactsOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.True(ok)

	published, err := os.ReadFile(filepath.Join(root, "artifacts", "result.txt"))
	assert.NoError(err)
	assert.Equal("data", string(published))
}

func TestArtifactsOp_AllowEmptySkipsFailure(t *testing.T) {
	assert := assert.New(t)

	root := t.TempDir()
	rc := newTestRunContext(false)
	rc.WorkspaceRoot = root
	rc.Dir = root

	link := &model.ActionLink{Raw: map[string]interface{}{"artifacts": "*.nope", "allow_empty": true}}
	ok, _, err := ArtifactsOp{}.Run(context.Background(), rc, link)
	assert.NoError(err)
	assert.True(ok)
}
