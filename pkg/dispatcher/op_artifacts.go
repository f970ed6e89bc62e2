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
	"fmt"
	"path/filepath"

	"github.com/otiai10/copy"

	"github.com/pipelinecore/settings-engine/pkg/coerce"
	"github.com/pipelinecore/settings-engine/pkg/model"
)

// ArtifactsOp publishes matching files into the run's artifacts/
// directory, grounded on the teacher's fs.file.go use of
// otiai10/copy.Copy for its own chart/service publishing step.
type ArtifactsOp struct{}

func init() { register(ArtifactsOp{}) }

func (ArtifactsOp) Discriminator() string { return "artifacts" }

func (ArtifactsOp) Validate(link *model.ActionLink) error {
	if _, ok := coerce.ToString(link.Raw["artifacts"]); !ok {
		return fmt.Errorf("artifacts must be a glob pattern")
	}
	return nil
}

func (ArtifactsOp) Run(ctx context.Context, rc *RunContext, link *model.ActionLink) (bool, string, error) {
	pattern, _ := coerce.ToString(link.Raw["artifacts"])
	allowEmpty := false
	if v, ok := link.Raw["allow_empty"]; ok {
		if b, ok := coerce.ToBool(v); ok {
			allowEmpty = b
		}
	}

	matches, err := filepath.Glob(filepath.Join(rc.Dir, pattern))
	if err != nil {
		return false, "", fmt.Errorf("artifacts %s: bad pattern: %w", pattern, err)
	}
	if len(matches) == 0 && !allowEmpty {
		return false, "", fmt.Errorf("artifacts %s: no files matched", pattern)
	}

	destDir := filepath.Join(rc.WorkspaceRoot, "artifacts")

	if rc.DryRun {
		return true, fmt.Sprintf("would publish %d file(s)", len(matches)), nil
	}

	for _, m := range matches {
		dest := filepath.Join(destDir, filepath.Base(m))
		if err := copy.Copy(m, dest); err != nil {
			return false, "", fmt.Errorf("publish artifact %s: %w", m, err)
		}
	}
	return true, fmt.Sprintf("published %d file(s)", len(matches)), nil
}
