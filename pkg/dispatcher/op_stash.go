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

	"github.com/pipelinecore/settings-engine/pkg/coerce"
	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/tool/archive"
)

// StashOp bundles files matching `includes` under the run's directory
// into a tar.gz keyed by name, for a later unstash in the same run.
type StashOp struct{}

func init() { register(StashOp{}) }

func (StashOp) Discriminator() string { return "stash" }

func (StashOp) Validate(link *model.ActionLink) error {
	if _, ok := coerce.ToString(link.Raw["stash"]); !ok {
		return fmt.Errorf("stash must name the bundle")
	}
	return nil
}

func (StashOp) Run(ctx context.Context, rc *RunContext, link *model.ActionLink) (bool, string, error) {
	name, _ := coerce.ToString(link.Raw["stash"])
	includes := "*"
	if v, ok := link.Raw["includes"]; ok {
		if s, ok := coerce.ToString(v); ok {
			includes = s
		}
	}
	allowEmpty := false
	if v, ok := link.Raw["allow_empty"]; ok {
		if b, ok := coerce.ToBool(v); ok {
			allowEmpty = b
		}
	}

	matches, err := filepath.Glob(filepath.Join(rc.Dir, includes))
	if err != nil {
		return false, "", fmt.Errorf("stash %s: bad includes pattern: %w", name, err)
	}
	if len(matches) == 0 && !allowEmpty {
		return false, "", fmt.Errorf("stash %s: no files matched %q", name, includes)
	}

	if rc.DryRun {
		return true, fmt.Sprintf("would stash %d file(s) as %s", len(matches), name), nil
	}

	dest := bundlePath(rc, name)
	if err := archive.Bundle(matches, dest); err != nil {
		return false, "", fmt.Errorf("stash %s: %w", name, err)
	}
	return true, fmt.Sprintf("stashed %d file(s) as %s", len(matches), name), nil
}

func bundlePath(rc *RunContext, name string) string {
	return filepath.Join(rc.WorkspaceRoot, ".stash", name+".tar.gz")
}
