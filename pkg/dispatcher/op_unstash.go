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
	"os"

	"github.com/pipelinecore/settings-engine/pkg/coerce"
	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/tool/archive"
)

// UnstashOp extracts a previously stashed bundle into the run's
// current directory.
type UnstashOp struct{}

func init() { register(UnstashOp{}) }

func (UnstashOp) Discriminator() string { return "unstash" }

func (UnstashOp) Validate(link *model.ActionLink) error {
	if _, ok := coerce.ToString(link.Raw["unstash"]); !ok {
		return fmt.Errorf("unstash must name a previously stashed bundle")
	}
	return nil
}

func (UnstashOp) Run(ctx context.Context, rc *RunContext, link *model.ActionLink) (bool, string, error) {
	name, _ := coerce.ToString(link.Raw["unstash"])
	src := bundlePath(rc, name)

	if _, err := os.Stat(src); err != nil {
		return false, "", fmt.Errorf("unstash %s: no bundle found: %w", name, err)
	}

	if rc.DryRun {
		return true, fmt.Sprintf("would unstash %s", name), nil
	}

	if err := archive.Unbundle(src, rc.Dir); err != nil {
		return false, "", fmt.Errorf("unstash %s: %w", name, err)
	}
	return true, fmt.Sprintf("unstashed %s", name), nil
}
