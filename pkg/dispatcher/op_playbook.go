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

	"github.com/pipelinecore/settings-engine/pkg/coerce"
	"github.com/pipelinecore/settings-engine/pkg/model"
)

// PlaybookOp invokes the Remote Runner with the referenced playbook
// and inventory text, resolved from the pipeline's playbooks/
// inventories lookup tables (spec.md §3).
type PlaybookOp struct{}

func init() { register(PlaybookOp{}) }

func (PlaybookOp) Discriminator() string { return "playbook" }

func (PlaybookOp) Validate(link *model.ActionLink) error {
	if _, ok := coerce.ToString(link.Raw["playbook"]); !ok {
		return fmt.Errorf("playbook must name an entry in the playbooks table")
	}
	return nil
}

func (PlaybookOp) Run(ctx context.Context, rc *RunContext, link *model.ActionLink) (bool, string, error) {
	name, _ := coerce.ToString(link.Raw["playbook"])
	inventoryName := "default"
	if v, ok := link.Raw["inventory"]; ok {
		if s, ok := coerce.ToString(v); ok {
			inventoryName = s
		}
	}

	playbookText, ok := rc.Settings.Playbooks[name]
	if !ok {
		return false, "", fmt.Errorf("playbook %q not found in playbooks table", name)
	}
	inventoryText := rc.Settings.Inventories[inventoryName]

	if rc.DryRun {
		return true, fmt.Sprintf("would run playbook %s", name), nil
	}

	if _, err := rc.Runner.RunPlaybook(ctx, playbookText, inventoryText, rc.Installation); err != nil {
		return false, "", fmt.Errorf("run playbook %s: %w", name, err)
	}
	return true, fmt.Sprintf("ran playbook %s", name), nil
}
