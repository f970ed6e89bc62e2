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
	"strings"

	"github.com/pipelinecore/settings-engine/pkg/coerce"
	"github.com/pipelinecore/settings-engine/pkg/model"
)

// CollectionsOp installs one or more named add-ons through the Remote
// Runner contract.
type CollectionsOp struct{}

func init() { register(CollectionsOp{}) }

func (CollectionsOp) Discriminator() string { return "collections" }

func (CollectionsOp) Validate(link *model.ActionLink) error {
	if _, ok := coerce.ToStringList(link.Raw["collections"]); !ok {
		return fmt.Errorf("collections must be a string or list of strings")
	}
	return nil
}

func (CollectionsOp) Run(ctx context.Context, rc *RunContext, link *model.ActionLink) (bool, string, error) {
	names, _ := coerce.ToStringList(link.Raw["collections"])

	if rc.DryRun {
		return true, fmt.Sprintf("would install %s", strings.Join(names, ", ")), nil
	}

	for _, name := range names {
		if _, err := rc.Runner.RunCollection(ctx, name, rc.Installation); err != nil {
			return false, "", fmt.Errorf("install collection %s: %w", name, err)
		}
	}
	return true, fmt.Sprintf("installed %s", strings.Join(names, ", ")), nil
}
