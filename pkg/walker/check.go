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

package walker

import (
	"fmt"

	"github.com/pipelinecore/settings-engine/pkg/dispatcher"
	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/tool/log"
)

// CheckStages is the check-mode counterpart to RunStages (spec.md §2's
// "Walker(check) -> Walker(execute)", §4.6, §4.8): it walks every
// stage's actions and structurally validates each resolved
// action-link through the same Operation.Validate every dispatcher op
// implements, without dispatching, mutating the run environment, or
// touching any external collaborator.
func CheckStages(settings *model.PipelineSettings) []error {
	var errs []error

	for _, stage := range settings.Stages {
		for i, action := range stage.Actions {
			stageIndex := fmt.Sprintf("%s[%d]", stage.Name, i)

			link, discriminators, found := settings.ResolveActionLink(action.Action)
			if !found {
				errs = append(errs, fmt.Errorf("%s: action %q is not defined", stageIndex, action.Action))
				continue
			}
			if len(discriminators) > 1 {
				log.Warnf("%s: action-link %q has multiple discriminators %v, using %q", stageIndex, action.Action, discriminators, link.Discriminator)
			}

			op, found := dispatcher.Lookup(link.Discriminator)
			if !found {
				errs = append(errs, fmt.Errorf("%s: %q has no registered operation for discriminator %q", stageIndex, action.Action, link.Discriminator))
				continue
			}

			if err := op.Validate(link); err != nil {
				errs = append(errs, fmt.Errorf("%s: %s: %w", stageIndex, action.Action, err))
			}
		}
	}

	return errs
}
