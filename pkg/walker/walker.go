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
	"context"
	"fmt"
	"sync"

	"github.com/pipelinecore/settings-engine/pkg/dispatcher"
	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/report"
	"github.com/pipelinecore/settings-engine/pkg/template"
	"github.com/pipelinecore/settings-engine/pkg/tool/log"
)

// RunStages walks settings.Stages in declaration order, grounded on
// workflowcontroller.RunStages / jobcontroller.Pool in the teacher.
// It returns the run's final aggregate result and any abort error
// raised by a stop_on_fail action.
func RunStages(ctx context.Context, settings *model.PipelineSettings, rc *dispatcher.RunContext, rep *report.BuiltIns, debugMode bool) (model.BuildResult, error) {
	if len(settings.Stages) == 0 {
		if debugMode {
			// spec.md §8: "produces exactly one info log" for this case,
			// gated on DEBUG_MODE like the rest of the walker's chatter.
			log.Infof("No stages to execute in pipeline config.")
		}
		return model.ResultSucceeded, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, stage := range settings.Stages {
		if err := runStage(runCtx, stage, settings, rc, rep, debugMode); err != nil {
			cancel()
			return model.ResultFailed, err
		}
		select {
		case <-runCtx.Done():
			return currentResult(rc), &abortError{reason: "run aborted"}
		default:
		}
	}

	return currentResult(rc), nil
}

func runStage(ctx context.Context, stage model.Stage, settings *model.PipelineSettings, rc *dispatcher.RunContext, rep *report.BuiltIns, debugMode bool) error {
	// spec.md §4.6 step 1: expand the stage name via templating before
	// it's used for logging or the stage report row.
	_, _, stage.Name = template.Expand(stage.Name, rc.Env.Snapshot(), builtinsAsExtras(rc))

	var (
		mu       sync.Mutex
		passes   = make([]bool, len(stage.Actions))
		abortErr error
	)

	run := func(idx int, action model.Action) func() {
		return func() {
			pass, err := runAction(ctx, stage.Name, idx, action, settings, rc, rep, debugMode)
			mu.Lock()
			passes[idx] = pass
			if err != nil {
				if abortErr == nil {
					abortErr = err
				}
			}
			mu.Unlock()
		}
	}

	if stage.Parallel {
		tasks := make([]func(), len(stage.Actions))
		for i, a := range stage.Actions {
			tasks[i] = run(i, a)
		}
		newPool(tasks, len(tasks)).run(ctx)
	} else {
		for i, a := range stage.Actions {
			run(i, a)()
			if abortErr != nil {
				break
			}
		}
	}

	stagePass := true
	for i, p := range passes {
		if !p && !stage.Actions[i].IgnoreFail {
			stagePass = false
		}
	}

	detail := fmt.Sprintf("%d action(s)", len(stage.Actions))
	if stage.Parallel {
		detail += " in parallel"
	}
	rep.AddStage(report.StageRow{Stage: stage.Name, Passed: stagePass, Detail: detail})

	return abortErr
}
