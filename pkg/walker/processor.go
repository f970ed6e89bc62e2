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
	"path"

	"github.com/pipelinecore/settings-engine/pkg/coerce"
	"github.com/pipelinecore/settings-engine/pkg/dispatcher"
	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/report"
	"github.com/pipelinecore/settings-engine/pkg/template"
	"github.com/pipelinecore/settings-engine/pkg/tool/log"
)

const builtinResultKey = "current_result"

// currentResult reads the run's aggregate result so far, defaulting to
// success until something fails, matching spec.md §4.7.4's
// "current build result".
func currentResult(rc *dispatcher.RunContext) model.BuildResult {
	if v, ok := rc.Env.GetBuiltin(builtinResultKey); ok {
		if r, ok := v.(model.BuildResult); ok {
			return r
		}
	}
	return model.ResultSucceeded
}

func markFailed(rc *dispatcher.RunContext) {
	rc.Env.SetBuiltin(builtinResultKey, model.ResultFailed)
}

// abortError signals stop_on_fail: the walker unwinds every remaining
// stage without running further actions.
type abortError struct {
	reason string
}

func (e *abortError) Error() string { return e.reason }

// runAction implements the nine-step Action Processor of spec.md §4.7
// for one action within one stage.
func runAction(ctx context.Context, stageName string, index int, action model.Action, settings *model.PipelineSettings, rc *dispatcher.RunContext, rep *report.BuiltIns, debugMode bool) (bool, error) {
	stageIndex := fmt.Sprintf("%s[%d]", stageName, index)
	abortOnFail := func() error {
		if action.StopOnFail && !action.IgnoreFail {
			return &abortError{reason: fmt.Sprintf("Terminating current pipeline run due to an error in %s", stageIndex)}
		}
		return nil
	}

	// 1. Structural validation.
	if action.SuccessOnly && action.FailOnly {
		log.Warnf("%s: success_only and fail_only are mutually exclusive, ignoring fail_only", stageIndex)
		action.FailOnly = false
	}

	// 2. Templating of string keys plus `action` name and `node` (if string).
	env := rc.Env.Snapshot()
	extras := builtinsAsExtras(rc)

	strKeys := map[string]interface{}{
		"before_message":  action.BeforeMessage,
		"after_message":   action.AfterMessage,
		"fail_message":    action.FailMessage,
		"success_message": action.SuccessMessage,
		"dir":             action.Dir,
		"build_name":      action.BuildName,
		"action":          action.Action,
	}
	ok, expanded := template.ExpandKeys(strKeys, []string{"before_message", "after_message", "fail_message", "success_message", "dir", "build_name", "action"}, env, extras, true)
	if !ok {
		markFailed(rc)
		rep.AddAction(report.ActionRow{StageIndex: stageIndex, Passed: false, Detail: "templating failed"})
		return false, abortOnFail()
	}
	actionName, _ := coerce.ToString(expanded["action"])
	dir, _ := coerce.ToString(expanded["dir"])
	beforeMsg, _ := coerce.ToString(expanded["before_message"])
	afterMsg, _ := coerce.ToString(expanded["after_message"])
	successMsg, _ := coerce.ToString(expanded["success_message"])
	failMsg, _ := coerce.ToString(expanded["fail_message"])

	// 3. Node resolution.
	if err := resolveNode(action.Node, rc); err != nil {
		log.Errorf("%s: node resolution: %v", stageIndex, err)
		markFailed(rc)
		rep.AddAction(report.ActionRow{StageIndex: stageIndex, Passed: false, Detail: fmt.Sprintf("%s: node resolution: %v", actionName, err)})
		return false, abortOnFail()
	}

	// 4. Conditional gating.
	result := currentResult(rc)
	if action.SuccessOnly && result == model.ResultFailed {
		log.Infof("%s: skipped (success_only, current result is FAILURE)", stageIndex)
		rep.AddAction(report.ActionRow{StageIndex: stageIndex, Passed: true, Detail: fmt.Sprintf("%s: skipped", actionName)})
		return true, nil
	}
	if action.FailOnly && result != model.ResultFailed {
		log.Infof("%s: skipped (fail_only, current result is not FAILURE)", stageIndex)
		rep.AddAction(report.ActionRow{StageIndex: stageIndex, Passed: true, Detail: fmt.Sprintf("%s: skipped", actionName)})
		return true, nil
	}

	// 5. Execution scope.
	actionRC := rc
	if dir != "" {
		actionRC = rc.WithDir(path.Join(rc.Dir, dir))
	}
	if beforeMsg != "" {
		log.Infof("%s: %s", stageIndex, beforeMsg)
	}

	// 6. Dispatch.
	link, discriminators, found := settings.ResolveActionLink(actionName)
	if !found {
		markFailed(rc)
		rep.AddAction(report.ActionRow{StageIndex: stageIndex, Passed: false, Detail: fmt.Sprintf("%s: not found", actionName)})
		return false, abortOnFail()
	}
	if len(discriminators) > 1 {
		log.Warnf("%s: action-link %q has multiple discriminators %v, using %q", stageIndex, actionName, discriminators, link.Discriminator)
	}

	op, found := dispatcher.Lookup(link.Discriminator)
	if !found {
		markFailed(rc)
		rep.AddAction(report.ActionRow{StageIndex: stageIndex, Passed: false, Detail: fmt.Sprintf("%s: unknown discriminator", actionName)})
		return false, abortOnFail()
	}

	pass, _, runErr := op.Run(ctx, actionRC, link)
	if runErr != nil {
		log.Errorf("%s: %s: %v", stageIndex, link.Discriminator, runErr)
		pass = false
	}

	// 7. Post-messages.
	if afterMsg != "" {
		log.Infof("%s: %s", stageIndex, afterMsg)
	}
	if pass && successMsg != "" {
		log.Infof("%s: %s", stageIndex, successMsg)
	} else if !pass && failMsg != "" {
		log.Infof("%s: %s", stageIndex, failMsg)
	}

	// 8. Failure handling.
	reported := pass
	if !pass && action.IgnoreFail {
		reported = true
	}
	if !reported {
		markFailed(rc)
	}

	// 9. Report.
	rep.AddAction(report.ActionRow{StageIndex: stageIndex, Passed: reported, Detail: fmt.Sprintf("%s: %s", actionName, link.Discriminator)})

	if !pass && !action.IgnoreFail && action.StopOnFail {
		return false, &abortError{reason: fmt.Sprintf("Terminating current pipeline run due to an error in %s", stageIndex)}
	}

	return reported, nil
}

func builtinsAsExtras(rc *dispatcher.RunContext) map[string]interface{} {
	// Only the smtp_host, smtp_username and smtp_from built-ins are
	// offered to templating (and Lookup ignores non-string values);
	// other built-ins, such as values returned by a jenkins: script,
	// reach templates only through env, where ScriptOp also merges them.
	extras := map[string]interface{}{}
	for _, k := range []string{"smtp_host", "smtp_username", "smtp_from"} {
		if v, ok := rc.Env.GetBuiltin(k); ok {
			extras[k] = v
		}
	}
	return extras
}

func resolveNode(node interface{}, rc *dispatcher.RunContext) error {
	if node == nil || rc.Nodes == nil {
		return nil
	}
	spec, ok := node.(map[string]interface{})
	if !ok {
		return nil
	}
	name, _ := coerce.ToString(spec["name"])
	label, _ := coerce.ToString(spec["label"])
	if name != "" && label != "" {
		log.Warnf("node spec has both name and label set, name takes priority")
	}
	pattern, _ := coerce.ToBool(spec["pattern"])
	if !pattern {
		return nil
	}
	if name != "" {
		hosts, err := rc.Nodes.Resolve(name, false)
		if err != nil {
			return err
		}
		if len(hosts) == 0 {
			return fmt.Errorf("no host matches %q", name)
		}
		rc.Installation = hosts[0].Name
		return nil
	}
	if label != "" {
		hosts, err := rc.Nodes.Resolve(label, true)
		if err != nil {
			return err
		}
		if len(hosts) == 0 {
			return fmt.Errorf("no host matches label %q", label)
		}
		rc.Installation = hosts[0].Name
	}
	return nil
}
