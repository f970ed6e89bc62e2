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

// ScriptOp either runs `script:` through the Remote Runner, or
// interprets `jenkins:` as a literal `KEY=VALUE` return map merged
// into the run's environment and built-ins (spec.md's Non-goals
// explicitly exclude an expression language for this branch, so no
// govaluate or similar evaluator is used here).
type ScriptOp struct{}

func init() { register(ScriptOp{}) }

func (ScriptOp) Discriminator() string { return "script" }

func (ScriptOp) Validate(link *model.ActionLink) error {
	body, ok := link.Raw["script"]
	if !ok {
		return fmt.Errorf("script must be a map with a script or jenkins key")
	}
	m, ok := body.(map[string]interface{})
	if !ok {
		return fmt.Errorf("script must be a map with a script or jenkins key")
	}
	_, hasScript := m["script"]
	_, hasJenkins := m["jenkins"]
	if !hasScript && !hasJenkins {
		return fmt.Errorf("script must set one of script or jenkins")
	}
	return nil
}

func (ScriptOp) Run(ctx context.Context, rc *RunContext, link *model.ActionLink) (bool, string, error) {
	m, _ := link.Raw["script"].(map[string]interface{})

	if raw, ok := m["jenkins"]; ok {
		text, _ := coerce.ToString(raw)
		returned := parseReturnMap(text)
		if !rc.DryRun {
			rc.Env.MergeEnv(returned)
			for k, v := range returned {
				rc.Env.SetBuiltin(k, v)
			}
		}
		return true, fmt.Sprintf("merged %d return value(s)", len(returned)), nil
	}

	text, _ := coerce.ToString(m["script"])
	if rc.DryRun {
		return true, "would run script", nil
	}

	node := ""
	if v, ok := link.Raw["node"]; ok {
		if s, ok := coerce.ToString(v); ok {
			node = s
		}
	}

	output, err := rc.Runner.RunScript(ctx, text, node)
	if err != nil {
		return false, output, fmt.Errorf("run script: %w", err)
	}
	return true, output, nil
}

// parseReturnMap interprets the "as-part-of-pipeline" jenkins: body as
// newline-separated KEY=VALUE assignments.
func parseReturnMap(text string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return out
}
