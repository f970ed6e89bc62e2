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
	"github.com/pipelinecore/settings-engine/pkg/tool/jenkins"
)

// PipelineOp dispatches a downstream job, grounded on the teacher's
// jobcontroller.JenkinsJobCtl.Run (InvokeSimple -> GetBuildFromQueueID
// -> poll IsRunning/GetResult).
type PipelineOp struct{}

func init() { register(PipelineOp{}) }

func (PipelineOp) Discriminator() string { return "pipeline" }

func (PipelineOp) Validate(link *model.ActionLink) error {
	if _, ok := coerce.ToString(link.Raw["pipeline"]); !ok {
		return fmt.Errorf("pipeline must name a downstream job")
	}
	if raw, ok := link.Raw["copy_artifacts"]; ok {
		spec, ok := raw.(map[string]interface{})
		if !ok {
			return fmt.Errorf("copy_artifacts must be a map")
		}
		for _, key := range []string{"filter", "excludes", "target_directory"} {
			if v, ok := spec[key]; ok {
				if _, ok := coerce.ToString(v); !ok {
					return fmt.Errorf("copy_artifacts.%s must be a string", key)
				}
			}
		}
		for _, key := range []string{"optional", "flatten", "fingerprint"} {
			if v, ok := spec[key]; ok {
				if _, ok := coerce.ToBool(v); !ok {
					return fmt.Errorf("copy_artifacts.%s must be a boolean", key)
				}
			}
		}
	}
	if v, ok := link.Raw["propagate"]; ok {
		if _, ok := coerce.ToBool(v); !ok {
			return fmt.Errorf("propagate must be a boolean")
		}
	}
	return nil
}

// copyArtifactsSpec is the parsed form of the `copy_artifacts` sub-map,
// mirroring the parameterized-trigger-plugin keys spec.md §4.8 names.
type copyArtifactsSpec struct {
	filter          string
	excludes        string
	targetDirectory string
	optional        bool
	flatten         bool
}

func parseCopyArtifacts(raw interface{}) (copyArtifactsSpec, bool) {
	spec, ok := raw.(map[string]interface{})
	if !ok {
		return copyArtifactsSpec{}, false
	}
	out := copyArtifactsSpec{}
	out.filter, _ = coerce.ToString(spec["filter"])
	out.excludes, _ = coerce.ToString(spec["excludes"])
	out.targetDirectory, _ = coerce.ToString(spec["target_directory"])
	if v, ok := spec["optional"]; ok {
		out.optional, _ = coerce.ToBool(v)
	}
	if v, ok := spec["flatten"]; ok {
		out.flatten, _ = coerce.ToBool(v)
	}
	return out, true
}

// copyDownstreamArtifacts fetches every artifact the downstream build
// produced into a staging directory, then republishes the ones that
// pass filter/excludes into the action's target directory with
// otiai10/copy, the same library ArtifactsOp uses to publish local
// files (spec.md §4.8's `copy_artifacts` row).
func copyDownstreamArtifacts(ctx context.Context, build jenkins.Build, rc *RunContext, jobName string, spec copyArtifactsSpec) ([]string, error) {
	stageDir := filepath.Join(rc.WorkspaceRoot, ".downstream-artifacts", jobName)
	fetched, err := build.FetchArtifacts(ctx, stageDir)
	if err != nil {
		return nil, fmt.Errorf("fetch artifacts from downstream job %s: %w", jobName, err)
	}

	targetDir := spec.targetDirectory
	if targetDir == "" {
		targetDir = filepath.Join(rc.WorkspaceRoot, "artifacts")
	} else if !filepath.IsAbs(targetDir) {
		targetDir = filepath.Join(rc.Dir, targetDir)
	}

	var saved []string
	for _, a := range fetched {
		name := filepath.Base(a.LocalPath)
		if spec.filter != "" {
			if ok, _ := filepath.Match(spec.filter, name); !ok {
				continue
			}
		}
		if spec.excludes != "" {
			if ok, _ := filepath.Match(spec.excludes, name); ok {
				continue
			}
		}

		dest := filepath.Join(targetDir, name)
		if !spec.flatten {
			dest = filepath.Join(targetDir, a.RelativePath)
		}
		if err := copy.Copy(a.LocalPath, dest); err != nil {
			return saved, fmt.Errorf("copy artifact %s from downstream job %s: %w", a.RelativePath, jobName, err)
		}
		saved = append(saved, dest)
	}
	return saved, nil
}

func (PipelineOp) Run(ctx context.Context, rc *RunContext, link *model.ActionLink) (bool, string, error) {
	jobName, _ := coerce.ToString(link.Raw["pipeline"])

	wait := true
	if v, ok := link.Raw["wait"]; ok {
		if b, ok := coerce.ToBool(v); ok {
			wait = b
		}
	}

	params := map[string]string{}
	if raw, ok := link.Raw["parameters"].([]interface{}); ok {
		for _, item := range raw {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			name, nameOK := coerce.ToString(m["name"])
			value, valueOK := coerce.ToString(m["value"])
			if nameOK && valueOK {
				params[name] = value
			}
		}
	}

	propagate := true
	if v, ok := link.Raw["propagate"]; ok {
		if b, ok := coerce.ToBool(v); ok {
			propagate = b
		}
	}

	copyArtifacts, hasCopyArtifacts := parseCopyArtifacts(link.Raw["copy_artifacts"])

	if rc.DryRun {
		return true, fmt.Sprintf("would dispatch downstream job %s", jobName), nil
	}

	build, err := rc.Downstream.Invoke(ctx, jobName, params)
	if err != nil {
		return false, "", fmt.Errorf("dispatch downstream job %s: %w", jobName, err)
	}

	if !wait {
		return true, fmt.Sprintf("dispatched downstream job %s (not waiting)", jobName), nil
	}

	cancel := make(chan struct{})
	stop := context.AfterFunc(ctx, func() { close(cancel) })
	defer stop()

	ok, _, err := build.Wait(ctx, cancel)
	if err != nil {
		return false, "", fmt.Errorf("downstream job %s: %w", jobName, err)
	}

	detail := fmt.Sprintf("downstream job %s succeeded", jobName)
	if !ok {
		detail = fmt.Sprintf("downstream job %s failed", jobName)
	}

	if hasCopyArtifacts {
		saved, copyErr := copyDownstreamArtifacts(ctx, build, rc, jobName, copyArtifacts)
		if copyErr != nil {
			return false, "", copyErr
		}
		if len(saved) == 0 && !copyArtifacts.optional {
			return false, "", fmt.Errorf("copy artifacts from downstream job %s: no artifacts matched", jobName)
		}
		detail = fmt.Sprintf("%s, copied %d artifact(s)", detail, len(saved))
	}

	if !ok && !propagate {
		return true, fmt.Sprintf("%s (not propagated)", detail), nil
	}
	return ok, detail, nil
}
