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

	"github.com/pipelinecore/settings-engine/pkg/tool/jenkins"
)

type fakeRunner struct {
	collections []string
	playbooks   []string
	scripts     []string
	failNext    bool
	scriptOut   string
}

func (f *fakeRunner) RunCollection(ctx context.Context, name, installationName string) (string, error) {
	f.collections = append(f.collections, name)
	return "", nil
}

func (f *fakeRunner) RunPlaybook(ctx context.Context, playbookText, inventoryText, installationName string) (string, error) {
	f.playbooks = append(f.playbooks, playbookText)
	return "", nil
}

func (f *fakeRunner) RunScript(ctx context.Context, script, node string) (string, error) {
	f.scripts = append(f.scripts, script)
	if f.failNext {
		return "", context.DeadlineExceeded
	}
	if f.scriptOut != "" {
		return f.scriptOut, nil
	}
	return "ok", nil
}

type fakeBuild struct {
	pass      bool
	out       string
	err       error
	artifacts []jenkins.Artifact
	fetchErr  error
}

func (b *fakeBuild) Wait(ctx context.Context, cancel <-chan struct{}) (bool, string, error) {
	return b.pass, b.out, b.err
}

func (b *fakeBuild) FetchArtifacts(ctx context.Context, stageDir string) ([]jenkins.Artifact, error) {
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return b.artifacts, nil
}

type fakeDownstream struct {
	pass      bool
	invokeErr error
	invoked   []string
	build     *fakeBuild
}

func (f *fakeDownstream) Invoke(ctx context.Context, jobName string, params map[string]string) (jenkins.Build, error) {
	f.invoked = append(f.invoked, jobName)
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	if f.build != nil {
		return f.build, nil
	}
	return &fakeBuild{pass: f.pass}, nil
}
