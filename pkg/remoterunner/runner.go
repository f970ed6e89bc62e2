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

// Package remoterunner implements the Remote Runner collaborator of
// spec.md §4.6/§6, invoked by the collections/playbook/script
// discriminators. No SSH/Ansible client library appears anywhere in
// the retrieval pack (grounding gap noted in DESIGN.md), so the
// default implementation shells out the way the teacher's
// pkg/util/exec.GetCmdStdOut does, generalized to accept a context for
// cancellation the way job_jenkins.go's Run does for its poll loop.
package remoterunner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pipelinecore/settings-engine/pkg/tool/log"
)

// RemoteRunner is the collaborator that executes ansible collections,
// ad-hoc playbooks and inline shell against a resolved host set.
type RemoteRunner interface {
	RunCollection(ctx context.Context, name, installationName string) (string, error)
	RunPlaybook(ctx context.Context, playbookText, inventoryText, installationName string) (string, error)
	RunScript(ctx context.Context, script, node string) (string, error)
}

// ExecRunner is the os/exec-backed default: it shells the given text
// out to ansible-playbook/ansible-galaxy/sh on the local control node.
// A production deployment behind a real SSH fleet would satisfy
// RemoteRunner some other way; ExecRunner is the fallback spec.md §6
// requires every collaborator interface to have.
type ExecRunner struct {
	// CommandFunc lets tests substitute a fake without touching PATH.
	CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{CommandFunc: exec.CommandContext}
}

func (r *ExecRunner) RunCollection(ctx context.Context, name, installationName string) (string, error) {
	log.Infof("running collection %s via installation %s", name, installationName)
	return r.run(ctx, "ansible-galaxy", "collection", "install", name)
}

func (r *ExecRunner) RunPlaybook(ctx context.Context, playbookText, inventoryText, installationName string) (string, error) {
	log.Infof("running playbook via installation %s", installationName)
	return r.runStdin(ctx, playbookText, "ansible-playbook", "-i", "/dev/stdin", "/dev/stdin")
}

func (r *ExecRunner) RunScript(ctx context.Context, script, node string) (string, error) {
	log.Infof("running script on node %s", node)
	return r.runStdin(ctx, script, "/bin/sh")
}

func (r *ExecRunner) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := r.commandFunc()(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimRight(out.String(), "\n"), nil
}

func (r *ExecRunner) runStdin(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	cmd := r.commandFunc()(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimRight(out.String(), "\n"), nil
}

func (r *ExecRunner) commandFunc() func(ctx context.Context, name string, args ...string) *exec.Cmd {
	if r.CommandFunc != nil {
		return r.CommandFunc
	}
	return exec.CommandContext
}
