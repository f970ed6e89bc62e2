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

// Package dispatcher implements the Action Dispatcher of spec.md §4.8:
// the nine typed operations behind one Operation interface, registered
// by discriminator the way the teacher's jobcontroller.initJobCtl
// switch resolves a JobTask's type to a JobCtl implementation.
package dispatcher

import (
	"sync"

	"github.com/spf13/afero"

	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/noderegistry"
	"github.com/pipelinecore/settings-engine/pkg/remoterunner"
	"github.com/pipelinecore/settings-engine/pkg/tool/jenkins"
)

// Env is the mutex-guarded run environment + built-ins pair of spec.md
// §9's "Global mutable state", shared by every concurrently running
// action within a run.
type Env struct {
	mu       sync.RWMutex
	env      map[string]string
	builtins map[string]interface{}
}

func NewEnv(initial map[string]string) *Env {
	env := make(map[string]string, len(initial))
	for k, v := range initial {
		env[k] = v
	}
	return &Env{env: env, builtins: make(map[string]interface{})}
}

func (e *Env) Snapshot() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.env))
	for k, v := range e.env {
		out[k] = v
	}
	return out
}

func (e *Env) Get(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.env[key]
	return v, ok
}

func (e *Env) Set(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.env[key] = value
}

func (e *Env) MergeEnv(m map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range m {
		e.env[k] = v
	}
}

func (e *Env) SetBuiltin(key string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.builtins[key] = value
}

func (e *Env) GetBuiltin(key string) (interface{}, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.builtins[key]
	return v, ok
}

// RunContext is the value threaded through the walker and dispatcher
// for one action invocation: the run's shared Env, a per-action
// working directory (never a process os.Chdir, per SPEC_FULL.md §5),
// the workspace filesystem, and the run's collaborators.
type RunContext struct {
	Env        *Env
	Dir        string
	WorkspaceRoot string
	Fs         afero.Fs
	Settings   *model.PipelineSettings
	Nodes      *noderegistry.Registry
	Runner     remoterunner.RemoteRunner
	Downstream jenkins.DownstreamJob
	DebugMode  bool
	DryRun     bool
	Installation string
}

// WithDir returns a shallow copy of rc scoped to a new directory, the
// way a `dir:` action key rescopes only that action's relative paths.
func (rc *RunContext) WithDir(dir string) *RunContext {
	clone := *rc
	clone.Dir = dir
	return &clone
}
