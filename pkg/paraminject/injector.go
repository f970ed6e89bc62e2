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

// Package paraminject implements the Parameter Injector of spec.md
// §4.3: it reconciles the validated schema against the build's
// currently declared parameters and, on mismatch, installs the new
// declaration through a BuildParameterSink and terminates the build
// with PARAMETERS_UPDATED.
package paraminject

import (
	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/tool/log"
)

// BuildParameterSink is the external collaborator that installs a new
// build-parameter declaration on the CI host. spec.md places the
// actual CI-host parameter form outside this module's scope (§1); this
// interface is the contract, exactly as spec.md §6 treats every other
// collaborator.
type BuildParameterSink interface {
	Declare(params []*model.Param) error
}

// NoopSink is used by tests and by check-only runs.
type NoopSink struct{}

func (NoopSink) Declare(params []*model.Param) error { return nil }

// LoggingSink prints the derived declaration through the structured
// logger; used by the CLI when no real CI-host sink is configured.
type LoggingSink struct{}

func (LoggingSink) Declare(params []*model.Param) error {
	for _, p := range params {
		log.Infof("declare build parameter: %s (%s)", p.Name, p.Type)
	}
	return nil
}

// Result mirrors spec.md §4.3's "(needs_update, ok)".
type Result struct {
	NeedsUpdate bool
	Terminated  bool
}

// Reconcile compares schema (already validated) against the names
// currently declared on the build. When needsUpdate is true, or when
// forceUpdate (the UPDATE_PARAMETERS build flag) is set, the schema is
// installed through sink and the build is terminated with a neutral
// result; in dryRun the installation step is skipped but termination
// still happens (spec.md §4.3 "In dry-run the installation step is
// skipped but the termination message is emitted").
func Reconcile(schema []*model.Param, currentParams map[string]string, forceUpdate, dryRun bool, sink BuildParameterSink) Result {
	needsUpdate := false
	for _, p := range schema {
		if _, ok := currentParams[p.Name]; !ok {
			needsUpdate = true
			break
		}
	}

	if !needsUpdate && !forceUpdate {
		return Result{NeedsUpdate: false, Terminated: false}
	}

	if !dryRun {
		if err := sink.Declare(schema); err != nil {
			log.Errorf("failed to declare updated build parameters: %v", err)
		}
	}

	log.Infof("parameters updated, terminating build so the operator can re-run with the new parameter form")
	return Result{NeedsUpdate: needsUpdate, Terminated: true}
}
