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

// Package report implements the run-scoped BuiltIns context of
// spec.md §3/§9: the two report tables plus a generic value store,
// modeled as one mutex-guarded struct threaded by pointer from the CLI
// through the walker rather than package globals (spec.md §9
// "Global mutable state ... do not use process-level globals").
package report

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jinzhu/copier"
)

// ActionRow is one row of the per-action report table.
type ActionRow struct {
	StageIndex string // "<stage>[<index>]"
	Passed     bool
	Detail     string // "<link>: <discriminator>"
}

// StageRow is one row of the per-stage report table.
type StageRow struct {
	Stage  string
	Passed bool
	Detail string // "<n> action(s)[ in parallel]"
}

// BuiltIns is the run-scoped mutable map of spec.md §3, holding the two
// report tables, their rendered string forms, and a generic keyed
// value store. The remote-runner installation name and the current
// build result are not kept here: they live on dispatcher.RunContext
// and in the dispatcher.Env built-ins.
type BuiltIns struct {
	mu         sync.RWMutex
	actionRows []ActionRow
	stageRows  []StageRow
	values     map[string]interface{}
}

// New builds an empty run context.
func New() *BuiltIns {
	return &BuiltIns{values: make(map[string]interface{})}
}

// AddAction appends a row to the action-report table.
func (b *BuiltIns) AddAction(row ActionRow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actionRows = append(b.actionRows, row)
}

// AddStage appends a row to the stage-report table.
func (b *BuiltIns) AddStage(row StageRow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stageRows = append(b.stageRows, row)
}

// ActionRows returns a defensive copy of the action-report table.
func (b *BuiltIns) ActionRows() []ActionRow {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]ActionRow, len(b.actionRows))
	_ = copier.Copy(&out, &b.actionRows)
	return out
}

// StageRows returns a defensive copy of the stage-report table.
func (b *BuiltIns) StageRows() []StageRow {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]StageRow, len(b.stageRows))
	_ = copier.Copy(&out, &b.stageRows)
	return out
}

// Get/Set expose a generic run-scoped key/value store guarded by the
// same mutex as the report tables.
func (b *BuiltIns) Get(key string) (interface{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok
}

func (b *BuiltIns) Set(key string, value interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
}

// RenderActionTable renders the action-report table's string form
// (multilineReportMap in spec.md's terms).
func (b *BuiltIns) RenderActionTable() string {
	rows := b.ActionRows()
	var sb strings.Builder
	for _, r := range rows {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&sb, "%-24s %-4s %s\n", r.StageIndex, status, r.Detail)
	}
	return sb.String()
}

// RenderStageTable renders the stage-report table's string form
// (multilineReportStagesMap in spec.md's terms).
func (b *BuiltIns) RenderStageTable() string {
	rows := b.StageRows()
	var sb strings.Builder
	for _, r := range rows {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&sb, "%-24s %-4s %s\n", r.Stage, status, r.Detail)
	}
	return sb.String()
}
