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

// Package severity is the single place spec.md §7 encodes debug/warning/error
// severity: "A single wrapper applies these rules uniformly and is the
// only place severity is encoded."
package severity

import (
	"github.com/pkg/errors"

	"github.com/pipelinecore/settings-engine/pkg/tool/log"
)

type Level int

const (
	Debug Level = iota
	Warning
	Error
)

// Entry is one severity-tagged diagnostic, accumulated by the
// validator (check mode) or attached to an action outcome (execute
// mode).
type Entry struct {
	Level   Level
	Message string
}

func (e Entry) String() string { return e.Message }

// Report logs an entry at the level implied by its severity and
// returns whether it should flip a pass/fail result to false
// (spec.md §7: only Error does).
func Report(lvl Level, debugMode bool, format string, args ...interface{}) (Entry, bool) {
	msg := errors.Errorf(format, args...).Error()
	switch lvl {
	case Debug:
		if debugMode {
			log.Debugf("%s", msg)
		}
		return Entry{Level: lvl, Message: msg}, false
	case Warning:
		log.Warnf("%s", msg)
		return Entry{Level: lvl, Message: msg}, false
	default:
		log.Errorf("%s", msg)
		return Entry{Level: Error, Message: msg}, true
	}
}
