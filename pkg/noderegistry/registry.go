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

// Package noderegistry implements the node registry of spec.md §4.6's
// "on:" host/label resolution, refreshed on a cron.ParseStandard
// schedule the way the teacher validates its own CronJob schedules
// (v2/pkg/tool/analysis/cronjob.go) — kept as a live background
// refresher here instead of one-shot validation, since this module
// needs a periodically-updated snapshot rather than a syntax check.
package noderegistry

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/tool/log"
)

// HostSource is the external collaborator that knows how to list the
// currently registered hosts; spec.md §1 places the CI-host node
// inventory outside this module's scope.
type HostSource interface {
	ListHosts() ([]model.Host, error)
}

// StaticHostSource serves a fixed host list; used by tests, by
// check-only runs and as a fallback when no dynamic source is wired.
type StaticHostSource struct {
	Hosts []model.Host
}

func (s StaticHostSource) ListHosts() ([]model.Host, error) {
	return s.Hosts, nil
}

// Registry holds the last-refreshed host snapshot and resolves
// on:/label: expressions against it.
type Registry struct {
	mu     sync.RWMutex
	hosts  []model.Host
	source HostSource
	cron   *cron.Cron
}

// New builds a registry over source without starting the periodic
// refresh; callers that only need one-shot resolution (tests,
// --check-only runs) can call Refresh directly.
func New(source HostSource) *Registry {
	return &Registry{source: source}
}

// Refresh reloads the host snapshot from source.
func (r *Registry) Refresh() error {
	hosts, err := r.source.ListHosts()
	if err != nil {
		return fmt.Errorf("refresh node registry: %w", err)
	}
	r.mu.Lock()
	r.hosts = hosts
	r.mu.Unlock()
	return nil
}

// StartAutoRefresh schedules Refresh on the given standard cron
// expression (e.g. "@every 30s") and returns a stop function. Refresh
// errors are logged, not surfaced, matching spec.md §4.6's "resolution
// failures never abort an unrelated stage".
func (r *Registry) StartAutoRefresh(schedule string) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := r.Refresh(); err != nil {
			log.Warnf("node registry refresh: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid node registry refresh schedule %q: %w", schedule, err)
	}
	c.Start()
	r.cron = c
	return func() { c.Stop() }, nil
}

// Resolve implements spec.md §4.6's node resolution. When isLabel is
// true, nameOrLabel is matched (glob then regex) against every host's
// labels and every host with at least one matching label is returned,
// in source order; otherwise it is matched as a literal host name,
// then a glob, then a regex against every host's name, returning only
// the first match as a single-host slice.
func (r *Registry) Resolve(nameOrLabel string, isLabel bool) ([]model.Host, error) {
	r.mu.RLock()
	hosts := append([]model.Host{}, r.hosts...)
	r.mu.RUnlock()

	if isLabel {
		var matched []model.Host
		for _, h := range hosts {
			for _, l := range h.Labels {
				if match(nameOrLabel, l) {
					matched = append(matched, h)
					break
				}
			}
		}
		if len(matched) == 0 {
			return nil, fmt.Errorf("no host matches label %q", nameOrLabel)
		}
		return matched, nil
	}

	for _, h := range hosts {
		if h.Name == nameOrLabel {
			return []model.Host{h}, nil
		}
	}
	for _, h := range hosts {
		if match(nameOrLabel, h.Name) {
			return []model.Host{h}, nil
		}
	}
	return nil, fmt.Errorf("no host matches %q", nameOrLabel)
}

// match tries a glob first (spec.md §4.6 lists shell-glob node
// selectors as the common case), falling back to a regex so
// operators can write "^web-\\d+$" style selectors too.
func match(pattern, candidate string) bool {
	if ok, err := filepath.Match(pattern, candidate); err == nil && ok {
		return true
	}
	if re, err := regexp.Compile(pattern); err == nil {
		return re.MatchString(candidate)
	}
	return false
}
