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

package noderegistry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelinecore/settings-engine/pkg/model"
)

func fixtureHosts() []model.Host {
	return []model.Host{
		{Name: "web-01", Labels: []string{"ansible210", "web"}},
		{Name: "web-02", Labels: []string{"ansible210", "web"}},
		{Name: "db-01", Labels: []string{"db"}},
	}
}

func TestRegistry_ResolveByExactName(t *testing.T) {
	assert := assert.New(t)

	r := New(StaticHostSource{Hosts: fixtureHosts()})
	assert.NoError(r.Refresh())

	hosts, err := r.Resolve("web-01", false)
	assert.NoError(err)
	assert.Len(hosts, 1)
	assert.Equal("web-01", hosts[0].Name)
}

func TestRegistry_ResolveByGlobName(t *testing.T) {
	assert := assert.New(t)

	r := New(StaticHostSource{Hosts: fixtureHosts()})
	assert.NoError(r.Refresh())

	hosts, err := r.Resolve("web-*", false)
	assert.NoError(err)
	assert.Len(hosts, 1, "name resolution returns the first match only")
}

func TestRegistry_ResolveByLabelReturnsAllMatches(t *testing.T) {
	assert := assert.New(t)

	r := New(StaticHostSource{Hosts: fixtureHosts()})
	assert.NoError(r.Refresh())

	hosts, err := r.Resolve("web", true)
	assert.NoError(err)
	assert.Len(hosts, 2)
}

func TestRegistry_ResolveByLabelRegex(t *testing.T) {
	assert := assert.New(t)

	r := New(StaticHostSource{Hosts: fixtureHosts()})
	assert.NoError(r.Refresh())

	hosts, err := r.Resolve("^ansible2[0-9]+$", true)
	assert.NoError(err)
	assert.Len(hosts, 2)
}

func TestRegistry_ResolveUnknownFails(t *testing.T) {
	assert := assert.New(t)

	r := New(StaticHostSource{Hosts: fixtureHosts()})
	assert.NoError(r.Refresh())

	_, err := r.Resolve("nope", false)
	assert.Error(err)
}

func TestRegistry_StartAutoRefreshRejectsBadSchedule(t *testing.T) {
	assert := assert.New(t)

	r := New(StaticHostSource{Hosts: fixtureHosts()})
	_, err := r.StartAutoRefresh("not a schedule")
	assert.Error(err)
}

func TestRegistry_StartAutoRefreshRunsAndStops(t *testing.T) {
	assert := assert.New(t)

	r := New(StaticHostSource{Hosts: fixtureHosts()})
	stop, err := r.StartAutoRefresh("@every 1h")
	assert.NoError(err)
	stop()
}
