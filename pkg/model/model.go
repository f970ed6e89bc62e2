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

// Package model holds the data shapes of spec.md §3, tagged for
// gopkg.in/yaml.v3 decoding the same way commonmodels tags its structs
// for the mongo driver in the teacher repo: every exported field
// carries a tag, optionals carry "omitempty".
package model

// ParamType enumerates the five parameter types spec.md §3 allows.
type ParamType string

const (
	ParamTypeString   ParamType = "string"
	ParamTypeText     ParamType = "text"
	ParamTypePassword ParamType = "password"
	ParamTypeBoolean  ParamType = "boolean"
	ParamTypeChoice   ParamType = "choice"
)

// OnEmpty is the sub-object controlling fallback assignment for a
// required parameter left unset by the build.
type OnEmpty struct {
	Assign string `yaml:"assign,omitempty" json:"assign,omitempty"`
	Fail   *bool  `yaml:"fail,omitempty" json:"fail,omitempty"`
	Warn   bool   `yaml:"warn,omitempty" json:"warn,omitempty"`
}

// FailOrDefault returns the effective `fail` policy: true unless the
// schema author explicitly set fail:false.
func (o *OnEmpty) FailOrDefault() bool {
	if o == nil || o.Fail == nil {
		return true
	}
	return *o.Fail
}

// RegexReplace is the sub-object of a Param controlling in-place regex
// rewriting of its resolved value.
type RegexReplace struct {
	Regex interface{} `yaml:"regex" json:"regex"`
	To    string      `yaml:"to,omitempty" json:"to,omitempty"`
}

// Param is one entry of parameters.required or parameters.optional.
//
// Default, Choices and Regex use interface{} because the raw YAML value
// must be inspected (via pkg/coerce) before its coerced Go type is
// known; the validator is the only place that commits to a shape. Type
// is a plain string, empty when the key is absent.
type Param struct {
	Name          string       `yaml:"name" json:"name"`
	Type          string       `yaml:"type,omitempty" json:"type,omitempty"`
	Default       interface{}  `yaml:"default,omitempty" json:"default,omitempty"`
	Choices       interface{}  `yaml:"choices,omitempty" json:"choices,omitempty"`
	Description   string       `yaml:"description,omitempty" json:"description,omitempty"`
	Trim          bool         `yaml:"trim,omitempty" json:"trim,omitempty"`
	Regex         interface{}  `yaml:"regex,omitempty" json:"regex,omitempty"`
	RegexReplace  *RegexReplace `yaml:"regex_replace,omitempty" json:"regex_replace,omitempty"`
	OnEmpty       *OnEmpty     `yaml:"on_empty,omitempty" json:"on_empty,omitempty"`
}

// NodeSpec is the typed form of the map an action's `node` key may
// hold. Action.Node keeps the raw decoded YAML value and is not decoded
// into a NodeSpec; NodeSpec has no custom YAML decoding, so a literal
// string does not decode into Name. A nil or empty NodeSpec means "any
// available host" (Any() is true).
type NodeSpec struct {
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Label   string `yaml:"label,omitempty" json:"label,omitempty"`
	Pattern bool   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// Any reports whether the node spec resolves to "any available host".
func (n *NodeSpec) Any() bool {
	return n == nil || (n.Name == "" && n.Label == "")
}

// ActionLink is a map identified by the presence of exactly one
// discriminator key (spec.md §3). Raw is the decoded YAML map;
// ResolveActionLink fills Discriminator with the first present
// discriminator and AllDiscriminators with every one that was present.
type ActionLink struct {
	Raw             map[string]interface{} `yaml:"-" json:"-"`
	Discriminator   string                  `yaml:"-" json:"discriminator"`
	AllDiscriminators []string              `yaml:"-" json:"-"`
}

// DiscriminatorPriority is the ordered set spec.md §3 defines for
// resolving an ActionLink to a single operation when more than one
// discriminator key is present.
var DiscriminatorPriority = []string{
	"repo_url", "collections", "playbook", "pipeline",
	"stash", "unstash", "artifacts", "script", "report",
}

// Action is one entry of a Stage's actions list.
type Action struct {
	Action         string      `yaml:"action" json:"action"`
	Node           interface{} `yaml:"node,omitempty" json:"node,omitempty"`
	Dir            string      `yaml:"dir,omitempty" json:"dir,omitempty"`
	BuildName      string      `yaml:"build_name,omitempty" json:"build_name,omitempty"`
	BeforeMessage  string      `yaml:"before_message,omitempty" json:"before_message,omitempty"`
	AfterMessage   string      `yaml:"after_message,omitempty" json:"after_message,omitempty"`
	SuccessMessage string      `yaml:"success_message,omitempty" json:"success_message,omitempty"`
	FailMessage    string      `yaml:"fail_message,omitempty" json:"fail_message,omitempty"`
	IgnoreFail     bool        `yaml:"ignore_fail,omitempty" json:"ignore_fail,omitempty"`
	StopOnFail     bool        `yaml:"stop_on_fail,omitempty" json:"stop_on_fail,omitempty"`
	SuccessOnly    bool        `yaml:"success_only,omitempty" json:"success_only,omitempty"`
	FailOnly       bool        `yaml:"fail_only,omitempty" json:"fail_only,omitempty"`
}

// Stage is an ordered group of actions.
type Stage struct {
	Name     string   `yaml:"name" json:"name"`
	Parallel bool     `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	Actions  []Action `yaml:"actions" json:"actions"`
}

// ScriptBody is a named entry of the top-level `scripts` lookup table.
type ScriptBody struct {
	Text string `yaml:"text" json:"text"`
}

// Parameters is the required/optional split under the top-level
// `parameters` key.
type Parameters struct {
	Required []Param `yaml:"required,omitempty" json:"required,omitempty"`
	Optional []Param `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// PipelineSettings is the full tree parsed from the pipeline YAML
// (spec.md §3).
type PipelineSettings struct {
	Parameters   Parameters                `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Stages       []Stage                   `yaml:"stages" json:"stages"`
	Actions      map[string]map[string]interface{} `yaml:"actions,omitempty" json:"actions,omitempty"`
	Playbooks    map[string]string         `yaml:"playbooks,omitempty" json:"playbooks,omitempty"`
	Inventories  map[string]string         `yaml:"inventories,omitempty" json:"inventories,omitempty"`
	Scripts      map[string]ScriptBody     `yaml:"scripts,omitempty" json:"scripts,omitempty"`
}

// ResolveActionLink looks up an action-link by name and reduces its raw
// map to the single first-present discriminator per
// model.DiscriminatorPriority, per spec.md §3 ("if more than one is
// present only the first ... is executed and a warning is emitted").
func (p *PipelineSettings) ResolveActionLink(name string) (*ActionLink, []string, bool) {
	raw, ok := p.Actions[name]
	if !ok {
		return nil, nil, false
	}
	var present []string
	for _, d := range DiscriminatorPriority {
		if _, ok := raw[d]; ok {
			present = append(present, d)
		}
	}
	link := &ActionLink{Raw: raw, AllDiscriminators: present}
	if len(present) > 0 {
		link.Discriminator = present[0]
	}
	return link, present, true
}

// Host is a live worker node as reported by a HostSource.
type Host struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
}

// BuildResult is one of the four exit states spec.md §6 defines.
type BuildResult string

const (
	ResultParametersUpdated BuildResult = "PARAMETERS_UPDATED"
	ResultDryRunCompleted   BuildResult = "DRY_RUN_COMPLETED"
	ResultSucceeded         BuildResult = "SUCCEEDED"
	ResultFailed            BuildResult = "FAILED"
)
