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

// Package setting holds the environment-variable names read by pkg/config,
// mirroring the ENVxxx constant block the teacher keeps next to its viper
// accessors.
package setting

const (
	ENVSettingsGitURL            = "SETTINGS_GIT_URL"
	ENVSettingsDefaultBranch     = "SETTINGS_DEFAULT_BRANCH"
	ENVSettingsRelativePathPrefix = "SETTINGS_RELATIVE_PATH_PREFIX"
	ENVNodeRegistryRefresh       = "NODE_REGISTRY_REFRESH_INTERVAL"
)

// EnvPrefix is the uniform prefix spec.md §6 requires ("JUWP_" in the
// original system: "each is overridable by environment variable,
// e.g. JUWP_SETTINGS_GIT_URL").
const EnvPrefix = "JUWP"

// Built-in parameter names that spec.md §6 says the core always adds
// and the user cannot remove.
const (
	ParamUpdateParameters = "UPDATE_PARAMETERS"
	ParamSettingsBranch   = "SETTINGS_GIT_BRANCH"
	ParamNodeName         = "NODE_NAME"
	ParamNodeTag          = "NODE_TAG"
	ParamDryRun           = "DRY_RUN"
	ParamDebugMode        = "DEBUG_MODE"
)

// DefaultNodeTag is the default value of the NODE_TAG built-in parameter.
const DefaultNodeTag = "ansible210"

// SettingsBranchRegex constrains SETTINGS_GIT_BRANCH to the characters
// git allows in a ref name, rejecting the shell-metacharacter-bearing
// values a hand-edited branch override could otherwise inject into the
// clone step.
const SettingsBranchRegex = `^[A-Za-z0-9_./-]+$`
