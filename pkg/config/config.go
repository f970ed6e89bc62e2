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

// Package config exposes the three/four load-time tunables of spec.md §6
// through viper, bound to environment variables under the JUWP_ prefix -
// the same viper.GetString(setting.ENVxxx) idiom the teacher uses in
// pkg/microservice/aslan/config.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pipelinecore/settings-engine/pkg/setting"
)

func init() {
	viper.SetEnvPrefix(setting.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(setting.ENVSettingsDefaultBranch, "main")
	viper.SetDefault(setting.ENVSettingsRelativePathPrefix, "pipelines")
	viper.SetDefault(setting.ENVNodeRegistryRefresh, "30s")
}

// SettingsRepoURL is the git remote the Loader clones to find the
// pipeline YAML.
func SettingsRepoURL() string {
	return viper.GetString(setting.ENVSettingsGitURL)
}

// SettingsDefaultBranch is used when a build does not override
// SETTINGS_GIT_BRANCH.
func SettingsDefaultBranch() string {
	return viper.GetString(setting.ENVSettingsDefaultBranch)
}

// SettingsRelativePathPrefix is prepended to the derived "<name>.yaml"
// filename (spec.md §4.1, §6).
func SettingsRelativePathPrefix() string {
	return viper.GetString(setting.ENVSettingsRelativePathPrefix)
}

// NodeRegistryRefreshInterval returns the configured Node Registry
// refresh interval (default 30s). The CLI does not read it: it
// refreshes the registry once at start-up and starts no schedule.
func NodeRegistryRefreshInterval() time.Duration {
	raw := viper.GetString(setting.ENVNodeRegistryRefresh)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// PipelineNameRegexReplace is the ordered list of regex patterns
// stripped from the job name to derive the YAML filename (spec.md §6).
// It reads the PIPELINE_NAME_REGEX_REPLACE key (whitespace-separated
// patterns, so JUWP_PIPELINE_NAME_REGEX_REPLACE in the environment) and
// returns the built-in default list when none is configured; the CLI
// passes the result to loader.New.
func PipelineNameRegexReplace() []string {
	if v := viper.GetStringSlice("PIPELINE_NAME_REGEX_REPLACE"); len(v) > 0 {
		return v
	}
	return []string{"^job-", "-pipeline$", "-build$"}
}
