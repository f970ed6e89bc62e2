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

// Command pipelinectl is the CI-host-facing entrypoint: it drives the
// full pipeline settings evaluation described end to end in spec.md
// §2, the same way the teacher wraps its workflow controller behind a
// thin cobra.Command in cmd/aslan.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pipelinecore/settings-engine/pkg/config"
	"github.com/pipelinecore/settings-engine/pkg/dispatcher"
	"github.com/pipelinecore/settings-engine/pkg/loader"
	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/noderegistry"
	"github.com/pipelinecore/settings-engine/pkg/paraminject"
	"github.com/pipelinecore/settings-engine/pkg/paramresolve"
	"github.com/pipelinecore/settings-engine/pkg/paramschema"
	"github.com/pipelinecore/settings-engine/pkg/remoterunner"
	"github.com/pipelinecore/settings-engine/pkg/report"
	"github.com/pipelinecore/settings-engine/pkg/setting"
	"github.com/pipelinecore/settings-engine/pkg/tool/jenkins"
	"github.com/pipelinecore/settings-engine/pkg/tool/log"
	"github.com/pipelinecore/settings-engine/pkg/walker"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pipelinectl",
		Short: "Evaluate a declarative pipeline settings document for one build",
	}
	root.AddCommand(newRunCmd())
	return root
}

type runFlags struct {
	jobName    string
	branch     string
	checkOnly  bool
	dryRun     bool
	debugMode  bool
	nodeName   string
	nodeTag    string
	updateOnly bool
	settingsFile string
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load, validate and execute a build's pipeline settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.jobName, "job-name", "", "CI job name used to derive the settings file path (required)")
	cmd.Flags().StringVar(&f.branch, "branch", "", "settings repo branch override (defaults to "+setting.ENVSettingsDefaultBranch+")")
	cmd.Flags().BoolVar(&f.checkOnly, "check-only", false, "validate parameters and stop before dispatching any action")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "run the walker without invoking any external collaborator")
	cmd.Flags().BoolVar(&f.debugMode, "debug", false, "enable debug-severity logging and reporting")
	cmd.Flags().StringVar(&f.nodeName, "node-name", "", "value of the NODE_NAME built-in parameter")
	cmd.Flags().StringVar(&f.nodeTag, "node-tag", setting.DefaultNodeTag, "value of the NODE_TAG built-in parameter")
	cmd.Flags().BoolVar(&f.updateOnly, "update-parameters", false, "force a PARAMETERS_UPDATED termination regardless of drift")
	cmd.Flags().StringVar(&f.settingsFile, "settings-file", "", "read the pipeline settings from this path instead of cloning (used with --check-only)")
	_ = cmd.MarkFlagRequired("job-name")
	return cmd
}

func runPipeline(ctx context.Context, f *runFlags) error {
	log.Init(f.debugMode)

	runID := uuid.NewString()
	log.Infof("run %s: starting for job %q", runID, f.jobName)

	branch := f.branch
	if branch == "" {
		branch = config.SettingsDefaultBranch()
	}

	settings, err := loadSettings(f)
	if err != nil {
		log.Errorf("run %s: %v", runID, err)
		return exitAs(model.ResultFailed)
	}

	currentEnv := currentEnvironment()
	currentEnv[setting.ParamSettingsBranch] = branch
	currentEnv[setting.ParamNodeName] = f.nodeName
	currentEnv[setting.ParamNodeTag] = f.nodeTag
	currentEnv[setting.ParamDryRun] = strconv.FormatBool(f.dryRun)
	currentEnv[setting.ParamDebugMode] = strconv.FormatBool(f.debugMode)
	currentEnv[setting.ParamUpdateParameters] = strconv.FormatBool(f.updateOnly)

	builtins := builtinParams()
	schema := append(append([]*model.Param{}, paramSlice(settings.Parameters.Required)...), paramSlice(settings.Parameters.Optional)...)
	schema = append(schema, builtins...)

	validation := paramschema.Validate(schema)
	if !validation.OK {
		log.Errorf("run %s: parameter schema validation failed: %v", runID, validation.Errors)
		return exitAs(model.ResultFailed)
	}

	sink := paraminject.LoggingSink{}
	reconcile := paraminject.Reconcile(schema, currentEnv, f.updateOnly, f.dryRun, sink)
	if reconcile.Terminated {
		log.Infof("run %s: terminating with PARAMETERS_UPDATED", runID)
		return exitAs(model.ResultParametersUpdated)
	}

	resolved := paramresolve.Resolve(paramSlice(settings.Parameters.Required), append(paramSlice(settings.Parameters.Optional), builtins...), currentEnv, f.debugMode)
	if !resolved.OK {
		for _, r := range resolved.Reports {
			if !r.Pass {
				log.Errorf("run %s: %s", runID, r.Message)
			}
		}
		return exitAs(model.ResultFailed)
	}

	if f.checkOnly {
		if errs := walker.CheckStages(settings); len(errs) > 0 {
			for _, e := range errs {
				log.Errorf("run %s: %v", runID, e)
			}
			return exitAs(model.ResultFailed)
		}
		log.Infof("run %s: check-only run succeeded, %d parameter(s) resolved", runID, len(resolved.Env))
		return exitAs(model.ResultSucceeded)
	}

	rep := report.New()
	rc := buildRunContext(runID, resolved.Env, settings, f)

	result, err := walker.RunStages(ctx, settings, rc, rep, f.debugMode)
	fmt.Println(rep.RenderActionTable())
	fmt.Println(rep.RenderStageTable())
	if err != nil {
		log.Warnf("run %s: %v", runID, err)
	}

	if f.dryRun && result == model.ResultSucceeded {
		result = model.ResultDryRunCompleted
	}

	log.Infof("run %s: finished with %s", runID, result)
	return exitAs(result)
}

func loadSettings(f *runFlags) (*model.PipelineSettings, error) {
	if f.settingsFile != "" {
		return loader.LoadFromDisk(afero.NewOsFs(), f.settingsFile)
	}
	l := loader.New(config.SettingsRepoURL(), config.SettingsDefaultBranch(), config.SettingsRelativePathPrefix(), config.PipelineNameRegexReplace())
	if f.branch != "" {
		l.Branch = f.branch
	}
	return l.Load(f.jobName)
}

func buildRunContext(runID string, env map[string]string, settings *model.PipelineSettings, f *runFlags) *dispatcher.RunContext {
	workspaceRoot := "/tmp/pipelinectl-" + runID

	registry := noderegistry.New(noderegistry.StaticHostSource{})
	_ = registry.Refresh()

	var downstream jenkins.DownstreamJob
	if url := os.Getenv("JENKINS_URL"); url != "" {
		downstream = &jenkins.Client{
			URL:      url,
			Username: os.Getenv("JENKINS_USERNAME"),
			Password: os.Getenv("JENKINS_PASSWORD"),
		}
	}

	rc := &dispatcher.RunContext{
		Env:           dispatcher.NewEnv(env),
		Dir:           workspaceRoot,
		WorkspaceRoot: workspaceRoot,
		Fs:            afero.NewOsFs(),
		Settings:      settings,
		Nodes:         registry,
		Runner:        remoterunner.NewExecRunner(),
		Downstream:    downstream,
		DebugMode:     f.debugMode,
		DryRun:        f.dryRun,
	}
	for k, v := range env {
		rc.Env.Set(k, v)
	}
	return rc
}

// builtinParams is the six parameters spec.md §6 requires the core to
// always add to the schema, so the Injector/Resolver see them
// regardless of what the YAML document declares.
func builtinParams() []*model.Param {
	return []*model.Param{
		{Name: setting.ParamUpdateParameters, Type: "boolean", Default: false},
		{Name: setting.ParamSettingsBranch, Type: "string", Regex: setting.SettingsBranchRegex},
		{Name: setting.ParamNodeName, Type: "string"},
		{Name: setting.ParamNodeTag, Type: "string", Default: setting.DefaultNodeTag},
		{Name: setting.ParamDryRun, Type: "boolean", Default: false},
		{Name: setting.ParamDebugMode, Type: "boolean", Default: false},
	}
}

func paramSlice(params []model.Param) []*model.Param {
	out := make([]*model.Param, len(params))
	for i := range params {
		out[i] = &params[i]
	}
	return out
}

func currentEnvironment() map[string]string {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			out[parts[0]] = parts[1]
		}
	}
	return out
}

func exitAs(result model.BuildResult) error {
	if result == model.ResultFailed {
		return fmt.Errorf("build result: %s", result)
	}
	return nil
}
