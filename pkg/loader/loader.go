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

// Package loader implements the Settings Loader of spec.md §4.1: derive
// the pipeline YAML's repo-relative path from the job name, clone the
// settings repo, read the file and parse it. The filesystem is
// abstracted behind spf13/afero the way the teacher isolates
// filesystem access in its reaper/archive code, so tests exercise the
// path-derivation and parse logic against an in-memory tree without
// invoking go-git.
package loader

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/tool/git"
	"github.com/pipelinecore/settings-engine/pkg/tool/log"
)

// Stage identifies which part of the load pipeline produced a LoaderError.
type Stage string

const (
	StageClone Stage = "clone"
	StageRead  Stage = "read"
	StageParse Stage = "parse"
)

// LoaderError reports the stage a Load failure occurred at, matching
// spec.md §7's requirement that loader failures name a distinct
// failure class from validation failures.
type LoaderError struct {
	Stage Stage
	Err   error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("settings loader (%s): %v", e.Stage, e.Err)
}

func (e *LoaderError) Unwrap() error { return e.Err }

// Cloner abstracts the actual git checkout so tests can substitute a
// no-op that just seeds fs directly.
type Cloner interface {
	Clone(dir, url, branch string) error
}

// GitCloner is the production Cloner backed by pkg/tool/git.
type GitCloner struct{}

func (GitCloner) Clone(dir, url, branch string) error {
	return git.PlainCloneInto(dir, git.CloneOptions{URL: url, Branch: branch})
}

// Loader resolves a job name to a PipelineSettings document.
type Loader struct {
	Fs             afero.Fs
	Cloner         Cloner
	RepoURL        string
	Branch         string
	RelativePrefix string
	NameStrip      []*regexp.Regexp
}

// New builds a production Loader backed by the real OS filesystem and
// a go-git clone.
func New(repoURL, branch, relativePrefix string, nameStripPatterns []string) *Loader {
	var patterns []*regexp.Regexp
	for _, p := range nameStripPatterns {
		if re, err := regexp.Compile(p); err == nil {
			patterns = append(patterns, re)
		}
	}
	return &Loader{
		Fs:             afero.NewOsFs(),
		Cloner:         GitCloner{},
		RepoURL:        repoURL,
		Branch:         branch,
		RelativePrefix: relativePrefix,
		NameStrip:      patterns,
	}
}

// RelativePath derives the "<prefix>/<name>.yaml" path spec.md §4.1/§6
// describes: every configured strip pattern is removed from jobName,
// the remainder is folded to kebab-case (so "Build And Deploy" and
// "BuildAndDeploy" both resolve to the same file), and joined under
// RelativePrefix.
func (l *Loader) RelativePath(jobName string) string {
	name := jobName
	for _, re := range l.NameStrip {
		name = re.ReplaceAllString(name, "")
	}
	name = strings.Trim(name, "-_")
	return path.Join(l.RelativePrefix, strcase.ToKebab(name)+".yaml")
}

// Load clones RepoURL at Branch into a fresh temp directory, reads the
// file RelativePath(jobName) resolves to, and parses it into a
// PipelineSettings.
func (l *Loader) Load(jobName string) (*model.PipelineSettings, error) {
	dir, err := afero.TempDir(l.Fs, "", "settings-checkout")
	if err != nil {
		return nil, &LoaderError{Stage: StageClone, Err: err}
	}
	defer func() {
		_ = l.Fs.RemoveAll(dir)
	}()

	if err := l.Cloner.Clone(dir, l.RepoURL, l.Branch); err != nil {
		return nil, &LoaderError{Stage: StageClone, Err: err}
	}

	relPath := l.RelativePath(jobName)
	fullPath := path.Join(dir, relPath)
	log.Debugf("settings loader: resolved %q to %s", jobName, relPath)

	raw, err := afero.ReadFile(l.Fs, fullPath)
	if err != nil {
		return nil, &LoaderError{Stage: StageRead, Err: err}
	}

	var settings model.PipelineSettings
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return nil, &LoaderError{Stage: StageParse, Err: err}
	}

	return &settings, nil
}

// LoadFromDisk skips the clone step entirely (used by --check-only
// runs against a working copy already on disk).
func LoadFromDisk(fs afero.Fs, fullPath string) (*model.PipelineSettings, error) {
	raw, err := afero.ReadFile(fs, fullPath)
	if err != nil {
		return nil, &LoaderError{Stage: StageRead, Err: err}
	}
	var settings model.PipelineSettings
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return nil, &LoaderError{Stage: StageParse, Err: err}
	}
	return &settings, nil
}
