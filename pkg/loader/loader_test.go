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

package loader

import (
	"errors"
	"path"
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

const fixtureYAML = `
parameters:
  required:
    - name: BRANCH
      type: string
stages:
  - name: build
    actions: []
`

type fakeCloner struct {
	fs      afero.Fs
	seed    map[string]string
	cloneErr error
}

func (f *fakeCloner) Clone(dir, url, branch string) error {
	if f.cloneErr != nil {
		return f.cloneErr
	}
	for rel, content := range f.seed {
		full := path.Join(dir, rel)
		if err := f.fs.MkdirAll(path.Dir(full), 0o755); err != nil {
			return err
		}
		if err := afero.WriteFile(f.fs, full, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func newTestLoader(seed map[string]string) *Loader {
	fs := afero.NewMemMapFs()
	strip := []*regexp.Regexp{regexp.MustCompile(`^job-`), regexp.MustCompile(`-pipeline$`)}
	return &Loader{
		Fs:             fs,
		Cloner:         &fakeCloner{fs: fs, seed: seed},
		RepoURL:        "https://example.invalid/settings.git",
		Branch:         "main",
		RelativePrefix: "pipelines",
		NameStrip:      strip,
	}
}

func TestLoader_RelativePathStripsAndKebabCases(t *testing.T) {
	l := newTestLoader(nil)
	assert.Equal(t, "pipelines/widget.yaml", l.RelativePath("job-Widget-pipeline"))
}

func TestLoader_RelativePathFoldsCamelCaseAndSpaces(t *testing.T) {
	l := newTestLoader(nil)
	assert.Equal(t, "pipelines/build-and-deploy.yaml", l.RelativePath("job-BuildAndDeploy-pipeline"))
	assert.Equal(t, "pipelines/build-and-deploy.yaml", l.RelativePath("job-Build And Deploy-pipeline"))
}

func TestLoader_LoadParsesFixture(t *testing.T) {
	assert := assert.New(t)

	l := newTestLoader(map[string]string{
		"pipelines/widget.yaml": fixtureYAML,
	})

	settings, err := l.Load("job-widget-pipeline")
	assert.NoError(err)
	assert.Len(settings.Parameters.Required, 1)
	assert.Equal("BRANCH", settings.Parameters.Required[0].Name)
	assert.Len(settings.Stages, 1)
}

func TestLoader_LoadReportsCloneStage(t *testing.T) {
	assert := assert.New(t)

	fs := afero.NewMemMapFs()
	l := &Loader{
		Fs:      fs,
		Cloner:  &fakeCloner{fs: fs, cloneErr: errors.New("boom")},
		RepoURL: "https://example.invalid/settings.git",
	}

	_, err := l.Load("job-widget-pipeline")
	var lerr *LoaderError
	assert.ErrorAs(err, &lerr)
	assert.Equal(StageClone, lerr.Stage)
}

func TestLoader_LoadReportsReadStageWhenFileMissing(t *testing.T) {
	assert := assert.New(t)

	l := newTestLoader(nil)

	_, err := l.Load("job-missing-pipeline")
	var lerr *LoaderError
	assert.ErrorAs(err, &lerr)
	assert.Equal(StageRead, lerr.Stage)
}

func TestLoader_LoadReportsParseStageOnBadYAML(t *testing.T) {
	assert := assert.New(t)

	l := newTestLoader(map[string]string{
		"pipelines/widget.yaml": "not: [valid: yaml",
	})

	_, err := l.Load("job-widget-pipeline")
	var lerr *LoaderError
	assert.ErrorAs(err, &lerr)
	assert.Equal(StageParse, lerr.Stage)
}

func TestLoadFromDisk(t *testing.T) {
	assert := assert.New(t)

	fs := afero.NewMemMapFs()
	assert.NoError(afero.WriteFile(fs, "/work/widget.yaml", []byte(fixtureYAML), 0o644))

	settings, err := LoadFromDisk(fs, "/work/widget.yaml")
	assert.NoError(err)
	assert.Len(settings.Stages, 1)
}
