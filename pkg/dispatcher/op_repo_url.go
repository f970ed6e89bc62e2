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

package dispatcher

import (
	"context"
	"fmt"
	"path"

	"github.com/pipelinecore/settings-engine/pkg/coerce"
	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/tool/git"
	"github.com/pipelinecore/settings-engine/pkg/tool/log"
)

// RepoURLOp clones a git repository, grounded on the same go-git
// primitive the Settings Loader uses for its own checkout.
type RepoURLOp struct{}

func init() { register(RepoURLOp{}) }

func (RepoURLOp) Discriminator() string { return "repo_url" }

func (RepoURLOp) Validate(link *model.ActionLink) error {
	if _, ok := coerce.ToString(link.Raw["repo_url"]); !ok {
		return fmt.Errorf("repo_url must be a string")
	}
	return nil
}

func (RepoURLOp) Run(ctx context.Context, rc *RunContext, link *model.ActionLink) (bool, string, error) {
	url, _ := coerce.ToString(link.Raw["repo_url"])
	branch := "main"
	if v, ok := link.Raw["repo_branch"]; ok {
		if s, ok := coerce.ToString(v); ok {
			branch = s
		}
	}
	directory := rc.Dir
	if v, ok := link.Raw["directory"]; ok {
		if s, ok := coerce.ToString(v); ok {
			directory = path.Join(rc.Dir, s)
		}
	}

	log.Infof("cloning %s (branch %s) into %s", url, branch, directory)
	if rc.DryRun {
		return true, fmt.Sprintf("would clone %s", url), nil
	}

	if err := git.PlainCloneInto(directory, git.CloneOptions{URL: url, Branch: branch}); err != nil {
		return false, "", err
	}
	return true, fmt.Sprintf("cloned %s", url), nil
}
