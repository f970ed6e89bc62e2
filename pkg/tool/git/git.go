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

// Package git wraps go-git/go-git/v5, the settings-repo clone client
// named in the teacher's go.mod alongside its gitee/gitlab/github SCM
// clients (this module has no CI-host API surface to speak to, so
// go-git's in-process plain clone is the one SCM client of that group
// this repo can actually exercise).
package git

import (
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// CloneOptions mirrors the subset of spec.md §4.1's settings-repo
// checkout parameters this module needs.
type CloneOptions struct {
	URL      string
	Branch   string
	Depth    int
}

// PlainCloneInto clones URL at Branch into dir using a shallow,
// single-branch clone (spec.md §4.1: "the loader only ever needs the
// tip of one branch").
func PlainCloneInto(dir string, opts CloneOptions) error {
	depth := opts.Depth
	if depth == 0 {
		depth = 1
	}

	cloneOpts := &git.CloneOptions{
		URL:           opts.URL,
		SingleBranch:  true,
		Depth:         depth,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}

	if _, err := git.PlainClone(dir, false, cloneOpts); err != nil {
		return fmt.Errorf("clone %s (branch %s): %w", opts.URL, opts.Branch, err)
	}
	return nil
}
