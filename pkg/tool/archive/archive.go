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

// Package archive wraps github.com/mholt/archiver's TarGz, the same
// primitive the teacher's GoCacheManager.Archive uses (there imported
// as gopkg.in/mholt/archiver.v3, the alias for the same module), for
// the stash/unstash bundle format spec.md §4.8 requires.
package archive

import (
	"github.com/mholt/archiver"
)

func tarGz() *archiver.TarGz {
	return &archiver.TarGz{
		Tar: &archiver.Tar{
			OverwriteExisting:      true,
			MkdirAll:               true,
			ImplicitTopLevelFolder: false,
		},
	}
}

// Bundle archives sources (files or directories) into dest as a
// tar.gz, the stash bundle format.
func Bundle(sources []string, dest string) error {
	return tarGz().Archive(sources, dest)
}

// Unbundle extracts the tar.gz at src into destDir, the unstash step.
func Unbundle(src, destDir string) error {
	return tarGz().Unarchive(src, destDir)
}
