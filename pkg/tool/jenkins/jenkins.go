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

// Package jenkins wraps github.com/koderover/gojenkins for the
// `pipeline` discriminator's downstream-job dispatch, directly
// grounded on the teacher's jobcontroller.JenkinsJobCtl.Run: create a
// client, invoke the job, resolve the queued build, poll until it
// stops running.
package jenkins

import (
	"context"
	"crypto/tls"
	"net/http"
	"path/filepath"
	"time"

	jenkins "github.com/koderover/gojenkins"

	"github.com/pipelinecore/settings-engine/pkg/tool/log"
)

// DownstreamJob is the narrow surface this module needs from a
// dispatched Jenkins build, kept as an interface so op_pipeline.go's
// tests can substitute a fake without a live Jenkins server.
type DownstreamJob interface {
	Invoke(ctx context.Context, jobName string, params map[string]string) (Build, error)
}

// Build is the narrow surface this module needs from an in-flight
// Jenkins build.
type Build interface {
	Wait(ctx context.Context, cancel <-chan struct{}) (bool, string, error)
	// FetchArtifacts downloads every artifact the finished build
	// produced into stageDir, preserving each artifact's
	// RelativePath, so op_pipeline.go can apply its own
	// filter/excludes/flatten rules with otiai10/copy the same way
	// ArtifactsOp publishes local files.
	FetchArtifacts(ctx context.Context, stageDir string) ([]Artifact, error)
}

// Artifact is one file a finished build produced, as downloaded to a
// local staging directory by FetchArtifacts.
type Artifact struct {
	// LocalPath is where FetchArtifacts wrote the artifact on disk.
	LocalPath string
	// RelativePath is the artifact's path within the build's archived
	// artifact tree, used to decide the destination layout when
	// `copy_artifacts.flatten` is false.
	RelativePath string
}

// Client is the production DownstreamJob backed by koderover/gojenkins.
type Client struct {
	URL, Username, Password string
}

func (c *Client) Invoke(ctx context.Context, jobName string, params map[string]string) (Build, error) {
	transport := &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	httpClient := &http.Client{Transport: transport}

	jenkinsClient, err := jenkins.CreateJenkins(httpClient, c.URL, c.Username, c.Password).Init(ctx)
	if err != nil {
		return nil, err
	}

	job, err := jenkinsClient.GetJob(ctx, jobName)
	if err != nil {
		return nil, err
	}

	queueID, err := job.InvokeSimple(ctx, params)
	if err != nil {
		return nil, err
	}

	build, err := jenkinsClient.GetBuildFromQueueID(ctx, queueID)
	if err != nil {
		return nil, err
	}

	return &liveBuild{build: build}, nil
}

type liveBuild struct {
	build *jenkins.Build
}

// Wait polls the build until it stops running, or cancel closes, in
// which case it stops the remote build the way JenkinsJobCtl.Run does
// on ctx.Done().
func (b *liveBuild) Wait(ctx context.Context, cancel <-chan struct{}) (bool, string, error) {
	for b.build.IsRunning(ctx) {
		select {
		case <-cancel:
			_, err := b.build.Stop(ctx)
			if err != nil {
				log.Warnf("failed to stop jenkins build: %v", err)
			}
			return false, "", nil
		default:
			time.Sleep(time.Second)
			if _, err := b.build.Poll(ctx); err != nil {
				return false, "", err
			}
		}
	}

	output, err := b.build.GetConsoleOutputFromIndex(ctx, 0)
	if err != nil {
		log.Warnf("failed to get jenkins build output: %v", err)
	}

	return b.build.IsGood(ctx), output.Content, nil
}

// FetchArtifacts downloads every artifact of the completed build into
// stageDir, grounded on the same jenkinsClient/build handle
// JenkinsJobCtl.Run already holds after GetBuildFromQueueID; the
// gojenkins client exposes the finished build's artifact list the same
// way it exposes console output. Filtering, exclusion and flattening
// are left to the caller (op_pipeline.go), which applies them with
// otiai10/copy the same way ArtifactsOp does for local files.
func (b *liveBuild) FetchArtifacts(ctx context.Context, stageDir string) ([]Artifact, error) {
	remote := b.build.GetArtifacts()

	var out []Artifact
	for _, a := range remote {
		dir := filepath.Join(stageDir, filepath.Dir(a.Path))
		if _, err := a.SaveToDir(ctx, dir); err != nil {
			return out, err
		}
		out = append(out, Artifact{
			LocalPath:    filepath.Join(dir, a.FileName),
			RelativePath: a.Path,
		})
	}
	return out, nil
}
