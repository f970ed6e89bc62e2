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

	"github.com/pipelinecore/settings-engine/pkg/model"
)

// Operation is the contract every discriminator's implementation
// satisfies, mirroring the teacher's JobCtl (Clean/Run) pair but
// splitting "check mode" (Validate) from "execute mode" (Run) the way
// spec.md §4.6 requires both modes to share one traversal.
type Operation interface {
	Discriminator() string
	Validate(link *model.ActionLink) error
	Run(ctx context.Context, rc *RunContext, link *model.ActionLink) (bool, string, error)
}

// registry is built once at package init, mirroring the teacher's
// initJobCtl switch expressed as a map since spec.md §3 already gives
// the discriminator set a fixed, ordered identity
// (model.DiscriminatorPriority).
var registry = map[string]Operation{}

func register(op Operation) {
	registry[op.Discriminator()] = op
}

// Lookup returns the Operation registered for discriminator, if any.
func Lookup(discriminator string) (Operation, bool) {
	op, ok := registry[discriminator]
	return op, ok
}
