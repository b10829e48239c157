// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resolve

import (
	"context"

	"bitbucket.org/creachadair/stringset"

	"github.com/grind-build/grind/log"
	"github.com/grind-build/grind/pdd"
)

// directExcludedScopes are dropped from the initial queue: only test-scope
// direct dependencies are excluded, per spec.md §4.E.
var directExcludedScopes = map[string]bool{
	"test": true,
}

// transitiveExcludedScopes are dropped when enqueuing the dependencies of
// an already-queued node: test, provided, and system scopes don't
// propagate transitively, matching ordinary Maven scope non-propagation.
// A direct dependency declared provided/system is still kept and walked.
var transitiveExcludedScopes = map[string]bool{
	"test":     true,
	"provided": true,
	"system":   true,
}

// Closure implements component E: starting from a project's own direct
// dependencies, walk the transitive graph breadth-first over every
// distinct (group, artifact, version) node, then reduce each
// (group, artifact) partition to the entry with the greatest version per
// the component C comparator, as described in spec.md §4.E.
func Closure(ctx context.Context, fetch Fetcher, direct []pdd.EffectiveDependency) ([]pdd.ResolvedDependency, error) {
	visited := stringset.New() // keyed by Id().String(), avoids re-walking a coordinate twice
	var all []pdd.EffectiveDependency

	queue := make([]pdd.EffectiveDependency, 0, len(direct))
	for _, d := range direct {
		if directExcludedScopes[d.Scope] {
			continue
		}
		queue = append(queue, d)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		nodeKey := cur.Id().String()
		if visited.Contains(nodeKey) {
			continue
		}
		visited.Add(nodeKey)
		all = append(all, cur)

		children, err := EffectiveDependencies(ctx, fetch, cur.Id())
		if err != nil {
			log.Warnf("failed to resolve transitive dependencies of %s: %v", cur.Id(), err)
			continue
		}
		for _, child := range children {
			if transitiveExcludedScopes[child.Scope] {
				continue
			}
			queue = append(queue, child)
		}
	}

	best := map[string]pdd.EffectiveDependency{}
	for _, d := range all {
		key := d.Id().Key()
		existing, ok := best[key]
		if !ok || pdd.VersionLess(existing.Version, d.Version) {
			best[key] = d
		}
	}

	out := make([]pdd.ResolvedDependency, 0, len(best))
	for _, d := range best {
		out = append(out, pdd.ResolvedDependency{
			Group:    d.Group,
			Artifact: d.Artifact,
			Version:  d.Version,
			Scope:    d.Scope,
		})
	}
	return out, nil
}
