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

// Package resolve implements component D (the effective-PDD resolver) and
// component E (the transitive closure and collision fix), grounded on the
// parent-walk/property-merge/BOM-import shape of
// internal/mavenutil.MergeParents in the teacher repository.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"bitbucket.org/creachadair/stringset"

	"github.com/grind-build/grind/log"
	"github.com/grind-build/grind/pdd"
)

// Fetcher is the subset of registry.Client that the resolver depends on,
// so tests can substitute an in-memory fake.
type Fetcher interface {
	FetchPDD(ctx context.Context, id pdd.Id) ([]byte, error)
}

// substitute replaces each ${...} property reference in value with its
// entry in props, stopping at the first reference props does not define.
func substitute(value string, props map[string]string) string {
	for {
		start := strings.Index(value, "${")
		if start < 0 {
			return value
		}
		end := strings.Index(value[start:], "}")
		if end < 0 {
			return value
		}
		end += start
		key := value[start+2 : end]
		replacement, ok := props[key]
		if !ok {
			// Leave unresolved placeholders in place; the caller treats
			// a still-templated version as an unresolvable dependency.
			return value
		}
		value = value[:start] + replacement + value[end+1:]
	}
}

// hasPlaceholder reports whether value still contains an unresolved
// ${...} reference.
func hasPlaceholder(value string) bool {
	return strings.Contains(value, "${") && strings.Contains(value, "}")
}

// looksLikeRange reports whether version uses Maven range/classifier
// syntax that spec.md §9 declines to support; such a dependency is
// treated as a parse failure and skipped, per the recommended behavior.
func looksLikeRange(version string) bool {
	return strings.ContainsAny(version, "[](),") || strings.HasSuffix(version, "+")
}

// resolver carries the state shared across one getEffectiveDependencies
// recursion: the fetcher, and the visited set used for cycle avoidance.
type resolver struct {
	fetch   Fetcher
	visited stringset.Set
}

// effective implements spec.md §4.D steps 1-9: given a root id, produce
// the parsed Pdd together with the effective Context built by walking
// parents up and merging properties/dependency-management down.
func (r *resolver) effective(ctx context.Context, id pdd.Id) (pdd.Pdd, pdd.Context, error) {
	// Step 1: cycle check. Still fetch+parse so the caller can enumerate
	// the leaf's own direct dependencies, but return an empty context.
	if r.visited.Contains(id.String()) {
		doc, err := r.fetchAndParse(ctx, id)
		if err != nil {
			return pdd.Pdd{}, pdd.Context{}, err
		}
		return doc, pdd.NewContext(), nil
	}
	// Step 2.
	r.visited.Add(id.String())

	// Step 3.
	doc, err := r.fetchAndParse(ctx, id)
	if err != nil {
		return pdd.Pdd{}, pdd.Context{}, err
	}

	// Step 4: parent walk (up).
	parentCtx := pdd.NewContext()
	var parentDoc pdd.Pdd
	haveParent := !doc.Parent.Empty()
	if haveParent {
		parentDoc, parentCtx, err = r.effective(ctx, doc.Parent.Id())
		if err != nil {
			return pdd.Pdd{}, pdd.Context{}, err
		}
	}

	// Step 5: identity inheritance — from the parent's *declared* group/
	// version, not the resolved parent id.
	if doc.Group == "" {
		doc.Group = doc.Parent.Group
	}
	if doc.Version == "" {
		doc.Version = doc.Parent.Version
	}

	// Step 6: property merge (down). Seed built-ins, then extend with the
	// parent's carried properties, then the child's own — child wins.
	merged := map[string]string{
		"project.groupId":    doc.Group,
		"project.artifactId": doc.Artifact,
		"project.version":    doc.Version,
	}
	if haveParent {
		merged["project.parent.groupId"] = parentDoc.Group
		merged["project.parent.version"] = parentDoc.Version
	}
	for k, v := range parentCtx.Properties {
		merged[k] = v
	}
	for k, v := range doc.Properties {
		merged[k] = v
	}

	depMgmt := map[string]pdd.Dependency{}
	for k, v := range parentCtx.DependencyManagement {
		depMgmt[k] = v
	}

	// Step 7: dependencyManagement merge — child entries always win
	// (unconditional insert), parent/BOM entries only fill gaps.
	for _, d := range doc.DependencyManagement {
		depMgmt[d.Key()] = d
	}

	result := pdd.Context{DependencyManagement: depMgmt, Properties: merged}

	// Step 8: BOM (import) resolution (sideways). Snapshot first so BOM
	// entries never clobber the child's own declarations processed above.
	snapshot := make([]pdd.Dependency, 0, len(doc.DependencyManagement))
	snapshot = append(snapshot, doc.DependencyManagement...)
	for _, d := range snapshot {
		if !d.IsImportBOM() {
			continue
		}
		bomID := pdd.Id{
			Group:    substitute(d.Group, merged),
			Artifact: substitute(d.Artifact, merged),
			Version:  substitute(d.Version, merged),
		}
		bomDoc, bomCtx, err := r.effective(ctx, bomID)
		if err != nil {
			log.Warnf("failed to resolve BOM import %s: %v", bomID, err)
			continue
		}
		_ = bomDoc
		for k, v := range bomCtx.DependencyManagement {
			if _, exists := depMgmt[k]; !exists {
				depMgmt[k] = v
			}
		}
	}

	// Step 9.
	return doc, result, nil
}

func (r *resolver) fetchAndParse(ctx context.Context, id pdd.Id) (pdd.Pdd, error) {
	body, err := r.fetch.FetchPDD(ctx, id)
	if err != nil {
		return pdd.Pdd{}, fmt.Errorf("fetching %s: %w", id, err)
	}
	doc, err := pdd.Parse(body)
	if err != nil {
		return pdd.Pdd{}, fmt.Errorf("parsing %s: %w", id, err)
	}
	return doc, nil
}

// EffectiveDependencies implements the top-level driver described in
// spec.md §4.D ("getEffectiveDependencies"): resolve the root, then turn
// its direct <dependencies> into concrete EffectiveDependency values.
func EffectiveDependencies(ctx context.Context, fetch Fetcher, root pdd.Id) ([]pdd.EffectiveDependency, error) {
	r := &resolver{fetch: fetch, visited: stringset.New()}
	doc, effCtx, err := r.effective(ctx, root)
	if err != nil {
		return nil, err
	}

	var out []pdd.EffectiveDependency
	for _, dep := range doc.Dependencies {
		version := dep.Version
		if version == "" {
			if managed, ok := effCtx.DependencyManagement[dep.Key()]; ok {
				version = managed.Version
			}
		}
		if version == "" {
			log.Warnf("skipping %s:%s: no version declared or managed", dep.Group, dep.Artifact)
			continue
		}

		group := substitute(dep.Group, effCtx.Properties)
		artifact := substitute(dep.Artifact, effCtx.Properties)
		version = substitute(version, effCtx.Properties)

		if hasPlaceholder(group) || hasPlaceholder(artifact) || hasPlaceholder(version) {
			log.Warnf("skipping %s:%s: unresolved property in %s:%s:%s", dep.Group, dep.Artifact, group, artifact, version)
			continue
		}
		if looksLikeRange(version) {
			log.Warnf("skipping %s:%s: version ranges/classifiers unsupported (%s)", dep.Group, dep.Artifact, version)
			continue
		}
		if dep.IsOptional() {
			continue
		}

		out = append(out, pdd.EffectiveDependency{
			Group:    group,
			Artifact: artifact,
			Version:  version,
			Scope:    dep.ResolvedScope(),
		})
	}
	return out, nil
}
