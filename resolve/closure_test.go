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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/grind-build/grind/pdd"
)

func TestClosureNewestWinsOverNearest(t *testing.T) {
	// app -> shared@1.0.0 (direct)
	// app -> a -> shared@2.0.0 (transitive, one hop deeper)
	// The transitive version is newer, so it must win even though the
	// direct dependency is nearer: collisions resolve on version, not depth.
	f := &fakeFetcher{docs: map[string]string{
		"com.example:a:1.0": `<project>
  <artifactId>a</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>shared</artifactId>
      <version>2.0.0</version>
    </dependency>
  </dependencies>
</project>`,
		"com.example:shared:1.0.0": `<project><artifactId>shared</artifactId><version>1.0.0</version></project>`,
		"com.example:shared:2.0.0": `<project><artifactId>shared</artifactId><version>2.0.0</version></project>`,
	}}

	direct := []pdd.EffectiveDependency{
		{Group: "com.example", Artifact: "a", Version: "1.0", Scope: "compile"},
		{Group: "com.example", Artifact: "shared", Version: "1.0.0", Scope: "compile"},
	}

	out, err := Closure(context.Background(), f, direct)
	require.NoError(t, err)

	byArtifact := map[string]pdd.ResolvedDependency{}
	for _, d := range out {
		byArtifact[d.Artifact] = d
	}
	require.Equal(t, "2.0.0", byArtifact["shared"].Version)
}

func TestClosureNewestWinsAtEqualDepth(t *testing.T) {
	// app -> a -> shared@1.0.0
	// app -> b -> shared@3.0.0
	// Both reached at the same depth: newer version wins.
	f := &fakeFetcher{docs: map[string]string{
		"com.example:a:1.0": `<project>
  <artifactId>a</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency><groupId>com.example</groupId><artifactId>shared</artifactId><version>1.0.0</version></dependency>
  </dependencies>
</project>`,
		"com.example:b:1.0": `<project>
  <artifactId>b</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency><groupId>com.example</groupId><artifactId>shared</artifactId><version>3.0.0</version></dependency>
  </dependencies>
</project>`,
		"com.example:shared:1.0.0": `<project><artifactId>shared</artifactId><version>1.0.0</version></project>`,
		"com.example:shared:3.0.0": `<project><artifactId>shared</artifactId><version>3.0.0</version></project>`,
	}}

	direct := []pdd.EffectiveDependency{
		{Group: "com.example", Artifact: "a", Version: "1.0", Scope: "compile"},
		{Group: "com.example", Artifact: "b", Version: "1.0", Scope: "compile"},
	}

	out, err := Closure(context.Background(), f, direct)
	require.NoError(t, err)

	byArtifact := map[string]pdd.ResolvedDependency{}
	for _, d := range out {
		byArtifact[d.Artifact] = d
	}
	require.Equal(t, "3.0.0", byArtifact["shared"].Version)
}

func TestClosureExcludesOnlyDirectTestScope(t *testing.T) {
	// Only the direct test-scoped dependency is dropped; direct
	// provided/system dependencies are still resolved, per spec.md §4.E.
	f := &fakeFetcher{docs: map[string]string{
		"com.example:app:1.0":           `<project><artifactId>app</artifactId><version>1.0</version></project>`,
		"com.example:keep-provided:1.0": `<project><artifactId>keep-provided</artifactId><version>1.0</version></project>`,
		"com.example:keep-system:1.0":   `<project><artifactId>keep-system</artifactId><version>1.0</version></project>`,
	}}

	direct := []pdd.EffectiveDependency{
		{Group: "com.example", Artifact: "app", Version: "1.0", Scope: "compile"},
		{Group: "com.example", Artifact: "skip-test", Version: "1.0", Scope: "test"},
		{Group: "com.example", Artifact: "keep-provided", Version: "1.0", Scope: "provided"},
		{Group: "com.example", Artifact: "keep-system", Version: "1.0", Scope: "system"},
	}

	out, err := Closure(context.Background(), f, direct)
	require.NoError(t, err)

	byArtifact := map[string]pdd.ResolvedDependency{}
	for _, d := range out {
		byArtifact[d.Artifact] = d
	}
	require.Len(t, out, 3)
	require.Contains(t, byArtifact, "app")
	require.Contains(t, byArtifact, "keep-provided")
	require.Contains(t, byArtifact, "keep-system")
	require.NotContains(t, byArtifact, "skip-test")
}

func TestClosureExcludesTransitiveTestProvidedAndSystemScopes(t *testing.T) {
	// Scope non-propagation applies to every dependency found below the
	// direct level: a's own test/provided/system-scoped dependencies never
	// get enqueued.
	f := &fakeFetcher{docs: map[string]string{
		"com.example:a:1.0": `<project>
  <artifactId>a</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency><groupId>com.example</groupId><artifactId>skip-test</artifactId><version>1.0</version><scope>test</scope></dependency>
    <dependency><groupId>com.example</groupId><artifactId>skip-provided</artifactId><version>1.0</version><scope>provided</scope></dependency>
    <dependency><groupId>com.example</groupId><artifactId>skip-system</artifactId><version>1.0</version><scope>system</scope></dependency>
    <dependency><groupId>com.example</groupId><artifactId>keep-compile</artifactId><version>1.0</version></dependency>
  </dependencies>
</project>`,
		"com.example:keep-compile:1.0": `<project><artifactId>keep-compile</artifactId><version>1.0</version></project>`,
	}}

	direct := []pdd.EffectiveDependency{
		{Group: "com.example", Artifact: "a", Version: "1.0", Scope: "compile"},
	}

	out, err := Closure(context.Background(), f, direct)
	require.NoError(t, err)

	byArtifact := map[string]pdd.ResolvedDependency{}
	for _, d := range out {
		byArtifact[d.Artifact] = d
	}
	require.Len(t, out, 2)
	require.Contains(t, byArtifact, "a")
	require.Contains(t, byArtifact, "keep-compile")
}

func TestClosureProducesExactResolvedSet(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"com.example:a:1.0": `<project>
  <artifactId>a</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency><groupId>com.example</groupId><artifactId>shared</artifactId><version>1.0.0</version></dependency>
  </dependencies>
</project>`,
		"com.example:shared:1.0.0": `<project><artifactId>shared</artifactId><version>1.0.0</version></project>`,
	}}

	direct := []pdd.EffectiveDependency{
		{Group: "com.example", Artifact: "a", Version: "1.0", Scope: "compile"},
	}

	out, err := Closure(context.Background(), f, direct)
	require.NoError(t, err)

	want := []pdd.ResolvedDependency{
		{Group: "com.example", Artifact: "a", Version: "1.0", Scope: "compile"},
		{Group: "com.example", Artifact: "shared", Version: "1.0.0", Scope: "compile"},
	}
	sortDeps := cmpopts.SortSlices(func(a, b pdd.ResolvedDependency) bool { return a.Key() < b.Key() })
	if diff := cmp.Diff(want, out, sortDeps); diff != "" {
		t.Errorf("Closure() returned diff (-want +got):\n%s", diff)
	}
}

func TestClosureHandlesGraphCycleWithoutHanging(t *testing.T) {
	// a -> b -> a: once "a" has been walked once, the second visit must
	// not re-enqueue its children again.
	f := &fakeFetcher{docs: map[string]string{
		"com.example:a:1.0": `<project>
  <artifactId>a</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency><groupId>com.example</groupId><artifactId>b</artifactId><version>1.0</version></dependency>
  </dependencies>
</project>`,
		"com.example:b:1.0": `<project>
  <artifactId>b</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency><groupId>com.example</groupId><artifactId>a</artifactId><version>1.0</version></dependency>
  </dependencies>
</project>`,
	}}

	direct := []pdd.EffectiveDependency{
		{Group: "com.example", Artifact: "a", Version: "1.0", Scope: "compile"},
	}

	out, err := Closure(context.Background(), f, direct)
	require.NoError(t, err)
	require.Len(t, out, 2)
}
