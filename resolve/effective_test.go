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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grind-build/grind/pdd"
)

// fakeFetcher serves canned PDD bodies from an in-memory map keyed by
// "group:artifact:version", mirroring how clienttest-style fakes stand in
// for a real registry in the teacher repository.
type fakeFetcher struct {
	docs map[string]string
}

func (f *fakeFetcher) FetchPDD(_ context.Context, id pdd.Id) ([]byte, error) {
	body, ok := f.docs[id.String()]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", id)
	}
	return []byte(body), nil
}

func TestEffectiveDependenciesParentInheritanceAndProperties(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"com.example:parent:1.0": `<project>
  <artifactId>parent</artifactId>
  <version>1.0</version>
  <properties>
    <lib.version>4.5.6</lib.version>
  </properties>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>com.example</groupId>
        <artifactId>managed-only</artifactId>
        <version>1.1.1</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
</project>`,
		"com.example:child:2.0": `<project>
  <parent>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <version>1.0</version>
  </parent>
  <artifactId>child</artifactId>
  <version>2.0</version>
  <dependencies>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>lib</artifactId>
      <version>${lib.version}</version>
    </dependency>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>managed-only</artifactId>
    </dependency>
  </dependencies>
</project>`,
	}}

	deps, err := EffectiveDependencies(context.Background(), f, pdd.Id{Group: "com.example", Artifact: "child", Version: "2.0"})
	require.NoError(t, err)
	require.Len(t, deps, 2)

	byArtifact := map[string]pdd.EffectiveDependency{}
	for _, d := range deps {
		byArtifact[d.Artifact] = d
	}
	require.Equal(t, "4.5.6", byArtifact["lib"].Version)
	require.Equal(t, "1.1.1", byArtifact["managed-only"].Version)
	require.Equal(t, "compile", byArtifact["lib"].Scope)
}

func TestEffectiveDependenciesChildDependencyManagementWins(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"com.example:parent:1.0": `<project>
  <artifactId>parent</artifactId>
  <version>1.0</version>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>com.example</groupId>
        <artifactId>shared</artifactId>
        <version>1.0.0</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
</project>`,
		"com.example:child:2.0": `<project>
  <parent>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <version>1.0</version>
  </parent>
  <artifactId>child</artifactId>
  <version>2.0</version>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>com.example</groupId>
        <artifactId>shared</artifactId>
        <version>2.0.0</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <dependencies>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>shared</artifactId>
    </dependency>
  </dependencies>
</project>`,
	}}

	deps, err := EffectiveDependencies(context.Background(), f, pdd.Id{Group: "com.example", Artifact: "child", Version: "2.0"})
	require.NoError(t, err)
	require.Len(t, deps, 1)
	require.Equal(t, "2.0.0", deps[0].Version)
}

func TestEffectiveDependenciesBOMImport(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"com.example:bom:5.0": `<project>
  <artifactId>bom</artifactId>
  <version>5.0</version>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>com.example</groupId>
        <artifactId>bomlib</artifactId>
        <version>5.5.5</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
</project>`,
		"com.example:app:1.0": `<project>
  <artifactId>app</artifactId>
  <version>1.0</version>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>com.example</groupId>
        <artifactId>bom</artifactId>
        <version>5.0</version>
        <type>pom</type>
        <scope>import</scope>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <dependencies>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>bomlib</artifactId>
    </dependency>
  </dependencies>
</project>`,
	}}

	deps, err := EffectiveDependencies(context.Background(), f, pdd.Id{Group: "com.example", Artifact: "app", Version: "1.0"})
	require.NoError(t, err)
	require.Len(t, deps, 1)
	require.Equal(t, "5.5.5", deps[0].Version)
}

func TestEffectiveDependenciesParentCycleDoesNotHang(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"com.example:a:1.0": `<project>
  <parent><groupId>com.example</groupId><artifactId>b</artifactId><version>1.0</version></parent>
  <artifactId>a</artifactId>
  <version>1.0</version>
</project>`,
		"com.example:b:1.0": `<project>
  <parent><groupId>com.example</groupId><artifactId>a</artifactId><version>1.0</version></parent>
  <artifactId>b</artifactId>
  <version>1.0</version>
</project>`,
	}}

	_, err := EffectiveDependencies(context.Background(), f, pdd.Id{Group: "com.example", Artifact: "a", Version: "1.0"})
	require.NoError(t, err)
}

func TestEffectiveDependenciesSkipsOptionalAndUnresolvedVersion(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"com.example:app:1.0": `<project>
  <artifactId>app</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>optional-dep</artifactId>
      <version>1.0</version>
      <optional>true</optional>
    </dependency>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>no-version</artifactId>
    </dependency>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>kept</artifactId>
      <version>1.0</version>
    </dependency>
  </dependencies>
</project>`,
	}}

	deps, err := EffectiveDependencies(context.Background(), f, pdd.Id{Group: "com.example", Artifact: "app", Version: "1.0"})
	require.NoError(t, err)
	require.Len(t, deps, 1)
	require.Equal(t, "kept", deps[0].Artifact)
}
