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

// Package pdd defines the package-description-document (PDD) data model:
// the parsed document tree, its XML decoding, and the version comparator
// used to order artifact versions.
package pdd

import (
	"fmt"
	"strings"
)

// Id identifies a PDD by its coordinates. Equality and hashing are
// structural, which makes Id usable directly as a map key.
type Id struct {
	Group    string
	Artifact string
	Version  string
}

// String renders the id as "group:artifact:version".
func (id Id) String() string {
	return fmt.Sprintf("%s:%s:%s", id.Group, id.Artifact, id.Version)
}

// Key returns the (group, artifact) pair used to key dependency-management
// tables and collision-fix partitions.
func (id Id) Key() string {
	return id.Group + ":" + id.Artifact
}

// ParentRef is the <parent> reference inside a Pdd: a PddId-shaped triple.
// Other <parent> children, such as <relativePath>, are not recorded.
type ParentRef struct {
	Group    string
	Artifact string
	Version  string
}

// Id returns the parent reference as an Id.
func (p ParentRef) Id() Id {
	return Id{Group: p.Group, Artifact: p.Artifact, Version: p.Version}
}

// Empty reports whether no parent was declared.
func (p ParentRef) Empty() bool {
	return p.Group == "" && p.Artifact == "" && p.Version == ""
}

// Dependency is a single <dependency> (or <dependencyManagement>
// <dependencies><dependency>) entry.
type Dependency struct {
	Group    string
	Artifact string
	// Version may contain unresolved ${...} property placeholders.
	Version string
	// Type, when "pom", marks a dependencyManagement entry with
	// scope=import as a BOM.
	Type string
	// Scope is one of compile/runtime/test/provided/system/import, or ""
	// (meaning compile).
	Scope string
	// Optional carries the raw text of <optional>; "true" (case
	// insensitive) means the dependency is dropped from the effective
	// dependency list.
	Optional string
}

// Key returns the (group, artifact) pair this dependency is keyed by in a
// dependency-management table.
func (d Dependency) Key() string {
	return d.Group + ":" + d.Artifact
}

// ResolvedScope returns d's declared scope, defaulting to "compile".
func (d Dependency) ResolvedScope() string {
	if d.Scope == "" {
		return "compile"
	}
	return d.Scope
}

// IsOptional reports whether <optional> held a true-ish value.
func (d Dependency) IsOptional() bool {
	return strings.EqualFold(d.Optional, "true")
}

// IsImportBOM reports whether d is a dependencyManagement entry that
// imports a bill-of-materials (scope=import, type=pom).
func (d Dependency) IsImportBOM() bool {
	return d.Scope == "import" && d.Type == "pom"
}

// Pdd is a parsed package-description document.
type Pdd struct {
	Group      string
	Artifact   string
	Version    string
	Parent     ParentRef
	Properties map[string]string
	// DependencyManagement is the child's own <dependencyManagement>
	// <dependencies> list, in document order.
	DependencyManagement []Dependency
	// Dependencies is the child's own direct <dependencies> list, in
	// document order.
	Dependencies []Dependency
}

// EffectiveId returns the Pdd's own id as currently recorded; it carries an
// inherited group/version only if the resolve package has already applied
// identity inheritance to this value.
func (p Pdd) EffectiveId() Id {
	return Id{Group: p.Group, Artifact: p.Artifact, Version: p.Version}
}

// Context is the working pair carried through the 4.D recursion: a merged
// dependency-management table keyed by "group:artifact", and a merged
// property table.
type Context struct {
	DependencyManagement map[string]Dependency
	Properties           map[string]string
}

// NewContext returns an empty, initialized Context.
func NewContext() Context {
	return Context{
		DependencyManagement: map[string]Dependency{},
		Properties:           map[string]string{},
	}
}

// EffectiveDependency is a fully resolved dependency: its version is
// guaranteed non-empty and free of unresolved ${...} placeholders.
type EffectiveDependency struct {
	Group    string
	Artifact string
	Version  string
	Scope    string
}

// Id returns the coordinates of the effective dependency.
func (e EffectiveDependency) Id() Id {
	return Id{Group: e.Group, Artifact: e.Artifact, Version: e.Version}
}

// ResolvedDependency is the input to the downloader and lock file: the
// four-tuple spec.md §3 says equality and hashing are derived from.
// Because every field is a plain string, the struct is directly usable as
// a map key.
type ResolvedDependency struct {
	Group    string
	Artifact string
	Version  string
	Scope    string
}

// Id returns the (group, artifact, version) coordinates.
func (r ResolvedDependency) Id() Id {
	return Id{Group: r.Group, Artifact: r.Artifact, Version: r.Version}
}

// Key returns the (group, artifact) pair used by the collision fix's
// per-artifact partitions.
func (r ResolvedDependency) Key() string {
	return r.Group + ":" + r.Artifact
}
