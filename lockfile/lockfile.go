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

// Package lockfile implements component G: the grind.lock store pairing a
// project's declared direct dependencies with its fully resolved set, and
// the deep-equality short-circuit that skips re-resolution when the
// declared set hasn't changed.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/grind-build/grind/pdd"
	"github.com/grind-build/grind/project"
)

// LockFile is the on-disk shape of grind.lock: the input dependency list
// exactly as declared in the project descriptor, and the full resolved
// set produced by the last successful run of the resolver.
type LockFile struct {
	InputDeps   []project.ProjectDependency `yaml:"inputDeps"`
	LockedDeps  []pdd.ResolvedDependency    `yaml:"lockedDeps"`
}

// Get reads and parses the lock at path. Any read or parse failure is
// mapped to "absence" (a nil result) rather than an error, per spec.md §4.G,
// so a missing or corrupt lock simply triggers a fresh resolution.
func Get(path string) *LockFile {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var lf LockFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil
	}
	return &lf
}

// Write serializes lf to path, replacing any existing file atomically via
// a staged temp file plus rename.
func Write(path string, lf *LockFile) error {
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("serializing lock file: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating lock file directory: %w", err)
	}
	staging := filepath.Join(dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(staging, data, 0o644); err != nil {
		return fmt.Errorf("writing staged lock file: %w", err)
	}
	if err := os.Rename(staging, path); err != nil {
		os.Remove(staging)
		return fmt.Errorf("replacing lock file: %w", err)
	}
	return nil
}

// UpToDate reports whether lf's recorded input dependency list deep-equals
// declared, meaning the install driver can skip the resolver and simply
// re-download lf.LockedDeps.
func UpToDate(lf *LockFile, declared []project.ProjectDependency) bool {
	if lf == nil {
		return false
	}
	return reflect.DeepEqual(lf.InputDeps, declared)
}
