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

// Package integrity implements component I: a flat path-to-digest
// manifest over a directory tree, generated and later verified against
// the files on disk.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ManifestFileName is excluded from its own manifest's computation.
const ManifestFileName = "integrity.json"

// Manifest is the on-disk envelope: {"files": {path: digest}}.
type Manifest struct {
	Files map[string]string `json:"files"`
}

// Generate walks dir recursively and computes a sha256 digest for every
// regular file, skipping any file named integrity.json. Paths are
// recorded relative to dir, forward-slash normalized.
func Generate(dir string) (*Manifest, error) {
	m := &Manifest{Files: map[string]string{}}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == ManifestFileName {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		digest, err := digestFile(path)
		if err != nil {
			return fmt.Errorf("digesting %s: %w", path, err)
		}
		m.Files[filepath.ToSlash(rel)] = digest
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Write serializes m as pretty-printed JSON to path.
func Write(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing integrity manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// FileResult is the per-file outcome of Verify.
type FileResult struct {
	Path   string
	Status string // "OK", "MISMATCH", or "MISSING"
}

// Statuses reported by Verify.
const (
	StatusOK       = "OK"
	StatusMismatch = "MISMATCH"
	StatusMissing  = "MISSING"
)

// Verify parses the manifest at manifestPath and checks every recorded
// path against the files under dir. It returns per-file results sorted
// by path together with the overall pass/fail result, which is
// true iff every entry is OK.
func Verify(manifestPath, dir string) (bool, []FileResult, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return false, nil, fmt.Errorf("reading integrity manifest %s: %w", manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return false, nil, fmt.Errorf("parsing integrity manifest %s: %w", manifestPath, err)
	}

	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	results := make([]FileResult, 0, len(paths))
	ok := true
	for _, rel := range paths {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		digest, err := digestFile(full)
		if err != nil {
			if os.IsNotExist(err) {
				results = append(results, FileResult{Path: rel, Status: StatusMissing})
				ok = false
				continue
			}
			return false, nil, fmt.Errorf("digesting %s: %w", full, err)
		}
		if digest != m.Files[rel] {
			results = append(results, FileResult{Path: rel, Status: StatusMismatch})
			ok = false
			continue
		}
		results = append(results, FileResult{Path: rel, Status: StatusOK})
	}
	return ok, results, nil
}

func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
