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

// Package toolchain implements component K: bookkeeping for versioned
// JVM toolchain installations under a local toolchains directory. The
// manager only tracks what's installed and which is current; fetching a
// toolchain archive from the network is delegated to an injected
// Fetcher.
package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// currentMarkerName holds the selected version string, a portable
// substitute for a symlink on filesystems that don't support them.
const currentMarkerName = "current"

// Fetcher retrieves and unpacks a toolchain distribution for version into
// destDir. The real implementation lives behind the CLI; tests supply a
// fake.
type Fetcher interface {
	Fetch(ctx context.Context, version, destDir string) error
}

// Installation describes one installed toolchain version.
type Installation struct {
	Version string
	Path    string
	Current bool
}

// Manager tracks installations under a single root directory, one
// subdirectory per version.
type Manager struct {
	Root    string
	Fetcher Fetcher
}

// NewManager returns a Manager rooted at dir.
func NewManager(dir string, fetcher Fetcher) *Manager {
	return &Manager{Root: dir, Fetcher: fetcher}
}

// List returns every installed version, marking the currently selected
// one, sorted by version string for stable CLI output.
func (m *Manager) List() ([]Installation, error) {
	entries, err := os.ReadDir(m.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing toolchains: %w", err)
	}

	current, _ := m.Current()

	var out []Installation
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		out = append(out, Installation{
			Version: e.Name(),
			Path:    filepath.Join(m.Root, e.Name()),
			Current: e.Name() == current,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Current returns the version string recorded by the marker file, or ""
// if none is selected.
func (m *Manager) Current() (string, error) {
	data, err := os.ReadFile(filepath.Join(m.Root, currentMarkerName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading current toolchain marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Install fetches version via the configured Fetcher into its own
// subdirectory, unless it is already installed.
func (m *Manager) Install(ctx context.Context, version string) error {
	dest := filepath.Join(m.Root, version)
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating toolchain directory: %w", err)
	}
	if err := m.Fetcher.Fetch(ctx, version, dest); err != nil {
		os.RemoveAll(dest)
		return fmt.Errorf("fetching toolchain %s: %w", version, err)
	}
	return nil
}

// Use records version as the current selection. It does not check that
// the version is installed locally.
func (m *Manager) Use(version string) error {
	if err := os.MkdirAll(m.Root, 0o755); err != nil {
		return fmt.Errorf("creating toolchains directory: %w", err)
	}
	return os.WriteFile(filepath.Join(m.Root, currentMarkerName), []byte(version), 0o644)
}

// Remove deletes an installed version's directory. If it was the current
// selection, the marker is cleared.
func (m *Manager) Remove(version string) error {
	if err := os.RemoveAll(filepath.Join(m.Root, version)); err != nil {
		return fmt.Errorf("removing toolchain %s: %w", version, err)
	}
	current, err := m.Current()
	if err != nil {
		return err
	}
	if current == version {
		if err := os.Remove(filepath.Join(m.Root, currentMarkerName)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clearing current toolchain marker: %w", err)
		}
	}
	return nil
}
