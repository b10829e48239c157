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

package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	fetched []string
	fail    bool
}

func (f *fakeFetcher) Fetch(_ context.Context, version, destDir string) error {
	if f.fail {
		return os.ErrPermission
	}
	f.fetched = append(f.fetched, version)
	return os.WriteFile(filepath.Join(destDir, "marker"), []byte("ok"), 0o644)
}

func TestInstallListUseRemove(t *testing.T) {
	dir := t.TempDir()
	ff := &fakeFetcher{}
	m := NewManager(dir, ff)

	require.NoError(t, m.Install(context.Background(), "21"))
	require.NoError(t, m.Install(context.Background(), "17"))
	require.Equal(t, []string{"21", "17"}, ff.fetched)

	// Re-installing an existing version is a no-op.
	require.NoError(t, m.Install(context.Background(), "21"))
	require.Equal(t, []string{"21", "17"}, ff.fetched)

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "17", list[0].Version)
	require.Equal(t, "21", list[1].Version)
	require.False(t, list[0].Current)

	require.NoError(t, m.Use("21"))
	current, err := m.Current()
	require.NoError(t, err)
	require.Equal(t, "21", current)

	list, err = m.List()
	require.NoError(t, err)
	for _, inst := range list {
		require.Equal(t, inst.Version == "21", inst.Current)
	}

	require.NoError(t, m.Remove("21"))
	current, err = m.Current()
	require.NoError(t, err)
	require.Empty(t, current, "removing the current version clears the marker")

	list, err = m.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "17", list[0].Version)
}

func TestInstallFailureCleansUpDirectory(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, &fakeFetcher{fail: true})

	err := m.Install(context.Background(), "21")
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "21"))
	require.True(t, os.IsNotExist(statErr))
}

func TestListOnMissingRootReturnsEmpty(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "does-not-exist"), &fakeFetcher{})
	list, err := m.List()
	require.NoError(t, err)
	require.Empty(t, list)
}
