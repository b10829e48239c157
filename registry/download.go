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

package registry

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/grind-build/grind/log"
	"github.com/grind-build/grind/pdd"
)

// defaultDownloadConcurrency bounds the number of simultaneous archive
// downloads fanned out by DownloadAll (§5: downloads are independent once
// the resolved set is known, so bounded parallelism is safe here even
// though the resolver recursion itself stays sequential).
const defaultDownloadConcurrency = 8

// ArchivePath returns the flat-named on-disk path an archive for dep would
// live at, whether or not it has been downloaded yet.
func (c *Client) ArchivePath(dep pdd.ResolvedDependency) string {
	return filepath.Join(c.LibsDir, flatName(dep.Group, dep.Artifact, dep.Version)+".jar")
}

// Download implements component F for a single dependency: skip if the
// flat-named target already exists, otherwise GET the archive and stream
// it to disk via a staged temp file that's renamed into place on success.
func (c *Client) Download(ctx context.Context, dep pdd.ResolvedDependency) error {
	target := c.ArchivePath(dep)
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	if err := os.MkdirAll(c.LibsDir, 0o755); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		jarURL(c.BaseURL, dep.Group, dep.Artifact, dep.Version), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{url: req.URL.String(), status: resp.StatusCode}
	}

	staging := filepath.Join(c.LibsDir, ".tmp-"+uuid.NewString())
	f, err := os.Create(staging)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(staging)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(staging)
		return err
	}
	if err := os.Rename(staging, target); err != nil {
		os.Remove(staging)
		return err
	}
	return nil
}

// DownloadAll downloads every dependency in deps, bounded to
// defaultDownloadConcurrency simultaneous transfers. It never aborts early:
// every failure is collected (download failures are also logged), and the
// dependencies that failed
// are returned alongside the aggregated error so the caller can drop them
// from the lock (per spec.md §9's open question on download failures).
func (c *Client) DownloadAll(ctx context.Context, deps []pdd.ResolvedDependency) (failed []pdd.ResolvedDependency, err error) {
	sem := semaphore.NewWeighted(defaultDownloadConcurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, dep := range deps {
		if acquireErr := sem.Acquire(ctx, 1); acquireErr != nil {
			mu.Lock()
			failed = append(failed, dep)
			err = multierr.Append(err, acquireErr)
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(dep pdd.ResolvedDependency) {
			defer wg.Done()
			defer sem.Release(1)
			if derr := c.Download(ctx, dep); derr != nil {
				log.Warnf("failed to download %s:%s:%s: %v", dep.Group, dep.Artifact, dep.Version, derr)
				mu.Lock()
				failed = append(failed, dep)
				err = multierr.Append(err, derr)
				mu.Unlock()
			}
		}(dep)
	}
	wg.Wait()
	return failed, err
}
