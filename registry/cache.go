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

	"github.com/grind-build/grind/log"
	"github.com/grind-build/grind/pdd"
)

// FetchPDD implements component A: return the cached bytes for id if
// present, otherwise fetch from the remote and cache verbatim. On
// transport failure it logs and returns an empty document rather than an
// error, so the parser fails cleanly downstream (per spec.md §4.A).
func (c *Client) FetchPDD(ctx context.Context, id pdd.Id) ([]byte, error) {
	cachePath := filepath.Join(c.CacheDir, flatName(id.Group, id.Artifact, id.Version)+".pdd")

	if body, err := os.ReadFile(cachePath); err == nil {
		return body, nil
	}

	body, err := c.fetchPOM(ctx, id)
	if err != nil {
		log.Warnf("failed to fetch PDD %s: %v", id, err)
		return []byte{}, nil
	}

	if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
		log.Warnf("failed to create PDD cache dir %s: %v", c.CacheDir, err)
		return body, nil
	}
	if err := os.WriteFile(cachePath, body, 0o644); err != nil {
		log.Warnf("failed to cache PDD %s: %v", id, err)
	}
	return body, nil
}

func (c *Client) fetchPOM(ctx context.Context, id pdd.Id) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pomURL(c.BaseURL, id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpStatusError{url: req.URL.String(), status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// httpStatusError reports a non-2xx response from the remote.
type httpStatusError struct {
	url    string
	status int
}

func (e *httpStatusError) Error() string {
	return "unexpected status " + http.StatusText(e.status) + " fetching " + e.url
}
