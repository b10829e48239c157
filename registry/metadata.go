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
	"fmt"
	"net/http"

	forkedxml "github.com/michaelkedar/xml"
)

// mavenMetadata mirrors the small slice of maven-metadata.xml this client
// cares about for latest-version discovery.
type mavenMetadata struct {
	Versioning struct {
		Release string `xml:"release"`
		Latest  string `xml:"latest"`
	} `xml:"versioning"`
}

// LatestVersion fetches <base>/<group-slash>/<artifact>/maven-metadata.xml
// and returns its release (falling back to latest) version, for use when
// a project dependency declares no explicit version.
func (c *Client) LatestVersion(ctx context.Context, group, artifact string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL(c.BaseURL, group, artifact), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &httpStatusError{url: req.URL.String(), status: resp.StatusCode}
	}

	var meta mavenMetadata
	dec := forkedxml.NewDecoder(resp.Body)
	if err := dec.Decode(&meta); err != nil {
		return "", fmt.Errorf("parsing maven-metadata.xml for %s:%s: %w", group, artifact, err)
	}

	if meta.Versioning.Release != "" {
		return meta.Versioning.Release, nil
	}
	if meta.Versioning.Latest != "" {
		return meta.Versioning.Latest, nil
	}
	return "", fmt.Errorf("no release or latest version found in maven-metadata.xml for %s:%s", group, artifact)
}
