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

// Package registry implements component A (PDD fetch+cache) and component
// F (archive downloader) against a single configured remote repository,
// structured after Maven Central.
package registry

import (
	"net/http"
	"strings"

	"github.com/grind-build/grind/pdd"
)

// Client talks to a single configured remote repository and caches what it
// fetches on disk.
type Client struct {
	// BaseURL is the repository root, e.g. "https://repo.maven.apache.org/maven2".
	BaseURL string
	// CacheDir holds cached PDD documents (component A).
	CacheDir string
	// LibsDir holds downloaded archives (component F).
	LibsDir string

	HTTP *http.Client
}

// NewClient returns a Client with a default *http.Client.
func NewClient(baseURL, cacheDir, libsDir string) *Client {
	return &Client{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		CacheDir: cacheDir,
		LibsDir:  libsDir,
		HTTP:     http.DefaultClient,
	}
}

// groupSlash converts a PDD group id into its remote path segment, e.g.
// "com.example" -> "com/example".
func groupSlash(group string) string {
	return strings.ReplaceAll(group, ".", "/")
}

// flatName builds the flat underscore-separated cache/library file stem
// used by both the PDD cache and the library directory, e.g.
// "com.example_my-lib_1.0.0".
func flatName(group, artifact, version string) string {
	return group + "_" + artifact + "_" + version
}

func pomURL(base string, id pdd.Id) string {
	return base + "/" + groupSlash(id.Group) + "/" + id.Artifact + "/" + id.Version + "/" + id.Artifact + "-" + id.Version + ".pom"
}

func jarURL(base, group, artifact, version string) string {
	return base + "/" + groupSlash(group) + "/" + artifact + "/" + version + "/" + artifact + "-" + version + ".jar"
}

// metadataURL builds the maven-metadata.xml path used for latest-version
// discovery (§6).
func metadataURL(base, group, artifact string) string {
	return base + "/" + groupSlash(group) + "/" + artifact + "/maven-metadata.xml"
}
