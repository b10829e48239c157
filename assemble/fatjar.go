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

// Package assemble implements component H: merging a project's compiled
// output directory together with its library archives into a single
// runnable fat archive.
package assemble

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ManifestInfo carries the fields written into META-INF/MANIFEST.MF.
type ManifestInfo struct {
	MainClass              string
	ImplementationTitle    string
	ImplementationVendorID string
	BuiltBy                string
	BuildJDK               string
	ImplementationVersion  string
}

func (m ManifestInfo) render() string {
	var b strings.Builder
	b.WriteString("Manifest-Version: 1.0\n")
	fmt.Fprintf(&b, "Main-Class: %s\n", m.MainClass)
	fmt.Fprintf(&b, "Implementation-Title: %s\n", m.ImplementationTitle)
	fmt.Fprintf(&b, "Implementation-Vendor-Id: %s\n", m.ImplementationVendorID)
	fmt.Fprintf(&b, "Built-By: %s\n", m.BuiltBy)
	fmt.Fprintf(&b, "Build-Jdk: %s\n", m.BuildJDK)
	fmt.Fprintf(&b, "Implementation-Version: %s\n", m.ImplementationVersion)
	return b.String()
}

// mergeable reports whether a zip entry name must be concatenated across
// archives rather than written once.
func mergeable(name string) bool {
	return strings.HasPrefix(name, "META-INF/services/") ||
		name == "META-INF/spring.factories" ||
		strings.HasPrefix(name, "META-INF/spring/")
}

// signatureFile reports whether name is a jar signature file under
// META-INF/ that must be stripped from a fat archive.
func signatureFile(name string) bool {
	if !strings.HasPrefix(name, "META-INF/") {
		return false
	}
	upper := strings.ToUpper(name)
	return strings.HasSuffix(upper, ".SF") || strings.HasSuffix(upper, ".RSA") || strings.HasSuffix(upper, ".DSA")
}

// assembler tracks the dedup/merge state described in spec.md's
// "FatArchive state": a set of entries already written, and a buffer per
// mergeable entry name accumulated across every library archive.
type assembler struct {
	w          *zip.Writer
	seen       map[string]bool
	mergeables map[string][]byte
	mergeOrder []string
}

func newAssembler(w *zip.Writer) *assembler {
	return &assembler{
		w:          w,
		seen:       map[string]bool{},
		mergeables: map[string][]byte{},
	}
}

func (a *assembler) writeStored(name string, data []byte) error {
	hdr := &zip.FileHeader{Name: name, Method: zip.Store}
	hdr.SetMode(0o644)
	fw, err := a.w.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = fw.Write(data)
	return err
}

func (a *assembler) addMergeable(name string, data []byte) {
	existing, ok := a.mergeables[name]
	if !ok {
		a.mergeOrder = append(a.mergeOrder, name)
		a.mergeables[name] = data
		return
	}
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		existing = append(existing, '\n')
	}
	a.mergeables[name] = append(existing, data...)
}

func (a *assembler) flushMergeables() error {
	for _, name := range a.mergeOrder {
		if err := a.writeStored(name, a.mergeables[name]); err != nil {
			return err
		}
	}
	return nil
}

// Assemble writes a fat archive to outputPath: a manifest built from
// info, every file under compiledDir (walked recursively, paths
// normalized to forward slashes), then every entry of each archive in
// libraryPaths in order, applying the merge/dedupe/signature-strip rules
// of spec.md §4.H.
func Assemble(outputPath string, info ManifestInfo, compiledDir string, libraryPaths []string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating fat archive %s: %w", outputPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	a := newAssembler(zw)

	if err := a.writeStored("META-INF/MANIFEST.MF", []byte(info.render())); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	a.seen["META-INF/MANIFEST.MF"] = true

	if err := a.addCompiledOutput(compiledDir); err != nil {
		return err
	}
	for _, lib := range libraryPaths {
		if err := a.addLibraryArchive(lib); err != nil {
			return fmt.Errorf("merging %s: %w", lib, err)
		}
	}
	if err := a.flushMergeables(); err != nil {
		return fmt.Errorf("writing merged service files: %w", err)
	}
	return zw.Close()
}

func (a *assembler) addCompiledOutput(dir string) error {
	if dir == "" {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := a.writeStored(name, data); err != nil {
			return err
		}
		a.seen[name] = true
		return nil
	})
}

func (a *assembler) addLibraryArchive(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := f.Name
		if name == "META-INF/MANIFEST.MF" || signatureFile(name) {
			continue
		}

		if mergeable(name) {
			data, err := readZipEntry(f)
			if err != nil {
				return err
			}
			a.addMergeable(name, data)
			continue
		}

		if a.seen[name] {
			continue
		}
		data, err := readZipEntry(f)
		if err != nil {
			return err
		}
		if err := a.writeStored(name, data); err != nil {
			return err
		}
		a.seen[name] = true
	}
	return nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
