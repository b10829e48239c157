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

package pdd

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	xml "github.com/michaelkedar/xml"
	"golang.org/x/net/html/charset"
)

// Parse decodes a PDD document, per spec.md §4.B: a <project> root
// containing any subset of <groupId>, <artifactId>, <version>, <parent>,
// <properties>, <dependencyManagement><dependencies>, <dependencies>.
// Unknown elements are ignored. Decode failures are returned as
// "path: message" so the caller can locate the offending element.
func Parse(data []byte) (Pdd, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	p := &parser{dec: dec}
	doc := Pdd{Properties: map[string]string{}}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Pdd{}, p.wrap(err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != "project" {
				if err := p.skip(); err != nil {
					return Pdd{}, err
				}
				continue
			}
			p.push("project")
			if err := p.parseProject(&doc); err != nil {
				return Pdd{}, err
			}
			p.pop()
		}
	}
	return doc, nil
}

// parser wraps an *xml.Decoder with a path stack for error reporting.
type parser struct {
	dec  *xml.Decoder
	path []string
}

func (p *parser) push(name string) { p.path = append(p.path, name) }
func (p *parser) pop()             { p.path = p.path[:len(p.path)-1] }

func (p *parser) wrap(err error) error {
	return fmt.Errorf("%s: %w", strings.Join(p.path, "/"), err)
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%s: %s", strings.Join(p.path, "/"), fmt.Sprintf(format, args...))
}

// skip consumes tokens until the end of the element that was just opened
// (the decoder must be positioned right after its StartElement).
func (p *parser) skip() error {
	depth := 1
	for depth > 0 {
		tok, err := p.dec.Token()
		if err != nil {
			return p.wrap(err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// text reads character data until the end of the currently open element.
func (p *parser) text() (string, error) {
	var buf bytes.Buffer
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.StartElement:
			// Leaf elements shouldn't have child elements; skip them
			// rather than fail, matching "unknown elements are ignored".
			p.push(t.Name.Local)
			if err := p.skip(); err != nil {
				return "", err
			}
			p.pop()
		case xml.EndElement:
			return strings.TrimSpace(buf.String()), nil
		}
	}
}

// parseProject parses the children of <project> into doc.
func (p *parser) parseProject(doc *Pdd) error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			p.push(name)
			var perr error
			switch name {
			case "groupId":
				doc.Group, perr = p.text()
			case "artifactId":
				doc.Artifact, perr = p.text()
			case "version":
				doc.Version, perr = p.text()
			case "parent":
				doc.Parent, perr = p.parseParent()
			case "properties":
				perr = p.parseProperties(doc.Properties)
			case "dependencyManagement":
				doc.DependencyManagement, perr = p.parseDependencyManagement()
			case "dependencies":
				doc.Dependencies, perr = p.parseDependencies()
			default:
				perr = p.skip()
			}
			p.pop()
			if perr != nil {
				return perr
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *parser) parseParent() (ParentRef, error) {
	var ref ParentRef
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return ref, p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			p.push(name)
			var perr error
			switch name {
			case "groupId":
				ref.Group, perr = p.text()
			case "artifactId":
				ref.Artifact, perr = p.text()
			case "version":
				ref.Version, perr = p.text()
			default:
				perr = p.skip()
			}
			p.pop()
			if perr != nil {
				return ref, perr
			}
		case xml.EndElement:
			return ref, nil
		}
	}
}

func (p *parser) parseProperties(into map[string]string) error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			p.push(name)
			value, perr := p.text()
			p.pop()
			if perr != nil {
				return perr
			}
			into[name] = value
		case xml.EndElement:
			return nil
		}
	}
}

func (p *parser) parseDependencyManagement() ([]Dependency, error) {
	var deps []Dependency
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			p.push(name)
			var perr error
			if name == "dependencies" {
				deps, perr = p.parseDependencies()
			} else {
				perr = p.skip()
			}
			p.pop()
			if perr != nil {
				return nil, perr
			}
		case xml.EndElement:
			return deps, nil
		}
	}
}

func (p *parser) parseDependencies() ([]Dependency, error) {
	var deps []Dependency
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			p.push(name)
			var perr error
			if name == "dependency" {
				var d Dependency
				d, perr = p.parseDependency()
				if perr == nil {
					deps = append(deps, d)
				}
			} else {
				perr = p.skip()
			}
			p.pop()
			if perr != nil {
				return nil, perr
			}
		case xml.EndElement:
			return deps, nil
		}
	}
}

func (p *parser) parseDependency() (Dependency, error) {
	var d Dependency
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return d, p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			p.push(name)
			var perr error
			switch name {
			case "groupId":
				d.Group, perr = p.text()
			case "artifactId":
				d.Artifact, perr = p.text()
			case "version":
				d.Version, perr = p.text()
			case "type":
				d.Type, perr = p.text()
			case "scope":
				d.Scope, perr = p.text()
			case "optional":
				d.Optional, perr = p.text()
			default:
				// Includes <exclusions>: parsed-through but never
				// consulted, per spec.md §9's exclusions non-goal.
				perr = p.skip()
			}
			p.pop()
			if perr != nil {
				return d, perr
			}
		case xml.EndElement:
			if d.Group == "" && d.Artifact == "" {
				return d, p.errorf("dependency missing groupId/artifactId")
			}
			return d, nil
		}
	}
}
