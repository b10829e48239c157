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

// Package project implements component J: parsing and emitting the
// grind.yml project descriptor.
package project

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ProjectDependency is one entry of a descriptor's dependency list.
type ProjectDependency struct {
	GroupID    string `yaml:"group"`
	ArtifactID string `yaml:"artifact"`
	// Version is optional: an empty value means "look up latest via
	// maven-metadata.xml" (§6 External Interfaces).
	Version string `yaml:"version,omitempty"`
	Scope   string `yaml:"scope,omitempty"`
}

// Profile is a named build/run configuration: extra JVM flags plus
// environment variables layered on top of the default invocation.
type Profile struct {
	Flags []string          `yaml:"flags,omitempty"`
	Envs  map[string]string `yaml:"envs,omitempty"`
}

// Descriptor is the parsed form of grind.yml.
type Descriptor struct {
	GroupID     string              `yaml:"group"`
	ArtifactID  string              `yaml:"artifact"`
	Version     string              `yaml:"version"`
	Name        string              `yaml:"name,omitempty"`
	Description string              `yaml:"description,omitempty"`
	Dependencies []ProjectDependency `yaml:"dependencies,omitempty"`
	Tasks       map[string]string   `yaml:"tasks,omitempty"`
	Profiles    map[string]Profile  `yaml:"profiles,omitempty"`
}

// Read loads and parses the descriptor at path.
func Read(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project descriptor %s: %w", path, err)
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing project descriptor %s: %w", path, err)
	}
	return &d, nil
}

// Write re-serializes d to path. Tasks and profiles are emitted in sorted
// key order (yaml.v3 marshals Go maps in randomized order otherwise) so
// that repeated add/remove round trips produce minimal, stable diffs.
func Write(path string, d *Descriptor) error {
	node, err := toOrderedNode(d)
	if err != nil {
		return fmt.Errorf("serializing project descriptor: %w", err)
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Errorf("serializing project descriptor: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// toOrderedNode builds a yaml.Node tree for d with deterministic map key
// ordering, since yaml.v3 does not expose a marshal option for that.
func toOrderedNode(d *Descriptor) (*yaml.Node, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	addScalar := func(key, value string) {
		if value == "" {
			return
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: value},
		)
	}

	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "group"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: d.GroupID},
		&yaml.Node{Kind: yaml.ScalarNode, Value: "artifact"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: d.ArtifactID},
		&yaml.Node{Kind: yaml.ScalarNode, Value: "version"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: d.Version},
	)
	addScalar("name", d.Name)
	addScalar("description", d.Description)

	if len(d.Dependencies) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, dep := range d.Dependencies {
			depNode, err := toNode(dep)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, depNode)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "dependencies"}, seq)
	}

	if len(d.Tasks) > 0 {
		keys := make([]string, 0, len(d.Tasks))
		for k := range d.Tasks {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tasksNode := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			tasksNode.Content = append(tasksNode.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: k},
				&yaml.Node{Kind: yaml.ScalarNode, Value: d.Tasks[k]},
			)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "tasks"}, tasksNode)
	}

	if len(d.Profiles) > 0 {
		keys := make([]string, 0, len(d.Profiles))
		for k := range d.Profiles {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		profilesNode := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			profileNode, err := toNode(d.Profiles[k])
			if err != nil {
				return nil, err
			}
			profilesNode.Content = append(profilesNode.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: k}, profileNode)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "profiles"}, profilesNode)
	}

	return root, nil
}

func toNode(v any) (*yaml.Node, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	return &node, nil
}
