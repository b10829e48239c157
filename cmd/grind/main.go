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

// The grind command is a build tool for JVM-language projects: it
// resolves dependencies against a Maven-Central-shaped remote, downloads
// archives into a local library directory, assembles fat archives, and
// manages local toolchain installations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/grind-build/grind/assemble"
	"github.com/grind-build/grind/integrity"
	"github.com/grind-build/grind/lockfile"
	"github.com/grind-build/grind/log"
	"github.com/grind-build/grind/pdd"
	"github.com/grind-build/grind/project"
	"github.com/grind-build/grind/registry"
	"github.com/grind-build/grind/resolve"
	"github.com/grind-build/grind/toolchain"
)

const (
	defaultRemote     = "https://repo.maven.apache.org/maven2"
	defaultCacheDir   = ".grind/cache"
	defaultLibsDir    = ".grind/libs"
	defaultToolchains = ".grind/toolchains"
	projectFile       = "grind.yml"
	lockFilePath      = "grind.lock"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "install":
		err = runInstall(os.Args[2:])
	case "add":
		err = runAdd(os.Args[2:])
	case "remove":
		err = runRemove(os.Args[2:])
	case "bundle":
		err = runBundle(os.Args[2:])
	case "integrity":
		err = runIntegrity(os.Args[2:])
	case "java":
		err = runJava(os.Args[2:])
	case "new", "build", "run", "task", "test":
		// Thin glue over scaffold generation, compiler/runner invocation,
		// and the task runner; out of scope per §1 — these verbs only
		// exist so the CLI surface matches the full tool's verb set.
		fmt.Fprintf(os.Stderr, "grind %s: not implemented in this build\n", os.Args[1])
		os.Exit(1)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: grind <install|add|remove|bundle|integrity|java|new|build|run|task|test> [flags]")
}

func newClient(remote string) *registry.Client {
	return registry.NewClient(remote, defaultCacheDir, defaultLibsDir)
}

// runInstall implements the install driver described in spec.md §4.G:
// short-circuit on an unchanged input set, otherwise resolve, download,
// and relock.
func runInstall(args []string) error {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	remote := fs.String("remote", defaultRemote, "base URL of the remote repository")
	if err := fs.Parse(args); err != nil {
		return err
	}

	desc, err := project.Read(projectFile)
	if err != nil {
		return err
	}
	client := newClient(*remote)
	ctx := context.Background()

	lf := lockfile.Get(lockFilePath)
	if lockfile.UpToDate(lf, desc.Dependencies) {
		log.Infof("grind.lock up to date, re-downloading %d locked dependencies", len(lf.LockedDeps))
		failed, derr := client.DownloadAll(ctx, lf.LockedDeps)
		if len(failed) > 0 {
			log.Warnf("%d dependencies failed to download", len(failed))
		}
		return derr
	}

	log.Infof("resolving dependencies for %s:%s:%s", desc.GroupID, desc.ArtifactID, desc.Version)
	var direct []pdd.EffectiveDependency
	for _, d := range desc.Dependencies {
		version := d.Version
		if version == "" {
			latest, lerr := client.LatestVersion(ctx, d.GroupID, d.ArtifactID)
			if lerr != nil {
				return fmt.Errorf("looking up latest version for %s:%s: %w", d.GroupID, d.ArtifactID, lerr)
			}
			version = latest
		}
		scope := d.Scope
		if scope == "" {
			scope = "compile"
		}
		direct = append(direct, pdd.EffectiveDependency{
			Group: d.GroupID, Artifact: d.ArtifactID, Version: version, Scope: scope,
		})
	}

	resolved, err := resolve.Closure(ctx, client, direct)
	if err != nil {
		return fmt.Errorf("resolving dependencies: %w", err)
	}

	failed, derr := client.DownloadAll(ctx, resolved)
	failedSet := map[string]bool{}
	for _, f := range failed {
		failedSet[f.Key()] = true
	}
	var locked []pdd.ResolvedDependency
	for _, r := range resolved {
		if !failedSet[r.Key()] {
			locked = append(locked, r)
		}
	}

	if err := lockfile.Write(lockFilePath, &lockfile.LockFile{
		InputDeps:  desc.Dependencies,
		LockedDeps: locked,
	}); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	log.Infof("locked %d dependencies", len(locked))
	return derr
}

// runAdd appends a dependency to grind.yml and re-serializes it; out of
// scope per §1 ("dependency add/remove mutator" is external glue), kept
// minimal.
func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	group := fs.String("group", "", "dependency group id")
	artifact := fs.String("artifact", "", "dependency artifact id")
	version := fs.String("version", "", "dependency version (looked up via maven-metadata.xml if omitted)")
	scope := fs.String("scope", "", "dependency scope")
	remote := fs.String("remote", defaultRemote, "base URL of the remote repository")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *group == "" || *artifact == "" {
		return fmt.Errorf("add requires -group and -artifact")
	}

	resolvedVersion := *version
	if resolvedVersion == "" {
		client := newClient(*remote)
		latest, err := client.LatestVersion(context.Background(), *group, *artifact)
		if err != nil {
			return fmt.Errorf("looking up latest version for %s:%s: %w", *group, *artifact, err)
		}
		resolvedVersion = latest
	}

	desc, err := project.Read(projectFile)
	if err != nil {
		return err
	}
	desc.Dependencies = append(desc.Dependencies, project.ProjectDependency{
		GroupID: *group, ArtifactID: *artifact, Version: resolvedVersion, Scope: *scope,
	})
	return project.Write(projectFile, desc)
}

func runRemove(args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	group := fs.String("group", "", "dependency group id")
	artifact := fs.String("artifact", "", "dependency artifact id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *group == "" || *artifact == "" {
		return fmt.Errorf("remove requires -group and -artifact")
	}

	desc, err := project.Read(projectFile)
	if err != nil {
		return err
	}
	var kept []project.ProjectDependency
	for _, d := range desc.Dependencies {
		if d.GroupID == *group && d.ArtifactID == *artifact {
			continue
		}
		kept = append(kept, d)
	}
	desc.Dependencies = kept
	return project.Write(projectFile, desc)
}

// runBundle implements component H's CLI surface.
func runBundle(args []string) error {
	fs := flag.NewFlagSet("bundle", flag.ExitOnError)
	mainClass := fs.String("main-class", "", "fully qualified main class")
	compiledDir := fs.String("compiled-dir", "", "directory of compiled class files")
	output := fs.String("output", "target/bundle.jar", "output fat archive path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	desc, err := project.Read(projectFile)
	if err != nil {
		return err
	}
	client := newClient(defaultRemote)
	lf := lockfile.Get(lockFilePath)
	if lf == nil {
		return fmt.Errorf("no grind.lock found; run 'grind install' first")
	}
	libs := make([]string, 0, len(lf.LockedDeps))
	for _, d := range lf.LockedDeps {
		libs = append(libs, client.ArchivePath(d))
	}

	return assemble.Assemble(*output, assemble.ManifestInfo{
		MainClass:              *mainClass,
		ImplementationTitle:    desc.ArtifactID,
		ImplementationVendorID: desc.GroupID,
		BuiltBy:                "grind",
		ImplementationVersion:  desc.Version,
	}, *compiledDir, libs)
}

func runIntegrity(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: grind integrity <generate|validate> <dir>")
	}
	switch args[0] {
	case "generate":
		fs := flag.NewFlagSet("integrity generate", flag.ExitOnError)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		dir := "."
		if fs.NArg() > 0 {
			dir = fs.Arg(0)
		}
		m, err := integrity.Generate(dir)
		if err != nil {
			return err
		}
		return integrity.Write(dir+"/"+integrity.ManifestFileName, m)
	case "validate":
		fs := flag.NewFlagSet("integrity validate", flag.ExitOnError)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		dir := "."
		if fs.NArg() > 0 {
			dir = fs.Arg(0)
		}
		ok, results, err := integrity.Verify(dir+"/"+integrity.ManifestFileName, dir)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%s %s\n", r.Status, r.Path)
		}
		if !ok {
			os.Exit(1)
		}
		return nil
	default:
		return fmt.Errorf("unknown integrity subcommand %q", args[0])
	}
}

func runJava(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: grind java <list|current|use|remove> [version]")
	}
	mgr := toolchain.NewManager(defaultToolchains, notImplementedFetcher{})

	switch args[0] {
	case "list":
		list, err := mgr.List()
		if err != nil {
			return err
		}
		for _, inst := range list {
			marker := " "
			if inst.Current {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, inst.Version)
		}
		return nil
	case "current":
		current, err := mgr.Current()
		if err != nil {
			return err
		}
		if current == "" {
			fmt.Println("(none selected)")
			return nil
		}
		fmt.Println(current)
		return nil
	case "use":
		if len(args) < 2 {
			return fmt.Errorf("usage: grind java use <version>")
		}
		return mgr.Use(args[1])
	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("usage: grind java remove <version>")
		}
		return mgr.Remove(args[1])
	default:
		return fmt.Errorf("unknown java subcommand %q", args[0])
	}
}

// notImplementedFetcher backs "grind java" when no real download helper
// is wired in; §1 explicitly places the toolchain-download helper out of
// scope for this tool's core.
type notImplementedFetcher struct{}

func (notImplementedFetcher) Fetch(context.Context, string, string) error {
	return fmt.Errorf("toolchain download is not implemented in this build")
}
