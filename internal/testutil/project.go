// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const manifestFileName = "pkgbind.json"

// Project is a project directory under construction. Packages added with
// Install are written below packages/ and recorded in the root manifest that
// Write produces.
type Project struct {
	t        testing.TB
	Dir      string
	rootBody []string
	packages map[string]string
}

// NewProject creates an empty project in a temporary directory.
func NewProject(t testing.TB) *Project {
	t.Helper()
	return &Project{t: t, Dir: t.TempDir(), packages: make(map[string]string)}
}

// Root adds a raw top-level JSON member, such as
// `"binding-types": {...}`, to the root manifest.
func (p *Project) Root(member string) *Project {
	p.rootBody = append(p.rootBody, member)
	return p
}

// Install writes the manifest of an installed package. An empty manifest
// installs a package whose manifest is missing.
func (p *Project) Install(name, manifest string) *Project {
	p.t.Helper()
	installPath := filepath.Join("packages", filepath.FromSlash(name))
	p.packages[name] = filepath.ToSlash(installPath)
	if manifest != "" {
		MustWriteFile(p.t, filepath.Join(p.Dir, installPath, manifestFileName), manifest)
	}
	return p
}

// Write writes the root manifest and returns the project directory.
func (p *Project) Write() string {
	p.t.Helper()
	members := append([]string(nil), p.rootBody...)
	if len(p.packages) > 0 {
		names := make([]string, 0, len(p.packages))
		for name := range p.packages {
			names = append(names, name)
		}
		sort.Strings(names)
		entries := make([]string, len(names))
		for i, name := range names {
			entries[i] = fmt.Sprintf("%q: {\"install-path\": %q}", name, p.packages[name])
		}
		members = append(members, "\"packages\": {"+strings.Join(entries, ", ")+"}")
	}
	MustWriteFile(p.t, filepath.Join(p.Dir, manifestFileName), "{"+strings.Join(members, ",\n")+"}\n")
	return p.Dir
}

// ManifestPath returns the path of the root manifest.
func (p *Project) ManifestPath() string {
	return filepath.Join(p.Dir, manifestFileName)
}
