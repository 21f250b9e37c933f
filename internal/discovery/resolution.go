// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/internal/dag"
	"github.com/pkgbind/pkgbind/pkg/manifest"
)

// member is what duplicate resolution needs from a descriptor.
type member interface {
	ContainingPackage() *manifest.Package
	IsCandidate() bool
	MarkDuplicate(bool)
}

// resolveDuplicates marks every candidate of an ordered group as duplicate
// except the first one. A candidate is a member that would be enabled
// without its duplicate mark, so a member the user disabled never keeps a
// declaration from another package out of the registry. Members that are
// not candidates carry no mark and keep reporting their own state.
func resolveDuplicates[D member](group []D) {
	chosen := false
	for _, d := range group {
		if !d.IsCandidate() {
			d.MarkDuplicate(false)
			continue
		}
		d.MarkDuplicate(chosen)
		chosen = true
	}
}

// byPrecedence returns the group ordered root package first, then packages
// that override others ahead of the packages they override. Members without
// a precedence relation keep insertion order.
func byPrecedence[D member](m *Manager, group []D) []D {
	names := make([]string, 0, len(group))
	for _, d := range group {
		names = append(names, packageName(d))
	}
	order, _ := m.precedenceGraph(names).Order()

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	rootName := m.root.Name()
	rank := func(d D) int {
		name := packageName(d)
		if name == rootName {
			return -1
		}
		if p, ok := pos[name]; ok {
			return p
		}
		return len(order)
	}

	sorted := slices.Clone(group)
	slices.SortStableFunc(sorted, func(a, b D) int { return rank(a) - rank(b) })
	return sorted
}

// precedenceGraph relates the named packages through the root's override
// order and the override lists of their manifests.
func (m *Manager) precedenceGraph(names []string) *dag.Graph {
	g := dag.New()
	for _, name := range names {
		g.AddNode(name)
	}

	var ordered []string
	for _, name := range m.rootFile().OverrideOrder() {
		if slices.Contains(names, name) {
			ordered = append(ordered, name)
		}
	}
	for i := 1; i < len(ordered); i++ {
		g.AddEdge(ordered[i-1], ordered[i])
	}

	for _, name := range names {
		pkg, ok := m.packages.Get(name)
		if !ok || pkg.File() == nil {
			continue
		}
		for _, overridden := range pkg.File().Overrides() {
			if slices.Contains(names, overridden) {
				g.AddEdge(name, overridden)
			}
		}
	}
	return g
}

func (m *Manager) updateDuplicateMarksForUUID(id uuid.UUID) {
	group, err := m.bindings.ListAll(id)
	if err != nil {
		return
	}
	resolveDuplicates(byPrecedence(m, group))
}

// updateOverrideMarksForUUID marks every declaration of id whose package is
// overridden by the package of another declaration.
func (m *Manager) updateOverrideMarksForUUID(id uuid.UUID) {
	group, err := m.bindings.ListAll(id)
	if err != nil {
		return
	}
	names := make([]string, 0, len(group))
	for _, d := range group {
		names = append(names, packageName(d))
	}
	g := m.precedenceGraph(names)
	if _, err := g.TopologicalSort(); err != nil {
		m.logger.Warn("conflicting package overrides, falling back to install order",
			"binding", id, "error", err)
	}
	for _, d := range group {
		d.MarkOverridden(g.HasPredecessor(packageName(d)))
	}
}

func (m *Manager) updateDuplicateMarksForTypeName(name string) {
	group, err := m.types.ListAll(name)
	if err != nil {
		return
	}
	resolveDuplicates(byPrecedence(m, group))
}

// nonRootTypePackages returns the packages other than the root that declare the
// type, in insertion order.
func (m *Manager) nonRootTypePackages(name string) []string {
	return slices.DeleteFunc(m.types.PackageNames(name), func(n string) bool { return n == m.root.Name() })
}

func (m *Manager) warnDuplicateType(name string) {
	pkgs := m.nonRootTypePackages(name)
	if len(pkgs) < 2 {
		return
	}
	m.logger.Warn("binding type is declared by more than one package; declare it in the root package to choose one",
		"type", name, "packages", strings.Join(pkgs, ", "))
}

func packageName[D member](d D) string {
	if pkg := d.ContainingPackage(); pkg != nil {
		return pkg.Name()
	}
	return ""
}
