// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/internal/transaction"
	"github.com/pkgbind/pkgbind/pkg/manifest"
)

const (
	updateDuplicateMarksForUUID interceptorKind = iota
	updateOverrideMarksForUUID
	updateDuplicateMarksForTypeName
	reloadBindingsByTypeName
	reloadBindingsByUUID
)

type (
	interceptorKind int

	// interceptor recomputes derived descriptor state after an operation
	// committed or was rolled back. Both outcomes do the same work: the
	// marks and loaded types must reflect whatever the stores now contain.
	interceptor struct {
		m        *Manager
		kind     interceptorKind
		id       uuid.UUID
		typeName string
	}
)

var _ transaction.Interceptor = interceptor{}

func (m *Manager) duplicateMarksForUUID(id uuid.UUID) transaction.Interceptor {
	return interceptor{m: m, kind: updateDuplicateMarksForUUID, id: id}
}

func (m *Manager) overrideMarksForUUID(id uuid.UUID) transaction.Interceptor {
	return interceptor{m: m, kind: updateOverrideMarksForUUID, id: id}
}

func (m *Manager) duplicateMarksForTypeName(name string) transaction.Interceptor {
	return interceptor{m: m, kind: updateDuplicateMarksForTypeName, typeName: name}
}

func (m *Manager) reloadByTypeName(name string) transaction.Interceptor {
	return interceptor{m: m, kind: reloadBindingsByTypeName, typeName: name}
}

func (m *Manager) reloadByUUID(id uuid.UUID) transaction.Interceptor {
	return interceptor{m: m, kind: reloadBindingsByUUID, id: id}
}

func (i interceptor) PostExecute()  { i.apply() }
func (i interceptor) PostRollback() { i.apply() }

func (i interceptor) apply() {
	switch i.kind {
	case updateDuplicateMarksForUUID:
		i.m.updateDuplicateMarksForUUID(i.id)
	case updateOverrideMarksForUUID:
		i.m.updateOverrideMarksForUUID(i.id)
	case updateDuplicateMarksForTypeName:
		i.m.updateDuplicateMarksForTypeName(i.typeName)
	case reloadBindingsByTypeName:
		i.m.reloadBindingsOfType(i.typeName)
	case reloadBindingsByUUID:
		i.m.reloadBindings(i.id)
	}
}

// reloadBindingsOfType reloads every declaration of a binding of the type,
// so that each refers to the type's current enabled declaration, then
// re-resolves the affected UUIDs.
func (m *Manager) reloadBindingsOfType(name string) {
	for _, id := range m.bindings.Keys() {
		all, _ := m.bindings.ListAll(id)
		affected := false
		for _, d := range all {
			if d.TypeName() == name {
				m.reload(d)
				affected = true
			}
		}
		if affected {
			m.updateOverrideMarksForUUID(id)
			m.updateDuplicateMarksForUUID(id)
		}
	}
}

// reloadBindings reloads every declaration of a UUID and re-resolves it.
func (m *Manager) reloadBindings(id uuid.UUID) {
	all, err := m.bindings.ListAll(id)
	if err != nil {
		return
	}
	for _, d := range all {
		m.reload(d)
	}
	m.updateOverrideMarksForUUID(id)
	m.updateDuplicateMarksForUUID(id)
}

func (m *Manager) reload(d *manifest.BindingDescriptor) {
	if !d.IsLoaded() {
		return
	}
	pkg := d.ContainingPackage()
	mustSucceed(d.Unload())
	mustSucceed(d.Load(pkg, m.typeFor(d.TypeName())))
}
