// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/internal/transaction"
	"github.com/pkgbind/pkgbind/pkg/manifest"
)

// BuildDiscovery defines every enabled type and binds every enabled binding
// in an empty registry. Duplicated types, held back and ignored bindings
// are skipped with a warning. A failing registry call undoes the build.
func (m *Manager) BuildDiscovery(ctx context.Context) error {
	if len(m.registry.DefinedTypes()) > 0 || len(m.registry.Bindings()) > 0 {
		return ErrDiscoveryNotEmpty
	}
	m.ensureLoaded()

	var ops []transaction.Operation
	for _, name := range m.types.Keys() {
		m.warnDuplicateType(name)
		if td, ok := m.types.GetEnabled(name); ok {
			ops = append(ops, &defineType{reg: m.registry, typ: td.BindingType()})
		}
	}

	for _, id := range m.bindings.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d, ok := m.bindings.GetEnabled(id); ok {
			ops = append(ops, &bind{reg: m.registry, binding: d.Binding()})
			continue
		}
		m.warnUnboundBinding(id)
	}

	if err := transaction.Run(ops); err != nil {
		return err
	}
	m.logger.Debug("discovery built", "types", len(m.registry.DefinedTypes()), "bindings", len(m.registry.Bindings()))
	return nil
}

// warnUnboundBinding logs once why no declaration of a UUID is bound.
// Disabled and duplicate declarations are intended and stay quiet.
func (m *Manager) warnUnboundBinding(id uuid.UUID) {
	all, err := m.bindings.ListAll(id)
	if err != nil {
		return
	}
	for _, d := range all {
		switch d.State() {
		case manifest.BindingHeldBack:
			m.logger.Warn("binding is held back: its type is not loaded or not enabled",
				"binding", d.UUID(), "type", d.TypeName(), "package", packageName(d))
			return
		case manifest.BindingIgnored:
			m.logger.Warn("binding is ignored: its parameters do not match the binding type",
				"binding", d.UUID(), "type", d.TypeName(), "package", packageName(d),
				"error", errors.Join(d.LoadErrors()...))
			return
		}
	}
}

// ClearDiscovery removes every type and binding from the registry.
func (m *Manager) ClearDiscovery() error {
	return m.registry.Clear()
}
