// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"slices"

	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/pkg/manifest"
	"github.com/pkgbind/pkgbind/pkg/registry"
)

// enabledBinding returns the registry view of the enabled declaration of id.
func (m *Manager) enabledBinding(id uuid.UUID) *registry.Binding {
	d, ok := m.bindings.GetEnabled(id)
	if !ok {
		return nil
	}
	b := d.Binding()
	return &b
}

// enabledType returns the registry view of the enabled declaration of name.
func (m *Manager) enabledType(name string) *registry.BindingType {
	td, ok := m.types.GetEnabled(name)
	if !ok {
		return nil
	}
	t := td.BindingType()
	return &t
}

// reconcileBinding moves the registry from one enabled binding to another.
// A change between two different non-nil bindings leaves the registry as it
// is: which of the two a client expects is not decidable here.
func (m *Manager) reconcileBinding(id uuid.UUID, from, to *registry.Binding) error {
	switch {
	case from == nil && to == nil:
		return nil
	case from == nil:
		m.logger.Debug("bind", "binding", id, "query", to.Query, "type", to.TypeName)
		return bindValue(m.registry, *to)
	case to == nil:
		m.logger.Debug("unbind", "binding", id, "query", from.Query, "type", from.TypeName)
		return unbindValue(m.registry, *from)
	case from.Equal(*to):
		return nil
	default:
		m.logger.Warn("enabled declaration of binding changed; registry left unchanged, rebuild discovery to apply",
			"binding", id, "was", from.String(), "now", to.String())
		return nil
	}
}

// enabledBindings returns the registry view of the enabled declaration of
// each of ids, nil where none is enabled.
func (m *Manager) enabledBindings(ids []uuid.UUID) []*registry.Binding {
	out := make([]*registry.Binding, len(ids))
	for i, id := range ids {
		out[i] = m.enabledBinding(id)
	}
	return out
}

// uuidsOfType returns the UUIDs that have at least one declaration of the
// type, in store order.
func (m *Manager) uuidsOfType(name string) []uuid.UUID {
	var ids []uuid.UUID
	for _, id := range m.bindings.Keys() {
		all, _ := m.bindings.ListAll(id)
		if slices.ContainsFunc(all, func(d *manifest.BindingDescriptor) bool { return d.TypeName() == name }) {
			ids = append(ids, id)
		}
	}
	return ids
}

// typeChange is the registry side of a change to the enabled declaration of
// a type: the type itself and the enabled binding of every UUID that has a
// declaration of the type, before and after.
type typeChange struct {
	name     string
	ids      []uuid.UUID
	from, to *registry.BindingType
	// fromBindings and toBindings are indexed like ids.
	fromBindings, toBindings []*registry.Binding
	// restore is bound along with to. It holds bindings the registry had
	// for the type that no UUID accounts for.
	restore []registry.Binding
}

func (c typeChange) reverse(restore []registry.Binding) typeChange {
	return typeChange{
		name:         c.name,
		ids:          c.ids,
		from:         c.to,
		to:           c.from,
		fromBindings: c.toBindings,
		toBindings:   c.fromBindings,
		restore:      restore,
	}
}

func (c typeChange) typeChanged() bool {
	switch {
	case c.from == nil || c.to == nil:
		return c.from != c.to
	default:
		return !c.from.Equal(*c.to)
	}
}

// reconcileType moves the registry from one enabled type definition to
// another. When the definition changes, the old bindings are unbound, the
// type is redefined and the bindings are bound as they are now, so values
// derived from the type (defaults, dropped parameters) follow it. Bindings
// the registry still held for the old type when it was undefined are
// returned. A failure undoes the calls already made.
func (m *Manager) reconcileType(c typeChange) (_ []registry.Binding, err error) {
	var undo []func() error
	defer func() {
		if err == nil {
			return
		}
		for i := len(undo) - 1; i >= 0; i-- {
			if undoErr := undo[i](); undoErr != nil {
				m.logger.Warn("could not undo a partial registry update", "type", c.name, "error", undoErr)
			}
		}
	}()

	if !c.typeChanged() {
		for i, id := range c.ids {
			from, to := c.fromBindings[i], c.toBindings[i]
			if err := m.reconcileBinding(id, from, to); err != nil {
				return nil, err
			}
			undo = append(undo, func() error { return m.reconcileBinding(id, to, from) })
		}
		return nil, nil
	}

	for i, id := range c.ids {
		b := c.fromBindings[i]
		if b == nil {
			continue
		}
		m.logger.Debug("unbind", "binding", id, "query", b.Query, "type", b.TypeName)
		if err := unbindValue(m.registry, *b); err != nil {
			return nil, err
		}
		undo = append(undo, func() error { return bindValue(m.registry, *b) })
	}
	var dropped []registry.Binding
	if from := c.from; from != nil {
		m.logger.Debug("undefine type", "type", from.Name)
		dropped = bindingsOfType(m.registry, from.Name)
		if err := m.registry.UndefineType(from.Name); err != nil {
			return nil, err
		}
		undo = append(undo, func() error { return redefine(m.registry, *from, dropped) })
	}
	if to := c.to; to != nil {
		m.logger.Debug("define type", "type", to.Name)
		if err := redefine(m.registry, *to, c.restore); err != nil {
			return nil, err
		}
		undo = append(undo, func() error { return m.registry.UndefineType(to.Name) })
	}
	for i, id := range c.ids {
		b := c.toBindings[i]
		if b == nil {
			continue
		}
		m.logger.Debug("bind", "binding", id, "query", b.Query, "type", b.TypeName)
		if err := bindValue(m.registry, *b); err != nil {
			return nil, err
		}
		undo = append(undo, func() error { return unbindValue(m.registry, *b) })
	}
	return dropped, nil
}
