// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/internal/transaction"
	"github.com/pkgbind/pkgbind/pkg/manifest"
	"github.com/pkgbind/pkgbind/pkg/registry"
)

type (
	// addBindingToManifest adds a descriptor to the root manifest,
	// replacing a descriptor with the same UUID.
	addBindingToManifest struct {
		file     *manifest.RootPackageFile
		bd       *manifest.BindingDescriptor
		previous *manifest.BindingDescriptor
	}

	removeBindingFromManifest struct {
		file    *manifest.RootPackageFile
		id      uuid.UUID
		removed *manifest.BindingDescriptor
		index   int
	}

	addTypeToManifest struct {
		file     *manifest.RootPackageFile
		td       *manifest.BindingTypeDescriptor
		previous *manifest.BindingTypeDescriptor
	}

	removeTypeFromManifest struct {
		file    *manifest.RootPackageFile
		name    string
		removed *manifest.BindingTypeDescriptor
		index   int
	}

	// loadBinding stores a descriptor for its package and loads it.
	loadBinding struct {
		m        *Manager
		bd       *manifest.BindingDescriptor
		pkg      *manifest.Package
		previous *manifest.BindingDescriptor
		index    int
	}

	// unloadBinding is a no-op for descriptors that are not loaded.
	unloadBinding struct {
		m       *Manager
		bd      *manifest.BindingDescriptor
		pkg     *manifest.Package
		index   int
		skipped bool
	}

	loadType struct {
		m        *Manager
		td       *manifest.BindingTypeDescriptor
		pkg      *manifest.Package
		previous *manifest.BindingTypeDescriptor
		index    int
	}

	unloadType struct {
		m       *Manager
		td      *manifest.BindingTypeDescriptor
		pkg     *manifest.Package
		index   int
		skipped bool
	}

	// enableBindingUUID and disableBindingUUID remember the position of the
	// UUID in both lists (-1 when absent) so that rollback restores it exactly.
	enableBindingUUID struct {
		info                  *manifest.InstallInfo
		id                    uuid.UUID
		enabledAt, disabledAt int
	}

	disableBindingUUID struct {
		info                  *manifest.InstallInfo
		id                    uuid.UUID
		enabledAt, disabledAt int
	}

	// bind and unbind capture a value snapshot of the binding, so that later
	// changes to the descriptor never alter the rollback arguments.
	bind struct {
		reg     registry.Registry
		binding registry.Binding
	}

	unbind struct {
		reg     registry.Registry
		binding registry.Binding
	}

	defineType struct {
		reg registry.Registry
		typ registry.BindingType
	}

	// undefineType remembers the bindings the registry drops with the type.
	undefineType struct {
		reg     registry.Registry
		typ     registry.BindingType
		dropped []registry.Binding
	}

	// syncBindingUUID reconciles the registry with the enabled declaration
	// of a UUID. TakeSnapshot must be called before Execute.
	syncBindingUUID struct {
		m        *Manager
		id       uuid.UUID
		snapshot bool
		before   *registry.Binding
		after    *registry.Binding
	}

	// syncTypeName reconciles the registry with the enabled declaration of
	// a type name. TakeSnapshot must be called before Execute.
	// It also reconciles every UUID that has a declaration of the type.
	syncTypeName struct {
		m        *Manager
		name     string
		snapshot bool
		change   typeChange
		dropped  []registry.Binding
	}

	// saveRootPackageFile persists the root manifest. It is always the last
	// operation of a transaction and has nothing to roll back.
	saveRootPackageFile struct {
		ctx     context.Context
		storage Storage
		file    *manifest.RootPackageFile
	}
)

var (
	_ transaction.Operation = (*addBindingToManifest)(nil)
	_ transaction.Operation = (*removeBindingFromManifest)(nil)
	_ transaction.Operation = (*addTypeToManifest)(nil)
	_ transaction.Operation = (*removeTypeFromManifest)(nil)
	_ transaction.Operation = (*loadBinding)(nil)
	_ transaction.Operation = (*unloadBinding)(nil)
	_ transaction.Operation = (*loadType)(nil)
	_ transaction.Operation = (*unloadType)(nil)
	_ transaction.Operation = (*enableBindingUUID)(nil)
	_ transaction.Operation = (*disableBindingUUID)(nil)
	_ transaction.Operation = (*bind)(nil)
	_ transaction.Operation = (*unbind)(nil)
	_ transaction.Operation = (*defineType)(nil)
	_ transaction.Operation = (*undefineType)(nil)
	_ transaction.Operation = (*syncBindingUUID)(nil)
	_ transaction.Operation = (*syncTypeName)(nil)
	_ transaction.Operation = (*saveRootPackageFile)(nil)
)

func (o *addBindingToManifest) Execute() error {
	o.previous, _ = o.file.BindingDescriptor(o.bd.UUID())
	o.file.AddBindingDescriptor(o.bd)
	return nil
}

func (o *addBindingToManifest) Rollback() error {
	if o.previous != nil {
		o.file.AddBindingDescriptor(o.previous)
		return nil
	}
	o.file.RemoveBindingDescriptor(o.bd.UUID())
	return nil
}

func (o *removeBindingFromManifest) Execute() error {
	o.removed, _ = o.file.BindingDescriptor(o.id)
	o.index = o.file.RemoveBindingDescriptor(o.id)
	return nil
}

func (o *removeBindingFromManifest) Rollback() error {
	if o.removed != nil {
		o.file.InsertBindingDescriptor(o.index, o.removed)
	}
	return nil
}

func (o *addTypeToManifest) Execute() error {
	o.previous, _ = o.file.TypeDescriptor(o.td.Name())
	o.file.AddTypeDescriptor(o.td)
	return nil
}

func (o *addTypeToManifest) Rollback() error {
	if o.previous != nil {
		o.file.AddTypeDescriptor(o.previous)
		return nil
	}
	o.file.RemoveTypeDescriptor(o.td.Name())
	return nil
}

func (o *removeTypeFromManifest) Execute() error {
	o.removed, _ = o.file.TypeDescriptor(o.name)
	o.index = o.file.RemoveTypeDescriptor(o.name)
	return nil
}

func (o *removeTypeFromManifest) Rollback() error {
	if o.removed != nil {
		o.file.InsertTypeDescriptor(o.index, o.removed)
	}
	return nil
}

func (o *loadBinding) Execute() error {
	id, name := o.bd.UUID(), o.pkg.Name()
	o.previous, _ = o.m.bindings.GetForPackage(id, name)
	o.index = o.m.bindings.Index(id, name)
	o.m.bindings.Add(id, name, o.bd)
	if !o.bd.IsLoaded() {
		if err := o.bd.Load(o.pkg, o.m.typeFor(o.bd.TypeName())); err != nil {
			o.restore()
			return err
		}
	}
	return nil
}

func (o *loadBinding) Rollback() error {
	if o.bd.IsLoaded() {
		if err := o.bd.Unload(); err != nil {
			return err
		}
	}
	o.restore()
	return nil
}

func (o *loadBinding) restore() {
	id, name := o.bd.UUID(), o.pkg.Name()
	if o.previous != nil {
		o.m.bindings.Insert(id, name, o.index, o.previous)
		return
	}
	o.m.bindings.Remove(id, name)
}

func (o *unloadBinding) Execute() error {
	if !o.bd.IsLoaded() {
		o.skipped = true
		return nil
	}
	o.skipped = false
	o.pkg = o.bd.ContainingPackage()
	o.index = o.m.bindings.Index(o.bd.UUID(), o.pkg.Name())
	if err := o.bd.Unload(); err != nil {
		return err
	}
	o.m.bindings.Remove(o.bd.UUID(), o.pkg.Name())
	return nil
}

func (o *unloadBinding) Rollback() error {
	if o.skipped {
		return nil
	}
	o.m.bindings.Insert(o.bd.UUID(), o.pkg.Name(), o.index, o.bd)
	return o.bd.Load(o.pkg, o.m.typeFor(o.bd.TypeName()))
}

func (o *loadType) Execute() error {
	name, pkgName := o.td.Name(), o.pkg.Name()
	o.previous, _ = o.m.types.GetForPackage(name, pkgName)
	o.index = o.m.types.Index(name, pkgName)
	o.m.types.Add(name, pkgName, o.td)
	if !o.td.IsLoaded() {
		if err := o.td.Load(o.pkg); err != nil {
			o.restore()
			return err
		}
	}
	return nil
}

func (o *loadType) Rollback() error {
	if o.td.IsLoaded() {
		if err := o.td.Unload(); err != nil {
			return err
		}
	}
	o.restore()
	return nil
}

func (o *loadType) restore() {
	name, pkgName := o.td.Name(), o.pkg.Name()
	if o.previous != nil {
		o.m.types.Insert(name, pkgName, o.index, o.previous)
		return
	}
	o.m.types.Remove(name, pkgName)
}

func (o *unloadType) Execute() error {
	if !o.td.IsLoaded() {
		o.skipped = true
		return nil
	}
	o.skipped = false
	o.pkg = o.td.ContainingPackage()
	o.index = o.m.types.Index(o.td.Name(), o.pkg.Name())
	if err := o.td.Unload(); err != nil {
		return err
	}
	o.m.types.Remove(o.td.Name(), o.pkg.Name())
	return nil
}

func (o *unloadType) Rollback() error {
	if o.skipped {
		return nil
	}
	o.m.types.Insert(o.td.Name(), o.pkg.Name(), o.index, o.td)
	return o.td.Load(o.pkg)
}

func (o *enableBindingUUID) Execute() error {
	o.enabledAt = o.info.EnabledBindingIndex(o.id)
	o.disabledAt = o.info.DisabledBindingIndex(o.id)
	o.info.AddEnabledBindingUUID(o.id)
	return nil
}

func (o *enableBindingUUID) Rollback() error {
	restoreMembership(o.info, o.id, o.enabledAt, o.disabledAt)
	return nil
}

func (o *disableBindingUUID) Execute() error {
	o.enabledAt = o.info.EnabledBindingIndex(o.id)
	o.disabledAt = o.info.DisabledBindingIndex(o.id)
	o.info.AddDisabledBindingUUID(o.id)
	return nil
}

func (o *disableBindingUUID) Rollback() error {
	restoreMembership(o.info, o.id, o.enabledAt, o.disabledAt)
	return nil
}

func restoreMembership(info *manifest.InstallInfo, id uuid.UUID, enabledAt, disabledAt int) {
	info.RemoveEnabledBindingUUID(id)
	info.RemoveDisabledBindingUUID(id)
	switch {
	case enabledAt >= 0:
		info.InsertEnabledBindingUUID(enabledAt, id)
	case disabledAt >= 0:
		info.InsertDisabledBindingUUID(disabledAt, id)
	}
}

func (o *bind) Execute() error  { return bindValue(o.reg, o.binding) }
func (o *bind) Rollback() error { return unbindValue(o.reg, o.binding) }

func (o *unbind) Execute() error  { return unbindValue(o.reg, o.binding) }
func (o *unbind) Rollback() error { return bindValue(o.reg, o.binding) }

func (o *defineType) Execute() error  { return o.reg.DefineType(o.typ) }
func (o *defineType) Rollback() error { return o.reg.UndefineType(o.typ.Name) }

func (o *undefineType) Execute() error {
	o.dropped = bindingsOfType(o.reg, o.typ.Name)
	return o.reg.UndefineType(o.typ.Name)
}

func (o *undefineType) Rollback() error {
	return redefine(o.reg, o.typ, o.dropped)
}

// TakeSnapshot records the registry view of the currently enabled declaration.
func (o *syncBindingUUID) TakeSnapshot() {
	o.before = o.m.enabledBinding(o.id)
	o.snapshot = true
}

func (o *syncBindingUUID) Execute() error {
	if !o.snapshot {
		panic("discovery: syncBindingUUID executed without a snapshot")
	}
	o.after = o.m.enabledBinding(o.id)
	return o.m.reconcileBinding(o.id, o.before, o.after)
}

func (o *syncBindingUUID) Rollback() error {
	return o.m.reconcileBinding(o.id, o.after, o.before)
}

// TakeSnapshot records the registry view of the currently enabled type and
// of the bindings that depend on it.
func (o *syncTypeName) TakeSnapshot() {
	ids := o.m.uuidsOfType(o.name)
	o.change = typeChange{
		name:         o.name,
		ids:          ids,
		from:         o.m.enabledType(o.name),
		fromBindings: o.m.enabledBindings(ids),
	}
	o.snapshot = true
}

func (o *syncTypeName) Execute() error {
	if !o.snapshot {
		panic("discovery: syncTypeName executed without a snapshot")
	}
	o.change.to = o.m.enabledType(o.name)
	o.change.toBindings = o.m.enabledBindings(o.change.ids)
	var err error
	o.dropped, err = o.m.reconcileType(o.change)
	return err
}

func (o *syncTypeName) Rollback() error {
	_, err := o.m.reconcileType(o.change.reverse(o.dropped))
	return err
}

func (o *saveRootPackageFile) Execute() error {
	return o.storage.SaveRootPackageFile(o.ctx, o.file)
}

func (o *saveRootPackageFile) Rollback() error { return nil }

func bindValue(reg registry.Registry, b registry.Binding) error {
	return reg.Bind(b.Query, b.TypeName, b.Parameters, b.Language)
}

func unbindValue(reg registry.Registry, b registry.Binding) error {
	return reg.Unbind(b.Query, b.TypeName, b.Parameters, b.Language)
}

func bindingsOfType(reg registry.Registry, name string) []registry.Binding {
	var out []registry.Binding
	for _, b := range reg.Bindings() {
		if b.TypeName == name {
			out = append(out, b)
		}
	}
	return out
}

// redefine defines t and binds bindings again. On failure the registry is
// left without t.
func redefine(reg registry.Registry, t registry.BindingType, bindings []registry.Binding) error {
	if err := reg.DefineType(t); err != nil {
		return err
	}
	for _, b := range bindings {
		if err := bindValue(reg, b); err != nil {
			_ = reg.UndefineType(t.Name)
			return err
		}
	}
	return nil
}
