// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// DefaultVersion is the manifest format version written by Encode.
const DefaultVersion = "1.0"

type (
	// PackageFile is the manifest of one package. Type descriptors are keyed
	// by name and binding descriptors by UUID; both keep insertion order.
	PackageFile struct {
		path      string
		name      string
		version   string
		overrides []string

		typeDescriptors    []*BindingTypeDescriptor
		bindingDescriptors []*BindingDescriptor
	}

	// RootPackageFile is the manifest of the project itself.
	RootPackageFile struct {
		PackageFile

		overrideOrder []string
		installInfos  []*InstallInfo
	}
)

// NewPackageFile creates an empty package file.
func NewPackageFile(name string) *PackageFile {
	return &PackageFile{name: name, version: DefaultVersion}
}

// NewRootPackageFile creates an empty root package file.
func NewRootPackageFile(name string) *RootPackageFile {
	return &RootPackageFile{PackageFile: PackageFile{name: name, version: DefaultVersion}}
}

// Path returns the file path the manifest was read from, if any.
func (f *PackageFile) Path() string { return f.path }

// SetPath records the file path of the manifest.
func (f *PackageFile) SetPath(path string) { f.path = path }

// Name returns the declared package name, which may be empty.
func (f *PackageFile) Name() string { return f.name }

// SetName sets the declared package name.
func (f *PackageFile) SetName(name string) { f.name = name }

// Version returns the manifest format version.
func (f *PackageFile) Version() string { return f.version }

// Overrides returns the names of the packages this package overrides.
func (f *PackageFile) Overrides() []string { return slices.Clone(f.overrides) }

// AddOverride appends a package to the override list.
func (f *PackageFile) AddOverride(name string) {
	if !slices.Contains(f.overrides, name) {
		f.overrides = append(f.overrides, name)
	}
}

// OverridesPackage reports whether this package overrides the named package.
func (f *PackageFile) OverridesPackage(name string) bool { return slices.Contains(f.overrides, name) }

// AddBindingDescriptor adds d, replacing a descriptor with the same UUID in place.
func (f *PackageFile) AddBindingDescriptor(d *BindingDescriptor) {
	if i := f.bindingIndex(d.UUID()); i >= 0 {
		f.bindingDescriptors[i] = d
		return
	}
	f.bindingDescriptors = append(f.bindingDescriptors, d)
}

// InsertBindingDescriptor inserts d at index i, clamped to the list bounds.
// A descriptor with the same UUID is removed first.
func (f *PackageFile) InsertBindingDescriptor(i int, d *BindingDescriptor) {
	f.RemoveBindingDescriptor(d.UUID())
	i = min(max(i, 0), len(f.bindingDescriptors))
	f.bindingDescriptors = slices.Insert(f.bindingDescriptors, i, d)
}

// RemoveBindingDescriptor removes the descriptor with the given UUID and
// returns its former index, or -1 if there was none.
func (f *PackageFile) RemoveBindingDescriptor(id uuid.UUID) int {
	i := f.bindingIndex(id)
	if i >= 0 {
		f.bindingDescriptors = slices.Delete(f.bindingDescriptors, i, i+1)
	}
	return i
}

// BindingDescriptor returns the descriptor with the given UUID.
func (f *PackageFile) BindingDescriptor(id uuid.UUID) (*BindingDescriptor, bool) {
	if i := f.bindingIndex(id); i >= 0 {
		return f.bindingDescriptors[i], true
	}
	return nil, false
}

// HasBindingDescriptor reports whether a descriptor with the given UUID exists.
func (f *PackageFile) HasBindingDescriptor(id uuid.UUID) bool { return f.bindingIndex(id) >= 0 }

// HasBindingDescriptors reports whether the file declares any binding.
func (f *PackageFile) HasBindingDescriptors() bool { return len(f.bindingDescriptors) > 0 }

// BindingDescriptors returns the binding descriptors in insertion order.
func (f *PackageFile) BindingDescriptors() []*BindingDescriptor {
	return slices.Clone(f.bindingDescriptors)
}

// FindBindingDescriptors returns the descriptors matching pred.
func (f *PackageFile) FindBindingDescriptors(pred func(*BindingDescriptor) bool) []*BindingDescriptor {
	var out []*BindingDescriptor
	for _, d := range f.bindingDescriptors {
		if pred(d) {
			out = append(out, d)
		}
	}
	return out
}

// AddTypeDescriptor adds t, replacing a descriptor with the same name in place.
func (f *PackageFile) AddTypeDescriptor(t *BindingTypeDescriptor) {
	if i := f.typeIndex(t.Name()); i >= 0 {
		f.typeDescriptors[i] = t
		return
	}
	f.typeDescriptors = append(f.typeDescriptors, t)
}

// InsertTypeDescriptor inserts t at index i, clamped to the list bounds. A
// descriptor with the same name is removed first.
func (f *PackageFile) InsertTypeDescriptor(i int, t *BindingTypeDescriptor) {
	f.RemoveTypeDescriptor(t.Name())
	i = min(max(i, 0), len(f.typeDescriptors))
	f.typeDescriptors = slices.Insert(f.typeDescriptors, i, t)
}

// RemoveTypeDescriptor removes the named descriptor and returns its former
// index, or -1 if there was none.
func (f *PackageFile) RemoveTypeDescriptor(name string) int {
	i := f.typeIndex(name)
	if i >= 0 {
		f.typeDescriptors = slices.Delete(f.typeDescriptors, i, i+1)
	}
	return i
}

// TypeDescriptor returns the named type descriptor.
func (f *PackageFile) TypeDescriptor(name string) (*BindingTypeDescriptor, bool) {
	if i := f.typeIndex(name); i >= 0 {
		return f.typeDescriptors[i], true
	}
	return nil, false
}

// HasTypeDescriptor reports whether the named type is declared.
func (f *PackageFile) HasTypeDescriptor(name string) bool { return f.typeIndex(name) >= 0 }

// TypeDescriptors returns the type descriptors in insertion order.
func (f *PackageFile) TypeDescriptors() []*BindingTypeDescriptor {
	return slices.Clone(f.typeDescriptors)
}

// FindTypeDescriptors returns the type descriptors matching pred.
func (f *PackageFile) FindTypeDescriptors(pred func(*BindingTypeDescriptor) bool) []*BindingTypeDescriptor {
	var out []*BindingTypeDescriptor
	for _, t := range f.typeDescriptors {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

func (f *PackageFile) bindingIndex(id uuid.UUID) int {
	return slices.IndexFunc(f.bindingDescriptors, func(d *BindingDescriptor) bool { return d.UUID() == id })
}

func (f *PackageFile) typeIndex(name string) int {
	return slices.IndexFunc(f.typeDescriptors, func(t *BindingTypeDescriptor) bool { return t.Name() == name })
}

// OverrideOrder returns the explicit order in which conflicting packages win.
func (f *RootPackageFile) OverrideOrder() []string { return slices.Clone(f.overrideOrder) }

// SetOverrideOrder replaces the override order.
func (f *RootPackageFile) SetOverrideOrder(names []string) { f.overrideOrder = slices.Clone(names) }

// AddInstallInfo adds info, replacing a record for the same package in place.
func (f *RootPackageFile) AddInstallInfo(info *InstallInfo) {
	if i := f.installIndex(info.PackageName()); i >= 0 {
		f.installInfos[i] = info
		return
	}
	f.installInfos = append(f.installInfos, info)
}

// RemoveInstallInfo removes the record of the named package.
func (f *RootPackageFile) RemoveInstallInfo(packageName string) bool {
	i := f.installIndex(packageName)
	if i < 0 {
		return false
	}
	f.installInfos = slices.Delete(f.installInfos, i, i+1)
	return true
}

// InstallInfo returns the record of the named package.
func (f *RootPackageFile) InstallInfo(packageName string) (*InstallInfo, bool) {
	if i := f.installIndex(packageName); i >= 0 {
		return f.installInfos[i], true
	}
	return nil, false
}

// HasInstallInfo reports whether the named package is installed.
func (f *RootPackageFile) HasInstallInfo(packageName string) bool {
	return f.installIndex(packageName) >= 0
}

// InstallInfos returns the install records in insertion order.
func (f *RootPackageFile) InstallInfos() []*InstallInfo { return slices.Clone(f.installInfos) }

func (f *RootPackageFile) installIndex(name string) int {
	return slices.IndexFunc(f.installInfos, func(i *InstallInfo) bool { return i.PackageName() == name })
}

// Clone returns a deep copy of the file. The copied descriptors are
// unloaded and carry no marks.
func (f *PackageFile) Clone() *PackageFile {
	c := &PackageFile{
		path:      f.path,
		name:      f.name,
		version:   f.version,
		overrides: slices.Clone(f.overrides),
	}
	for _, t := range f.typeDescriptors {
		c.typeDescriptors = append(c.typeDescriptors, &BindingTypeDescriptor{
			name:        t.name,
			description: t.description,
			parameters:  slices.Clone(t.parameters),
		})
	}
	for _, d := range f.bindingDescriptors {
		c.bindingDescriptors = append(c.bindingDescriptors, &BindingDescriptor{
			uuid:            d.uuid,
			query:           d.query,
			language:        d.language,
			typeName:        d.typeName,
			parameterValues: maps.Clone(d.parameterValues),
		})
	}
	return c
}
