// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"slices"
)

// DefaultRootPackageName names the root package when its manifest declares none.
const DefaultRootPackageName = "__root__"

type (
	// Package is a package of the project: its manifest, where it lives and
	// how it was installed.
	Package struct {
		name        string
		file        *PackageFile
		rootFile    *RootPackageFile
		installPath string
		installInfo *InstallInfo
		root        bool
		loadErrors  []error
	}

	// PackageCollection holds the packages of a project in insertion order.
	PackageCollection struct {
		packages []*Package
	}
)

// NewRootPackage creates the root package from its manifest.
func NewRootPackage(file *RootPackageFile, installPath string) *Package {
	name := file.Name()
	if name == "" {
		name = DefaultRootPackageName
	}
	return &Package{
		name:        name,
		file:        &file.PackageFile,
		rootFile:    file,
		installPath: installPath,
		root:        true,
	}
}

// NewPackage creates an installed package. file is nil when the manifest
// could not be found or loaded; loadErrors then explain why.
func NewPackage(file *PackageFile, installPath string, info *InstallInfo, loadErrors ...error) *Package {
	name := ""
	if info != nil {
		name = info.PackageName()
	}
	if name == "" && file != nil {
		name = file.Name()
	}
	return &Package{
		name:        name,
		file:        file,
		installPath: installPath,
		installInfo: info,
		loadErrors:  loadErrors,
	}
}

// Name returns the package name.
func (p *Package) Name() string { return p.name }

// File returns the package manifest, or nil if it could not be loaded.
func (p *Package) File() *PackageFile { return p.file }

// RootFile returns the root manifest for the root package and nil otherwise.
func (p *Package) RootFile() *RootPackageFile { return p.rootFile }

// InstallPath returns the directory of the package.
func (p *Package) InstallPath() string { return p.installPath }

// InstallInfo returns the install record, nil for the root package.
func (p *Package) InstallInfo() *InstallInfo { return p.installInfo }

// IsRoot reports whether this is the root package.
func (p *Package) IsRoot() bool { return p.root }

// LoadErrors returns the errors that prevented loading the manifest.
func (p *Package) LoadErrors() []error { return p.loadErrors }

// State reports whether the package could be loaded.
func (p *Package) State() PackageState {
	switch {
	case p.file != nil:
		return PackageEnabled
	case len(p.loadErrors) > 0:
		return PackageNotLoadable
	default:
		return PackageNotFound
	}
}

// IsEnabled reports whether the package manifest was loaded.
func (p *Package) IsEnabled() bool { return p.State() == PackageEnabled }

// NewPackageCollection creates a collection holding pkgs.
func NewPackageCollection(pkgs ...*Package) *PackageCollection {
	c := &PackageCollection{}
	for _, p := range pkgs {
		c.Add(p)
	}
	return c
}

// Add adds p, replacing a package with the same name in place.
func (c *PackageCollection) Add(p *Package) {
	if i := c.index(p.Name()); i >= 0 {
		c.packages[i] = p
		return
	}
	c.packages = append(c.packages, p)
}

// Remove removes the named package.
func (c *PackageCollection) Remove(name string) bool {
	i := c.index(name)
	if i < 0 {
		return false
	}
	c.packages = slices.Delete(c.packages, i, i+1)
	return true
}

// Get returns the named package.
func (c *PackageCollection) Get(name string) (*Package, bool) {
	if i := c.index(name); i >= 0 {
		return c.packages[i], true
	}
	return nil, false
}

// Contains reports whether the named package is part of the collection.
func (c *PackageCollection) Contains(name string) bool { return c.index(name) >= 0 }

// RootPackage returns the root package, or nil.
func (c *PackageCollection) RootPackage() *Package {
	for _, p := range c.packages {
		if p.IsRoot() {
			return p
		}
	}
	return nil
}

// RootPackageName returns the name of the root package, or "".
func (c *PackageCollection) RootPackageName() string {
	if root := c.RootPackage(); root != nil {
		return root.Name()
	}
	return ""
}

// Packages returns all packages in insertion order.
func (c *PackageCollection) Packages() []*Package { return slices.Clone(c.packages) }

// InstalledPackages returns all packages except the root package.
func (c *PackageCollection) InstalledPackages() []*Package {
	return slices.DeleteFunc(slices.Clone(c.packages), (*Package).IsRoot)
}

// EnabledPackages returns the packages whose manifests were loaded.
func (c *PackageCollection) EnabledPackages() []*Package {
	return slices.DeleteFunc(slices.Clone(c.packages), func(p *Package) bool { return !p.IsEnabled() })
}

// Names returns the package names in insertion order.
func (c *PackageCollection) Names() []string {
	names := make([]string, len(c.packages))
	for i, p := range c.packages {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of packages.
func (c *PackageCollection) Len() int { return len(c.packages) }

func (c *PackageCollection) index(name string) int {
	return slices.IndexFunc(c.packages, func(p *Package) bool { return p.Name() == name })
}
