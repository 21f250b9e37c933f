// SPDX-License-Identifier: MPL-2.0

// Package project assembles a project environment: the root manifest, the
// manifests of installed packages, the discovery registry and the manager
// that keeps them consistent.
package project

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/pkgbind/pkgbind/internal/discovery"
	"github.com/pkgbind/pkgbind/internal/storage"
	"github.com/pkgbind/pkgbind/pkg/manifest"
	"github.com/pkgbind/pkgbind/pkg/registry"
)

// DefaultRegistryPath is where the discovery registry is stored, relative
// to the project directory.
var DefaultRegistryPath = filepath.Join(".pkgbind", "discovery.json")

type (
	// Options locates the parts of a project. Relative paths are resolved
	// against Dir.
	Options struct {
		Dir          string
		ManifestFile string
		RegistryPath string
		// ResourceRoot enables query checking: glob queries must match at
		// least one path below it.
		ResourceRoot string
		Logger       *log.Logger
	}

	// Project is a loaded project environment.
	Project struct {
		dir      string
		packages *manifest.PackageCollection
		registry *registry.File
		storage  *storage.FileStorage
		manager  *discovery.Manager
	}
)

// Open loads the root manifest and every installed package of the project in
// opts.Dir. A missing root manifest starts an empty project; installed
// packages whose manifest is missing or invalid are kept but not loaded.
func Open(opts Options) (*Project, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	store, err := storage.New()
	if err != nil {
		return nil, err
	}

	rootPath := resolve(dir, opts.ManifestFile, manifest.FileName)
	rootFile, err := store.LoadRootPackageFile(rootPath)
	switch {
	case errors.Is(err, storage.ErrManifestNotFound):
		logger.Debug("no root manifest, starting an empty project", "path", rootPath)
		rootFile = manifest.NewRootPackageFile("")
		rootFile.SetPath(rootPath)
	case err != nil:
		return nil, err
	}

	packages := manifest.NewPackageCollection(manifest.NewRootPackage(rootFile, dir))
	for _, info := range rootFile.InstallInfos() {
		pkg := loadPackage(store, dir, info)
		if !pkg.IsEnabled() {
			logger.Warn("installed package not loaded", "package", pkg.Name(), "state", pkg.State(),
				"error", errors.Join(pkg.LoadErrors()...))
		}
		packages.Add(pkg)
	}

	var regOpts []registry.MemoryOption
	if opts.ResourceRoot != "" {
		paths, err := registry.ResourcePaths(resolve(dir, opts.ResourceRoot, ""))
		if err != nil {
			return nil, fmt.Errorf("failed to list resources: %w", err)
		}
		regOpts = append(regOpts, registry.WithMatcher(registry.NewGlobMatcher(paths)))
	}
	reg, err := registry.OpenFile(resolve(dir, opts.RegistryPath, DefaultRegistryPath), regOpts...)
	if err != nil {
		return nil, err
	}

	manager, err := discovery.New(packages, reg, store, discovery.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Project{dir: dir, packages: packages, registry: reg, storage: store, manager: manager}, nil
}

// Dir returns the absolute project directory.
func (p *Project) Dir() string { return p.dir }

// Packages returns the root and installed packages.
func (p *Project) Packages() *manifest.PackageCollection { return p.packages }

// RootFile returns the root manifest.
func (p *Project) RootFile() *manifest.RootPackageFile { return p.packages.RootPackage().RootFile() }

// Registry returns the discovery registry.
func (p *Project) Registry() *registry.File { return p.registry }

// Manager returns the discovery manager.
func (p *Project) Manager() *discovery.Manager { return p.manager }

func loadPackage(store *storage.FileStorage, dir string, info *manifest.InstallInfo) *manifest.Package {
	installPath := resolve(dir, info.InstallPath(), "")
	f, err := store.LoadPackageFile(filepath.Join(installPath, manifest.FileName))
	switch {
	case errors.Is(err, storage.ErrManifestNotFound):
		return manifest.NewPackage(nil, installPath, info)
	case err != nil:
		return manifest.NewPackage(nil, installPath, info, err)
	}
	if f.Name() == "" {
		f.SetName(info.PackageName())
	}
	return manifest.NewPackage(f, installPath, info)
}

// resolve returns path relative to dir, or fallback if path is empty.
func resolve(dir, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
