// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkgbind/pkgbind/pkg/manifest"
	"github.com/pkgbind/pkgbind/pkg/registry"
	"github.com/pkgbind/pkgbind/pkg/types"
)

type (
	// recordingRegistry records every mutating call before delegating to an
	// in-memory registry.
	recordingRegistry struct {
		*registry.Memory
		calls   []string
		binds   []registry.Binding
		unbinds []registry.Binding
	}

	fakeStorage struct {
		saves int
		err   error
	}

	recordingLogger struct {
		warnings []string
	}

	testEnv struct {
		rootFile *manifest.RootPackageFile
		root     *manifest.Package
		packages *manifest.PackageCollection
		registry *recordingRegistry
		storage  *fakeStorage
		logger   *recordingLogger
	}
)

func (r *recordingRegistry) DefineType(t registry.BindingType) error {
	r.calls = append(r.calls, "define "+t.Name)
	return r.Memory.DefineType(t)
}

func (r *recordingRegistry) UndefineType(name string) error {
	r.calls = append(r.calls, "undefine "+name)
	return r.Memory.UndefineType(name)
}

func (r *recordingRegistry) Bind(query, typeName string, params map[string]any, language types.QueryLanguage) error {
	r.calls = append(r.calls, "bind "+query)
	r.binds = append(r.binds, registry.Binding{Query: query, TypeName: typeName, Parameters: params, Language: language})
	return r.Memory.Bind(query, typeName, params, language)
}

func (r *recordingRegistry) Unbind(query, typeName string, params map[string]any, language types.QueryLanguage) error {
	r.calls = append(r.calls, "unbind "+query)
	r.unbinds = append(r.unbinds, registry.Binding{Query: query, TypeName: typeName, Parameters: params, Language: language})
	return r.Memory.Unbind(query, typeName, params, language)
}

func (r *recordingRegistry) reset() {
	r.calls, r.binds, r.unbinds = nil, nil, nil
}

func (s *fakeStorage) SaveRootPackageFile(_ context.Context, _ *manifest.RootPackageFile) error {
	if s.err != nil {
		return s.err
	}
	s.saves++
	return nil
}

func (l *recordingLogger) Warn(msg any, _ ...any) { l.warnings = append(l.warnings, fmt.Sprint(msg)) }
func (l *recordingLogger) Debug(any, ...any)      {}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	rootFile := manifest.NewRootPackageFile("vendor/root")
	root := manifest.NewRootPackage(rootFile, t.TempDir())
	return &testEnv{
		rootFile: rootFile,
		root:     root,
		packages: manifest.NewPackageCollection(root),
		registry: &recordingRegistry{Memory: registry.NewMemory()},
		storage:  &fakeStorage{},
		logger:   &recordingLogger{},
	}
}

// addPackage installs a package whose manifest is filled by fill.
func (e *testEnv) addPackage(t *testing.T, name string, fill func(f *manifest.PackageFile)) *manifest.Package {
	t.Helper()
	info, err := manifest.NewInstallInfo(name, name)
	if err != nil {
		t.Fatal(err)
	}
	e.rootFile.AddInstallInfo(info)
	f := manifest.NewPackageFile(name)
	if fill != nil {
		fill(f)
	}
	pkg := manifest.NewPackage(f, name, info)
	e.packages.Add(pkg)
	return pkg
}

func (e *testEnv) manager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(e.packages, e.registry, e.storage, WithLogger(e.logger))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// build populates the registry and forgets the calls and warnings it caused.
func (e *testEnv) build(t *testing.T, m *Manager) {
	t.Helper()
	if err := m.BuildDiscovery(context.Background()); err != nil {
		t.Fatalf("BuildDiscovery() error: %v", err)
	}
	e.registry.reset()
	e.logger.warnings = nil
}

func newType(t *testing.T, name string, params ...manifest.BindingParameter) *manifest.BindingTypeDescriptor {
	t.Helper()
	td, err := manifest.NewBindingTypeDescriptor(name, manifest.WithParameters(params...))
	if err != nil {
		t.Fatal(err)
	}
	return td
}

// myType is "my/type" with an optional parameter "param" defaulting to "default".
func myType(t *testing.T) *manifest.BindingTypeDescriptor {
	t.Helper()
	return newType(t, "my/type", manifest.BindingParameter{Name: "param", Default: "default"})
}

func newBinding(t *testing.T, query, typeName string, opts ...manifest.BindingOption) *manifest.BindingDescriptor {
	t.Helper()
	bd, err := manifest.NewBindingDescriptor(query, typeName, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return bd
}
