// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkgbind/pkgbind/pkg/types"
)

type (
	// File is a Memory registry persisted as JSON. Every successful mutation
	// is written through; if writing fails the mutation is undone and the
	// write error returned.
	File struct {
		mem  *Memory
		path string
	}

	fileContents struct {
		Types    []BindingType `json:"types"`
		Bindings []Binding     `json:"bindings"`
	}
)

var _ Registry = (*File)(nil)

// OpenFile loads the registry stored at path. A missing file yields an empty
// registry; the file is created on the first mutation.
func OpenFile(path string, opts ...MemoryOption) (*File, error) {
	r := &File{mem: NewMemory(opts...), path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read discovery registry %s: %w", path, err)
	}

	var contents fileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return nil, fmt.Errorf("failed to parse discovery registry %s: %w", path, err)
	}
	for i := range contents.Types {
		for j, p := range contents.Types[i].Parameters {
			if n, err := types.NormalizeScalar(p.Default); err == nil {
				contents.Types[i].Parameters[j].Default = n
			}
		}
	}
	for i := range contents.Bindings {
		contents.Bindings[i].Parameters = cloneParams(contents.Bindings[i].Parameters)
	}
	r.mem.types = contents.Types
	r.mem.bindings = contents.Bindings
	return r, nil
}

// Path returns the location of the registry file.
func (r *File) Path() string { return r.path }

// DefineType adds a binding type.
func (r *File) DefineType(t BindingType) error {
	return r.mutate(func() error { return r.mem.DefineType(t) })
}

// UndefineType removes a binding type and its bindings.
func (r *File) UndefineType(name string) error {
	return r.mutate(func() error { return r.mem.UndefineType(name) })
}

// Bind adds a binding.
func (r *File) Bind(query, typeName string, params map[string]any, language types.QueryLanguage) error {
	return r.mutate(func() error { return r.mem.Bind(query, typeName, params, language) })
}

// Unbind removes a binding.
func (r *File) Unbind(query, typeName string, params map[string]any, language types.QueryLanguage) error {
	return r.mutate(func() error { return r.mem.Unbind(query, typeName, params, language) })
}

// Bindings returns all bindings.
func (r *File) Bindings() []Binding { return r.mem.Bindings() }

// DefinedTypes returns all binding types.
func (r *File) DefinedTypes() []BindingType { return r.mem.DefinedTypes() }

// Clear removes all types and bindings.
func (r *File) Clear() error {
	return r.mutate(r.mem.Clear)
}

func (r *File) mutate(fn func() error) error {
	before := r.mem.snapshot()
	if err := fn(); err != nil {
		return err
	}
	if err := r.save(); err != nil {
		r.mem.restore(before)
		return err
	}
	return nil
}

func (r *File) save() error {
	data, err := json.MarshalIndent(fileContents{Types: r.mem.DefinedTypes(), Bindings: r.mem.Bindings()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode discovery registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create discovery registry directory: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write discovery registry %s: %w", r.path, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace discovery registry %s: %w", r.path, err)
	}
	return nil
}
