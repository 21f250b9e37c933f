// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"slices"

	"github.com/pkgbind/pkgbind/pkg/types"
)

type (
	// Memory is an in-process Registry. Types and bindings keep their
	// definition order; binding the same binding twice is a no-op.
	Memory struct {
		types    []BindingType
		bindings []Binding
		matcher  Matcher
	}

	// MemoryOption configures a Memory registry.
	MemoryOption func(*Memory)

	// memoryState is a copy of a Memory's contents, used to undo a
	// mutation whose persistence failed.
	memoryState struct {
		types    []BindingType
		bindings []Binding
	}
)

var _ Registry = (*Memory)(nil)

// WithMatcher makes Bind reject queries that match no resource.
func WithMatcher(m Matcher) MemoryOption {
	return func(r *Memory) { r.matcher = m }
}

// NewMemory creates an empty in-memory registry.
func NewMemory(opts ...MemoryOption) *Memory {
	r := &Memory{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefineType adds a binding type.
func (r *Memory) DefineType(t BindingType) error {
	if _, ok := r.typeIndex(t.Name); ok {
		return &DuplicateTypeError{Name: t.Name}
	}
	t.Parameters = slices.Clone(t.Parameters)
	r.types = append(r.types, t)
	return nil
}

// UndefineType removes a binding type and every binding of that type.
func (r *Memory) UndefineType(name string) error {
	i, ok := r.typeIndex(name)
	if !ok {
		return nil
	}
	r.types = slices.Delete(r.types, i, i+1)
	r.bindings = slices.DeleteFunc(r.bindings, func(b Binding) bool { return b.TypeName == name })
	return nil
}

// Bind adds a binding after checking its type, parameters and query.
func (r *Memory) Bind(query, typeName string, params map[string]any, language types.QueryLanguage) error {
	i, ok := r.typeIndex(typeName)
	if !ok {
		return &NoSuchTypeError{Name: typeName}
	}
	if errs := r.types[i].ValidateParameters(params); len(errs) > 0 {
		return errs[0]
	}
	if err := language.Validate(); err != nil {
		return err
	}
	if r.matcher != nil {
		matches, err := r.matcher.Matches(query, language)
		if err != nil {
			return err
		}
		if !matches {
			return &NoQueryMatchesError{Query: query, Language: language}
		}
	}

	b := Binding{Query: query, TypeName: typeName, Language: language, Parameters: cloneParams(params)}
	if r.bindingIndex(b) >= 0 {
		return nil
	}
	r.bindings = append(r.bindings, b)
	return nil
}

// Unbind removes a binding.
func (r *Memory) Unbind(query, typeName string, params map[string]any, language types.QueryLanguage) error {
	i := r.bindingIndex(Binding{Query: query, TypeName: typeName, Language: language, Parameters: params})
	if i >= 0 {
		r.bindings = slices.Delete(r.bindings, i, i+1)
	}
	return nil
}

// Bindings returns all bindings in definition order.
func (r *Memory) Bindings() []Binding {
	out := make([]Binding, len(r.bindings))
	for i, b := range r.bindings {
		b.Parameters = cloneParams(b.Parameters)
		out[i] = b
	}
	return out
}

// DefinedTypes returns all binding types in definition order.
func (r *Memory) DefinedTypes() []BindingType {
	out := make([]BindingType, len(r.types))
	for i, t := range r.types {
		t.Parameters = slices.Clone(t.Parameters)
		out[i] = t
	}
	return out
}

// Clear removes all types and bindings.
func (r *Memory) Clear() error {
	r.types = nil
	r.bindings = nil
	return nil
}

func (r *Memory) typeIndex(name string) (int, bool) {
	i := slices.IndexFunc(r.types, func(t BindingType) bool { return t.Name == name })
	return i, i >= 0
}

func (r *Memory) bindingIndex(b Binding) int {
	key := b.Key()
	return slices.IndexFunc(r.bindings, func(o Binding) bool { return o.Key() == key })
}

func (r *Memory) snapshot() memoryState {
	return memoryState{types: r.DefinedTypes(), bindings: r.Bindings()}
}

func (r *Memory) restore(s memoryState) {
	r.types = s.types
	r.bindings = s.bindings
}
