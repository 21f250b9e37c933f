// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/pkgbind/pkgbind/pkg/types"
)

type (
	// Registry is the contract of a discovery registry.
	//
	// DefineType fails with ErrDuplicateType if the name is already defined.
	// Bind fails with ErrNoSuchType, ErrNoQueryMatches, ErrMissingParameter
	// or ErrNoSuchParameter. UndefineType and Unbind of unknown entries are
	// no-ops. Undefining a type also drops the bindings of that type.
	Registry interface {
		DefineType(t BindingType) error
		UndefineType(name string) error
		Bind(query, typeName string, params map[string]any, language types.QueryLanguage) error
		Unbind(query, typeName string, params map[string]any, language types.QueryLanguage) error
		Bindings() []Binding
		DefinedTypes() []BindingType
		Clear() error
	}

	// Parameter declares one parameter of a binding type.
	Parameter struct {
		Name     string `json:"name"`
		Required bool   `json:"required,omitempty"`
		Default  any    `json:"default,omitempty"`
	}

	// BindingType is the registry's view of a binding type.
	BindingType struct {
		Name        string      `json:"name"`
		Description string      `json:"description,omitempty"`
		Parameters  []Parameter `json:"parameters,omitempty"`
	}

	// Binding is the registry's view of a binding. Parameters hold the
	// complete set of values, defaults included.
	Binding struct {
		Query      string              `json:"query"`
		TypeName   string              `json:"type"`
		Language   types.QueryLanguage `json:"language"`
		Parameters map[string]any      `json:"parameters,omitempty"`
	}
)

// Parameter returns the parameter with the given name.
func (t BindingType) Parameter(name string) (Parameter, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// ValidateParameters checks values against the declared parameters and
// returns one error per missing required or undeclared parameter.
func (t BindingType) ValidateParameters(values map[string]any) []error {
	var errs []error
	for _, p := range t.Parameters {
		if _, ok := values[p.Name]; p.Required && !ok {
			errs = append(errs, &MissingParameterError{TypeName: t.Name, Parameter: p.Name})
		}
	}
	for _, name := range sortedKeys(values) {
		if _, ok := t.Parameter(name); !ok {
			errs = append(errs, &NoSuchParameterError{TypeName: t.Name, Parameter: name})
		}
	}
	return errs
}

// ResolveParameters returns values completed with the defaults of every
// optional parameter that has no explicit value. values is not modified.
func (t BindingType) ResolveParameters(values map[string]any) map[string]any {
	resolved := make(map[string]any, len(t.Parameters)+len(values))
	for _, p := range t.Parameters {
		if !p.Required {
			resolved[p.Name] = p.Default
		}
	}
	for k, v := range values {
		resolved[k] = v
	}
	return resolved
}

// Equal reports whether both types declare the same name, description and
// parameters.
func (t BindingType) Equal(o BindingType) bool {
	return t.Name == o.Name && t.Description == o.Description &&
		slices.EqualFunc(t.Parameters, o.Parameters, func(a, b Parameter) bool {
			return a.Name == b.Name && a.Required == b.Required && scalarKey(a.Default) == scalarKey(b.Default)
		})
}

// Key returns the canonical identity of the binding. Two bindings with the
// same key are the same binding to the registry.
func (b Binding) Key() string {
	var sb strings.Builder
	sb.WriteString(b.Query)
	sb.WriteByte(0)
	sb.WriteString(b.TypeName)
	sb.WriteByte(0)
	sb.WriteString(string(b.Language))
	for _, name := range sortedKeys(b.Parameters) {
		sb.WriteByte(0)
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(scalarKey(b.Parameters[name]))
	}
	return sb.String()
}

// Equal reports whether both bindings have the same key.
func (b Binding) Equal(o Binding) bool { return b.Key() == o.Key() }

// String renders the binding for log output.
func (b Binding) String() string {
	return fmt.Sprintf("%s (%s) -> %s", b.Query, b.Language, b.TypeName)
}

// scalarKey renders a scalar with its kind so that "1" and 1 differ.
func scalarKey(v any) string {
	if n, err := types.NormalizeScalar(v); err == nil {
		v = n
	}
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cloneParams copies m, normalizing every scalar it can.
func cloneParams(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if n, err := types.NormalizeScalar(v); err == nil {
			v = n
		}
		out[k] = v
	}
	return out
}
