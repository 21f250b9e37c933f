// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/internal/discovery"
	"github.com/pkgbind/pkgbind/pkg/manifest"
	"github.com/pkgbind/pkgbind/pkg/types"
)

// parseParamValue reads a command line value as a JSON scalar when it is
// one (numbers, true, false, null, quoted strings) and as a plain string
// otherwise.
func parseParamValue(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw, nil
	}
	switch v.(type) {
	case map[string]any, []any:
		return raw, nil
	}
	return types.NormalizeScalar(v)
}

// parseParamFlags parses repeated name=value flags.
func parseParamFlags(flags []string) (map[string]any, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	values := make(map[string]any, len(flags))
	for _, flag := range flags {
		name, raw, ok := strings.Cut(flag, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected name=value", flag)
		}
		v, err := parseParamValue(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}

// parseParamDeclarations parses the --param flags of `type define`. A flag
// is either a bare name or name=default; names listed in required are
// declared required and must not carry a default.
func parseParamDeclarations(flags, required []string, descriptions map[string]string) ([]manifest.BindingParameter, error) {
	params := make([]manifest.BindingParameter, 0, len(flags))
	seen := make(map[string]bool, len(flags))
	for _, flag := range flags {
		name, raw, hasDefault := strings.Cut(flag, "=")
		p := manifest.BindingParameter{Name: name, Description: types.DescriptionText(descriptions[name])}
		if hasDefault {
			v, err := parseParamValue(raw)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", name, err)
			}
			p.Default = v
		}
		params = append(params, p)
		seen[name] = true
	}
	for _, name := range required {
		if !seen[name] {
			params = append(params, manifest.BindingParameter{Name: name, Description: types.DescriptionText(descriptions[name])})
			seen[name] = true
		}
		for i := range params {
			if params[i].Name == name {
				params[i].Required = true
			}
		}
	}
	return params, nil
}

// resolveBindingUUID accepts a full UUID or an unambiguous prefix of the
// UUID of a binding known to m.
func resolveBindingUUID(m *discovery.Manager, arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}
	matches := m.Bindings(manifest.AnyBinding().WithUUIDPrefix(arg))
	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("%w: %s", discovery.ErrNoSuchBinding, arg)
	case 1:
		return matches[0].UUID(), nil
	default:
		return uuid.Nil, fmt.Errorf("binding prefix %q is ambiguous: %d bindings match", arg, len(matches))
	}
}
