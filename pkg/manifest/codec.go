// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/pkg/cueutil"
	"github.com/pkgbind/pkgbind/pkg/types"
)

// FileName is the manifest file name of every package.
const FileName = "pkgbind.json"

var (
	//go:embed manifest_schema.cue
	manifestSchema []byte

	// ErrInvalidManifest wraps descriptor errors found in a schema-valid manifest.
	ErrInvalidManifest = errors.New("invalid manifest")
)

type (
	rawParameter struct {
		Required    bool   `json:"required,omitempty"`
		Default     any    `json:"default,omitempty"`
		Description string `json:"description,omitempty"`
	}

	rawBindingType struct {
		Description string                  `json:"description,omitempty"`
		Parameters  map[string]rawParameter `json:"parameters,omitempty"`
	}

	rawBinding struct {
		Query      string         `json:"query"`
		Language   string         `json:"language,omitempty"`
		Type       string         `json:"type"`
		Parameters map[string]any `json:"parameters,omitempty"`
	}

	rawInstallInfo struct {
		InstallPath      string   `json:"install-path"`
		Installer        string   `json:"installer,omitempty"`
		EnabledBindings  []string `json:"enabled-bindings,omitempty"`
		DisabledBindings []string `json:"disabled-bindings,omitempty"`
	}

	rawPackageFile struct {
		Version       string                    `json:"version,omitempty"`
		Name          string                    `json:"name,omitempty"`
		Override      []string                  `json:"override,omitempty"`
		OverrideOrder []string                  `json:"override-order,omitempty"`
		BindingTypes  map[string]rawBindingType `json:"binding-types,omitempty"`
		Bindings      map[string]rawBinding     `json:"bindings,omitempty"`
		Packages      map[string]rawInstallInfo `json:"packages,omitempty"`
	}
)

// DecodePackageFile parses the manifest of an installed package. path is
// used in error messages and recorded on the result.
func DecodePackageFile(data []byte, path string) (*PackageFile, error) {
	raw, err := decodeRaw(data, path, "#PackageFile")
	if err != nil {
		return nil, err
	}
	f := NewPackageFile(raw.Name)
	if err := raw.fill(f, path); err != nil {
		return nil, err
	}
	return f, nil
}

// DecodeRootPackageFile parses the project manifest.
func DecodeRootPackageFile(data []byte, path string) (*RootPackageFile, error) {
	raw, err := decodeRaw(data, path, "#RootPackageFile")
	if err != nil {
		return nil, err
	}
	f := NewRootPackageFile(raw.Name)
	if err := raw.fill(&f.PackageFile, path); err != nil {
		return nil, err
	}
	f.overrideOrder = raw.OverrideOrder

	for _, name := range sortedNames(raw.Packages) {
		ri := raw.Packages[name]
		info, err := NewInstallInfo(name, ri.InstallPath)
		if err != nil {
			return nil, invalidManifest(path, err)
		}
		info.SetInstaller(ri.Installer)
		for _, s := range ri.EnabledBindings {
			info.AddEnabledBindingUUID(uuid.MustParse(s))
		}
		for _, s := range ri.DisabledBindings {
			info.AddDisabledBindingUUID(uuid.MustParse(s))
		}
		f.AddInstallInfo(info)
	}
	return f, nil
}

// EncodePackageFile renders a package manifest as indented JSON.
func EncodePackageFile(f *PackageFile) ([]byte, error) {
	return encodeRaw(toRaw(f))
}

// EncodeRootPackageFile renders the project manifest as indented JSON.
func EncodeRootPackageFile(f *RootPackageFile) ([]byte, error) {
	raw := toRaw(&f.PackageFile)
	raw.OverrideOrder = f.OverrideOrder()
	if len(f.installInfos) > 0 {
		raw.Packages = make(map[string]rawInstallInfo, len(f.installInfos))
		for _, info := range f.installInfos {
			raw.Packages[info.PackageName()] = rawInstallInfo{
				InstallPath:      info.InstallPath(),
				Installer:        info.Installer(),
				EnabledBindings:  uuidStrings(info.enabledBindingUUIDs),
				DisabledBindings: uuidStrings(info.disabledBindingUUIDs),
			}
		}
	}
	return encodeRaw(raw)
}

func decodeRaw(data []byte, path, definition string) (*rawPackageFile, error) {
	if err := cueutil.Validate(manifestSchema, data, definition, cueutil.WithFilename(path)); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw rawPackageFile
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &raw, nil
}

func (raw *rawPackageFile) fill(f *PackageFile, path string) error {
	f.path = path
	if raw.Version != "" {
		f.version = raw.Version
	}
	f.overrides = raw.Override

	for _, name := range sortedNames(raw.BindingTypes) {
		rt := raw.BindingTypes[name]
		var params []BindingParameter
		for _, pname := range sortedNames(rt.Parameters) {
			rp := rt.Parameters[pname]
			params = append(params, BindingParameter{
				Name:        pname,
				Required:    rp.Required,
				Default:     rp.Default,
				Description: types.DescriptionText(rp.Description),
			})
		}
		td, err := NewBindingTypeDescriptor(name,
			WithDescription(types.DescriptionText(rt.Description)),
			WithParameters(params...))
		if err != nil {
			return invalidManifest(path, err)
		}
		f.AddTypeDescriptor(td)
	}

	for _, key := range sortedNames(raw.Bindings) {
		rb := raw.Bindings[key]
		bd, err := NewBindingDescriptor(rb.Query, rb.Type,
			WithUUID(uuid.MustParse(key)),
			WithLanguage(types.QueryLanguage(rb.Language).OrDefault()),
			WithParameterValues(rb.Parameters))
		if err != nil {
			return invalidManifest(path, err)
		}
		f.AddBindingDescriptor(bd)
	}
	return nil
}

func toRaw(f *PackageFile) *rawPackageFile {
	raw := &rawPackageFile{
		Version:  f.version,
		Name:     f.name,
		Override: f.Overrides(),
	}
	if raw.Version == "" {
		raw.Version = DefaultVersion
	}
	if len(f.typeDescriptors) > 0 {
		raw.BindingTypes = make(map[string]rawBindingType, len(f.typeDescriptors))
		for _, td := range f.typeDescriptors {
			rt := rawBindingType{Description: td.Description().String()}
			if len(td.parameters) > 0 {
				rt.Parameters = make(map[string]rawParameter, len(td.parameters))
				for _, p := range td.parameters {
					rt.Parameters[p.Name] = rawParameter{
						Required:    p.Required,
						Default:     p.Default,
						Description: p.Description.String(),
					}
				}
			}
			raw.BindingTypes[td.Name()] = rt
		}
	}
	if len(f.bindingDescriptors) > 0 {
		raw.Bindings = make(map[string]rawBinding, len(f.bindingDescriptors))
		for _, bd := range f.bindingDescriptors {
			rb := rawBinding{Query: bd.Query(), Type: bd.TypeName()}
			if bd.Language() != types.LanguageGlob {
				rb.Language = bd.Language().String()
			}
			if len(bd.parameterValues) > 0 {
				rb.Parameters = bd.ParameterValues()
			}
			raw.Bindings[bd.UUID().String()] = rb
		}
	}
	return raw
}

func encodeRaw(raw *rawPackageFile) ([]byte, error) {
	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

func invalidManifest(path string, err error) error {
	return fmt.Errorf("%s: %w: %w", path, ErrInvalidManifest, err)
}

func uuidStrings(ids []uuid.UUID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func sortedNames[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
