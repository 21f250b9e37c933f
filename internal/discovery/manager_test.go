// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/internal/transaction"
	"github.com/pkgbind/pkgbind/pkg/manifest"
	"github.com/pkgbind/pkgbind/pkg/registry"
	"github.com/pkgbind/pkgbind/pkg/types"
)

var errSave = errors.New("disk full")

func TestAddBinding_FillsParameterDefaults(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	m := env.manager(t)
	env.build(t, m)

	bd := newBinding(t, "/path", "my/type")
	if err := m.AddBinding(context.Background(), bd, AddBindingOptions{}); err != nil {
		t.Fatalf("AddBinding() error: %v", err)
	}

	want := registry.Binding{Query: "/path", TypeName: "my/type", Language: types.LanguageGlob, Parameters: map[string]any{"param": "default"}}
	if len(env.registry.binds) != 1 || !env.registry.binds[0].Equal(want) {
		t.Fatalf("binds = %+v, want exactly %+v", env.registry.binds, want)
	}
	stored := env.rootFile.BindingDescriptors()
	if len(stored) != 1 || len(stored[0].ParameterValues()) != 0 {
		t.Errorf("stored descriptor must only record explicit values, got %v", stored)
	}
	if env.storage.saves != 1 {
		t.Errorf("saves = %d, want 1", env.storage.saves)
	}
	if bd.State() != manifest.BindingEnabled {
		t.Errorf("state = %v, want enabled", bd.State())
	}
}

func TestBindings_MergesDeclarationsOfTheSameUUID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	var id uuid.UUID
	for _, name := range []string{"vendor/a", "vendor/b"} {
		pkg := env.addPackage(t, name, func(f *manifest.PackageFile) {
			bd := newBinding(t, "/path", "my/type")
			id = bd.UUID()
			f.AddBindingDescriptor(bd)
		})
		pkg.InstallInfo().AddEnabledBindingUUID(id)
	}
	m := env.manager(t)

	if err := m.BuildDiscovery(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(env.registry.binds); got != 1 {
		t.Errorf("bind called %d times, want 1", got)
	}
	merged := m.Bindings(manifest.AnyBinding())
	if len(merged) != 1 || !merged[0].IsEnabled() {
		t.Errorf("Bindings() = %v, want one enabled descriptor", merged)
	}
	if got := len(m.FindBindingDescriptors(manifest.AnyBinding())); got != 2 {
		t.Errorf("FindBindingDescriptors() = %d descriptors, want 2", got)
	}
}

func TestRemoveBindingType_DeclaredOnlyByInstalledPackages(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) { f.AddTypeDescriptor(myType(t)) })
	env.addPackage(t, "vendor/b", func(f *manifest.PackageFile) { f.AddTypeDescriptor(myType(t)) })
	m := env.manager(t)
	env.build(t, m)

	if err := m.RemoveBindingType(context.Background(), "my/type"); err != nil {
		t.Fatalf("RemoveBindingType() error: %v", err)
	}
	if len(env.registry.calls) != 0 {
		t.Errorf("registry calls = %v, want none", env.registry.calls)
	}
	if len(env.logger.warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", env.logger.warnings)
	}
	if env.storage.saves != 0 {
		t.Errorf("saves = %d, want 0", env.storage.saves)
	}
}

func TestRemoveBindingType_Unknown(t *testing.T) {
	t.Parallel()

	m := newTestEnv(t).manager(t)
	if err := m.RemoveBindingType(context.Background(), "my/unknown"); !errors.Is(err, ErrNoSuchType) {
		t.Errorf("error = %v, want ErrNoSuchType", err)
	}
}

func TestAddBinding_SaveFailureRollsBack(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	m := env.manager(t)
	env.build(t, m)
	env.storage.err = errSave

	bd := newBinding(t, "/path", "my/type", manifest.WithParameterValue("param", "value"))
	err := m.AddBinding(context.Background(), bd, AddBindingOptions{})
	if !errors.Is(err, errSave) {
		t.Fatalf("error = %v, want the save error", err)
	}

	if len(env.registry.binds) != 1 || len(env.registry.unbinds) != 1 {
		t.Fatalf("binds = %v, unbinds = %v", env.registry.binds, env.registry.unbinds)
	}
	if !env.registry.unbinds[0].Equal(env.registry.binds[0]) {
		t.Errorf("unbind %+v does not match bind %+v", env.registry.unbinds[0], env.registry.binds[0])
	}
	if env.rootFile.HasBindingDescriptors() {
		t.Error("manifest must not keep the binding")
	}
	if len(env.registry.Bindings()) != 0 {
		t.Errorf("registry bindings = %v, want none", env.registry.Bindings())
	}
	if bd.IsLoaded() || m.HasBindings(manifest.AnyBinding()) {
		t.Error("descriptor stores must not keep the binding")
	}
}

func TestAddBinding_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(newType(t, "my/type", manifest.BindingParameter{Name: "req", Required: true}))
	m := env.manager(t)
	env.build(t, m)
	ctx := context.Background()

	if err := m.AddBinding(ctx, newBinding(t, "/path", "my/unknown"), AddBindingOptions{}); !errors.Is(err, ErrNoSuchType) {
		t.Errorf("unknown type: error = %v", err)
	}
	if err := m.AddBinding(ctx, newBinding(t, "/path", "my/type"), AddBindingOptions{}); !errors.Is(err, ErrMissingParameter) {
		t.Errorf("missing parameter: error = %v", err)
	}
	extra := newBinding(t, "/path", "my/type", manifest.WithParameterValue("req", 1), manifest.WithParameterValue("extra", 2))
	if err := m.AddBinding(ctx, extra, AddBindingOptions{}); !errors.Is(err, ErrNoSuchParameter) {
		t.Errorf("unknown parameter: error = %v", err)
	}
	if env.storage.saves != 0 || env.rootFile.HasBindingDescriptors() {
		t.Fatal("validation errors must not change anything")
	}

	heldBack := newBinding(t, "/other", "my/unknown")
	if err := m.AddBinding(ctx, heldBack, AddBindingOptions{IgnoreTypeNotFound: true}); err != nil {
		t.Fatalf("IgnoreTypeNotFound: error = %v", err)
	}
	if heldBack.State() != manifest.BindingHeldBack || len(env.registry.binds) != 0 {
		t.Errorf("state = %v, binds = %v", heldBack.State(), env.registry.binds)
	}

	ok := newBinding(t, "/path", "my/type", manifest.WithParameterValue("req", 1))
	if err := m.AddBinding(ctx, ok, AddBindingOptions{}); err != nil {
		t.Fatal(err)
	}
	again := newBinding(t, "/path", "my/type", manifest.WithParameterValue("req", 1))
	if err := m.AddBinding(ctx, again, AddBindingOptions{}); !errors.Is(err, ErrDuplicateBinding) {
		t.Errorf("duplicate: error = %v", err)
	}
	if err := m.AddBinding(ctx, again, AddBindingOptions{Override: true}); err != nil {
		t.Fatalf("override: error = %v", err)
	}
	if ok.IsLoaded() || !again.IsEnabled() {
		t.Error("override must replace the loaded descriptor")
	}
	if len(env.registry.binds) != 1 {
		t.Errorf("overriding with an equal binding must not bind again, binds = %v", env.registry.binds)
	}
}

func TestDuplicateResolution_RootWins(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	pkgBinding := newBinding(t, "/path", "my/type")
	pkgType := myType(t)
	env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) {
		f.AddTypeDescriptor(pkgType)
		f.AddBindingDescriptor(pkgBinding)
	})
	rootType := myType(t)
	rootBinding := newBinding(t, "/path", "my/type")
	env.rootFile.AddTypeDescriptor(rootType)
	env.rootFile.AddBindingDescriptor(rootBinding)
	m := env.manager(t)
	_ = m.Bindings(manifest.AnyBinding())

	if !rootType.IsEnabled() || pkgType.State() != manifest.TypeDuplicate {
		t.Errorf("types: root %v, package %v", rootType.State(), pkgType.State())
	}
	if !rootBinding.IsEnabled() || pkgBinding.State() != manifest.BindingDuplicate {
		t.Errorf("bindings: root %v, package %v", rootBinding.State(), pkgBinding.State())
	}
	if rootBinding.TypeDescriptor() != rootType {
		t.Error("bindings must load against the enabled type declaration")
	}
}

func TestDuplicateResolution_AtMostOneEnabled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	var descriptors []*manifest.BindingDescriptor
	for _, name := range []string{"vendor/a", "vendor/b", "vendor/c"} {
		bd := newBinding(t, "/path", "my/type")
		descriptors = append(descriptors, bd)
		env.addPackage(t, name, func(f *manifest.PackageFile) { f.AddBindingDescriptor(bd) })
	}
	m := env.manager(t)
	env.build(t, m)

	countEnabled := func() int {
		n := 0
		for _, d := range descriptors {
			if d.IsEnabled() {
				n++
			}
		}
		return n
	}
	if countEnabled() != 1 || !descriptors[0].IsEnabled() {
		t.Fatalf("states = %v %v %v", descriptors[0].State(), descriptors[1].State(), descriptors[2].State())
	}

	// Disabling the chosen declaration hands the UUID to the next one
	// without touching the registry, since the binding is identical.
	if err := m.DisableBinding(context.Background(), descriptors[0].UUID(), "vendor/a"); err != nil {
		t.Fatal(err)
	}
	if countEnabled() != 1 || !descriptors[1].IsEnabled() || descriptors[0].State() != manifest.BindingDisabled {
		t.Errorf("states = %v %v %v", descriptors[0].State(), descriptors[1].State(), descriptors[2].State())
	}
	if len(env.registry.calls) != 0 {
		t.Errorf("registry calls = %v, want none", env.registry.calls)
	}
}

func TestOverrides(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	overridden := newBinding(t, "/path", "my/type")
	winner := newBinding(t, "/path", "my/type")
	env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) { f.AddBindingDescriptor(overridden) })
	env.addPackage(t, "vendor/b", func(f *manifest.PackageFile) {
		f.AddOverride("vendor/a")
		f.AddBindingDescriptor(winner)
	})
	m := env.manager(t)
	_ = m.Bindings(manifest.AnyBinding())

	if !winner.IsEnabled() || overridden.State() != manifest.BindingDuplicate {
		t.Errorf("winner %v, overridden %v", winner.State(), overridden.State())
	}
	if !overridden.IsOverridden() || winner.IsOverridden() {
		t.Errorf("overridden marks: a=%v b=%v", overridden.IsOverridden(), winner.IsOverridden())
	}
}

func TestOverrideOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	first := newBinding(t, "/path", "my/type")
	second := newBinding(t, "/path", "my/type")
	env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) { f.AddBindingDescriptor(first) })
	env.addPackage(t, "vendor/b", func(f *manifest.PackageFile) { f.AddBindingDescriptor(second) })
	env.rootFile.SetOverrideOrder([]string{"vendor/b", "vendor/a"})
	m := env.manager(t)
	_ = m.Bindings(manifest.AnyBinding())

	if !second.IsEnabled() || !first.IsOverridden() {
		t.Errorf("vendor/b must win: a=%v b=%v", first.State(), second.State())
	}
}

func TestReloadIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	a := newBinding(t, "/path", "my/type")
	b := newBinding(t, "/path", "my/type")
	env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) { f.AddBindingDescriptor(a) })
	env.addPackage(t, "vendor/b", func(f *manifest.PackageFile) { f.AddBindingDescriptor(b) })
	m := env.manager(t)
	_ = m.Bindings(manifest.AnyBinding())

	reload := m.reloadByUUID(a.UUID())
	reload.PostExecute()
	first := []manifest.BindingState{a.State(), b.State()}
	reload.PostRollback()
	second := []manifest.BindingState{a.State(), b.State()}
	if !slices.Equal(first, second) {
		t.Errorf("states after first reload %v, after second %v", first, second)
	}
	if !a.IsEnabled() || b.State() != manifest.BindingDuplicate {
		t.Errorf("states = %v", second)
	}
}

func TestAddBindingType_ReleasesHeldBackBindings(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	bd := newBinding(t, "/path", "my/type")
	env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) { f.AddBindingDescriptor(bd) })
	m := env.manager(t)

	if err := m.BuildDiscovery(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(env.logger.warnings) != 1 || bd.State() != manifest.BindingHeldBack {
		t.Fatalf("warnings = %v, state = %v", env.logger.warnings, bd.State())
	}
	env.registry.reset()

	td := myType(t)
	if err := m.AddBindingType(context.Background(), td, AddTypeOptions{}); err != nil {
		t.Fatalf("AddBindingType() error: %v", err)
	}
	if want := []string{"define my/type", "bind /path"}; !slices.Equal(env.registry.calls, want) {
		t.Errorf("calls = %v, want %v", env.registry.calls, want)
	}
	if !bd.IsEnabled() || bd.TypeDescriptor() != td {
		t.Errorf("state = %v", bd.State())
	}
	if !env.rootFile.HasTypeDescriptor("my/type") || env.storage.saves != 1 {
		t.Error("type must be saved in the root manifest")
	}

	if err := m.AddBindingType(context.Background(), myType(t), AddTypeOptions{}); !errors.Is(err, ErrDuplicateType) {
		t.Errorf("second add: error = %v, want ErrDuplicateType", err)
	}
}

func TestAddBindingType_OverrideRedefinesChangedType(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	env.rootFile.AddBindingDescriptor(newBinding(t, "/path", "my/type", manifest.WithParameterValue("param", "x")))
	m := env.manager(t)
	env.build(t, m)

	changed, err := manifest.NewBindingTypeDescriptor("my/type",
		manifest.WithDescription("changed"),
		manifest.WithParameters(manifest.BindingParameter{Name: "param", Default: "default"}))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.AddBindingType(context.Background(), changed, AddTypeOptions{Override: true}); err != nil {
		t.Fatalf("AddBindingType() error: %v", err)
	}
	if want := []string{"unbind /path", "undefine my/type", "define my/type", "bind /path"}; !slices.Equal(env.registry.calls, want) {
		t.Errorf("calls = %v, want %v", env.registry.calls, want)
	}
	defined := env.registry.DefinedTypes()
	if len(defined) != 1 || defined[0].Description != "changed" || len(env.registry.Bindings()) != 1 {
		t.Errorf("registry types = %v, bindings = %v", defined, env.registry.Bindings())
	}
}

func TestAddBindingType_RedefinitionIgnoresBindingsThatNoLongerFit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	bd := newBinding(t, "/path", "my/type", manifest.WithParameterValue("param", "x"))
	env.rootFile.AddBindingDescriptor(bd)
	m := env.manager(t)
	env.build(t, m)

	if err := m.AddBindingType(context.Background(), newType(t, "my/type"), AddTypeOptions{Override: true}); err != nil {
		t.Fatalf("AddBindingType() error: %v", err)
	}
	if bd.State() != manifest.BindingIgnored {
		t.Errorf("state = %v, want ignored", bd.State())
	}
	if want := []string{"unbind /path", "undefine my/type", "define my/type"}; !slices.Equal(env.registry.calls, want) {
		t.Errorf("calls = %v, want %v", env.registry.calls, want)
	}
	if got := env.registry.Bindings(); len(got) != 0 {
		t.Errorf("registry bindings = %v, want none", got)
	}
	if env.storage.saves != 1 {
		t.Errorf("saves = %d, want 1", env.storage.saves)
	}
}

func TestAddBindingType_RedefinitionRebindsWithNewDefaults(t *testing.T) {
	t.Parallel()

	newDefault := func(t *testing.T) *manifest.BindingTypeDescriptor {
		t.Helper()
		return newType(t, "my/type", manifest.BindingParameter{Name: "param", Default: "new"})
	}
	want := registry.Binding{Query: "/path", TypeName: "my/type", Language: types.LanguageGlob, Parameters: map[string]any{"param": "new"}}

	tests := []struct {
		name  string
		setup func(t *testing.T, env *testEnv) *manifest.BindingDescriptor
		opts  AddTypeOptions
	}{
		{
			name: "root type overridden",
			setup: func(t *testing.T, env *testEnv) *manifest.BindingDescriptor {
				env.rootFile.AddTypeDescriptor(myType(t))
				bd := newBinding(t, "/path", "my/type")
				env.rootFile.AddBindingDescriptor(bd)
				return bd
			},
			opts: AddTypeOptions{Override: true},
		},
		{
			name: "root takes over an installed type",
			setup: func(t *testing.T, env *testEnv) *manifest.BindingDescriptor {
				env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) { f.AddTypeDescriptor(myType(t)) })
				bd := newBinding(t, "/path", "my/type")
				env.rootFile.AddBindingDescriptor(bd)
				return bd
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			bd := tt.setup(t, env)
			m := env.manager(t)
			env.build(t, m)
			ctx := context.Background()

			if err := m.AddBindingType(ctx, newDefault(t), tt.opts); err != nil {
				t.Fatalf("AddBindingType() error: %v", err)
			}
			if got := env.registry.Bindings(); len(got) != 1 || !got[0].Equal(want) {
				t.Fatalf("registry bindings = %v, want %v", got, want)
			}
			if !bd.Binding().Equal(want) {
				t.Errorf("descriptor binding = %v, want %v", bd.Binding(), want)
			}
			if len(env.logger.warnings) != 0 {
				t.Errorf("warnings = %v, want none", env.logger.warnings)
			}

			if err := m.RemoveBinding(ctx, bd.UUID()); err != nil {
				t.Fatalf("RemoveBinding() error: %v", err)
			}
			if got := env.registry.Bindings(); len(got) != 0 {
				t.Errorf("registry bindings after removal = %v, want none", got)
			}
		})
	}
}

func TestAddBindingType_SaveFailureRestoresOldDefinition(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	bd := newBinding(t, "/path", "my/type")
	env.rootFile.AddBindingDescriptor(bd)
	m := env.manager(t)
	env.build(t, m)
	before := env.registry.Bindings()
	env.storage.err = errSave

	changed := newType(t, "my/type", manifest.BindingParameter{Name: "param", Default: "new"})
	if err := m.AddBindingType(context.Background(), changed, AddTypeOptions{Override: true}); !errors.Is(err, errSave) {
		t.Fatalf("error = %v, want the save error", err)
	}
	after := env.registry.Bindings()
	if len(after) != 1 || !after[0].Equal(before[0]) {
		t.Errorf("registry bindings = %v, want %v", after, before)
	}
	if defined := env.registry.DefinedTypes(); len(defined) != 1 || !defined[0].Equal(myType(t).BindingType()) {
		t.Errorf("registry types = %v", defined)
	}
	if !bd.IsEnabled() || !bd.Binding().Equal(before[0]) {
		t.Errorf("descriptor = %v (%v), want the old binding", bd.Binding(), bd.State())
	}
}

func TestRemoveBindingType_FromRoot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	bd := newBinding(t, "/path", "my/type")
	env.rootFile.AddBindingDescriptor(bd)
	m := env.manager(t)
	env.build(t, m)

	if err := m.RemoveBindingType(context.Background(), "my/type"); err != nil {
		t.Fatalf("RemoveBindingType() error: %v", err)
	}
	if want := []string{"unbind /path", "undefine my/type"}; !slices.Equal(env.registry.calls, want) {
		t.Errorf("calls = %v, want %v", env.registry.calls, want)
	}
	if bd.State() != manifest.BindingHeldBack || env.rootFile.HasTypeDescriptor("my/type") {
		t.Errorf("state = %v", bd.State())
	}
}

func TestRemoveBindingType_SaveFailureRestoresRegistry(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	env.rootFile.AddTypeDescriptor(newType(t, "my/other"))
	bd := newBinding(t, "/path", "my/type")
	env.rootFile.AddBindingDescriptor(bd)
	m := env.manager(t)
	env.build(t, m)
	env.storage.err = errSave

	if err := m.RemoveBindingType(context.Background(), "my/type"); !errors.Is(err, errSave) {
		t.Fatalf("error = %v, want the save error", err)
	}
	if len(env.registry.DefinedTypes()) != 2 || len(env.registry.Bindings()) != 1 {
		t.Errorf("registry types = %v, bindings = %v", env.registry.DefinedTypes(), env.registry.Bindings())
	}
	names := []string{}
	for _, td := range env.rootFile.TypeDescriptors() {
		names = append(names, td.Name())
	}
	if !slices.Equal(names, []string{"my/type", "my/other"}) {
		t.Errorf("manifest types = %v, want original order", names)
	}
	if !bd.IsEnabled() {
		t.Errorf("state = %v, want enabled", bd.State())
	}
}

func TestRemoveBinding(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	rootBinding := newBinding(t, "/path", "my/type")
	pkgBinding := newBinding(t, "/path", "my/type")
	env.rootFile.AddBindingDescriptor(rootBinding)
	env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) { f.AddBindingDescriptor(pkgBinding) })
	m := env.manager(t)
	env.build(t, m)
	ctx := context.Background()

	if err := m.RemoveBinding(ctx, uuid.New()); !errors.Is(err, ErrNoSuchBinding) {
		t.Errorf("unknown UUID: error = %v", err)
	}
	if err := m.RemoveBinding(ctx, rootBinding.UUID()); err != nil {
		t.Fatal(err)
	}
	if !pkgBinding.IsEnabled() || len(env.registry.calls) != 0 {
		t.Errorf("package declaration must take over silently: state %v, calls %v", pkgBinding.State(), env.registry.calls)
	}
	if err := m.RemoveBinding(ctx, rootBinding.UUID()); !errors.Is(err, ErrNoSuchBinding) {
		t.Errorf("bindings of installed packages cannot be removed: error = %v", err)
	}
}

func TestEnableDisableBinding(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	bd := newBinding(t, "/path", "my/type")
	pkg := env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) { f.AddBindingDescriptor(bd) })
	rootBinding := newBinding(t, "/root", "my/type")
	env.rootFile.AddBindingDescriptor(rootBinding)
	m := env.manager(t)
	env.build(t, m)
	ctx := context.Background()

	if err := m.DisableBinding(ctx, bd.UUID()); err != nil {
		t.Fatal(err)
	}
	if bd.State() != manifest.BindingDisabled || !pkg.InstallInfo().HasDisabledBindingUUID(bd.UUID()) {
		t.Errorf("state = %v", bd.State())
	}
	if want := []string{"unbind /path"}; !slices.Equal(env.registry.calls, want) {
		t.Errorf("calls = %v, want %v", env.registry.calls, want)
	}

	if err := m.EnableBinding(ctx, bd.UUID(), "vendor/a"); err != nil {
		t.Fatal(err)
	}
	if !bd.IsEnabled() || !pkg.InstallInfo().HasEnabledBindingUUID(bd.UUID()) {
		t.Errorf("state = %v", bd.State())
	}

	if err := m.DisableBinding(ctx, rootBinding.UUID()); !errors.Is(err, ErrCannotDisableBinding) {
		t.Errorf("root binding: error = %v", err)
	}
	if err := m.EnableBinding(ctx, rootBinding.UUID()); !errors.Is(err, ErrCannotEnableBinding) {
		t.Errorf("root binding: error = %v", err)
	}
	if err := m.EnableBinding(ctx, uuid.New()); !errors.Is(err, ErrNoSuchBinding) {
		t.Errorf("unknown UUID: error = %v", err)
	}
	if err := m.EnableBinding(ctx, bd.UUID(), "vendor/other"); !errors.Is(err, ErrNoSuchBinding) {
		t.Errorf("other package: error = %v", err)
	}
}

func TestEnableBinding_HeldBack(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	bd := newBinding(t, "/path", "my/unknown")
	env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) { f.AddBindingDescriptor(bd) })
	m := env.manager(t)

	var cannot *CannotEnableBindingError
	if err := m.EnableBinding(context.Background(), bd.UUID()); !errors.As(err, &cannot) || cannot.Package != "vendor/a" {
		t.Errorf("error = %v, want CannotEnableBindingError", err)
	}
}

func TestDisableBinding_SaveFailureRestoresInstallInfo(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	bd := newBinding(t, "/path", "my/type")
	pkg := env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) { f.AddBindingDescriptor(bd) })
	other := uuid.New()
	pkg.InstallInfo().AddEnabledBindingUUID(bd.UUID())
	pkg.InstallInfo().AddEnabledBindingUUID(other)
	m := env.manager(t)
	env.build(t, m)
	env.storage.err = errSave

	if err := m.DisableBinding(context.Background(), bd.UUID()); !errors.Is(err, errSave) {
		t.Fatalf("error = %v", err)
	}
	info := pkg.InstallInfo()
	if want := []uuid.UUID{bd.UUID(), other}; !slices.Equal(info.EnabledBindingUUIDs(), want) || info.HasDisabledBindingUUID(bd.UUID()) {
		t.Errorf("enabled = %v, want %v; disabled = %v", info.EnabledBindingUUIDs(), want, info.DisabledBindingUUIDs())
	}
	if !bd.IsEnabled() || len(env.registry.Bindings()) != 1 {
		t.Errorf("state = %v, registry = %v", bd.State(), env.registry.Bindings())
	}
}

// matchOnly makes the registry reject bindings whose query matches none of
// paths.
func (e *testEnv) matchOnly(paths ...string) {
	e.registry.Memory = registry.NewMemory(registry.WithMatcher(registry.NewGlobMatcher(paths)))
}

func TestAddBinding_RegistryFailureRollsBack(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.matchOnly("/app/index.html")
	env.rootFile.AddTypeDescriptor(myType(t))
	kept := newBinding(t, "/app/*.html", "my/type")
	env.rootFile.AddBindingDescriptor(kept)
	m := env.manager(t)
	env.build(t, m)

	bd := newBinding(t, "/missing/*.html", "my/type")
	err := m.AddBinding(context.Background(), bd, AddBindingOptions{})
	if !errors.Is(err, registry.ErrNoQueryMatches) {
		t.Fatalf("error = %v, want ErrNoQueryMatches", err)
	}

	if got := env.rootFile.BindingDescriptors(); len(got) != 1 || got[0] != kept {
		t.Errorf("root bindings = %v, want only the built one", got)
	}
	if m.HasBindings(manifest.AnyBinding().WithUUIDPrefix(bd.UUID().String())) {
		t.Error("descriptor store still holds the failed binding")
	}
	if bd.IsLoaded() || bd.State() != manifest.BindingUnloaded {
		t.Errorf("state = %v, want unloaded", bd.State())
	}
	if got := env.registry.Bindings(); len(got) != 1 || !got[0].Equal(kept.Binding()) {
		t.Errorf("registry bindings = %v", got)
	}
	if env.storage.saves != 0 {
		t.Errorf("saves = %d, want 0", env.storage.saves)
	}
}

func TestEnableBinding_RegistryFailureRollsBack(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.matchOnly("/app/index.html")
	env.rootFile.AddTypeDescriptor(myType(t))
	bd := newBinding(t, "/missing/*.html", "my/type")
	first, last := uuid.New(), uuid.New()
	pkg := env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) { f.AddBindingDescriptor(bd) })
	info := pkg.InstallInfo()
	for _, id := range []uuid.UUID{first, bd.UUID(), last} {
		info.AddDisabledBindingUUID(id)
	}
	m := env.manager(t)
	env.build(t, m)
	wantDisabled := info.DisabledBindingUUIDs()

	err := m.EnableBinding(context.Background(), bd.UUID())
	if !errors.Is(err, registry.ErrNoQueryMatches) {
		t.Fatalf("error = %v, want ErrNoQueryMatches", err)
	}

	if got := info.DisabledBindingUUIDs(); !slices.Equal(got, wantDisabled) {
		t.Errorf("disabled = %v, want %v", got, wantDisabled)
	}
	if got := info.EnabledBindingUUIDs(); len(got) != 0 {
		t.Errorf("enabled = %v, want none", got)
	}
	if !bd.IsLoaded() || bd.State() != manifest.BindingDisabled {
		t.Errorf("state = %v, want disabled", bd.State())
	}
	if !m.HasBindings(manifest.AnyBinding().WithUUIDPrefix(bd.UUID().String())) {
		t.Error("descriptor store lost the binding")
	}
	if got := env.registry.Bindings(); len(got) != 0 {
		t.Errorf("registry bindings = %v, want none", got)
	}
	if env.storage.saves != 0 {
		t.Errorf("saves = %d, want 0", env.storage.saves)
	}
}

func TestBuildDiscovery(t *testing.T) {
	t.Parallel()

	t.Run("refuses a non-empty registry", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		if err := env.registry.Memory.DefineType(registry.BindingType{Name: "my/type"}); err != nil {
			t.Fatal(err)
		}
		if err := env.manager(t).BuildDiscovery(context.Background()); !errors.Is(err, ErrDiscoveryNotEmpty) {
			t.Errorf("error = %v, want ErrDiscoveryNotEmpty", err)
		}
	})

	t.Run("failed bind undoes the build", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.matchOnly("/app/index.html")
		env.rootFile.AddTypeDescriptor(myType(t))
		env.rootFile.AddBindingDescriptor(newBinding(t, "/app/*.html", "my/type"))
		env.rootFile.AddBindingDescriptor(newBinding(t, "/missing/*.css", "my/type"))
		m := env.manager(t)

		if err := m.BuildDiscovery(context.Background()); !errors.Is(err, registry.ErrNoQueryMatches) {
			t.Fatalf("error = %v, want ErrNoQueryMatches", err)
		}
		if len(env.registry.DefinedTypes()) != 0 || len(env.registry.Bindings()) != 0 {
			t.Errorf("registry not empty: %v %v", env.registry.DefinedTypes(), env.registry.Bindings())
		}
	})

	t.Run("warns once per duplicated type and ignored binding", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) {
			f.AddTypeDescriptor(newType(t, "my/type", manifest.BindingParameter{Name: "req", Required: true}))
			f.AddBindingDescriptor(newBinding(t, "/path", "my/type"))
		})
		env.addPackage(t, "vendor/b", func(f *manifest.PackageFile) {
			f.AddTypeDescriptor(newType(t, "my/type", manifest.BindingParameter{Name: "req", Required: true}))
			f.AddBindingDescriptor(newBinding(t, "/path", "my/type"))
		})
		m := env.manager(t)

		if err := m.BuildDiscovery(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(env.logger.warnings) != 2 {
			t.Errorf("warnings = %v, want two", env.logger.warnings)
		}
		if want := []string{"define my/type"}; !slices.Equal(env.registry.calls, want) {
			t.Errorf("calls = %v, want %v", env.registry.calls, want)
		}
	})
}

func TestClearDiscovery(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rootFile.AddTypeDescriptor(myType(t))
	m := env.manager(t)
	env.build(t, m)
	if err := m.ClearDiscovery(); err != nil {
		t.Fatal(err)
	}
	if len(env.registry.DefinedTypes()) != 0 {
		t.Error("registry must be empty")
	}
}

func TestSyncWithoutSnapshotPanics(t *testing.T) {
	t.Parallel()

	m := newTestEnv(t).manager(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	_ = transaction.Run([]transaction.Operation{&syncBindingUUID{m: m, id: uuid.New()}})
}

func TestNew_RequiresRootPackage(t *testing.T) {
	t.Parallel()

	if _, err := New(manifest.NewPackageCollection(), registry.NewMemory(), &fakeStorage{}); err == nil {
		t.Error("expected error for a collection without root package")
	}
}

func TestQueries(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rootType := myType(t)
	env.rootFile.AddTypeDescriptor(rootType)
	bd := newBinding(t, "/path", "my/type")
	env.addPackage(t, "vendor/a", func(f *manifest.PackageFile) {
		f.AddTypeDescriptor(newType(t, "vendor/type"))
		f.AddBindingDescriptor(bd)
	})
	m := env.manager(t)

	if got, err := m.BindingDescriptor(bd.UUID(), "vendor/a"); err != nil || got != bd {
		t.Errorf("BindingDescriptor() = %v, %v", got, err)
	}
	if _, err := m.BindingDescriptor(bd.UUID(), "vendor/root"); !errors.Is(err, ErrNoSuchBinding) {
		t.Errorf("BindingDescriptor(root) error = %v", err)
	}
	if got := m.TypeDescriptors("vendor/a"); len(got) != 1 || got[0].Name() != "vendor/type" {
		t.Errorf("TypeDescriptors(vendor/a) = %v", got)
	}
	if got := m.TypeDescriptors(); len(got) != 2 {
		t.Errorf("TypeDescriptors() = %v", got)
	}
	if got, err := m.TypeDescriptor("my/type", "vendor/root"); err != nil || got != rootType {
		t.Errorf("TypeDescriptor() = %v, %v", got, err)
	}
	criteria := manifest.AnyBinding().WithStates(manifest.BindingEnabled).InPackages("vendor/a")
	if got := m.Bindings(criteria); len(got) != 1 {
		t.Errorf("Bindings(enabled in vendor/a) = %v", got)
	}
}
