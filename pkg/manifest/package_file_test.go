// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"slices"
	"testing"

	"github.com/google/uuid"
)

func TestPackageFile_BindingDescriptors(t *testing.T) {
	t.Parallel()

	f := NewPackageFile("vendor/pkg")
	a := mustBinding(t, "/a", "my/type")
	b := mustBinding(t, "/b", "my/type")
	c := mustBinding(t, "/c", "my/type")
	f.AddBindingDescriptor(a)
	f.AddBindingDescriptor(b)
	f.AddBindingDescriptor(c)

	replacement := mustBinding(t, "/b2", "my/type", WithUUID(b.UUID()))
	f.AddBindingDescriptor(replacement)
	if got := f.BindingDescriptors(); len(got) != 3 || got[1] != replacement {
		t.Fatalf("replacement must keep its position, got %v", got)
	}

	i := f.RemoveBindingDescriptor(b.UUID())
	if i != 1 || f.HasBindingDescriptor(b.UUID()) {
		t.Fatalf("RemoveBindingDescriptor() = %d", i)
	}
	if f.RemoveBindingDescriptor(uuid.New()) != -1 {
		t.Error("removing an unknown UUID must report -1")
	}

	f.InsertBindingDescriptor(i, replacement)
	if got := f.BindingDescriptors(); got[0] != a || got[1] != replacement || got[2] != c {
		t.Errorf("InsertBindingDescriptor did not restore the order: %v", got)
	}

	found := f.FindBindingDescriptors(func(d *BindingDescriptor) bool { return d.Query() != "/a" })
	if len(found) != 2 {
		t.Errorf("FindBindingDescriptors() = %d descriptors, want 2", len(found))
	}
	if got, ok := f.BindingDescriptor(c.UUID()); !ok || got != c {
		t.Error("BindingDescriptor(c) not found")
	}
}

func TestPackageFile_TypeDescriptors(t *testing.T) {
	t.Parallel()

	f := NewPackageFile("vendor/pkg")
	f.AddTypeDescriptor(mustType(t, "my/a"))
	f.AddTypeDescriptor(mustType(t, "my/b"))
	if !f.HasTypeDescriptor("my/a") || f.HasTypeDescriptor("my/c") {
		t.Fatal("HasTypeDescriptor mismatch")
	}
	found := f.FindTypeDescriptors(func(td *BindingTypeDescriptor) bool { return td.Name() == "my/b" })
	if len(found) != 1 || found[0].Name() != "my/b" {
		t.Errorf("FindTypeDescriptors() = %v", found)
	}
	i := f.RemoveTypeDescriptor("my/a")
	td := mustType(t, "my/a")
	f.InsertTypeDescriptor(i, td)
	if got := f.TypeDescriptors(); got[0] != td {
		t.Errorf("type order not restored: %v", got)
	}
}

func TestPackageFile_Clone(t *testing.T) {
	t.Parallel()

	f := NewPackageFile("vendor/pkg")
	f.SetPath("/pkg/pkgbind.json")
	f.AddOverride("vendor/other")
	td := mustType(t, "my/type", BindingParameter{Name: "param", Default: "x"})
	bd := mustBinding(t, "/a", "my/type", WithParameterValue("param", "y"))
	f.AddTypeDescriptor(td)
	f.AddBindingDescriptor(bd)
	pkg := NewPackage(f, "/pkg", mustInstallInfo(t, "vendor/pkg"))
	if err := td.Load(pkg); err != nil {
		t.Fatal(err)
	}
	if err := bd.Load(pkg, td); err != nil {
		t.Fatal(err)
	}

	c := f.Clone()
	if c.Path() != f.Path() || c.Name() != f.Name() || !slices.Equal(c.Overrides(), f.Overrides()) {
		t.Errorf("clone header = %q %q %v", c.Path(), c.Name(), c.Overrides())
	}
	cbd := c.BindingDescriptors()[0]
	if cbd == bd || !cbd.Equal(bd) || cbd.IsLoaded() {
		t.Errorf("cloned binding must be an equal, unloaded copy: %v", cbd)
	}
	ctd := c.TypeDescriptors()[0]
	if ctd == td || ctd.IsLoaded() || ctd.Name() != "my/type" || len(ctd.Parameters()) != 1 {
		t.Errorf("cloned type must be an unloaded copy: %v", ctd)
	}

	c.AddOverride("vendor/third")
	if f.OverridesPackage("vendor/third") {
		t.Error("clone shares its override list")
	}
}

func TestRootPackageFile_InstallInfos(t *testing.T) {
	t.Parallel()

	f := NewRootPackageFile("vendor/root")
	f.AddInstallInfo(mustInstallInfo(t, "vendor/a"))
	f.AddInstallInfo(mustInstallInfo(t, "vendor/b"))
	if _, ok := f.InstallInfo("vendor/b"); !ok {
		t.Fatal("InstallInfo(vendor/b) not found")
	}
	if !f.RemoveInstallInfo("vendor/a") || f.HasInstallInfo("vendor/a") {
		t.Error("RemoveInstallInfo(vendor/a) failed")
	}
	if f.RemoveInstallInfo("vendor/a") {
		t.Error("second RemoveInstallInfo must report false")
	}
}

func TestInstallInfo_EnabledAndDisabledAreExclusive(t *testing.T) {
	t.Parallel()

	info := mustInstallInfo(t, "vendor/pkg")
	id := uuid.New()

	info.AddDisabledBindingUUID(id)
	info.AddEnabledBindingUUID(id)
	if info.HasDisabledBindingUUID(id) || !info.HasEnabledBindingUUID(id) {
		t.Error("enabling must remove the UUID from the disabled list")
	}

	info.AddDisabledBindingUUID(id)
	info.AddDisabledBindingUUID(id)
	if info.HasEnabledBindingUUID(id) || len(info.DisabledBindingUUIDs()) != 1 {
		t.Errorf("disabled = %v, enabled = %v", info.DisabledBindingUUIDs(), info.EnabledBindingUUIDs())
	}

	info.RemoveDisabledBindingUUID(id)
	if info.HasDisabledBindingUUID(id) {
		t.Error("RemoveDisabledBindingUUID failed")
	}
}

func TestInstallInfo_InsertRestoresPosition(t *testing.T) {
	t.Parallel()

	info := mustInstallInfo(t, "vendor/pkg")
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		info.AddDisabledBindingUUID(id)
	}

	at := info.DisabledBindingIndex(ids[0])
	info.AddEnabledBindingUUID(ids[0])
	if info.DisabledBindingIndex(ids[0]) != -1 || info.EnabledBindingIndex(ids[0]) != 0 {
		t.Fatalf("enabled = %v, disabled = %v", info.EnabledBindingUUIDs(), info.DisabledBindingUUIDs())
	}
	info.InsertDisabledBindingUUID(at, ids[0])
	if !slices.Equal(info.DisabledBindingUUIDs(), ids) || info.HasEnabledBindingUUID(ids[0]) {
		t.Errorf("disabled = %v, want %v", info.DisabledBindingUUIDs(), ids)
	}

	info.InsertEnabledBindingUUID(99, ids[1])
	if info.EnabledBindingIndex(ids[1]) != 0 || info.HasDisabledBindingUUID(ids[1]) {
		t.Errorf("out of range position must append: enabled = %v", info.EnabledBindingUUIDs())
	}
}

func TestPackageCollection(t *testing.T) {
	t.Parallel()

	root := NewRootPackage(NewRootPackageFile(""), "/project")
	a := NewPackage(NewPackageFile("vendor/a"), "/project/vendor/a", mustInstallInfo(t, "vendor/a"))
	missing := NewPackage(nil, "/project/vendor/b", mustInstallInfo(t, "vendor/b"))
	c := NewPackageCollection(root, a, missing)

	if root.Name() != DefaultRootPackageName {
		t.Errorf("root name = %q", root.Name())
	}
	if c.RootPackage() != root || c.RootPackageName() != DefaultRootPackageName {
		t.Error("RootPackage mismatch")
	}
	if got := c.Names(); !slices.Equal(got, []string{DefaultRootPackageName, "vendor/a", "vendor/b"}) {
		t.Errorf("Names() = %v", got)
	}
	if got := c.InstalledPackages(); len(got) != 2 || got[0] != a {
		t.Errorf("InstalledPackages() = %v", got)
	}
	if got := c.EnabledPackages(); len(got) != 2 || got[1] != a {
		t.Errorf("EnabledPackages() = %v", got)
	}
	if missing.State() != PackageNotFound {
		t.Errorf("state = %v, want not found", missing.State())
	}
	if !c.Remove("vendor/b") || c.Contains("vendor/b") {
		t.Error("Remove(vendor/b) failed")
	}
}

func TestBindingCriteria(t *testing.T) {
	t.Parallel()

	pkg := NewPackage(NewPackageFile("vendor/a"), "vendor/a", mustInstallInfo(t, "vendor/a"))
	bd := mustBinding(t, "/path", "my/type", WithUUID(uuid.MustParse("ABCDEF00-0000-4000-8000-000000000000")))
	if err := bd.Load(pkg, nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		criteria BindingCriteria
		want     bool
	}{
		{"any", AnyBinding(), true},
		{"prefix", AnyBinding().WithUUIDPrefix("ABCD"), true},
		{"other prefix", AnyBinding().WithUUIDPrefix("1234"), false},
		{"package", AnyBinding().InPackages("vendor/a"), true},
		{"other package", AnyBinding().InPackages("vendor/b"), false},
		{"state", AnyBinding().WithStates(BindingHeldBack), true},
		{"other state", AnyBinding().WithStates(BindingEnabled), false},
		{"combined", AnyBinding().WithUUIDPrefix("abcdef").InPackages("vendor/a").WithStates(BindingHeldBack, BindingEnabled), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.criteria.Matches(bd); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}

	base := AnyBinding().InPackages("vendor/a")
	_ = base.InPackages("vendor/b")
	if got := base.PackageNames(); len(got) != 1 {
		t.Errorf("builders must not modify the receiver, got %v", got)
	}
}
