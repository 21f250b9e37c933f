// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"slices"

	"github.com/google/uuid"
)

// InstallInfo is the root manifest's record of one installed package. A UUID
// is never in both the enabled and the disabled list.
type InstallInfo struct {
	packageName          string
	installPath          string
	installer            string
	enabledBindingUUIDs  []uuid.UUID
	disabledBindingUUIDs []uuid.UUID
}

// NewInstallInfo creates the install record of a package.
func NewInstallInfo(packageName, installPath string) (*InstallInfo, error) {
	if err := ValidatePackageName(packageName); err != nil {
		return nil, err
	}
	return &InstallInfo{packageName: packageName, installPath: installPath}, nil
}

// PackageName returns the name of the installed package.
func (i *InstallInfo) PackageName() string { return i.packageName }

// InstallPath returns the install path, relative to the project root unless absolute.
func (i *InstallInfo) InstallPath() string { return i.installPath }

// Installer returns the name of the installer that added the package.
func (i *InstallInfo) Installer() string { return i.installer }

// SetInstaller records the installer name.
func (i *InstallInfo) SetInstaller(name string) { i.installer = name }

// EnabledBindingUUIDs returns a copy of the explicitly enabled UUIDs.
func (i *InstallInfo) EnabledBindingUUIDs() []uuid.UUID { return slices.Clone(i.enabledBindingUUIDs) }

// DisabledBindingUUIDs returns a copy of the disabled UUIDs.
func (i *InstallInfo) DisabledBindingUUIDs() []uuid.UUID { return slices.Clone(i.disabledBindingUUIDs) }

// AddEnabledBindingUUID enables id, removing it from the disabled list.
func (i *InstallInfo) AddEnabledBindingUUID(id uuid.UUID) {
	i.disabledBindingUUIDs = remove(i.disabledBindingUUIDs, id)
	if !slices.Contains(i.enabledBindingUUIDs, id) {
		i.enabledBindingUUIDs = append(i.enabledBindingUUIDs, id)
	}
}

// RemoveEnabledBindingUUID drops id from the enabled list.
func (i *InstallInfo) RemoveEnabledBindingUUID(id uuid.UUID) {
	i.enabledBindingUUIDs = remove(i.enabledBindingUUIDs, id)
}

// HasEnabledBindingUUID reports whether id is explicitly enabled.
func (i *InstallInfo) HasEnabledBindingUUID(id uuid.UUID) bool {
	return slices.Contains(i.enabledBindingUUIDs, id)
}

// AddDisabledBindingUUID disables id, removing it from the enabled list.
func (i *InstallInfo) AddDisabledBindingUUID(id uuid.UUID) {
	i.enabledBindingUUIDs = remove(i.enabledBindingUUIDs, id)
	if !slices.Contains(i.disabledBindingUUIDs, id) {
		i.disabledBindingUUIDs = append(i.disabledBindingUUIDs, id)
	}
}

// RemoveDisabledBindingUUID drops id from the disabled list.
func (i *InstallInfo) RemoveDisabledBindingUUID(id uuid.UUID) {
	i.disabledBindingUUIDs = remove(i.disabledBindingUUIDs, id)
}

// HasDisabledBindingUUID reports whether id is disabled.
func (i *InstallInfo) HasDisabledBindingUUID(id uuid.UUID) bool {
	return slices.Contains(i.disabledBindingUUIDs, id)
}

// EnabledBindingIndex returns the position of id in the enabled list, or -1.
func (i *InstallInfo) EnabledBindingIndex(id uuid.UUID) int {
	return slices.Index(i.enabledBindingUUIDs, id)
}

// DisabledBindingIndex returns the position of id in the disabled list, or -1.
func (i *InstallInfo) DisabledBindingIndex(id uuid.UUID) int {
	return slices.Index(i.disabledBindingUUIDs, id)
}

// InsertEnabledBindingUUID enables id at position at of the enabled list,
// clamped to its bounds. It undoes a removal from that position.
func (i *InstallInfo) InsertEnabledBindingUUID(at int, id uuid.UUID) {
	i.disabledBindingUUIDs = remove(i.disabledBindingUUIDs, id)
	i.enabledBindingUUIDs = insert(remove(i.enabledBindingUUIDs, id), at, id)
}

// InsertDisabledBindingUUID disables id at position at of the disabled
// list, clamped to its bounds.
func (i *InstallInfo) InsertDisabledBindingUUID(at int, id uuid.UUID) {
	i.enabledBindingUUIDs = remove(i.enabledBindingUUIDs, id)
	i.disabledBindingUUIDs = insert(remove(i.disabledBindingUUIDs, id), at, id)
}

func insert(ids []uuid.UUID, at int, id uuid.UUID) []uuid.UUID {
	return slices.Insert(ids, min(max(at, 0), len(ids)), id)
}

func remove(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	return slices.DeleteFunc(ids, func(x uuid.UUID) bool { return x == id })
}
