// SPDX-License-Identifier: MPL-2.0

package manifest

const (
	// BindingUnloaded means the descriptor is not attached to a package.
	BindingUnloaded BindingState = iota
	// BindingEnabled means the binding is live in the discovery registry.
	BindingEnabled
	// BindingDisabled means the owning package's install info disables the UUID.
	BindingDisabled
	// BindingDuplicate means another descriptor with the same UUID was chosen.
	BindingDuplicate
	// BindingHeldBack means the binding type is unknown or not enabled.
	BindingHeldBack
	// BindingIgnored means the parameter values do not fit the binding type.
	BindingIgnored
)

const (
	// TypeNotLoaded means the descriptor is not attached to a package.
	TypeNotLoaded TypeState = iota
	// TypeEnabled means the type is defined in the discovery registry.
	TypeEnabled
	// TypeDuplicate means another package's declaration of the name was chosen.
	TypeDuplicate
)

const (
	// PackageEnabled means the package file was found and loaded.
	PackageEnabled PackageState = iota
	// PackageNotFound means the install path or its manifest does not exist.
	PackageNotFound
	// PackageNotLoadable means the manifest exists but could not be decoded.
	PackageNotLoadable
)

type (
	// BindingState is the derived state of a BindingDescriptor.
	BindingState int

	// TypeState is the derived state of a BindingTypeDescriptor.
	TypeState int

	// PackageState describes whether a package could be loaded.
	PackageState int
)

func (s BindingState) String() string {
	switch s {
	case BindingUnloaded:
		return "unloaded"
	case BindingEnabled:
		return "enabled"
	case BindingDisabled:
		return "disabled"
	case BindingDuplicate:
		return "duplicate"
	case BindingHeldBack:
		return "held back"
	case BindingIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

func (s TypeState) String() string {
	switch s {
	case TypeNotLoaded:
		return "not loaded"
	case TypeEnabled:
		return "enabled"
	case TypeDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

func (s PackageState) String() string {
	switch s {
	case PackageEnabled:
		return "enabled"
	case PackageNotFound:
		return "not found"
	case PackageNotLoadable:
		return "not loadable"
	default:
		return "unknown"
	}
}
