// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/pkg/registry"
)

var (
	// ErrNoSuchType is returned when no package declares a binding type.
	ErrNoSuchType = registry.ErrNoSuchType
	// ErrDuplicateType is returned when the root package already declares a type.
	ErrDuplicateType = registry.ErrDuplicateType
	// ErrMissingParameter is returned when a required parameter has no value.
	ErrMissingParameter = registry.ErrMissingParameter
	// ErrNoSuchParameter is returned when a value is given for an undeclared parameter.
	ErrNoSuchParameter = registry.ErrNoSuchParameter

	// ErrTypeNotEnabled is returned when a binding type is known but not enabled.
	ErrTypeNotEnabled = errors.New("binding type is not enabled")
	// ErrNoSuchBinding is returned for unknown binding UUIDs.
	ErrNoSuchBinding = errors.New("no such binding")
	// ErrDuplicateBinding is returned when the root package already declares a UUID.
	ErrDuplicateBinding = errors.New("duplicate binding")
	// ErrCannotEnableBinding is returned when a binding cannot be enabled.
	ErrCannotEnableBinding = errors.New("cannot enable binding")
	// ErrCannotDisableBinding is returned when a binding cannot be disabled.
	ErrCannotDisableBinding = errors.New("cannot disable binding")
	// ErrDiscoveryNotEmpty is returned when building into a non-empty registry.
	ErrDiscoveryNotEmpty = errors.New("discovery registry is not empty")
)

type (
	// TypeNotFoundError wraps ErrNoSuchType.
	TypeNotFoundError struct {
		Name string
	}

	// TypeNotEnabledError wraps ErrTypeNotEnabled.
	TypeNotEnabledError struct {
		Name string
	}

	// DuplicateTypeError wraps ErrDuplicateType.
	DuplicateTypeError struct {
		Name string
	}

	// BindingNotFoundError wraps ErrNoSuchBinding.
	BindingNotFoundError struct {
		UUID    uuid.UUID
		Package string
	}

	// DuplicateBindingError wraps ErrDuplicateBinding.
	DuplicateBindingError struct {
		UUID uuid.UUID
	}

	// CannotEnableBindingError wraps ErrCannotEnableBinding.
	CannotEnableBindingError struct {
		UUID    uuid.UUID
		Package string
		Reason  string
	}

	// CannotDisableBindingError wraps ErrCannotDisableBinding.
	CannotDisableBindingError struct {
		UUID    uuid.UUID
		Package string
		Reason  string
	}
)

func (e *TypeNotFoundError) Error() string {
	return fmt.Sprintf("binding type %q is not declared by any package", e.Name)
}

// Unwrap returns ErrNoSuchType.
func (e *TypeNotFoundError) Unwrap() error { return ErrNoSuchType }

func (e *TypeNotEnabledError) Error() string {
	return fmt.Sprintf("binding type %q is not enabled", e.Name)
}

// Unwrap returns ErrTypeNotEnabled.
func (e *TypeNotEnabledError) Unwrap() error { return ErrTypeNotEnabled }

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("the root package already declares binding type %q", e.Name)
}

// Unwrap returns ErrDuplicateType.
func (e *DuplicateTypeError) Unwrap() error { return ErrDuplicateType }

func (e *BindingNotFoundError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("package %q declares no binding %s", e.Package, e.UUID)
	}
	return fmt.Sprintf("no binding %s", e.UUID)
}

// Unwrap returns ErrNoSuchBinding.
func (e *BindingNotFoundError) Unwrap() error { return ErrNoSuchBinding }

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("the root package already declares binding %s", e.UUID)
}

// Unwrap returns ErrDuplicateBinding.
func (e *DuplicateBindingError) Unwrap() error { return ErrDuplicateBinding }

func (e *CannotEnableBindingError) Error() string {
	return fmt.Sprintf("cannot enable binding %s in package %q: %s", e.UUID, e.Package, e.Reason)
}

// Unwrap returns ErrCannotEnableBinding.
func (e *CannotEnableBindingError) Unwrap() error { return ErrCannotEnableBinding }

func (e *CannotDisableBindingError) Error() string {
	return fmt.Sprintf("cannot disable binding %s in package %q: %s", e.UUID, e.Package, e.Reason)
}

// Unwrap returns ErrCannotDisableBinding.
func (e *CannotDisableBindingError) Unwrap() error { return ErrCannotDisableBinding }
