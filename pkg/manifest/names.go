// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ParameterNameDelimiter separates a type name from a parameter name in
// qualified parameter names ("my/type.param"). Parameter names can never
// contain it.
const ParameterNameDelimiter = "."

var (
	typeNamePattern      = regexp.MustCompile(`^[a-z0-9-]+/[a-z0-9-]+$`)
	parameterNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

	// ErrInvalidTypeName is the sentinel error wrapped by InvalidTypeNameError.
	ErrInvalidTypeName = errors.New("invalid binding type name")
	// ErrInvalidParameterName is the sentinel error wrapped by InvalidParameterNameError.
	ErrInvalidParameterName = errors.New("invalid parameter name")
	// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
	ErrInvalidPackageName = errors.New("invalid package name")
)

type (
	// InvalidTypeNameError is returned for type names not of the form
	// "vendor/name" with lower-case letters, digits and hyphens.
	InvalidTypeNameError struct {
		Value string
	}

	// InvalidParameterNameError is returned for parameter names not
	// matching ^[a-z][a-z0-9-]*$.
	InvalidParameterNameError struct {
		Value string
	}

	// InvalidPackageNameError is returned for empty package names or names
	// containing whitespace.
	InvalidPackageNameError struct {
		Value string
	}
)

// ValidateTypeName checks a binding type name.
func ValidateTypeName(name string) error {
	if !typeNamePattern.MatchString(name) {
		return &InvalidTypeNameError{Value: name}
	}
	return nil
}

// ValidateParameterName checks a parameter name.
func ValidateParameterName(name string) error {
	if !parameterNamePattern.MatchString(name) {
		return &InvalidParameterNameError{Value: name}
	}
	return nil
}

// ValidatePackageName checks a package name.
func ValidatePackageName(name string) error {
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return &InvalidPackageNameError{Value: name}
	}
	return nil
}

func (e *InvalidTypeNameError) Error() string {
	return fmt.Sprintf("invalid binding type name %q: expected \"vendor/name\" using lower-case letters, digits and hyphens", e.Value)
}

// Unwrap returns ErrInvalidTypeName.
func (e *InvalidTypeNameError) Unwrap() error { return ErrInvalidTypeName }

func (e *InvalidParameterNameError) Error() string {
	return fmt.Sprintf("invalid parameter name %q: must start with a letter and contain only lower-case letters, digits and hyphens", e.Value)
}

// Unwrap returns ErrInvalidParameterName.
func (e *InvalidParameterNameError) Unwrap() error { return ErrInvalidParameterName }

func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: must be non-empty and contain no whitespace", e.Value)
}

// Unwrap returns ErrInvalidPackageName.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }
