// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyLoaded is returned when loading a descriptor that is already loaded.
	ErrAlreadyLoaded = errors.New("descriptor is already loaded")
	// ErrNotLoaded is returned when unloading a descriptor that is not loaded.
	ErrNotLoaded = errors.New("descriptor is not loaded")
	// ErrEmptyQuery is returned for bindings without a query.
	ErrEmptyQuery = errors.New("binding query must not be empty")
	// ErrInvalidParameter is the sentinel error wrapped by InvalidParameterError.
	ErrInvalidParameter = errors.New("invalid parameter declaration")
	// ErrInvalidParameterValue is the sentinel error wrapped by InvalidParameterValueError.
	ErrInvalidParameterValue = errors.New("invalid parameter value")
)

type (
	// InvalidParameterError describes a parameter declaration that cannot be
	// part of a binding type, such as a required parameter with a default.
	InvalidParameterError struct {
		TypeName  string
		Parameter string
		Reason    string
	}

	// InvalidParameterValueError is returned for non-scalar parameter values.
	InvalidParameterValueError struct {
		Parameter string
		Err       error
	}
)

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q of type %q: %s", e.Parameter, e.TypeName, e.Reason)
}

// Unwrap returns ErrInvalidParameter.
func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameter }

func (e *InvalidParameterValueError) Error() string {
	return fmt.Sprintf("invalid value for parameter %q: %v", e.Parameter, e.Err)
}

// Unwrap returns both ErrInvalidParameterValue and the underlying cause.
func (e *InvalidParameterValueError) Unwrap() []error {
	return []error{ErrInvalidParameterValue, e.Err}
}
