// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"

	"github.com/pkgbind/pkgbind/pkg/types"
)

var (
	// ErrDuplicateType is returned when a type name is defined twice.
	ErrDuplicateType = errors.New("duplicate binding type")
	// ErrNoSuchType is returned when a binding references an undefined type.
	ErrNoSuchType = errors.New("no such binding type")
	// ErrNoQueryMatches is returned when a query matches no resource.
	ErrNoQueryMatches = errors.New("query matches no resources")
	// ErrMissingParameter is returned when a required parameter has no value.
	ErrMissingParameter = errors.New("missing binding parameter")
	// ErrNoSuchParameter is returned when a value is given for an undeclared parameter.
	ErrNoSuchParameter = errors.New("no such binding parameter")
)

type (
	// DuplicateTypeError wraps ErrDuplicateType.
	DuplicateTypeError struct {
		Name string
	}

	// NoSuchTypeError wraps ErrNoSuchType.
	NoSuchTypeError struct {
		Name string
	}

	// NoQueryMatchesError wraps ErrNoQueryMatches.
	NoQueryMatchesError struct {
		Query    string
		Language types.QueryLanguage
	}

	// MissingParameterError wraps ErrMissingParameter.
	MissingParameterError struct {
		TypeName  string
		Parameter string
	}

	// NoSuchParameterError wraps ErrNoSuchParameter.
	NoSuchParameterError struct {
		TypeName  string
		Parameter string
	}
)

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("binding type %q is already defined", e.Name)
}

// Unwrap returns ErrDuplicateType.
func (e *DuplicateTypeError) Unwrap() error { return ErrDuplicateType }

func (e *NoSuchTypeError) Error() string {
	return fmt.Sprintf("binding type %q is not defined", e.Name)
}

// Unwrap returns ErrNoSuchType.
func (e *NoSuchTypeError) Unwrap() error { return ErrNoSuchType }

func (e *NoQueryMatchesError) Error() string {
	return fmt.Sprintf("%s query %q matches no resources", e.Language, e.Query)
}

// Unwrap returns ErrNoQueryMatches.
func (e *NoQueryMatchesError) Unwrap() error { return ErrNoQueryMatches }

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("required parameter %q of binding type %q is missing", e.Parameter, e.TypeName)
}

// Unwrap returns ErrMissingParameter.
func (e *MissingParameterError) Unwrap() error { return ErrMissingParameter }

func (e *NoSuchParameterError) Error() string {
	return fmt.Sprintf("binding type %q has no parameter %q", e.TypeName, e.Parameter)
}

// Unwrap returns ErrNoSuchParameter.
func (e *NoSuchParameterError) Unwrap() error { return ErrNoSuchParameter }
