// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// LanguageGlob is the default query language of a binding.
const LanguageGlob QueryLanguage = "glob"

// ErrInvalidQueryLanguage is the sentinel error wrapped by InvalidQueryLanguageError.
var ErrInvalidQueryLanguage = errors.New("invalid query language")

type (
	// QueryLanguage names the language a binding query is written in, such as
	// "glob" or "xpath". The value is opaque to the manager; only the registry
	// interprets it.
	QueryLanguage string

	// InvalidQueryLanguageError is returned when a QueryLanguage is empty,
	// contains whitespace or uses upper-case letters.
	InvalidQueryLanguageError struct {
		Value QueryLanguage
	}
)

// String returns the string representation of the QueryLanguage.
func (l QueryLanguage) String() string { return string(l) }

// OrDefault returns the language, or LanguageGlob when it is empty.
func (l QueryLanguage) OrDefault() QueryLanguage {
	if l == "" {
		return LanguageGlob
	}
	return l
}

// Validate returns nil if the language is a non-empty lower-case token.
func (l QueryLanguage) Validate() error {
	s := string(l)
	if s == "" || strings.ContainsAny(s, " \t\r\n") || strings.ToLower(s) != s {
		return &InvalidQueryLanguageError{Value: l}
	}
	return nil
}

// Error implements the error interface for InvalidQueryLanguageError.
func (e *InvalidQueryLanguageError) Error() string {
	return fmt.Sprintf("invalid query language %q: must be a non-empty lower-case token", e.Value)
}

// Unwrap returns ErrInvalidQueryLanguage for errors.Is() compatibility.
func (e *InvalidQueryLanguageError) Unwrap() error { return ErrInvalidQueryLanguage }
