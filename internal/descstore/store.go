// SPDX-License-Identifier: MPL-2.0

package descstore

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNotFound is returned when no descriptor exists for a key.
var ErrNotFound = errors.New("descriptor not found")

type (
	// Descriptor is the part of a descriptor the store needs to answer
	// "which one is enabled".
	Descriptor interface {
		IsEnabled() bool
	}

	// Store is a two-level index: key -> package name -> descriptor. The
	// zero value is not usable; call New.
	Store[K comparable, D Descriptor] struct {
		keys    []K
		entries map[K]*entry[D]
	}

	// NotFoundError reports a lookup of an unknown key or package.
	NotFoundError struct {
		Key     string
		Package string
	}

	entry[D Descriptor] struct {
		packages []string
		byPkg    map[string]D
	}
)

// New creates an empty store.
func New[K comparable, D Descriptor]() *Store[K, D] {
	return &Store[K, D]{entries: make(map[K]*entry[D])}
}

// Add stores d as the declaration of key by pkg, overwriting in place.
func (s *Store[K, D]) Add(key K, pkg string, d D) {
	e, ok := s.entries[key]
	if !ok {
		e = &entry[D]{byPkg: make(map[string]D)}
		s.entries[key] = e
		s.keys = append(s.keys, key)
	}
	if _, exists := e.byPkg[pkg]; !exists {
		e.packages = append(e.packages, pkg)
	}
	e.byPkg[pkg] = d
}

// Insert stores d as the declaration of key by pkg at position i among the
// declarations of key, clamped to their bounds. An existing declaration of
// pkg is moved.
func (s *Store[K, D]) Insert(key K, pkg string, i int, d D) {
	s.Remove(key, pkg)
	s.Add(key, pkg, d)
	e := s.entries[key]
	e.packages = e.packages[:len(e.packages)-1]
	i = min(max(i, 0), len(e.packages))
	e.packages = slices.Insert(e.packages, i, pkg)
}

// Index returns the position of pkg among the declarations of key, or -1.
func (s *Store[K, D]) Index(key K, pkg string) int {
	if e, ok := s.entries[key]; ok {
		return slices.Index(e.packages, pkg)
	}
	return -1
}

// Remove drops the declaration of key by pkg. Unknown entries are ignored.
func (s *Store[K, D]) Remove(key K, pkg string) {
	e, ok := s.entries[key]
	if !ok {
		return
	}
	if _, exists := e.byPkg[pkg]; !exists {
		return
	}
	delete(e.byPkg, pkg)
	e.packages = slices.DeleteFunc(e.packages, func(p string) bool { return p == pkg })
	if len(e.packages) == 0 {
		delete(s.entries, key)
		s.keys = slices.DeleteFunc(s.keys, func(k K) bool { return k == key })
	}
}

// Get returns the first declaration of key.
func (s *Store[K, D]) Get(key K) (D, error) {
	e, ok := s.entries[key]
	if !ok {
		var zero D
		return zero, &NotFoundError{Key: fmt.Sprint(key)}
	}
	return e.byPkg[e.packages[0]], nil
}

// GetForPackage returns the declaration of key by pkg.
func (s *Store[K, D]) GetForPackage(key K, pkg string) (D, error) {
	if e, ok := s.entries[key]; ok {
		if d, ok := e.byPkg[pkg]; ok {
			return d, nil
		}
	}
	var zero D
	return zero, &NotFoundError{Key: fmt.Sprint(key), Package: pkg}
}

// GetEnabled returns the enabled declaration of key, if any.
func (s *Store[K, D]) GetEnabled(key K) (D, bool) {
	var zero D
	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	for _, pkg := range e.packages {
		if d := e.byPkg[pkg]; d.IsEnabled() {
			return d, true
		}
	}
	return zero, false
}

// ListAll returns every declaration of key in insertion order.
func (s *Store[K, D]) ListAll(key K) ([]D, error) {
	e, ok := s.entries[key]
	if !ok {
		return nil, &NotFoundError{Key: fmt.Sprint(key)}
	}
	out := make([]D, len(e.packages))
	for i, pkg := range e.packages {
		out[i] = e.byPkg[pkg]
	}
	return out, nil
}

// Contains reports whether any package declares key.
func (s *Store[K, D]) Contains(key K) bool {
	_, ok := s.entries[key]
	return ok
}

// ContainsForPackage reports whether pkg declares key.
func (s *Store[K, D]) ContainsForPackage(key K, pkg string) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	_, ok = e.byPkg[pkg]
	return ok
}

// ContainsEnabled reports whether key has an enabled declaration.
func (s *Store[K, D]) ContainsEnabled(key K) bool {
	_, ok := s.GetEnabled(key)
	return ok
}

// PackageNames returns the packages declaring key in insertion order.
func (s *Store[K, D]) PackageNames(key K) []string {
	if e, ok := s.entries[key]; ok {
		return slices.Clone(e.packages)
	}
	return nil
}

// AllPackageNames returns every package declaring any key, each once, in
// the order first seen.
func (s *Store[K, D]) AllPackageNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, key := range s.keys {
		for _, pkg := range s.entries[key].packages {
			if !seen[pkg] {
				seen[pkg] = true
				names = append(names, pkg)
			}
		}
	}
	return names
}

// Keys returns all keys in insertion order.
func (s *Store[K, D]) Keys() []K { return slices.Clone(s.keys) }

// Len returns the number of keys.
func (s *Store[K, D]) Len() int { return len(s.keys) }

func (e *NotFoundError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("no descriptor %s in package %q", e.Key, e.Package)
	}
	return fmt.Sprintf("no descriptor %s", e.Key)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }
