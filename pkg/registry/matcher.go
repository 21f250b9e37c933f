// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar"

	"github.com/pkgbind/pkgbind/pkg/types"
)

type (
	// Matcher decides whether a query selects at least one resource.
	Matcher interface {
		Matches(query string, language types.QueryLanguage) (bool, error)
	}

	// GlobMatcher matches glob queries against a fixed list of resource
	// paths. Queries in other languages are accepted unchecked.
	GlobMatcher struct {
		paths []string
	}
)

// NewGlobMatcher creates a GlobMatcher over slash-separated, absolute
// resource paths such as "/app/config.yml".
func NewGlobMatcher(paths []string) *GlobMatcher {
	return &GlobMatcher{paths: slices.Clone(paths)}
}

// Matches reports whether any resource path matches the glob query.
func (m *GlobMatcher) Matches(query string, language types.QueryLanguage) (bool, error) {
	if language.OrDefault() != types.LanguageGlob {
		return true, nil
	}
	for _, p := range m.paths {
		ok, err := doublestar.Match(query, p)
		if err != nil {
			return false, fmt.Errorf("invalid glob query %q: %w", query, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ResourcePaths lists every file and directory below root as an absolute,
// slash-separated resource path ("/" is root itself). Hidden directories are
// skipped.
func ResourcePaths(root string) ([]string, error) {
	paths := []string{"/"}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if d.IsDir() && len(d.Name()) > 1 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		paths = append(paths, path.Join("/", filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list resources below %s: %w", root, err)
	}
	return paths, nil
}
