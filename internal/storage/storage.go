// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pkgbind/pkgbind/pkg/cueutil"
	"github.com/pkgbind/pkgbind/pkg/manifest"
)

// DefaultCacheSize is the number of package manifests kept in memory.
const DefaultCacheSize = 256

// ErrManifestNotFound is the sentinel error wrapped by ManifestNotFoundError.
var ErrManifestNotFound = errors.New("manifest not found")

type (
	// FileStorage loads and saves manifests on the local filesystem.
	FileStorage struct {
		cache *lru.Cache[string, cacheEntry]
	}

	// Option configures a FileStorage.
	Option func(*options)

	options struct {
		cacheSize int
	}

	cacheEntry struct {
		modTime time.Time
		size    int64
		file    *manifest.PackageFile
	}

	// ManifestNotFoundError is returned when a manifest file does not exist.
	// It matches both ErrManifestNotFound and fs.ErrNotExist.
	ManifestNotFoundError struct {
		Path string
	}
)

// WithCacheSize sets the number of cached package manifests.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// New creates a FileStorage.
func New(opts ...Option) (*FileStorage, error) {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	cache, err := lru.New[string, cacheEntry](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest cache: %w", err)
	}
	return &FileStorage{cache: cache}, nil
}

// LoadPackageFile reads the manifest of an installed package. Every call
// returns a fresh copy with unloaded descriptors.
func (s *FileStorage) LoadPackageFile(path string) (*manifest.PackageFile, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, statError(path, err)
	}
	if e, ok := s.cache.Get(path); ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e.file.Clone(), nil
	}

	data, err := readManifest(path)
	if err != nil {
		return nil, err
	}
	f, err := manifest.DecodePackageFile(data, path)
	if err != nil {
		return nil, err
	}
	s.cache.Add(path, cacheEntry{modTime: info.ModTime(), size: info.Size(), file: f.Clone()})
	return f, nil
}

// LoadRootPackageFile reads the root manifest.
func (s *FileStorage) LoadRootPackageFile(path string) (*manifest.RootPackageFile, error) {
	path = filepath.Clean(path)
	data, err := readManifest(path)
	if err != nil {
		return nil, err
	}
	return manifest.DecodeRootPackageFile(data, path)
}

// SaveRootPackageFile writes the root manifest to its path. The file is
// replaced atomically: readers see either the old or the new content.
func (s *FileStorage) SaveRootPackageFile(ctx context.Context, f *manifest.RootPackageFile) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save root manifest canceled: %w", err)
	}
	if f.Path() == "" {
		return errors.New("root manifest has no path")
	}
	data, err := manifest.EncodeRootPackageFile(f)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(f.Path(), data); err != nil {
		return err
	}
	s.cache.Remove(filepath.Clean(f.Path()))
	return nil
}

// Error implements the error interface.
func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("manifest %s not found", e.Path)
}

// Unwrap returns ErrManifestNotFound and fs.ErrNotExist.
func (e *ManifestNotFoundError) Unwrap() []error {
	return []error{ErrManifestNotFound, fs.ErrNotExist}
}

func readManifest(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, statError(path, err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, err
	}
	return data, nil
}

func statError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &ManifestNotFoundError{Path: path}
	}
	return fmt.Errorf("failed to read manifest %s: %w", path, err)
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over path. Both live on the same filesystem, which keeps
// the rename atomic.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".pkgbind-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name()) // best-effort cleanup of a partial write
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	renamed = true
	return nil
}
