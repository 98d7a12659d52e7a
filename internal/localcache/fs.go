package localcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	fileExt   = ".json"
	tmpPrefix = ".dsaflash-tmp-"
)

// FS implements Store with one file per key under a directory.
type FS struct {
	root string // absolute path to the cache directory
}

// NewFS creates a file-backed cache rooted at dir, creating it if needed.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("localcache: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("localcache: mkdir root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("localcache: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("localcache: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute cache directory.
func (f *FS) Root() string { return f.root }

// keyPath maps a key to its file. Keys are plain names; anything that could
// escape the cache directory is rejected.
func (f *FS) keyPath(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.root, key+fileExt), nil
}

// keyOf maps a file path inside the cache directory back to its key.
func keyOf(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, tmpPrefix) || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key := strings.TrimSuffix(name, fileExt)
	return key, validKey(key) == nil
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("localcache: empty key")
	}
	if key != filepath.Base(key) || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("localcache: invalid key: %q", key)
	}
	return nil
}

// Get returns the raw value stored under key.
func (f *FS) Get(key string) ([]byte, error) {
	p, err := f.keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("localcache: read %s: %w", key, err)
	}
	return data, nil
}

// Set atomically writes value: tmp file → fsync → rename.
func (f *FS) Set(key string, value []byte) error {
	p, err := f.keyPath(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("localcache: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(value); err != nil {
		return fmt.Errorf("localcache: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("localcache: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("localcache: close temp: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("localcache: rename: %w", err)
	}
	success = true
	return nil
}

// Remove deletes keys. Missing keys are ignored.
func (f *FS) Remove(keys ...string) error {
	for _, key := range keys {
		p, err := f.keyPath(key)
		if err != nil {
			return err
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("localcache: remove %s: %w", key, err)
		}
	}
	return nil
}

// Keys lists every stored key, sorted.
func (f *FS) Keys() ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("localcache: list: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if key, ok := keyOf(e.Name()); ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}
