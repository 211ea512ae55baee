// Package fsutil holds the filesystem primitives the entity store is built
// on: atomic writes, directory helpers and the "current" pointer.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AtomicWrite writes data to path using a tmp+rename strategy.
// If rename fails, the tmp file is cleaned up.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// MakeDirectory creates path and any missing parents.
func MakeDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

// RemoveDirectory removes path and everything below it.
func RemoveDirectory(path string) error {
	return os.RemoveAll(path)
}

// CopyTree copies the tree under src into dst, which must not already
// contain any of its entries. Named pipes, sockets and devices fail the copy.
func CopyTree(src, dst string) error {
	return os.CopyFS(dst, os.DirFS(src))
}

// IsDir reports whether path exists and is a directory. Errors other than
// "does not exist" are returned.
func IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// SubDirectories returns the names of the immediate subdirectories of dir in
// directory order. Regular files and symlinks are skipped.
func SubDirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ErrDanglingPointer is returned when a pointer resolves to something that is
// not an existing directory.
var ErrDanglingPointer = errors.New("pointer target is not a directory")

// ReplacePointer atomically repoints link at target. Readers see either the
// old target or the new one, never a missing link.
func ReplacePointer(target, link string) error {
	tmp := filepath.Join(filepath.Dir(link), "."+filepath.Base(link)+".tmp")
	_ = os.Remove(tmp)
	if err := writePointer(target, tmp); err != nil {
		return fmt.Errorf("create pointer: %w", err)
	}
	if err := os.Rename(tmp, link); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace pointer: %w", err)
	}
	return nil
}

// ReadPointer returns the raw target stored in link, without checking it.
func ReadPointer(link string) (string, error) {
	info, err := os.Lstat(link)
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return os.Readlink(link)
	}
	if info.Mode().IsRegular() {
		data, err := os.ReadFile(link)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	return "", fmt.Errorf("%s: not a pointer", link)
}

// ResolvePointer returns the absolute directory link points at. Relative
// targets are resolved against the link's own directory.
func ResolvePointer(link string) (string, error) {
	target, err := ReadPointer(link)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(link), target)
	}
	ok, err := IsDir(target)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", target, ErrDanglingPointer)
	}
	return filepath.Clean(target), nil
}
