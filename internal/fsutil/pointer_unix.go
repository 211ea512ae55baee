//go:build !windows

package fsutil

import "os"

func writePointer(target, path string) error {
	return os.Symlink(target, path)
}
