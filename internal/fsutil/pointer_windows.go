//go:build windows

package fsutil

import "os"

// Symlinks need elevated rights on most Windows hosts, so the pointer is a
// small file holding the target path.
func writePointer(target, path string) error {
	return os.WriteFile(path, []byte(target+"\n"), 0644)
}
