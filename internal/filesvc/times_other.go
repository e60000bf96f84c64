//go:build !linux && !darwin

package filesvc

import (
	"os"
	"time"
)

// accessTime and creationTime fall back to ModTime on platforms (notably
// Windows, where sharetier's stub launchers are most relevant) where a
// portable access/creation-time accessor isn't available through the
// standard library without platform-specific syscalls.
func accessTime(fi os.FileInfo) time.Time   { return fi.ModTime().UTC() }
func creationTime(fi os.FileInfo) time.Time { return fi.ModTime().UTC() }
