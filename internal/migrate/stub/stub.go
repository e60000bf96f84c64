// Package stub creates and removes the launcher stub files left behind at
// an archived file's original path (spec §4.6/§9): a tiny script that,
// when invoked, opens the archived destination via the OS default handler.
// Grounded on original_source/netapp_interfaces.py's create_shortcut, with
// the platform split lifted from
// theweak1-file-maintenance/internal/utils/notification.go's
// runtime.GOOS branch (Windows vs. everything else) — a boundary detail,
// not a core behavioral change, per spec §9.
package stub

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Suffix is appended to the original path to name the stub file.
const Suffix = "_shortcut.bat"

// PathFor returns the stub launcher path for an archived original path.
func PathFor(originalPath string) string {
	return originalPath + Suffix
}

// Create writes a launcher stub at PathFor(originalPath) whose invocation
// opens archivedPath via the OS default handler.
func Create(originalPath, archivedPath string) error {
	content := launcherContent(archivedPath)
	return os.WriteFile(PathFor(originalPath), []byte(content), 0o755)
}

// Remove deletes the stub at originalPath's stub location, if present. A
// missing stub is not an error: spec §4.6 only requires deleting it "if
// present".
func Remove(originalPath string) error {
	err := os.Remove(PathFor(originalPath))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// launcherContent produces a platform script that opens archivedPath with
// the OS default handler. Content semantics only: "open this path"; the
// exact format is implementation-free so long as invoking it opens the
// file (spec §6).
func launcherContent(archivedPath string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("@echo off\r\nstart \"\" \"%s\"\r\n", archivedPath)
	}
	escaped := strings.ReplaceAll(archivedPath, `"`, `\"`)
	return fmt.Sprintf("#!/bin/sh\nxdg-open \"%s\" 2>/dev/null || open \"%s\" 2>/dev/null\n", escaped, escaped)
}
