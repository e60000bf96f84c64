// Package housekeeping provides operator-facing maintenance for the
// tiering engine's own log directory, adapted unchanged in spirit from
// theweak1-file-maintenance/internal/maintenance/retention.go: the domain
// being tidied changed (tiering logs, not customer file shares) but the
// non-recursive, best-effort-per-file deletion policy did not.
package housekeeping

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RemoveOldLogs deletes top-level files in logDir whose modification time
// is older than days. Subdirectories are left untouched; a missing logDir
// is created rather than treated as an error; a per-file deletion failure
// (locked file, permission) is skipped, not fatal.
func RemoveOldLogs(logDir string, days int) error {
	info, err := os.Stat(logDir)
	if err != nil {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("log path is not a directory: %s", logDir)
	}

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return fmt.Errorf("read log directory: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if fi.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(logDir, entry.Name()))
		}
	}
	return nil
}
