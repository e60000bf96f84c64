package utils

import (
	"os"
	"path/filepath"
)

// ExeDir returns the directory containing the currently running executable,
// for resolving default config/log paths independent of the process's
// working directory (a scheduled task can start with cwd set to something
// like C:\Windows\System32, which os.Getwd() would otherwise hand back).
//
// It resolves os.Executable() through any symlinks so a shortcut or wrapper
// invocation still yields the binary's real on-disk directory. Callers that
// can tolerate a less precise root may fall back to os.Getwd() on error.
//
//	root, err := utils.ExeDir()
//	if err != nil {
//	    root, _ = os.Getwd()
//	}
//	defaultConfigDir := filepath.Join(root, "configs")
//	defaultLogDir    := filepath.Join(root, "logs")
func ExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}

	return filepath.Dir(exe), nil
}
