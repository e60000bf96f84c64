// Package filesvc defines the remote file-service collaborator interface
// scoped out of the core by the specification (share enumeration, walk,
// open/read/write, remove, stat) plus two concrete implementations: an
// in-memory fake for tests, and a local-filesystem adapter for manual/CLI
// operation against a real directory tree. A NetApp/SMB-backed client is a
// collaborator that would implement the same interface; it is not part of
// this repository.
package filesvc

import (
	"context"
	"io"
	"strings"
	"time"
)

// OpenMode selects read or write access for Open.
type OpenMode int

const (
	ModeRead OpenMode = iota
	ModeWrite
)

// Info is the per-file metadata yielded by Walk and Stat.
type Info struct {
	Path         string
	Size         int64
	CreationTime time.Time
	AccessTime   time.Time
	ModTime      time.Time
	IsDir        bool
}

// WalkFunc is invoked once per entry encountered by Walk. Returning
// SkipDir for a directory entry skips its subtree; any other non-nil
// error aborts the walk of the current root (the caller logs it and moves
// on — spec §4.1's "directory is abandoned, the walk continues" applies at
// the share-walker layer, one level above this interface).
type WalkFunc func(info Info) error

// SkipDir signals Walk to skip the directory just visited.
var SkipDir = skipDirErr{}

type skipDirErr struct{}

func (skipDirErr) Error() string { return "skip directory" }

// Client is the remote file-service collaborator interface (spec §6).
type Client interface {
	// Walk traverses root depth-first, invoking fn for every file and
	// directory encountered.
	Walk(ctx context.Context, root string, fn WalkFunc) error
	// Open returns a handle for reading or writing path.
	Open(ctx context.Context, path string, mode OpenMode) (io.ReadWriteCloser, error)
	// Remove deletes the file at path.
	Remove(ctx context.Context, path string) error
	// Stat returns metadata for path.
	Stat(ctx context.Context, path string) (Info, error)
	// SetTimes stamps access and modification times on path, used to
	// preserve recency across a copy (spec §4.6).
	SetTimes(ctx context.Context, path string, access, modified time.Time) error
}

// Normalize rewrites path to begin with `\\` and use `\` as separator, the
// UNC convention spec §6 mandates for remote-file-service paths.
func Normalize(path string) string {
	path = strings.ReplaceAll(path, "/", `\`)
	for strings.Contains(path, `\\\`) {
		path = strings.ReplaceAll(path, `\\\`, `\\`)
	}
	if !strings.HasPrefix(path, `\\`) {
		path = `\\` + strings.TrimPrefix(path, `\`)
	}
	return path
}
