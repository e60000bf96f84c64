package filesvc

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/karrick/godirwalk"
)

// LocalFS implements Client against a real local directory tree, for
// manual/CLI operation and local integration tests. A NetApp/SMB client
// would implement the same interface against a remote share instead.
type LocalFS struct{}

// NewLocalFS returns a Client backed by the local filesystem.
func NewLocalFS() *LocalFS { return &LocalFS{} }

func (LocalFS) Walk(ctx context.Context, root string, fn WalkFunc) error {
	var callbackErr error
	return godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: false,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if ctx.Err() != nil {
				callbackErr = ctx.Err()
				return callbackErr
			}
			fi, err := os.Lstat(path)
			if err != nil {
				// Per-entry stat failures are skipped, not fatal to the walk.
				return nil
			}
			info := toInfo(path, fi)
			if err := fn(info); err != nil {
				if err == SkipDir {
					if de.IsDir() {
						return godirwalk.SkipThis
					}
					return nil
				}
				callbackErr = err
				return err
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			// Errors from fn or a cancelled ctx halt the walk; I/O errors
			// on individual entries are skipped.
			if callbackErr != nil {
				return godirwalk.Halt
			}
			return godirwalk.SkipNode
		},
	})
}

func (LocalFS) Open(ctx context.Context, path string, mode OpenMode) (io.ReadWriteCloser, error) {
	if mode == ModeWrite {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		return f, err
	}
	return os.Open(path)
}

func (LocalFS) Remove(ctx context.Context, path string) error {
	return os.Remove(path)
}

func (LocalFS) Stat(ctx context.Context, path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	return toInfo(path, fi), nil
}

func (LocalFS) SetTimes(ctx context.Context, path string, access, modified time.Time) error {
	return os.Chtimes(path, access, modified)
}

// toInfo converts a stdlib FileInfo to Info. Creation time is not exposed
// portably by os.FileInfo; platforms without it fall back to ModTime, same
// as the teacher's age checks already rely solely on ModTime.
func toInfo(path string, fi os.FileInfo) Info {
	return Info{
		Path:         path,
		Size:         fi.Size(),
		CreationTime: creationTime(fi),
		AccessTime:   accessTime(fi),
		ModTime:      fi.ModTime().UTC(),
		IsDir:        fi.IsDir(),
	}
}
