package filesvc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	info Info
	data []byte
}

// MemFS is an in-memory Client used by tests. It stores file contents in a map guarded by a mutex so
// concurrent per-share workers can share one instance.
type MemFS struct {
	mu    sync.Mutex
	files map[string]*memEntry
}

// NewMemFS builds an empty in-memory file service.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]*memEntry)}
}

// Put seeds a file with the given metadata and content, for test setup.
func (m *MemFS) Put(info Info, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	info.Size = int64(len(cp))
	m.files[info.Path] = &memEntry{info: info, data: cp}
}

// MkDir seeds a directory entry at path with no content, for tests that
// need Walk to surface a directory node (e.g. to exercise blacklist
// skipping), matching how a real directory would be visited by LocalFS.
func (m *MemFS) MkDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = &memEntry{info: Info{Path: path, IsDir: true}}
}

// Walk honors SkipDir the same way LocalFS does: once fn returns SkipDir for
// a directory entry, every entry in that directory's subtree is pruned from
// the remaining iteration rather than still being delivered to fn.
func (m *MemFS) Walk(ctx context.Context, root string, fn WalkFunc) error {
	m.mu.Lock()
	var paths []string
	for p := range m.files {
		if isUnder(p, root) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	infos := make([]Info, 0, len(paths))
	for _, p := range paths {
		infos = append(infos, m.files[p].info)
	}
	m.mu.Unlock()

	var skippedDirs []string
	for _, info := range infos {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if underAny(info.Path, skippedDirs) {
			continue
		}
		err := fn(info)
		if err == SkipDir {
			if info.IsDir {
				skippedDirs = append(skippedDirs, info.Path)
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func underAny(path string, roots []string) bool {
	for _, r := range roots {
		if isUnder(path, r) {
			return true
		}
	}
	return false
}

func isUnder(path, root string) bool {
	if root == "" || root == `\\` {
		return true
	}
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root) && strings.HasPrefix(path[len(root):], `\`)
}

type memHandle struct {
	buf    *bytes.Buffer
	fs     *MemFS
	path   string
	write  bool
	closed bool
}

func (h *memHandle) Read(p []byte) (int, error)  { return h.buf.Read(p) }
func (h *memHandle) Write(p []byte) (int, error) { return h.buf.Write(p) }

func (h *memHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if !h.write {
		return nil
	}
	h.fs.mu.Lock()
	defer h.fs.mu.Unlock()
	now := time.Now().UTC()
	data := h.buf.Bytes()
	existing, ok := h.fs.files[h.path]
	info := Info{Path: h.path, Size: int64(len(data)), AccessTime: now, ModTime: now, CreationTime: now}
	if ok {
		info.CreationTime = existing.info.CreationTime
	}
	h.fs.files[h.path] = &memEntry{info: info, data: data}
	return nil
}

func (m *MemFS) Open(ctx context.Context, path string, mode OpenMode) (io.ReadWriteCloser, error) {
	if mode == ModeWrite {
		return &memHandle{buf: &bytes.Buffer{}, fs: m, path: path, write: true}, nil
	}
	m.mu.Lock()
	entry, ok := m.files[path]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("open %s: not found", path)
	}
	return &memHandle{buf: bytes.NewBuffer(entry.data), fs: m, path: path}, nil
}

func (m *MemFS) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; !ok {
		return fmt.Errorf("remove %s: not found", path)
	}
	delete(m.files, path)
	return nil
}

func (m *MemFS) Stat(ctx context.Context, path string) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.files[path]
	if !ok {
		return Info{}, fmt.Errorf("stat %s: not found", path)
	}
	return entry.info, nil
}

func (m *MemFS) SetTimes(ctx context.Context, path string, access, modified time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.files[path]
	if !ok {
		return fmt.Errorf("set times %s: not found", path)
	}
	entry.info.AccessTime = access
	entry.info.ModTime = modified
	return nil
}
