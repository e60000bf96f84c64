package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sharetier/internal/filesvc"
)

func TestWalk_ColdOldClassification(t *testing.T) {
	fs := filesvc.NewMemFS()
	now := time.Now().UTC()

	fs.Put(filesvc.Info{Path: `\\data1\share\old.txt`, AccessTime: now.AddDate(0, 0, -400), ModTime: now.AddDate(0, 0, -400)}, []byte("x"))
	fs.Put(filesvc.Info{Path: `\\data1\share\fresh.txt`, AccessTime: now, ModTime: now}, []byte("x"))

	stats, err := Walk(context.Background(), fs, `\\data1\share`, Options{ColdDays: 180, OldDays: 365}, nil)
	require.NoError(t, err)

	require.Equal(t, 2, stats.TotalFileCount)
	require.Len(t, stats.ColdFiles, 1)
	require.Equal(t, 1, stats.OldFileCount)
	require.Equal(t, `\\data1\share\old.txt`, stats.ColdFiles[0].Path)
}

func TestWalk_ExcludesStubLaunchers(t *testing.T) {
	fs := filesvc.NewMemFS()
	now := time.Now().UTC()
	fs.Put(filesvc.Info{Path: `\\data1\share\doc.txt_shortcut.bat`, AccessTime: now.AddDate(0, 0, -400)}, []byte("x"))

	stats, err := Walk(context.Background(), fs, `\\data1\share`, Options{ColdDays: 180, OldDays: 365}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, stats.TotalFileCount)
}

func TestWalk_ClockSkewTreatsFutureAsNow(t *testing.T) {
	fs := filesvc.NewMemFS()
	future := time.Now().UTC().AddDate(1, 0, 0)
	fs.Put(filesvc.Info{Path: `\\data1\share\future.txt`, AccessTime: future, ModTime: future}, []byte("x"))

	stats, err := Walk(context.Background(), fs, `\\data1\share`, Options{ColdDays: 1, OldDays: 1}, nil)
	require.NoError(t, err)
	require.Empty(t, stats.ColdFiles, "future timestamp clamped to now should not be cold under a 1-day threshold")
}

// TestWalk_BlacklistedDirectoryCountsFilesBeneath guards against a
// blacklisted directory's contents silently vanishing from the blacklist
// ratio when the underlying Client prunes the subtree on SkipDir, exercising
// both MemFS and LocalFS so the two implementations can't diverge.
func TestWalk_BlacklistedDirectoryCountsFilesBeneath(t *testing.T) {
	t.Run("MemFS", func(t *testing.T) {
		fs := filesvc.NewMemFS()
		now := time.Now().UTC()
		fs.MkDir(`\\data1\share\secret`)
		fs.Put(filesvc.Info{Path: `\\data1\share\secret\a.txt`, AccessTime: now, ModTime: now}, []byte("x"))
		fs.Put(filesvc.Info{Path: `\\data1\share\secret\b.txt`, AccessTime: now, ModTime: now}, []byte("x"))
		fs.Put(filesvc.Info{Path: `\\data1\share\visible.txt`, AccessTime: now, ModTime: now}, []byte("x"))

		stats, err := Walk(context.Background(), fs, `\\data1\share`, Options{Blacklist: []string{"secret"}, ColdDays: 180, OldDays: 365}, nil)
		require.NoError(t, err)

		require.Equal(t, 1, stats.BlacklistedDirs)
		require.Equal(t, 2, stats.BlacklistedFiles)
		require.Equal(t, 1, stats.TotalFileCount)
		require.InDelta(t, 100*2.0/3.0, stats.BlacklistRatioPct, 0.01)
	})

	t.Run("LocalFS", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "secret"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "secret", "a.txt"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "secret", "b.txt"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "visible.txt"), []byte("x"), 0o644))

		stats, err := Walk(context.Background(), filesvc.NewLocalFS(), root, Options{Blacklist: []string{"secret"}, ColdDays: 180, OldDays: 365}, nil)
		require.NoError(t, err)

		require.Equal(t, 1, stats.BlacklistedDirs)
		require.Equal(t, 2, stats.BlacklistedFiles)
		require.Equal(t, 1, stats.TotalFileCount)
	})
}

func TestWalk_ColdOldMonotonicity(t *testing.T) {
	fs := filesvc.NewMemFS()
	now := time.Now().UTC()
	fs.Put(filesvc.Info{Path: `\\data1\share\a.txt`, AccessTime: now.AddDate(0, 0, -100), ModTime: now.AddDate(0, 0, -100)}, []byte("x"))

	narrow, err := Walk(context.Background(), fs, `\\data1\share`, Options{ColdDays: 200, OldDays: 200}, nil)
	require.NoError(t, err)
	wide, err := Walk(context.Background(), fs, `\\data1\share`, Options{ColdDays: 50, OldDays: 50}, nil)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(wide.ColdFiles), len(narrow.ColdFiles))
	require.GreaterOrEqual(t, wide.OldFileCount, narrow.OldFileCount)
}
