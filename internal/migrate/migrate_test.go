package migrate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sharetier/internal/filesvc"
	"sharetier/internal/types"
)

type fakeRecorder struct {
	committed []types.MovementRecord
}

func (f *fakeRecorder) RecordMovements(ctx context.Context, batch []types.MovementRecord) error {
	f.committed = append(f.committed, batch...)
	return nil
}

func TestArchiveOne_StreamsToArchiveAndRemovesSource(t *testing.T) {
	fs := filesvc.NewMemFS()
	now := time.Now().UTC()
	fs.Put(filesvc.Info{Path: `\\data1\share\doc.txt`, AccessTime: now.AddDate(0, 0, -200), ModTime: now.AddDate(0, 0, -200)}, []byte("hello world"))

	exec := NewExecutor(fs, t.TempDir(), 2, nil)
	meta, err := fs.Stat(context.Background(), `\\data1\share\doc.txt`)
	require.NoError(t, err)

	rec, fail := exec.ArchiveOne(context.Background(), ArchiveRequest{
		Meta:     types.FileMeta{Path: meta.Path, Size: meta.Size, AccessTime: meta.AccessTime, ModTime: meta.ModTime},
		DestPath: `\\archive1\share\doc.txt`,
	})
	require.Nil(t, fail)
	require.Equal(t, types.ActionMovedToArchive, rec.Action)
	require.Equal(t, `\\archive1\share\doc.txt`, rec.DestPath)

	_, err = fs.Stat(context.Background(), `\\data1\share\doc.txt`)
	require.Error(t, err, "source must be removed after archive")

	destInfo, err := fs.Stat(context.Background(), `\\archive1\share\doc.txt`)
	require.NoError(t, err)
	require.Equal(t, int64(len("hello world")), destInfo.Size)
}

func TestArchiveOne_ZeroSizeSourceFails(t *testing.T) {
	fs := filesvc.NewMemFS()
	exec := NewExecutor(fs, t.TempDir(), 1, nil)

	_, fail := exec.ArchiveOne(context.Background(), ArchiveRequest{
		Meta:     types.FileMeta{Path: `\\data1\share\empty.txt`, Size: 0},
		DestPath: `\\archive1\share\empty.txt`,
	})
	require.NotNil(t, fail)
	require.Equal(t, types.FailureZeroSize, fail.Reason)
}

func TestRestoreOne_StreamsBackAndRemovesArchiveCopy(t *testing.T) {
	fs := filesvc.NewMemFS()
	now := time.Now().UTC()
	fs.Put(filesvc.Info{Path: `\\archive1\share\doc.txt`, AccessTime: now, ModTime: now}, []byte("restored content"))

	exec := NewExecutor(fs, t.TempDir(), 1, nil)
	meta, err := fs.Stat(context.Background(), `\\archive1\share\doc.txt`)
	require.NoError(t, err)

	rec, fail := exec.RestoreOne(context.Background(), RestoreRequest{
		Archived:     types.FileMeta{Path: meta.Path, Size: meta.Size, AccessTime: meta.AccessTime, ModTime: meta.ModTime},
		OriginalPath: `\\data1\share\doc.txt`,
	})
	require.Nil(t, fail)
	require.Equal(t, types.ActionRestoredFromArchive, rec.Action)

	_, err = fs.Stat(context.Background(), `\\archive1\share\doc.txt`)
	require.Error(t, err, "archive copy must be removed after restore")

	originalInfo, err := fs.Stat(context.Background(), `\\data1\share\doc.txt`)
	require.NoError(t, err)
	require.Equal(t, int64(len("restored content")), originalInfo.Size)
}

func TestRestoreOne_NoOriginalPathIsFatal(t *testing.T) {
	fs := filesvc.NewMemFS()
	fs.Put(filesvc.Info{Path: `\\archive1\share\orphan.txt`}, []byte("x"))
	exec := NewExecutor(fs, t.TempDir(), 1, nil)

	_, fail := exec.RestoreOne(context.Background(), RestoreRequest{
		Archived: types.FileMeta{Path: `\\archive1\share\orphan.txt`, Size: 1},
	})
	require.NotNil(t, fail)
	require.Equal(t, types.FailureFatalUnexpected, fail.Reason)
}

func TestArchiveBatch_ContinuesPastFailuresAndCommitsOnlySuccesses(t *testing.T) {
	fs := filesvc.NewMemFS()
	now := time.Now().UTC()
	fs.Put(filesvc.Info{Path: `\\data1\share\good.txt`, AccessTime: now, ModTime: now}, []byte("ok"))

	exec := NewExecutor(fs, t.TempDir(), 1, nil)
	recorder := &fakeRecorder{}

	reqs := []ArchiveRequest{
		{Meta: types.FileMeta{Path: `\\data1\share\good.txt`, Size: 2}, DestPath: `\\archive1\share\good.txt`},
		{Meta: types.FileMeta{Path: `\\data1\share\missing.txt`, Size: 5}, DestPath: `\\archive1\share\missing.txt`},
	}

	result := exec.ArchiveBatch(context.Background(), reqs, recorder)
	require.Len(t, result.Successes, 1)
	require.Len(t, result.Failures, 1)
	require.Equal(t, `\\data1\share\missing.txt`, result.Failures[0].Path)
	require.Len(t, recorder.committed, 1)
	require.Equal(t, `\\data1\share\good.txt`, recorder.committed[0].SourcePath)
}

func TestSetShareLimit_RemovesLimiterWhenNonPositive(t *testing.T) {
	fs := filesvc.NewMemFS()
	exec := NewExecutor(fs, t.TempDir(), 1, nil)
	exec.SetShareLimit("archive1", 1024)
	require.Contains(t, exec.limiters, "archive1")
	exec.SetShareLimit("archive1", 0)
	require.NotContains(t, exec.limiters, "archive1")
}

func TestBackoffForAttempt_Ladder(t *testing.T) {
	require.Equal(t, 250*time.Millisecond, backoffForAttempt(0))
	require.Equal(t, 1*time.Second, backoffForAttempt(1))
	require.Equal(t, 3*time.Second, backoffForAttempt(2))
	require.Equal(t, 3*time.Second, backoffForAttempt(5))
}
