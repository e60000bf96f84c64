package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sharetier/internal/types"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCooldownLaw(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	in, err := s.InCooldown(ctx, "share1", 6)
	require.NoError(t, err)
	require.False(t, in, "share with no history is never in cooldown")

	require.NoError(t, s.RecordScanSummary(ctx, types.ScanSummaryRecord{
		Share:     "share1",
		Timestamp: time.Now().UTC(),
	}))

	in, err = s.InCooldown(ctx, "share1", 6)
	require.NoError(t, err)
	require.True(t, in)
}

func TestLookupOriginal_ByDestinationPath(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.RecordMovements(ctx, []types.MovementRecord{
		{
			SourcePath: `\\data1\proj\report.pdf`,
			DestPath:   `\\archive1\proj\report.pdf`,
			Size:       1024,
			Action:     types.ActionMovedToArchive,
			Timestamp:  time.Now().UTC(),
		},
	}))

	rec, err := s.LookupOriginal(ctx, `\\archive1\proj\report.pdf`)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, `\\data1\proj\report.pdf`, rec.SourcePath)

	none, err := s.LookupOriginal(ctx, `\\data1\proj\report.pdf`)
	require.NoError(t, err)
	require.Nil(t, none, "lookup must be by destination_path, not source path")
}

func TestRecordMovements_AllOrNoneOnFailure(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	batch := []types.MovementRecord{
		{SourcePath: "a", DestPath: "arch/a", Action: types.ActionMovedToArchive, Timestamp: time.Now().UTC()},
		{SourcePath: "b", DestPath: "arch/b", Action: types.ActionMovedToArchive, Timestamp: time.Now().UTC()},
	}
	require.NoError(t, s.RecordMovements(ctx, batch))

	count, err := s.UniqueArchivedCount(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	failing := []types.MovementRecord{
		{ID: "dup", SourcePath: "c", DestPath: "arch/c", Action: types.ActionMovedToArchive, Timestamp: time.Now().UTC()},
		{ID: "dup", SourcePath: "d", DestPath: "arch/d", Action: types.ActionMovedToArchive, Timestamp: time.Now().UTC()},
	}
	require.Error(t, s.RecordMovements(ctx, failing))

	count, err = s.UniqueArchivedCount(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, 0, count, "a batch that fails part-way must commit none of its records")
}
