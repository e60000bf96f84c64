package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sharetier/internal/types"
)

func mkFile(path string, size int64, access time.Time) types.FileMeta {
	return types.FileMeta{Path: path, Size: size, AccessTime: access}
}

func TestPlan_ForcedRestore_BlacklistMatch(t *testing.T) {
	archived := mkFile(`\\archive1\proj\secret\report.pdf`, 100, time.Now().Add(-100*24*time.Hour))
	archived.OriginalPath = `\\data1\proj\secret\report.pdf`

	result := Plan(Input{
		ExistingArchive:  []types.FileMeta{archived},
		ArchiveFreeBytes: 1 << 30,
		Filters:          types.AdminFilters{Extensions: []string{".pdf"}},
		Blacklist:        []string{"secret"},
	})

	require.Len(t, result.RestoreCandidates, 1)
	require.Empty(t, result.ArchiveCandidates)
	require.Equal(t, archived.Path, result.RestoreCandidates[0].Archived.Path)
}

func TestPlan_BudgetClamp_OldestFirst(t *testing.T) {
	now := time.Now()
	var cold []types.FileMeta
	const n = 16
	const fileSize = int64(5<<30) / n // ~5GiB / 16 files
	for i := 0; i < n; i++ {
		cold = append(cold, mkFile("file"+string(rune('a'+i)), fileSize, now.Add(-time.Duration(n-i)*24*time.Hour)))
	}

	result := Plan(Input{
		ColdFiles:        cold,
		ArchiveFreeBytes: 2 << 30,
	})

	var total int64
	for _, f := range result.ArchiveCandidates {
		total += f.Size
	}
	require.LessOrEqual(t, total, int64(2<<30))
	require.NotEmpty(t, result.ArchiveCandidates)
	// Oldest (index 0, furthest in the past) must be included first.
	require.Equal(t, cold[0].Path, result.ArchiveCandidates[0].Path)
}

// TestPlan_BudgetOverflow_StopsAtFirstOversizedFile guards the budget loop's
// break-on-first-overflow semantics (matching
// original_source/netapp_interfaces.py's analyze_volume_for_archive_and_restore):
// once the oldest survivor overflows the remaining budget, no younger
// survivor further down the list may be archived in its place, even if it
// would individually fit.
func TestPlan_BudgetOverflow_StopsAtFirstOversizedFile(t *testing.T) {
	now := time.Now()
	oldestLarge := mkFile("file-oldest-large", 9, now.Add(-3*24*time.Hour))
	nextSmall := mkFile("file-next-small", 1, now.Add(-2*24*time.Hour))

	result := Plan(Input{
		ColdFiles:        []types.FileMeta{oldestLarge, nextSmall},
		ArchiveFreeBytes: 8,
	})

	require.Empty(t, result.ArchiveCandidates,
		"the oldest file overflowing the budget must stop accumulation entirely, not let a smaller younger file fill the remaining space")
}

func TestPlan_SourceDisjointness(t *testing.T) {
	now := time.Now()
	cold := []types.FileMeta{mkFile("data/a", 10, now.Add(-10*24*time.Hour))}
	archived := mkFile("archive/b", 10, now.Add(-20*24*time.Hour))
	archived.OriginalPath = "data/b"

	result := Plan(Input{
		ColdFiles:        cold,
		ExistingArchive:  []types.FileMeta{archived},
		ArchiveFreeBytes: 1000,
	})

	archiveSet := map[string]bool{}
	for _, f := range result.ArchiveCandidates {
		archiveSet[f.Path] = true
		require.Equal(t, types.SourceData, f.Source)
	}
	for _, r := range result.RestoreCandidates {
		require.False(t, archiveSet[r.Archived.Path])
		require.Equal(t, types.SourceArchive, r.Archived.Source)
	}
}

func TestPlan_RecentlyTouchedArchiveFileRestoresUnconditionally(t *testing.T) {
	archived := mkFile(`\\archive1\hot.txt`, 5, time.Now())
	archived.OriginalPath = `\\data1\hot.txt`

	result := Plan(Input{
		ExistingArchive:   []types.FileMeta{archived},
		RestorableArchive: map[string]bool{archived.Path: true},
		ArchiveFreeBytes:  1 << 30,
	})

	require.Len(t, result.RestoreCandidates, 1)
	require.Equal(t, `\\data1\hot.txt`, result.RestoreCandidates[0].OriginalPath)
}

func TestPlan_AlreadyArchivedColdFileSkipped(t *testing.T) {
	archived := mkFile("archive/x", 5, time.Now())
	archived.OriginalPath = "data/x"
	cold := mkFile("data/x", 5, time.Now())

	result := Plan(Input{
		ColdFiles:        []types.FileMeta{cold},
		ExistingArchive:  []types.FileMeta{archived},
		ArchiveFreeBytes: 1 << 30,
	})

	require.Contains(t, result.AlreadyArchived, "data/x")
	require.Empty(t, result.ArchiveCandidates)
}
