package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sharetier/internal/config"
	"sharetier/internal/filesvc"
	"sharetier/internal/journal"
	"sharetier/internal/migrate"
	"sharetier/internal/telemetry"
	"sharetier/internal/types"
)

func testSettings() config.Settings {
	return config.Settings{
		Mode:      "default",
		Blacklist: []string{"secret"},
		Modes: map[string]config.ModeConfig{
			"default": {
				Weights: config.WeightsConfig{
					FullnessWeight:      0.5,
					ColdFileRatioWeight: 0.5,
				},
				Thresholds: config.ThresholdsConfig{
					ScanScoreThreshold:   0.5,
					MinHoursBetweenScans: 6,
					MinColdFileAgeDays:   180,
					MinOldFileAgeDays:    365,
				},
			},
		},
	}
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *filesvc.MemFS, *telemetry.Fake, *journal.Store) {
	t.Helper()
	store, err := journal.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fs := filesvc.NewMemFS()
	fake := telemetry.NewFake()
	fake.SetShare(`\\data1\share`, "vol1", `\\archive1\share`, "avol1", 10<<30,
		telemetry.Capacity{SizeBytes: 100 << 30, UsedBytes: 92 << 30, PercentUsed: 92},
		telemetry.Performance{IOPS: 0, LatencyMS: 0})

	exec := migrate.NewExecutor(fs, t.TempDir(), 1, nil)
	orch := New(fake, fs, store, exec, nil, nil, 2, time.Hour)
	return orch, fs, fake, store
}

func TestRunTick_IdleFullShareArchives(t *testing.T) {
	orch, fs, _, _ := newTestOrchestrator(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 80; i++ {
		path := `\\data1\share\cold` + string(rune('a'+i%26)) + string(rune('0'+i/26)) + ".dat"
		fs.Put(filesvc.Info{Path: path, AccessTime: now.AddDate(0, 0, -400), ModTime: now.AddDate(0, 0, -400)}, []byte("x"))
	}
	for i := 0; i < 20; i++ {
		path := `\\data1\share\fresh` + string(rune('a'+i)) + ".dat"
		fs.Put(filesvc.Info{Path: path, AccessTime: now, ModTime: now}, []byte("y"))
	}

	results, err := orch.RunTick(ctx, testSettings(), false)
	require.NoError(t, err)

	rec, ok := results[`\\data1\share`]
	require.True(t, ok)
	require.True(t, rec.ShouldScan)
	require.GreaterOrEqual(t, rec.Score, 0.5)

	_, err = fs.Stat(ctx, `\\archive1\share\colda0.dat`)
	require.NoError(t, err, "a cold file should have been archived")
}

func TestRunTick_SecondCallIsCooldownNoOp(t *testing.T) {
	orch, fs, _, _ := newTestOrchestrator(t)
	ctx := context.Background()
	now := time.Now().UTC()

	fs.Put(filesvc.Info{Path: `\\data1\share\cold.dat`, AccessTime: now.AddDate(0, 0, -400), ModTime: now.AddDate(0, 0, -400)}, []byte("x"))

	_, err := orch.RunTick(ctx, testSettings(), false)
	require.NoError(t, err)

	results, err := orch.RunTick(ctx, testSettings(), false)
	require.NoError(t, err)

	rec := results[`\\data1\share`]
	require.False(t, rec.ShouldScan)
	require.Equal(t, "In cooldown window", rec.Reason)
	require.Equal(t, float64(0), rec.Score)
}

func TestPreview_NoMatchesWhenEmptyShare(t *testing.T) {
	orch, _, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	result, err := orch.Preview(ctx, `\\data1\share`, testSettings(), types.AdminFilters{}, nil)
	require.NoError(t, err)
	require.Equal(t, types.StatusNoMatches, result.Status)
}

func TestExecute_ArchivesMatchingColdFiles(t *testing.T) {
	orch, fs, _, _ := newTestOrchestrator(t)
	ctx := context.Background()
	now := time.Now().UTC()

	fs.Put(filesvc.Info{Path: `\\data1\share\old.dat`, AccessTime: now.AddDate(0, 0, -400), ModTime: now.AddDate(0, 0, -400)}, []byte("archive me"))

	result, err := orch.Execute(ctx, `\\data1\share`, testSettings(), types.AdminFilters{}, nil)
	require.NoError(t, err)
	require.Equal(t, types.StatusSuccess, result.Status)
	require.Len(t, result.ArchiveResult.Successes, 1)

	_, err = fs.Stat(ctx, `\\data1\share\old.dat`)
	require.Error(t, err, "archived source should be removed")
	_, err = fs.Stat(ctx, `\\archive1\share\old.dat`)
	require.NoError(t, err, "archived destination should exist")
}
