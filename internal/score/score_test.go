package score

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sharetier/internal/telemetry"
	"sharetier/internal/types"
)

func defaultMode() types.PolicyMode {
	return types.PolicyMode{
		Name: "default",
		Weights: types.ModeWeights{
			SmallVolumeWeight:        0.1,
			IOPSWeight:               0.1,
			LatencyWeight:            0.1,
			FullnessWeight:           0.3,
			ColdFileRatioWeight:      0.3,
			OldFileRatioWeight:       0.1,
			BlacklistFileRatioWeight: 0,
			RestorePressureWeight:    0,
			SizeAccessRatioWeight:    0,
		},
		Thresholds: types.ModeThresholds{
			SmallVolumeThresholdGB: 1,
			IOPSIdleThreshold:      100,
			LatencyIdleThresholdMS: 20,
			ScanScoreThreshold:     0.5,
			MinHoursBetweenScans:   6,
			MinColdFileAgeDays:     180,
			MinOldFileAgeDays:      365,
		},
	}
}

func TestEvaluate_TinyShareSuppression(t *testing.T) {
	mode := defaultMode()
	stats := types.ScanStats{
		TotalFileCount: 10,
		TotalSize:      512 * 1 << 20, // 512 MiB < 1 GiB threshold
	}
	fv := Evaluate(stats, telemetry.Performance{}, telemetry.Capacity{}, 0, mode)

	require.Equal(t, 0.0, fv.Raw["small_volume"])
	require.False(t, ShouldScan(fv, mode))
}

func TestEvaluate_IdleFullShare(t *testing.T) {
	mode := defaultMode()
	cold := make([]types.FileMeta, 80)
	stats := types.ScanStats{
		TotalFileCount: 100,
		TotalSize:      50 << 30,
		ColdFiles:      cold,
	}
	cap := telemetry.Capacity{PercentUsed: 92}
	fv := Evaluate(stats, telemetry.Performance{IOPS: 0, LatencyMS: 0}, cap, 0, mode)

	require.GreaterOrEqual(t, fv.Score, 0.5)
	require.True(t, ShouldScan(fv, mode))
}

func TestEvaluate_Deterministic(t *testing.T) {
	mode := defaultMode()
	stats := types.ScanStats{TotalFileCount: 40, TotalSize: 10 << 30, ColdFiles: make([]types.FileMeta, 12), OldFileCount: 5}
	perf := telemetry.Performance{IOPS: 30, LatencyMS: 4}
	cap := telemetry.Capacity{PercentUsed: 61}

	a := Evaluate(stats, perf, cap, 2, mode)
	b := Evaluate(stats, perf, cap, 2, mode)
	require.Equal(t, a, b)

	var sum float64
	for _, w := range a.Weighted {
		sum += w
	}
	require.InDelta(t, a.Score, round4(sum), 0.0001)
}

func TestEvaluate_FeatureBounds(t *testing.T) {
	mode := defaultMode()
	stats := types.ScanStats{TotalFileCount: 0}
	fv := Evaluate(stats, telemetry.Performance{IOPS: -5, LatencyMS: -1}, telemetry.Capacity{PercentUsed: 500}, 0, mode)

	for name, v := range fv.Raw {
		require.GreaterOrEqualf(t, v, 0.0, "feature %s below 0", name)
		require.LessOrEqualf(t, v, 1.0, "feature %s above 1", name)
	}
}

func TestEvaluate_NonNumericTelemetryIsZero(t *testing.T) {
	mode := defaultMode()
	stats := types.ScanStats{TotalFileCount: 10}
	fv := Evaluate(stats, telemetry.Performance{IOPS: nan(), LatencyMS: nan()}, telemetry.Capacity{PercentUsed: nan()}, 0, mode)

	require.Equal(t, 0.0, fv.Raw["iops"])
	require.Equal(t, 0.0, fv.Raw["latency"])
	require.Equal(t, 0.0, fv.Raw["fullness"])
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestCompareModes(t *testing.T) {
	modes := map[string]types.PolicyMode{"default": defaultMode()}
	stats := types.ScanStats{TotalFileCount: 10, ColdFiles: make([]types.FileMeta, 3)}
	out := CompareModes(stats, telemetry.Performance{}, telemetry.Capacity{}, 0, modes)
	require.Contains(t, out, "default")
}
