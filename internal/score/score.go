// Package score implements the feature extractor and scorer (C3): a pure
// function turning per-share scan stats and telemetry into a FeatureVector
// under a selected PolicyMode, grounded on original_source/feature_vector.py's
// build_feature_vector/should_scan_volume.
package score

import (
	"math"

	"sharetier/internal/telemetry"
	"sharetier/internal/types"
)

// clamp01 bounds a value to [0,1], coercing NaN/Inf (non-numeric telemetry,
// per spec §4.3) to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ratio(numer, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return clamp01(float64(numer) / float64(denom))
}

// Evaluate computes the FeatureVector for one share under mode, given its
// scan stats and telemetry (spec §4.3's table, computed feature by
// feature). The scorer is pure: same inputs, same output.
func Evaluate(stats types.ScanStats, perf telemetry.Performance, cap telemetry.Capacity, restorableCount int, mode types.PolicyMode) types.FeatureVector {
	th := mode.Thresholds

	raw := map[string]float64{}

	if stats.TotalSize >= int64(th.SmallVolumeThresholdGB*float64(1<<30)) {
		raw["small_volume"] = 1
	} else {
		raw["small_volume"] = 0
	}

	if th.IOPSIdleThreshold > 0 {
		raw["iops"] = clamp01(1 - math.Min(perf.IOPS/th.IOPSIdleThreshold, 1))
	} else {
		raw["iops"] = 0
	}

	if th.LatencyIdleThresholdMS > 0 {
		raw["latency"] = clamp01(1 - math.Min(perf.LatencyMS/th.LatencyIdleThresholdMS, 1))
	} else {
		raw["latency"] = 0
	}

	raw["fullness"] = clamp01(math.Min(cap.PercentUsed/100, 1))
	raw["cold_ratio"] = ratio(len(stats.ColdFiles), stats.TotalFileCount)
	raw["old_ratio"] = ratio(stats.OldFileCount, stats.TotalFileCount)
	raw["blacklist"] = clamp01(math.Min(stats.BlacklistRatioPct/100, 1))
	raw["restore"] = clamp01(1 - math.Min(float64(restorableCount)/floatOrOne(stats.TotalFileCount), 1))

	sizeAccess := stats.SizeAccessRatio
	if sizeAccess == 0 {
		sizeAccess = 0.5
	}
	raw["size_access_ratio"] = clamp01(sizeAccess)

	weights := mode.Weights.AsMap()
	weighted := make(map[string]float64, len(types.FeatureNames))
	var sum float64
	for _, name := range types.FeatureNames {
		w := raw[name] * weights[name]
		weighted[name] = round4(w)
		sum += w
	}

	return types.FeatureVector{
		Raw:      raw,
		Weighted: weighted,
		Score:    round4(sum),
	}
}

func floatOrOne(n int) float64 {
	if n == 0 {
		return 1
	}
	return float64(n)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// ShouldScan applies the decision rule of spec §4.3.
func ShouldScan(fv types.FeatureVector, mode types.PolicyMode) bool {
	return fv.Score >= mode.Thresholds.ScanScoreThreshold
}

// CompareModes runs Evaluate under every named mode and returns the
// resulting FeatureVector per mode name — a supplemental diagnostic grounded on
// feature_vector.py's check() CLI harness for comparing mode weightings
// before committing to one.
func CompareModes(stats types.ScanStats, perf telemetry.Performance, cap telemetry.Capacity, restorableCount int, modes map[string]types.PolicyMode) map[string]types.FeatureVector {
	out := make(map[string]types.FeatureVector, len(modes))
	for name, mode := range modes {
		out[name] = Evaluate(stats, perf, cap, restorableCount, mode)
	}
	return out
}
