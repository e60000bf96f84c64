// Package config loads and saves the JSON settings file of spec §6: the
// active mode, blacklist tokens, and per-mode weights/thresholds.
// Grounded on theweak1-file-maintenance/internal/config/config.go's
// fail-fast-on-malformed posture; the format itself is JSON (not the
// teacher's INI) because spec §6 mandates unknown-key rejection, which INI
// has no analogous concept for.
package config

import (
	"encoding/json"
	"os"

	"sharetier/internal/errs"
	"sharetier/internal/types"
)

// ModeConfig is one mode's weights and thresholds as they appear in the
// settings file.
type ModeConfig struct {
	Weights    WeightsConfig    `json:"weights"`
	Thresholds ThresholdsConfig `json:"thresholds"`
}

// WeightsConfig mirrors types.ModeWeights with the wire field names of
// spec §6.
type WeightsConfig struct {
	SmallVolumeWeight        float64 `json:"small_volume_weight"`
	IOPSWeight                float64 `json:"iops_weight"`
	LatencyWeight             float64 `json:"latency_weight"`
	FullnessWeight            float64 `json:"fullness_weight"`
	ColdFileRatioWeight       float64 `json:"cold_file_ratio_weight"`
	OldFileRatioWeight        float64 `json:"old_file_ratio_weight"`
	BlacklistFileRatioWeight  float64 `json:"blacklist_file_ratio_weight"`
	RestorePressureWeight     float64 `json:"restore_pressure_weight"`
	SizeAccessRatioWeight     float64 `json:"size_access_ratio_weight"`
}

// ThresholdsConfig mirrors types.ModeThresholds with the wire field names
// of spec §6.
type ThresholdsConfig struct {
	SmallVolumeThresholdGB float64 `json:"small_volume_threshold_gb"`
	IOPSIdleThreshold      float64 `json:"iops_idle_threshold"`
	LatencyIdleThresholdMS float64 `json:"latency_idle_threshold_ms"`
	ScanScoreThreshold     float64 `json:"scan_score_threshold"`
	MinHoursBetweenScans   float64 `json:"min_hours_between_scans"`
	MinColdFileAgeDays     int     `json:"min_cold_file_age_days"`
	MinOldFileAgeDays      int     `json:"min_old_file_age_days"`
}

// Settings is the root of the configuration file (spec §6).
type Settings struct {
	Mode      string                `json:"mode"`
	Blacklist []string              `json:"blacklist"`
	Modes     map[string]ModeConfig `json:"modes"`
}

// Load reads and validates the settings file at path. Unknown keys are
// rejected (spec §6), matching the teacher's fail-fast-on-malformed-config
// posture.
func Load(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, errs.Wrap(errs.KindConfig, "open settings file", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	var s Settings
	if err := dec.Decode(&s); err != nil {
		return Settings{}, errs.Wrap(errs.KindConfig, "parse settings file", err)
	}
	if s.Mode == "" {
		return Settings{}, errs.Wrap(errs.KindConfig, "validate settings file", errMissingMode)
	}
	if _, ok := s.Modes[s.Mode]; !ok {
		return Settings{}, errs.Wrap(errs.KindConfig, "validate settings file", errUnknownActiveMode)
	}
	return s, nil
}

// Save writes settings to path as indented JSON, overwriting any existing
// file.
func Save(path string, s Settings) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindConfig, "encode settings file", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errs.Wrap(errs.KindConfig, "write settings file", err)
	}
	return nil
}

// PolicyMode converts the active mode's configuration into a
// types.PolicyMode for the scorer, per spec §9's "configuration as an
// immutable snapshot captured at the start of a tick" note: call this once
// per tick and thread the returned value through, rather than re-reading
// the file mid-tick.
func (s Settings) PolicyMode() (types.PolicyMode, error) {
	mc, ok := s.Modes[s.Mode]
	if !ok {
		return types.PolicyMode{}, errs.Wrap(errs.KindConfig, "resolve active mode", errUnknownActiveMode)
	}
	return types.PolicyMode{
		Name: s.Mode,
		Weights: types.ModeWeights{
			SmallVolumeWeight:        mc.Weights.SmallVolumeWeight,
			IOPSWeight:               mc.Weights.IOPSWeight,
			LatencyWeight:            mc.Weights.LatencyWeight,
			FullnessWeight:           mc.Weights.FullnessWeight,
			ColdFileRatioWeight:      mc.Weights.ColdFileRatioWeight,
			OldFileRatioWeight:       mc.Weights.OldFileRatioWeight,
			BlacklistFileRatioWeight: mc.Weights.BlacklistFileRatioWeight,
			RestorePressureWeight:    mc.Weights.RestorePressureWeight,
			SizeAccessRatioWeight:    mc.Weights.SizeAccessRatioWeight,
		},
		Thresholds: types.ModeThresholds{
			SmallVolumeThresholdGB: mc.Thresholds.SmallVolumeThresholdGB,
			IOPSIdleThreshold:      mc.Thresholds.IOPSIdleThreshold,
			LatencyIdleThresholdMS: mc.Thresholds.LatencyIdleThresholdMS,
			ScanScoreThreshold:     mc.Thresholds.ScanScoreThreshold,
			MinHoursBetweenScans:   mc.Thresholds.MinHoursBetweenScans,
			MinColdFileAgeDays:     mc.Thresholds.MinColdFileAgeDays,
			MinOldFileAgeDays:      mc.Thresholds.MinOldFileAgeDays,
		},
	}, nil
}

// AllPolicyModes converts every configured mode, producing the map that
// the score.CompareModes diagnostic takes (SPEC_FULL.md §5).
func (s Settings) AllPolicyModes() (map[string]types.PolicyMode, error) {
	out := make(map[string]types.PolicyMode, len(s.Modes))
	for name := range s.Modes {
		snapshot := s
		snapshot.Mode = name
		pm, err := snapshot.PolicyMode()
		if err != nil {
			return nil, err
		}
		out[name] = pm
	}
	return out, nil
}

var errMissingMode = simpleError("settings file missing required \"mode\" field")
var errUnknownActiveMode = simpleError("settings file's active mode has no matching entry under \"modes\"")

type simpleError string

func (e simpleError) Error() string { return string(e) }
