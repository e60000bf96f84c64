package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validSettings = `{
	"mode": "default",
	"blacklist": ["secret", "tmp"],
	"modes": {
		"default": {
			"weights": {
				"small_volume_weight": 0.1,
				"iops_weight": 0.1,
				"latency_weight": 0.1,
				"fullness_weight": 0.3,
				"cold_file_ratio_weight": 0.3,
				"old_file_ratio_weight": 0.05,
				"blacklist_file_ratio_weight": 0.025,
				"restore_pressure_weight": 0.025,
				"size_access_ratio_weight": 0.0
			},
			"thresholds": {
				"small_volume_threshold_gb": 1,
				"iops_idle_threshold": 50,
				"latency_idle_threshold_ms": 20,
				"scan_score_threshold": 0.5,
				"min_hours_between_scans": 6,
				"min_cold_file_age_days": 180,
				"min_old_file_age_days": 365
			}
		}
	}
}`

func TestLoad_Valid(t *testing.T) {
	path := writeTemp(t, validSettings)
	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "default", s.Mode)
	require.Equal(t, []string{"secret", "tmp"}, s.Blacklist)

	mode, err := s.PolicyMode()
	require.NoError(t, err)
	require.Equal(t, 0.5, mode.Thresholds.ScanScoreThreshold)
	require.Equal(t, 180, mode.Thresholds.MinColdFileAgeDays)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeTemp(t, `{"mode":"default","modes":{"default":{"weights":{},"thresholds":{}}},"unknown_field":true}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsMissingMode(t *testing.T) {
	path := writeTemp(t, `{"modes":{"default":{"weights":{},"thresholds":{}}}}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsActiveModeWithNoEntry(t *testing.T) {
	path := writeTemp(t, `{"mode":"eco","modes":{"default":{"weights":{},"thresholds":{}}}}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestSave_RoundTrips(t *testing.T) {
	path := writeTemp(t, validSettings)
	s, err := Load(path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, Save(out, s))

	reloaded, err := Load(out)
	require.NoError(t, err)
	require.Equal(t, s.Mode, reloaded.Mode)
	require.Equal(t, s.Blacklist, reloaded.Blacklist)
}
