package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
)

// ManifestEntry describes one share's telemetry inputs as an operator
// supplies them in the absence of a live storage-array telemetry
// collaborator (spec §1 lists the telemetry provider as deliberately out
// of scope — only its interface is specified here).
type ManifestEntry struct {
	Share         string  `json:"share"`
	DataVolume    string  `json:"data_volume"`
	ArchiveShare  string  `json:"archive_share"`
	ArchiveVolume string  `json:"archive_volume"`
	FreeBytes     int64   `json:"free_bytes"`
	SizeBytes     int64   `json:"size_bytes"`
	UsedBytes     int64   `json:"used_bytes"`
	IOPS          float64 `json:"iops"`
	LatencyMS     float64 `json:"latency_ms"`
}

// LoadManifest reads a JSON array of ManifestEntry from path and returns a
// Fake seeded from it, for CLI use against a locally mounted directory
// tree where no live telemetry feed exists.
func LoadManifest(path string) (*Fake, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read telemetry manifest: %w", err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse telemetry manifest: %w", err)
	}

	f := NewFake()
	for _, e := range entries {
		percentUsed := 0.0
		if e.SizeBytes > 0 {
			percentUsed = 100 * float64(e.UsedBytes) / float64(e.SizeBytes)
		}
		f.SetShare(e.Share, e.DataVolume, e.ArchiveShare, e.ArchiveVolume, e.FreeBytes,
			Capacity{SizeBytes: e.SizeBytes, UsedBytes: e.UsedBytes, PercentUsed: percentUsed},
			Performance{IOPS: e.IOPS, LatencyMS: e.LatencyMS})
	}
	return f, nil
}
