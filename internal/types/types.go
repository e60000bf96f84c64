// Package types holds the shared data model threaded explicitly between
// sharetier's components: file metadata, share identity, scan results,
// feature vectors, policy modes, and journal records.
package types

import "time"

// Source marks which side of the archive boundary a file currently lives on.
type Source string

const (
	SourceData    Source = "data"
	SourceArchive Source = "archive"
)

// ActionKind enumerates the two movement-journal event kinds.
type ActionKind string

const (
	ActionMovedToArchive      ActionKind = "moved_to_archive"
	ActionRestoredFromArchive ActionKind = "restored_from_archive"
)

// FailureReason enumerates per-file migration failure kinds (spec §4.6).
type FailureReason string

const (
	FailurePermissionDenied   FailureReason = "permission-denied"
	FailureSourceNotFound     FailureReason = "source-not-found"
	FailureZeroSize           FailureReason = "zero-size-source"
	FailureDownloadFailed     FailureReason = "download-failed"
	FailureUploadFailed       FailureReason = "upload-failed"
	FailureSourceDeleteFailed FailureReason = "source-delete-failed"
	FailureFatalUnexpected    FailureReason = "fatal-unexpected"
	FailureTimeout            FailureReason = "timeout"
)

// FileMeta describes one scanned file. Immutable within a single scan pass.
type FileMeta struct {
	Path         string // UNC-style absolute path
	Size         int64
	CreationTime time.Time // UTC
	AccessTime   time.Time // UTC
	ModTime      time.Time // UTC
	Source       Source
	// OriginalPath is set only for archive-side files: the data-side path
	// they were archived from, when known.
	OriginalPath string
}

// ShareDescriptor is the logical identity of a data share paired with its
// archive share.
type ShareDescriptor struct {
	ShareName     string
	VolumeName    string
	ArchiveShare  string
	ArchiveVolume string
	Endpoint      string
}

// ScanStats is the aggregate result of one share walk (C1).
type ScanStats struct {
	TotalFileCount   int
	TotalSize        int64
	ColdFiles        []FileMeta
	OldFileCount     int
	BlacklistedDirs  int
	BlacklistedFiles int
	BlacklistRatioPct float64
	FullnessPct       float64
	// SizeAccessRatio is pre-supplied (spec §4.3); defaults to 0.5 when unset.
	SizeAccessRatio float64
}

// FeatureVector is the ordered named set of raw feature values plus their
// per-feature weighted contributions and the summed score (C3).
type FeatureVector struct {
	Raw      map[string]float64
	Weighted map[string]float64
	Score    float64
}

// FeatureNames lists the nine named features in spec order.
var FeatureNames = []string{
	"small_volume", "iops", "latency", "fullness", "cold_ratio",
	"old_ratio", "blacklist", "restore", "size_access_ratio",
}

// ModeWeights carries a weight for every feature of a PolicyMode.
type ModeWeights struct {
	SmallVolumeWeight        float64
	IOPSWeight               float64
	LatencyWeight            float64
	FullnessWeight           float64
	ColdFileRatioWeight      float64
	OldFileRatioWeight       float64
	BlacklistFileRatioWeight float64
	RestorePressureWeight    float64
	SizeAccessRatioWeight    float64
}

// AsMap returns the weights keyed by the FeatureNames order.
func (w ModeWeights) AsMap() map[string]float64 {
	return map[string]float64{
		"small_volume":      w.SmallVolumeWeight,
		"iops":              w.IOPSWeight,
		"latency":           w.LatencyWeight,
		"fullness":          w.FullnessWeight,
		"cold_ratio":        w.ColdFileRatioWeight,
		"old_ratio":         w.OldFileRatioWeight,
		"blacklist":         w.BlacklistFileRatioWeight,
		"restore":           w.RestorePressureWeight,
		"size_access_ratio": w.SizeAccessRatioWeight,
	}
}

// ModeThresholds carries the cadence/classification thresholds of a
// PolicyMode.
type ModeThresholds struct {
	SmallVolumeThresholdGB float64
	IOPSIdleThreshold      float64
	LatencyIdleThresholdMS float64
	ScanScoreThreshold     float64
	MinHoursBetweenScans   float64
	MinColdFileAgeDays     int
	MinOldFileAgeDays      int
}

// PolicyMode is one of {default, eco, super}: weights + thresholds (spec §3).
type PolicyMode struct {
	Name       string
	Weights    ModeWeights
	Thresholds ModeThresholds
}

// MovementRecord is one journaled archive/restore event (append-only).
type MovementRecord struct {
	ID           string
	SourcePath   string
	DestPath     string
	CreationTime time.Time
	AccessTime   time.Time
	ModTime      time.Time
	Size         int64
	Action       ActionKind
	Timestamp    time.Time
}

// EvaluationRecord is the per-share decision log entry (C7 step 5/6).
type EvaluationRecord struct {
	ID               string
	Share            string
	Volume           string
	Mode             string
	ShouldScan       bool
	Score            float64
	Reason           string
	RawScores        map[string]float64
	WeightedScores   map[string]float64
	ColdFileCount    int
	RestoreFileCount int
	Timestamp        time.Time
}

// ScanSummaryRecord is the per-scan aggregate used for cooldown/history.
type ScanSummaryRecord struct {
	ID              string
	Share           string
	FilesScanned    int
	FilesArchived   int
	FilesRestored   int
	FiltersUsed     string
	TriggeredByUser bool
	Timestamp       time.Time
}

// AdminFilters are the filter inputs accepted by preview/execute (spec §4.5).
type AdminFilters struct {
	Extensions []string // matched case-insensitively, any-of
	DateField  string   // "creation" | "access" | "modified"
	DateStart  *time.Time
	DateEnd    *time.Time
	MinSize    int64
	MaxSize    int64 // 0 means unbounded
}

// PlanResult is the Decision Planner's output (spec §4.5 step 7).
type PlanResult struct {
	ArchiveCandidates []FileMeta
	RestoreCandidates []RestoreCandidate
	StayInArchive     []FileMeta
	AlreadyArchived   []string
}

// RestoreCandidate pairs an archive-side file with its resolved original
// data-side path (spec §4.5 step 7).
type RestoreCandidate struct {
	Archived     FileMeta
	OriginalPath string
}

// MigrationFailure records one failed per-file migration attempt (spec §4.6).
type MigrationFailure struct {
	Path   string
	Reason FailureReason
	Err    string
}

// MigrationResult is the outcome of one archive or restore batch.
type MigrationResult struct {
	Successes []MovementRecord
	Failures  []MigrationFailure
}

// Status mirrors the response contract of spec §7.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess  Status = "partial_success"
	StatusNoFiles         Status = "no_files"
	StatusNoMatches       Status = "no_matches"
	StatusNoSpace         Status = "no_space"
	StatusError           Status = "error"
)
