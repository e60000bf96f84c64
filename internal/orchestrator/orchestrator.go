// Package orchestrator implements the Scheduler & Orchestrator (C7): a
// ticker-driven loop (grounded on
// other_examples/8e6cd858_uber-kraken__lib-store-cleanup.go.go's
// cleanupManager ticker+stop-channel pattern) that runs every configured
// share through C1-C6 with bounded per-share concurrency (generalized from
// theweak1-file-maintenance/internal/maintenance/worker.go's
// semaphore-bounded walker pool), and the preview/execute/manual-scan admin
// entry points of spec §6.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"sharetier/internal/config"
	"sharetier/internal/filesvc"
	"sharetier/internal/logging"
	"sharetier/internal/migrate"
	"sharetier/internal/plan"
	"sharetier/internal/scan"
	"sharetier/internal/score"
	"sharetier/internal/telemetry"
	"sharetier/internal/types"
)

// JournalStore is the subset of journal.Store the orchestrator depends on.
type JournalStore interface {
	migrate.Recorder
	InCooldown(ctx context.Context, share string, hours float64) (bool, error)
	RecordEvaluation(ctx context.Context, rec types.EvaluationRecord) error
	RecordScanSummary(ctx context.Context, rec types.ScanSummaryRecord) error
	LookupOriginal(ctx context.Context, archivePath string) (*types.MovementRecord, error)
}

// Orchestrator wires telemetry, the file-service client, the journal, and
// the migration executor together into the per-tick control flow of spec
// §4.7.
type Orchestrator struct {
	Telemetry      telemetry.Provider
	Client         filesvc.Client
	Journal        JournalStore
	Executor       *migrate.Executor
	Metrics        *score.Metrics
	Log            *logging.Logger
	ShareWorkers   int
	TickInterval   time.Duration

	tickerStop chan struct{}
	stopOnce   sync.Once
}

// New builds an Orchestrator. shareWorkers bounds per-share concurrency
// (spec §5: "one worker per share, configurable pool"); tickInterval
// defaults to 24h if zero (spec §4.7).
func New(tel telemetry.Provider, client filesvc.Client, journal JournalStore, exec *migrate.Executor, metrics *score.Metrics, log *logging.Logger, shareWorkers int, tickInterval time.Duration) *Orchestrator {
	if shareWorkers <= 0 {
		shareWorkers = 4
	}
	if tickInterval <= 0 {
		tickInterval = 24 * time.Hour
	}
	return &Orchestrator{
		Telemetry: tel, Client: client, Journal: journal, Executor: exec, Metrics: metrics, Log: log,
		ShareWorkers: shareWorkers, TickInterval: tickInterval, tickerStop: make(chan struct{}),
	}
}

// Start runs RunTick on TickInterval until Stop is called, plus on every
// value received from manualTrigger. settingsFn is invoked fresh at the
// start of every tick so a settings-file edit takes effect at the next
// tick, not mid-tick (spec §9).
func (o *Orchestrator) Start(ctx context.Context, settingsFn func() (config.Settings, error), manualTrigger <-chan struct{}) {
	ticker := time.NewTicker(o.TickInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				o.runTickLogged(ctx, settingsFn, false)
			case <-manualTrigger:
				o.runTickLogged(ctx, settingsFn, true)
			case <-o.tickerStop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the background ticker loop started by Start. Safe to call
// more than once.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() { close(o.tickerStop) })
}

func (o *Orchestrator) runTickLogged(ctx context.Context, settingsFn func() (config.Settings, error), triggeredByUser bool) {
	settings, err := settingsFn()
	if err != nil {
		if o.Log != nil {
			o.Log.Errorf("load settings for tick: %v", err)
		}
		return
	}
	if _, err := o.RunTick(ctx, settings, triggeredByUser); err != nil && o.Log != nil {
		o.Log.Errorf("tick failed: %v", err)
	}
}

// ManualScan triggers one orchestrator pass immediately, still subject to
// each share's cooldown window (spec §8's idempotence property: a second
// invocation in immediate succession is a cooldown no-op regardless of how
// it was triggered).
func (o *Orchestrator) ManualScan(ctx context.Context, settings config.Settings) (map[string]types.EvaluationRecord, error) {
	return o.RunTick(ctx, settings, true)
}

// RunTick runs the full control flow of spec §4.7 over every share
// returned by the telemetry provider, with bounded per-share concurrency.
// A single share's failure is logged and does not abort the tick (spec
// §7).
func (o *Orchestrator) RunTick(ctx context.Context, settings config.Settings, triggeredByUser bool) (map[string]types.EvaluationRecord, error) {
	shares, err := o.Telemetry.Shares(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate shares: %w", err)
	}

	mode, err := settings.PolicyMode()
	if err != nil {
		return nil, fmt.Errorf("resolve active mode: %w", err)
	}

	results := make(map[string]types.EvaluationRecord, len(shares))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.ShareWorkers)

	for _, share := range shares {
		share := share
		g.Go(func() error {
			rec := o.processShare(gctx, share, settings, mode, triggeredByUser)
			mu.Lock()
			results[share] = rec
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // per-share errors are captured in the evaluation record, never aborting the tick

	return results, nil
}

// processShare runs (cooldown short-circuit) -> C2+C1 -> C3 -> C5 -> C6 ->
// C4 for one share (spec §4.7 steps 2-6). Failures are logged and recorded
// as a zeroed/erroring EvaluationRecord rather than propagated, so one
// share never aborts the others.
func (o *Orchestrator) processShare(ctx context.Context, share string, settings config.Settings, mode types.PolicyMode, triggeredByUser bool) types.EvaluationRecord {
	now := time.Now().UTC()

	cooldown, err := o.Journal.InCooldown(ctx, share, mode.Thresholds.MinHoursBetweenScans)
	if err != nil && o.Log != nil {
		o.Log.Warnf("cooldown check failed for %s: %v", share, err)
	}
	if cooldown {
		rec := types.EvaluationRecord{Share: share, Mode: mode.Name, ShouldScan: false, Score: 0, Reason: "In cooldown window", Timestamp: now}
		o.recordEvaluation(ctx, rec)
		return rec
	}

	dataVolume, err := o.Telemetry.DataVolume(ctx, share)
	if err != nil && o.Log != nil {
		o.Log.Warnf("data volume lookup failed for %s: %v", share, err)
	}
	archiveShare, err := o.Telemetry.ArchiveShare(ctx, share)
	if err != nil {
		rec := types.EvaluationRecord{Share: share, Volume: dataVolume, Mode: mode.Name, ShouldScan: false, Reason: "no archive share resolvable", Timestamp: now}
		o.recordEvaluation(ctx, rec)
		return rec
	}

	dataRoot := filesvc.Normalize(share)
	archiveRoot := filesvc.Normalize(archiveShare)

	stats, err := scan.Walk(ctx, o.Client, dataRoot, scan.Options{
		Blacklist: settings.Blacklist,
		ColdDays:  mode.Thresholds.MinColdFileAgeDays,
		OldDays:   mode.Thresholds.MinOldFileAgeDays,
	}, o.Log)
	if err != nil && o.Log != nil {
		o.Log.Warnf("walk failed for %s: %v", share, err)
	}

	archiveFiles, restorable := o.walkArchive(ctx, archiveRoot, dataRoot, mode.Thresholds.MinColdFileAgeDays)

	perf, err := o.Telemetry.Performance(ctx, share)
	if err != nil && o.Log != nil {
		o.Log.Warnf("performance telemetry failed for %s: %v", share, err)
	}
	cap, err := o.Telemetry.Capacity(ctx, dataVolume)
	if err != nil && o.Log != nil {
		o.Log.Warnf("capacity telemetry failed for %s: %v", share, err)
	}

	fv := score.Evaluate(stats, perf, cap, len(restorable), mode)
	if o.Metrics != nil {
		o.Metrics.Observe(share, fv)
	}
	shouldScan := score.ShouldScan(fv, mode)

	rec := types.EvaluationRecord{
		Share: share, Volume: dataVolume, Mode: mode.Name, ShouldScan: shouldScan, Score: fv.Score,
		RawScores: fv.Raw, WeightedScores: fv.Weighted, ColdFileCount: len(stats.ColdFiles), Timestamp: now,
	}

	if !shouldScan {
		rec.Reason = "score below threshold"
		o.recordEvaluation(ctx, rec)
		o.recordScanSummary(ctx, share, stats.TotalFileCount, 0, 0, triggeredByUser, now)
		return rec
	}
	rec.Reason = "score at or above threshold"

	freeBytes, _, err := o.Telemetry.Free(ctx, share)
	if err != nil && o.Log != nil {
		o.Log.Warnf("free-space telemetry failed for %s: %v", share, err)
	}

	result := plan.Plan(plan.Input{
		Share:             share,
		ColdFiles:         stats.ColdFiles,
		ExistingArchive:   archiveFiles,
		RestorableArchive: restorable,
		ArchiveFreeBytes:  freeBytes,
		Blacklist:         settings.Blacklist,
		LookupOriginal: func(archivePath string) string {
			m, err := o.Journal.LookupOriginal(ctx, archivePath)
			if err != nil || m == nil {
				return ""
			}
			return m.SourcePath
		},
	})
	rec.RestoreFileCount = len(result.RestoreCandidates)

	restoreReqs := make([]migrate.RestoreRequest, 0, len(result.RestoreCandidates))
	for _, rc := range result.RestoreCandidates {
		if rc.OriginalPath == "" {
			continue
		}
		restoreReqs = append(restoreReqs, migrate.RestoreRequest{Archived: rc.Archived, OriginalPath: rc.OriginalPath, DestShareName: share})
	}
	restoreResult := o.Executor.RestoreBatch(ctx, restoreReqs, o.Journal)

	archiveReqs := make([]migrate.ArchiveRequest, 0, len(result.ArchiveCandidates))
	for _, f := range result.ArchiveCandidates {
		destPath := archiveRoot + strings.TrimPrefix(f.Path, dataRoot)
		archiveReqs = append(archiveReqs, migrate.ArchiveRequest{Meta: f, DestPath: destPath, DestShareName: archiveShare})
	}
	archiveResult := o.Executor.ArchiveBatch(ctx, archiveReqs, o.Journal)

	if o.Log != nil {
		o.Log.Countf("%s: archived=%d (%s), restored=%d, failures=%d",
			share, len(archiveResult.Successes), humanize.Bytes(uint64(sumSizes(archiveResult.Successes))),
			len(restoreResult.Successes), len(archiveResult.Failures)+len(restoreResult.Failures))
	}

	o.recordEvaluation(ctx, rec)
	o.recordScanSummary(ctx, share, stats.TotalFileCount, len(archiveResult.Successes), len(restoreResult.Successes), triggeredByUser, now)
	return rec
}

// walkArchive lists every file under archiveRoot and reports which are
// "restorable" — recently re-accessed since being archived (last-access
// newer than the cold cutoff), per the interpretation of spec §4.5's
// restorable_files resolved in DESIGN.md. Each listed file's OriginalPath
// is resolved from the journal when not already known.
func (o *Orchestrator) walkArchive(ctx context.Context, archiveRoot, dataRoot string, coldDays int) ([]types.FileMeta, map[string]bool) {
	var files []types.FileMeta
	restorable := map[string]bool{}
	coldCutoff := time.Now().UTC().AddDate(0, 0, -coldDays)

	err := o.Client.Walk(ctx, archiveRoot, func(info filesvc.Info) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir {
			return nil
		}
		meta := types.FileMeta{
			Path: info.Path, Size: info.Size, CreationTime: info.CreationTime,
			AccessTime: info.ModTime, ModTime: info.ModTime, Source: types.SourceArchive,
		}
		meta.AccessTime = info.AccessTime
		if m, err := o.Journal.LookupOriginal(ctx, info.Path); err == nil && m != nil {
			meta.OriginalPath = m.SourcePath
		} else {
			meta.OriginalPath = dataRoot + strings.TrimPrefix(info.Path, archiveRoot)
		}
		files = append(files, meta)
		if info.AccessTime.After(coldCutoff) {
			restorable[info.Path] = true
		}
		return nil
	})
	if err != nil && o.Log != nil {
		o.Log.Warnf("archive walk failed for %s: %v", archiveRoot, err)
	}
	return files, restorable
}

func (o *Orchestrator) recordEvaluation(ctx context.Context, rec types.EvaluationRecord) {
	if err := o.Journal.RecordEvaluation(ctx, rec); err != nil && o.Log != nil {
		o.Log.Errorf("record evaluation for %s: %v", rec.Share, err)
	}
}

func (o *Orchestrator) recordScanSummary(ctx context.Context, share string, scanned, archived, restored int, triggeredByUser bool, ts time.Time) {
	rec := types.ScanSummaryRecord{
		Share: share, FilesScanned: scanned, FilesArchived: archived, FilesRestored: restored,
		TriggeredByUser: triggeredByUser, Timestamp: ts,
	}
	if err := o.Journal.RecordScanSummary(ctx, rec); err != nil && o.Log != nil {
		o.Log.Errorf("record scan summary for %s: %v", share, err)
	}
}

func sumSizes(records []types.MovementRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.Size
	}
	return total
}
