package orchestrator

import (
	"context"
	"strings"

	"sharetier/internal/config"
	"sharetier/internal/filesvc"
	"sharetier/internal/migrate"
	"sharetier/internal/plan"
	"sharetier/internal/scan"
	"sharetier/internal/types"
)

// PreviewResult is the response shape of spec §6's preview admin command.
type PreviewResult struct {
	Status types.Status
	Plan   types.PlanResult
}

// Preview runs C1+C5 for one share under admin-supplied filters and
// blacklist, without executing any migration (spec §6: "returns archive
// and restore candidate lists without executing").
func (o *Orchestrator) Preview(ctx context.Context, share string, settings config.Settings, filters types.AdminFilters, blacklist []string) (PreviewResult, error) {
	result, _, _, err := o.planShare(ctx, share, settings, filters, blacklist)
	if err != nil {
		return PreviewResult{Status: types.StatusError}, err
	}
	if len(result.ArchiveCandidates) == 0 && len(result.RestoreCandidates) == 0 {
		return PreviewResult{Status: types.StatusNoMatches, Plan: result}, nil
	}
	return PreviewResult{Status: types.StatusSuccess, Plan: result}, nil
}

// ExecuteResult is the response shape of spec §6's execute admin command.
type ExecuteResult struct {
	Status            types.Status
	ArchiveResult     types.MigrationResult
	RestoreResult     types.MigrationResult
}

// Execute runs C1+C5+C6+C4 for one share under admin-supplied filters and
// blacklist (spec §6: "runs the plan"), independent of cooldown — an
// explicit admin execute is not a scheduled tick.
func (o *Orchestrator) Execute(ctx context.Context, share string, settings config.Settings, filters types.AdminFilters, blacklist []string) (ExecuteResult, error) {
	result, dataRoot, archiveRoot, err := o.planShare(ctx, share, settings, filters, blacklist)
	if err != nil {
		return ExecuteResult{Status: types.StatusError}, err
	}
	if len(result.ArchiveCandidates) == 0 && len(result.RestoreCandidates) == 0 {
		return ExecuteResult{Status: types.StatusNoMatches}, nil
	}

	archiveShareName, err := o.Telemetry.ArchiveShare(ctx, share)
	if err != nil {
		return ExecuteResult{Status: types.StatusError}, err
	}

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
		archiveReqs = append(archiveReqs, migrate.ArchiveRequest{Meta: f, DestPath: destPath, DestShareName: archiveShareName})
	}
	archiveResult := o.Executor.ArchiveBatch(ctx, archiveReqs, o.Journal)

	status := types.StatusSuccess
	if len(archiveResult.Failures) > 0 || len(restoreResult.Failures) > 0 {
		if len(archiveResult.Successes) == 0 && len(restoreResult.Successes) == 0 {
			status = types.StatusError
		} else {
			status = types.StatusPartialSuccess
		}
	}

	return ExecuteResult{Status: status, ArchiveResult: archiveResult, RestoreResult: restoreResult}, nil
}

func (o *Orchestrator) planShare(ctx context.Context, share string, settings config.Settings, filters types.AdminFilters, blacklist []string) (types.PlanResult, string, string, error) {
	mode, err := settings.PolicyMode()
	if err != nil {
		return types.PlanResult{}, "", "", err
	}
	archiveShareName, err := o.Telemetry.ArchiveShare(ctx, share)
	if err != nil {
		return types.PlanResult{}, "", "", err
	}

	dataRoot := filesvc.Normalize(share)
	archiveRoot := filesvc.Normalize(archiveShareName)

	stats, err := scan.Walk(ctx, o.Client, dataRoot, scan.Options{
		Blacklist: blacklist,
		ColdDays:  mode.Thresholds.MinColdFileAgeDays,
		OldDays:   mode.Thresholds.MinOldFileAgeDays,
	}, o.Log)
	if err != nil && o.Log != nil {
		o.Log.Warnf("preview walk failed for %s: %v", share, err)
	}

	archiveFiles, restorable := o.walkArchive(ctx, archiveRoot, dataRoot, mode.Thresholds.MinColdFileAgeDays)

	freeBytes, _, err := o.Telemetry.Free(ctx, share)
	if err != nil && o.Log != nil {
		o.Log.Warnf("free-space telemetry failed for %s: %v", share, err)
	}

	result := plan.Plan(plan.Input{
		Share: share, ColdFiles: stats.ColdFiles, ExistingArchive: archiveFiles,
		RestorableArchive: restorable, ArchiveFreeBytes: freeBytes, Filters: filters, Blacklist: blacklist,
		LookupOriginal: func(archivePath string) string {
			m, err := o.Journal.LookupOriginal(ctx, archivePath)
			if err != nil || m == nil {
				return ""
			}
			return m.SourcePath
		},
	})
	return result, dataRoot, archiveRoot, nil
}
