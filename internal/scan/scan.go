// Package scan implements the Share Walker & Stat Collector (C1): given a
// share, a blacklist, and mode-derived cold/old thresholds, it traverses
// the share depth-first via a filesvc.Client and produces ScanStats.
// Grounded on theweak1-file-maintenance/internal/maintenance/worker.go's
// walk loop, generalized from "delete-eligible" to "cold/old eligible".
package scan

import (
	"context"
	"strings"
	"time"

	"sharetier/internal/errs"
	"sharetier/internal/filesvc"
	"sharetier/internal/logging"
	"sharetier/internal/migrate/stub"
	"sharetier/internal/types"
)

// Options configures one share walk.
type Options struct {
	Blacklist     []string
	ColdDays      int
	OldDays       int
	SizeAccessDefault float64 // spec §4.3: pre-supplied size_access_ratio, default 0.5
}

// Walk traverses root via client, producing ScanStats per spec §4.1.
// Launcher-stub files (".bat" extension or "_shortcut.bat" suffix) are
// excluded from all counts. A directory whose path contains any blacklist
// token (case-insensitive substring) is skipped whole; the files beneath it
// are still counted toward the blacklist ratio via an explicit sub-count,
// since a Client that honors SkipDir (per filesvc's documented contract)
// never surfaces those files to this callback again. Files whose metadata
// cannot be read never reach this callback: the Client drops them (LocalFS
// skips an entry it cannot stat) and the walk goes on. No warning is logged
// for such files.
func Walk(ctx context.Context, client filesvc.Client, root string, opts Options, log *logging.Logger) (types.ScanStats, error) {
	stats := types.ScanStats{SizeAccessRatio: opts.SizeAccessDefault}
	if stats.SizeAccessRatio == 0 {
		stats.SizeAccessRatio = 0.5
	}

	now := time.Now().UTC()
	coldCutoff := now.AddDate(0, 0, -opts.ColdDays)
	oldCutoff := now.AddDate(0, 0, -opts.OldDays)

	err := client.Walk(ctx, root, func(info filesvc.Info) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if info.IsDir {
			if isBlacklisted(info.Path, opts.Blacklist) {
				stats.BlacklistedDirs++
				n, cerr := countFiles(ctx, client, info.Path)
				if cerr != nil && log != nil {
					log.Warnf("count blacklisted subtree %s: %v", info.Path, cerr)
				}
				stats.BlacklistedFiles += n
				return filesvc.SkipDir
			}
			return nil
		}

		if isStubLauncher(info.Path) {
			return nil
		}

		stats.TotalFileCount++
		stats.TotalSize += info.Size

		access := clockSkewCorrected(info.AccessTime, now)
		modified := clockSkewCorrected(info.ModTime, now)

		cold := !access.After(coldCutoff)
		old := !access.After(oldCutoff) && !modified.After(oldCutoff)

		if old {
			stats.OldFileCount++
		}
		if cold {
			meta := types.FileMeta{
				Path:         info.Path,
				Size:         info.Size,
				CreationTime: info.CreationTime,
				AccessTime:   access,
				ModTime:      modified,
				Source:       types.SourceData,
			}
			stats.ColdFiles = append(stats.ColdFiles, meta)
		}
		return nil
	})

	if err != nil {
		if log != nil {
			log.Warnf("walk failed for %s: %v", root, err)
		}
		return stats, errs.Wrap(errs.KindWalk, "walk share", err)
	}

	if stats.BlacklistedDirs+stats.BlacklistedFiles > 0 {
		total := stats.TotalFileCount + stats.BlacklistedFiles
		if total > 0 {
			stats.BlacklistRatioPct = 100 * float64(stats.BlacklistedFiles) / float64(total)
		}
	}

	return stats, nil
}

// clockSkewCorrected treats a future timestamp as "now" to avoid a
// negative-age underflow (spec §9 clock-skew note).
func clockSkewCorrected(t, now time.Time) time.Time {
	if t.After(now) {
		return now
	}
	return t
}

func isBlacklisted(path string, blacklist []string) bool {
	lower := strings.ToLower(path)
	for _, token := range blacklist {
		if token == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(token)) {
			return true
		}
	}
	return false
}

func isStubLauncher(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".bat") || strings.HasSuffix(lower, strings.ToLower(stub.Suffix))
}

// countFiles walks root and counts its non-directory, non-stub-launcher
// entries. Used to attribute a blacklisted directory's contents to the
// blacklist ratio (spec §4.1: "count of files beneath them are recorded")
// even though the outer walk prunes that subtree via SkipDir and so never
// sees those entries itself.
func countFiles(ctx context.Context, client filesvc.Client, root string) (int, error) {
	count := 0
	err := client.Walk(ctx, root, func(info filesvc.Info) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir || isStubLauncher(info.Path) {
			return nil
		}
		count++
		return nil
	})
	return count, err
}
