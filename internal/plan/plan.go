// Package plan implements the Decision Planner (C5): merges data-side cold
// files with archive-side contents, applies admin filters, sorts by
// last-access, and splits into archive- and restore-candidate sets under
// the archive share's free-space budget. Pure and side-effect-free,
// grounded on original_source/netapp_interfaces.py's
// analyze_volume_for_archive_and_restore and filter_files/is_blacklisted
// from original_source/netapp_btc.py.
package plan

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sharetier/internal/types"
)

// taggedFile pairs a FileMeta with bookkeeping needed across the algorithm.
type taggedFile struct {
	meta          types.FileMeta
	forcedRestore bool
}

// Input bundles everything the planner needs for one share (spec §4.5).
type Input struct {
	Share             string
	ColdFiles         []types.FileMeta // data-side, source=data
	ExistingArchive   []types.FileMeta // archive-side, source=archive, OriginalPath set
	RestorableArchive map[string]bool  // archive paths that are candidates to leave archive (last access newer than the cold cutoff)
	ArchiveFreeBytes  int64
	Filters           types.AdminFilters
	Blacklist         []string
	LookupOriginal    func(archivePath string) string // resolves original path when FileMeta.OriginalPath is empty
}

// Plan runs the seven-step algorithm of spec §4.5.
func Plan(in Input) types.PlanResult {
	alreadyArchived := make(map[string]bool, len(in.ExistingArchive))
	for _, f := range in.ExistingArchive {
		if f.OriginalPath != "" {
			alreadyArchived[f.OriginalPath] = true
		}
	}

	// Step 1: tag each file with its source. A cold data-side file whose
	// path already has a live archived incarnation is reported separately
	// rather than re-queued for archival.
	var skippedAlready []string
	tagged := make([]taggedFile, 0, len(in.ColdFiles)+len(in.ExistingArchive))
	for _, f := range in.ColdFiles {
		if alreadyArchived[f.Path] {
			skippedAlready = append(skippedAlready, f.Path)
			continue
		}
		f.Source = types.SourceData
		tagged = append(tagged, taggedFile{meta: f})
	}
	for _, f := range in.ExistingArchive {
		f.Source = types.SourceArchive
		tagged = append(tagged, taggedFile{meta: f})
	}

	// Step 3: apply admin filters; archive-side blacklist matches become
	// forced restores instead of being dropped. Archive files flagged
	// restorable (recently touched since archival) bypass filtering
	// entirely and restore unconditionally.
	var survivors []taggedFile
	var restoreCandidates []types.RestoreCandidate

	for _, tf := range tagged {
		if tf.meta.Source == types.SourceArchive && in.RestorableArchive[tf.meta.Path] {
			restoreCandidates = append(restoreCandidates, types.RestoreCandidate{
				Archived:     tf.meta,
				OriginalPath: resolveOriginal(tf.meta, in.LookupOriginal),
			})
			continue
		}

		blacklisted := isBlacklisted(tf.meta.Path, in.Blacklist)
		passesFilters := matchesFilters(tf.meta, in.Filters)

		excluded := blacklisted || !passesFilters

		if !excluded {
			survivors = append(survivors, tf)
			continue
		}

		// Step 4: filtered-out archive-side files return to data; a
		// blacklist match on an archive-side file is a forced restore.
		if tf.meta.Source == types.SourceArchive {
			restoreCandidates = append(restoreCandidates, types.RestoreCandidate{
				Archived:     tf.meta,
				OriginalPath: resolveOriginal(tf.meta, in.LookupOriginal),
			})
		}
		// Data-side files excluded by filters are simply dropped (they
		// remain where they are; the spec defines no third fate for them).
	}

	// Step 5: sort survivors by last-access ascending, path lexicographic
	// as a tie-break. Parse errors (zero AccessTime) sort last.
	sort.SliceStable(survivors, func(i, j int) bool {
		ai, aj := survivors[i].meta.AccessTime, survivors[j].meta.AccessTime
		iZero, jZero := ai.IsZero(), aj.IsZero()
		if iZero != jZero {
			return !iZero // non-zero sorts before zero (zero == parse error, sorts last)
		}
		if !ai.Equal(aj) {
			return ai.Before(aj)
		}
		return survivors[i].meta.Path < survivors[j].meta.Path
	})

	// Step 6: fill the archive budget with oldest-first data-side survivors,
	// stopping entirely at the first file that would overflow it, per
	// original_source/netapp_interfaces.py's
	// analyze_volume_for_archive_and_restore budget loop: it breaks on the
	// first overflow rather than skipping ahead to a smaller/younger file,
	// so a file that doesn't fit can never be jumped by one further down
	// the oldest-first list. Archive-side survivors are then checked
	// against the same running total: those that still fit stay in
	// archive, those that don't are demoted to restore candidates (spec
	// §4.5 step 6).
	var archiveCandidates []types.FileMeta
	var stayInArchive []types.FileMeta
	var used int64

	for _, tf := range survivors {
		if tf.meta.Source != types.SourceData {
			continue
		}
		if used+tf.meta.Size > in.ArchiveFreeBytes {
			break // budget check is strict <=; stop accumulating entirely
		}
		used += tf.meta.Size
		archiveCandidates = append(archiveCandidates, tf.meta)
	}

	for _, tf := range survivors {
		if tf.meta.Source != types.SourceArchive {
			continue
		}
		if used+tf.meta.Size <= in.ArchiveFreeBytes {
			used += tf.meta.Size
			stayInArchive = append(stayInArchive, tf.meta)
		} else {
			restoreCandidates = append(restoreCandidates, types.RestoreCandidate{
				Archived:     tf.meta,
				OriginalPath: resolveOriginal(tf.meta, in.LookupOriginal),
			})
		}
	}

	return types.PlanResult{
		ArchiveCandidates: archiveCandidates,
		RestoreCandidates: restoreCandidates,
		StayInArchive:     stayInArchive,
		AlreadyArchived:   skippedAlready,
	}
}

func resolveOriginal(f types.FileMeta, lookup func(string) string) string {
	if f.OriginalPath != "" {
		return f.OriginalPath
	}
	if lookup != nil {
		return lookup(f.Path)
	}
	return ""
}

// isBlacklisted reports whether path contains any blacklist token as a
// case-insensitive substring match, grounded on
// original_source/netapp_btc.py's is_blacklisted.
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

// matchesFilters applies extension, date-range, and size filters (spec
// §4.5 step 3). A filter axis with no constraints configured always
// passes.
func matchesFilters(f types.FileMeta, filters types.AdminFilters) bool {
	if len(filters.Extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(f.Path))
		matched := false
		for _, want := range filters.Extensions {
			if strings.ToLower(want) == ext {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if filters.DateStart != nil || filters.DateEnd != nil {
		var at time.Time
		switch filters.DateField {
		case "creation":
			at = f.CreationTime
		case "modified":
			at = f.ModTime
		default:
			at = f.AccessTime
		}
		if filters.DateStart != nil && at.Before(*filters.DateStart) {
			return false
		}
		if filters.DateEnd != nil && at.After(*filters.DateEnd) {
			return false
		}
	}

	if filters.MinSize > 0 && f.Size < filters.MinSize {
		return false
	}
	if filters.MaxSize > 0 && f.Size > filters.MaxSize {
		return false
	}

	return true
}
