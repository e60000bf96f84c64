// Package journal implements the Cooldown & Journal Store (C4): a
// relational store with three append-only tables (movement_records,
// evaluation_records, scan_summary_records) plus the cooldown and lookup
// operations of spec §4.4. Backed by modernc.org/sqlite (pure Go, no CGO),
// grounded on justinlime-GileBrowser's go.mod.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"sharetier/internal/errs"
	"sharetier/internal/types"
)

// Store is the journal/cooldown backing store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a sqlite-backed Store at dsn, e.g.
// "file:/var/lib/sharetier/journal.db" or ":memory:" for tests.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.KindJournal, "open journal store", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS movement_records (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			dest_path TEXT NOT NULL,
			creation_time TIMESTAMP NOT NULL,
			access_time TIMESTAMP NOT NULL,
			mod_time TIMESTAMP NOT NULL,
			size INTEGER NOT NULL,
			action TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movement_dest ON movement_records(dest_path, action, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_movement_source ON movement_records(source_path, timestamp)`,
		`CREATE TABLE IF NOT EXISTS evaluation_records (
			id TEXT PRIMARY KEY,
			share TEXT NOT NULL,
			volume TEXT NOT NULL,
			mode TEXT NOT NULL,
			should_scan INTEGER NOT NULL,
			score REAL NOT NULL,
			reason TEXT NOT NULL,
			raw_scores TEXT NOT NULL,
			weighted_scores TEXT NOT NULL,
			cold_file_count INTEGER NOT NULL,
			restore_file_count INTEGER NOT NULL,
			timestamp TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scan_summary_records (
			id TEXT PRIMARY KEY,
			share TEXT NOT NULL,
			files_scanned INTEGER NOT NULL,
			files_archived INTEGER NOT NULL,
			files_restored INTEGER NOT NULL,
			filters_used TEXT NOT NULL,
			triggered_by_user INTEGER NOT NULL,
			timestamp TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_summary_share ON scan_summary_records(share, timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errs.Wrap(errs.KindJournal, "migrate journal schema", err)
		}
	}
	return nil
}

// RecordMovements commits a batch of MovementRecords in one transaction,
// rolling back and reporting on any failure (spec §4.4).
func (s *Store) RecordMovements(ctx context.Context, batch []types.MovementRecord) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.KindJournal, "begin movement batch", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO movement_records
		(id, source_path, dest_path, creation_time, access_time, mod_time, size, action, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errs.Wrap(errs.KindJournal, "prepare movement insert", err)
	}
	defer stmt.Close()

	for i := range batch {
		rec := &batch[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.SourcePath, rec.DestPath,
			rec.CreationTime, rec.AccessTime, rec.ModTime, rec.Size, string(rec.Action), rec.Timestamp); err != nil {
			tx.Rollback()
			return errs.Wrap(errs.KindJournal, "insert movement record", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.KindJournal, "commit movement batch", err)
	}
	return nil
}

// RecordEvaluation writes a single EvaluationRecord.
func (s *Store) RecordEvaluation(ctx context.Context, rec types.EvaluationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rawJSON, err := encodeScores(rec.RawScores)
	if err != nil {
		return errs.Wrap(errs.KindJournal, "encode raw scores", err)
	}
	weightedJSON, err := encodeScores(rec.WeightedScores)
	if err != nil {
		return errs.Wrap(errs.KindJournal, "encode weighted scores", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO evaluation_records
		(id, share, volume, mode, should_scan, score, reason, raw_scores, weighted_scores, cold_file_count, restore_file_count, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Share, rec.Volume, rec.Mode, boolInt(rec.ShouldScan), rec.Score, rec.Reason,
		rawJSON, weightedJSON, rec.ColdFileCount, rec.RestoreFileCount, rec.Timestamp)
	if err != nil {
		return errs.Wrap(errs.KindJournal, "insert evaluation record", err)
	}
	return nil
}

// RecordScanSummary writes a single ScanSummaryRecord.
func (s *Store) RecordScanSummary(ctx context.Context, rec types.ScanSummaryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO scan_summary_records
		(id, share, files_scanned, files_archived, files_restored, filters_used, triggered_by_user, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Share, rec.FilesScanned, rec.FilesArchived, rec.FilesRestored,
		rec.FiltersUsed, boolInt(rec.TriggeredByUser), rec.Timestamp)
	if err != nil {
		return errs.Wrap(errs.KindJournal, "insert scan summary record", err)
	}
	return nil
}

// LastScanTime returns the max ScanSummaryRecord timestamp for share, or
// nil if the share has no history.
func (s *Store) LastScanTime(ctx context.Context, share string) (*time.Time, error) {
	row := s.db.QueryRowContext(ctx, `SELECT timestamp FROM scan_summary_records WHERE share = ? ORDER BY timestamp DESC LIMIT 1`, share)
	var ts time.Time
	if err := row.Scan(&ts); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindJournal, "query last scan time", err)
	}
	t := ts.UTC()
	return &t, nil
}

// InCooldown reports whether share is within its cooldown window (spec
// §4.4): true iff now - last_scan_time < hours. A share with no history
// is never in cooldown.
func (s *Store) InCooldown(ctx context.Context, share string, hours float64) (bool, error) {
	last, err := s.LastScanTime(ctx, share)
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}
	elapsed := time.Since(*last)
	return elapsed < time.Duration(hours*float64(time.Hour)), nil
}

// UniqueArchivedCount counts distinct source paths whose latest action for
// share was moved_to_archive (spec §4.4).
func (s *Store) UniqueArchivedCount(ctx context.Context, share string) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT source_path, action
			FROM (
				SELECT source_path, action,
					ROW_NUMBER() OVER (PARTITION BY source_path ORDER BY timestamp DESC) AS rn
				FROM movement_records
				WHERE source_path LIKE ?
			)
			WHERE rn = 1 AND action = ?
		)`, share+"%", string(types.ActionMovedToArchive))
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, errs.Wrap(errs.KindJournal, "query unique archived count", err)
	}
	return count, nil
}

// LookupOriginal returns the most-recent moved_to_archive row whose
// destination equals archivePath (the specification's fix for the
// original's inconsistent naive/aware and source/destination lookups:
// restores always resolve by destination_path).
func (s *Store) LookupOriginal(ctx context.Context, archivePath string) (*types.MovementRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_path, dest_path, creation_time, access_time, mod_time, size, action, timestamp
		FROM movement_records
		WHERE dest_path = ? AND action = ?
		ORDER BY timestamp DESC
		LIMIT 1`, archivePath, string(types.ActionMovedToArchive))

	var rec types.MovementRecord
	var action string
	if err := row.Scan(&rec.ID, &rec.SourcePath, &rec.DestPath, &rec.CreationTime,
		&rec.AccessTime, &rec.ModTime, &rec.Size, &action, &rec.Timestamp); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindJournal, "lookup original path", err)
	}
	rec.Action = types.ActionKind(action)
	return &rec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encodeScores(m map[string]float64) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
