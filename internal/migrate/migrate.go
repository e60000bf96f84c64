// Package migrate implements the Migration Executor (C6): archive-one,
// restore-one, and batch semantics, streaming through a local staging
// file exactly as theweak1-file-maintenance/internal/maintenance/backup.go's
// copyFileWithRetry/copyfileStream do, plus stub launcher creation and the
// failure taxonomy of spec §4.6. Grounded additionally on
// original_source/netapp_interfaces.py's move_file/restore_file/
// bulk_move_files/bulk_restore_files.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/time/rate"

	"sharetier/internal/filesvc"
	"sharetier/internal/logging"
	"sharetier/internal/migrate/stub"
	"sharetier/internal/types"
)

// Recorder commits a batch of successful MovementRecords to the journal
// (C4). Kept as a narrow interface so migrate does not depend on the
// concrete journal.Store implementation.
type Recorder interface {
	RecordMovements(ctx context.Context, batch []types.MovementRecord) error
}

// Executor performs archive/restore operations against a filesvc.Client.
type Executor struct {
	client     filesvc.Client
	stagingDir string
	retries    int
	limiters   map[string]*rate.Limiter // keyed by destination share name
	log        *logging.Logger
}

// NewExecutor builds an Executor. stagingDir holds local staging files
// during streaming copies; retries is the per-file copy retry budget
// (teacher's 250ms/1s/3s backoff ladder applies at each attempt).
func NewExecutor(client filesvc.Client, stagingDir string, retries int, log *logging.Logger) *Executor {
	return &Executor{client: client, stagingDir: stagingDir, retries: retries, limiters: map[string]*rate.Limiter{}, log: log}
}

// SetShareLimit configures a bytes/sec throttle for migrations landing on
// destShare, generalized from justinlime-GileBrowser's per-peer
// bandwidth.BandwidthManager to per-destination-share. A zero limit means
// unlimited.
func (e *Executor) SetShareLimit(destShare string, bytesPerSec float64) {
	if bytesPerSec <= 0 {
		delete(e.limiters, destShare)
		return
	}
	e.limiters[destShare] = rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec))
}

func (e *Executor) throttle(ctx context.Context, destShare string, n int) error {
	lim, ok := e.limiters[destShare]
	if !ok {
		return nil
	}
	return lim.WaitN(ctx, n)
}

// ArchiveRequest is one file queued for archival.
type ArchiveRequest struct {
	Meta          types.FileMeta
	DestPath      string
	DestShareName string // used only for throttling lookup
}

// RestoreRequest is one file queued for restore.
type RestoreRequest struct {
	Archived     types.FileMeta
	OriginalPath string
	DestShareName string
}

// ArchiveOne archives a single file (spec §4.6): verifies readability and
// non-zero size, streams source -> staging -> destination, deletes the
// source on success, stamps destination times, writes a stub launcher,
// and returns a pending (uncommitted) MovementRecord.
func (e *Executor) ArchiveOne(ctx context.Context, req ArchiveRequest) (types.MovementRecord, *types.MigrationFailure) {
	src := req.Meta.Path

	if req.Meta.Size == 0 {
		return types.MovementRecord{}, &types.MigrationFailure{Path: src, Reason: types.FailureZeroSize, Err: "source file is zero bytes"}
	}

	rc, err := e.openWithRetry(ctx, src, filesvc.ModeRead)
	if err != nil {
		return types.MovementRecord{}, &types.MigrationFailure{Path: src, Reason: classifyReadErr(err), Err: err.Error()}
	}
	one := make([]byte, 1)
	if _, err := rc.Read(one); err != nil && err != io.EOF {
		rc.Close()
		return types.MovementRecord{}, &types.MigrationFailure{Path: src, Reason: types.FailurePermissionDenied, Err: err.Error()}
	}
	rc.Close()

	stagePath, err := e.download(ctx, src)
	if err != nil {
		return types.MovementRecord{}, &types.MigrationFailure{Path: src, Reason: types.FailureDownloadFailed, Err: err.Error()}
	}
	defer os.Remove(stagePath)

	if err := e.upload(ctx, stagePath, req.DestPath, req.DestShareName); err != nil {
		return types.MovementRecord{}, &types.MigrationFailure{Path: src, Reason: types.FailureUploadFailed, Err: err.Error()}
	}

	if err := e.client.SetTimes(ctx, req.DestPath, req.Meta.AccessTime, req.Meta.ModTime); err != nil && e.log != nil {
		e.log.Warnf("preserve timestamps failed for %s: %v", req.DestPath, err)
	}

	if err := e.client.Remove(ctx, src); err != nil {
		return types.MovementRecord{}, &types.MigrationFailure{Path: src, Reason: types.FailureSourceDeleteFailed, Err: err.Error()}
	}

	if err := stub.Create(src, req.DestPath); err != nil && e.log != nil {
		// Stub-creation failure is logged but not fatal (spec §4.6): the
		// journal still reflects the move.
		e.log.Warnf("stub launcher creation failed for %s: %v", src, err)
	}

	return types.MovementRecord{
		SourcePath:   src,
		DestPath:     req.DestPath,
		CreationTime: req.Meta.CreationTime,
		AccessTime:   req.Meta.AccessTime,
		ModTime:      req.Meta.ModTime,
		Size:         req.Meta.Size,
		Action:       types.ActionMovedToArchive,
		Timestamp:    time.Now().UTC(),
	}, nil
}

// RestoreOne restores a single file from the archive (spec §4.6): streams
// archive -> staging -> original path, sets destination times, deletes
// the archive copy, and removes the stub launcher if present.
func (e *Executor) RestoreOne(ctx context.Context, req RestoreRequest) (types.MovementRecord, *types.MigrationFailure) {
	src := req.Archived.Path
	if req.OriginalPath == "" {
		return types.MovementRecord{}, &types.MigrationFailure{Path: src, Reason: types.FailureFatalUnexpected, Err: "no original path resolvable"}
	}

	stagePath, err := e.download(ctx, src)
	if err != nil {
		return types.MovementRecord{}, &types.MigrationFailure{Path: src, Reason: types.FailureDownloadFailed, Err: err.Error()}
	}
	defer os.Remove(stagePath)

	if err := e.upload(ctx, stagePath, req.OriginalPath, req.DestShareName); err != nil {
		return types.MovementRecord{}, &types.MigrationFailure{Path: src, Reason: types.FailureUploadFailed, Err: err.Error()}
	}

	if err := e.client.SetTimes(ctx, req.OriginalPath, req.Archived.AccessTime, req.Archived.ModTime); err != nil && e.log != nil {
		e.log.Warnf("preserve timestamps failed for %s: %v", req.OriginalPath, err)
	}

	if err := e.client.Remove(ctx, src); err != nil {
		return types.MovementRecord{}, &types.MigrationFailure{Path: src, Reason: types.FailureSourceDeleteFailed, Err: err.Error()}
	}

	if err := stub.Remove(req.OriginalPath); err != nil && e.log != nil {
		e.log.Warnf("stub launcher removal failed for %s: %v", req.OriginalPath, err)
	}

	return types.MovementRecord{
		SourcePath:   src,
		DestPath:     req.OriginalPath,
		CreationTime: req.Archived.CreationTime,
		AccessTime:   req.Archived.AccessTime,
		ModTime:      req.Archived.ModTime,
		Size:         req.Archived.Size,
		Action:       types.ActionRestoredFromArchive,
		Timestamp:    time.Now().UTC(),
	}, nil
}

// ArchiveBatch processes each request independently (spec §4.6): a
// failure is recorded with a reason and processing continues. Successful
// records are committed to recorder in one journal transaction after the
// batch completes.
func (e *Executor) ArchiveBatch(ctx context.Context, reqs []ArchiveRequest, recorder Recorder) types.MigrationResult {
	var result types.MigrationResult
	for _, req := range reqs {
		if ctx.Err() != nil {
			result.Failures = append(result.Failures, types.MigrationFailure{Path: req.Meta.Path, Reason: types.FailureTimeout, Err: ctx.Err().Error()})
			continue
		}
		rec, fail := e.ArchiveOne(ctx, req)
		if fail != nil {
			result.Failures = append(result.Failures, *fail)
			continue
		}
		result.Successes = append(result.Successes, rec)
	}
	if err := recorder.RecordMovements(ctx, result.Successes); err != nil {
		if e.log != nil {
			e.log.Errorf("journal commit failed for archive batch: %v", err)
		}
	}
	return result
}

// RestoreBatch mirrors ArchiveBatch for restores.
func (e *Executor) RestoreBatch(ctx context.Context, reqs []RestoreRequest, recorder Recorder) types.MigrationResult {
	var result types.MigrationResult
	for _, req := range reqs {
		if ctx.Err() != nil {
			result.Failures = append(result.Failures, types.MigrationFailure{Path: req.Archived.Path, Reason: types.FailureTimeout, Err: ctx.Err().Error()})
			continue
		}
		rec, fail := e.RestoreOne(ctx, req)
		if fail != nil {
			result.Failures = append(result.Failures, *fail)
			continue
		}
		result.Successes = append(result.Successes, rec)
	}
	if err := recorder.RecordMovements(ctx, result.Successes); err != nil {
		if e.log != nil {
			e.log.Errorf("journal commit failed for restore batch: %v", err)
		}
	}
	return result
}

func (e *Executor) openWithRetry(ctx context.Context, path string, mode filesvc.OpenMode) (io.ReadWriteCloser, error) {
	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rc, err := e.client.Open(ctx, path, mode)
		if err == nil {
			return rc, nil
		}
		lastErr = err
		if attempt < e.retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffForAttempt(attempt)):
			}
		}
	}
	return nil, fmt.Errorf("open %s failed after %d attempts: %w", path, e.retries+1, lastErr)
}

// download streams path from the remote client into a local staging file,
// mirroring the teacher's copyfileStream (temp file, then the caller
// renames/uses it, low-memory buffered copy).
func (e *Executor) download(ctx context.Context, path string) (string, error) {
	rc, err := e.openWithRetry(ctx, path, filesvc.ModeRead)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	if err := os.MkdirAll(e.stagingDir, 0o755); err != nil {
		return "", err
	}
	stageFile, err := os.CreateTemp(e.stagingDir, "sharetier-*.stage")
	if err != nil {
		return "", err
	}
	defer stageFile.Close()

	buf := make([]byte, 256*1024)
	if _, err := io.CopyBuffer(stageFile, rc, buf); err != nil {
		os.Remove(stageFile.Name())
		return "", err
	}
	return stageFile.Name(), nil
}

// upload streams the local staging file to destPath on the remote client,
// throttled per destination share if a limiter is configured.
func (e *Executor) upload(ctx context.Context, stagePath, destPath, destShare string) error {
	in, err := os.Open(stagePath)
	if err != nil {
		return err
	}
	defer in.Close()

	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := in.Seek(0, io.SeekStart); err != nil {
			return err
		}
		out, err := e.client.Open(ctx, destPath, filesvc.ModeWrite)
		if err != nil {
			lastErr = err
		} else {
			err = e.copyThrottled(ctx, out, in, destShare)
			closeErr := out.Close()
			if err == nil {
				err = closeErr
			}
			if err == nil {
				return nil
			}
			lastErr = err
		}
		if attempt < e.retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffForAttempt(attempt)):
			}
		}
	}
	return fmt.Errorf("upload %s failed after %d attempts: %w", destPath, e.retries+1, lastErr)
}

func (e *Executor) copyThrottled(ctx context.Context, dst io.Writer, src io.Reader, destShare string) error {
	buf := make([]byte, 256*1024)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if err := e.throttle(ctx, destShare, n); err != nil {
				return err
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// backoffForAttempt mirrors the teacher's capped backoff ladder: 250ms,
// 1s, then 3s for every subsequent attempt.
func backoffForAttempt(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 250 * time.Millisecond
	case 1:
		return 1 * time.Second
	default:
		return 3 * time.Second
	}
}

func classifyReadErr(err error) types.FailureReason {
	if os.IsNotExist(err) {
		return types.FailureSourceNotFound
	}
	if os.IsPermission(err) {
		return types.FailurePermissionDenied
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return types.FailureDownloadFailed
	}
	return types.FailureDownloadFailed
}
