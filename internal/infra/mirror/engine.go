// Package mirror reconciles remote registry manifests with the local
// schema mirror using content hashes. Files are identified by path plus
// SHA-256 digest, never mtime, so re-running a sync against an unchanged
// remote is a pure no-op.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/fsutil"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/hashutil"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/registry"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/store"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/telemetry"
)

// Engine synchronizes sources file by file, deliberately sequential: one
// fetch completes before the next starts, which keeps progress linear and
// rate-limits pressure on remote hosts.
type Engine struct {
	logger  *zap.Logger
	store   *store.Store
	sources *store.SourceDB
	fetcher *registry.Fetcher
	metrics domain.Metrics
}

func NewEngine(logger *zap.Logger, st *store.Store, sources *store.SourceDB, fetcher *registry.Fetcher, metrics domain.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Engine{
		logger:  logger.Named("mirror"),
		store:   st,
		sources: sources,
		fetcher: fetcher,
		metrics: metrics,
	}
}

// Synchronize fetches the manifest behind manifestRef and reconciles every
// file it lists against the source's mirror directory. Manifest-level
// failures abort the call; per-file failures are collected in the report
// and never abort the batch. Files removed from the remote manifest are
// reported but never deleted locally.
func (e *Engine) Synchronize(ctx context.Context, source, manifestRef string, allowOverwrite bool) (*domain.SyncReport, error) {
	report := &domain.SyncReport{
		OperationID: uuid.NewString(),
		Source:      source,
		StartedAt:   time.Now(),
	}
	logger := e.logger.With(zap.String("source", source), zap.String("operation", report.OperationID))

	start := time.Now()
	data, err := e.fetcher.Fetch(ctx, manifestRef)
	e.metrics.ObserveFetch(domain.FetchKindManifest, time.Since(start), err)
	if err != nil {
		return nil, domain.Wrap(domain.CodeFetchFailed, "mirror.Synchronize", err)
	}

	remote, err := registry.ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if warning := registry.SchemaSpecWarning(remote.SchemaSpec); warning != "" {
		logger.Warn("schema spec mismatch", zap.String("detail", warning))
	}
	report.SchemaCount = len(remote.Schemas)

	manifestPath, err := e.store.ManifestPath(source)
	if err != nil {
		return nil, err
	}
	local, err := registry.LoadLocalManifest(manifestPath)
	if err != nil && !errors.Is(err, domain.ErrManifestNotFound) {
		// A corrupt local copy is rebuilt from scratch; on-disk files are
		// still classified by their actual content hash.
		logger.Warn("local manifest unreadable, rebuilding", zap.Error(err))
		local = nil
	}

	remoteFiles := remote.Files()
	if local != nil {
		report.RemovedFiles = removedFiles(local.Files(), remoteFiles)
	}

	updatedHashes := make(map[string]string, len(remoteFiles))
	for _, file := range remoteFiles {
		outcome, hash, fileErr := e.syncFile(ctx, source, manifestRef, remote.BaseDir, file, allowOverwrite)
		e.metrics.ObserveSyncFile(outcome)
		report.Record(outcome, file)
		if fileErr != nil {
			report.Errors = append(report.Errors, domain.SyncError{
				File:    file,
				Code:    codeOf(fileErr),
				Message: fileErr.Error(),
			})
			logger.Warn("file sync failed", zap.String("file", file), zap.Error(fileErr))
			continue
		}
		if hash != "" {
			updatedHashes[file] = hash
		}
		logger.Debug("file classified",
			zap.String("file", file),
			zap.String("outcome", string(outcome)),
		)
	}

	persisted := *remote
	persisted.LocalHashes = e.mergeHashes(source, local, updatedHashes)
	if err := registry.SaveLocalManifest(manifestPath, &persisted); err != nil {
		return nil, err
	}

	report.Duration = time.Since(report.StartedAt)
	logger.Info("sync complete",
		zap.Int("downloaded", report.Downloaded),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("conflicts", len(report.Conflicts)),
		zap.Int("removed", len(report.RemovedFiles)),
		zap.Duration("took", report.Duration),
	)
	return report, nil
}

// Update re-synchronizes one named source, or every registered source when
// name is empty, with overwrite enabled. A source whose manifest fetch
// fails gets an error report; the batch moves on to the next source.
func (e *Engine) Update(ctx context.Context, name string) (*domain.UpdateReport, error) {
	var targets []domain.Source
	if name != "" {
		source, err := e.sources.Get(name)
		if err != nil {
			return nil, domain.Wrap(domain.CodeNotFound, "mirror.Update", err).
				WithHint("run `flowmcp sources` to list imported sources")
		}
		targets = []domain.Source{source}
	} else {
		all, err := e.sources.List()
		if err != nil {
			return nil, domain.Wrap(domain.CodeIOFailed, "mirror.Update", err)
		}
		targets = all
	}

	report := &domain.UpdateReport{StartedAt: time.Now()}
	for _, target := range targets {
		sub, err := e.Synchronize(ctx, target.Name, target.OriginURL, true)
		if err != nil {
			report.Reports = append(report.Reports, domain.SyncReport{
				Source:    target.Name,
				StartedAt: time.Now(),
				Errors:    []domain.SyncError{{Code: codeOf(err), Message: err.Error()}},
			})
			e.logger.Warn("source update failed", zap.String("source", target.Name), zap.Error(err))
			continue
		}

		target.SchemaCount = sub.SchemaCount
		target.UpdatedAt = time.Now()
		if err := e.sources.Put(target); err != nil {
			sub.Errors = append(sub.Errors, domain.SyncError{
				Code:    domain.CodeIOFailed,
				Message: fmt.Sprintf("persist source record: %v", err),
			})
		}
		report.Reports = append(report.Reports, *sub)
	}
	return report, nil
}

// syncFile classifies one manifest file. The returned hash reflects the
// file's on-disk content after the step, whatever the outcome; the empty
// hash means the file could not be read or written at all.
func (e *Engine) syncFile(ctx context.Context, source, manifestRef, baseDir, file string, allowOverwrite bool) (domain.SyncOutcome, string, error) {
	localPath, err := e.store.SchemaFilePath(source, file)
	if err != nil {
		return domain.OutcomeFailed, "", err
	}
	ref, err := registry.ResolveFileRef(manifestRef, baseDir, file)
	if err != nil {
		return domain.OutcomeFailed, "", err
	}

	start := time.Now()
	data, err := e.fetcher.Fetch(ctx, ref)
	e.metrics.ObserveFetch(domain.FetchKindFile, time.Since(start), err)
	if err != nil {
		return domain.OutcomeFailed, "", err
	}
	remoteHash := hashutil.ContentDigest(data)

	localData, err := os.ReadFile(localPath)
	if errors.Is(err, os.ErrNotExist) {
		if err := e.writeFile(localPath, data); err != nil {
			return domain.OutcomeFailed, "", err
		}
		return domain.OutcomeDownloaded, remoteHash, nil
	}
	if err != nil {
		return domain.OutcomeFailed, "", domain.E(domain.CodeIOFailed, "mirror.syncFile",
			fmt.Sprintf("read %s", localPath), err)
	}

	localHash := hashutil.ContentDigest(localData)
	if localHash == remoteHash {
		return domain.OutcomeSkipped, localHash, nil
	}
	if !allowOverwrite {
		// Local edits win until the caller opts into overwriting. The
		// recorded hash stays the on-disk one.
		return domain.OutcomeConflict, localHash, nil
	}
	if err := e.writeFile(localPath, data); err != nil {
		return domain.OutcomeFailed, "", err
	}
	return domain.OutcomeUpdated, remoteHash, nil
}

func (e *Engine) writeFile(path string, data []byte) error {
	if err := fsutil.WriteFileAtomic(path, data, fsutil.DefaultFileMode); err != nil {
		return domain.E(domain.CodeIOFailed, "mirror.syncFile", fmt.Sprintf("write %s", path), err).
			WithHint("check free disk space and permissions under the store root")
	}
	return nil
}

// mergeHashes keeps prior entries for untouched files that still exist on
// disk and layers the hashes recorded in this run on top, so localHashes
// keys always stay a subset of existing files.
func (e *Engine) mergeHashes(source string, local *domain.Manifest, updated map[string]string) map[string]string {
	merged := make(map[string]string, len(updated))
	if local != nil {
		for file, hash := range local.LocalHashes {
			path, err := e.store.SchemaFilePath(source, file)
			if err != nil {
				continue
			}
			if fsutil.FileExists(path) {
				merged[file] = hash
			}
		}
	}
	for file, hash := range updated {
		merged[file] = hash
	}
	return merged
}

func removedFiles(localFiles, remoteFiles []string) []string {
	remote := make(map[string]struct{}, len(remoteFiles))
	for _, file := range remoteFiles {
		remote[file] = struct{}{}
	}
	var removed []string
	for _, file := range localFiles {
		if _, ok := remote[file]; !ok {
			removed = append(removed, file)
		}
	}
	return removed
}

func codeOf(err error) domain.ErrorCode {
	if code, ok := domain.CodeFrom(err); ok {
		return code
	}
	return domain.CodeInternal
}
