package app

import (
	"context"

	"github.com/yourusername/rbx-asset-downloader/internal/domain"
	"github.com/yourusername/rbx-asset-downloader/internal/infrastructure"
	"github.com/yourusername/rbx-asset-downloader/pkg/metrics"
	"go.uber.org/zap"
)

// DownloadManager wraps the asset fetcher with history, metrics and notifications.
// repo, notifier and metrics are optional.
type DownloadManager struct {
	fetcher  domain.AssetFetcher
	repo     domain.DownloadRepository
	notifier *infrastructure.NotificationService
	metrics  *metrics.Metrics
	logger   *zap.Logger
	bulk     *BulkRunner
}

// NewDownloadManager creates a new download manager
func NewDownloadManager(
	fetcher domain.AssetFetcher,
	repo domain.DownloadRepository,
	notifier *infrastructure.NotificationService,
	m *metrics.Metrics,
	logger *zap.Logger,
) *DownloadManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	dm := &DownloadManager{
		fetcher:  fetcher,
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
	dm.bulk = NewBulkRunner(dm, logger)
	return dm
}

// Fetch performs one recorded attempt. It satisfies domain.AssetFetcher so bulk
// runs record every (asset, place) attempt too.
func (dm *DownloadManager) Fetch(ctx context.Context, req domain.AssetRequest) domain.DownloadOutcome {
	var record *domain.Download
	if dm.repo != nil && req.AssetID != "" && req.Normalized() {
		record = domain.NewDownload(req)
		if err := dm.repo.Create(record); err != nil {
			dm.logger.Error("Failed to record download", zap.String("asset_id", req.AssetID), zap.Error(err))
			record = nil
		}
	}

	outcome := dm.fetcher.Fetch(ctx, req)

	if record != nil {
		record.ApplyOutcome(outcome)
		if err := dm.repo.Update(record); err != nil {
			dm.logger.Error("Failed to update download record", zap.String("id", record.ID), zap.Error(err))
		}
	}

	dm.metrics.ObserveAttempt(string(outcome.Kind), outcome.ByteSize, outcome.Video)

	if outcome.IsSuccess() {
		dm.logger.Info("Download completed",
			zap.String("asset_id", req.AssetID),
			zap.String("file", outcome.FilePath),
			zap.Int64("bytes", outcome.ByteSize))
	} else {
		dm.logger.Warn("Download failed",
			zap.String("asset_id", req.AssetID),
			zap.String("place_id", req.PlaceID),
			zap.String("kind", string(outcome.Kind)),
			zap.String("message", outcome.Message))
	}
	return outcome
}

// DownloadAsset downloads a single asset and notifies the user of the outcome
func (dm *DownloadManager) DownloadAsset(ctx context.Context, req domain.AssetRequest) domain.DownloadOutcome {
	outcome := dm.Fetch(ctx, req)
	if outcome.Kind != domain.FailureEmptyID {
		dm.notifier.NotifyAssetOutcome(req.AssetID, outcome)
	}
	return outcome
}

// RunBulk downloads assetIDs sequentially and notifies the user of the result
func (dm *DownloadManager) RunBulk(ctx context.Context, assetIDs []string, cookie string, placeIDs []string) domain.BulkResult {
	result := dm.bulk.Run(ctx, assetIDs, cookie, placeIDs)
	dm.metrics.ObserveBulk(len(result.FailedIDs))
	dm.notifier.NotifyBulkFinished(result)
	return result
}

// History returns recorded attempts, newest first. Returns nil when history is disabled.
func (dm *DownloadManager) History(filters map[string]interface{}, limit int) ([]*domain.Download, error) {
	if dm.repo == nil {
		return nil, nil
	}
	return dm.repo.FindAll(filters, limit)
}

// Stats returns history statistics. Returns zero stats when history is disabled.
func (dm *DownloadManager) Stats() (*domain.DownloadStats, error) {
	if dm.repo == nil {
		return &domain.DownloadStats{}, nil
	}
	return dm.repo.GetStats()
}
