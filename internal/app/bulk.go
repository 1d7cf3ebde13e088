package app

import (
	"context"

	"github.com/yourusername/rbx-asset-downloader/internal/domain"
	"go.uber.org/zap"
)

// BulkRunner downloads many assets one after another, trying each place id in turn
type BulkRunner struct {
	fetcher domain.AssetFetcher
	logger  *zap.Logger
}

// NewBulkRunner creates a new bulk runner
func NewBulkRunner(fetcher domain.AssetFetcher, logger *zap.Logger) *BulkRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkRunner{fetcher: fetcher, logger: logger}
}

// Run attempts every asset id in order. Ids that normalize to "" are skipped.
// With no place ids each asset is tried once without place context; otherwise
// place ids are tried in order until the first success.
func (b *BulkRunner) Run(ctx context.Context, assetIDs []string, cookie string, placeIDs []string) domain.BulkResult {
	var result domain.BulkResult

	places := make([]string, len(placeIDs))
	for i, p := range placeIDs {
		places[i] = domain.NormalizeID(p)
	}
	if len(places) == 0 {
		places = []string{""}
	}

	b.logger.Info("Starting bulk download",
		zap.Int("assets", len(assetIDs)),
		zap.Int("place_ids", len(placeIDs)))

	for _, raw := range assetIDs {
		assetID := domain.NormalizeID(raw)
		if assetID == "" {
			continue
		}

		succeeded := false
		for _, placeID := range places {
			outcome := b.fetcher.Fetch(ctx, domain.AssetRequest{
				AssetID:    assetID,
				AuthCookie: cookie,
				PlaceID:    placeID,
			})
			if outcome.IsSuccess() {
				succeeded = true
				break
			}
			b.logger.Debug("Bulk attempt failed",
				zap.String("asset_id", assetID),
				zap.String("place_id", placeID),
				zap.String("kind", string(outcome.Kind)))
		}

		if succeeded {
			result.MarkSucceeded(assetID)
		} else {
			result.MarkFailed(assetID)
		}
	}

	if result.AllSucceeded() {
		b.logger.Info("Bulk download finished successfully", zap.Int("succeeded", len(result.SucceededIDs)))
	} else {
		b.logger.Warn("Bulk download finished with failures",
			zap.Int("succeeded", len(result.SucceededIDs)),
			zap.Strings("failed_ids", result.FailedIDs))
	}
	return result
}
