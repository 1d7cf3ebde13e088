package domain

import "context"

// AssetFetcher performs a single download attempt.
// Every failure is reported through the returned outcome, never as a Go error.
type AssetFetcher interface {
	Fetch(ctx context.Context, req AssetRequest) DownloadOutcome
}
