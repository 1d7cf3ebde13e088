package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/yourusername/rbx-asset-downloader/internal/domain"
	"go.uber.org/zap"
)

// NotificationService handles sending desktop notifications
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if n == nil || n.config == nil || !n.config.Enabled {
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		err = n.run("osascript", "-e", script)
	case "notify-send":
		err = n.run("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyAssetOutcome reports the result of a single asset download
func (n *NotificationService) NotifyAssetOutcome(assetID string, outcome domain.DownloadOutcome) {
	if outcome.IsSuccess() {
		n.Send("Download Complete", outcome.String())
		return
	}
	n.Send("Download Failed", fmt.Sprintf("Asset %s: %s", assetID, outcome.String()))
}

// NotifyBulkFinished reports the result of a bulk run
func (n *NotificationService) NotifyBulkFinished(result domain.BulkResult) {
	if result.AllSucceeded() {
		n.Send("Bulk Download Complete", "All assets downloaded successfully.")
		return
	}
	n.Send("Bulk Download Complete",
		"The following asset IDs failed to download: "+truncateString(strings.Join(result.FailedIDs, ", "), 120))
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
