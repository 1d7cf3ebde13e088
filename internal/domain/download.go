package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the final status of a recorded download attempt
type DownloadStatus string

const (
	StatusProcessing DownloadStatus = "processing"
	StatusCompleted  DownloadStatus = "completed"
	StatusFailed     DownloadStatus = "failed"
)

// Download is the persisted history record of one (asset, place) attempt
type Download struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	AssetID      string         `json:"asset_id" gorm:"not null;index"`
	PlaceID      string         `json:"place_id,omitempty"`
	Status       DownloadStatus `json:"status" gorm:"not null;index"`
	Kind         OutcomeKind    `json:"kind,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	FilePath     string         `json:"file_path,omitempty"`
	ByteSize     int64          `json:"byte_size,omitempty"`
	Video        bool           `json:"video"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// NewDownload creates a history record for a request about to be attempted
func NewDownload(req AssetRequest) *Download {
	now := time.Now()
	return &Download{
		ID:        uuid.New().String(),
		AssetID:   req.AssetID,
		PlaceID:   req.PlaceID,
		Status:    StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkCompleted marks the download as completed
func (d *Download) MarkCompleted(filePath string, byteSize int64) {
	d.Status = StatusCompleted
	d.Kind = OutcomeSuccess
	d.FilePath = filePath
	d.ByteSize = byteSize
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// MarkFailed marks the download as failed
func (d *Download) MarkFailed(kind OutcomeKind, message string) {
	d.Status = StatusFailed
	d.Kind = kind
	d.ErrorMessage = message
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// ApplyOutcome moves the record into the terminal state described by outcome
func (d *Download) ApplyOutcome(outcome DownloadOutcome) {
	if outcome.IsSuccess() {
		d.MarkCompleted(outcome.FilePath, outcome.ByteSize)
		d.Video = outcome.Video
		return
	}
	d.MarkFailed(outcome.Kind, outcome.Message)
}

// IsTerminal checks if the download is in a terminal state
func (d *Download) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed
}
