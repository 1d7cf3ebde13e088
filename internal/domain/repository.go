package domain

// DownloadRepository defines the interface for download history persistence
type DownloadRepository interface {
	// Create creates a new download record
	Create(download *Download) error

	// Update updates an existing download record
	Update(download *Download) error

	// FindByID finds a download by ID
	FindByID(id string) (*Download, error)

	// FindByAssetID returns every attempt for an asset, newest first
	FindByAssetID(assetID string) ([]*Download, error)

	// FindAll finds downloads with optional column filters, newest first
	FindAll(filters map[string]interface{}, limit int) ([]*Download, error)

	// GetStats returns download statistics
	GetStats() (*DownloadStats, error)
}

// DownloadStats represents download statistics
type DownloadStats struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	TotalBytes int64 `json:"total_bytes"`
}
