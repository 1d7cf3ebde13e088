package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/rbx-asset-downloader/api/middleware"
	"github.com/yourusername/rbx-asset-downloader/internal/app"
	"github.com/yourusername/rbx-asset-downloader/internal/domain"
)

// AssetHandler handles asset download and job requests
type AssetHandler struct {
	jobMgr        *app.JobManager
	defaultCookie string
	logger        *zap.Logger
}

// NewAssetHandler creates a new asset handler. defaultCookie is used when a
// request carries no cookie of its own.
func NewAssetHandler(jobMgr *app.JobManager, defaultCookie string, logger *zap.Logger) *AssetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetHandler{
		jobMgr:        jobMgr,
		defaultCookie: defaultCookie,
		logger:        logger,
	}
}

// DownloadAssetRequest represents a request to download one asset
type DownloadAssetRequest struct {
	AssetID string `json:"asset_id" binding:"required"`
	PlaceID string `json:"place_id,omitempty"`
	Cookie  string `json:"cookie,omitempty"`
}

// BulkDownloadRequest represents a request to download many assets. IDs may be
// given as a list, as newline separated text, or both.
type BulkDownloadRequest struct {
	AssetIDs []string `json:"asset_ids,omitempty"`
	Text     string   `json:"text,omitempty"`
	PlaceIDs []string `json:"place_ids,omitempty"`
	Cookie   string   `json:"cookie,omitempty"`
}

// JobResponse wraps a job with its user-facing summary
type JobResponse struct {
	Job     *app.Job `json:"job"`
	Message string   `json:"message,omitempty"`
}

// DownloadAsset handles POST /api/v1/assets
func (h *AssetHandler) DownloadAsset(c *gin.Context) {
	var req DownloadAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assetReq := domain.NewAssetRequest(req.AssetID, h.cookie(req.Cookie), req.PlaceID)
	c.Set(middleware.AssetIDKey, assetReq.AssetID)
	job, err := h.jobMgr.SubmitAsset(assetReq)
	if err != nil {
		h.submitError(c, err)
		return
	}

	if !wantsWait(c) {
		c.JSON(http.StatusAccepted, JobResponse{Job: job})
		return
	}

	job, err = h.jobMgr.Wait(c.Request.Context(), job.ID)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if !job.Outcome.IsSuccess() {
		status = http.StatusBadGateway
	}
	c.JSON(status, JobResponse{Job: job, Message: job.Outcome.String()})
}

// BulkDownload handles POST /api/v1/assets/bulk
func (h *AssetHandler) BulkDownload(c *gin.Context) {
	var req BulkDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ids := append([]string{}, req.AssetIDs...)
	ids = append(ids, domain.ParseIDList(req.Text)...)

	job, err := h.jobMgr.SubmitBulk(ids, h.cookie(req.Cookie), req.PlaceIDs)
	if err != nil {
		h.submitError(c, err)
		return
	}

	if !wantsWait(c) {
		c.JSON(http.StatusAccepted, JobResponse{Job: job})
		return
	}

	job, err = h.jobMgr.Wait(c.Request.Context(), job.ID)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		return
	}

	if job.Result.AllSucceeded() {
		c.JSON(http.StatusOK, JobResponse{Job: job, Message: "Bulk download finished."})
		return
	}
	c.JSON(http.StatusMultiStatus, JobResponse{
		Job:     job,
		Message: "Bulk download finished with failures.",
	})
}

// GetJob handles GET /api/v1/jobs/:id
func (h *AssetHandler) GetJob(c *gin.Context) {
	job, err := h.jobMgr.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	resp := JobResponse{Job: job}
	if job.Outcome != nil {
		resp.Message = job.Outcome.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AssetHandler) cookie(fromRequest string) string {
	if fromRequest != "" {
		return fromRequest
	}
	return h.defaultCookie
}

func (h *AssetHandler) submitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyAssetID):
		outcome := domain.Failure(domain.FailureEmptyID, "Asset ID cannot be empty.")
		c.JSON(http.StatusBadRequest, gin.H{"error": outcome.String(), "kind": outcome.Kind})
	case errors.Is(err, app.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": domain.FailureEmptyID})
	case errors.Is(err, app.ErrNoAssetIDs):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": domain.FailureEmptyID})
	case errors.Is(err, app.ErrQueueFull):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to submit job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func wantsWait(c *gin.Context) bool {
	wait, err := strconv.ParseBool(c.DefaultQuery("wait", "false"))
	return err == nil && wait
}
