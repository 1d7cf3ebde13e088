package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/rbx-asset-downloader/api/handlers"
	"github.com/yourusername/rbx-asset-downloader/api/middleware"
	"github.com/yourusername/rbx-asset-downloader/internal/app"
	"github.com/yourusername/rbx-asset-downloader/pkg/metrics"
)

// SetupRouter sets up the HTTP router. defaultCookie is the saved cookie used
// for requests that do not carry one.
func SetupRouter(
	jobMgr *app.JobManager,
	downloadMgr *app.DownloadManager,
	m *metrics.Metrics,
	logsDir string,
	defaultCookie string,
	log *zap.Logger,
) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log, m))
	router.Use(middleware.Metrics(m))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(jobMgr)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		assetHandler := handlers.NewAssetHandler(jobMgr, defaultCookie, log)
		assets := v1.Group("/assets")
		{
			assets.POST("", assetHandler.DownloadAsset)
			assets.POST("/bulk", assetHandler.BulkDownload)
		}
		v1.GET("/jobs/:id", assetHandler.GetJob)

		historyHandler := handlers.NewHistoryHandler(downloadMgr, log)
		history := v1.Group("/history")
		{
			history.GET("", historyHandler.ListHistory)
			history.GET("/stats", historyHandler.GetStats)
		}

		logHandler := handlers.NewLogHandler(logsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
