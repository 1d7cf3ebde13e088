package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/rbx-asset-downloader/pkg/metrics"
)

// AssetIDKey is the context key handlers set once they know which asset a request targets
const AssetIDKey = "asset_id"

// unmatchedRoute labels panics raised outside a registered route
const unmatchedRoute = "unmatched"

// Recovery turns a handler panic into a 500, logging the route and any job or
// asset id the request named, and counting it per route.
func Recovery(log *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}

			route := c.FullPath()
			if route == "" {
				route = unmatchedRoute
			}
			fields := []zap.Field{
				zap.Any("error", err),
				zap.String("route", route),
				zap.String("method", c.Request.Method),
			}
			if id := c.Param("id"); id != "" {
				fields = append(fields, zap.String("job_id", id))
			}
			if assetID := c.GetString(AssetIDKey); assetID != "" {
				fields = append(fields, zap.String("asset_id", assetID))
			}
			log.Error("Handler panic recovered", fields...)
			m.IncPanics(route)

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}()
		c.Next()
	}
}
