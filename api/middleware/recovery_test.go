package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yourusername/rbx-asset-downloader/pkg/metrics"
)

func newPanickingRouter(log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery(log, m))
	router.GET("/jobs/:id", func(c *gin.Context) {
		c.Set(AssetIDKey, "1818")
		panic("boom")
	})
	router.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestRecovery_Panic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	m := metrics.New()
	router := newPanickingRouter(zap.New(core), m)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/abc", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())

	entries := logs.FilterMessage("Handler panic recovered").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/jobs/:id", fields["route"])
	assert.Equal(t, "abc", fields["job_id"])
	assert.Equal(t, "1818", fields["asset_id"])

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `rbxdl_http_panics_total{route="/jobs/:id"} 1`)
	assert.Contains(t, scrape.Body.String(), "rbxdl_http_errors_total 1")
}

func TestRecovery_NoPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	m := metrics.New()
	router := newPanickingRouter(zap.New(core), m)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, logs.Len())
	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, scrape.Body.String(), "rbxdl_http_panics_total{")
}

func TestRecovery_NilMetrics(t *testing.T) {
	router := newPanickingRouter(zap.NewNop(), nil)

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/abc", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
