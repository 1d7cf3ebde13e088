package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/rbx-asset-downloader/internal/app"
	"github.com/yourusername/rbx-asset-downloader/internal/domain"
	"github.com/yourusername/rbx-asset-downloader/internal/infrastructure"
	"github.com/yourusername/rbx-asset-downloader/pkg/logger"
	"github.com/yourusername/rbx-asset-downloader/pkg/metrics"
)

const failingAssetID = "13"

// stubFetcher succeeds for every asset except failingAssetID
type stubFetcher struct {
	mu    sync.Mutex
	calls []domain.AssetRequest
}

func (s *stubFetcher) Fetch(ctx context.Context, req domain.AssetRequest) domain.DownloadOutcome {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if req.AssetID == failingAssetID {
		return domain.Failure(domain.FailureAPIError, "Error 404: Asset not found. (Code: 2)")
	}
	return domain.Success("/downloads/"+req.AssetID+".png", 8)
}

func (s *stubFetcher) lastCall() domain.AssetRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

type testServer struct {
	router  http.Handler
	fetcher *stubFetcher
	jobMgr  *app.JobManager
	logsDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	repo, err := infrastructure.NewSQLiteDownloadRepository(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	m := metrics.New()
	fetcher := &stubFetcher{}
	downloadMgr := app.NewDownloadManager(fetcher, repo, nil, m, nil)
	jobMgr := app.NewJobManager(downloadMgr, m, nil)
	require.NoError(t, jobMgr.Start(context.Background()))
	t.Cleanup(func() { _ = jobMgr.Stop() })

	logsDir := filepath.Join(dir, "logs")
	return &testServer{
		router:  SetupRouter(jobMgr, downloadMgr, m, logsDir, "saved-cookie", nil),
		fetcher: fetcher,
		jobMgr:  jobMgr,
		logsDir: logsDir,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type jobBody struct {
	Job     app.Job `json:"job"`
	Message string  `json:"message"`
}

func decodeJob(t *testing.T, rec *httptest.ResponseRecorder) jobBody {
	t.Helper()
	var body jobBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"running":true`)
}

func TestDownloadAsset_Wait(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/assets?wait=true", map[string]string{
		"asset_id": " 12a3 ",
		"place_id": "p-55",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJob(t, rec)
	assert.Equal(t, "123", body.Job.AssetID)
	assert.Equal(t, app.JobCompleted, body.Job.Status)
	assert.Equal(t, "Success: Asset downloaded to /downloads/123.png", body.Message)

	call := s.fetcher.lastCall()
	assert.Equal(t, "55", call.PlaceID)
	assert.Equal(t, "saved-cookie", call.AuthCookie)
}

func TestDownloadAsset_RequestCookieWins(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/assets?wait=true", map[string]string{
		"asset_id": "7",
		"cookie":   "own-cookie",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "own-cookie", s.fetcher.lastCall().AuthCookie)
	assert.NotContains(t, rec.Body.String(), "own-cookie")
}

func TestDownloadAsset_Failure(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/assets?wait=true", map[string]string{"asset_id": failingAssetID})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeJob(t, rec)
	require.NotNil(t, body.Job.Outcome)
	assert.Equal(t, domain.FailureAPIError, body.Job.Outcome.Kind)
	assert.Equal(t, "Error 404: Asset not found. (Code: 2)", body.Message)
}

func TestDownloadAsset_EmptyIDRejected(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/assets", map[string]string{"asset_id": "abc"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error: Asset ID cannot be empty.")
	assert.Contains(t, rec.Body.String(), string(domain.FailureEmptyID))
}

func TestDownloadAsset_AsyncThenPoll(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/assets", map[string]string{"asset_id": "99"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decodeJob(t, rec).Job.ID
	require.NotEmpty(t, id)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.jobMgr.Wait(ctx, id)
	require.NoError(t, err)

	rec = s.do(t, http.MethodGet, "/api/v1/jobs/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJob(t, rec)
	assert.Equal(t, app.JobCompleted, body.Job.Status)
	assert.Equal(t, "Success: Asset downloaded to /downloads/99.png", body.Message)
}

func TestGetJob_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/jobs/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkDownload_AllSucceeded(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/assets/bulk?wait=true", map[string]interface{}{
		"asset_ids": []string{"1"},
		"text":      "2\n\n 3 \n",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJob(t, rec)
	require.NotNil(t, body.Job.Result)
	assert.Equal(t, []string{"1", "2", "3"}, body.Job.Result.SucceededIDs)
	assert.Empty(t, body.Job.Result.FailedIDs)
}

func TestBulkDownload_Partial(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/assets/bulk?wait=true", map[string]interface{}{
		"asset_ids": []string{"1", failingAssetID},
		"place_ids": []string{"10", "20"},
	})

	require.Equal(t, http.StatusMultiStatus, rec.Code)
	body := decodeJob(t, rec)
	assert.Equal(t, []string{"1"}, body.Job.Result.SucceededIDs)
	assert.Equal(t, []string{failingAssetID}, body.Job.Result.FailedIDs)
}

func TestBulkDownload_NoIDs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/assets/bulk", map[string]interface{}{"text": "\n\n"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/assets?wait=true", map[string]string{"asset_id": "5"})
	s.do(t, http.MethodPost, "/api/v1/assets?wait=true", map[string]string{"asset_id": failingAssetID})

	rec := s.do(t, http.MethodGet, "/api/v1/history?status=failed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count     int                `json:"count"`
		Downloads []*domain.Download `json:"downloads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, failingAssetID, list.Downloads[0].AssetID)

	rec = s.do(t, http.MethodGet, "/api/v1/history/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.DownloadStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/assets?wait=true", map[string]string{"asset_id": "5"})

	rec := s.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rbxdl_attempts_total{kind="success"} 1`)
	assert.Contains(t, rec.Body.String(), "rbxdl_http_requests_total")
}

func TestLogs(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.MkdirAll(s.logsDir, 0755))
	line := `{"level":"info","ts":"2024-01-02T03:04:05Z","msg":"Download completed","asset_id":"42"}`
	path := logger.LogPath(s.logsDir, logger.CategoryDownload, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0644))

	rec := s.do(t, http.MethodGet, "/api/v1/logs/download?date=2024-01-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Contains(t, rec.Body.String(), "Download completed")

	rec = s.do(t, http.MethodGet, "/api/v1/logs/download/search?date=2024-01-02&q=42", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = s.do(t, http.MethodGet, "/api/v1/logs/bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/logs/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "download") && strings.Contains(rec.Body.String(), "error"))
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/unknown", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
