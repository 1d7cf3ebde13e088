package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/rbx-asset-downloader/internal/domain"
	"github.com/yourusername/rbx-asset-downloader/pkg/metrics"
)

// fakeRunner implements DownloadRunner, optionally blocking until released
type fakeRunner struct {
	mu      sync.Mutex
	singles []domain.AssetRequest
	bulks   [][]string
	gate    chan struct{}
}

func (f *fakeRunner) DownloadAsset(ctx context.Context, req domain.AssetRequest) domain.DownloadOutcome {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.singles = append(f.singles, req)
	f.mu.Unlock()
	return domain.Success("/d/"+req.AssetID+".png", 4)
}

func (f *fakeRunner) RunBulk(ctx context.Context, assetIDs []string, cookie string, placeIDs []string) domain.BulkResult {
	f.mu.Lock()
	f.bulks = append(f.bulks, assetIDs)
	f.mu.Unlock()
	var result domain.BulkResult
	for i, id := range assetIDs {
		if i%2 == 0 {
			result.MarkSucceeded(id)
		} else {
			result.MarkFailed(id)
		}
	}
	return result
}

func startJobManager(t *testing.T, runner DownloadRunner, m *metrics.Metrics) *JobManager {
	t.Helper()
	jm := NewJobManager(runner, m, nil)
	require.NoError(t, jm.Start(context.Background()))
	t.Cleanup(func() {
		if jm.IsRunning() {
			_ = jm.Stop()
		}
	})
	return jm
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestJobManager_SingleAsset(t *testing.T) {
	runner := &fakeRunner{}
	jm := startJobManager(t, runner, nil)

	job, err := jm.SubmitAsset(domain.AssetRequest{AssetID: "42", AuthCookie: "secret", PlaceID: "7"})
	require.NoError(t, err)
	assert.Equal(t, JobQueued, job.Status)
	assert.NotEmpty(t, job.ID)

	done, err := jm.Wait(waitCtx(t), job.ID)
	require.NoError(t, err)

	assert.Equal(t, JobCompleted, done.Status)
	require.NotNil(t, done.Outcome)
	assert.True(t, done.Outcome.IsSuccess())
	assert.Equal(t, "/d/42.png", done.Outcome.FilePath)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)

	require.Len(t, runner.singles, 1)
	assert.Equal(t, "secret", runner.singles[0].AuthCookie)
	assert.Equal(t, "7", runner.singles[0].PlaceID)
}

func TestJobManager_RejectsEmptyAssetID(t *testing.T) {
	jm := NewJobManager(&fakeRunner{}, nil, nil)

	_, err := jm.SubmitAsset(domain.AssetRequest{})

	assert.ErrorIs(t, err, ErrEmptyAssetID)
}

func TestJobManager_RejectsUnnormalizedIDs(t *testing.T) {
	jm := NewJobManager(&fakeRunner{}, nil, nil)

	tests := []struct {
		name string
		req  domain.AssetRequest
	}{
		{"asset id with letters", domain.AssetRequest{AssetID: "12a"}},
		{"asset id with path", domain.AssetRequest{AssetID: "../../1"}},
		{"place id with letters", domain.AssetRequest{AssetID: "12", PlaceID: "p-9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := jm.SubmitAsset(tt.req)

			assert.ErrorIs(t, err, ErrInvalidID)
			assert.Nil(t, job)
		})
	}
}

func TestJobManager_BulkNormalizesIDs(t *testing.T) {
	runner := &fakeRunner{}
	jm := startJobManager(t, runner, nil)

	job, err := jm.SubmitBulk([]string{" 1 ", "abc", "2", "3x"}, "", []string{"p9", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, job.AssetIDs)
	assert.Equal(t, []string{"9"}, job.PlaceIDs)

	done, err := jm.Wait(waitCtx(t), job.ID)
	require.NoError(t, err)
	require.NotNil(t, done.Result)
	assert.Equal(t, []string{"1", "3"}, done.Result.SucceededIDs)
	assert.Equal(t, []string{"2"}, done.Result.FailedIDs)
	assert.Nil(t, done.Outcome)
}

func TestJobManager_BulkWithoutValidIDs(t *testing.T) {
	jm := NewJobManager(&fakeRunner{}, nil, nil)

	_, err := jm.SubmitBulk([]string{"", "abc"}, "", nil)

	assert.ErrorIs(t, err, ErrNoAssetIDs)
}

func TestJobManager_RunsJobsInOrder(t *testing.T) {
	runner := &fakeRunner{gate: make(chan struct{})}
	m := metrics.New()
	jm := startJobManager(t, runner, m)

	first, err := jm.SubmitAsset(domain.AssetRequest{AssetID: "1"})
	require.NoError(t, err)
	second, err := jm.SubmitAsset(domain.AssetRequest{AssetID: "2"})
	require.NoError(t, err)

	close(runner.gate)
	_, err = jm.Wait(waitCtx(t), second.ID)
	require.NoError(t, err)

	got, err := jm.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, got.Status)
	require.Len(t, runner.singles, 2)
	assert.Equal(t, "1", runner.singles[0].AssetID)
	assert.Equal(t, "2", runner.singles[1].AssetID)
}

func TestJobManager_GetUnknown(t *testing.T) {
	jm := NewJobManager(&fakeRunner{}, nil, nil)

	_, err := jm.Get("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = jm.Wait(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobManager_WaitHonorsContext(t *testing.T) {
	jm := NewJobManager(&fakeRunner{}, nil, nil)
	job, err := jm.SubmitAsset(domain.AssetRequest{AssetID: "5"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = jm.Wait(ctx, job.ID)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJobManager_QueueFull(t *testing.T) {
	jm := NewJobManager(&fakeRunner{}, nil, nil)
	for i := 0; i < defaultQueueSize; i++ {
		_, err := jm.SubmitAsset(domain.AssetRequest{AssetID: "1"})
		require.NoError(t, err)
	}

	_, err := jm.SubmitAsset(domain.AssetRequest{AssetID: "1"})

	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestJobManager_StartStop(t *testing.T) {
	jm := NewJobManager(&fakeRunner{}, nil, nil)
	assert.False(t, jm.IsRunning())

	require.NoError(t, jm.Start(context.Background()))
	assert.True(t, jm.IsRunning())
	assert.Error(t, jm.Start(context.Background()))

	require.NoError(t, jm.Stop())
	assert.False(t, jm.IsRunning())
	assert.ErrorIs(t, jm.Stop(), ErrManagerNotRunning)
}

func TestJob_CookieNotSerialized(t *testing.T) {
	jm := NewJobManager(&fakeRunner{}, nil, nil)
	job, err := jm.SubmitAsset(domain.AssetRequest{AssetID: "8", AuthCookie: "secret"})
	require.NoError(t, err)

	data, err := json.Marshal(job)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}
