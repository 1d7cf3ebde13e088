package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/rbx-asset-downloader/internal/domain"
	"github.com/yourusername/rbx-asset-downloader/pkg/metrics"
)

// JobType distinguishes single-asset jobs from bulk runs
type JobType string

const (
	JobTypeSingle JobType = "single"
	JobTypeBulk   JobType = "bulk"
)

// JobStatus represents the lifecycle of a queued job
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
)

const defaultQueueSize = 64

var (
	ErrEmptyAssetID      = errors.New("asset id is empty after normalization")
	ErrInvalidID         = errors.New("asset and place ids must contain only digits")
	ErrNoAssetIDs        = errors.New("no asset ids to download")
	ErrJobNotFound       = errors.New("job not found")
	ErrQueueFull         = errors.New("job queue full")
	ErrManagerNotRunning = errors.New("job manager not running")
)

// Job is a download request accepted by the API and processed in the background
type Job struct {
	ID          string                  `json:"id"`
	Type        JobType                 `json:"type"`
	Status      JobStatus               `json:"status"`
	AssetID     string                  `json:"asset_id,omitempty"`
	PlaceID     string                  `json:"place_id,omitempty"`
	AssetIDs    []string                `json:"asset_ids,omitempty"`
	PlaceIDs    []string                `json:"place_ids,omitempty"`
	Outcome     *domain.DownloadOutcome `json:"outcome,omitempty"`
	Result      *domain.BulkResult      `json:"result,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	StartedAt   *time.Time              `json:"started_at,omitempty"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`

	cookie string
	done   chan struct{}
}

// DownloadRunner is the subset of DownloadManager the job worker drives
type DownloadRunner interface {
	DownloadAsset(ctx context.Context, req domain.AssetRequest) domain.DownloadOutcome
	RunBulk(ctx context.Context, assetIDs []string, cookie string, placeIDs []string) domain.BulkResult
}

// JobManager runs submitted jobs one at a time on a single worker goroutine.
// Downloads never overlap, matching the sequential CLI behaviour.
type JobManager struct {
	runner  DownloadRunner
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu       sync.RWMutex
	jobs     map[string]*Job
	pending  int
	running  bool
	queue    chan *Job
	stopChan chan struct{}
	workerWg sync.WaitGroup
}

// NewJobManager creates a new job manager
func NewJobManager(runner DownloadRunner, m *metrics.Metrics, logger *zap.Logger) *JobManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobManager{
		runner:  runner,
		metrics: m,
		logger:  logger,
		jobs:    make(map[string]*Job),
		queue:   make(chan *Job, defaultQueueSize),
	}
}

// Start starts the job worker
func (jm *JobManager) Start(ctx context.Context) error {
	jm.mu.Lock()
	if jm.running {
		jm.mu.Unlock()
		return fmt.Errorf("job manager already running")
	}
	jm.running = true
	stop := make(chan struct{})
	jm.stopChan = stop
	jm.mu.Unlock()

	jm.logger.Info("Job worker started")

	jm.workerWg.Add(1)
	go jm.process(ctx, stop)
	return nil
}

// Stop stops the worker after the current job finishes. Queued jobs are left queued.
func (jm *JobManager) Stop() error {
	jm.mu.Lock()
	if !jm.running {
		jm.mu.Unlock()
		return ErrManagerNotRunning
	}
	jm.running = false
	close(jm.stopChan)
	jm.mu.Unlock()

	jm.workerWg.Wait()
	jm.logger.Info("Job worker stopped")
	return nil
}

// IsRunning returns whether the worker is running
func (jm *JobManager) IsRunning() bool {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return jm.running
}

// SubmitAsset queues a single-asset download. Requests whose ids are not
// already normalized are rejected rather than rewritten.
func (jm *JobManager) SubmitAsset(req domain.AssetRequest) (*Job, error) {
	if req.AssetID == "" {
		return nil, ErrEmptyAssetID
	}
	if !req.Normalized() {
		return nil, ErrInvalidID
	}
	job := jm.newJob(JobTypeSingle)
	job.AssetID = req.AssetID
	job.PlaceID = req.PlaceID
	job.cookie = req.AuthCookie
	return jm.enqueue(job)
}

// SubmitBulk queues a bulk run. Ids are normalized and empty ones dropped.
func (jm *JobManager) SubmitBulk(assetIDs []string, cookie string, placeIDs []string) (*Job, error) {
	ids := make([]string, 0, len(assetIDs))
	for _, raw := range assetIDs {
		if id := domain.NormalizeID(raw); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoAssetIDs
	}

	places := make([]string, 0, len(placeIDs))
	for _, raw := range placeIDs {
		if id := domain.NormalizeID(raw); id != "" {
			places = append(places, id)
		}
	}

	job := jm.newJob(JobTypeBulk)
	job.AssetIDs = ids
	job.PlaceIDs = places
	job.cookie = cookie
	return jm.enqueue(job)
}

// Get returns a snapshot of the job
func (jm *JobManager) Get(id string) (*Job, error) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	job, ok := jm.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.snapshot(), nil
}

// Wait blocks until the job completes or ctx is done
func (jm *JobManager) Wait(ctx context.Context, id string) (*Job, error) {
	jm.mu.RLock()
	job, ok := jm.jobs[id]
	jm.mu.RUnlock()
	if !ok {
		return nil, ErrJobNotFound
	}

	select {
	case <-job.done:
		return jm.Get(id)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (jm *JobManager) newJob(jobType JobType) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    JobQueued,
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

func (jm *JobManager) enqueue(job *Job) (*Job, error) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	select {
	case jm.queue <- job:
	default:
		return nil, ErrQueueFull
	}
	jm.jobs[job.ID] = job
	jm.pending++
	jm.metrics.SetJobsInProgress(jm.pending)

	jm.logger.Info("Job queued",
		zap.String("id", job.ID),
		zap.String("type", string(job.Type)))
	return job.snapshot(), nil
}

func (jm *JobManager) process(ctx context.Context, stop <-chan struct{}) {
	defer jm.workerWg.Done()

	for {
		select {
		case <-ctx.Done():
			jm.logger.Info("Job worker stopping", zap.String("reason", "context_cancelled"))
			return
		case <-stop:
			return
		case job := <-jm.queue:
			jm.run(ctx, job)
		}
	}
}

func (jm *JobManager) run(ctx context.Context, job *Job) {
	jm.mu.Lock()
	started := time.Now()
	job.Status = JobRunning
	job.StartedAt = &started
	jm.mu.Unlock()

	var (
		outcome *domain.DownloadOutcome
		result  *domain.BulkResult
	)
	switch job.Type {
	case JobTypeSingle:
		o := jm.runner.DownloadAsset(ctx, domain.AssetRequest{
			AssetID:    job.AssetID,
			AuthCookie: job.cookie,
			PlaceID:    job.PlaceID,
		})
		outcome = &o
	case JobTypeBulk:
		r := jm.runner.RunBulk(ctx, job.AssetIDs, job.cookie, job.PlaceIDs)
		result = &r
	}

	jm.mu.Lock()
	completed := time.Now()
	job.Status = JobCompleted
	job.CompletedAt = &completed
	job.Outcome = outcome
	job.Result = result
	jm.pending--
	jm.metrics.SetJobsInProgress(jm.pending)
	jm.mu.Unlock()
	close(job.done)

	jm.logger.Info("Job completed",
		zap.String("id", job.ID),
		zap.Duration("duration", completed.Sub(started)))
}

// snapshot copies the job for callers outside the lock
func (j *Job) snapshot() *Job {
	c := *j
	c.AssetIDs = append([]string(nil), j.AssetIDs...)
	c.PlaceIDs = append([]string(nil), j.PlaceIDs...)
	if j.Outcome != nil {
		o := *j.Outcome
		c.Outcome = &o
	}
	if j.Result != nil {
		r := *j.Result
		c.Result = &r
	}
	return &c
}
