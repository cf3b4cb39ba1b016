package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/propmodel/challenge-admin/internal/pkg/cache"
	"github.com/propmodel/challenge-admin/internal/pkg/metrics"
)

const (
	// Redis key prefixes
	JobKeyPrefix     = "job:"
	JobQueueKey      = "job_queue"
	JobProcessingKey = "job_processing"
	JobDelayedKey    = "job_delayed"
	JobStatsKey      = "job_stats"

	// Job settings
	DefaultMaxRetries = 3
	RetryBaseDelay    = 5 * time.Second
	JobTTL            = 24 * time.Hour // Finished jobs expire after 24 hours

	defaultPromoteInterval = time.Second
	promoteBatchSize       = 100
)

// promoteScript moves due ids from the delayed set to the pending list. It
// runs atomically, so concurrent promoters never push the same id twice.
var promoteScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
for _, id in ipairs(ids) do
	redis.call('ZREM', KEYS[1], id)
	redis.call('LPUSH', KEYS[2], id)
end
return #ids
`)

// Handler processes one job. A returned error schedules a retry until the
// job runs out of attempts.
type Handler func(ctx context.Context, job *Job) error

// Queue manages background jobs using Redis
type Queue struct {
	client          *redis.Client
	workers         int
	handlers        map[JobType]Handler
	promoteInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
	mu              sync.Mutex
	running         bool
}

// NewQueue creates a new job queue. A nil client uses the shared cache client.
func NewQueue(client *redis.Client, workers int) *Queue {
	if workers <= 0 {
		workers = 3 // Default number of workers
	}
	if client == nil {
		client = cache.GetClient()
	}

	return &Queue{
		client:          client,
		workers:         workers,
		handlers:        make(map[JobType]Handler),
		promoteInterval: defaultPromoteInterval,
		stopCh:          make(chan struct{}),
	}
}

// Register installs the handler for a job type.
func (q *Queue) Register(jobType JobType, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

func (q *Queue) handler(jobType JobType) (Handler, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	h, ok := q.handlers[jobType]
	return h, ok
}

// Start starts the job queue workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.stopCh = make(chan struct{})
	q.running = true
	log.Infof("[JobQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	q.wg.Add(1)
	go q.promoter()

	// Start stuck-processing sweeper (recovers jobs stuck in processing due to crashes)
	q.wg.Add(1)
	go q.stuckSweeper(10*time.Minute, 1*time.Minute)
}

// Stop stops the job queue workers
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	log.Info("[JobQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.mu.Unlock()

	q.wg.Wait()
	log.Info("[JobQueue] All workers stopped")
}

// Schedule stores the job and makes it due after delay. Scheduling an id that
// already exists replaces its payload and due time.
func (q *Queue) Schedule(ctx context.Context, jobID string, jobType JobType, payload map[string]interface{}, delay time.Duration) (*Job, error) {
	if jobID == "" {
		jobID = uuid.New().String()
	}
	if delay < 0 {
		delay = 0
	}

	now := time.Now()
	job := &Job{
		ID:         jobID,
		Type:       jobType,
		Status:     JobStatusScheduled,
		Payload:    payload,
		RunAt:      now.Add(delay),
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: DefaultMaxRetries,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, jobData, delay+JobTTL)
	pipe.LRem(ctx, JobQueueKey, 0, job.ID)
	pipe.ZAdd(ctx, JobDelayedKey, redis.Z{Score: float64(job.RunAt.UnixMilli()), Member: job.ID})
	pipe.HIncrBy(ctx, JobStatsKey, string(JobStatusScheduled), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to schedule job: %w", err)
	}

	log.Infof("[JobQueue] Scheduled job %s (Type: %s) for %s", job.ID, job.Type, job.RunAt.Format(time.RFC3339))
	return job, nil
}

// Cancel removes a job that has not started yet. It reports whether a
// scheduled or pending entry was removed.
func (q *Queue) Cancel(ctx context.Context, jobID string) (bool, error) {
	pipe := q.client.TxPipeline()
	zrem := pipe.ZRem(ctx, JobDelayedKey, jobID)
	lrem := pipe.LRem(ctx, JobQueueKey, 0, jobID)
	pipe.Del(ctx, JobKeyPrefix+jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to cancel job %s: %w", jobID, err)
	}

	removed := zrem.Val()+lrem.Val() > 0
	if removed {
		log.Infof("[JobQueue] Cancelled job %s", jobID)
	}
	return removed, nil
}

// Exists reports whether Redis still holds the job body.
func (q *Queue) Exists(ctx context.Context, jobID string) (bool, error) {
	n, err := q.client.Exists(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PromoteDue moves every job whose due time has passed onto the pending list.
func (q *Queue) PromoteDue(ctx context.Context) (int, error) {
	moved, err := promoteScript.Run(ctx, q.client,
		[]string{JobDelayedKey, JobQueueKey},
		time.Now().UnixMilli(), promoteBatchSize,
	).Int()
	if err != nil {
		return 0, err
	}
	if moved > 0 {
		log.Debugf("[JobQueue] Promoted %d due jobs", moved)
	}
	return moved, nil
}

func (q *Queue) promoter() {
	defer q.wg.Done()
	ticker := time.NewTicker(q.promoteInterval)
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			// Drain in batches so a backlog does not wait a full tick per batch.
			for {
				moved, err := q.PromoteDue(ctx)
				if err != nil {
					log.Errorf("[JobQueue] Promote error: %v", err)
					break
				}
				if moved < promoteBatchSize {
					break
				}
			}
		}
	}
}

// stuckSweeper periodically scans the processing list and requeues jobs stuck for longer than maxAge
func (q *Queue) stuckSweeper(maxAge time.Duration, interval time.Duration) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.recoverStuck(ctx, maxAge)
		}
	}
}

func (q *Queue) recoverStuck(ctx context.Context, maxAge time.Duration) {
	ids, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
	if err != nil {
		log.Errorf("[JobQueue] Sweeper LRange error: %v", err)
		return
	}

	now := time.Now()
	for _, id := range ids {
		job, err := q.GetJob(ctx, id)
		if err != nil {
			// Job data missing or corrupt; drop the processing entry
			if err != redis.Nil {
				log.Errorf("[JobQueue] Sweeper load error for %s: %v", id, err)
			}
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			continue
		}
		if job.Status != JobStatusProcessing {
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			continue
		}

		started := job.UpdatedAt
		if job.ProcessedAt != nil && !job.ProcessedAt.IsZero() {
			started = *job.ProcessedAt
		}
		if now.Sub(started) > maxAge {
			log.Warnf("[JobQueue] Recovering stuck job %s (type=%s), age=%s", job.ID, job.Type, now.Sub(started))
			job.Status = JobStatusPending
			job.ErrorMsg = "recovered by sweeper"
			job.UpdatedAt = now
			q.updateJob(ctx, job)
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			_ = q.client.RPush(ctx, JobQueueKey, id).Err()
		}
	}
}

// worker processes jobs from the queue
func (q *Queue) worker(id int) {
	defer q.wg.Done()
	log.Infof("[JobQueue] Worker %d started", id)

	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Infof("[JobQueue] Worker %d stopping", id)
			return
		default:
			job, err := q.dequeueJob(ctx)
			if err != nil {
				if err != redis.Nil {
					log.Errorf("[JobQueue] Worker %d: Error dequeuing job: %v", id, err)
					time.Sleep(time.Second)
				}
				continue
			}

			log.Infof("[JobQueue] Worker %d processing job %s (Type: %s)", id, job.ID, job.Type)
			q.processJob(ctx, job)
		}
	}
}

// dequeueJob gets the next job from the queue
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	// Move job from pending queue to processing queue atomically
	jobID, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, time.Second).Result()
	if err != nil {
		return nil, err
	}

	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		// Cancelled or corrupt job, remove from processing queue
		q.removeFromProcessing(ctx, jobID)
		return nil, fmt.Errorf("job data not usable for ID %s: %w", jobID, err)
	}
	return job, nil
}

// processJob processes a single job
func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	var err error
	if handler, ok := q.handler(job.Type); ok {
		err = handler(ctx, job)
	} else {
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		log.Errorf("[JobQueue] Job %s failed: %v", job.ID, err)
		job.MarkAsFailed(err.Error())

		if job.IsRetryable() {
			delay := job.RetryDelay()
			log.Infof("[JobQueue] Retrying job %s in %s (Attempt %d/%d)", job.ID, delay, job.RetryCount, job.MaxRetries)
			job.MarkAsRetrying()
			job.RunAt = time.Now().Add(delay)
			q.updateJob(ctx, job)
			if zerr := q.client.ZAdd(ctx, JobDelayedKey, redis.Z{Score: float64(job.RunAt.UnixMilli()), Member: job.ID}).Err(); zerr != nil {
				log.Errorf("[JobQueue] Failed to schedule retry for %s: %v", job.ID, zerr)
			}
			metrics.JobsProcessed.WithLabelValues(string(job.Type), string(JobStatusRetrying)).Inc()
		} else {
			log.Errorf("[JobQueue] Job %s permanently failed after %d attempts", job.ID, job.RetryCount)
			q.updateJob(ctx, job)
			q.updateJobStats(ctx, JobStatusFailed, 1)
			metrics.JobsProcessed.WithLabelValues(string(job.Type), string(JobStatusFailed)).Inc()
		}
	} else {
		log.Infof("[JobQueue] Job %s completed successfully", job.ID)
		job.MarkAsCompleted()
		q.updateJobStats(ctx, JobStatusCompleted, 1)
		metrics.JobsProcessed.WithLabelValues(string(job.Type), string(JobStatusCompleted)).Inc()
		// Remove completed job from Redis entirely
		q.removeCompletedJob(ctx, job.ID)
	}

	q.removeFromProcessing(ctx, job.ID)
}

// updateJob updates job data in Redis
func (q *Queue) updateJob(ctx context.Context, job *Job) {
	jobData, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] Failed to marshal job %s: %v", job.ID, err)
		return
	}

	jobKey := JobKeyPrefix + job.ID
	if err := q.client.Set(ctx, jobKey, jobData, JobTTL).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to update job %s: %v", job.ID, err)
	}
}

// removeFromProcessing removes a job from the processing queue
func (q *Queue) removeFromProcessing(ctx context.Context, jobID string) {
	if err := q.client.LRem(ctx, JobProcessingKey, 1, jobID).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to remove job %s from processing queue: %v", jobID, err)
	}
}

// removeCompletedJob completely removes a completed job from Redis
func (q *Queue) removeCompletedJob(ctx context.Context, jobID string) {
	if err := q.client.Del(ctx, JobKeyPrefix+jobID).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to remove completed job %s from Redis: %v", jobID, err)
	}
}

// updateJobStats updates job statistics
func (q *Queue) updateJobStats(ctx context.Context, status JobStatus, delta int64) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), delta).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to update job stats: %v", err)
	}
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// Stats summarizes queue depth for health reporting.
type Stats struct {
	Scheduled  int64 `json:"scheduled"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// GetStats returns queue depths and lifetime counters.
func (q *Queue) GetStats(ctx context.Context) (*Stats, error) {
	pipe := q.client.Pipeline()
	scheduled := pipe.ZCard(ctx, JobDelayedKey)
	pending := pipe.LLen(ctx, JobQueueKey)
	processing := pipe.LLen(ctx, JobProcessingKey)
	counters := pipe.HGetAll(ctx, JobStatsKey)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	stats := &Stats{
		Scheduled:  scheduled.Val(),
		Pending:    pending.Val(),
		Processing: processing.Val(),
	}
	for status, count := range counters.Val() {
		n, err := json.Number(count).Int64()
		if err != nil {
			continue
		}
		switch JobStatus(status) {
		case JobStatusCompleted:
			stats.Completed = n
		case JobStatusFailed:
			stats.Failed = n
		}
	}
	return stats, nil
}
