package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrQueueStopped is returned by Enqueue before Start and after Stop.
	ErrQueueStopped = errors.New("queue is not running")
	// ErrQueueFull is returned when the buffer has no room. Callers decide
	// whether to run the job themselves.
	ErrQueueFull = errors.New("queue is full")
)

// flushTimeout bounds the handler calls made while stopping.
const flushTimeout = 5 * time.Second

// Job is one unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig sizes the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is the wait before the first retry; it doubles per attempt.
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue runs jobs on a fixed pool of goroutines. Enqueue never blocks.
// Failed jobs are retried with exponential backoff. On Stop, buffered jobs
// and jobs waiting for a retry get one last handler call.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	log     *zap.SugaredLogger

	jobs chan Job

	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool

	workers sync.WaitGroup
	retries sync.WaitGroup
	pending chan Job
}

// NewQueue builds a stopped queue.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		log:     cfg.Logger.Sugar().With("queue", name),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Calling it on a running queue does nothing.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.pending = make(chan Job, q.cfg.BufferSize)
	q.running = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.workers.Add(1)
		go q.work()
	}
	q.log.Infow("queue started", "workers", q.cfg.Workers, "buffer", q.cfg.BufferSize)
}

// Stop cancels the workers, waits for them and flushes what is left.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.workers.Wait()
	q.retries.Wait()
	close(q.pending)
	flushed := q.flush()
	q.log.Infow("queue stopped", "flushed", flushed)
}

// Len reports how many jobs wait in the buffer.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Enqueue adds a job without waiting for buffer space.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return ErrQueueStopped
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *Queue) work() {
	defer q.workers.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.handler(q.ctx, job); err != nil {
				q.retry(job, err)
			}
		}
	}
}

// backoff returns the wait before retry number attempt (1-based).
func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

func (q *Queue) retry(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.log.Errorw("job exceeded retries", "job_id", job.ID, "type", job.Type, "attempts", job.Attempt, "error", err)
		return
	}
	delay := q.backoff(job.Attempt)
	q.log.Warnw("job failed, retrying", "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "delay", delay, "error", err)

	q.retries.Add(1)
	go func() {
		defer q.retries.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			if err := q.Enqueue(job); err == nil {
				return
			}
		case <-q.ctx.Done():
		}
		// stopping or full: hand the job to the final flush
		select {
		case q.pending <- job:
		default:
			q.log.Errorw("job dropped", "job_id", job.ID, "type", job.Type)
		}
	}()
}

func (q *Queue) flush() int {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	count := 0
	run := func(job Job) {
		count++
		if err := q.handler(ctx, job); err != nil {
			q.log.Errorw("job failed on shutdown", "job_id", job.ID, "type", job.Type, "error", err)
		}
	}
drain:
	for {
		select {
		case job := <-q.jobs:
			run(job)
		default:
			break drain
		}
	}
	for job := range q.pending {
		run(job)
	}
	return count
}
