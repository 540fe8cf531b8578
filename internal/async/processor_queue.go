package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
)

// Runner runs one pipeline; *pipeline.Processor satisfies it.
type Runner interface {
	RunWithResult(ctx context.Context, src entity.DocumentSource, cfg entity.QuizConfig, onProgress pipeline.ProgressFunc) (entity.RunResult, error)
}

// ProcessorQueue runs jobs on a fixed pool of workers. Each job is its own
// serial pipeline run; results arrive on Results() in completion order.
type ProcessorQueue struct {
	proc    Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch      chan Job
	results chan Result
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
			q.results = make(chan Result, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewProcessorQueue starts the workers. Callers must drain Results() until it
// is closed by Shutdown, otherwise workers block once the buffer fills.
func NewProcessorQueue(proc Runner, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 2,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 64),
		results: make(chan Result, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.results <- q.process(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) process(workerID int, job Job) Result {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}

	run, err := q.proc.RunWithResult(ctx, job.Source, job.Config, nil)
	res := Result{Job: job, Run: run, Err: err, Worker: workerID, Elapsed: time.Since(start)}
	if err != nil {
		q.logger.Error("quiz generation failed", "worker_id", workerID, "job_id", job.ID, "label", job.Label, "kind", common.KindOf(err), "error", err)
	} else {
		q.logger.Info("quiz generated", "worker_id", workerID, "job_id", job.ID, "label", job.Label, "questions", len(run.Questions))
	}
	return res
}

func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if job.TraceID == "" {
		job.TraceID = job.ID.String()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "label", job.Label)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued document for quiz generation", "job_id", job.ID, "label", job.Label)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "label", job.Label)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Results() <-chan Result {
	return q.results
}

// Shutdown stops intake, waits for queued jobs to finish (or ctx to end) and
// closes Results() once every worker has exited.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.wg.Wait()
		close(q.results)
	}()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
