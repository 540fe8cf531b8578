package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/internal/entity"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one quiz generation request.
type Job struct {
	ID          uuid.UUID
	Label       string // path or URL, for logs and summaries
	Source      entity.DocumentSource
	Config      entity.QuizConfig
	SubmittedAt time.Time
	TraceID     string
}

// Result is the outcome of one Job. Exactly one of Run or Err is meaningful.
type Result struct {
	Job     Job
	Run     entity.RunResult
	Err     error
	Worker  int
	Elapsed time.Duration
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Results() <-chan Result
	Shutdown(ctx context.Context)
}
