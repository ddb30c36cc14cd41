// Package queue runs fire-and-forget background tasks on redis.
package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// ErrSkipRetry tells the server a task can never succeed.
var ErrSkipRetry = asynq.SkipRetry

// Task is a background job with an opaque payload.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes a Task. A non-nil error schedules a retry; handlers must
// be idempotent.
type Handler func(ctx context.Context, task Task) error

// EnqueueOption zero values mean unspecified.
type EnqueueOption struct {
	Queue     string
	ProcessIn time.Duration
	MaxRetry  int
	Timeout   time.Duration
	Retention time.Duration
}

type Client interface {
	Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (id string, err error)
	Close() error
}

// Server blocks in Run until ctx is canceled.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
}
