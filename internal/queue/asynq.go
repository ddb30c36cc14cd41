package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOptions addresses the redis instance backing the queue.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func (o RedisOptions) connOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: o.Addr, Password: o.Password, DB: o.DB}
}

// AsynqClient implements Client.
type AsynqClient struct {
	client *asynq.Client
}

var _ Client = (*AsynqClient)(nil)

func NewClient(opts RedisOptions) *AsynqClient {
	return &AsynqClient{client: asynq.NewClient(opts.connOpt())}
}

func (a *AsynqClient) Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (string, error) {
	if t.Type == "" {
		return "", errors.New("asynq: task type is required")
	}

	info, err := a.client.EnqueueContext(ctx, asynq.NewTask(t.Type, t.Payload), asynqOptions(opts)...)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", t.Type, err)
	}
	return info.ID, nil
}

func (a *AsynqClient) Close() error {
	return a.client.Close()
}

func asynqOptions(opts []EnqueueOption) []asynq.Option {
	var out []asynq.Option
	for _, op := range opts {
		if op.Queue != "" {
			out = append(out, asynq.Queue(op.Queue))
		}
		if op.ProcessIn > 0 {
			out = append(out, asynq.ProcessIn(op.ProcessIn))
		}
		if op.MaxRetry > 0 {
			out = append(out, asynq.MaxRetry(op.MaxRetry))
		}
		if op.Timeout > 0 {
			out = append(out, asynq.Timeout(op.Timeout))
		}
		if op.Retention > 0 {
			out = append(out, asynq.Retention(op.Retention))
		}
	}
	return out
}

// AsynqServer implements Server.
type AsynqServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

var _ Server = (*AsynqServer)(nil)

// NewServer consumes queues with the given weights, e.g. {"notifications": 1}.
func NewServer(opts RedisOptions, concurrency int, queues map[string]int, logger *zap.Logger) *AsynqServer {
	srv := asynq.NewServer(opts.connOpt(), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		Logger:      logger.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Warn("task failed",
				zap.String("type", task.Type()),
				zap.Error(err),
			)
		}),
	})

	return &AsynqServer{server: srv, mux: asynq.NewServeMux(), logger: logger}
}

func (s *AsynqServer) Register(taskType string, h Handler) {
	s.mux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
		return h(ctx, Task{Type: t.Type(), Payload: t.Payload()})
	})
}

func (s *AsynqServer) Run(ctx context.Context) error {
	if err := s.server.Start(s.mux); err != nil {
		return fmt.Errorf("start queue server: %w", err)
	}
	s.logger.Info("queue server started")

	<-ctx.Done()

	s.server.Shutdown()
	s.logger.Info("queue server stopped")
	return nil
}
