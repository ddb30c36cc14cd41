// Package notify delivers domain events to users without blocking the
// operation that raised them.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kind-match/internal/models"
	"kind-match/internal/queue"

	"go.uber.org/zap"
)

const (
	TaskType  = "notify:event"
	QueueName = "notifications"
)

type payload struct {
	UserID int64        `json:"userId"`
	Event  models.Event `json:"event"`
}

// Notifier is the fire-and-forget notification surface used by the services.
type Notifier interface {
	Notify(ctx context.Context, userID int64, event models.Event)
}

// LogNotifier only logs events. It is used when no delivery worker runs, so
// nothing is queued that would never be consumed.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, userID int64, event models.Event) {
	n.logger.Debug("notification not delivered",
		zap.Int64("user_id", userID),
		zap.String("event", string(event.Type)),
	)
}

// QueueNotifier enqueues events for the delivery worker. Enqueue failures are
// logged and dropped.
type QueueNotifier struct {
	client queue.Client
	logger *zap.Logger
}

func NewQueueNotifier(client queue.Client, logger *zap.Logger) *QueueNotifier {
	return &QueueNotifier{client: client, logger: logger}
}

func (n *QueueNotifier) Notify(ctx context.Context, userID int64, event models.Event) {
	data, err := json.Marshal(payload{UserID: userID, Event: event})
	if err != nil {
		n.logger.Error("failed to encode notification", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	id, err := n.client.Enqueue(ctx, queue.Task{Type: TaskType, Payload: data}, queue.EnqueueOption{
		Queue:     QueueName,
		MaxRetry:  5,
		Timeout:   30 * time.Second,
		Retention: time.Hour,
	})
	if err != nil {
		n.logger.Warn("notification dropped",
			zap.Int64("user_id", userID),
			zap.String("event", string(event.Type)),
			zap.Error(err),
		)
		return
	}

	n.logger.Debug("notification queued",
		zap.String("task_id", id),
		zap.Int64("user_id", userID),
		zap.String("event", string(event.Type)),
	)
}

// Sender pushes a rendered text to a user, e.g. through the chat bot.
type Sender interface {
	Send(ctx context.Context, userID int64, text string) error
}

// RegisterDelivery binds the delivery handler to srv.
func RegisterDelivery(srv queue.Server, sender Sender, logger *zap.Logger) {
	srv.Register(TaskType, Deliver(sender, logger))
}

// Deliver decodes a notification task and sends it. Malformed payloads are
// not retried.
func Deliver(sender Sender, logger *zap.Logger) queue.Handler {
	return func(ctx context.Context, t queue.Task) error {
		var p payload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			logger.Error("malformed notification", zap.Error(err))
			return fmt.Errorf("decode notification: %v: %w", err, queue.ErrSkipRetry)
		}
		if p.UserID == 0 {
			return fmt.Errorf("notification without recipient: %w", queue.ErrSkipRetry)
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := sender.Send(ctx, p.UserID, Render(p.Event)); err != nil {
			return fmt.Errorf("send notification to %d: %w", p.UserID, err)
		}
		return nil
	}
}

// Render turns an event into the text shown to the recipient.
func Render(e models.Event) string {
	switch e.Type {
	case models.EventNewApplication:
		return "📥 New application for your listing. Open /pending to review it."
	case models.EventApplicationApproved:
		return "🎉 Your application was approved! Open /matches to start talking."
	case models.EventMatchCreated:
		return "🤝 You have a new match. See /matches."
	case models.EventNewMessage:
		if e.Text != "" {
			return "💬 New message: " + e.Text
		}
		return "💬 You have a new message."
	default:
		if e.Text != "" {
			return e.Text
		}
		return "You have a new notification."
	}
}
