// Package conversations keeps one messaging thread per pair of users.
package conversations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kind-match/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxContentLength = 4000
	defaultPageSize  = 50
	maxPageSize      = 200
)

// Repository relies on a unique (LEAST(a, b), GREATEST(a, b)) index on the
// participant pair. AppendMessage and DeleteConversation run in one
// transaction each.
type Repository interface {
	// FindConversationByPair matches the pair in either column order.
	FindConversationByPair(ctx context.Context, a, b int64) (*models.Conversation, error)
	// InsertConversation reports false when the pair already has a thread.
	InsertConversation(ctx context.Context, conv *models.Conversation) (bool, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversationsForUser(ctx context.Context, userID int64) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID string, readerID int64) (int64, error)
	// DeleteConversation removes the messages and the conversation together.
	DeleteConversation(ctx context.Context, id string) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, event models.Event)
}

type Broker struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
	logger   *zap.Logger
}

func New(repo Repository, notifier Notifier, logger *zap.Logger) *Broker {
	return &Broker{repo: repo, notifier: notifier, now: time.Now, logger: logger}
}

// FindOrCreate returns the pair's conversation, creating it when none exists
// in either order. matchID is only stored on a new conversation.
func (b *Broker) FindOrCreate(ctx context.Context, employerID, workerID int64, matchID *string) (*models.Conversation, error) {
	if employerID == workerID {
		return nil, models.Validation("conversation needs two different users")
	}

	existing, err := b.repo.FindConversationByPair(ctx, employerID, workerID)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	conv := &models.Conversation{
		ID:         uuid.NewString(),
		EmployerID: employerID,
		WorkerID:   workerID,
		MatchID:    matchID,
		Status:     models.ConversationActive,
		CreatedAt:  b.now().UTC(),
	}

	inserted, err := b.repo.InsertConversation(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	if !inserted {
		existing, err := b.repo.FindConversationByPair(ctx, employerID, workerID)
		if err != nil {
			return nil, fmt.Errorf("find conversation: %w", err)
		}
		if existing == nil {
			return nil, fmt.Errorf("conversation for %d and %d vanished after conflict", employerID, workerID)
		}
		return existing, nil
	}

	b.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.Int64("employer_id", employerID),
		zap.Int64("worker_id", workerID),
	)
	return conv, nil
}

func (b *Broker) Get(ctx context.Context, conversationID string) (*models.Conversation, error) {
	conv, err := b.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, models.NotFound("conversation", conversationID)
	}
	return conv, nil
}

// GetForParticipant hides conversations userID is not part of.
func (b *Broker) GetForParticipant(ctx context.Context, conversationID string, userID int64) (*models.Conversation, error) {
	conv, err := b.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, models.NotFound("conversation", conversationID)
	}
	return conv, nil
}

// ListForUser returns userID's conversations, most recently active first.
func (b *Broker) ListForUser(ctx context.Context, userID int64) ([]models.Conversation, error) {
	convs, err := b.repo.ListConversationsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// SendMessage stores the message and moves the conversation's last-message
// pointer in the same transaction, then notifies the other participant.
func (b *Broker) SendMessage(ctx context.Context, conversationID string, senderID int64, content string, msgType models.MessageType) (*models.Message, error) {
	if msgType == "" {
		msgType = models.MessageText
	}
	if !msgType.Valid() {
		return nil, models.Validation("unknown message type %q", msgType)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.Validation("message content is empty")
	}
	if len([]rune(content)) > maxContentLength {
		return nil, models.Validation("message longer than %d characters", maxContentLength)
	}

	conv, err := b.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, models.Validation("user %d is not part of conversation %s", senderID, conversationID)
	}
	if conv.Status != models.ConversationActive {
		return nil, models.Validation("conversation %s is %s", conversationID, conv.Status)
	}

	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Type:           msgType,
		Status:         models.MessageSent,
		CreatedAt:      b.now().UTC(),
	}

	if err := b.repo.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	b.logger.Debug("message sent",
		zap.String("conversation_id", conversationID),
		zap.String("message_id", msg.ID),
		zap.Int64("sender_id", senderID),
	)

	b.notifier.Notify(ctx, conv.Other(senderID), models.Event{
		Type:           models.EventNewMessage,
		ConversationID: conversationID,
		Text:           preview(content),
	})

	return msg, nil
}

// ListMessages pages through a conversation newest first.
func (b *Broker) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := b.Get(ctx, conversationID); err != nil {
		return nil, err
	}

	msgs, err := b.repo.ListMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// MarkRead marks every message the counterpart sent to readerID as read.
func (b *Broker) MarkRead(ctx context.Context, conversationID string, readerID int64) (int64, error) {
	if _, err := b.GetForParticipant(ctx, conversationID, readerID); err != nil {
		return 0, err
	}

	n, err := b.repo.MarkMessagesRead(ctx, conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return n, nil
}

func (b *Broker) DeleteConversation(ctx context.Context, conversationID string) error {
	deleted, err := b.repo.DeleteConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if !deleted {
		return models.NotFound("conversation", conversationID)
	}

	b.logger.Info("conversation deleted", zap.String("conversation_id", conversationID))
	return nil
}

func preview(content string) string {
	const previewLen = 80
	r := []rune(content)
	if len(r) <= previewLen {
		return content
	}
	return string(r[:previewLen]) + "…"
}
