package postgres

import (
	"context"
	"errors"
	"fmt"

	"kind-match/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

var (
	conversationColumns = []string{"id", "employer_id", "worker_id", "match_id", "last_message_id", "last_message_at", "status", "created_at"}
	messageColumns      = []string{"id", "conversation_id", "sender_id", "content", "type", "status", "created_at"}
)

// FindConversationByPair matches (a, b) and (b, a).
func (s *Store) FindConversationByPair(ctx context.Context, a, b int64) (*models.Conversation, error) {
	var conv models.Conversation

	err := s.sess.
		Select(conversationColumns...).
		From("conversations").
		Where("(employer_id = ? AND worker_id = ?) OR (employer_id = ? AND worker_id = ?)", a, b, b, a).
		OrderAsc("created_at").
		Limit(1).
		LoadOneContext(ctx, &conv)
	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to find conversation",
			zap.Int64("user_a", a),
			zap.Int64("user_b", b),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	return &conv, nil
}

// InsertConversation relies on the unique (LEAST, GREATEST) pair index.
func (s *Store) InsertConversation(ctx context.Context, c *models.Conversation) (bool, error) {
	res, err := s.sess.
		InsertBySql(`
			INSERT INTO conversations (id, employer_id, worker_id, match_id, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, c.ID, c.EmployerID, c.WorkerID, c.MatchID, c.Status, c.CreatedAt).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to insert conversation",
			zap.Int64("employer_id", c.EmployerID),
			zap.Int64("worker_id", c.WorkerID),
			zap.Error(err),
		)
		return false, fmt.Errorf("insert conversation: %w", err)
	}
	return rowsChanged(res)
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation

	err := s.sess.
		Select(conversationColumns...).
		From("conversations").
		Where("id = ?", id).
		LoadOneContext(ctx, &conv)
	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to get conversation",
			zap.String("conversation_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	return &conv, nil
}

func (s *Store) ListConversationsForUser(ctx context.Context, userID int64) ([]models.Conversation, error) {
	convs := []models.Conversation{}

	_, err := s.sess.
		SelectBySql(`
			SELECT id, employer_id, worker_id, match_id, last_message_id, last_message_at, status, created_at
			FROM conversations
			WHERE employer_id = ? OR worker_id = ?
			ORDER BY COALESCE(last_message_at, created_at) DESC
		`, userID, userID).
		LoadContext(ctx, &convs)
	if err != nil {
		s.logger.Error("failed to list conversations",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	return convs, nil
}

// AppendMessage inserts the message and moves the conversation pointer in
// one transaction.
func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	_, err = tx.
		InsertInto("messages").
		Columns(messageColumns...).
		Record(msg).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to insert message",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
		return fmt.Errorf("insert message: %w", err)
	}

	res, err := tx.
		Update("conversations").
		Set("last_message_id", msg.ID).
		Set("last_message_at", msg.CreatedAt).
		Where("id = ?", msg.ConversationID).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to update conversation pointer",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
		return fmt.Errorf("update conversation: %w", err)
	}
	updated, err := rowsChanged(res)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("conversation %s: %w", msg.ConversationID, models.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	msgs := []models.Message{}

	_, err := s.sess.
		Select(messageColumns...).
		From("messages").
		Where("conversation_id = ?", conversationID).
		OrderDesc("created_at").
		OrderDesc("id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		LoadContext(ctx, &msgs)
	if err != nil {
		s.logger.Error("failed to list messages",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return msgs, nil
}

func (s *Store) MarkMessagesRead(ctx context.Context, conversationID string, readerID int64) (int64, error) {
	res, err := s.sess.
		Update("messages").
		Set("status", models.MessageRead).
		Where("conversation_id = ? AND sender_id <> ? AND status <> ?", conversationID, readerID, models.MessageRead).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to mark messages read",
			zap.String("conversation_id", conversationID),
			zap.Int64("reader_id", readerID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("mark messages read: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// DeleteConversation removes the messages and then the conversation; either
// both go or neither does.
func (s *Store) DeleteConversation(ctx context.Context, id string) (bool, error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	if _, err := tx.DeleteFrom("messages").Where("conversation_id = ?", id).ExecContext(ctx); err != nil {
		s.logger.Error("failed to delete messages",
			zap.String("conversation_id", id),
			zap.Error(err),
		)
		return false, fmt.Errorf("delete messages: %w", err)
	}

	res, err := tx.DeleteFrom("conversations").Where("id = ?", id).ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to delete conversation",
			zap.String("conversation_id", id),
			zap.Error(err),
		)
		return false, fmt.Errorf("delete conversation: %w", err)
	}
	deleted, err := rowsChanged(res)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}

	s.logger.Info("conversation deleted", zap.String("conversation_id", id))
	return true, nil
}
