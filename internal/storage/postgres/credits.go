package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

func (s *Store) GetCredits(ctx context.Context, userID int64) (*int, error) {
	var credits int

	err := s.sess.
		Select("credits").
		From("users").
		Where("id = ?", userID).
		LoadOneContext(ctx, &credits)
	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to get credits",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get credits: %w", err)
	}

	return &credits, nil
}

// ConsumeCredit decrements in a single conditional statement so concurrent
// swipes cannot push the balance below zero. Balances at or above unlimited
// are returned unchanged.
func (s *Store) ConsumeCredit(ctx context.Context, userID int64, unlimited int) (int, bool, error) {
	var remaining int

	err := s.sess.
		SelectBySql(`
			UPDATE users
			SET credits = CASE WHEN credits >= ? THEN credits ELSE credits - 1 END
			WHERE id = ? AND credits > 0
			RETURNING credits
		`, unlimited, userID).
		LoadOneContext(ctx, &remaining)
	if errors.Is(err, dbr.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		s.logger.Error("failed to consume credit",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return 0, false, fmt.Errorf("consume credit: %w", err)
	}

	return remaining, true, nil
}

func (s *Store) RefundCredit(ctx context.Context, userID int64, unlimited int) error {
	_, err := s.sess.
		UpdateBySql(`UPDATE users SET credits = credits + 1 WHERE id = ? AND credits < ?`, userID, unlimited).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to refund credit",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("refund credit: %w", err)
	}
	return nil
}

func (s *Store) SetCredits(ctx context.Context, userID int64, value int) (bool, error) {
	res, err := s.sess.
		Update("users").
		Set("credits", value).
		Where("id = ?", userID).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to set credits",
			zap.Int64("user_id", userID),
			zap.Int("credits", value),
			zap.Error(err),
		)
		return false, fmt.Errorf("set credits: %w", err)
	}
	return rowsChanged(res)
}
