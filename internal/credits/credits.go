// Package credits is the consumable-action gate in front of swipes.
package credits

import (
	"context"
	"fmt"

	"kind-match/internal/models"

	"go.uber.org/zap"
)

// Unlimited is the balance sentinel for plans without a swipe cap. Balances at
// or above it are never decremented.
const Unlimited = 999_999

// Ledger is the storage side of the gate. ConsumeCredit and RefundCredit must
// be single conditional statements so concurrent calls cannot race.
type Ledger interface {
	// GetCredits returns nil when the user does not exist.
	GetCredits(ctx context.Context, userID int64) (*int, error)
	// ConsumeCredit decrements a positive, limited balance by one. ok is false
	// when the balance was zero; nothing changes in that case.
	ConsumeCredit(ctx context.Context, userID int64, unlimited int) (remaining int, ok bool, err error)
	RefundCredit(ctx context.Context, userID int64, unlimited int) error
	SetCredits(ctx context.Context, userID int64, value int) (bool, error)
}

type Status struct {
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
	CanAct    bool `json:"canAct"`
}

type ConsumeResult struct {
	OK        bool `json:"ok"`
	Remaining int  `json:"remaining"`
}

type Gate struct {
	ledger Ledger
	limit  int
	logger *zap.Logger
}

// New returns a gate; limit is the allowance a plan renewal grants and is
// only reported, never enforced.
func New(ledger Ledger, limit int, logger *zap.Logger) *Gate {
	return &Gate{ledger: ledger, limit: limit, logger: logger}
}

func (g *Gate) Status(ctx context.Context, userID int64) (Status, error) {
	balance, err := g.ledger.GetCredits(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("get credits: %w", err)
	}
	if balance == nil {
		return Status{}, models.NotFound("user", userID)
	}

	if *balance >= Unlimited {
		return Status{Remaining: Unlimited, Limit: Unlimited, CanAct: true}, nil
	}

	remaining := *balance
	if remaining < 0 {
		remaining = 0
	}
	return Status{Remaining: remaining, Limit: g.limit, CanAct: remaining > 0}, nil
}

// Consume spends one credit. It fails with ErrInsufficientCredits when the
// balance is exhausted.
func (g *Gate) Consume(ctx context.Context, userID int64) (ConsumeResult, error) {
	remaining, ok, err := g.ledger.ConsumeCredit(ctx, userID, Unlimited)
	if err != nil {
		return ConsumeResult{}, fmt.Errorf("consume credit: %w", err)
	}

	if !ok {
		balance, err := g.ledger.GetCredits(ctx, userID)
		if err != nil {
			return ConsumeResult{}, fmt.Errorf("get credits: %w", err)
		}
		if balance == nil {
			return ConsumeResult{}, models.NotFound("user", userID)
		}

		g.logger.Info("credit gate closed", zap.Int64("user_id", userID))
		return ConsumeResult{OK: false, Remaining: 0}, models.ErrInsufficientCredits
	}

	if remaining >= Unlimited {
		remaining = Unlimited
	}

	g.logger.Debug("credit consumed",
		zap.Int64("user_id", userID),
		zap.Int("remaining", remaining),
	)

	return ConsumeResult{OK: true, Remaining: remaining}, nil
}

// Refund gives back one credit. It is the compensating step for a consume
// that did not lead to a recorded swipe.
func (g *Gate) Refund(ctx context.Context, userID int64) error {
	if err := g.ledger.RefundCredit(ctx, userID, Unlimited); err != nil {
		g.logger.Error("failed to refund credit", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("refund credit: %w", err)
	}

	g.logger.Info("credit refunded", zap.Int64("user_id", userID))
	return nil
}

// Grant overwrites the balance, e.g. on plan renewal.
func (g *Gate) Grant(ctx context.Context, userID int64, value int) error {
	if value < 0 {
		return models.Validation("credit balance must not be negative")
	}

	found, err := g.ledger.SetCredits(ctx, userID, value)
	if err != nil {
		return fmt.Errorf("set credits: %w", err)
	}
	if !found {
		return models.NotFound("user", userID)
	}

	g.logger.Info("credits granted", zap.Int64("user_id", userID), zap.Int("balance", value))
	return nil
}
