package postgres

import (
	"context"
	"errors"
	"fmt"

	"kind-match/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

var matchColumns = []string{"id", "listing_id", "employer_id", "worker_id", "matched_at", "employer_opened", "worker_opened"}

// InsertMatch relies on UNIQUE (listing_id, employer_id, worker_id).
func (s *Store) InsertMatch(ctx context.Context, m *models.Match) (bool, error) {
	res, err := s.sess.
		InsertBySql(`
			INSERT INTO matches (id, listing_id, employer_id, worker_id, matched_at, employer_opened, worker_opened)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (listing_id, employer_id, worker_id) DO NOTHING
		`, m.ID, m.ListingID, m.EmployerID, m.WorkerID, m.MatchedAt, m.EmployerOpened, m.WorkerOpened).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to insert match",
			zap.String("listing_id", m.ListingID),
			zap.Int64("employer_id", m.EmployerID),
			zap.Int64("worker_id", m.WorkerID),
			zap.Error(err),
		)
		return false, fmt.Errorf("insert match: %w", err)
	}
	return rowsChanged(res)
}

func (s *Store) FindMatch(ctx context.Context, listingID string, employerID, workerID int64) (*models.Match, error) {
	return s.loadMatch(ctx, "listing_id = ? AND employer_id = ? AND worker_id = ?", listingID, employerID, workerID)
}

func (s *Store) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	return s.loadMatch(ctx, "id = ?", matchID)
}

func (s *Store) loadMatch(ctx context.Context, where string, args ...interface{}) (*models.Match, error) {
	var m models.Match

	err := s.sess.
		Select(matchColumns...).
		From("matches").
		Where(where, args...).
		LoadOneContext(ctx, &m)
	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to load match", zap.Any("args", args), zap.Error(err))
		return nil, fmt.Errorf("load match: %w", err)
	}

	return &m, nil
}

// ListMatchesForUser can hide matches whose pair already has a conversation,
// in either participant order.
func (s *Store) ListMatchesForUser(ctx context.Context, userID int64, role models.Role, withoutConversation bool) ([]models.Match, error) {
	column := "worker_id"
	if role == models.RoleEmployer {
		column = "employer_id"
	}

	stmt := s.sess.
		Select(matchColumns...).
		From(dbr.I("matches").As("m")).
		Where("m."+column+" = ?", userID).
		OrderDesc("matched_at")

	if withoutConversation {
		stmt = stmt.Where(`NOT EXISTS (
			SELECT 1 FROM conversations c
			WHERE LEAST(c.employer_id, c.worker_id) = LEAST(m.employer_id, m.worker_id)
			AND GREATEST(c.employer_id, c.worker_id) = GREATEST(m.employer_id, m.worker_id)
		)`)
	}

	matches := []models.Match{}
	if _, err := stmt.LoadContext(ctx, &matches); err != nil {
		s.logger.Error("failed to list matches",
			zap.Int64("user_id", userID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list matches: %w", err)
	}

	return matches, nil
}

func (s *Store) SetMatchOpened(ctx context.Context, matchID string, role models.Role) (bool, error) {
	column := "worker_opened"
	if role == models.RoleEmployer {
		column = "employer_opened"
	}

	res, err := s.sess.
		Update("matches").
		Set(column, true).
		Where("id = ?", matchID).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to mark match opened",
			zap.String("match_id", matchID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
		return false, fmt.Errorf("set match opened: %w", err)
	}
	return rowsChanged(res)
}
