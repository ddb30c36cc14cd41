package postgres

import (
	"context"
	"errors"
	"fmt"

	"kind-match/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

func (s *Store) HasInteraction(ctx context.Context, userID int64, listingID string) (bool, error) {
	var exists bool

	err := s.sess.
		SelectBySql(`SELECT EXISTS (SELECT 1 FROM interactions WHERE user_id = ? AND listing_id = ?)`, userID, listingID).
		LoadOneContext(ctx, &exists)
	if err != nil {
		s.logger.Error("failed to check interaction",
			zap.Int64("user_id", userID),
			zap.String("listing_id", listingID),
			zap.Error(err),
		)
		return false, fmt.Errorf("has interaction: %w", err)
	}

	return exists, nil
}

// InsertInteraction relies on UNIQUE (user_id, listing_id); a duplicate
// reports false.
func (s *Store) InsertInteraction(ctx context.Context, i *models.Interaction) (bool, error) {
	res, err := s.sess.
		InsertBySql(`
			INSERT INTO interactions (id, user_id, listing_id, action, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (user_id, listing_id) DO NOTHING
		`, i.ID, i.UserID, i.ListingID, i.Action, i.CreatedAt).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to insert interaction",
			zap.Int64("user_id", i.UserID),
			zap.String("listing_id", i.ListingID),
			zap.Error(err),
		)
		return false, fmt.Errorf("insert interaction: %w", err)
	}
	return rowsChanged(res)
}

// DeleteMostRecentInteraction deletes the user's newest row in one statement.
func (s *Store) DeleteMostRecentInteraction(ctx context.Context, userID int64) (*models.Interaction, error) {
	var deleted models.Interaction

	err := s.sess.
		SelectBySql(`
			DELETE FROM interactions
			WHERE id = (
				SELECT id FROM interactions
				WHERE user_id = ?
				ORDER BY created_at DESC, id DESC
				LIMIT 1
				FOR UPDATE
			)
			RETURNING id, user_id, listing_id, action, created_at
		`, userID).
		LoadOneContext(ctx, &deleted)
	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to delete latest interaction",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("delete latest interaction: %w", err)
	}

	return &deleted, nil
}

func (s *Store) DeleteInteraction(ctx context.Context, interactionID string) (bool, error) {
	res, err := s.sess.
		DeleteFrom("interactions").
		Where("id = ?", interactionID).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to delete interaction",
			zap.String("interaction_id", interactionID),
			zap.Error(err),
		)
		return false, fmt.Errorf("delete interaction: %w", err)
	}
	return rowsChanged(res)
}

func (s *Store) ListInteractedListingIDs(ctx context.Context, userID int64) ([]string, error) {
	var ids []string

	_, err := s.sess.
		Select("listing_id").
		From("interactions").
		Where("user_id = ?", userID).
		LoadContext(ctx, &ids)
	if err != nil {
		s.logger.Error("failed to list interactions",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list interactions: %w", err)
	}

	return ids, nil
}
