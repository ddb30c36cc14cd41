package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kind-match/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

var applicationColumns = []string{"id", "listing_id", "worker_id", "status", "message", "applied_at", "updated_at"}

// InsertApplication relies on UNIQUE (listing_id, worker_id).
func (s *Store) InsertApplication(ctx context.Context, app *models.Application) (bool, error) {
	res, err := s.sess.
		InsertBySql(`
			INSERT INTO applications (id, listing_id, worker_id, status, message, applied_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (listing_id, worker_id) DO NOTHING
		`, app.ID, app.ListingID, app.WorkerID, app.Status, app.Message, app.AppliedAt, app.UpdatedAt).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to insert application",
			zap.String("listing_id", app.ListingID),
			zap.Int64("worker_id", app.WorkerID),
			zap.Error(err),
		)
		return false, fmt.Errorf("insert application: %w", err)
	}
	return rowsChanged(res)
}

func (s *Store) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application

	err := s.sess.
		Select(applicationColumns...).
		From("applications").
		Where("id = ?", id).
		LoadOneContext(ctx, &app)
	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to get application",
			zap.String("application_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get application: %w", err)
	}

	return &app, nil
}

// TransitionApplication is a compare-and-set on status.
func (s *Store) TransitionApplication(ctx context.Context, id string, from, to models.ApplicationStatus, at time.Time) (bool, error) {
	res, err := s.sess.
		Update("applications").
		Set("status", to).
		Set("updated_at", at).
		Where("id = ? AND status = ?", id, from).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to transition application",
			zap.String("application_id", id),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return false, fmt.Errorf("transition application: %w", err)
	}
	return rowsChanged(res)
}

func (s *Store) ListPendingApplications(ctx context.Context, listingIDs []string) ([]models.Application, error) {
	apps := []models.Application{}
	if len(listingIDs) == 0 {
		return apps, nil
	}

	_, err := s.sess.
		Select(applicationColumns...).
		From("applications").
		Where("status = ?", models.ApplicationPending).
		Where("listing_id IN ?", listingIDs).
		OrderDesc("applied_at").
		LoadContext(ctx, &apps)
	if err != nil {
		s.logger.Error("failed to list pending applications",
			zap.Strings("listing_ids", listingIDs),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list pending applications: %w", err)
	}

	return apps, nil
}

// ListApprovedWithoutMatch finds approvals whose match was never created.
func (s *Store) ListApprovedWithoutMatch(ctx context.Context, approvedBefore time.Time, limit int) ([]models.Application, error) {
	var apps []models.Application

	_, err := s.sess.
		SelectBySql(`
			SELECT a.id, a.listing_id, a.worker_id, a.status, a.message, a.applied_at, a.updated_at
			FROM applications a
			WHERE a.status = ?
			AND a.updated_at < ?
			AND NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE m.listing_id = a.listing_id AND m.worker_id = a.worker_id
			)
			ORDER BY a.updated_at
			LIMIT ?
		`, models.ApplicationApproved, approvedBefore, limit).
		LoadContext(ctx, &apps)
	if err != nil {
		s.logger.Error("failed to list approved applications without match", zap.Error(err))
		return nil, fmt.Errorf("list approved without match: %w", err)
	}

	return apps, nil
}
