// Package applications runs the pending -> approved|rejected|skipped state
// machine for a worker's request against a listing.
package applications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kind-match/internal/matches"
	"kind-match/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository relies on a unique (listing_id, worker_id) constraint.
type Repository interface {
	// InsertApplication reports false when the worker already applied.
	InsertApplication(ctx context.Context, app *models.Application) (bool, error)
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	// TransitionApplication moves id from one status to another only if it is
	// currently in from. It reports whether a row changed.
	TransitionApplication(ctx context.Context, id string, from, to models.ApplicationStatus, at time.Time) (bool, error)
	ListPendingApplications(ctx context.Context, listingIDs []string) ([]models.Application, error)
	ListApprovedWithoutMatch(ctx context.Context, approvedBefore time.Time, limit int) ([]models.Application, error)
}

type ListingStore interface {
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	ListActiveByOwner(ctx context.Context, employerID int64) ([]*models.Listing, error)
}

type ProfileStore interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	GetWorkerProfile(ctx context.Context, userID int64) (*models.WorkerProfile, error)
	GetWorkHistory(ctx context.Context, userID int64) ([]models.WorkHistory, error)
}

type MatchCreator interface {
	CreateMatch(ctx context.Context, listingID string, employerID, workerID int64) (matches.CreateResult, error)
	// Find returns the match for the triple, or nil when there is none.
	Find(ctx context.Context, listingID string, employerID, workerID int64) (*models.Match, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, event models.Event)
}

type ApproveResult struct {
	ApplicationID string `json:"applicationId"`
	MatchID       string `json:"matchId"`
}

type Lifecycle struct {
	repo     Repository
	listings ListingStore
	profiles ProfileStore
	matches  MatchCreator
	notifier Notifier
	now      func() time.Time
	logger   *zap.Logger
}

func New(
	repo Repository,
	listings ListingStore,
	profiles ProfileStore,
	matchCreator MatchCreator,
	notifier Notifier,
	logger *zap.Logger,
) *Lifecycle {
	return &Lifecycle{
		repo:     repo,
		listings: listings,
		profiles: profiles,
		matches:  matchCreator,
		notifier: notifier,
		now:      time.Now,
		logger:   logger,
	}
}

// Apply creates a pending application. Any earlier application for the same
// (listing, worker), whatever its status, yields ErrAlreadyApplied.
func (l *Lifecycle) Apply(ctx context.Context, workerID int64, listingID string, message *string) (*models.Application, error) {
	worker, err := l.profiles.GetUser(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if worker == nil {
		return nil, models.NotFound("user", workerID)
	}
	if worker.Role != models.RoleWorker {
		return nil, models.Validation("only workers can apply")
	}

	listing, err := l.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if listing == nil {
		return nil, models.NotFound("listing", listingID)
	}

	now := l.now().UTC()
	if !listing.IsOpen(now) {
		return nil, models.Validation("listing %s is not accepting applications", listingID)
	}

	app := &models.Application{
		ID:        uuid.NewString(),
		ListingID: listingID,
		WorkerID:  workerID,
		Status:    models.ApplicationPending,
		Message:   message,
		AppliedAt: now,
		UpdatedAt: now,
	}

	inserted, err := l.repo.InsertApplication(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}
	if !inserted {
		return nil, models.ErrAlreadyApplied
	}

	l.logger.Info("application created",
		zap.String("application_id", app.ID),
		zap.String("listing_id", listingID),
		zap.Int64("worker_id", workerID),
	)

	l.notifier.Notify(ctx, listing.EmployerID, models.Event{
		Type:          models.EventNewApplication,
		ListingID:     listingID,
		ApplicationID: app.ID,
	})

	return app, nil
}

func (l *Lifecycle) Get(ctx context.Context, applicationID string) (*models.Application, error) {
	app, err := l.repo.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, models.NotFound("application", applicationID)
	}
	return app, nil
}

// AuthorizeEmployer returns the application when employerID owns its
// listing. Foreign applications look missing.
func (l *Lifecycle) AuthorizeEmployer(ctx context.Context, employerID int64, applicationID string) (*models.Application, error) {
	app, err := l.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	listing, err := l.listings.GetByID(ctx, app.ListingID)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if listing == nil || listing.EmployerID != employerID {
		return nil, models.NotFound("application", applicationID)
	}
	return app, nil
}

// Approve moves a pending application to approved and creates its match.
// When the match cannot be created the approval is rolled back to pending;
// if even that fails the reconciler repairs the approved-without-match row.
// Approving an already approved application only ensures the match exists.
func (l *Lifecycle) Approve(ctx context.Context, applicationID string) (ApproveResult, error) {
	app, err := l.Get(ctx, applicationID)
	if err != nil {
		return ApproveResult{}, err
	}

	listing, err := l.listings.GetByID(ctx, app.ListingID)
	if err != nil {
		return ApproveResult{}, fmt.Errorf("get listing: %w", err)
	}
	if listing == nil {
		return ApproveResult{}, models.NotFound("listing", app.ListingID)
	}

	switch app.Status {
	case models.ApplicationApproved:
		return l.ensureMatch(ctx, app, listing)
	case models.ApplicationPending:
	default:
		return ApproveResult{}, fmt.Errorf("approve %s application: %w", app.Status, models.ErrInvalidTransition)
	}

	moved, err := l.repo.TransitionApplication(ctx, app.ID, models.ApplicationPending, models.ApplicationApproved, l.now().UTC())
	if err != nil {
		return ApproveResult{}, fmt.Errorf("approve application: %w", err)
	}
	if !moved {
		current, err := l.Get(ctx, app.ID)
		if err != nil {
			return ApproveResult{}, err
		}
		if current.Status == models.ApplicationApproved {
			return l.ensureMatch(ctx, current, listing)
		}
		return ApproveResult{}, fmt.Errorf("approve %s application: %w", current.Status, models.ErrInvalidTransition)
	}

	res, err := l.matches.CreateMatch(ctx, listing.ID, listing.EmployerID, app.WorkerID)
	if err != nil {
		l.compensateApproval(ctx, app, listing, err)
		return ApproveResult{}, fmt.Errorf("create match: %w", err)
	}

	l.logger.Info("application approved",
		zap.String("application_id", app.ID),
		zap.String("match_id", res.Match.ID),
	)

	l.notifier.Notify(ctx, app.WorkerID, models.Event{
		Type:          models.EventApplicationApproved,
		ListingID:     listing.ID,
		ApplicationID: app.ID,
		MatchID:       res.Match.ID,
	})

	return ApproveResult{ApplicationID: app.ID, MatchID: res.Match.ID}, nil
}

func (l *Lifecycle) ensureMatch(ctx context.Context, app *models.Application, listing *models.Listing) (ApproveResult, error) {
	res, err := l.matches.CreateMatch(ctx, listing.ID, listing.EmployerID, app.WorkerID)
	if err != nil {
		return ApproveResult{}, fmt.Errorf("create match: %w", err)
	}
	return ApproveResult{ApplicationID: app.ID, MatchID: res.Match.ID}, nil
}

// compensateApproval reverts approved -> pending after a failed CreateMatch.
// A concurrent approve may have created the match meanwhile; then the
// application stays approved, or is approved again if the revert raced it.
func (l *Lifecycle) compensateApproval(ctx context.Context, app *models.Application, listing *models.Listing, cause error) {
	if l.matchExists(ctx, app, listing) {
		l.logger.Info("match created concurrently, approval kept",
			zap.String("application_id", app.ID),
			zap.NamedError("cause", cause),
		)
		return
	}

	reverted, err := l.repo.TransitionApplication(ctx, app.ID, models.ApplicationApproved, models.ApplicationPending, l.now().UTC())
	if err != nil || !reverted {
		l.logger.Error("application left approved without match",
			zap.String("application_id", app.ID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}

	if l.matchExists(ctx, app, listing) {
		if _, err := l.repo.TransitionApplication(ctx, app.ID, models.ApplicationPending, models.ApplicationApproved, l.now().UTC()); err != nil {
			l.logger.Error("matched application left pending",
				zap.String("application_id", app.ID),
				zap.Error(err),
			)
		}
		return
	}

	l.logger.Warn("approval rolled back after match failure",
		zap.String("application_id", app.ID),
		zap.Error(cause),
	)
}

func (l *Lifecycle) matchExists(ctx context.Context, app *models.Application, listing *models.Listing) bool {
	match, err := l.matches.Find(ctx, listing.ID, listing.EmployerID, app.WorkerID)
	if err != nil {
		l.logger.Warn("failed to look up match",
			zap.String("application_id", app.ID),
			zap.Error(err),
		)
		return false
	}
	return match != nil
}

func (l *Lifecycle) Reject(ctx context.Context, applicationID string) error {
	_, err := l.finish(ctx, applicationID, models.ApplicationRejected)
	return err
}

func (l *Lifecycle) Skip(ctx context.Context, applicationID string) error {
	_, err := l.finish(ctx, applicationID, models.ApplicationSkipped)
	return err
}

// finish applies a side-effect free terminal transition. Repeating the same
// transition is a no-op.
func (l *Lifecycle) finish(ctx context.Context, applicationID string, to models.ApplicationStatus) (*models.Application, error) {
	app, err := l.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status == to {
		return app, nil
	}
	if !models.CanTransition(app.Status, to) {
		return nil, fmt.Errorf("%s %s application: %w", to, app.Status, models.ErrInvalidTransition)
	}

	moved, err := l.repo.TransitionApplication(ctx, app.ID, models.ApplicationPending, to, l.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("transition application: %w", err)
	}
	if !moved {
		return nil, fmt.Errorf("%s application %s: %w", to, app.ID, models.ErrInvalidTransition)
	}

	l.logger.Info("application finished",
		zap.String("application_id", app.ID),
		zap.String("status", string(to)),
	)

	app.Status = to
	return app, nil
}

// Reconcile creates the missing match for approved applications older than
// grace. It returns how many were repaired.
func (l *Lifecycle) Reconcile(ctx context.Context, grace time.Duration, limit int) (int, error) {
	stuck, err := l.repo.ListApprovedWithoutMatch(ctx, l.now().UTC().Add(-grace), limit)
	if err != nil {
		return 0, fmt.Errorf("list approved without match: %w", err)
	}

	repaired := 0
	for i := range stuck {
		app := &stuck[i]

		listing, err := l.listings.GetByID(ctx, app.ListingID)
		if err != nil || listing == nil {
			l.logger.Warn("cannot reconcile application without listing",
				zap.String("application_id", app.ID),
				zap.String("listing_id", app.ListingID),
				zap.Error(err),
			)
			continue
		}

		if _, err := l.ensureMatch(ctx, app, listing); err != nil {
			if errors.Is(err, context.Canceled) {
				return repaired, err
			}
			l.logger.Error("failed to reconcile application",
				zap.String("application_id", app.ID),
				zap.Error(err),
			)
			continue
		}
		repaired++
	}

	if repaired > 0 {
		l.logger.Info("approved applications reconciled", zap.Int("count", repaired))
	}
	return repaired, nil
}
