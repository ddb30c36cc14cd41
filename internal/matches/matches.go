// Package matches owns the mutual-agreement records created by approvals.
package matches

import (
	"context"
	"fmt"
	"time"

	"kind-match/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository relies on a unique (listing_id, employer_id, worker_id)
// constraint; InsertMatch reports false when the triple already exists.
type Repository interface {
	InsertMatch(ctx context.Context, match *models.Match) (bool, error)
	FindMatch(ctx context.Context, listingID string, employerID, workerID int64) (*models.Match, error)
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	ListMatchesForUser(ctx context.Context, userID int64, role models.Role, withoutConversation bool) ([]models.Match, error)
	SetMatchOpened(ctx context.Context, matchID string, role models.Role) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, event models.Event)
}

type CreateResult struct {
	Match   *models.Match `json:"match"`
	Created bool          `json:"created"`
}

type ListOptions struct {
	// OnlyWithoutConversation hides matches whose pair already talks.
	OnlyWithoutConversation bool
}

type Coordinator struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
	logger   *zap.Logger
}

func New(repo Repository, notifier Notifier, logger *zap.Logger) *Coordinator {
	return &Coordinator{repo: repo, notifier: notifier, now: time.Now, logger: logger}
}

func (c *Coordinator) Find(ctx context.Context, listingID string, employerID, workerID int64) (*models.Match, error) {
	match, err := c.repo.FindMatch(ctx, listingID, employerID, workerID)
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	return match, nil
}

// CreateMatch is idempotent per (listing, employer, worker): a second call
// returns the existing match with Created=false.
func (c *Coordinator) CreateMatch(ctx context.Context, listingID string, employerID, workerID int64) (CreateResult, error) {
	if listingID == "" {
		return CreateResult{}, models.Validation("listing id is required")
	}
	if employerID == workerID {
		return CreateResult{}, models.Validation("employer and worker must differ")
	}

	existing, err := c.repo.FindMatch(ctx, listingID, employerID, workerID)
	if err != nil {
		return CreateResult{}, fmt.Errorf("find match: %w", err)
	}
	if existing != nil {
		return CreateResult{Match: existing}, nil
	}

	match := &models.Match{
		ID:         uuid.NewString(),
		ListingID:  listingID,
		EmployerID: employerID,
		WorkerID:   workerID,
		MatchedAt:  c.now().UTC(),
	}

	inserted, err := c.repo.InsertMatch(ctx, match)
	if err != nil {
		return CreateResult{}, fmt.Errorf("insert match: %w", err)
	}

	if !inserted {
		// lost the race to a concurrent approval
		existing, err := c.repo.FindMatch(ctx, listingID, employerID, workerID)
		if err != nil {
			return CreateResult{}, fmt.Errorf("find match: %w", err)
		}
		if existing == nil {
			return CreateResult{}, fmt.Errorf("match for listing %s vanished after conflict", listingID)
		}
		return CreateResult{Match: existing}, nil
	}

	c.logger.Info("match created",
		zap.String("match_id", match.ID),
		zap.String("listing_id", listingID),
		zap.Int64("employer_id", employerID),
		zap.Int64("worker_id", workerID),
	)

	event := models.Event{Type: models.EventMatchCreated, ListingID: listingID, MatchID: match.ID}
	c.notifier.Notify(ctx, employerID, event)
	c.notifier.Notify(ctx, workerID, event)

	return CreateResult{Match: match, Created: true}, nil
}

func (c *Coordinator) Get(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := c.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	if match == nil {
		return nil, models.NotFound("match", matchID)
	}
	return match, nil
}

// GetMatchesForUser lists the matches userID takes part in as role.
func (c *Coordinator) GetMatchesForUser(ctx context.Context, userID int64, role models.Role, opts ListOptions) ([]models.Match, error) {
	if role != models.RoleEmployer && role != models.RoleWorker {
		return nil, models.Validation("role %q has no matches", role)
	}

	list, err := c.repo.ListMatchesForUser(ctx, userID, role, opts.OnlyWithoutConversation)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return list, nil
}

// MarkOpened sets role's opened flag and leaves the counterpart's untouched.
func (c *Coordinator) MarkOpened(ctx context.Context, matchID string, role models.Role) error {
	if role != models.RoleEmployer && role != models.RoleWorker {
		return models.Validation("role %q cannot open a match", role)
	}

	found, err := c.repo.SetMatchOpened(ctx, matchID, role)
	if err != nil {
		return fmt.Errorf("set match opened: %w", err)
	}
	if !found {
		return models.NotFound("match", matchID)
	}

	c.logger.Debug("match opened", zap.String("match_id", matchID), zap.String("role", string(role)))
	return nil
}
