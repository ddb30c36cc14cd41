// Package interactions keeps the idempotent swipe log.
package interactions

import (
	"context"
	"fmt"
	"time"

	"kind-match/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository relies on a unique (user_id, listing_id) constraint:
// InsertInteraction reports false instead of failing when the pair exists.
type Repository interface {
	HasInteraction(ctx context.Context, userID int64, listingID string) (bool, error)
	InsertInteraction(ctx context.Context, interaction *models.Interaction) (bool, error)
	// DeleteMostRecentInteraction removes and returns the newest interaction
	// of the user, or nil when there is none.
	DeleteMostRecentInteraction(ctx context.Context, userID int64) (*models.Interaction, error)
	DeleteInteraction(ctx context.Context, interactionID string) (bool, error)
	ListInteractedListingIDs(ctx context.Context, userID int64) ([]string, error)
}

type RecordResult struct {
	InteractionID string `json:"interactionId,omitempty"`
	Recorded      bool   `json:"recorded"`
}

type RewindResult struct {
	ListingID string        `json:"listingId"`
	Action    models.Action `json:"action"`
}

type Recorder struct {
	repo   Repository
	now    func() time.Time
	logger *zap.Logger
}

func New(repo Repository, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, now: time.Now, logger: logger}
}

func (r *Recorder) HasInteracted(ctx context.Context, userID int64, listingID string) (bool, error) {
	ok, err := r.repo.HasInteraction(ctx, userID, listingID)
	if err != nil {
		return false, fmt.Errorf("has interaction: %w", err)
	}
	return ok, nil
}

// Record stores the swipe. A second swipe on the same listing is a no-op and
// returns Recorded=false without an error.
func (r *Recorder) Record(ctx context.Context, userID int64, listingID string, action models.Action) (RecordResult, error) {
	if !action.Valid() {
		return RecordResult{}, models.Validation("unknown action %q", action)
	}
	if listingID == "" {
		return RecordResult{}, models.Validation("listing id is required")
	}

	interaction := &models.Interaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		ListingID: listingID,
		Action:    action,
		CreatedAt: r.now().UTC(),
	}

	inserted, err := r.repo.InsertInteraction(ctx, interaction)
	if err != nil {
		return RecordResult{}, fmt.Errorf("insert interaction: %w", err)
	}

	if !inserted {
		r.logger.Debug("interaction already recorded",
			zap.Int64("user_id", userID),
			zap.String("listing_id", listingID),
		)
		return RecordResult{}, nil
	}

	r.logger.Info("interaction recorded",
		zap.Int64("user_id", userID),
		zap.String("listing_id", listingID),
		zap.String("action", string(action)),
	)

	return RecordResult{InteractionID: interaction.ID, Recorded: true}, nil
}

// RewindMostRecent deletes the user's newest interaction across all listings
// and returns the freed listing id.
func (r *Recorder) RewindMostRecent(ctx context.Context, userID int64) (RewindResult, error) {
	deleted, err := r.repo.DeleteMostRecentInteraction(ctx, userID)
	if err != nil {
		return RewindResult{}, fmt.Errorf("delete most recent interaction: %w", err)
	}
	if deleted == nil {
		return RewindResult{}, models.NotFound("interaction for user", userID)
	}

	r.logger.Info("interaction rewound",
		zap.Int64("user_id", userID),
		zap.String("listing_id", deleted.ListingID),
	)

	return RewindResult{ListingID: deleted.ListingID, Action: deleted.Action}, nil
}

// Forget deletes one interaction by id. It undoes a swipe whose follow-up
// write failed; a missing row is not an error.
func (r *Recorder) Forget(ctx context.Context, interactionID string) error {
	deleted, err := r.repo.DeleteInteraction(ctx, interactionID)
	if err != nil {
		return fmt.Errorf("delete interaction: %w", err)
	}

	r.logger.Info("interaction forgotten",
		zap.String("interaction_id", interactionID),
		zap.Bool("deleted", deleted),
	)
	return nil
}

// InteractedListingIDs lists every listing the user already swiped on.
func (r *Recorder) InteractedListingIDs(ctx context.Context, userID int64) ([]string, error) {
	ids, err := r.repo.ListInteractedListingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list interacted listings: %w", err)
	}
	return ids, nil
}
