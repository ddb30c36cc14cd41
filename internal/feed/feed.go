// Package feed serves a worker's ranked listings and turns swipes into
// credit, interaction and application writes.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kind-match/internal/credits"
	"kind-match/internal/interactions"
	"kind-match/internal/models"
	"kind-match/internal/scoring"
	"kind-match/internal/storage/redis"

	"go.uber.org/zap"
)

// ListingSource reads listings. GetByID returns nil, nil for an unknown id.
type ListingSource interface {
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	ListActive(ctx context.Context) ([]*models.Listing, error)
}

type ProfileSource interface {
	GetWorkerProfile(ctx context.Context, userID int64) (*models.WorkerProfile, error)
}

// Cache stores ranked feeds. GetFeed returns redis.ErrCacheMiss when empty.
type Cache interface {
	GetFeed(ctx context.Context, workerID int64, dest interface{}) error
	SetFeed(ctx context.Context, workerID int64, feed interface{}) error
	InvalidateFeed(ctx context.Context, workerID int64) error
}

type CreditGate interface {
	Consume(ctx context.Context, userID int64) (credits.ConsumeResult, error)
	Refund(ctx context.Context, userID int64) error
}

type InteractionRecorder interface {
	HasInteracted(ctx context.Context, userID int64, listingID string) (bool, error)
	Record(ctx context.Context, userID int64, listingID string, action models.Action) (interactions.RecordResult, error)
	RewindMostRecent(ctx context.Context, userID int64) (interactions.RewindResult, error)
	Forget(ctx context.Context, interactionID string) error
	InteractedListingIDs(ctx context.Context, userID int64) ([]string, error)
}

type Applier interface {
	Apply(ctx context.Context, workerID int64, listingID string, message *string) (*models.Application, error)
}

type SwipeResult struct {
	Recorded          bool   `json:"recorded"`
	AlreadyInteracted bool   `json:"alreadyInteracted"`
	Remaining         int    `json:"remaining"`
	ApplicationID     string `json:"applicationId,omitempty"`
	AlreadyApplied    bool   `json:"alreadyApplied,omitempty"`
}

type Service struct {
	listings     ListingSource
	profiles     ProfileSource
	cache        Cache
	gate         CreditGate
	interactions InteractionRecorder
	applications Applier
	size         int
	now          func() time.Time
	logger       *zap.Logger
}

func New(
	listings ListingSource,
	profiles ProfileSource,
	cache Cache,
	gate CreditGate,
	recorder InteractionRecorder,
	applier Applier,
	size int,
	logger *zap.Logger,
) *Service {
	return &Service{
		listings:     listings,
		profiles:     profiles,
		cache:        cache,
		gate:         gate,
		interactions: recorder,
		applications: applier,
		size:         size,
		now:          time.Now,
		logger:       logger,
	}
}

// Feed returns up to limit open listings the worker has not swiped yet,
// boosted first and then by score. limit <= 0 uses the configured size.
func (s *Service) Feed(ctx context.Context, workerID int64, limit int) ([]scoring.RankedListing, error) {
	if limit <= 0 || limit > s.size {
		limit = s.size
	}

	var cached []scoring.RankedListing
	err := s.cache.GetFeed(ctx, workerID, &cached)
	switch {
	case err == nil:
		return truncate(cached, limit), nil
	case !errors.Is(err, redis.ErrCacheMiss):
		s.logger.Warn("feed cache unavailable", zap.Int64("worker_id", workerID), zap.Error(err))
	}

	ranked, err := s.build(ctx, workerID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetFeed(ctx, workerID, ranked); err != nil {
		s.logger.Warn("failed to cache feed", zap.Int64("worker_id", workerID), zap.Error(err))
	}

	return truncate(ranked, limit), nil
}

func (s *Service) build(ctx context.Context, workerID int64) ([]scoring.RankedListing, error) {
	profile, err := s.profiles.GetWorkerProfile(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("get worker profile: %w", err)
	}
	if profile == nil {
		return nil, models.NotFound("worker profile", workerID)
	}

	listings, err := s.listings.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}

	seen, err := s.interactions.InteractedListingIDs(ctx, workerID)
	if err != nil {
		return nil, err
	}
	skip := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		skip[id] = struct{}{}
	}

	now := s.now().UTC()
	open := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if !l.IsOpen(now) {
			continue
		}
		if _, ok := skip[l.ID]; ok {
			continue
		}
		open = append(open, l)
	}

	ranked := scoring.RankListings(profile, open, now)
	return truncate(ranked, s.size), nil
}

// Swipe records one decision. A repeated swipe costs nothing and reports
// AlreadyInteracted. Only open listings can be swiped. An apply swipe also
// files an application; if that fails the swipe is undone and refunded.
func (s *Service) Swipe(ctx context.Context, workerID int64, listingID string, action models.Action, message *string) (SwipeResult, error) {
	if !action.Valid() {
		return SwipeResult{}, models.Validation("unknown action %q", action)
	}
	if listingID == "" {
		return SwipeResult{}, models.Validation("listing id is required")
	}

	done, err := s.interactions.HasInteracted(ctx, workerID, listingID)
	if err != nil {
		return SwipeResult{}, err
	}
	if done {
		s.logger.Debug("swipe already recorded",
			zap.Int64("worker_id", workerID),
			zap.String("listing_id", listingID),
		)
		return SwipeResult{AlreadyInteracted: true}, nil
	}

	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return SwipeResult{}, fmt.Errorf("get listing: %w", err)
	}
	if listing == nil {
		return SwipeResult{}, models.NotFound("listing", listingID)
	}
	if !listing.IsOpen(s.now().UTC()) {
		return SwipeResult{}, models.Validation("listing %s is not open", listingID)
	}

	spent, err := s.gate.Consume(ctx, workerID)
	if err != nil {
		return SwipeResult{}, err
	}

	recorded, err := s.interactions.Record(ctx, workerID, listingID, action)
	if err != nil {
		s.refund(ctx, workerID)
		return SwipeResult{}, err
	}
	if !recorded.Recorded {
		// a concurrent swipe on the same listing won
		s.refund(ctx, workerID)
		remaining := spent.Remaining
		if remaining < credits.Unlimited {
			remaining++
		}
		return SwipeResult{AlreadyInteracted: true, Remaining: remaining}, nil
	}

	res := SwipeResult{Recorded: true, Remaining: spent.Remaining}
	if action == models.ActionApply {
		app, err := s.applications.Apply(ctx, workerID, listingID, message)
		switch {
		case errors.Is(err, models.ErrAlreadyApplied):
			res.AlreadyApplied = true
		case err != nil:
			s.undoSwipe(ctx, workerID, recorded.InteractionID, err)
			return SwipeResult{}, fmt.Errorf("apply: %w", err)
		default:
			res.ApplicationID = app.ID
		}
	}

	s.invalidate(ctx, workerID)
	return res, nil
}

func (s *Service) undoSwipe(ctx context.Context, workerID int64, interactionID string, cause error) {
	if err := s.interactions.Forget(ctx, interactionID); err != nil {
		s.logger.Error("swipe left without application",
			zap.Int64("worker_id", workerID),
			zap.String("interaction_id", interactionID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
	}
	s.refund(ctx, workerID)
}

// Rewind undoes the worker's latest swipe. The credit it cost stays spent.
func (s *Service) Rewind(ctx context.Context, workerID int64) (interactions.RewindResult, error) {
	res, err := s.interactions.RewindMostRecent(ctx, workerID)
	if err != nil {
		return interactions.RewindResult{}, err
	}

	s.invalidate(ctx, workerID)
	return res, nil
}

// Invalidate drops the cached feed, e.g. after the worker's profile changed.
func (s *Service) Invalidate(ctx context.Context, workerID int64) {
	s.invalidate(ctx, workerID)
}

func (s *Service) refund(ctx context.Context, workerID int64) {
	if err := s.gate.Refund(ctx, workerID); err != nil {
		s.logger.Error("credit lost after failed swipe", zap.Int64("worker_id", workerID), zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context, workerID int64) {
	if err := s.cache.InvalidateFeed(ctx, workerID); err != nil {
		s.logger.Warn("failed to invalidate feed", zap.Int64("worker_id", workerID), zap.Error(err))
	}
}

func truncate(ranked []scoring.RankedListing, limit int) []scoring.RankedListing {
	if len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}
