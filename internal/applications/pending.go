package applications

import (
	"context"
	"fmt"
	"sort"

	"kind-match/internal/models"
	"kind-match/internal/scoring"

	"go.uber.org/zap"
)

// PendingApplicant is one row of an employer's review queue. Related entities
// that cannot be loaded are left nil so the rest of the view still renders.
type PendingApplicant struct {
	Application models.Application    `json:"application"`
	Listing     *models.Listing       `json:"listing"`
	Worker      *models.User          `json:"worker"`
	Profile     *models.WorkerProfile `json:"profile"`
	WorkHistory []models.WorkHistory  `json:"workHistory"`
	Boosted     bool                  `json:"boosted"`
	Score       *scoring.Result       `json:"score,omitempty"`
}

// ListPendingForEmployer returns the pending applications against the
// employer's active listings, or against listingID only when it is given and
// owned by the employer. Boosted rows come first, then the newest.
func (l *Lifecycle) ListPendingForEmployer(ctx context.Context, employerID int64, listingID *string) ([]PendingApplicant, error) {
	var owned []*models.Listing

	if listingID != nil {
		listing, err := l.listings.GetByID(ctx, *listingID)
		if err != nil {
			return nil, fmt.Errorf("get listing: %w", err)
		}
		if listing == nil || listing.EmployerID != employerID {
			return nil, models.NotFound("listing", *listingID)
		}
		owned = []*models.Listing{listing}
	} else {
		list, err := l.listings.ListActiveByOwner(ctx, employerID)
		if err != nil {
			return nil, fmt.Errorf("list owner listings: %w", err)
		}
		owned = list
	}

	if len(owned) == 0 {
		return []PendingApplicant{}, nil
	}

	byID := make(map[string]*models.Listing, len(owned))
	ids := make([]string, 0, len(owned))
	for _, listing := range owned {
		if listing == nil {
			continue
		}
		byID[listing.ID] = listing
		ids = append(ids, listing.ID)
	}

	pending, err := l.repo.ListPendingApplications(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list pending applications: %w", err)
	}

	now := l.now().UTC()
	out := make([]PendingApplicant, 0, len(pending))
	for _, app := range pending {
		row := PendingApplicant{
			Application: app,
			Listing:     byID[app.ListingID],
		}
		l.joinWorker(ctx, &row)

		row.Boosted = row.Listing.IsBoosted(now) || row.Profile.IsBoosted(now)
		if row.Profile != nil && row.Listing != nil {
			res := scoring.Score(row.Profile, row.Listing, now)
			row.Score = &res
		}

		out = append(out, row)
	}

	scoring.SortBoostedFirst(out,
		func(p PendingApplicant) bool { return p.Boosted },
		func(a, b PendingApplicant) bool {
			if !a.Application.AppliedAt.Equal(b.Application.AppliedAt) {
				return a.Application.AppliedAt.After(b.Application.AppliedAt)
			}
			return a.Application.ID < b.Application.ID
		},
	)

	return out, nil
}

func (l *Lifecycle) joinWorker(ctx context.Context, row *PendingApplicant) {
	workerID := row.Application.WorkerID

	user, err := l.profiles.GetUser(ctx, workerID)
	if err != nil {
		l.logger.Warn("failed to load applicant", zap.Int64("worker_id", workerID), zap.Error(err))
	}
	row.Worker = user

	profile, err := l.profiles.GetWorkerProfile(ctx, workerID)
	if err != nil {
		l.logger.Warn("failed to load applicant profile", zap.Int64("worker_id", workerID), zap.Error(err))
	}
	row.Profile = profile

	history, err := l.profiles.GetWorkHistory(ctx, workerID)
	if err != nil {
		l.logger.Warn("failed to load applicant work history", zap.Int64("worker_id", workerID), zap.Error(err))
		history = nil
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].StartedAt.After(history[j].StartedAt)
	})
	row.WorkHistory = history
}
