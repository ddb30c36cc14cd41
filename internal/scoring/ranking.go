package scoring

import (
	"sort"
	"time"

	"kind-match/internal/models"
)

// SortBoostedFirst orders items with every boosted item ahead of every
// non-boosted one; within each group better decides. The sort is stable.
func SortBoostedFirst[T any](items []T, boosted func(T) bool, better func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool {
		bi, bj := boosted(items[i]), boosted(items[j])
		if bi != bj {
			return bi
		}
		return better(items[i], items[j])
	})
}

type RankedListing struct {
	Listing *models.Listing `json:"listing"`
	Boosted bool            `json:"boosted"`
	Result  Result          `json:"result"`
}

// RankListings scores every listing for worker and applies the feed order:
// live boost first, then score, then newest, then id.
func RankListings(worker *models.WorkerProfile, listings []*models.Listing, now time.Time) []RankedListing {
	ranked := make([]RankedListing, 0, len(listings))
	for _, l := range listings {
		if l == nil {
			continue
		}
		ranked = append(ranked, RankedListing{
			Listing: l,
			Boosted: l.IsBoosted(now),
			Result:  Score(worker, l, now),
		})
	}

	SortBoostedFirst(ranked,
		func(r RankedListing) bool { return r.Boosted },
		func(a, b RankedListing) bool {
			if a.Result.Score != b.Result.Score {
				return a.Result.Score > b.Result.Score
			}
			if !a.Listing.CreatedAt.Equal(b.Listing.CreatedAt) {
				return a.Listing.CreatedAt.After(b.Listing.CreatedAt)
			}
			return a.Listing.ID < b.Listing.ID
		},
	)

	return ranked
}
