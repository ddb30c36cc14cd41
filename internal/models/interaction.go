package models

import "time"

type Action string

const (
	ActionApply Action = "apply"
	ActionSkip  Action = "skip"
)

func (a Action) Valid() bool {
	return a == ActionApply || a == ActionSkip
}

// Interaction is one swipe decision. At most one exists per (user, listing).
type Interaction struct {
	ID        string    `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	ListingID string    `db:"listing_id" json:"listingId"`
	Action    Action    `db:"action" json:"action"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
