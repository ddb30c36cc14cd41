package models

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
	ApplicationSkipped  ApplicationStatus = "skipped"
)

// Terminal reports whether no transition leaves the status.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationApproved || s == ApplicationRejected || s == ApplicationSkipped
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to ApplicationStatus) bool {
	return from == ApplicationPending && to.Terminal()
}

type Application struct {
	ID        string            `db:"id" json:"id"`
	ListingID string            `db:"listing_id" json:"listingId"`
	WorkerID  int64             `db:"worker_id" json:"workerId"`
	Status    ApplicationStatus `db:"status" json:"status"`
	Message   *string           `db:"message" json:"message,omitempty"`
	AppliedAt time.Time         `db:"applied_at" json:"appliedAt"`
	UpdatedAt time.Time         `db:"updated_at" json:"updatedAt"`
}
