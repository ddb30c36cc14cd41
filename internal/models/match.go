package models

import "time"

type Match struct {
	ID             string    `db:"id" json:"id"`
	ListingID      string    `db:"listing_id" json:"listingId"`
	EmployerID     int64     `db:"employer_id" json:"employerId"`
	WorkerID       int64     `db:"worker_id" json:"workerId"`
	MatchedAt      time.Time `db:"matched_at" json:"matchedAt"`
	EmployerOpened bool      `db:"employer_opened" json:"employerOpened"`
	WorkerOpened   bool      `db:"worker_opened" json:"workerOpened"`
}

// Counterpart returns the other participant of the match for role.
func (m *Match) Counterpart(role Role) int64 {
	if role == RoleEmployer {
		return m.WorkerID
	}
	return m.EmployerID
}
