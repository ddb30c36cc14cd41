package models

import "time"

type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingInactive ListingStatus = "inactive"
)

type Listing struct {
	ID             string        `json:"id"`
	EmployerID     int64         `json:"employerId"`
	Title          string        `json:"title"`
	Status         ListingStatus `json:"status"`
	JobType        string        `json:"jobType"`
	Location       Location      `json:"location"`
	SalaryMin      int           `json:"salaryMin"`
	SalaryMax      int           `json:"salaryMax"`
	RequiredSkills []string      `json:"requiredSkills"`
	RequiredYears  float64       `json:"requiredYears"`
	Schedule       Schedule      `json:"schedule"`
	ExpiresAt      *time.Time    `json:"expiresAt,omitempty"`
	Boosted        bool          `json:"boosted"`
	BoostExpiresAt *time.Time    `json:"boostExpiresAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// IsBoosted reports whether the promotional boost is live at now.
func (l *Listing) IsBoosted(now time.Time) bool {
	return l != nil && boostActive(l.Boosted, l.BoostExpiresAt, now)
}

// IsOpen reports whether the listing can still receive swipes.
func (l *Listing) IsOpen(now time.Time) bool {
	if l == nil || l.Status != ListingActive {
		return false
	}
	return l.ExpiresAt == nil || l.ExpiresAt.After(now)
}
