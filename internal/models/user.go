package models

import "time"

type Role string

const (
	RoleEmployer Role = "employer"
	RoleWorker   Role = "worker"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployer, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  *string   `db:"username" json:"username,omitempty"`
	FirstName *string   `db:"first_name" json:"firstName,omitempty"`
	LastName  *string   `db:"last_name" json:"lastName,omitempty"`
	Role      Role      `db:"role" json:"role"`
	Credits   int       `db:"credits" json:"credits"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// WorkerProfile is the worker side of the compatibility score.
type WorkerProfile struct {
	UserID            int64      `json:"userId"`
	PreferredJobTypes []string   `json:"preferredJobTypes"`
	Location          Location   `json:"location"`
	ExpectedSalaryMin int        `json:"expectedSalaryMin"`
	ExpectedSalaryMax int        `json:"expectedSalaryMax"`
	Skills            []string   `json:"skills"`
	YearsExperience   float64    `json:"yearsExperience"`
	Availability      Slots      `json:"availability"`
	Rating            float64    `json:"rating"`
	Boosted           bool       `json:"boosted"`
	BoostExpiresAt    *time.Time `json:"boostExpiresAt,omitempty"`
}

func (p *WorkerProfile) IsBoosted(now time.Time) bool {
	return p != nil && boostActive(p.Boosted, p.BoostExpiresAt, now)
}

// Validate checks the fields a worker edits themselves.
func (p *WorkerProfile) Validate() error {
	if p.ExpectedSalaryMin < 0 || p.ExpectedSalaryMax < 0 {
		return Validation("expected salary must not be negative")
	}
	if p.ExpectedSalaryMax > 0 && p.ExpectedSalaryMin > p.ExpectedSalaryMax {
		return Validation("expected salary min is above max")
	}
	if p.YearsExperience < 0 {
		return Validation("years of experience must not be negative")
	}
	for _, slot := range p.Availability {
		if slot.Day < time.Sunday || slot.Day > time.Saturday {
			return Validation("invalid availability day %d", slot.Day)
		}
	}
	return nil
}

type WorkHistory struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"userId"`
	Employer  string     `db:"employer" json:"employer"`
	Position  string     `db:"position" json:"position"`
	StartedAt time.Time  `db:"started_at" json:"startedAt"`
	EndedAt   *time.Time `db:"ended_at" json:"endedAt,omitempty"`
}

type Location struct {
	Province string `json:"province"`
	Region   string `json:"region"`
}

func boostActive(flag bool, expiresAt *time.Time, now time.Time) bool {
	return flag && expiresAt != nil && expiresAt.After(now)
}
