package scoring

import (
	"encoding/json"
	"testing"
	"time"

	"kind-match/internal/models"
)

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func perfectWorker() *models.WorkerProfile {
	return &models.WorkerProfile{
		UserID:            1,
		PreferredJobTypes: []string{"nanny"},
		Location:          models.Location{Province: "Cebu", Region: "Visayas"},
		ExpectedSalaryMin: 10000,
		ExpectedSalaryMax: 15000,
		Skills:            []string{"cooking", "childcare"},
		YearsExperience:   3,
		Availability: models.Slots{
			{Day: time.Monday, Shift: models.ShiftFullDay},
			{Day: time.Tuesday, Shift: models.ShiftFullDay},
		},
		Rating: 5,
	}
}

func perfectListing() *models.Listing {
	return &models.Listing{
		ID:             "l-1",
		EmployerID:     100,
		Status:         models.ListingActive,
		JobType:        "Nanny",
		Location:       models.Location{Province: "cebu", Region: "Visayas"},
		SalaryMin:      10000,
		SalaryMax:      20000,
		RequiredSkills: []string{"Childcare", "Cooking"},
		RequiredYears:  2,
		Schedule: models.Schedule{Details: models.Weekly{Required: []models.Slot{
			{Day: time.Monday, Shift: models.ShiftMorning},
			{Day: time.Tuesday, Shift: models.ShiftAfternoon},
		}}},
		CreatedAt: now,
	}
}

func TestScorePerfectMatch(t *testing.T) {
	t.Parallel()

	res := Score(perfectWorker(), perfectListing(), now)
	if res.Score != 100 {
		t.Fatalf("expected 100, got %v (%+v)", res.Score, res.Breakdown)
	}

	want := Breakdown{
		JobTypeMatch:      MaxJobType,
		LocationMatch:     MaxLocation,
		SalaryMatch:       MaxSalary,
		SkillsMatch:       MaxSkills,
		ExperienceMatch:   MaxExperience,
		AvailabilityMatch: MaxAvailability,
		RatingBonus:       MaxRatingBonus,
		RecencyBonus:      MaxRecencyBonus,
	}
	if res.Breakdown != want {
		t.Fatalf("unexpected breakdown: %+v", res.Breakdown)
	}

	if len(res.Reasons) == 0 {
		t.Fatalf("expected reasons for a perfect match")
	}
}

func TestScoreFactors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(w *models.WorkerProfile, l *models.Listing)
		field  func(b Breakdown) float64
		expect float64
	}{
		{
			name:   "fuzzy job type gets partial credit",
			mutate: func(_ *models.WorkerProfile, l *models.Listing) { l.JobType = "Part-time Nanny" },
			field:  func(b Breakdown) float64 { return b.JobTypeMatch },
			expect: 12,
		},
		{
			name:   "unrelated job type gets nothing",
			mutate: func(_ *models.WorkerProfile, l *models.Listing) { l.JobType = "driver" },
			field:  func(b Breakdown) float64 { return b.JobTypeMatch },
			expect: 0,
		},
		{
			name:   "no preferred types is neutral",
			mutate: func(w *models.WorkerProfile, _ *models.Listing) { w.PreferredJobTypes = nil },
			field:  func(b Breakdown) float64 { return b.JobTypeMatch },
			expect: 10,
		},
		{
			name: "same region different province is partial",
			mutate: func(w *models.WorkerProfile, _ *models.Listing) {
				w.Location = models.Location{Province: "Bohol", Region: "visayas"}
			},
			field:  func(b Breakdown) float64 { return b.LocationMatch },
			expect: 7.5,
		},
		{
			name: "different region gets nothing",
			mutate: func(w *models.WorkerProfile, _ *models.Listing) {
				w.Location = models.Location{Province: "Davao", Region: "Mindanao"}
			},
			field:  func(b Breakdown) float64 { return b.LocationMatch },
			expect: 0,
		},
		{
			name: "half salary overlap",
			mutate: func(w *models.WorkerProfile, l *models.Listing) {
				w.ExpectedSalaryMin, w.ExpectedSalaryMax = 10000, 20000
				l.SalaryMin, l.SalaryMax = 15000, 30000
			},
			field:  func(b Breakdown) float64 { return b.SalaryMatch },
			expect: 7.5,
		},
		{
			name: "offer below expectation",
			mutate: func(w *models.WorkerProfile, l *models.Listing) {
				w.ExpectedSalaryMin, w.ExpectedSalaryMax = 20000, 25000
				l.SalaryMin, l.SalaryMax = 8000, 12000
			},
			field:  func(b Breakdown) float64 { return b.SalaryMatch },
			expect: 0,
		},
		{
			name: "offer above expectation",
			mutate: func(w *models.WorkerProfile, l *models.Listing) {
				w.ExpectedSalaryMin, w.ExpectedSalaryMax = 8000, 9000
				l.SalaryMin, l.SalaryMax = 12000, 0
			},
			field:  func(b Breakdown) float64 { return b.SalaryMatch },
			expect: MaxSalary,
		},
		{
			name:   "half the skills",
			mutate: func(w *models.WorkerProfile, _ *models.Listing) { w.Skills = []string{"COOKING", "cooking"} },
			field:  func(b Breakdown) float64 { return b.SkillsMatch },
			expect: 10,
		},
		{
			name:   "no required skills is full credit",
			mutate: func(w *models.WorkerProfile, l *models.Listing) { w.Skills = nil; l.RequiredSkills = nil },
			field:  func(b Breakdown) float64 { return b.SkillsMatch },
			expect: MaxSkills,
		},
		{
			name:   "experience is capped once the requirement is met",
			mutate: func(w *models.WorkerProfile, _ *models.Listing) { w.YearsExperience = 40 },
			field:  func(b Breakdown) float64 { return b.ExperienceMatch },
			expect: MaxExperience,
		},
		{
			name:   "half the required experience",
			mutate: func(w *models.WorkerProfile, _ *models.Listing) { w.YearsExperience = 1 },
			field:  func(b Breakdown) float64 { return b.ExperienceMatch },
			expect: 5,
		},
		{
			name: "one of two slots covered",
			mutate: func(w *models.WorkerProfile, _ *models.Listing) {
				w.Availability = models.Slots{{Day: time.Monday, Shift: models.ShiftMorning}}
			},
			field:  func(b Breakdown) float64 { return b.AvailabilityMatch },
			expect: 5,
		},
		{
			name: "live-in needs every day but the days off",
			mutate: func(_ *models.WorkerProfile, l *models.Listing) {
				l.Schedule = models.Schedule{Details: models.LiveIn{DaysOff: []time.Weekday{
					time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
				}}}
			},
			field:  func(b Breakdown) float64 { return b.AvailabilityMatch },
			expect: MaxAvailability,
		},
		{
			name:   "rating bonus is proportional",
			mutate: func(w *models.WorkerProfile, _ *models.Listing) { w.Rating = 2.5 },
			field:  func(b Breakdown) float64 { return b.RatingBonus },
			expect: 2.5,
		},
		{
			name:   "rating bonus is capped",
			mutate: func(w *models.WorkerProfile, _ *models.Listing) { w.Rating = 50 },
			field:  func(b Breakdown) float64 { return b.RatingBonus },
			expect: MaxRatingBonus,
		},
		{
			name:   "recency halves after a week",
			mutate: func(_ *models.WorkerProfile, l *models.Listing) { l.CreatedAt = now.Add(-7 * 24 * time.Hour) },
			field:  func(b Breakdown) float64 { return b.RecencyBonus },
			expect: 2.5,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, l := perfectWorker(), perfectListing()
			tt.mutate(w, l)

			res := Score(w, l, now)
			if got := tt.field(res.Breakdown); got != tt.expect {
				t.Fatalf("expected %v, got %v (%+v)", tt.expect, got, res.Breakdown)
			}
		})
	}
}

func TestScoreIsDeterministicAndBounded(t *testing.T) {
	t.Parallel()

	workers := []*models.WorkerProfile{nil, {}, perfectWorker(), {Rating: -3, YearsExperience: -1, ExpectedSalaryMin: -5}}
	listings := []*models.Listing{nil, {}, perfectListing(), {SalaryMin: 50, SalaryMax: 10, CreatedAt: now.Add(time.Hour)}}

	for _, w := range workers {
		for _, l := range listings {
			first := Score(w, l, now)
			second := Score(w, l, now)

			if first.Score < 0 || first.Score > 100 {
				t.Fatalf("score out of bounds: %v", first.Score)
			}
			if first.Score != second.Score || first.Breakdown != second.Breakdown {
				t.Fatalf("score is not deterministic: %+v vs %+v", first, second)
			}
		}
	}
}

func TestScoreSkillsAndTypeDominate(t *testing.T) {
	t.Parallel()

	matched := Score(perfectWorker(), perfectListing(), now)

	w := perfectWorker()
	w.Skills = []string{"gardening"}
	w.PreferredJobTypes = []string{"driver"}
	mismatched := Score(w, perfectListing(), now)

	if mismatched.Score >= matched.Score {
		t.Fatalf("expected mismatched (%v) < matched (%v)", mismatched.Score, matched.Score)
	}
}

func TestRecencyDecaysMonotonically(t *testing.T) {
	t.Parallel()

	prev := 101.0
	for days := 0; days <= 60; days += 3 {
		l := perfectListing()
		l.CreatedAt = now.Add(-time.Duration(days) * 24 * time.Hour)

		got := Score(perfectWorker(), l, now).Breakdown.RecencyBonus
		if got > prev {
			t.Fatalf("recency increased at day %d: %v > %v", days, got, prev)
		}
		prev = got
	}
}

func TestBreakdownJSONFieldNames(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Score(perfectWorker(), perfectListing(), now))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"score", "reasons", "breakdown"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing %q in %s", key, data)
		}
	}

	breakdown := decoded["breakdown"].(map[string]interface{})
	for _, key := range []string{
		"jobTypeMatch", "locationMatch", "salaryMatch", "skillsMatch",
		"experienceMatch", "availabilityMatch", "ratingBonus", "recencyBonus",
	} {
		if _, ok := breakdown[key]; !ok {
			t.Fatalf("missing breakdown field %q", key)
		}
	}
}
