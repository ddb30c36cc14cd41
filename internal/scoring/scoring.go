// Package scoring ranks listings for a worker. Everything here is pure: the
// same profile, listing and clock always produce the same score.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"kind-match/internal/models"
)

// Maximum points per factor. They add up to 100.
const (
	MaxJobType      = 20.0
	MaxLocation     = 15.0
	MaxSalary       = 15.0
	MaxSkills       = 20.0
	MaxExperience   = 10.0
	MaxAvailability = 10.0
	MaxRatingBonus  = 5.0
	MaxRecencyBonus = 5.0

	fuzzyJobTypeShare = 0.6
	regionShare       = 0.5
	unknownShare      = 0.5
	maxRating         = 5.0
	recencyHalfLife   = 7 * 24 * time.Hour
)

// Breakdown field names are part of the public contract.
type Breakdown struct {
	JobTypeMatch      float64 `json:"jobTypeMatch"`
	LocationMatch     float64 `json:"locationMatch"`
	SalaryMatch       float64 `json:"salaryMatch"`
	SkillsMatch       float64 `json:"skillsMatch"`
	ExperienceMatch   float64 `json:"experienceMatch"`
	AvailabilityMatch float64 `json:"availabilityMatch"`
	RatingBonus       float64 `json:"ratingBonus"`
	RecencyBonus      float64 `json:"recencyBonus"`
}

func (b Breakdown) total() float64 {
	return b.JobTypeMatch + b.LocationMatch + b.SalaryMatch + b.SkillsMatch +
		b.ExperienceMatch + b.AvailabilityMatch + b.RatingBonus + b.RecencyBonus
}

type Result struct {
	Score     float64   `json:"score"`
	Reasons   []string  `json:"reasons"`
	Breakdown Breakdown `json:"breakdown"`
}

// Score computes the compatibility of worker with listing as of now.
func Score(worker *models.WorkerProfile, listing *models.Listing, now time.Time) Result {
	if worker == nil {
		worker = &models.WorkerProfile{}
	}
	if listing == nil {
		listing = &models.Listing{}
	}

	b := Breakdown{
		JobTypeMatch:      round(MaxJobType * jobTypeShare(worker.PreferredJobTypes, listing.JobType)),
		LocationMatch:     round(MaxLocation * locationShare(worker.Location, listing.Location)),
		SalaryMatch:       round(MaxSalary * salaryShare(worker.ExpectedSalaryMin, worker.ExpectedSalaryMax, listing.SalaryMin, listing.SalaryMax)),
		SkillsMatch:       round(MaxSkills * skillsShare(worker.Skills, listing.RequiredSkills)),
		ExperienceMatch:   round(MaxExperience * experienceShare(worker.YearsExperience, listing.RequiredYears)),
		AvailabilityMatch: round(MaxAvailability * availabilityShare(worker.Availability, listing.Schedule.Slots())),
		RatingBonus:       round(MaxRatingBonus * clamp(worker.Rating/maxRating, 0, 1)),
		RecencyBonus:      round(MaxRecencyBonus * recencyShare(listing.CreatedAt, now)),
	}

	return Result{
		Score:     round(clamp(b.total(), 0, 100)),
		Reasons:   reasons(b, worker, listing),
		Breakdown: b,
	}
}

func jobTypeShare(preferred []string, jobType string) float64 {
	target := normalize(jobType)
	if len(preferred) == 0 || target == "" {
		return unknownShare
	}

	best := 0.0
	for _, p := range preferred {
		p = normalize(p)
		if p == "" {
			continue
		}
		if p == target {
			return 1
		}
		if fuzzyEqual(p, target) {
			best = fuzzyJobTypeShare
		}
	}
	return best
}

// fuzzyEqual matches "nanny" with "part-time nanny" and "house cleaner" with
// "cleaner".
func fuzzyEqual(a, b string) bool {
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	words := make(map[string]bool)
	for _, w := range tokens(a) {
		words[w] = true
	}
	for _, w := range tokens(b) {
		if words[w] {
			return true
		}
	}
	return false
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/' || r == ','
	})
}

func locationShare(worker, listing models.Location) float64 {
	province := normalize(listing.Province)
	region := normalize(listing.Region)
	if province == "" && region == "" {
		return unknownShare
	}

	if province != "" && normalize(worker.Province) == province {
		return 1
	}
	if region != "" && normalize(worker.Region) == region {
		return regionShare
	}
	return 0
}

// salaryShare is the fraction of the worker's expected range covered by the
// offered range. Offers entirely at or above the expectation count as full.
func salaryShare(wantMin, wantMax, offerMin, offerMax int) float64 {
	wantMin, wantMax = normalizeRange(wantMin, wantMax)
	offerMin, offerMax = normalizeRange(offerMin, offerMax)
	if wantMax == 0 || offerMax == 0 {
		return unknownShare
	}

	if offerMin >= wantMax {
		return 1
	}

	if wantMin == wantMax {
		if offerMin <= wantMin && wantMin <= offerMax {
			return 1
		}
		return 0
	}

	overlap := math.Min(float64(wantMax), float64(offerMax)) - math.Max(float64(wantMin), float64(offerMin))
	if overlap <= 0 {
		return 0
	}
	return clamp(overlap/float64(wantMax-wantMin), 0, 1)
}

func normalizeRange(lo, hi int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi < 0 {
		hi = 0
	}
	if hi == 0 {
		hi = lo
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi
}

func skillsShare(have, required []string) float64 {
	needed := make(map[string]bool)
	for _, s := range required {
		if s = normalize(s); s != "" {
			needed[s] = true
		}
	}
	if len(needed) == 0 {
		return 1
	}

	present := 0
	seen := make(map[string]bool)
	for _, s := range have {
		s = normalize(s)
		if needed[s] && !seen[s] {
			seen[s] = true
			present++
		}
	}
	return float64(present) / float64(len(needed))
}

func experienceShare(years, required float64) float64 {
	if required <= 0 {
		return 1
	}
	return clamp(years/required, 0, 1)
}

func availabilityShare(availability models.Slots, required []models.Slot) float64 {
	if len(required) == 0 {
		return 1
	}

	covered := 0
	for _, slot := range required {
		if availability.Covers(slot) {
			covered++
		}
	}
	return float64(covered) / float64(len(required))
}

func recencyShare(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}

	age := now.Sub(createdAt)
	if age < 0 {
		age = 0
	}
	return math.Pow(0.5, float64(age)/float64(recencyHalfLife))
}

func reasons(b Breakdown, worker *models.WorkerProfile, listing *models.Listing) []string {
	out := make([]string, 0, 8)

	switch {
	case b.JobTypeMatch >= MaxJobType:
		out = append(out, "Matches your preferred job type")
	case b.JobTypeMatch >= MaxJobType*fuzzyJobTypeShare && len(worker.PreferredJobTypes) > 0:
		out = append(out, "Similar to your preferred job types")
	}

	switch {
	case b.LocationMatch >= MaxLocation:
		out = append(out, "Located in your province")
	case b.LocationMatch >= MaxLocation*regionShare && normalize(listing.Location.Region) != "":
		out = append(out, "Located in your region")
	}

	if b.SalaryMatch >= MaxSalary {
		out = append(out, "Pay fits your expected range")
	}

	if len(listing.RequiredSkills) > 0 {
		if b.SkillsMatch >= MaxSkills {
			out = append(out, "You have all required skills")
		} else if b.SkillsMatch > 0 {
			out = append(out, fmt.Sprintf("You have %.0f%% of the required skills", b.SkillsMatch/MaxSkills*100))
		}
	}

	if listing.RequiredYears > 0 && b.ExperienceMatch >= MaxExperience {
		out = append(out, "Meets the experience requirement")
	}

	if len(listing.Schedule.Slots()) > 0 && b.AvailabilityMatch >= MaxAvailability {
		out = append(out, "Fits your availability")
	}

	if b.RecencyBonus >= MaxRecencyBonus/2 {
		out = append(out, "Recently posted")
	}

	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
