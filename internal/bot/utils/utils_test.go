package utils

import (
	"strings"
	"testing"
	"time"

	"kind-match/internal/applications"
	"kind-match/internal/credits"
	"kind-match/internal/models"
	"kind-match/internal/scoring"
)

func TestParseCallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   string
		action string
		args   []string
	}{
		{name: "empty", data: "", action: "", args: nil},
		{name: "prefix only", data: "\f", action: "", args: nil},
		{name: "no args", data: "\fnext", action: "next", args: []string{}},
		{name: "two args", data: "\fswipe:apply:l-1", action: "swipe", args: []string{"apply", "l-1"}},
		{name: "without prefix", data: "chat:m-1", action: "chat", args: []string{"m-1"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			action, args := ParseCallback(tt.data)
			if action != tt.action {
				t.Fatalf("action = %q, want %q", action, tt.action)
			}
			if len(args) != len(tt.args) {
				t.Fatalf("args = %v, want %v", args, tt.args)
			}
			for i := range args {
				if args[i] != tt.args[i] {
					t.Fatalf("args = %v, want %v", args, tt.args)
				}
			}
		})
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	t.Parallel()

	data := CallbackData(ActionReview, "approve", "5f0c")
	if data != "review:approve:5f0c" {
		t.Fatalf("data = %q", data)
	}

	action, args := ParseCallback("\f" + data)
	if action != ActionReview || len(args) != 2 || args[1] != "5f0c" {
		t.Fatalf("parsed %q %v", action, args)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()

	got := EscapeMarkdown("a_b*c.d-e!")
	want := `a\_b\*c\.d\-e\!`
	if got != want {
		t.Fatalf("EscapeMarkdown = %q, want %q", got, want)
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	if got := TruncateString("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateString("привет мир", 6); got != "при..." {
		t.Fatalf("got %q", got)
	}
}

func TestFormatSalary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		min, max int
		want     string
	}{
		{0, 0, "not specified"},
		{100, 0, "from 100"},
		{0, 200, "up to 200"},
		{100, 200, "100 - 200"},
		{150, 150, "from 150"},
	}

	for _, tt := range tests {
		if got := FormatSalary(tt.min, tt.max); got != tt.want {
			t.Fatalf("FormatSalary(%d, %d) = %q, want %q", tt.min, tt.max, got, tt.want)
		}
	}
}

func TestFormatListingCard(t *testing.T) {
	t.Parallel()

	card := FormatListingCard(scoring.RankedListing{
		Listing: &models.Listing{
			Title:    "Night nurse",
			JobType:  "caregiver",
			Location: models.Location{Province: "Quebec", Region: "Montreal"},
		},
		Boosted: true,
		Result:  scoring.Result{Score: 87.4, Reasons: []string{"Same region"}},
	})

	for _, want := range []string{"Featured", "Night nurse", "Montreal, Quebec", "87%", "Same region"} {
		if !strings.Contains(card, want) {
			t.Fatalf("card %q does not contain %q", card, want)
		}
	}
}

func TestFormatApplicant(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := "Ana"
	msg := "I live close by"

	out := FormatApplicant(applications.PendingApplicant{
		Application: models.Application{WorkerID: 7, Message: &msg, AppliedAt: now.Add(-2 * time.Hour)},
		Listing:     &models.Listing{Title: "Cook"},
		Worker:      &models.User{ID: 7, FirstName: &first},
		WorkHistory: []models.WorkHistory{{Position: "Chef", Employer: "Bistro"}},
	}, now)

	for _, want := range []string{"Ana", "Cook", "Chef, Bistro", "I live close by", "2 h ago"} {
		if !strings.Contains(out, want) {
			t.Fatalf("applicant %q does not contain %q", out, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	username := "ana_w"
	if got := DisplayName(&models.User{Username: &username}, 1); got != "@ana_w" {
		t.Fatalf("got %q", got)
	}
	if got := DisplayName(nil, 42); got != "User 42" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatCredits(t *testing.T) {
	t.Parallel()

	if got := FormatCredits(credits.Status{Remaining: credits.Unlimited, CanAct: true}); !strings.Contains(got, "unlimited") {
		t.Fatalf("got %q", got)
	}
	if got := FormatCredits(credits.Status{Remaining: 3, Limit: 10, CanAct: true}); !strings.Contains(got, "3 of 10") {
		t.Fatalf("got %q", got)
	}
	if got := FormatCredits(credits.Status{}); !strings.Contains(got, "out of swipes") {
		t.Fatalf("got %q", got)
	}
}
