package utils

import (
	"fmt"
	"strings"
	"time"

	"kind-match/internal/applications"
	"kind-match/internal/credits"
	"kind-match/internal/models"
	"kind-match/internal/scoring"
)

// FormatListingCard renders one feed entry as a swipe card.
func FormatListingCard(item scoring.RankedListing) string {
	var sb strings.Builder
	l := item.Listing

	if item.Boosted {
		sb.WriteString("⭐ *Featured*\n")
	}
	sb.WriteString(fmt.Sprintf("*%s*\n\n", EscapeMarkdown(l.Title)))

	if l.JobType != "" {
		sb.WriteString(fmt.Sprintf("💼 *Job:* %s\n", EscapeMarkdown(l.JobType)))
	}

	sb.WriteString(fmt.Sprintf("📍 *Where:* %s\n", EscapeMarkdown(FormatLocation(l.Location))))
	sb.WriteString(fmt.Sprintf("💰 *Pay:* %s\n", EscapeMarkdown(FormatSalary(l.SalaryMin, l.SalaryMax))))

	if len(l.RequiredSkills) > 0 {
		sb.WriteString(fmt.Sprintf("🛠 *Skills:* %s\n", EscapeMarkdown(strings.Join(l.RequiredSkills, ", "))))
	}

	if l.ExpiresAt != nil {
		sb.WriteString(fmt.Sprintf("⏳ *Open until:* %s\n", EscapeMarkdown(l.ExpiresAt.Format("02.01.2006"))))
	}

	sb.WriteString(fmt.Sprintf("\n🎯 *Match:* %s%%\n", EscapeMarkdown(fmt.Sprintf("%.0f", item.Result.Score))))
	for _, reason := range item.Result.Reasons {
		sb.WriteString(fmt.Sprintf("• %s\n", EscapeMarkdown(reason)))
	}

	return sb.String()
}

func FormatLocation(loc models.Location) string {
	switch {
	case loc.Region != "" && loc.Province != "":
		return loc.Region + ", " + loc.Province
	case loc.Province != "":
		return loc.Province
	case loc.Region != "":
		return loc.Region
	}
	return "not specified"
}

func FormatSalary(from, to int) string {
	switch {
	case from > 0 && to > 0 && from != to:
		return fmt.Sprintf("%d - %d", from, to)
	case from > 0:
		return fmt.Sprintf("from %d", from)
	case to > 0:
		return fmt.Sprintf("up to %d", to)
	}
	return "not specified"
}

// FormatApplicant renders one row of the employer review queue.
func FormatApplicant(p applications.PendingApplicant, now time.Time) string {
	var sb strings.Builder

	if p.Boosted {
		sb.WriteString("⭐ *Featured applicant*\n")
	}

	sb.WriteString(fmt.Sprintf("👤 *%s*\n", EscapeMarkdown(DisplayName(p.Worker, p.Application.WorkerID))))
	if p.Listing != nil {
		sb.WriteString(fmt.Sprintf("📋 *Listing:* %s\n", EscapeMarkdown(p.Listing.Title)))
	}

	if p.Profile != nil {
		if len(p.Profile.Skills) > 0 {
			sb.WriteString(fmt.Sprintf("🛠 *Skills:* %s\n", EscapeMarkdown(strings.Join(p.Profile.Skills, ", "))))
		}
		sb.WriteString(fmt.Sprintf("📆 *Experience:* %s\n", EscapeMarkdown(fmt.Sprintf("%.1f years", p.Profile.YearsExperience))))
		if p.Profile.Rating > 0 {
			sb.WriteString(fmt.Sprintf("⭐ *Rating:* %s\n", EscapeMarkdown(fmt.Sprintf("%.1f", p.Profile.Rating))))
		}
	}

	if p.Score != nil {
		sb.WriteString(fmt.Sprintf("🎯 *Match:* %s%%\n", EscapeMarkdown(fmt.Sprintf("%.0f", p.Score.Score))))
	}

	if len(p.WorkHistory) > 0 {
		sb.WriteString("\n*Recent work:*\n")
		for i, h := range p.WorkHistory {
			if i == 3 {
				break
			}
			sb.WriteString(fmt.Sprintf("• %s, %s\n", EscapeMarkdown(h.Position), EscapeMarkdown(h.Employer)))
		}
	}

	if p.Application.Message != nil && *p.Application.Message != "" {
		sb.WriteString(fmt.Sprintf("\n💬 _%s_\n", EscapeMarkdown(TruncateString(*p.Application.Message, 300))))
	}

	sb.WriteString(fmt.Sprintf("\n🕒 Applied %s ago\n", EscapeMarkdown(FormatAge(now.Sub(p.Application.AppliedAt)))))

	return sb.String()
}

func FormatMatch(m models.Match, role models.Role) string {
	var sb strings.Builder

	isNew := (role == models.RoleEmployer && !m.EmployerOpened) || (role == models.RoleWorker && !m.WorkerOpened)
	if isNew {
		sb.WriteString("🆕 ")
	}

	sb.WriteString(fmt.Sprintf("🤝 *Match* for listing `%s`\n", EscapeMarkdown(m.ListingID)))
	sb.WriteString(fmt.Sprintf("📅 %s\n", EscapeMarkdown(m.MatchedAt.Format("02.01.2006 15:04"))))

	return sb.String()
}

func FormatCredits(s credits.Status) string {
	if s.Remaining >= credits.Unlimited {
		return "💳 *Credits:* unlimited"
	}
	if !s.CanAct {
		return "💳 *Credits:* 0\n\nYou are out of swipes until your plan renews\\."
	}
	return fmt.Sprintf("💳 *Credits:* %d of %d", s.Remaining, s.Limit)
}

func FormatWelcomeMessage(firstName string, role models.Role) string {
	name := firstName
	if name == "" {
		name = "there"
	}

	return fmt.Sprintf(`👋 Hi, *%s*\!

I match workers with jobs nearby\.

You are registered as *%s*\. Pick a different role below if that is wrong\.

/help \- list all commands`, EscapeMarkdown(name), EscapeMarkdown(string(role)))
}

func FormatHelpMessage() string {
	return `*📖 Help*

*Workers:*
/feed \- browse listings picked for you
/rewind \- undo your last swipe
/credits \- remaining swipes

*Employers:*
/pending \- review applications

*Everyone:*
/matches \- your matches and chats
/cancel \- stop replying to a chat
/start \- register or change role
/help \- this message`
}

func FormatNoListingsMessage() string {
	return `😔 *No new listings right now*

Come back later or /rewind your last swipe\.`
}

// DisplayName picks the best human label for a user.
func DisplayName(u *models.User, fallbackID int64) string {
	if u != nil {
		if u.FirstName != nil && *u.FirstName != "" {
			name := *u.FirstName
			if u.LastName != nil && *u.LastName != "" {
				name += " " + *u.LastName
			}
			return name
		}
		if u.Username != nil && *u.Username != "" {
			return "@" + *u.Username
		}
	}
	return fmt.Sprintf("User %d", fallbackID)
}

func FormatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "moments"
	case d < time.Hour:
		return fmt.Sprintf("%d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d h", int(d.Hours()))
	}
	return fmt.Sprintf("%d d", int(d.Hours()/24))
}

// EscapeMarkdown escapes special characters for Telegram MarkdownV2
func EscapeMarkdown(text string) string {
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)

	return replacer.Replace(text)
}

// TruncateString shortens s to maxLen runes.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
