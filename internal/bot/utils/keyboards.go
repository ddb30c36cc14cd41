package utils

import (
	"kind-match/internal/models"

	tele "gopkg.in/telebot.v3"
)

// Callback actions. Buttons carry "action:arg[:arg]" as their unique part.
const (
	ActionRole     = "role"
	ActionSwipe    = "swipe"
	ActionReview   = "review"
	ActionChat     = "chat"
	ActionNextCard = "next"
)

func MainMenuKeyboard(role models.Role) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}

	btnMatches := menu.Text("🤝 Matches")
	btnHelp := menu.Text("❓ Help")

	if role == models.RoleEmployer {
		btnPending := menu.Text("📥 Applications")
		menu.Reply(
			menu.Row(btnPending, btnMatches),
			menu.Row(btnHelp),
		)
		return menu
	}

	btnFeed := menu.Text("🔍 Feed")
	btnCredits := menu.Text("💳 Credits")
	btnRewind := menu.Text("↩️ Rewind")

	menu.Reply(
		menu.Row(btnFeed, btnMatches),
		menu.Row(btnCredits, btnRewind),
		menu.Row(btnHelp),
	)

	return menu
}

// Reply keyboard labels, mapped back to commands by the text handler.
var MenuCommands = map[string]string{
	"🔍 Feed":         "/feed",
	"💳 Credits":      "/credits",
	"↩️ Rewind":       "/rewind",
	"📥 Applications": "/pending",
	"🤝 Matches":      "/matches",
	"❓ Help":         "/help",
}

func RoleKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	btnWorker := menu.Data("🧑‍🔧 I'm looking for work", CallbackData(ActionRole, string(models.RoleWorker)))
	btnEmployer := menu.Data("🏢 I'm hiring", CallbackData(ActionRole, string(models.RoleEmployer)))

	menu.Inline(
		menu.Row(btnWorker),
		menu.Row(btnEmployer),
	)

	return menu
}

func SwipeKeyboard(listingID string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	btnApply := menu.Data("✅ Apply", CallbackData(ActionSwipe, string(models.ActionApply), listingID))
	btnSkip := menu.Data("⏭ Skip", CallbackData(ActionSwipe, string(models.ActionSkip), listingID))

	menu.Inline(menu.Row(btnSkip, btnApply))

	return menu
}

func ReviewKeyboard(applicationID string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	btnApprove := menu.Data("✅ Approve", CallbackData(ActionReview, "approve", applicationID))
	btnReject := menu.Data("❌ Reject", CallbackData(ActionReview, "reject", applicationID))
	btnSkip := menu.Data("⏭ Later", CallbackData(ActionReview, "skip", applicationID))

	menu.Inline(
		menu.Row(btnApprove, btnReject),
		menu.Row(btnSkip),
	)

	return menu
}

func MatchKeyboard(matchID string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	btnChat := menu.Data("💬 Chat", CallbackData(ActionChat, matchID))
	menu.Inline(menu.Row(btnChat))

	return menu
}

func NextCardKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	btnNext := menu.Data("➡️ Next", CallbackData(ActionNextCard))
	menu.Inline(menu.Row(btnNext))

	return menu
}

func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
