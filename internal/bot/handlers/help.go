package handlers

import (
	"kind-match/internal/bot/utils"
	"kind-match/internal/models"

	tele "gopkg.in/telebot.v3"
)

// /help
func HandleHelp(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		role := models.RoleWorker

		dbCtx, cancel := requestContext()
		defer cancel()

		if user, err := ctx.Store.GetUser(dbCtx, c.Sender().ID); err == nil && user != nil {
			role = user.Role
		}

		return c.Send(
			utils.FormatHelpMessage(),
			utils.MainMenuKeyboard(role),
			tele.ModeMarkdownV2,
		)
	}
}
