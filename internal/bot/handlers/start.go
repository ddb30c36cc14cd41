package handlers

import (
	"kind-match/internal/bot/utils"
	"kind-match/internal/models"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /start command
func HandleStart(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()

		ctx.Logger.Info("user started bot",
			zap.Int64("user_id", sender.ID),
			zap.String("username", sender.Username),
		)

		dbCtx, cancel := requestContext()
		defer cancel()

		user, created, err := ctx.Store.GetOrCreateUser(dbCtx, &models.User{
			ID:        sender.ID,
			Username:  stringPtr(sender.Username),
			FirstName: stringPtr(sender.FirstName),
			LastName:  stringPtr(sender.LastName),
			Role:      models.RoleWorker,
			Credits:   ctx.Config.DefaultCredits,
		})
		if err != nil {
			ctx.Logger.Error("failed to register user", zap.Int64("user_id", sender.ID), zap.Error(err))
			return c.Send("😔 Registration failed. Please try again later.")
		}

		if created {
			ctx.Logger.Info("new user registered",
				zap.Int64("user_id", user.ID),
				zap.Int("credits", user.Credits),
			)
		}

		if err := c.Send(
			utils.FormatWelcomeMessage(sender.FirstName, user.Role),
			utils.MainMenuKeyboard(user.Role),
			tele.ModeMarkdownV2,
		); err != nil {
			return err
		}

		return c.Send("Choose your role:", utils.RoleKeyboard())
	}
}

func handleRoleChoice(ctx *Context, c tele.Context, args []string) error {
	if len(args) < 1 {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid button"})
	}

	role := models.Role(args[0])
	if role != models.RoleWorker && role != models.RoleEmployer {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown role"})
	}

	dbCtx, cancel := requestContext()
	defer cancel()

	changed, err := ctx.Store.SetUserRole(dbCtx, c.Sender().ID, role)
	if err != nil {
		return replyError(ctx, c, "set role", err)
	}
	if !changed {
		return c.Respond(&tele.CallbackResponse{Text: "Please run /start first."})
	}

	ctx.Logger.Info("role chosen",
		zap.Int64("user_id", c.Sender().ID),
		zap.String("role", string(role)),
	)

	if err := c.Send("✅ You are now registered as "+string(role)+".", utils.MainMenuKeyboard(role)); err != nil {
		return err
	}
	return c.Respond(&tele.CallbackResponse{Text: "✅ Saved"})
}
