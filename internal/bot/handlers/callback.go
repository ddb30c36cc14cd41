package handlers

import (
	"kind-match/internal/bot/utils"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// HandleCallback processes all callback queries from inline buttons
func HandleCallback(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			ctx.Logger.Warn("callback is nil")
			return nil
		}

		action, args := utils.ParseCallback(cb.Data)

		ctx.Logger.Debug("routing callback",
			zap.String("action", action),
			zap.Strings("args", args),
			zap.Int64("user_id", c.Sender().ID),
		)

		switch action {
		case utils.ActionRole:
			return handleRoleChoice(ctx, c, args)
		case utils.ActionSwipe:
			return handleSwipe(ctx, c, args)
		case utils.ActionNextCard:
			return handleNextCard(ctx, c)
		case utils.ActionReview:
			return handleReview(ctx, c, args)
		case utils.ActionChat:
			return handleChat(ctx, c, args)
		default:
			ctx.Logger.Warn("unknown callback action",
				zap.String("action", action),
				zap.String("data", cb.Data),
			)
			return c.Respond(&tele.CallbackResponse{Text: "❓ Unknown action"})
		}
	}
}
