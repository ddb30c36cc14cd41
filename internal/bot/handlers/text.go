package handlers

import (
	"errors"
	"strings"

	"kind-match/internal/bot/utils"
	"kind-match/internal/models"
	"kind-match/internal/storage/redis"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// HandleText routes plain text. Reply keyboard labels map to their commands
// through menu; anything else is delivered to the chat the sender is
// replying to.
func HandleText(ctx *Context, menu map[string]tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		text := strings.TrimSpace(c.Text())

		if cmd, ok := utils.MenuCommands[text]; ok {
			if h, ok := menu[cmd]; ok {
				return h(c)
			}
		}

		userID := c.Sender().ID

		dbCtx, cancel := requestContext()
		defer cancel()

		state, err := ctx.Cache.GetUserState(dbCtx, userID)
		if errors.Is(err, redis.ErrCacheMiss) {
			return c.Send("I did not get that. See /help.")
		}
		if err != nil {
			return replyError(ctx, c, "load state", err)
		}

		convID, ok := strings.CutPrefix(state, replyStatePrefix)
		if !ok {
			ctx.Logger.Warn("unknown user state", zap.Int64("user_id", userID), zap.String("state", state))
			_ = ctx.Cache.DeleteUserState(dbCtx, userID)
			return c.Send("I did not get that. See /help.")
		}

		if _, err := ctx.Conversations.SendMessage(dbCtx, convID, userID, text, models.MessageText); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				_ = ctx.Cache.DeleteUserState(dbCtx, userID)
			}
			return replyError(ctx, c, "send message", err)
		}

		// Keep reply mode alive while the user keeps talking.
		if err := ctx.Cache.SetUserState(dbCtx, userID, state); err != nil {
			ctx.Logger.Debug("failed to refresh state", zap.Error(err))
		}

		return c.Send("📨 Sent.")
	}
}
