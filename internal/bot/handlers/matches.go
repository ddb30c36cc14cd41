package handlers

import (
	"fmt"
	"strings"

	"kind-match/internal/bot/utils"
	"kind-match/internal/matches"
	"kind-match/internal/models"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	maxMatchCards    = 10
	historyPreview   = 5
	replyStatePrefix = "reply:"
)

// /matches lists the sender's matches, newest first.
func HandleMatches(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := requestContext()
		defer cancel()

		user, err := registeredUser(dbCtx, ctx, c, models.RoleWorker, models.RoleEmployer)
		if user == nil {
			return err
		}

		list, err := ctx.Matches.GetMatchesForUser(dbCtx, user.ID, user.Role, matches.ListOptions{})
		if err != nil {
			return replyError(ctx, c, "list matches", err)
		}

		if len(list) == 0 {
			if user.Role == models.RoleEmployer {
				return c.Send("No matches yet. Approve applicants in /pending.")
			}
			return c.Send("No matches yet. Keep applying in /feed.")
		}

		for i, m := range list {
			if i == maxMatchCards {
				break
			}
			if err := c.Send(
				utils.FormatMatch(m, user.Role),
				utils.MatchKeyboard(m.ID),
				tele.ModeMarkdownV2,
			); err != nil {
				ctx.Logger.Warn("failed to send match card", zap.String("match_id", m.ID), zap.Error(err))
			}
		}
		return nil
	}
}

// handleChat opens the conversation of a match and puts the sender in reply
// mode, so their next plain text goes to the other side.
func handleChat(ctx *Context, c tele.Context, args []string) error {
	if len(args) < 1 {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid button"})
	}
	matchID := args[0]
	userID := c.Sender().ID

	dbCtx, cancel := requestContext()
	defer cancel()

	user, err := ctx.Store.GetUser(dbCtx, userID)
	if err != nil || user == nil {
		return replyError(ctx, c, "load user", models.NotFound("user", userID))
	}

	match, err := ctx.Matches.Get(dbCtx, matchID)
	if err != nil {
		return replyError(ctx, c, "load match", err)
	}
	if match.EmployerID != userID && match.WorkerID != userID {
		return replyError(ctx, c, "load match", models.NotFound("match", matchID))
	}

	if err := ctx.Matches.MarkOpened(dbCtx, matchID, user.Role); err != nil {
		ctx.Logger.Warn("failed to mark match opened", zap.String("match_id", matchID), zap.Error(err))
	}

	conv, err := ctx.Conversations.FindOrCreate(dbCtx, match.EmployerID, match.WorkerID, &match.ID)
	if err != nil {
		return replyError(ctx, c, "open conversation", err)
	}

	if err := ctx.Cache.SetUserState(dbCtx, userID, replyStatePrefix+conv.ID); err != nil {
		return replyError(ctx, c, "enter reply mode", err)
	}

	if _, err := ctx.Conversations.MarkRead(dbCtx, conv.ID, userID); err != nil {
		ctx.Logger.Warn("failed to mark messages read", zap.String("conversation_id", conv.ID), zap.Error(err))
	}

	history, err := ctx.Conversations.ListMessages(dbCtx, conv.ID, historyPreview, 0)
	if err != nil {
		ctx.Logger.Warn("failed to load history", zap.String("conversation_id", conv.ID), zap.Error(err))
	}

	if err := c.Send(formatHistory(history, userID) + "\n✍️ Type your message. /cancel to stop."); err != nil {
		return err
	}
	return c.Respond()
}

// formatHistory renders messages oldest first; ListMessages returns newest
// first.
func formatHistory(history []models.Message, userID int64) string {
	if len(history) == 0 {
		return "💬 No messages yet. Say hello!\n"
	}

	var sb strings.Builder
	sb.WriteString("💬 Latest messages:\n")
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		who := "Them"
		if m.SenderID == userID {
			who = "You"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", who, utils.TruncateString(m.Content, 200)))
	}
	return sb.String()
}

// /cancel leaves reply mode.
func HandleCancel(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := requestContext()
		defer cancel()

		if err := ctx.Cache.DeleteUserState(dbCtx, c.Sender().ID); err != nil {
			ctx.Logger.Warn("failed to clear state", zap.Int64("user_id", c.Sender().ID), zap.Error(err))
		}
		return c.Send("👌 Done. You are no longer replying to a chat.")
	}
}
